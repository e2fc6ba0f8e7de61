package recording

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), interfaces.Recording{ID: "x"}))
}

func TestExecNotifierPassesPathAndMetadata(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	out := filepath.Join(t.TempDir(), "out.txt")
	n, err := NewExecNotifier(sh, "-c", `printf '%s %s' "$WALKIE_RECORDING_ID" "$1" > "`+out+`"`, "notify")
	require.NoError(t, err)

	rec := interfaces.Recording{ID: "rec-1", Path: "/data/audio_1.wav", Samples: 16000, SampleRate: 16000}
	require.NoError(t, n.Notify(context.Background(), rec))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "rec-1 /data/audio_1.wav", string(got))
}

func TestExecNotifierReportsFailure(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	n, err := NewExecNotifier(sh, "-c", "echo quota exceeded >&2; exit 3", "notify")
	require.NoError(t, err)

	err = n.Notify(context.Background(), interfaces.Recording{Path: "x.wav"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewExecNotifierRequiresCommand(t *testing.T) {
	_, err := NewExecNotifier("")
	assert.Error(t, err)
}
