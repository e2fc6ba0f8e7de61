package real

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ interfaces.PushToTalk      = (*GPIOButton)(nil)
	_ interfaces.PushToTalk      = (*LineToggle)(nil)
	_ interfaces.Amplifier       = (*GPIOAmplifier)(nil)
	_ interfaces.StatusIndicator = (*LogIndicator)(nil)
)

func writeValue(t *testing.T, path, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(value), 0o644))
}

func TestGPIOButtonActiveLow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	writeValue(t, path, "1\n")

	b, err := NewGPIOButton(path, true)
	require.NoError(t, err)
	assert.False(t, b.Pressed())

	writeValue(t, path, "0\n")
	assert.True(t, b.Pressed())
}

func TestGPIOButtonActiveHigh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	writeValue(t, path, "1")

	b, err := NewGPIOButton(path, false)
	require.NoError(t, err)
	assert.True(t, b.Pressed())
}

func TestGPIOButtonReadFailureIsReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	writeValue(t, path, "0")

	b, err := NewGPIOButton(path, true)
	require.NoError(t, err)
	b.read = func(string) ([]byte, error) { return nil, errors.New("gone") }
	assert.False(t, b.Pressed())
	assert.False(t, b.Pressed())
	assert.True(t, b.failing.Load())
}

func TestNewGPIOButtonValidation(t *testing.T) {
	_, err := NewGPIOButton("", false)
	assert.Error(t, err)
	_, err = NewGPIOButton(filepath.Join(t.TempDir(), "missing"), false)
	assert.Error(t, err)
}

func TestGPIOAmplifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	a, err := NewGPIOAmplifier(path)
	require.NoError(t, err)

	require.NoError(t, a.SetEnabled(true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	require.NoError(t, a.SetEnabled(false))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))

	_, err = NewGPIOAmplifier("")
	assert.Error(t, err)
}

func TestLineToggle(t *testing.T) {
	r, w := io.Pipe()
	toggle, err := NewLineToggle(r)
	require.NoError(t, err)
	assert.False(t, toggle.Pressed())

	_, err = w.Write([]byte("\n"))
	require.NoError(t, err)
	assert.Eventually(t, toggle.Pressed, time.Second, time.Millisecond)

	_, err = w.Write([]byte("\n"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !toggle.Pressed() }, time.Second, time.Millisecond)

	_, err = w.Write([]byte("talk\n"))
	require.NoError(t, err)
	assert.Eventually(t, toggle.Pressed, time.Second, time.Millisecond)

	// EOF releases the button.
	require.NoError(t, w.Close())
	<-toggle.Done()
	assert.False(t, toggle.Pressed())
}

func TestLineToggleOverString(t *testing.T) {
	toggle, err := NewLineToggle(strings.NewReader("a\nb\nc\n"))
	require.NoError(t, err)
	<-toggle.Done()
	assert.False(t, toggle.Pressed())

	_, err = NewLineToggle(nil)
	assert.Error(t, err)
}

func TestLogIndicatorState(t *testing.T) {
	l := NewLogIndicator()
	require.NoError(t, l.Begin())

	l.SetFlashing(true, interfaces.ColorRed)
	l.SetDefaultColor(interfaces.ColorGreen)
	color, flashing, flash := l.State()
	assert.Equal(t, interfaces.ColorGreen, color)
	assert.True(t, flashing)
	assert.Equal(t, interfaces.ColorRed, flash)

	l.SetFlashing(false, interfaces.ColorRed)
	_, flashing, _ = l.State()
	assert.False(t, flashing)
	assert.Equal(t, "#00ff00", hexColor(interfaces.ColorGreen))
}
