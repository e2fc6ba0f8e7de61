package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/sirupsen/logrus"
)

// LogNotifier reports completed recordings in the log.
type LogNotifier struct{}

// Notify implements interfaces.Notifier.
func (LogNotifier) Notify(_ context.Context, rec interfaces.Recording) error {
	logrus.WithFields(logrus.Fields{
		"function": "LogNotifier.Notify",
		"id":       rec.ID,
		"path":     rec.Path,
		"samples":  rec.Samples,
		"duration": rec.Duration().String(),
	}).Info("New recording available")
	return nil
}

// ExecNotifier runs a command for each completed recording. The file path is
// appended as the last argument and the recording metadata is exported as
// WALKIE_RECORDING_* environment variables.
type ExecNotifier struct {
	command string
	args    []string
}

// NewExecNotifier creates a notifier running command with args.
func NewExecNotifier(command string, args ...string) (*ExecNotifier, error) {
	if command == "" {
		return nil, errors.New("notify command cannot be empty")
	}
	return &ExecNotifier{command: command, args: args}, nil
}

// Notify implements interfaces.Notifier.
func (n *ExecNotifier) Notify(ctx context.Context, rec interfaces.Recording) error {
	args := append(append([]string(nil), n.args...), rec.Path)
	cmd := exec.CommandContext(ctx, n.command, args...)
	cmd.Env = append(os.Environ(),
		"WALKIE_RECORDING_ID="+rec.ID,
		"WALKIE_RECORDING_PATH="+rec.Path,
		"WALKIE_RECORDING_SAMPLES="+strconv.Itoa(rec.Samples),
		"WALKIE_RECORDING_SAMPLE_RATE="+strconv.Itoa(rec.SampleRate),
	)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify command %s: %w: %s", n.command, err, bytes.TrimSpace(output.Bytes()))
	}

	logrus.WithFields(logrus.Fields{
		"function": "ExecNotifier.Notify",
		"command":  n.command,
		"id":       rec.ID,
	}).Debug("Notify command completed")
	return nil
}
