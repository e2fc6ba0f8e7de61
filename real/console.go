package real

import (
	"bufio"
	"errors"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LineToggle is a push-to-talk driven by a line-oriented reader such as a
// terminal: every line flips between talking and listening.
// It satisfies interfaces.PushToTalk.
type LineToggle struct {
	pressed atomic.Bool
	done    chan struct{}
}

// NewLineToggle starts reading lines from r until it reports EOF or an error.
func NewLineToggle(r io.Reader) (*LineToggle, error) {
	if r == nil {
		return nil, errors.New("reader cannot be nil")
	}

	t := &LineToggle{done: make(chan struct{})}
	go t.run(r)
	return t, nil
}

func (t *LineToggle) run(r io.Reader) {
	defer close(t.done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		now := !t.pressed.Load()
		t.pressed.Store(now)
		logrus.WithFields(logrus.Fields{
			"function": "LineToggle.run",
			"talking":  now,
		}).Info("Push-to-talk toggled")
	}

	// A closed input must not leave the station stuck transmitting.
	t.pressed.Store(false)
	if err := scanner.Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LineToggle.run",
			"error":    err.Error(),
		}).Warn("Push-to-talk input failed")
	}
}

// Pressed implements interfaces.PushToTalk.
func (t *LineToggle) Pressed() bool {
	return t.pressed.Load()
}

// Done is closed once the input is exhausted.
func (t *LineToggle) Done() <-chan struct{} {
	return t.done
}
