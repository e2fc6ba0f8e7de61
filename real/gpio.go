package real

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// GPIOButton reads a push-to-talk switch from a sysfs GPIO value file.
// It satisfies interfaces.PushToTalk.
type GPIOButton struct {
	path      string
	activeLow bool
	read      func(path string) ([]byte, error)
	failing   atomic.Bool
}

// NewGPIOButton creates a button on the value file at path. With activeLow
// the button is pressed when the line reads 0, as with a pull-up to ground.
func NewGPIOButton(path string, activeLow bool) (*GPIOButton, error) {
	if path == "" {
		return nil, errors.New("gpio value path cannot be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gpio value file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewGPIOButton",
		"path":       path,
		"active_low": activeLow,
	}).Info("GPIO push-to-talk configured")

	return &GPIOButton{path: path, activeLow: activeLow, read: os.ReadFile}, nil
}

// Pressed implements interfaces.PushToTalk. A line that cannot be read
// counts as released.
func (b *GPIOButton) Pressed() bool {
	data, err := b.read(b.path)
	if err != nil {
		if !b.failing.Swap(true) {
			logrus.WithFields(logrus.Fields{
				"function": "GPIOButton.Pressed",
				"path":     b.path,
				"error":    err.Error(),
			}).Warn("Cannot read push-to-talk line")
		}
		return false
	}
	if b.failing.Swap(false) {
		logrus.WithFields(logrus.Fields{
			"function": "GPIOButton.Pressed",
			"path":     b.path,
		}).Info("Push-to-talk line readable again")
	}

	high := len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '1'
	return high != b.activeLow
}

// GPIOAmplifier drives the speaker shutdown line through a sysfs value file.
// It satisfies interfaces.Amplifier.
type GPIOAmplifier struct {
	path  string
	write func(path string, data []byte) error
}

// NewGPIOAmplifier creates an amplifier switch on the value file at path.
func NewGPIOAmplifier(path string) (*GPIOAmplifier, error) {
	if path == "" {
		return nil, errors.New("gpio value path cannot be empty")
	}
	return &GPIOAmplifier{
		path: path,
		write: func(p string, data []byte) error {
			return os.WriteFile(p, data, 0o644)
		},
	}, nil
}

// SetEnabled drives the line high to enable the amplifier.
func (a *GPIOAmplifier) SetEnabled(on bool) error {
	value := []byte("0")
	if on {
		value = []byte("1")
	}
	if err := a.write(a.path, value); err != nil {
		return fmt.Errorf("set amplifier line %s: %w", a.path, err)
	}
	return nil
}
