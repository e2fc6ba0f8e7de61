package real

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogIndicator reports indicator changes in the log.
// It satisfies interfaces.StatusIndicator.
type LogIndicator struct {
	mu       sync.Mutex
	color    uint32
	flashing bool
	flash    uint32
}

// NewLogIndicator creates an indicator showing nothing.
func NewLogIndicator() *LogIndicator {
	return &LogIndicator{}
}

// Begin implements interfaces.StatusIndicator.
func (l *LogIndicator) Begin() error {
	logrus.WithFields(logrus.Fields{
		"function": "LogIndicator.Begin",
	}).Info("Status indicator ready")
	return nil
}

// SetDefaultColor implements interfaces.StatusIndicator.
func (l *LogIndicator) SetDefaultColor(rgb uint32) {
	l.mu.Lock()
	changed := l.color != rgb
	l.color = rgb
	l.mu.Unlock()

	if changed {
		logrus.WithFields(logrus.Fields{
			"function": "LogIndicator.SetDefaultColor",
			"color":    hexColor(rgb),
		}).Info("Indicator colour changed")
	}
}

// SetFlashing implements interfaces.StatusIndicator.
func (l *LogIndicator) SetFlashing(on bool, rgb uint32) {
	l.mu.Lock()
	changed := l.flashing != on || (on && l.flash != rgb)
	l.flashing, l.flash = on, rgb
	l.mu.Unlock()

	if changed {
		logrus.WithFields(logrus.Fields{
			"function": "LogIndicator.SetFlashing",
			"flashing": on,
			"color":    hexColor(rgb),
		}).Info("Indicator flashing changed")
	}
}

// State returns what the indicator currently shows.
func (l *LogIndicator) State() (color uint32, flashing bool, flashColor uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color, l.flashing, l.flash
}

func hexColor(rgb uint32) string {
	return fmt.Sprintf("#%06x", rgb&0xFFFFFF)
}
