package interfaces

import (
	"context"
	"time"
)

// Indicator colours used by the station, as 0xRRGGBB.
const (
	ColorOff   uint32 = 0x000000
	ColorRed   uint32 = 0xFF0000
	ColorGreen uint32 = 0x00FF00
)

// PushToTalk reports the state of the talk button.
type PushToTalk interface {
	// Pressed returns true while the operator holds the button.
	Pressed() bool
}

// StatusIndicator presents the station state to the operator.
type StatusIndicator interface {
	// Begin initializes the indicator hardware
	Begin() error

	// SetDefaultColor sets the steady colour shown when not flashing
	SetDefaultColor(rgb uint32)

	// SetFlashing starts or stops flashing in the given colour
	SetFlashing(on bool, rgb uint32)
}

// Amplifier switches the speaker output stage.
type Amplifier interface {
	SetEnabled(on bool) error
}

// Recorder persists the frames captured during one transmit burst.
type Recorder interface {
	// Append adds captured samples to the current recording, starting one if needed
	Append(samples []int16) error

	// Finish completes the current recording
	Finish() error
}

// Notifier delivers news of a completed recording to the outside world.
type Notifier interface {
	Notify(ctx context.Context, rec Recording) error
}

// Recording describes one completed capture of a transmit burst.
type Recording struct {
	ID         string
	Path       string
	Samples    int
	SampleRate int
	CreatedAt  time.Time
}

// Duration returns the length of the recorded audio.
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(r.Samples) * time.Second / time.Duration(r.SampleRate)
}
