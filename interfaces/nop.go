package interfaces

import "context"

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Append([]int16) error { return nil }
func (NopRecorder) Finish() error        { return nil }

// NopIndicator shows nothing.
type NopIndicator struct{}

func (NopIndicator) Begin() error             { return nil }
func (NopIndicator) SetDefaultColor(uint32)   {}
func (NopIndicator) SetFlashing(bool, uint32) {}

// NopAmplifier has no output stage to switch.
type NopAmplifier struct{}

func (NopAmplifier) SetEnabled(bool) error { return nil }

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Recording) error { return nil }

// Released is a PushToTalk that is never pressed.
type Released struct{}

func (Released) Pressed() bool { return false }

var (
	_ Recorder        = NopRecorder{}
	_ StatusIndicator = NopIndicator{}
	_ Amplifier       = NopAmplifier{}
	_ Notifier        = NopNotifier{}
	_ PushToTalk      = Released{}
)
