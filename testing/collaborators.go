package testing

import (
	"fmt"
	"sync"

	"github.com/opd-ai/walkietalkie/interfaces"
)

// Button is a push-to-talk switch driven by tests.
type Button struct {
	mu    sync.Mutex
	held  bool
	polls int
	reads int
}

var _ interfaces.PushToTalk = (*Button)(nil)

// Press holds the button down until Release.
func (b *Button) Press() {
	b.mu.Lock()
	b.held = true
	b.mu.Unlock()
}

// Release lets go of the button.
func (b *Button) Release() {
	b.mu.Lock()
	b.held = false
	b.polls = 0
	b.mu.Unlock()
}

// PressFor reports pressed for the next n polls only.
func (b *Button) PressFor(n int) {
	b.mu.Lock()
	b.polls = n
	b.mu.Unlock()
}

// Pressed implements interfaces.PushToTalk.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.polls > 0 {
		b.polls--
		return true
	}
	return b.held
}

// Polls returns how many times the button was polled.
func (b *Button) Polls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

// Indicator records the calls made to a status indicator as readable events.
type Indicator struct {
	mu     sync.Mutex
	events []string
}

var _ interfaces.StatusIndicator = (*Indicator)(nil)

func (i *Indicator) record(format string, args ...any) {
	i.mu.Lock()
	i.events = append(i.events, fmt.Sprintf(format, args...))
	i.mu.Unlock()
}

// Begin implements interfaces.StatusIndicator.
func (i *Indicator) Begin() error {
	i.record("begin")
	return nil
}

// SetDefaultColor implements interfaces.StatusIndicator.
func (i *Indicator) SetDefaultColor(rgb uint32) {
	i.record("default %06x", rgb)
}

// SetFlashing implements interfaces.StatusIndicator.
func (i *Indicator) SetFlashing(on bool, rgb uint32) {
	i.record("flashing %t %06x", on, rgb)
}

// Events returns the recorded events in order.
func (i *Indicator) Events() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.events...)
}

// Recorder collects the bursts handed to an interfaces.Recorder.
type Recorder struct {
	// AppendErr is returned by every Append when set.
	AppendErr error

	mu       sync.Mutex
	current  []int16
	finished [][]int16
}

var _ interfaces.Recorder = (*Recorder)(nil)

// Append implements interfaces.Recorder.
func (r *Recorder) Append(samples []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.current = append(r.current, samples...)
	return nil
}

// Finish implements interfaces.Recorder.
func (r *Recorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, r.current)
	r.current = nil
	return nil
}

// Bursts returns the samples of every finished burst.
func (r *Recorder) Bursts() [][]int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int16(nil), r.finished...)
}

// Amplifier records the speaker enable line.
type Amplifier struct {
	mu      sync.Mutex
	enabled bool
	changes int
}

var _ interfaces.Amplifier = (*Amplifier)(nil)

// SetEnabled implements interfaces.Amplifier.
func (a *Amplifier) SetEnabled(on bool) error {
	a.mu.Lock()
	a.enabled = on
	a.changes++
	a.mu.Unlock()
	return nil
}

// Enabled reports the current state of the line.
func (a *Amplifier) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}
