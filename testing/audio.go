package testing

import (
	"sync"
	"time"

	"github.com/opd-ai/walkietalkie/audio"
)

// FakeSource is an audio.Source producing a deterministic sample sequence.
// Configure the exported fields before Start.
type FakeSource struct {
	// Generator returns sample i of the stream; a counting ramp when nil.
	Generator func(i int) int16
	// OnRead runs after every successful Read with the number of samples produced.
	OnRead func(n int)
	// Realtime makes Read block for the real duration of the frame.
	Realtime bool
	// ReadErr is returned by every Read when set.
	ReadErr error
	// StartErr is returned by Start when set.
	StartErr error

	mu       sync.Mutex
	started  bool
	rate     int
	produced int
	reads    int
	starts   int
	stops    int
}

var _ audio.Source = (*FakeSource)(nil)

// NewFakeSource creates a source producing a counting ramp.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// Start implements audio.Source.
func (s *FakeSource) Start(sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	if s.started {
		return audio.ErrAlreadyStarted
	}
	s.started = true
	s.rate = sampleRate
	s.starts++
	return nil
}

// Stop implements audio.Source.
func (s *FakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return audio.ErrNotStarted
	}
	s.started = false
	s.stops++
	return nil
}

// Read implements audio.Source. It always fills samples completely.
func (s *FakeSource) Read(samples []int16) (int, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return 0, audio.ErrNotStarted
	}
	if s.ReadErr != nil {
		s.mu.Unlock()
		return 0, s.ReadErr
	}
	for i := range samples {
		if s.Generator != nil {
			samples[i] = s.Generator(s.produced + i)
		} else {
			samples[i] = int16(s.produced + i)
		}
	}
	s.produced += len(samples)
	s.reads++
	rate, realtime, hook := s.rate, s.Realtime, s.OnRead
	s.mu.Unlock()

	if realtime {
		time.Sleep(audio.FrameDuration(len(samples), rate))
	}
	if hook != nil {
		hook(len(samples))
	}
	return len(samples), nil
}

// Started reports whether the source is running.
func (s *FakeSource) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Reads returns the number of successful reads.
func (s *FakeSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Produced returns the number of samples produced so far.
func (s *FakeSource) Produced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.produced
}

// Starts returns how many times the source was started.
func (s *FakeSource) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// FakeSink is an audio.Sink recording every sample it plays.
// Configure the exported fields before Start.
type FakeSink struct {
	// MaxRecorded caps the samples kept for inspection; 0 keeps everything.
	MaxRecorded int
	// Realtime makes Write block for the real duration of the frame.
	Realtime bool
	// OnWrite runs after every Write with the samples written.
	OnWrite func(samples []int16)
	// StartErr is returned by Start when set.
	StartErr error
	// WriteErr is returned by every Write when set.
	WriteErr error

	mu       sync.Mutex
	started  bool
	rate     int
	recorded []int16
	written  int
	writes   int
	starts   int
	stops    int
}

var _ audio.Sink = (*FakeSink)(nil)

// NewFakeSink creates a sink that keeps everything it plays.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Start implements audio.Sink.
func (s *FakeSink) Start(sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	if s.started {
		return audio.ErrAlreadyStarted
	}
	s.started = true
	s.rate = sampleRate
	s.starts++
	return nil
}

// Stop implements audio.Sink.
func (s *FakeSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return audio.ErrNotStarted
	}
	s.started = false
	s.stops++
	return nil
}

// Write implements audio.Sink.
func (s *FakeSink) Write(samples []int16) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return audio.ErrNotStarted
	}
	if s.WriteErr != nil {
		s.mu.Unlock()
		return s.WriteErr
	}
	keep := samples
	if s.MaxRecorded > 0 {
		keep = keep[:min(len(keep), max(0, s.MaxRecorded-len(s.recorded)))]
	}
	s.recorded = append(s.recorded, keep...)
	s.written += len(samples)
	s.writes++
	rate, realtime, hook := s.rate, s.Realtime, s.OnWrite
	s.mu.Unlock()

	if realtime {
		time.Sleep(audio.FrameDuration(len(samples), rate))
	}
	if hook != nil {
		hook(samples)
	}
	return nil
}

// Samples returns a copy of the recorded samples.
func (s *FakeSink) Samples() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int16(nil), s.recorded...)
}

// Written returns the total number of samples written.
func (s *FakeSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Writes returns the number of Write calls that succeeded.
func (s *FakeSink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Started reports whether the sink is running.
func (s *FakeSink) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Starts returns how many times the sink was started.
func (s *FakeSink) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}
