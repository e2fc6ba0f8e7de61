package audio

import (
	"errors"
	"time"
)

const (
	// SampleRate is the process-wide capture, playback and transport rate in Hz.
	SampleRate = 16000

	// FrameSize is the number of samples moved per controller iteration.
	FrameSize = 128

	// BytesPerSample is the encoded size of one sample on the wire.
	BytesPerSample = 2
)

var (
	// ErrNotStarted is returned by Read or Write on a device that is not armed.
	ErrNotStarted = errors.New("audio device not started")

	// ErrAlreadyStarted is returned by Start on a device that is already armed.
	ErrAlreadyStarted = errors.New("audio device already started")
)

// Source captures PCM samples from a microphone path.
type Source interface {
	// Start configures and arms the capture hardware at sampleRate.
	Start(sampleRate int) error

	// Stop disarms the capture hardware.
	Stop() error

	// Read blocks until at least one sample is available and fills samples.
	// On success it returns 0 < n <= len(samples).
	Read(samples []int16) (int, error)
}

// Sink renders PCM samples to a speaker path.
type Sink interface {
	// Start configures and arms the output hardware at sampleRate.
	Start(sampleRate int) error

	// Stop disarms the output hardware.
	Stop() error

	// Write blocks until every sample has been consumed by the output pipeline.
	Write(samples []int16) error
}

// FrameDuration returns the playback duration of frameSize samples at sampleRate.
func FrameDuration(frameSize, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frameSize) * time.Second / time.Duration(sampleRate)
}

// SamplesFor returns the number of samples covering d at sampleRate.
func SamplesFor(d time.Duration, sampleRate int) int {
	return int(d * time.Duration(sampleRate) / time.Second)
}
