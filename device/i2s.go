package device

import (
	"fmt"
	"sync"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/sirupsen/logrus"
)

// I2SSource captures a digital bus microphone delivering 32-bit words.
type I2SSource struct {
	mu     sync.Mutex
	frames int
	raw    []int32
	pos    int
	stream hostStream
	open   streamOpener
}

// NewI2SSource creates a digital microphone source reading framesPerBuffer
// words per hardware transfer.
func NewI2SSource(framesPerBuffer int) *I2SSource {
	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.FrameSize
	}
	return &I2SSource{
		frames: framesPerBuffer,
		raw:    make([]int32, framesPerBuffer),
		open:   openPortaudio,
	}
}

// Start opens and starts a mono capture stream at sampleRate.
func (s *I2SSource) Start(sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return audio.ErrAlreadyStarted
	}

	stream, err := s.open(1, 0, float64(sampleRate), s.frames, s.raw)
	if err != nil {
		return fmt.Errorf("failed to open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	s.stream = stream
	s.pos = len(s.raw)

	logrus.WithFields(logrus.Fields{
		"function":    "I2SSource.Start",
		"sample_rate": sampleRate,
		"frames":      s.frames,
	}).Debug("Digital microphone armed")
	return nil
}

// Stop stops and closes the capture stream.
func (s *I2SSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	err := closeStream(s.stream)
	s.stream = nil
	return err
}

// Read fills samples from the current hardware transfer, blocking for a new
// transfer when the previous one has been consumed.
func (s *I2SSource) Read(samples []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return 0, audio.ErrNotStarted
	}
	if len(samples) == 0 {
		return 0, nil
	}

	if s.pos >= len(s.raw) {
		if err := s.stream.Read(); err != nil {
			return 0, fmt.Errorf("failed to read capture stream: %w", err)
		}
		s.pos = 0
	}

	n := copy32to16(samples, s.raw[s.pos:])
	s.pos += n
	return n, nil
}

// copy32to16 keeps the upper 16 bits of each 32-bit word.
func copy32to16(dst []int16, src []int32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = int16(src[i] >> 16)
	}
	return n
}

// I2SSink plays through a digital bus amplifier.
type I2SSink struct {
	mu     sync.Mutex
	frames int
	out    []int16
	fill   int
	stream hostStream
	open   streamOpener
}

// NewI2SSink creates a digital output writing framesPerBuffer samples per
// hardware transfer.
func NewI2SSink(framesPerBuffer int) *I2SSink {
	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.FrameSize
	}
	return &I2SSink{
		frames: framesPerBuffer,
		out:    make([]int16, framesPerBuffer),
		open:   openPortaudio,
	}
}

// Start opens and starts a mono playback stream at sampleRate.
func (k *I2SSink) Start(sampleRate int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stream != nil {
		return audio.ErrAlreadyStarted
	}

	stream, err := k.open(0, 1, float64(sampleRate), k.frames, k.out)
	if err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start playback stream: %w", err)
	}

	k.stream = stream
	k.fill = 0

	logrus.WithFields(logrus.Fields{
		"function":    "I2SSink.Start",
		"sample_rate": sampleRate,
		"frames":      k.frames,
	}).Debug("Digital speaker armed")
	return nil
}

// Stop stops and closes the playback stream. A partially filled transfer
// is discarded.
func (k *I2SSink) Stop() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stream == nil {
		return nil
	}
	err := closeStream(k.stream)
	k.stream = nil
	k.fill = 0
	return err
}

// Write queues samples into hardware transfers, blocking on each full one.
func (k *I2SSink) Write(samples []int16) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stream == nil {
		return audio.ErrNotStarted
	}

	for len(samples) > 0 {
		n := copy(k.out[k.fill:], samples)
		k.fill += n
		samples = samples[n:]
		if k.fill == len(k.out) {
			k.fill = 0
			if err := k.stream.Write(); err != nil {
				return fmt.Errorf("failed to write playback stream: %w", err)
			}
		}
	}
	return nil
}
