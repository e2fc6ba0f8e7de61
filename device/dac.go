package device

import (
	"fmt"
	"sync"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/sirupsen/logrus"
)

// DACSink plays through an 8-bit converter.
type DACSink struct {
	mu     sync.Mutex
	frames int
	out    []uint8
	fill   int
	stream hostStream
	open   streamOpener
}

// NewDACSink creates a converter output writing framesPerBuffer samples per
// hardware transfer.
func NewDACSink(framesPerBuffer int) *DACSink {
	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.FrameSize
	}
	return &DACSink{
		frames: framesPerBuffer,
		out:    make([]uint8, framesPerBuffer),
		open:   openPortaudio,
	}
}

// Start opens and starts an unsigned 8-bit playback stream at sampleRate.
func (d *DACSink) Start(sampleRate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return audio.ErrAlreadyStarted
	}

	stream, err := d.open(0, 1, float64(sampleRate), d.frames, d.out)
	if err != nil {
		return fmt.Errorf("failed to open converter stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start converter stream: %w", err)
	}
	d.stream = stream
	d.fill = 0

	logrus.WithFields(logrus.Fields{
		"function":    "DACSink.Start",
		"sample_rate": sampleRate,
	}).Debug("Converter speaker armed")
	return nil
}

// Stop stops and closes the converter stream.
func (d *DACSink) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return nil
	}
	err := closeStream(d.stream)
	d.stream = nil
	d.fill = 0
	return err
}

// Write converts samples to unsigned 8-bit and queues them into hardware
// transfers, blocking on each full one.
func (d *DACSink) Write(samples []int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return audio.ErrNotStarted
	}

	for _, s := range samples {
		d.out[d.fill] = convertDAC(s)
		d.fill++
		if d.fill == len(d.out) {
			d.fill = 0
			if err := d.stream.Write(); err != nil {
				return fmt.Errorf("failed to write converter stream: %w", err)
			}
		}
	}
	return nil
}

// convertDAC maps a signed sample onto the unsigned 8-bit converter range.
func convertDAC(s int16) uint8 {
	return uint8((int32(s) + 32768) >> 8)
}
