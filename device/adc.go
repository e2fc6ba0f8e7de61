package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/sirupsen/logrus"
)

const (
	// adcMidScale is the 12-bit converter reading for silence.
	adcMidScale = 2048
	// adcMask keeps the 12 data bits of a converter word.
	adcMask = 0x0fff
	// adcGain scales a centred 12-bit value into the 16-bit range.
	adcGain = 15
)

// ADCSource captures an analog microphone through a 12-bit converter whose
// raw little-endian words are streamed from a device node.
type ADCSource struct {
	mu     sync.Mutex
	path   string
	frames int
	raw    []byte
	dev    io.ReadCloser
	open   func(path string) (io.ReadCloser, error)
}

// NewADCSource creates a converter source reading framesPerBuffer words per
// transfer from the device at path.
func NewADCSource(path string, framesPerBuffer int) *ADCSource {
	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.FrameSize
	}
	return &ADCSource{
		path:   path,
		frames: framesPerBuffer,
		raw:    make([]byte, framesPerBuffer*2),
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Start opens the converter device. The converter is clocked externally at
// sampleRate; the value is only recorded for diagnostics.
func (a *ADCSource) Start(sampleRate int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return audio.ErrAlreadyStarted
	}
	dev, err := a.open(a.path)
	if err != nil {
		return fmt.Errorf("failed to open converter %s: %w", a.path, err)
	}
	a.dev = dev

	logrus.WithFields(logrus.Fields{
		"function":    "ADCSource.Start",
		"path":        a.path,
		"sample_rate": sampleRate,
	}).Debug("Analog microphone armed")
	return nil
}

// Stop closes the converter device.
func (a *ADCSource) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return nil
	}
	err := a.dev.Close()
	a.dev = nil
	if err != nil {
		return fmt.Errorf("failed to close converter %s: %w", a.path, err)
	}
	return nil
}

// Read blocks until up to one transfer worth of converter words has arrived
// and converts them into samples.
func (a *ADCSource) Read(samples []int16) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return 0, audio.ErrNotStarted
	}
	want := min(len(samples), a.frames)
	if want == 0 {
		return 0, nil
	}

	buf := a.raw[:want*2]
	if _, err := io.ReadFull(a.dev, buf); err != nil {
		return 0, fmt.Errorf("failed to read converter %s: %w", a.path, err)
	}
	for i := 0; i < want; i++ {
		samples[i] = convertADC(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return want, nil
}

// convertADC re-centres a 12-bit converter word and scales it to 16 bits.
func convertADC(raw uint16) int16 {
	return int16((adcMidScale - int32(raw&adcMask)) * adcGain)
}
