package jitter

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity holds 300 ms of audio at 16 kHz.
const DefaultCapacity = 4800

// Statistics tracks buffer health.
type Statistics struct {
	SamplesWritten  uint64
	SamplesRead     uint64
	OverrunDiscards uint64 // oldest samples dropped to make room
	Underruns       uint64 // RemoveSamples calls that had to insert silence
	SilenceSamples  uint64 // zero samples inserted by underruns and prebuffering
	Flushes         uint64
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithPrebuffer holds playback at silence after the ring runs dry until
// threshold samples are queued again. A threshold of 0 disables prebuffering.
func WithPrebuffer(threshold int) Option {
	return func(b *Buffer) {
		if threshold < 0 {
			threshold = 0
		}
		if threshold > len(b.ring) {
			threshold = len(b.ring)
		}
		b.prebuffer = threshold
		b.buffering = threshold > 0
	}
}

// Buffer is a fixed-capacity ring of PCM samples shared between one
// producer and one consumer.
type Buffer struct {
	mu        sync.Mutex
	ring      []int16
	read      int
	write     int
	count     int
	prebuffer int
	buffering bool
	stats     Statistics
}

// NewBuffer creates a ring buffer holding capacity samples.
//
// Parameters:
//   - capacity: Number of sample slots, must be positive
//   - opts: Optional behaviour such as WithPrebuffer
//
// Returns:
//   - *Buffer: The empty buffer
//   - error: If capacity is not positive
func NewBuffer(capacity int, opts ...Option) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("jitter buffer capacity must be positive, got %d", capacity)
	}

	b := &Buffer{ring: make([]int16, capacity)}
	for _, opt := range opts {
		opt(b)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "NewBuffer",
		"capacity":  capacity,
		"prebuffer": b.prebuffer,
	}).Info("Jitter buffer created")

	return b, nil
}

// AddSample appends one sample, discarding the oldest unread sample when full.
func (b *Buffer) AddSample(s int16) {
	b.mu.Lock()
	b.push(s)
	b.mu.Unlock()
}

// AddSamples appends samples in order under a single lock acquisition.
func (b *Buffer) AddSamples(samples []int16) {
	b.mu.Lock()
	for _, s := range samples {
		b.push(s)
	}
	b.mu.Unlock()
}

// push must be called with mu held.
func (b *Buffer) push(s int16) {
	if b.count == len(b.ring) {
		b.read = (b.read + 1) % len(b.ring)
		b.count--
		b.stats.OverrunDiscards++
	}
	b.ring[b.write] = s
	b.write = (b.write + 1) % len(b.ring)
	b.count++
	b.stats.SamplesWritten++
}

// RemoveSamples copies up to len(out) samples into out in arrival order and
// fills the rest of out with silence. It returns the number of real samples
// copied and never blocks.
func (b *Buffer) RemoveSamples(out []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.prebuffer > 0 {
		if b.count == 0 {
			b.buffering = true
		}
		if b.buffering && b.count < b.prebuffer {
			clear(out)
			b.stats.SilenceSamples += uint64(len(out))
			return 0
		}
		b.buffering = false
	}

	n := min(len(out), b.count)
	first := min(n, len(b.ring)-b.read)
	copy(out[:first], b.ring[b.read:b.read+first])
	copy(out[first:n], b.ring[:n-first])
	b.read = (b.read + n) % len(b.ring)
	b.count -= n
	b.stats.SamplesRead += uint64(n)
	if b.count == 0 && b.prebuffer > 0 {
		b.buffering = true
	}

	if n < len(out) {
		clear(out[n:])
		b.stats.Underruns++
		b.stats.SilenceSamples += uint64(len(out) - n)
	}
	return n
}

// Flush discards everything queued.
func (b *Buffer) Flush() {
	b.mu.Lock()
	discarded := b.count
	b.read, b.write, b.count = 0, 0, 0
	b.buffering = b.prebuffer > 0
	b.stats.Flushes++
	b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Buffer.Flush",
		"discarded": discarded,
	}).Debug("Jitter buffer flushed")
}

// Len returns the number of queued samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the capacity in samples.
func (b *Buffer) Cap() int {
	return len(b.ring)
}

// Stats returns a snapshot of the buffer statistics.
func (b *Buffer) Stats() Statistics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
