package transport

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrNotStarted is returned when sending on a link before Begin.
	ErrNotStarted = errors.New("transport link not started")

	// ErrUnsupported is returned by Begin when the medium is unavailable on this platform.
	ErrUnsupported = errors.New("transport medium not supported on this platform")
)

// SampleWriter receives decoded payload samples from the receive path.
// The jitter buffer satisfies it.
type SampleWriter interface {
	AddSamples(samples []int16)
}

// Link defines the interface for the broadcast media carrying audio.
// This abstraction allows the datagram and link-layer variants to be
// used interchangeably by the session controller.
type Link interface {
	// Begin arms the medium and starts the receive path.
	Begin() error

	// SetHeader sets the prefix prepended to every outgoing packet and
	// required on every incoming packet.
	SetHeader(header []byte) error

	// AddSample accumulates one sample, sending a packet when it is full.
	AddSample(sample int16) error

	// Flush sends any accumulated samples as a short packet.
	Flush() error

	// PayloadCapacity returns how many samples one packet carries.
	PayloadCapacity() int

	// Stats returns a snapshot of the link counters.
	Stats() Statistics

	// Close stops the receive path and releases the medium.
	Close() error
}

// Statistics tracks link activity.
type Statistics struct {
	PacketsSent      uint64
	SamplesSent      uint64
	SendErrors       uint64
	PacketsReceived  uint64
	SamplesReceived  uint64
	HeaderMismatches uint64
	OversizedDrops   uint64
	SelfEchoes       uint64
	ReceiveErrors    uint64
}

// counters is the lock-free backing store for Statistics.
type counters struct {
	packetsSent      atomic.Uint64
	samplesSent      atomic.Uint64
	sendErrors       atomic.Uint64
	packetsReceived  atomic.Uint64
	samplesReceived  atomic.Uint64
	headerMismatches atomic.Uint64
	oversizedDrops   atomic.Uint64
	selfEchoes       atomic.Uint64
	receiveErrors    atomic.Uint64
}

func (c *counters) snapshot() Statistics {
	return Statistics{
		PacketsSent:      c.packetsSent.Load(),
		SamplesSent:      c.samplesSent.Load(),
		SendErrors:       c.sendErrors.Load(),
		PacketsReceived:  c.packetsReceived.Load(),
		SamplesReceived:  c.samplesReceived.Load(),
		HeaderMismatches: c.headerMismatches.Load(),
		OversizedDrops:   c.oversizedDrops.Load(),
		SelfEchoes:       c.selfEchoes.Load(),
		ReceiveErrors:    c.receiveErrors.Load(),
	}
}
