package transport

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/limits"
	"github.com/sirupsen/logrus"
)

// sendFunc transmits one complete packet on the medium.
type sendFunc func(packet []byte) error

func notStarted([]byte) error { return ErrNotStarted }

// framer implements the packet format shared by every medium: an optional
// fixed header followed by little-endian samples, no length prefix.
//
// The outbound side (SetHeader, AddSample, Flush) is driven by the session
// controller; deliver is driven by the medium's receive goroutine.
type framer struct {
	mu       sync.RWMutex
	medium   string
	mtu      int
	header   []byte
	out      []byte
	pending  int
	capacity int
	send     sendFunc

	sink    SampleWriter
	scratch []int16
	stats   counters
}

func newFramer(medium string, mtu int, sink SampleWriter) (*framer, error) {
	if sink == nil {
		return nil, fmt.Errorf("sample writer cannot be nil")
	}
	if err := limits.ValidateMTU(mtu); err != nil {
		return nil, err
	}
	return &framer{
		medium:   medium,
		mtu:      mtu,
		out:      make([]byte, mtu),
		capacity: limits.PayloadCapacity(mtu, 0),
		send:     notStarted,
		sink:     sink,
	}, nil
}

// SetHeader replaces the packet header. Samples accumulated under the
// previous header are discarded.
func (f *framer) SetHeader(header []byte) error {
	if err := limits.ValidateHeader(header, f.mtu); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "SetHeader",
			"medium":      f.medium,
			"header_size": len(header),
			"error":       err.Error(),
		}).Error("Rejected transport header")
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.header = append([]byte(nil), header...)
	copy(f.out, f.header)
	f.pending = 0
	f.capacity = limits.PayloadCapacity(f.mtu, len(f.header))

	logrus.WithFields(logrus.Fields{
		"function":         "SetHeader",
		"medium":           f.medium,
		"header_size":      len(f.header),
		"payload_capacity": f.capacity,
	}).Info("Transport header configured")
	return nil
}

// setSender installs the medium send function once the medium is armed.
func (f *framer) setSender(send sendFunc) {
	f.mu.Lock()
	f.send = send
	f.mu.Unlock()
}

// AddSample appends one sample to the outgoing packet and sends the packet
// as soon as it reaches the payload capacity.
func (f *framer) AddSample(sample int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	off := len(f.header) + f.pending*audio.BytesPerSample
	audio.PutSample(f.out[off:], sample)
	f.pending++
	if f.pending < f.capacity {
		return nil
	}
	return f.sendPendingLocked()
}

// Flush sends whatever is accumulated as a final, possibly short, packet.
func (f *framer) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == 0 {
		return nil
	}
	return f.sendPendingLocked()
}

func (f *framer) sendPendingLocked() error {
	samples := f.pending
	size := len(f.header) + samples*audio.BytesPerSample
	f.pending = 0

	if err := f.send(f.out[:size]); err != nil {
		f.stats.sendErrors.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "sendPacket",
			"medium":      f.medium,
			"packet_size": size,
			"error":       err.Error(),
		}).Debug("Dropped outgoing packet")
		return fmt.Errorf("%s send failed: %w", f.medium, err)
	}

	f.stats.packetsSent.Add(1)
	f.stats.samplesSent.Add(uint64(samples))
	return nil
}

// receiveBuffer returns a read buffer one byte longer than any acceptable
// packet, so a truncated read is recognisable.
func receiveBuffer() []byte {
	return make([]byte, limits.MaxReceivePacket+1)
}

// deliver validates and strips the header of a received packet and pushes
// its samples to the sink. Oversized and foreign packets are dropped whole.
func (f *framer) deliver(packet []byte) {
	f.mu.RLock()
	header := f.header
	f.mu.RUnlock()

	err := limits.ValidatePacket(packet, len(header))
	if errors.Is(err, limits.ErrPacketTooLarge) {
		f.stats.oversizedDrops.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "deliver",
			"medium":      f.medium,
			"packet_size": len(packet),
		}).Debug("Discarded oversized packet")
		return
	}
	if err != nil || !bytes.Equal(packet[:len(header)], header) {
		f.stats.headerMismatches.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "deliver",
			"medium":      f.medium,
			"packet_size": len(packet),
		}).Debug("Discarded packet with foreign header")
		return
	}

	f.scratch = audio.DecodeSamples(f.scratch, packet[len(header):])
	f.stats.packetsReceived.Add(1)
	if len(f.scratch) == 0 {
		return
	}
	f.sink.AddSamples(f.scratch)
	f.stats.samplesReceived.Add(uint64(len(f.scratch)))
}

// PayloadCapacity returns the number of samples carried per packet.
func (f *framer) PayloadCapacity() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.capacity
}

// Stats returns a snapshot of the link counters.
func (f *framer) Stats() Statistics {
	return f.stats.snapshot()
}
