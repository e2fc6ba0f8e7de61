package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records samples pushed by the receive path.
type collector struct {
	mu      sync.Mutex
	samples []int16
}

func (c *collector) AddSamples(samples []int16) {
	c.mu.Lock()
	c.samples = append(c.samples, samples...)
	c.mu.Unlock()
}

func (c *collector) Samples() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int16(nil), c.samples...)
}

// capture records packets handed to the medium.
type capture struct {
	packets [][]byte
	err     error
}

func (c *capture) send(packet []byte) error {
	if c.err != nil {
		return c.err
	}
	c.packets = append(c.packets, append([]byte(nil), packet...))
	return nil
}

func newTestFramer(t *testing.T, mtu int) (*framer, *capture, *collector) {
	t.Helper()
	sink := &collector{}
	f, err := newFramer("test", mtu, sink)
	require.NoError(t, err)
	c := &capture{}
	f.setSender(c.send)
	return f, c, sink
}

func TestNewFramerValidation(t *testing.T) {
	_, err := newFramer("test", limits.MaxDatagramPacket, nil)
	assert.Error(t, err)

	_, err = newFramer("test", 1, &collector{})
	assert.ErrorIs(t, err, limits.ErrInvalidMTU)

	_, err = newFramer("test", limits.MaxReceivePacket+1, &collector{})
	assert.ErrorIs(t, err, limits.ErrInvalidMTU)
}

func TestDeliverDropsOversizedPacket(t *testing.T) {
	f, _, sink := newTestFramer(t, limits.MaxReceivePacket)

	f.deliver(make([]byte, limits.MaxReceivePacket+1))
	assert.Empty(t, sink.Samples())
	assert.Equal(t, uint64(1), f.Stats().OversizedDrops)
	assert.Zero(t, f.Stats().PacketsReceived)

	f.deliver(make([]byte, limits.MaxReceivePacket))
	assert.Len(t, sink.Samples(), limits.MaxReceivePacket/2)
}

func TestFullPayloadSendsOnePacket(t *testing.T) {
	f, c, _ := newTestFramer(t, limits.MaxDatagramPacket)
	capacity := f.PayloadCapacity()
	assert.Equal(t, 718, capacity)

	for i := 0; i < capacity; i++ {
		require.NoError(t, f.AddSample(int16(i)))
	}

	require.Len(t, c.packets, 1)
	assert.Len(t, c.packets[0], capacity*audio.BytesPerSample)
	assert.Equal(t, uint64(1), f.Stats().PacketsSent)
	assert.Equal(t, uint64(capacity), f.Stats().SamplesSent)
}

func TestFlushSendsShortPacket(t *testing.T) {
	f, c, _ := newTestFramer(t, limits.MaxLinkLayerPacket)
	capacity := f.PayloadCapacity()

	for i := 0; i <= capacity; i++ {
		require.NoError(t, f.AddSample(int16(i)))
	}
	require.Len(t, c.packets, 1)

	require.NoError(t, f.Flush())
	require.Len(t, c.packets, 2)
	assert.Equal(t, []int16{int16(capacity)}, audio.DecodeSamples(nil, c.packets[1]))

	// Nothing pending, nothing sent.
	require.NoError(t, f.Flush())
	assert.Len(t, c.packets, 2)
}

func TestHeaderIsPrefixedAndReducesCapacity(t *testing.T) {
	f, c, _ := newTestFramer(t, limits.MaxLinkLayerPacket)
	header := []byte{0xCA, 0xFE}
	require.NoError(t, f.SetHeader(header))
	assert.Equal(t, (limits.MaxLinkLayerPacket-len(header))/2, f.PayloadCapacity())

	require.NoError(t, f.AddSample(-2))
	require.NoError(t, f.Flush())
	require.Len(t, c.packets, 1)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xFE, 0xFF}, c.packets[0])
}

func TestSetHeaderRejectsOversizedHeader(t *testing.T) {
	f, _, _ := newTestFramer(t, limits.MaxLinkLayerPacket)
	err := f.SetHeader(make([]byte, limits.MaxLinkLayerPacket-1))
	assert.ErrorIs(t, err, limits.ErrHeaderTooLarge)
	assert.Equal(t, limits.MaxLinkLayerPacket/2, f.PayloadCapacity())
}

func TestSendFailureIsCountedAndReturned(t *testing.T) {
	f, c, _ := newTestFramer(t, 6)
	c.err = errors.New("network down")

	require.NoError(t, f.AddSample(1))
	require.NoError(t, f.AddSample(2))
	err := f.AddSample(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, c.err)
	assert.Equal(t, uint64(1), f.Stats().SendErrors)

	// The accumulator restarts after a dropped packet.
	c.err = nil
	require.NoError(t, f.AddSample(4))
	require.NoError(t, f.Flush())
	require.Len(t, c.packets, 1)
	assert.Equal(t, []int16{4}, audio.DecodeSamples(nil, c.packets[0]))
}

func TestSendBeforeBeginFails(t *testing.T) {
	f, err := newFramer("test", 4, &collector{})
	require.NoError(t, err)
	require.NoError(t, f.AddSample(1))
	assert.ErrorIs(t, f.AddSample(2), ErrNotStarted)
}

func TestDeliverStripsHeader(t *testing.T) {
	f, _, sink := newTestFramer(t, limits.MaxDatagramPacket)
	require.NoError(t, f.SetHeader([]byte("WT")))

	f.deliver(audio.EncodeSamples([]byte("WT"), []int16{1, -1, 300}))

	assert.Equal(t, []int16{1, -1, 300}, sink.Samples())
	stats := f.Stats()
	assert.Equal(t, uint64(1), stats.PacketsReceived)
	assert.Equal(t, uint64(3), stats.SamplesReceived)
}

func TestDeliverDropsForeignHeader(t *testing.T) {
	f, _, sink := newTestFramer(t, limits.MaxDatagramPacket)
	require.NoError(t, f.SetHeader([]byte("WT")))

	f.deliver(audio.EncodeSamples([]byte("XX"), []int16{1, 2, 3}))
	f.deliver([]byte("W"))

	assert.Empty(t, sink.Samples())
	assert.Equal(t, uint64(2), f.Stats().HeaderMismatches)
	assert.Zero(t, f.Stats().PacketsReceived)
}

func TestSenderAndReceiverRoundTrip(t *testing.T) {
	tx, c, _ := newTestFramer(t, limits.MaxLinkLayerPacket)
	rx, _, sink := newTestFramer(t, limits.MaxLinkLayerPacket)

	want := make([]int16, 300)
	for i := range want {
		want[i] = int16(i*97 - 15000)
		require.NoError(t, tx.AddSample(want[i]))
	}
	require.NoError(t, tx.Flush())

	for _, p := range c.packets {
		rx.deliver(p)
	}
	assert.Equal(t, want, sink.Samples())
}
