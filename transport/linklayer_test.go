package transport

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/walkietalkie/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	data     []byte
	outgoing bool
}

// fakePacketSocket replays queued frames and records sent ones.
type fakePacketSocket struct {
	mu     sync.Mutex
	inbox  []frame
	sent   [][]byte
	closed bool
}

func (s *fakePacketSocket) queue(data []byte, outgoing bool) {
	s.mu.Lock()
	s.inbox = append(s.inbox, frame{data: data, outgoing: outgoing})
	s.mu.Unlock()
}

func (s *fakePacketSocket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("closed")
	}
	s.sent = append(s.sent, append([]byte(nil), payload...))
	return nil
}

func (s *fakePacketSocket) Recv(buf []byte) (int, bool, error) {
	s.mu.Lock()
	if len(s.inbox) == 0 {
		s.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, false, errRecvTimeout
	}
	f := s.inbox[0]
	s.inbox = s.inbox[1:]
	s.mu.Unlock()
	return copy(buf, f.data), f.outgoing, nil
}

func (s *fakePacketSocket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func newFakeLinkLayer(t *testing.T, sink SampleWriter) (*LinkLayerLink, *fakePacketSocket) {
	t.Helper()
	link, err := NewLinkLayerBroadcast(LinkLayerConfig{Interface: "wlan0"}, sink)
	require.NoError(t, err)
	sock := &fakePacketSocket{}
	link.open = func(ifname string, etherType uint16) (packetSocket, error) {
		assert.Equal(t, "wlan0", ifname)
		assert.Equal(t, uint16(DefaultEtherType), etherType)
		return sock, nil
	}
	return link, sock
}

func TestNewLinkLayerBroadcastDefaults(t *testing.T) {
	link, err := NewLinkLayerBroadcast(LinkLayerConfig{Interface: "wlan0"}, &collector{})
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultEtherType), link.cfg.EtherType)
	assert.Equal(t, limits.MaxLinkLayerPacket/2, link.PayloadCapacity())

	_, err = NewLinkLayerBroadcast(LinkLayerConfig{}, &collector{})
	assert.Error(t, err)
}

func TestLinkLayerSendsFullFrames(t *testing.T) {
	link, sock := newFakeLinkLayer(t, &collector{})
	require.NoError(t, link.Begin())
	defer link.Close()

	for i := 0; i < link.PayloadCapacity()+1; i++ {
		require.NoError(t, link.AddSample(int16(i)))
	}
	require.NoError(t, link.Flush())

	sock.mu.Lock()
	defer sock.mu.Unlock()
	require.Len(t, sock.sent, 2)
	assert.Len(t, sock.sent[0], limits.MaxLinkLayerPacket)
	assert.Len(t, sock.sent[1], 2)
}

func TestLinkLayerReceiveSkipsOutgoingFrames(t *testing.T) {
	sink := &collector{}
	link, sock := newFakeLinkLayer(t, sink)
	sock.queue([]byte{0x05, 0x00}, true)
	sock.queue([]byte{0x06, 0x00, 0x07, 0x00}, false)

	require.NoError(t, link.Begin())
	defer link.Close()

	assert.Eventually(t, func() bool {
		return len(sink.Samples()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int16{6, 7}, sink.Samples())
	assert.Equal(t, uint64(1), link.Stats().SelfEchoes)
}

func TestLinkLayerCloseReleasesSocket(t *testing.T) {
	link, sock := newFakeLinkLayer(t, &collector{})
	require.NoError(t, link.Begin())
	require.NoError(t, link.Close())
	assert.True(t, sock.closed)
	assert.NoError(t, link.Close())
}

func TestLinkLayerBeginFailsOnUnknownInterface(t *testing.T) {
	link, err := NewLinkLayerBroadcast(LinkLayerConfig{Interface: "no-such-if0"}, &collector{})
	require.NoError(t, err)

	err = link.Begin()
	require.Error(t, err)
	if runtime.GOOS != "linux" {
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}
