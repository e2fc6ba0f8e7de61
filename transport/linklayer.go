package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/walkietalkie/limits"
	"github.com/sirupsen/logrus"
)

// DefaultEtherType is the local experimental EtherType used as the logical channel.
const DefaultEtherType = 0x88B5

// errRecvTimeout is returned by packetSocket.Recv when the receive timeout elapses.
var errRecvTimeout = errors.New("packet socket receive timeout")

// LinkLayerConfig describes the link-layer broadcast medium.
//
// The medium is meant for 802.11 interfaces. Ethernet pads frames to a
// 46-byte minimum payload and the packet format has no length prefix, so on
// a wired interface a short flush packet reaches peers with trailing zero
// samples.
type LinkLayerConfig struct {
	// Interface is the network interface name, e.g. "wlan0".
	Interface string
	// EtherType selects the logical channel, DefaultEtherType when zero.
	EtherType uint16
	// MTU caps the frame payload, 250 bytes by default.
	MTU int
}

// packetSocket is a raw link-layer socket bound to one interface and EtherType.
type packetSocket interface {
	// Send broadcasts one frame payload.
	Send(payload []byte) error
	// Recv reads one frame payload. outgoing reports frames we sent ourselves.
	Recv(buf []byte) (n int, outgoing bool, err error)
	Close() error
}

// LinkLayerLink carries audio packets as broadcast link-layer frames.
// It satisfies the Link interface.
type LinkLayerLink struct {
	*framer

	cfg  LinkLayerConfig
	open func(ifname string, etherType uint16) (packetSocket, error)

	mu     sync.Mutex
	sock   packetSocket
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLinkLayerBroadcast creates a link-layer link. The socket is opened by
// Begin, which returns ErrUnsupported on platforms without packet sockets.
func NewLinkLayerBroadcast(cfg LinkLayerConfig, sink SampleWriter) (*LinkLayerLink, error) {
	if cfg.Interface == "" {
		return nil, errors.New("link-layer interface name cannot be empty")
	}
	if cfg.EtherType == 0 {
		cfg.EtherType = DefaultEtherType
	}
	if cfg.MTU == 0 {
		cfg.MTU = limits.MaxLinkLayerPacket
	}

	f, err := newFramer("linklayer", cfg.MTU, sink)
	if err != nil {
		return nil, err
	}

	return &LinkLayerLink{
		framer: f,
		cfg:    cfg,
		open:   openPacketSocket,
	}, nil
}

// Begin opens the packet socket and starts the receive goroutine.
func (l *LinkLayerLink) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sock != nil {
		return nil
	}

	sock, err := l.open(l.cfg.Interface, l.cfg.EtherType)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "LinkLayerLink.Begin",
			"interface":  l.cfg.Interface,
			"ether_type": fmt.Sprintf("0x%04x", l.cfg.EtherType),
			"error":      err.Error(),
		}).Error("Failed to open link-layer socket")
		return fmt.Errorf("open link-layer socket on %s: %w", l.cfg.Interface, err)
	}

	l.sock = sock
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.setSender(sock.Send)

	l.wg.Add(1)
	go l.receiveLoop(ctx, sock)

	logrus.WithFields(logrus.Fields{
		"function":   "LinkLayerLink.Begin",
		"interface":  l.cfg.Interface,
		"ether_type": fmt.Sprintf("0x%04x", l.cfg.EtherType),
	}).Info("Link-layer link armed")
	return nil
}

func (l *LinkLayerLink) receiveLoop(ctx context.Context, sock packetSocket) {
	defer l.wg.Done()
	buffer := receiveBuffer()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, outgoing, err := sock.Recv(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, errRecvTimeout) {
				continue
			}
			l.stats.receiveErrors.Add(1)
			logrus.WithFields(logrus.Fields{
				"function":  "receiveLoop",
				"interface": l.cfg.Interface,
				"error":     err.Error(),
			}).Debug("Link-layer read failed")
			continue
		}

		if outgoing {
			l.stats.selfEchoes.Add(1)
			continue
		}
		l.deliver(buffer[:n])
	}
}

// Close stops the receive goroutine and closes the socket. The receive
// goroutine notices cancellation within one receive timeout.
func (l *LinkLayerLink) Close() error {
	l.mu.Lock()
	sock := l.sock
	cancel := l.cancel
	l.sock = nil
	l.mu.Unlock()

	if sock == nil {
		return nil
	}

	cancel()
	l.wg.Wait()
	l.setSender(notStarted)

	logrus.WithFields(logrus.Fields{
		"function":  "LinkLayerLink.Close",
		"interface": l.cfg.Interface,
	}).Info("Link-layer link closed")
	return sock.Close()
}
