package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/walkietalkie/limits"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultUDPPort is the port every station listens and broadcasts on.
	DefaultUDPPort = 42005

	// readTimeout bounds each blocking read so the receive loop observes Close.
	readTimeout = 100 * time.Millisecond
)

// UDPConfig describes the datagram broadcast medium.
type UDPConfig struct {
	// ListenAddr is the local bind address, ":42005" by default.
	ListenAddr string
	// Destination is the broadcast address packets are sent to,
	// "255.255.255.255:42005" by default.
	Destination string
	// MTU caps the packet size, 1436 bytes by default.
	MTU int
}

func (c UDPConfig) withDefaults() UDPConfig {
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%d", DefaultUDPPort)
	}
	if c.Destination == "" {
		c.Destination = fmt.Sprintf("255.255.255.255:%d", DefaultUDPPort)
	}
	if c.MTU == 0 {
		c.MTU = limits.MaxDatagramPacket
	}
	return c
}

// DatagramLink carries audio packets over a datagram socket.
// It satisfies the Link interface.
type DatagramLink struct {
	*framer

	open       func() (net.PacketConn, error)
	dest       net.Addr
	filterSelf bool

	mu        sync.Mutex
	conn      net.PacketConn
	localIPs  map[string]bool
	localPort int
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewUDPBroadcast creates a link on a UDP socket with broadcast enabled.
// The socket is opened by Begin.
//
// Parameters:
//   - cfg: Medium settings, zero fields take the defaults
//   - sink: Receiver of decoded samples, normally the jitter buffer
//
// Returns:
//   - *DatagramLink: The unarmed link
//   - error: If the destination cannot be resolved or sink is nil
func NewUDPBroadcast(cfg UDPConfig, sink SampleWriter) (*DatagramLink, error) {
	cfg = cfg.withDefaults()

	dest, err := net.ResolveUDPAddr("udp4", cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("invalid broadcast destination %q: %w", cfg.Destination, err)
	}

	f, err := newFramer("udp", cfg.MTU, sink)
	if err != nil {
		return nil, err
	}

	listenAddr := cfg.ListenAddr
	return &DatagramLink{
		framer:     f,
		dest:       dest,
		filterSelf: true,
		open: func() (net.PacketConn, error) {
			lc := net.ListenConfig{Control: broadcastControl}
			return lc.ListenPacket(context.Background(), "udp4", listenAddr)
		},
	}, nil
}

// NewDatagramLink creates a link over an already opened packet connection.
// The link takes ownership of conn and closes it on Close.
func NewDatagramLink(conn net.PacketConn, dest net.Addr, mtu int, sink SampleWriter) (*DatagramLink, error) {
	if conn == nil {
		return nil, errors.New("packet connection cannot be nil")
	}
	if dest == nil {
		return nil, errors.New("destination address cannot be nil")
	}

	f, err := newFramer("datagram", mtu, sink)
	if err != nil {
		return nil, err
	}

	return &DatagramLink{
		framer: f,
		dest:   dest,
		open:   func() (net.PacketConn, error) { return conn, nil },
	}, nil
}

// Begin opens the socket and starts the receive goroutine.
func (d *DatagramLink) Begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return nil
	}

	conn, err := d.open()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DatagramLink.Begin",
			"medium":   d.medium,
			"error":    err.Error(),
		}).Error("Failed to open datagram socket")
		return fmt.Errorf("open %s socket: %w", d.medium, err)
	}

	d.conn = conn
	if d.filterSelf {
		d.learnLocalAddrs(conn.LocalAddr())
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.setSender(func(packet []byte) error {
		_, err := conn.WriteTo(packet, d.dest)
		return err
	})

	d.wg.Add(1)
	go d.receiveLoop(ctx, conn)

	logrus.WithFields(logrus.Fields{
		"function":    "DatagramLink.Begin",
		"medium":      d.medium,
		"local_addr":  conn.LocalAddr().String(),
		"destination": d.dest.String(),
	}).Info("Datagram link armed")
	return nil
}

// LocalAddr returns the bound address, or nil before Begin.
func (d *DatagramLink) LocalAddr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	return d.conn.LocalAddr()
}

// learnLocalAddrs records which source addresses identify our own broadcasts.
func (d *DatagramLink) learnLocalAddrs(local net.Addr) {
	udp, ok := local.(*net.UDPAddr)
	if !ok {
		return
	}
	d.localPort = udp.Port
	d.localIPs = map[string]bool{}
	if udp.IP != nil && !udp.IP.IsUnspecified() {
		d.localIPs[udp.IP.String()] = true
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "learnLocalAddrs",
			"error":    err.Error(),
		}).Warn("Cannot list interface addresses, self-echo filter limited to bound address")
		return
	}
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok {
			d.localIPs[ipNet.IP.String()] = true
		}
	}
}

func (d *DatagramLink) isSelf(addr net.Addr) bool {
	if !d.filterSelf {
		return false
	}
	udp, ok := addr.(*net.UDPAddr)
	return ok && udp.Port == d.localPort && d.localIPs[udp.IP.String()]
}

func (d *DatagramLink) receiveLoop(ctx context.Context, conn net.PacketConn) {
	defer d.wg.Done()
	buffer := receiveBuffer()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, addr, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			d.stats.receiveErrors.Add(1)
			logrus.WithFields(logrus.Fields{
				"function": "receiveLoop",
				"medium":   d.medium,
				"error":    err.Error(),
			}).Debug("Datagram read failed")
			continue
		}

		if d.isSelf(addr) {
			d.stats.selfEchoes.Add(1)
			continue
		}
		d.deliver(buffer[:n])
	}
}

// Close stops the receive goroutine and closes the socket.
func (d *DatagramLink) Close() error {
	d.mu.Lock()
	conn := d.conn
	cancel := d.cancel
	d.conn = nil
	d.mu.Unlock()

	if conn == nil {
		return nil
	}

	cancel()
	err := conn.Close()
	d.wg.Wait()
	d.setSender(notStarted)

	logrus.WithFields(logrus.Fields{
		"function": "DatagramLink.Close",
		"medium":   d.medium,
	}).Info("Datagram link closed")
	return err
}
