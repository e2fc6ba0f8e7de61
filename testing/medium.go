package testing

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// inboxSize bounds the packets queued per endpoint; further packets are dropped.
const inboxSize = 256

// Addr identifies an endpoint on a Medium.
type Addr struct {
	ID int
}

// Network implements net.Addr.
func (a *Addr) Network() string { return "sim" }

// String implements net.Addr.
func (a *Addr) String() string {
	if a.ID == 0 {
		return "sim:broadcast"
	}
	return fmt.Sprintf("sim:%d", a.ID)
}

// Broadcast addresses every endpoint on the medium except the sender.
var Broadcast net.Addr = &Addr{ID: 0}

// LossFunc decides whether a packet from one endpoint to another is lost.
type LossFunc func(from, to int, packet []byte) bool

// DeliveryRecord represents a packet delivery event for test verification.
type DeliveryRecord struct {
	From       int
	To         int
	PacketSize int
	Timestamp  int64
	Delivered  bool
}

// MediumStats summarizes the delivery log.
type MediumStats struct {
	Endpoints int
	Delivered int
	Dropped   int
}

// Medium is an in-memory broadcast channel shared by endpoints.
type Medium struct {
	mu          sync.RWMutex
	endpoints   map[int]*Endpoint
	nextID      int
	loss        LossFunc
	deliveryLog []DeliveryRecord
}

// NewMedium creates an empty medium.
func NewMedium() *Medium {
	logrus.WithFields(logrus.Fields{
		"function": "NewMedium",
	}).Info("Creating simulated broadcast medium")

	return &Medium{
		endpoints: make(map[int]*Endpoint),
		nextID:    1,
	}
}

// Attach creates a new endpoint on the medium.
func (m *Medium) Attach() *Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &Endpoint{
		addr:   &Addr{ID: m.nextID},
		medium: m,
		inbox:  make(chan datagram, inboxSize),
		closed: make(chan struct{}),
	}
	m.endpoints[e.addr.ID] = e
	m.nextID++

	logrus.WithFields(logrus.Fields{
		"function":        "Medium.Attach",
		"endpoint":        e.addr.ID,
		"total_endpoints": len(m.endpoints),
	}).Debug("Endpoint attached to simulated medium")
	return e
}

// SetLoss installs a loss function; nil disables loss.
func (m *Medium) SetLoss(loss LossFunc) {
	m.mu.Lock()
	m.loss = loss
	m.mu.Unlock()
}

func (m *Medium) detach(id int) {
	m.mu.Lock()
	delete(m.endpoints, id)
	m.mu.Unlock()
}

// send copies packet into the inbox of every addressed endpoint.
func (m *Medium) send(from *Endpoint, packet []byte, to net.Addr) error {
	target, ok := to.(*Addr)
	if !ok {
		return fmt.Errorf("address %v is not on the simulated medium", to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if target.ID != 0 {
		if _, exists := m.endpoints[target.ID]; !exists {
			return fmt.Errorf("endpoint %d not found in simulation", target.ID)
		}
	}

	now := time.Now().UnixNano()
	for id, e := range m.endpoints {
		if id == from.addr.ID || (target.ID != 0 && id != target.ID) {
			continue
		}

		delivered := m.loss == nil || !m.loss(from.addr.ID, id, packet)
		if delivered {
			select {
			case e.inbox <- datagram{data: append([]byte(nil), packet...), from: from.addr}:
			default:
				delivered = false
			}
		}

		m.deliveryLog = append(m.deliveryLog, DeliveryRecord{
			From:       from.addr.ID,
			To:         id,
			PacketSize: len(packet),
			Timestamp:  now,
			Delivered:  delivered,
		})
	}
	return nil
}

// GetDeliveryLog returns a copy of the delivery log.
func (m *Medium) GetDeliveryLog() []DeliveryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := make([]DeliveryRecord, len(m.deliveryLog))
	copy(log, m.deliveryLog)
	return log
}

// ClearDeliveryLog empties the delivery log.
func (m *Medium) ClearDeliveryLog() {
	m.mu.Lock()
	m.deliveryLog = nil
	m.mu.Unlock()
}

// Stats summarizes the medium.
func (m *Medium) Stats() MediumStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MediumStats{Endpoints: len(m.endpoints)}
	for _, r := range m.deliveryLog {
		if r.Delivered {
			stats.Delivered++
		} else {
			stats.Dropped++
		}
	}
	return stats
}

type datagram struct {
	data []byte
	from net.Addr
}

// timeoutError is returned when a read deadline expires.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Endpoint is one station's attachment to a Medium. It implements net.PacketConn.
type Endpoint struct {
	addr      *Addr
	medium    *Medium
	inbox     chan datagram
	closed    chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	readDeadline time.Time
}

var _ net.PacketConn = (*Endpoint)(nil)

// ReadFrom blocks until a packet arrives, the read deadline passes or the
// endpoint is closed.
func (e *Endpoint) ReadFrom(p []byte) (int, net.Addr, error) {
	e.mu.Lock()
	deadline := e.readDeadline
	e.mu.Unlock()

	var expired <-chan time.Time
	if !deadline.IsZero() {
		wait := time.Until(deadline)
		if wait <= 0 {
			return 0, nil, timeoutError{}
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case dg := <-e.inbox:
		return copy(p, dg.data), dg.from, nil
	case <-e.closed:
		return 0, nil, net.ErrClosed
	case <-expired:
		return 0, nil, timeoutError{}
	}
}

// WriteTo sends p to addr, which is Broadcast or another endpoint's address.
func (e *Endpoint) WriteTo(p []byte, addr net.Addr) (int, error) {
	select {
	case <-e.closed:
		return 0, net.ErrClosed
	default:
	}
	if err := e.medium.send(e, p, addr); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close detaches the endpoint from the medium.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.medium.detach(e.addr.ID)
	})
	return nil
}

// LocalAddr returns the endpoint address.
func (e *Endpoint) LocalAddr() net.Addr { return e.addr }

// SetDeadline sets the read deadline; writes never block.
func (e *Endpoint) SetDeadline(t time.Time) error { return e.SetReadDeadline(t) }

// SetReadDeadline sets the deadline for future ReadFrom calls.
func (e *Endpoint) SetReadDeadline(t time.Time) error {
	e.mu.Lock()
	e.readDeadline = t
	e.mu.Unlock()
	return nil
}

// SetWriteDeadline is a no-op.
func (e *Endpoint) SetWriteDeadline(time.Time) error { return nil }
