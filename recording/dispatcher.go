package recording

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultNotifyTimeout bounds a single notification attempt.
	DefaultNotifyTimeout = 30 * time.Second

	// DefaultMaxAttempts is how often a recording is offered before it is given up.
	DefaultMaxAttempts = 3

	maxPending = 64
)

type pendingRecording struct {
	rec      interfaces.Recording
	attempts int
}

// DispatcherStats tracks notification delivery.
type DispatcherStats struct {
	Pending   int
	Delivered uint64
	Failed    uint64
	Abandoned uint64
}

// Dispatcher hands completed recordings to a Notifier from the
// housekeeping hook, one at a time and off the audio goroutine.
type Dispatcher struct {
	notifier    interfaces.Notifier
	timeout     time.Duration
	maxAttempts int

	mu       sync.Mutex
	pending  []pendingRecording
	inFlight bool
	stats    DispatcherStats
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A zero timeout or attempt count takes the default.
func NewDispatcher(notifier interfaces.Notifier, timeout time.Duration, maxAttempts int) (*Dispatcher, error) {
	if notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		notifier:    notifier,
		timeout:     timeout,
		maxAttempts: maxAttempts,
	}, nil
}

// Enqueue adds a completed recording. When the backlog is full the oldest
// entry is abandoned.
func (d *Dispatcher) Enqueue(rec interfaces.Recording) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) >= maxPending {
		dropped := d.pending[0]
		d.pending = d.pending[1:]
		d.stats.Abandoned++
		logrus.WithFields(logrus.Fields{
			"function": "Dispatcher.Enqueue",
			"id":       dropped.rec.ID,
			"path":     dropped.rec.Path,
		}).Warn("Notification backlog full, abandoning oldest recording")
	}
	d.pending = append(d.pending, pendingRecording{rec: rec})
}

// Housekeep starts delivery of the oldest pending recording unless one is
// already in flight. It never blocks.
func (d *Dispatcher) Housekeep(ctx context.Context) {
	d.mu.Lock()
	if d.inFlight || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	next := d.pending[0]
	d.pending = d.pending[1:]
	d.inFlight = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.deliver(ctx, next)
}

func (d *Dispatcher) deliver(ctx context.Context, p pendingRecording) {
	defer d.wg.Done()

	nctx, cancel := context.WithTimeout(ctx, d.timeout)
	err := d.notifier.Notify(nctx, p.rec)
	cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = false

	if err == nil {
		d.stats.Delivered++
		logrus.WithFields(logrus.Fields{
			"function": "Dispatcher.deliver",
			"id":       p.rec.ID,
			"path":     p.rec.Path,
		}).Info("Recording notification delivered")
		return
	}

	d.stats.Failed++
	p.attempts++
	fields := logrus.Fields{
		"function": "Dispatcher.deliver",
		"id":       p.rec.ID,
		"attempts": p.attempts,
		"error":    err.Error(),
	}
	if p.attempts >= d.maxAttempts || ctx.Err() != nil {
		d.stats.Abandoned++
		logrus.WithFields(fields).Error("Giving up on recording notification")
		return
	}
	d.pending = append(d.pending, p)
	logrus.WithFields(fields).Warn("Recording notification failed, will retry")
}

// Wait blocks until the in-flight notification, if any, has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Pending = len(d.pending)
	return s
}
