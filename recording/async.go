package recording

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize holds about two seconds of 128-sample frames.
const DefaultQueueSize = 256

var (
	// ErrQueueFull is returned by Append when the frame had to be dropped.
	ErrQueueFull = errors.New("recording queue full")

	// ErrRecorderClosed is returned after Close.
	ErrRecorderClosed = errors.New("recorder closed")
)

type job struct {
	generation uint64
	samples    []int16
	finish     bool
}

// AsyncStats tracks the asynchronous recorder.
type AsyncStats struct {
	FramesQueued  uint64
	FramesDropped uint64
	WriteErrors   uint64
	Completed     uint64
}

// AsyncRecorder decouples a slow Recorder from the audio path. Append and
// Finish never block. Every job carries the burst generation it belongs to,
// so a dropped Finish is recovered when the next burst starts.
type AsyncRecorder struct {
	target interfaces.Recorder
	queue  chan job

	mu         sync.RWMutex
	closed     bool
	generation atomic.Uint64
	done       chan struct{}

	queued    atomic.Uint64
	dropped   atomic.Uint64
	writeErrs atomic.Uint64
	completed atomic.Uint64
}

// NewAsyncRecorder starts the writer goroutine for target.
func NewAsyncRecorder(target interfaces.Recorder, queueSize int) (*AsyncRecorder, error) {
	if target == nil {
		return nil, errors.New("target recorder cannot be nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	a := &AsyncRecorder{
		target: target,
		queue:  make(chan job, queueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Append queues a copy of samples for the current burst.
func (a *AsyncRecorder) Append(samples []int16) error {
	j := job{
		generation: a.generation.Load(),
		samples:    append([]int16(nil), samples...),
	}
	if err := a.enqueue(j); err != nil {
		return err
	}
	a.queued.Add(1)
	return nil
}

// Finish marks the end of the current burst.
func (a *AsyncRecorder) Finish() error {
	gen := a.generation.Add(1) - 1
	return a.enqueue(job{generation: gen, finish: true})
}

func (a *AsyncRecorder) enqueue(j job) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrRecorderClosed
	}
	select {
	case a.queue <- j:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

func (a *AsyncRecorder) run() {
	defer close(a.done)

	open := false
	var current uint64
	for j := range a.queue {
		if open && j.generation != current {
			a.finishTarget()
			open = false
		}
		current = j.generation

		if j.finish {
			if open {
				a.finishTarget()
				open = false
			}
			continue
		}

		if err := a.target.Append(j.samples); err != nil {
			a.writeErrs.Add(1)
			logrus.WithFields(logrus.Fields{
				"function": "AsyncRecorder.run",
				"error":    err.Error(),
			}).Warn("Failed to record frame")
			continue
		}
		open = true
	}

	if open {
		a.finishTarget()
	}
}

func (a *AsyncRecorder) finishTarget() {
	if err := a.target.Finish(); err != nil {
		if errors.Is(err, ErrNoRecording) {
			return
		}
		a.writeErrs.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "AsyncRecorder.finishTarget",
			"error":    err.Error(),
		}).Warn("Failed to finish recording")
		return
	}
	a.completed.Add(1)
}

// Close drains the queue, finishes any open recording and stops the writer.
func (a *AsyncRecorder) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done

	stats := a.Stats()
	logrus.WithFields(logrus.Fields{
		"function":       "AsyncRecorder.Close",
		"frames_queued":  stats.FramesQueued,
		"frames_dropped": stats.FramesDropped,
		"completed":      stats.Completed,
	}).Info("Recorder stopped")
	return nil
}

// Stats returns a snapshot of the recorder counters.
func (a *AsyncRecorder) Stats() AsyncStats {
	return AsyncStats{
		FramesQueued:  a.queued.Load(),
		FramesDropped: a.dropped.Load(),
		WriteErrors:   a.writeErrs.Load(),
		Completed:     a.completed.Load(),
	}
}
