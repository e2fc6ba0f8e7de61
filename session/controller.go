package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/sirupsen/logrus"
)

// State is the controller mode.
type State int32

const (
	// Receiving plays the jitter buffer through the sink.
	Receiving State = iota
	// Transmitting sends captured audio on the link.
	Transmitting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Receiving:
		return "receiving"
	case Transmitting:
		return "transmitting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// FrameBuffer is the playback side of the jitter buffer.
type FrameBuffer interface {
	RemoveSamples(out []int16) int
	Flush()
}

// Sender is the outbound side of a transport link.
type Sender interface {
	AddSample(sample int16) error
	Flush() error
}

// HousekeepingFunc runs periodic work between frame cycles. It must not block.
type HousekeepingFunc func(ctx context.Context)

// Config holds the controller timing parameters.
type Config struct {
	SampleRate           int
	FrameSize            int
	MinTransmit          time.Duration
	HousekeepingInterval time.Duration
}

// DefaultConfig returns 16 kHz audio in 128-sample frames with a one second
// minimum transmit and one second housekeeping interval.
func DefaultConfig() Config {
	return Config{
		SampleRate:           audio.SampleRate,
		FrameSize:            audio.FrameSize,
		MinTransmit:          time.Second,
		HousekeepingInterval: time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	case c.FrameSize <= 0:
		return fmt.Errorf("frame size must be positive, got %d", c.FrameSize)
	case c.MinTransmit < 0:
		return fmt.Errorf("minimum transmit time cannot be negative, got %v", c.MinTransmit)
	case c.HousekeepingInterval <= 0:
		return fmt.Errorf("housekeeping interval must be positive, got %v", c.HousekeepingInterval)
	}
	return nil
}

// Dependencies are the components the controller drives. Source, Sink,
// Buffer, Link and PTT are required; the rest default to no-ops.
type Dependencies struct {
	Source       audio.Source
	Sink         audio.Sink
	Buffer       FrameBuffer
	Link         Sender
	PTT          interfaces.PushToTalk
	Indicator    interfaces.StatusIndicator
	Recorder     interfaces.Recorder
	Amplifier    interfaces.Amplifier
	Housekeeping HousekeepingFunc
	Clock        TimeProvider
}

// Statistics tracks controller activity.
type Statistics struct {
	Iterations         uint64
	ReceiveFrames      uint64
	SamplesPlayed      uint64
	TransmitBursts     uint64
	TransmitFrames     uint64
	SamplesTransmitted uint64
	HousekeepingRuns   uint64
	SourceErrors       uint64
	SinkErrors         uint64
	SendErrors         uint64
	RecorderErrors     uint64
}

// Controller runs the half-duplex audio loop. Run and Step must be called
// from a single goroutine; State and Stats may be read from anywhere.
type Controller struct {
	cfg          Config
	source       audio.Source
	sink         audio.Sink
	buffer       FrameBuffer
	link         Sender
	ptt          interfaces.PushToTalk
	indicator    interfaces.StatusIndicator
	recorder     interfaces.Recorder
	amplifier    interfaces.Amplifier
	housekeeping HousekeepingFunc
	clock        TimeProvider

	frame         []int16
	frameDuration time.Duration
	lastHousekeep time.Time
	sinkRunning   bool

	state   atomic.Int32
	statsMu sync.RWMutex
	stats   Statistics
}

// New creates a controller in the Receiving state.
//
// Parameters:
//   - cfg: Timing parameters, see DefaultConfig
//   - deps: Components to drive
//
// Returns:
//   - *Controller: The controller, not yet running
//   - error: If cfg is invalid or a required dependency is nil
func New(cfg Config, deps Dependencies) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case deps.Source == nil:
		return nil, errors.New("audio source cannot be nil")
	case deps.Sink == nil:
		return nil, errors.New("audio sink cannot be nil")
	case deps.Buffer == nil:
		return nil, errors.New("jitter buffer cannot be nil")
	case deps.Link == nil:
		return nil, errors.New("transport link cannot be nil")
	case deps.PTT == nil:
		return nil, errors.New("push-to-talk cannot be nil")
	}

	if deps.Indicator == nil {
		deps.Indicator = interfaces.NopIndicator{}
	}
	if deps.Recorder == nil {
		deps.Recorder = interfaces.NopRecorder{}
	}
	if deps.Amplifier == nil {
		deps.Amplifier = interfaces.NopAmplifier{}
	}
	if deps.Clock == nil {
		deps.Clock = NewDefaultTimeProvider()
	}

	logrus.WithFields(logrus.Fields{
		"function":          "session.New",
		"sample_rate":       cfg.SampleRate,
		"frame_size":        cfg.FrameSize,
		"min_transmit":      cfg.MinTransmit,
		"housekeeping":      cfg.HousekeepingInterval,
		"housekeeping_hook": deps.Housekeeping != nil,
	}).Info("Session controller created")

	return &Controller{
		cfg:           cfg,
		source:        deps.Source,
		sink:          deps.Sink,
		buffer:        deps.Buffer,
		link:          deps.Link,
		ptt:           deps.PTT,
		indicator:     deps.Indicator,
		recorder:      deps.Recorder,
		amplifier:     deps.Amplifier,
		housekeeping:  deps.Housekeeping,
		clock:         deps.Clock,
		frame:         make([]int16, cfg.FrameSize),
		frameDuration: audio.FrameDuration(cfg.FrameSize, cfg.SampleRate),
	}, nil
}

// State returns the current mode.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stats returns a snapshot of the controller statistics.
func (c *Controller) Stats() Statistics {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

func (c *Controller) count(update func(s *Statistics)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}

// Run starts the sink, discards anything received during bring-up and loops
// until ctx is cancelled. It returns an error only if the sink cannot start.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.sink.Start(c.cfg.SampleRate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Controller.Run",
			"error":    err.Error(),
		}).Error("Failed to start audio sink")
		return fmt.Errorf("start sink: %w", err)
	}
	c.sinkRunning = true
	c.setAmplifier(true)
	c.buffer.Flush()
	c.lastHousekeep = c.clock.Now()
	c.state.Store(int32(Receiving))

	logrus.WithFields(logrus.Fields{
		"function": "Controller.Run",
	}).Info("Session controller running")

	for ctx.Err() == nil {
		c.Step(ctx)
	}

	c.setAmplifier(false)
	if c.sinkRunning {
		if err := c.sink.Stop(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Controller.Run",
				"error":    err.Error(),
			}).Warn("Failed to stop audio sink")
		}
		c.sinkRunning = false
	}

	logrus.WithFields(logrus.Fields{
		"function": "Controller.Run",
	}).Info("Session controller stopped")
	return nil
}

// Step performs one iteration: housekeeping when due, then either a full
// transmit burst or one receive cycle.
func (c *Controller) Step(ctx context.Context) {
	c.count(func(s *Statistics) { s.Iterations++ })
	c.housekeep(ctx)

	if c.ptt.Pressed() {
		c.transmitBurst(ctx)
		return
	}
	c.receiveFrame()
}

func (c *Controller) housekeep(ctx context.Context) {
	if c.housekeeping == nil || c.clock.Since(c.lastHousekeep) < c.cfg.HousekeepingInterval {
		return
	}
	c.lastHousekeep = c.clock.Now()
	c.housekeeping(ctx)
	c.count(func(s *Statistics) { s.HousekeepingRuns++ })
}

// receiveFrame plays one frame from the jitter buffer, silence on underrun.
func (c *Controller) receiveFrame() {
	if !c.sinkRunning && !c.startSink() {
		c.clock.Sleep(c.frameDuration)
		return
	}

	n := c.buffer.RemoveSamples(c.frame)
	if err := c.sink.Write(c.frame); err != nil {
		c.count(func(s *Statistics) { s.SinkErrors++ })
		logrus.WithFields(logrus.Fields{
			"function": "receiveFrame",
			"error":    err.Error(),
		}).Debug("Audio sink write failed")
		c.clock.Sleep(c.frameDuration)
		return
	}

	c.count(func(s *Statistics) {
		s.ReceiveFrames++
		s.SamplesPlayed += uint64(n)
	})
}

func (c *Controller) startSink() bool {
	if err := c.sink.Start(c.cfg.SampleRate); err != nil {
		c.count(func(s *Statistics) { s.SinkErrors++ })
		logrus.WithFields(logrus.Fields{
			"function": "startSink",
			"error":    err.Error(),
		}).Warn("Failed to restart audio sink")
		return false
	}
	c.sinkRunning = true
	return true
}

// transmitBurst captures and sends audio for at least MinTransmit and while
// push-to-talk stays held.
func (c *Controller) transmitBurst(ctx context.Context) {
	if !c.enterTransmit() {
		c.exitTransmit(false)
		return
	}

	start := c.clock.Now()
	for {
		c.transmitFrame()
		if ctx.Err() != nil {
			break
		}
		if c.clock.Since(start) >= c.cfg.MinTransmit && !c.ptt.Pressed() {
			break
		}
	}

	c.exitTransmit(true)
}

func (c *Controller) enterTransmit() bool {
	c.state.Store(int32(Transmitting))
	c.count(func(s *Statistics) { s.TransmitBursts++ })
	c.indicator.SetFlashing(true, interfaces.ColorRed)
	c.setAmplifier(false)

	if c.sinkRunning {
		if err := c.sink.Stop(); err != nil {
			c.count(func(s *Statistics) { s.SinkErrors++ })
			logrus.WithFields(logrus.Fields{
				"function": "enterTransmit",
				"error":    err.Error(),
			}).Warn("Failed to stop audio sink")
		}
		c.sinkRunning = false
	}

	if err := c.source.Start(c.cfg.SampleRate); err != nil {
		c.count(func(s *Statistics) { s.SourceErrors++ })
		logrus.WithFields(logrus.Fields{
			"function": "enterTransmit",
			"error":    err.Error(),
		}).Error("Failed to start audio source, abandoning transmit")
		return false
	}

	// Audio queued before the button was pressed is stale by now.
	c.buffer.Flush()

	logrus.WithFields(logrus.Fields{
		"function": "enterTransmit",
	}).Info("Started transmitting")
	return true
}

func (c *Controller) transmitFrame() {
	n, err := c.source.Read(c.frame)
	if err != nil {
		c.count(func(s *Statistics) { s.SourceErrors++ })
		logrus.WithFields(logrus.Fields{
			"function": "transmitFrame",
			"error":    err.Error(),
		}).Debug("Audio source read failed")
		c.clock.Sleep(c.frameDuration)
		return
	}

	captured := c.frame[:n]
	var sendErr error
	sendErrors := 0
	for _, sample := range captured {
		if err := c.link.AddSample(sample); err != nil {
			sendErr = err
			sendErrors++
		}
	}
	if sendErr != nil {
		logrus.WithFields(logrus.Fields{
			"function": "transmitFrame",
			"dropped":  sendErrors,
			"error":    sendErr.Error(),
		}).Debug("Dropped outgoing packet")
	}

	recErr := c.recorder.Append(captured)
	c.count(func(s *Statistics) {
		s.TransmitFrames++
		s.SamplesTransmitted += uint64(n)
		s.SendErrors += uint64(sendErrors)
		if recErr != nil {
			s.RecorderErrors++
		}
	})
}

func (c *Controller) exitTransmit(sourceStarted bool) {
	if sourceStarted {
		if err := c.link.Flush(); err != nil {
			c.count(func(s *Statistics) { s.SendErrors++ })
			logrus.WithFields(logrus.Fields{
				"function": "exitTransmit",
				"error":    err.Error(),
			}).Debug("Failed to flush final packet")
		}
		if err := c.recorder.Finish(); err != nil {
			c.count(func(s *Statistics) { s.RecorderErrors++ })
			logrus.WithFields(logrus.Fields{
				"function": "exitTransmit",
				"error":    err.Error(),
			}).Warn("Failed to finish recording")
		}
		if err := c.source.Stop(); err != nil {
			c.count(func(s *Statistics) { s.SourceErrors++ })
			logrus.WithFields(logrus.Fields{
				"function": "exitTransmit",
				"error":    err.Error(),
			}).Warn("Failed to stop audio source")
		}
	}

	c.startSink()
	c.setAmplifier(true)
	c.indicator.SetFlashing(false, interfaces.ColorRed)
	c.state.Store(int32(Receiving))

	logrus.WithFields(logrus.Fields{
		"function": "exitTransmit",
	}).Info("Stopped transmitting")
}

func (c *Controller) setAmplifier(on bool) {
	if err := c.amplifier.SetEnabled(on); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "setAmplifier",
			"enabled":  on,
			"error":    err.Error(),
		}).Warn("Failed to switch speaker amplifier")
	}
}
