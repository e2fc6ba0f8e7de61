package factory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/config"
	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/opd-ai/walkietalkie/jitter"
	"github.com/opd-ai/walkietalkie/metrics"
	"github.com/opd-ai/walkietalkie/recording"
	"github.com/opd-ai/walkietalkie/session"
	"github.com/opd-ai/walkietalkie/transport"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Hardware is the set of devices and controls a station drives. Source, Sink
// and PTT are required; the rest fall back to no-ops and the system clock.
type Hardware struct {
	Source    audio.Source
	Sink      audio.Sink
	PTT       interfaces.PushToTalk
	Indicator interfaces.StatusIndicator
	Amplifier interfaces.Amplifier
	Clock     session.TimeProvider
}

// Snapshot collects the statistics of every station component.
type Snapshot struct {
	Buffer     jitter.Statistics
	Link       transport.Statistics
	Session    session.Statistics
	State      session.State
	Recorder   recording.AsyncStats
	Dispatcher recording.DispatcherStats
}

// Station is one assembled walkie-talkie.
type Station struct {
	name       string
	cfg        *config.Config
	buffer     *jitter.Buffer
	link       transport.Link
	controller *session.Controller
	indicator  interfaces.StatusIndicator
	recorder   *recording.AsyncRecorder
	dispatcher *recording.Dispatcher
	metrics    *metrics.Metrics

	// closers release hardware in reverse order on Close.
	closers []func() error

	closeOnce sync.Once
	closeErr  error
}

// linkBuilder opens the broadcast medium delivering into sink.
type linkBuilder func(sink transport.SampleWriter) (transport.Link, error)

// NewStationWithHardware builds a station around caller-supplied devices. The
// transport link comes from the configuration.
//
// Parameters:
//   - cfg: Validated configuration
//   - hw: Audio devices and controls
//
// Returns:
//   - *Station: The station, link not yet armed
//   - error: If a component cannot be built
func NewStationWithHardware(cfg *config.Config, hw Hardware) (*Station, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	return assemble("station", cfg, hw, func(sink transport.SampleWriter) (transport.Link, error) {
		return buildLink(cfg.Transport, sink)
	})
}

func buildLink(tc config.TransportConfig, sink transport.SampleWriter) (transport.Link, error) {
	switch tc.Kind {
	case "udp":
		return transport.NewUDPBroadcast(transport.UDPConfig{
			ListenAddr:  tc.UDP.ListenAddr,
			Destination: tc.UDP.Destination,
			MTU:         tc.UDP.MTU,
		}, sink)
	case "linklayer":
		return transport.NewLinkLayerBroadcast(transport.LinkLayerConfig{
			Interface: tc.LinkLayer.Interface,
			EtherType: tc.LinkLayer.EtherType,
			MTU:       tc.LinkLayer.MTU,
		}, sink)
	default:
		return nil, fmt.Errorf("unknown transport kind %q", tc.Kind)
	}
}

func assemble(name string, cfg *config.Config, hw Hardware, newLink linkBuilder) (*Station, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config cannot be nil")
	case hw.Source == nil:
		return nil, errors.New("audio source cannot be nil")
	case hw.Sink == nil:
		return nil, errors.New("audio sink cannot be nil")
	case hw.PTT == nil:
		return nil, errors.New("push-to-talk cannot be nil")
	}
	if hw.Indicator == nil {
		hw.Indicator = interfaces.NopIndicator{}
	}

	header, err := cfg.HeaderBytes()
	if err != nil {
		return nil, err
	}

	buf, err := jitter.NewBuffer(cfg.Jitter.Capacity, jitter.WithPrebuffer(cfg.Jitter.Prebuffer))
	if err != nil {
		return nil, err
	}

	link, err := newLink(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: create link: %w", name, err)
	}
	if err := link.SetHeader(header); err != nil {
		_ = link.Close()
		return nil, fmt.Errorf("%s: set header: %w", name, err)
	}

	s := &Station{
		name:      name,
		cfg:       cfg,
		buffer:    buf,
		link:      link,
		indicator: hw.Indicator,
	}

	if err := s.buildRecording(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	deps := session.Dependencies{
		Source:    hw.Source,
		Sink:      hw.Sink,
		Buffer:    buf,
		Link:      link,
		PTT:       hw.PTT,
		Indicator: hw.Indicator,
		Amplifier: hw.Amplifier,
		Clock:     hw.Clock,
	}
	if s.recorder != nil {
		deps.Recorder = s.recorder
	}
	if s.dispatcher != nil {
		deps.Housekeeping = s.dispatcher.Housekeep
	}

	s.controller, err = session.New(session.Config{
		SampleRate:           cfg.Audio.SampleRate,
		FrameSize:            cfg.Audio.FrameSize,
		MinTransmit:          cfg.Session.MinTransmit,
		HousekeepingInterval: cfg.Session.HousekeepingInterval,
	}, deps)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
		s.metrics.RegisterBuffer(buf)
		s.metrics.RegisterLink(link)
		s.metrics.RegisterSession(s.controller)
		if s.recorder != nil {
			s.metrics.RegisterRecorder(s.recorder)
		}
		if s.dispatcher != nil {
			s.metrics.RegisterDispatcher(s.dispatcher)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":  "assemble",
		"station":   name,
		"transport": cfg.Transport.Kind,
		"capacity":  link.PayloadCapacity(),
		"recording": s.recorder != nil,
		"notify":    s.dispatcher != nil,
		"metrics":   s.metrics != nil,
	}).Info("Station assembled")

	return s, nil
}

func (s *Station) buildRecording() error {
	if !s.cfg.Recording.Enabled {
		return nil
	}

	notifier, err := buildNotifier(s.cfg.Notify)
	if err != nil {
		return err
	}

	var onComplete func(interfaces.Recording)
	if notifier != nil {
		s.dispatcher, err = recording.NewDispatcher(notifier, s.cfg.Notify.Timeout, s.cfg.Notify.MaxAttempts)
		if err != nil {
			return err
		}
		onComplete = s.dispatcher.Enqueue
	}

	wav, err := recording.NewWAVRecorder(s.cfg.Recording.Folder, s.cfg.Audio.SampleRate, onComplete)
	if err != nil {
		return err
	}
	s.recorder, err = recording.NewAsyncRecorder(wav, s.cfg.Recording.QueueSize)
	return err
}

func buildNotifier(nc config.NotifyConfig) (interfaces.Notifier, error) {
	switch nc.Kind {
	case "log":
		return recording.LogNotifier{}, nil
	case "exec":
		return recording.NewExecNotifier(nc.Command, nc.Args...)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", nc.Kind)
	}
}

// Name returns the station name used in logs.
func (s *Station) Name() string {
	return s.name
}

// Run arms the link and runs the session controller, plus the metrics
// endpoint when enabled, until ctx is cancelled. A link or sink that fails to
// come up is returned as an error and the controller loop is not entered.
func (s *Station) Run(ctx context.Context) error {
	if err := s.indicator.Begin(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Station.Run",
			"station":  s.name,
			"error":    err.Error(),
		}).Warn("Status indicator failed to start")
	}
	s.indicator.SetFlashing(true, interfaces.ColorRed)

	if err := s.link.Begin(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Station.Run",
			"station":  s.name,
			"error":    err.Error(),
		}).Error("Failed to arm transport link")
		return fmt.Errorf("%s: arm link: %w", s.name, err)
	}

	var ln net.Listener
	if s.metrics != nil {
		var err error
		ln, err = net.Listen("tcp", s.cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("%s: metrics listener: %w", s.name, err)
		}
	}

	s.indicator.SetFlashing(false, interfaces.ColorRed)
	s.indicator.SetDefaultColor(interfaces.ColorGreen)

	logrus.WithFields(logrus.Fields{
		"function": "Station.Run",
		"station":  s.name,
	}).Info("Station on air")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.controller.Run(gctx)
	})
	if ln != nil {
		g.Go(func() error {
			return s.metrics.Serve(gctx, ln)
		})
	}
	return g.Wait()
}

// Snapshot returns the current statistics of every component.
func (s *Station) Snapshot() Snapshot {
	snap := Snapshot{
		Buffer: s.buffer.Stats(),
		Link:   s.link.Stats(),
	}
	if s.controller != nil {
		snap.Session = s.controller.Stats()
		snap.State = s.controller.State()
	}
	if s.recorder != nil {
		snap.Recorder = s.recorder.Stats()
	}
	if s.dispatcher != nil {
		snap.Dispatcher = s.dispatcher.Stats()
	}
	return snap
}

// Metrics returns the station registry, nil when metrics are disabled.
func (s *Station) Metrics() *metrics.Metrics {
	return s.metrics
}

// Close shuts the link, drains the recorder, waits for an in-flight
// notification and releases the hardware. It is safe to call more than once.
func (s *Station) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.link.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close link: %w", err))
		}
		if s.recorder != nil {
			if err := s.recorder.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close recorder: %w", err))
			}
		}
		if s.dispatcher != nil {
			s.dispatcher.Wait()
		}
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)

		logrus.WithFields(logrus.Fields{
			"function": "Station.Close",
			"station":  s.name,
			"errors":   len(errs),
		}).Info("Station closed")
	})
	return s.closeErr
}
