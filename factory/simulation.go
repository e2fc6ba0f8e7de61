package factory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/config"
	"github.com/opd-ai/walkietalkie/real"
	testsim "github.com/opd-ai/walkietalkie/testing"
	"github.com/opd-ai/walkietalkie/transport"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// reportInterval is how often the simulation logs and resets medium traffic.
const reportInterval = 10 * time.Second

// Simulation is a group of stations sharing one in-memory broadcast medium.
type Simulation struct {
	cfg      *config.Config
	medium   *testsim.Medium
	stations []*Station
	buttons  []*testsim.Button
}

// NewSimulation builds cfg.Simulation.Stations stations with tone generators
// for microphones and discarding speakers, all attached to one medium.
//
// Parameters:
//   - cfg: Validated configuration with simulation settings
//
// Returns:
//   - *Simulation: The stations, not yet running
//   - error: If any station cannot be built
func NewSimulation(cfg *config.Config) (*Simulation, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Simulation.Stations < 1 {
		return nil, fmt.Errorf("simulation needs at least one station, got %d", cfg.Simulation.Stations)
	}

	sim := &Simulation{
		cfg:    cfg,
		medium: testsim.NewMedium(),
	}
	if pct := cfg.Simulation.LossPercent; pct > 0 {
		sim.medium.SetLoss(func(_, _ int, _ []byte) bool {
			return rand.Intn(100) < pct
		})
	}

	mtu := cfg.Transport.UDP.MTU
	if cfg.Transport.Kind == "linklayer" {
		mtu = cfg.Transport.LinkLayer.MTU
	}

	for i := range cfg.Simulation.Stations {
		name := fmt.Sprintf("station-%d", i)

		stationCfg := *cfg
		stationCfg.Recording.Folder = filepath.Join(cfg.Recording.Folder, name)
		stationCfg.Metrics.Enabled = cfg.Metrics.Enabled && i == 0

		hw, btn, err := sim.hardware(i)
		if err != nil {
			_ = sim.Close()
			return nil, err
		}

		endpoint := sim.medium.Attach()
		st, err := assemble(name, &stationCfg, hw, func(sink transport.SampleWriter) (transport.Link, error) {
			return transport.NewDatagramLink(endpoint, testsim.Broadcast, mtu, sink)
		})
		if err != nil {
			_ = endpoint.Close()
			_ = sim.Close()
			return nil, err
		}
		sim.stations = append(sim.stations, st)
		sim.buttons = append(sim.buttons, btn)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewSimulation",
		"stations":     len(sim.stations),
		"loss_percent": cfg.Simulation.LossPercent,
		"talk_every":   cfg.Simulation.TalkEvery,
		"talk_for":     cfg.Simulation.TalkFor,
	}).Info("Simulation assembled")

	return sim, nil
}

// hardware returns simulated devices for station i. Station 0 listens to
// standard input when push-to-talk is configured that way, in which case the
// returned button is nil.
func (s *Simulation) hardware(i int) (Hardware, *testsim.Button, error) {
	rate := float64(s.cfg.Audio.SampleRate)
	freq := 440.0 * float64(i+1)

	source := testsim.NewFakeSource()
	source.Realtime = true
	source.Generator = func(n int) int16 {
		return int16(8000 * math.Sin(2*math.Pi*freq*float64(n)/rate))
	}

	sink := testsim.NewFakeSink()
	sink.Realtime = true
	sink.MaxRecorded = audio.SamplesFor(time.Second, s.cfg.Audio.SampleRate)

	hw := Hardware{
		Source:    source,
		Sink:      sink,
		Indicator: real.NewLogIndicator(),
	}

	if i == 0 && s.cfg.PTT.Kind == "stdin" {
		toggle, err := real.NewLineToggle(os.Stdin)
		if err != nil {
			return Hardware{}, nil, err
		}
		hw.PTT = toggle
		return hw, nil, nil
	}

	btn := &testsim.Button{}
	hw.PTT = btn
	return hw, btn, nil
}

// Stations returns the simulated stations in creation order.
func (s *Simulation) Stations() []*Station {
	return s.stations
}

// Button returns the push-to-talk button of station i, or nil when that
// station is keyed from standard input.
func (s *Simulation) Button(i int) *testsim.Button {
	if i < 0 || i >= len(s.buttons) {
		return nil
	}
	return s.buttons[i]
}

// Medium returns the shared broadcast medium.
func (s *Simulation) Medium() *testsim.Medium {
	return s.medium
}

// Run runs every station until ctx is cancelled or one fails to come up.
func (s *Simulation) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, st := range s.stations {
		g.Go(func() error {
			return st.Run(gctx)
		})
	}

	if btn := s.Button(1); btn != nil && s.cfg.Simulation.TalkEvery > 0 {
		g.Go(func() error {
			s.talk(gctx, btn)
			return nil
		})
	}
	g.Go(func() error {
		s.report(gctx)
		return nil
	})

	return g.Wait()
}

// talk keys btn for TalkFor once every TalkEvery.
func (s *Simulation) talk(ctx context.Context, btn *testsim.Button) {
	ticker := time.NewTicker(s.cfg.Simulation.TalkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		logrus.WithFields(logrus.Fields{
			"function": "Simulation.talk",
			"station":  s.stations[1].Name(),
			"duration": s.cfg.Simulation.TalkFor,
		}).Info("Simulated push-to-talk pressed")

		btn.Press()
		select {
		case <-ctx.Done():
			btn.Release()
			return
		case <-time.After(s.cfg.Simulation.TalkFor):
		}
		btn.Release()
	}
}

// report logs medium traffic and clears the delivery log so it stays bounded.
func (s *Simulation) report(ctx context.Context) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := s.medium.Stats()
		s.medium.ClearDeliveryLog()
		logrus.WithFields(logrus.Fields{
			"function":  "Simulation.report",
			"endpoints": stats.Endpoints,
			"delivered": stats.Delivered,
			"dropped":   stats.Dropped,
		}).Info("Simulated medium traffic")
	}
}

// Close closes every station.
func (s *Simulation) Close() error {
	var errs []error
	for _, st := range s.stations {
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Name(), err))
		}
	}
	return errors.Join(errs...)
}
