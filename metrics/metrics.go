package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/opd-ai/walkietalkie/jitter"
	"github.com/opd-ai/walkietalkie/recording"
	"github.com/opd-ai/walkietalkie/session"
	"github.com/opd-ai/walkietalkie/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "walkie"

// BufferSource is the jitter buffer as seen by the metrics.
type BufferSource interface {
	Stats() jitter.Statistics
	Len() int
	Cap() int
}

// LinkSource is a transport link as seen by the metrics.
type LinkSource interface {
	Stats() transport.Statistics
}

// SessionSource is the session controller as seen by the metrics.
type SessionSource interface {
	Stats() session.Statistics
	State() session.State
}

// RecorderSource is the asynchronous recorder as seen by the metrics.
type RecorderSource interface {
	Stats() recording.AsyncStats
}

// DispatcherSource is the notification dispatcher as seen by the metrics.
type DispatcherSource interface {
	Stats() recording.DispatcherStats
}

// Metrics owns a registry of station metrics.
type Metrics struct {
	registry *prometheus.Registry
	factory  promauto.Factory
}

// New creates a registry holding the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{registry: reg, factory: promauto.With(reg)}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) counter(subsystem, name, help string, value func() uint64) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(value()) })
}

func (m *Metrics) gauge(subsystem, name, help string, value func() float64) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, value)
}

// RegisterBuffer exports jitter buffer occupancy and health.
func (m *Metrics) RegisterBuffer(b BufferSource) {
	m.gauge("jitter", "occupied_samples", "Samples queued for playback.", func() float64 { return float64(b.Len()) })
	m.gauge("jitter", "capacity_samples", "Jitter buffer capacity in samples.", func() float64 { return float64(b.Cap()) })
	m.counter("jitter", "samples_written_total", "Samples written to the jitter buffer.", func() uint64 { return b.Stats().SamplesWritten })
	m.counter("jitter", "samples_read_total", "Samples read from the jitter buffer.", func() uint64 { return b.Stats().SamplesRead })
	m.counter("jitter", "overrun_discards_total", "Oldest samples discarded because the buffer was full.", func() uint64 { return b.Stats().OverrunDiscards })
	m.counter("jitter", "underruns_total", "Reads that had to be padded with silence.", func() uint64 { return b.Stats().Underruns })
	m.counter("jitter", "silence_samples_total", "Silence samples inserted on playback.", func() uint64 { return b.Stats().SilenceSamples })
	m.counter("jitter", "flushes_total", "Jitter buffer flushes.", func() uint64 { return b.Stats().Flushes })
}

// RegisterLink exports transport link counters.
func (m *Metrics) RegisterLink(l LinkSource) {
	m.counter("link", "packets_sent_total", "Packets sent.", func() uint64 { return l.Stats().PacketsSent })
	m.counter("link", "samples_sent_total", "Samples sent.", func() uint64 { return l.Stats().SamplesSent })
	m.counter("link", "send_errors_total", "Packets dropped because the medium rejected them.", func() uint64 { return l.Stats().SendErrors })
	m.counter("link", "packets_received_total", "Packets accepted by the receive path.", func() uint64 { return l.Stats().PacketsReceived })
	m.counter("link", "samples_received_total", "Samples delivered to the jitter buffer.", func() uint64 { return l.Stats().SamplesReceived })
	m.counter("link", "header_mismatches_total", "Packets dropped for a foreign header.", func() uint64 { return l.Stats().HeaderMismatches })
	m.counter("link", "oversized_drops_total", "Packets dropped for exceeding the receive limit.", func() uint64 { return l.Stats().OversizedDrops })
	m.counter("link", "self_echoes_total", "Own broadcasts ignored on receive.", func() uint64 { return l.Stats().SelfEchoes })
	m.counter("link", "receive_errors_total", "Failed reads on the medium.", func() uint64 { return l.Stats().ReceiveErrors })
}

// RegisterSession exports controller activity and mode.
func (m *Metrics) RegisterSession(c SessionSource) {
	m.gauge("session", "transmitting", "1 while the station transmits.", func() float64 {
		if c.State() == session.Transmitting {
			return 1
		}
		return 0
	})
	m.counter("session", "iterations_total", "Controller iterations.", func() uint64 { return c.Stats().Iterations })
	m.counter("session", "receive_frames_total", "Frames played to the sink.", func() uint64 { return c.Stats().ReceiveFrames })
	m.counter("session", "transmit_bursts_total", "Push-to-talk bursts.", func() uint64 { return c.Stats().TransmitBursts })
	m.counter("session", "transmit_frames_total", "Frames captured while transmitting.", func() uint64 { return c.Stats().TransmitFrames })
	m.counter("session", "housekeeping_runs_total", "Housekeeping hook runs.", func() uint64 { return c.Stats().HousekeepingRuns })
	m.counter("session", "source_errors_total", "Audio source failures.", func() uint64 { return c.Stats().SourceErrors })
	m.counter("session", "sink_errors_total", "Audio sink failures.", func() uint64 { return c.Stats().SinkErrors })
	m.counter("session", "send_errors_total", "Samples or packets the link failed to send.", func() uint64 { return c.Stats().SendErrors })
	m.counter("session", "recorder_errors_total", "Frames the recorder rejected.", func() uint64 { return c.Stats().RecorderErrors })
}

// RegisterRecorder exports recorder queue counters.
func (m *Metrics) RegisterRecorder(r RecorderSource) {
	m.counter("recorder", "frames_queued_total", "Frames queued for recording.", func() uint64 { return r.Stats().FramesQueued })
	m.counter("recorder", "frames_dropped_total", "Frames dropped because the queue was full.", func() uint64 { return r.Stats().FramesDropped })
	m.counter("recorder", "write_errors_total", "Recording write failures.", func() uint64 { return r.Stats().WriteErrors })
	m.counter("recorder", "completed_total", "Recordings completed.", func() uint64 { return r.Stats().Completed })
}

// RegisterDispatcher exports notification delivery counters.
func (m *Metrics) RegisterDispatcher(d DispatcherSource) {
	m.gauge("notify", "pending", "Recordings waiting for notification.", func() float64 { return float64(d.Stats().Pending) })
	m.counter("notify", "delivered_total", "Notifications delivered.", func() uint64 { return d.Stats().Delivered })
	m.counter("notify", "failed_total", "Notification attempts that failed.", func() uint64 { return d.Stats().Failed })
	m.counter("notify", "abandoned_total", "Recordings given up on.", func() uint64 { return d.Stats().Abandoned })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics and /healthz on ln until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	logrus.WithFields(logrus.Fields{
		"function": "Metrics.Serve",
		"addr":     ln.Addr().String(),
	}).Info("Metrics endpoint listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
