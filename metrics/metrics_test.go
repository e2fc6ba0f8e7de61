package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/walkietalkie/jitter"
	"github.com/opd-ai/walkietalkie/recording"
	"github.com/opd-ai/walkietalkie/session"
	"github.com/opd-ai/walkietalkie/transport"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLink struct{ stats transport.Statistics }

func (s stubLink) Stats() transport.Statistics { return s.stats }

type stubSession struct {
	stats session.Statistics
	state session.State
}

func (s stubSession) Stats() session.Statistics { return s.stats }
func (s stubSession) State() session.State      { return s.state }

type stubRecorder struct{ stats recording.AsyncStats }

func (s stubRecorder) Stats() recording.AsyncStats { return s.stats }

type stubDispatcher struct{ stats recording.DispatcherStats }

func (s stubDispatcher) Stats() recording.DispatcherStats { return s.stats }

func TestBufferMetricsFollowBuffer(t *testing.T) {
	buf, err := jitter.NewBuffer(4)
	require.NoError(t, err)
	m := New()
	m.RegisterBuffer(buf)

	buf.AddSamples([]int16{1, 2, 3, 4, 5, 6})

	expected := `
# HELP walkie_jitter_occupied_samples Samples queued for playback.
# TYPE walkie_jitter_occupied_samples gauge
walkie_jitter_occupied_samples 4
# HELP walkie_jitter_overrun_discards_total Oldest samples discarded because the buffer was full.
# TYPE walkie_jitter_overrun_discards_total counter
walkie_jitter_overrun_discards_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"walkie_jitter_occupied_samples", "walkie_jitter_overrun_discards_total"))
}

func TestLinkAndSessionMetrics(t *testing.T) {
	m := New()
	m.RegisterLink(stubLink{stats: transport.Statistics{PacketsSent: 7, HeaderMismatches: 2}})
	m.RegisterSession(stubSession{stats: session.Statistics{TransmitBursts: 3}, state: session.Transmitting})

	expected := `
# HELP walkie_link_packets_sent_total Packets sent.
# TYPE walkie_link_packets_sent_total counter
walkie_link_packets_sent_total 7
# HELP walkie_link_header_mismatches_total Packets dropped for a foreign header.
# TYPE walkie_link_header_mismatches_total counter
walkie_link_header_mismatches_total 2
# HELP walkie_session_transmitting 1 while the station transmits.
# TYPE walkie_session_transmitting gauge
walkie_session_transmitting 1
# HELP walkie_session_transmit_bursts_total Push-to-talk bursts.
# TYPE walkie_session_transmit_bursts_total counter
walkie_session_transmit_bursts_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"walkie_link_packets_sent_total", "walkie_link_header_mismatches_total",
		"walkie_session_transmitting", "walkie_session_transmit_bursts_total"))
}

func TestRecordingMetricsRegistered(t *testing.T) {
	m := New()
	m.RegisterRecorder(stubRecorder{stats: recording.AsyncStats{FramesDropped: 5}})
	m.RegisterDispatcher(stubDispatcher{stats: recording.DispatcherStats{Pending: 2}})

	count, err := testutil.GatherAndCount(m.Registry(),
		"walkie_recorder_frames_dropped_total", "walkie_notify_pending", "walkie_notify_delivered_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestServeExposesMetrics(t *testing.T) {
	m := New()
	m.RegisterLink(stubLink{stats: transport.Statistics{PacketsReceived: 11}})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "walkie_link_packets_received_total 11")

	resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
