package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/jitter"
	testsim "github.com/opd-ai/walkietalkie/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records what the controller sends on the link.
type fakeSender struct {
	samples []int16
	flushes int
	err     error
}

func (f *fakeSender) AddSample(s int16) error {
	if f.err != nil {
		return f.err
	}
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeSender) Flush() error {
	f.flushes++
	return f.err
}

type harness struct {
	ctrl      *Controller
	clock     *MockTimeProvider
	source    *testsim.FakeSource
	sink      *testsim.FakeSink
	buffer    *jitter.Buffer
	link      *fakeSender
	button    *testsim.Button
	indicator *testsim.Indicator
	recorder  *testsim.Recorder
	amplifier *testsim.Amplifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:     NewMockTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		source:    testsim.NewFakeSource(),
		sink:      testsim.NewFakeSink(),
		link:      &fakeSender{},
		button:    &testsim.Button{},
		indicator: &testsim.Indicator{},
		recorder:  &testsim.Recorder{},
		amplifier: &testsim.Amplifier{},
	}
	// Capturing one frame takes one frame of wall time.
	h.source.OnRead = func(n int) {
		h.clock.Advance(audio.FrameDuration(n, audio.SampleRate))
	}

	var err error
	h.buffer, err = jitter.NewBuffer(jitter.DefaultCapacity)
	require.NoError(t, err)

	h.ctrl, err = New(DefaultConfig(), Dependencies{
		Source:    h.source,
		Sink:      h.sink,
		Buffer:    h.buffer,
		Link:      h.link,
		PTT:       h.button,
		Indicator: h.indicator,
		Recorder:  h.recorder,
		Amplifier: h.amplifier,
		Clock:     h.clock,
	})
	require.NoError(t, err)
	return h
}

func TestNewValidatesDependencies(t *testing.T) {
	buf, err := jitter.NewBuffer(16)
	require.NoError(t, err)
	full := Dependencies{
		Source: testsim.NewFakeSource(),
		Sink:   testsim.NewFakeSink(),
		Buffer: buf,
		Link:   &fakeSender{},
		PTT:    &testsim.Button{},
	}

	_, err = New(DefaultConfig(), full)
	require.NoError(t, err)

	for name, mutate := range map[string]func(d *Dependencies){
		"source": func(d *Dependencies) { d.Source = nil },
		"sink":   func(d *Dependencies) { d.Sink = nil },
		"buffer": func(d *Dependencies) { d.Buffer = nil },
		"link":   func(d *Dependencies) { d.Link = nil },
		"ptt":    func(d *Dependencies) { d.PTT = nil },
	} {
		t.Run(name, func(t *testing.T) {
			deps := full
			mutate(&deps)
			_, err := New(DefaultConfig(), deps)
			assert.Error(t, err)
		})
	}

	cfg := DefaultConfig()
	cfg.FrameSize = 0
	_, err = New(cfg, full)
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "receiving", Receiving.String())
	assert.Equal(t, "transmitting", Transmitting.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestTapHonoursMinimumTransmit(t *testing.T) {
	h := newHarness(t)
	h.button.PressFor(1)

	h.ctrl.Step(context.Background())

	// 1 s of 8 ms frames.
	assert.Equal(t, 125, h.source.Reads())
	assert.Len(t, h.link.samples, 125*audio.FrameSize)
	assert.Equal(t, 1, h.link.flushes)
	assert.Equal(t, Receiving, h.ctrl.State())

	stats := h.ctrl.Stats()
	assert.Equal(t, uint64(1), stats.TransmitBursts)
	assert.Equal(t, uint64(125), stats.TransmitFrames)
	assert.Equal(t, uint64(16000), stats.SamplesTransmitted)
}

func TestHeldButtonExtendsBurst(t *testing.T) {
	h := newHarness(t)
	h.button.PressFor(11)

	h.ctrl.Step(context.Background())

	assert.Equal(t, 135, h.source.Reads())
	assert.False(t, h.source.Started())
	assert.True(t, h.sink.Started())
}

func TestTransmitDiscardsStaleAudioAndSilencesSink(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 50; i++ {
		h.buffer.AddSample(int16(1000 + i))
	}

	var writesWhileTransmitting int
	h.sink.OnWrite = func([]int16) {
		if h.ctrl.State() == Transmitting {
			writesWhileTransmitting++
		}
	}

	h.button.PressFor(1)
	h.ctrl.Step(context.Background())

	assert.Zero(t, writesWhileTransmitting)
	assert.Zero(t, h.sink.Writes())
	assert.Zero(t, h.buffer.Len())

	// Back in receive mode the stale samples are gone: only silence plays.
	h.ctrl.Step(context.Background())
	require.Equal(t, 1, h.sink.Writes())
	assert.Equal(t, make([]int16, audio.FrameSize), h.sink.Samples())
}

func TestReceivePlaysBufferThenSilence(t *testing.T) {
	h := newHarness(t)
	want := make([]int16, jitter.DefaultCapacity)
	for i := range want {
		want[i] = int16(i%2000 + 1)
	}
	h.buffer.AddSamples(want)

	for i := 0; i < 38; i++ {
		h.ctrl.Step(context.Background())
	}

	played := h.sink.Samples()
	require.Len(t, played, 38*audio.FrameSize)
	assert.Equal(t, want, played[:len(want)])
	assert.Equal(t, make([]int16, 64), played[len(want):])
	assert.Equal(t, uint64(len(want)), h.ctrl.Stats().SamplesPlayed)
}

func TestBurstDrivesCollaborators(t *testing.T) {
	h := newHarness(t)
	h.button.PressFor(1)

	h.ctrl.Step(context.Background())

	assert.Equal(t, []string{"flashing true ff0000", "flashing false ff0000"}, h.indicator.Events())
	assert.True(t, h.amplifier.Enabled())

	bursts := h.recorder.Bursts()
	require.Len(t, bursts, 1)
	assert.Len(t, bursts[0], 16000)
	assert.Equal(t, h.link.samples, bursts[0])
}

func TestFailuresDoNotEscapeStep(t *testing.T) {
	h := newHarness(t)
	h.link.err = errors.New("network down")
	h.recorder.AppendErr = errors.New("disk full")

	h.button.PressFor(1)
	h.ctrl.Step(context.Background())

	stats := h.ctrl.Stats()
	assert.Equal(t, uint64(16000+1), stats.SendErrors)
	assert.Equal(t, uint64(125), stats.RecorderErrors)

	h.sink.WriteErr = errors.New("device unplugged")
	h.ctrl.Step(context.Background())
	assert.Equal(t, uint64(1), h.ctrl.Stats().SinkErrors)
}

func TestSourceFailureEndsBurst(t *testing.T) {
	h := newHarness(t)
	h.source.ReadErr = errors.New("overrun")
	h.button.PressFor(1)

	h.ctrl.Step(context.Background())

	assert.Equal(t, uint64(125), h.ctrl.Stats().SourceErrors)
	assert.Empty(t, h.link.samples)
	assert.Equal(t, Receiving, h.ctrl.State())
}

func TestSourceStartFailureRestoresReceive(t *testing.T) {
	h := newHarness(t)
	h.source.StartErr = errors.New("no microphone")
	h.button.PressFor(1)

	h.ctrl.Step(context.Background())

	assert.Zero(t, h.source.Reads())
	assert.Zero(t, h.link.flushes)
	assert.True(t, h.sink.Started())
	assert.Equal(t, Receiving, h.ctrl.State())
}

func TestHousekeepingRunsOnInterval(t *testing.T) {
	h := newHarness(t)
	runs := 0
	h.ctrl.housekeeping = func(context.Context) { runs++ }
	h.ctrl.lastHousekeep = h.clock.Now()

	h.ctrl.Step(context.Background())
	assert.Zero(t, runs)

	h.clock.Advance(999 * time.Millisecond)
	h.ctrl.Step(context.Background())
	assert.Zero(t, runs)

	h.clock.Advance(time.Millisecond)
	h.ctrl.Step(context.Background())
	h.ctrl.Step(context.Background())
	assert.Equal(t, 1, runs)
	assert.Equal(t, uint64(1), h.ctrl.Stats().HousekeepingRuns)
}

func TestRunReturnsBringUpFailure(t *testing.T) {
	h := newHarness(t)
	h.sink.StartErr = errors.New("no speaker")

	err := h.ctrl.Run(context.Background())
	assert.ErrorIs(t, err, h.sink.StartErr)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.buffer.AddSamples([]int16{1, 2, 3})

	ctx, cancel := context.WithCancel(context.Background())
	h.sink.OnWrite = func([]int16) {
		if h.sink.Writes() >= 5 {
			cancel()
		}
	}

	require.NoError(t, h.ctrl.Run(ctx))
	assert.Equal(t, 5, h.sink.Writes())
	assert.False(t, h.sink.Started())
	assert.False(t, h.amplifier.Enabled())
	// Samples queued before Run are discarded at bring-up.
	assert.Equal(t, make([]int16, 5*audio.FrameSize), h.sink.Samples())
}
