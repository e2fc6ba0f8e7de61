package recording

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// burstRecorder collects bursts; it may be gated to simulate slow storage.
type burstRecorder struct {
	mu       sync.Mutex
	gate     chan struct{}
	current  []int16
	finished [][]int16
}

func (b *burstRecorder) Append(samples []int16) error {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = append(b.current, samples...)
	return nil
}

func (b *burstRecorder) Finish() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return ErrNoRecording
	}
	b.finished = append(b.finished, b.current)
	b.current = nil
	return nil
}

func (b *burstRecorder) bursts() [][]int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finished
}

func TestAsyncRecorderPreservesBursts(t *testing.T) {
	target := &burstRecorder{}
	a, err := NewAsyncRecorder(target, 16)
	require.NoError(t, err)

	frame := []int16{1, 2}
	require.NoError(t, a.Append(frame))
	frame[0] = 99 // the queued copy must not change
	require.NoError(t, a.Finish())
	require.NoError(t, a.Append([]int16{3}))
	require.NoError(t, a.Finish())
	require.NoError(t, a.Close())

	assert.Equal(t, [][]int16{{1, 2}, {3}}, target.bursts())
	assert.Equal(t, uint64(2), a.Stats().Completed)
	assert.ErrorIs(t, a.Append(frame), ErrRecorderClosed)
	assert.NoError(t, a.Close())
}

func TestAsyncRecorderDropsWhenFull(t *testing.T) {
	target := &burstRecorder{gate: make(chan struct{})}
	a, err := NewAsyncRecorder(target, 2)
	require.NoError(t, err)

	// The writer blocks on the first frame; two more fill the queue.
	var dropped int
	for i := 0; i < 10; i++ {
		if err := a.Append([]int16{int16(i)}); errors.Is(err, ErrQueueFull) {
			dropped++
		}
	}
	assert.GreaterOrEqual(t, dropped, 7)
	assert.Equal(t, uint64(dropped), a.Stats().FramesDropped)

	close(target.gate)
	require.NoError(t, a.Close())
	require.Len(t, target.bursts(), 1)
}

func TestAsyncRecorderRecoversLostFinish(t *testing.T) {
	target := &burstRecorder{gate: make(chan struct{})}
	a, err := NewAsyncRecorder(target, 1)
	require.NoError(t, err)

	// The writer takes the first frame and blocks; the second occupies the only slot.
	require.NoError(t, a.Append([]int16{1}))
	require.Eventually(t, func() bool { return a.Append([]int16{2}) == nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, a.Finish(), ErrQueueFull)

	close(target.gate)
	require.Eventually(t, func() bool { return a.Append([]int16{3}) == nil }, time.Second, time.Millisecond)
	require.NoError(t, a.Close())

	assert.Equal(t, [][]int16{{1, 2}, {3}}, target.bursts())
}

func TestNewAsyncRecorderRequiresTarget(t *testing.T) {
	_, err := NewAsyncRecorder(nil, 1)
	assert.Error(t, err)
}
