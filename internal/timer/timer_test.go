package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/tessro/interlude/internal/errors"
)

func TestNewTimerIsIdle(t *testing.T) {
	tm := New(5 * time.Second)
	assert.Equal(t, Snapshot{State: Idle, Remaining: 5 * time.Second, Duration: 5 * time.Second}, tm.Snapshot())

	assert.Equal(t, DefaultDuration, New(0).Snapshot().Duration)
}

func TestStartRequiresSelection(t *testing.T) {
	tm := New(5 * time.Second)
	err := tm.Start(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrEmptySelection)
	assert.True(t, ierrors.IsConfiguration(err))
	assert.Equal(t, Idle, tm.State())
}

func TestStartTwiceRejected(t *testing.T) {
	tm := New(5 * time.Second)
	require.NoError(t, tm.Start(true))
	err := tm.Start(true)
	assert.ErrorIs(t, err, ierrors.ErrInvalidState)
	assert.Equal(t, Running, tm.State())
}

func TestTickExpiresAndRearms(t *testing.T) {
	tm := New(3 * time.Second)
	require.NoError(t, tm.Start(true))

	var expiries []int
	for i := 1; i <= 7; i++ {
		if tm.Tick() {
			expiries = append(expiries, i)
			assert.Equal(t, Expired, tm.State())
			tm.Rearm()
		}
		assert.Equal(t, Running, tm.State())
	}
	assert.Equal(t, []int{3, 6}, expiries)
	assert.Equal(t, 2*time.Second, tm.Snapshot().Remaining)
}

func TestTickIgnoredUnlessRunning(t *testing.T) {
	tm := New(2 * time.Second)
	assert.False(t, tm.Tick())
	assert.Equal(t, 2*time.Second, tm.Snapshot().Remaining)

	require.NoError(t, tm.Start(true))
	tm.Tick()
	require.NoError(t, tm.Stop())
	assert.False(t, tm.Tick())
	assert.Equal(t, time.Second, tm.Snapshot().Remaining)
}

func TestStopPreservesRemaining(t *testing.T) {
	tm := New(10 * time.Second)
	require.NoError(t, tm.Start(true))
	tm.Tick()
	tm.Tick()
	require.NoError(t, tm.Stop())

	snap := tm.Snapshot()
	assert.Equal(t, Stopped, snap.State)
	assert.Equal(t, 8*time.Second, snap.Remaining)

	require.NoError(t, tm.Start(true))
	assert.Equal(t, 8*time.Second, tm.Snapshot().Remaining)
}

func TestStopWhenNotRunning(t *testing.T) {
	err := New(time.Second).Stop()
	assert.ErrorIs(t, err, ierrors.ErrInvalidState)
}

func TestFullStopFromAnyState(t *testing.T) {
	for _, setup := range []func(*Timer){
		func(*Timer) {},
		func(tm *Timer) { _ = tm.Start(true) },
		func(tm *Timer) { _ = tm.Start(true); tm.Tick(); _ = tm.Stop() },
		func(tm *Timer) { _ = tm.Start(true); tm.Tick(); tm.Tick() },
	} {
		tm := New(2 * time.Second)
		setup(tm)
		tm.FullStop()
		assert.Equal(t, Snapshot{State: Idle, Remaining: 2 * time.Second, Duration: 2 * time.Second}, tm.Snapshot())
	}
}

func TestSetDuration(t *testing.T) {
	tm := New(10 * time.Second)
	require.NoError(t, tm.SetDuration(20*time.Second))
	assert.Equal(t, 20*time.Second, tm.Snapshot().Remaining)

	require.NoError(t, tm.Start(true))
	tm.Tick()
	require.NoError(t, tm.SetDuration(5*time.Second))
	assert.Equal(t, 5*time.Second, tm.Snapshot().Remaining)

	assert.Error(t, tm.SetDuration(0))
}
