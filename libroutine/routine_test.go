package libroutine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atelierline/storesync/libroutine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend unavailable")

func TestUnit_BreakerOpensAtFailureThreshold(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(3, time.Minute)

	fail := func(ctx context.Context) error { return errBackendDown }
	for i := 0; i < 3; i++ {
		require.Equal(t, libroutine.Closed, r.GetState())
		require.ErrorIs(t, r.Execute(ctx, fail), errBackendDown)
	}
	require.Equal(t, libroutine.Open, r.GetState())

	called := false
	err := r.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, libroutine.ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the function")
}

func TestUnit_BreakerProbeClosesAfterReset(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(1, 20*time.Millisecond)

	require.ErrorIs(t, r.Execute(ctx, func(ctx context.Context) error { return errBackendDown }), errBackendDown)
	require.Equal(t, libroutine.Open, r.GetState())
	require.ErrorIs(t, r.Execute(ctx, func(ctx context.Context) error { return nil }), libroutine.ErrCircuitOpen)

	time.Sleep(25 * time.Millisecond)

	// First call after the reset timeout is the probe. Success closes.
	require.NoError(t, r.Execute(ctx, func(ctx context.Context) error { return nil }))
	require.Equal(t, libroutine.Closed, r.GetState())
}

func TestUnit_BreakerFailedProbeReopens(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(1, 20*time.Millisecond)

	require.Error(t, r.Execute(ctx, func(ctx context.Context) error { return errBackendDown }))
	time.Sleep(25 * time.Millisecond)

	require.ErrorIs(t, r.Execute(ctx, func(ctx context.Context) error { return errBackendDown }), errBackendDown)
	require.Equal(t, libroutine.Open, r.GetState())
}

func TestUnit_BreakerHalfOpenAdmitsSingleProbe(t *testing.T) {
	r := libroutine.NewRoutine(1, 10*time.Millisecond)
	r.ForceOpen()
	time.Sleep(15 * time.Millisecond)

	// The transitioning call plus one half-open probe; the next caller
	// waits for the probe's outcome.
	require.True(t, r.Allow())
	require.True(t, r.Allow())
	require.False(t, r.Allow())
}

func TestUnit_BreakerForceOpenAndClose(t *testing.T) {
	r := libroutine.NewRoutine(5, time.Minute)
	require.Equal(t, libroutine.Closed, r.GetState())

	r.ForceOpen()
	require.Equal(t, libroutine.Open, r.GetState())
	require.False(t, r.Allow())

	r.ForceClose()
	require.Equal(t, libroutine.Closed, r.GetState())
	require.True(t, r.Allow())
}

func TestUnit_BreakerAccessors(t *testing.T) {
	r := libroutine.NewRoutine(3, 10*time.Second)
	assert.Equal(t, 3, r.GetThreshold())
	assert.Equal(t, 10*time.Second, r.GetResetTimeout())
	assert.Equal(t, "closed", r.GetState().String())
	r.ForceOpen()
	assert.Equal(t, "open", r.GetState().String())
}

func TestUnit_ExecuteWithRetryStopsOnSuccess(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(10, time.Minute)

	var calls int32
	err := r.ExecuteWithRetry(ctx, time.Millisecond, 5, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errBackendDown
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUnit_ExecuteWithRetryReturnsLastError(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(10, time.Minute)

	var calls int32
	err := r.ExecuteWithRetry(ctx, time.Millisecond, 3, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errBackendDown
	})
	require.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUnit_ExecuteWithRetryAbortsOnOpenCircuit(t *testing.T) {
	ctx := context.Background()
	r := libroutine.NewRoutine(10, time.Minute)
	r.ForceOpen()

	var calls int32
	err := r.ExecuteWithRetry(ctx, time.Millisecond, 5, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.ErrorIs(t, err, libroutine.ErrCircuitOpen)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestUnit_LoopRunsImmediatelyThenOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := libroutine.NewRoutine(3, time.Minute)

	var runs int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Loop(ctx, 20*time.Millisecond, nil, func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}, func(err error) {})
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 1
	}, time.Second, time.Millisecond, "first run fires without waiting for a tick")
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}

func TestUnit_LoopTriggerForcesARun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := libroutine.NewRoutine(3, time.Minute)
	trigger := make(chan struct{}, 1)

	var runs int32
	go r.Loop(ctx, time.Hour, trigger, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, func(err error) {})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, time.Millisecond)

	trigger <- struct{}{}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 2
	}, time.Second, time.Millisecond)
}

// A poller whose backend stays down must keep ticking: the breaker holds
// calls back while open, reports ErrCircuitOpen to errFn, and re-probes
// after the reset timeout. The loop itself never exits.
func TestUnit_LoopSurvivesPersistentFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := libroutine.NewRoutine(2, 50*time.Millisecond)

	var attempts int32
	var rejected int32
	var down atomic.Bool
	down.Store(true)

	go r.Loop(ctx, 10*time.Millisecond, nil, func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		if down.Load() {
			return errBackendDown
		}
		return nil
	}, func(err error) {
		if errors.Is(err, libroutine.ErrCircuitOpen) {
			atomic.AddInt32(&rejected, 1)
		}
	})

	// Threshold failures open the circuit, then ticks are rejected
	// without reaching the backend.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&rejected) >= 1
	}, 2*time.Second, time.Millisecond)

	// Backend comes back; a reset-timeout probe closes the circuit and
	// attempts flow again.
	down.Store(false)
	before := atomic.LoadInt32(&attempts)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) >= before+2 && r.GetState() == libroutine.Closed
	}, 2*time.Second, time.Millisecond)
}

func TestUnit_LoopReportsErrorsToErrFn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := libroutine.NewRoutine(10, time.Minute)

	var reported int32
	go r.Loop(ctx, 10*time.Millisecond, nil, func(ctx context.Context) error {
		return errBackendDown
	}, func(err error) {
		if errors.Is(err, errBackendDown) {
			atomic.AddInt32(&reported, 1)
		}
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&reported) >= 2
	}, time.Second, time.Millisecond)
}
