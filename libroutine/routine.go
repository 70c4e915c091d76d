// Package libroutine provides a circuit breaker and a timer loop built on
// it. The sync core runs its chat and notification pollers through Loop: a
// failing backend opens the circuit and holds ticks back for the reset
// timeout, but the loop itself never stops until its context ends.
package libroutine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the circuit rejects calls.
var ErrCircuitOpen = errors.New("libroutine: circuit open")

// State is the circuit position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Routine is a circuit breaker. After threshold consecutive failures the
// circuit opens; after resetTimeout a single probe call is admitted, and its
// outcome closes or reopens the circuit.
type Routine struct {
	mu               sync.Mutex
	threshold        int
	resetTimeout     time.Duration
	failures         int
	state            State
	openedAt         time.Time
	halfOpenInFlight bool
}

// NewRoutine creates a breaker with the given failure threshold and reset
// timeout.
func NewRoutine(threshold int, resetTimeout time.Duration) *Routine {
	return &Routine{threshold: threshold, resetTimeout: resetTimeout}
}

// Allow reports whether a call may proceed, transitioning Open→HalfOpen once
// the reset timeout has elapsed. In the half-open state only one probe call
// is admitted at a time.
func (r *Routine) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Closed:
		return true
	case Open:
		// The transitioning call is admitted without claiming the probe
		// slot; the next HalfOpen caller claims it.
		if time.Since(r.openedAt) >= r.resetTimeout {
			r.state = HalfOpen
			r.halfOpenInFlight = false
			return true
		}
		return false
	case HalfOpen:
		if r.halfOpenInFlight {
			return false
		}
		r.halfOpenInFlight = true
		return true
	}
	return false
}

func (r *Routine) markSuccess() {
	r.mu.Lock()
	r.failures = 0
	r.state = Closed
	r.halfOpenInFlight = false
	r.mu.Unlock()
}

func (r *Routine) markFailure() {
	r.mu.Lock()
	r.failures++
	if r.state == HalfOpen || r.failures >= r.threshold {
		r.state = Open
		r.openedAt = time.Now()
		r.halfOpenInFlight = false
		r.failures = 0
	}
	r.mu.Unlock()
}

// Execute runs fn under the breaker. Returns ErrCircuitOpen without calling
// fn when the circuit rejects the call.
func (r *Routine) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(ctx); err != nil {
		r.markFailure()
		return err
	}
	r.markSuccess()
	return nil
}

// ExecuteWithRetry runs fn up to maxAttempts times, sleeping between
// attempts. An open circuit aborts immediately; context cancellation during
// the sleep is returned as the context error.
func (r *Routine) ExecuteWithRetry(ctx context.Context, sleep time.Duration, maxAttempts int, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := r.Execute(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCircuitOpen) {
			return err
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// Loop executes fn immediately and then on every interval tick or trigger
// signal, each run guarded by the breaker, until ctx ends. Errors (including
// ErrCircuitOpen) go to errFn; the loop itself never stops on error.
func (r *Routine) Loop(ctx context.Context, interval time.Duration, trigger <-chan struct{}, fn func(ctx context.Context) error, errFn func(error)) {
	run := func() {
		if err := r.Execute(ctx, fn); err != nil {
			errFn(err)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		case <-trigger:
			run()
		}
	}
}

// ForceOpen opens the circuit regardless of failure count.
func (r *Routine) ForceOpen() {
	r.mu.Lock()
	r.state = Open
	r.openedAt = time.Now()
	r.halfOpenInFlight = false
	r.mu.Unlock()
}

// ForceClose closes the circuit and clears the failure count.
func (r *Routine) ForceClose() {
	r.mu.Lock()
	r.state = Closed
	r.failures = 0
	r.halfOpenInFlight = false
	r.mu.Unlock()
}

// GetState returns the current circuit position.
func (r *Routine) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// GetThreshold returns the failure threshold.
func (r *Routine) GetThreshold() int {
	return r.threshold
}

// GetResetTimeout returns the reset timeout.
func (r *Routine) GetResetTimeout() time.Duration {
	return r.resetTimeout
}
