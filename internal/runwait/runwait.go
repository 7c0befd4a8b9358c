// Package runwait polls an asynchronous operation at a fixed interval until
// it reaches a terminal state or the attempt budget is exhausted. Timing out
// is a normal outcome, distinguishable from both success and upstream
// failure; the underlying operation is never cancelled by the waiter.
package runwait

import (
	"context"
	"time"

	"workbridge/internal/tools"
)

// Outcome is the closed set of terminal results a wait can produce.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeOther   Outcome = "OTHER"
	OutcomeTimeout Outcome = "TIMEOUT"
)

// Status is one observation of the polled operation.
type Status struct {
	// Terminal reports whether the operation has finished. Once terminal,
	// later polls must never report non-terminal again.
	Terminal bool
	// Outcome classifies a terminal status. Ignored while Terminal is false.
	Outcome Outcome
}

// StatusFunc fetches the operation's current state. Errors propagate to the
// caller immediately and stop the wait.
type StatusFunc func(ctx context.Context) (Status, error)

// Result describes how a wait ended.
type Result struct {
	Outcome  Outcome
	Attempts int
}

// TimedOut reports whether the wait exhausted its attempt budget.
func (r Result) TimedOut() bool { return r.Outcome == OutcomeTimeout }

// Wait polls at a fixed interval until poll reports a terminal status or
// floor(timeout/interval) attempts have been made. No backoff, no jitter.
// Context cancellation stops the wait with ctx.Err().
func Wait(ctx context.Context, poll StatusFunc, timeout, interval time.Duration) (Result, error) {
	if interval <= 0 {
		return Result{}, tools.NewValidationError("poll_interval", "must be positive, got %v", interval)
	}
	if timeout <= 0 {
		return Result{}, tools.NewValidationError("timeout", "must be positive, got %v", timeout)
	}

	attempts := int(timeout / interval)
	for i := 0; i < attempts; i++ {
		st, err := poll(ctx)
		if err != nil {
			return Result{Attempts: i + 1}, err
		}
		if st.Terminal {
			return Result{Outcome: st.Outcome, Attempts: i + 1}, nil
		}

		// Last attempt done; skip the trailing sleep.
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Result{Attempts: i + 1}, ctx.Err()
		}
	}

	return Result{Outcome: OutcomeTimeout, Attempts: attempts}, nil
}
