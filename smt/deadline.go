package smt

import (
	"context"
	"time"

	"github.com/synthgraph/symgen/arith"
)

// checkResult carries one worker's outcome back to its caller.
type checkResult struct {
	outcome Outcome
	model   Model
	err     error
}

// CheckWithDeadline runs check in a child goroutine and races it against
// timeout: if the deadline fires first, the in-flight check is abandoned
// (its goroutine is left to finish on its own and its result discarded)
// and the outcome is treated as Unknown; otherwise the worker's own {Sat,
// Unsat, Unknown} result is returned. The committed assertion stack is
// untouched either way, since a check never mutates it.
//
// This mirrors the context-threaded cancellation style used throughout
// for blocking operations — graph.Graph[T].Forward/Backward take a
// context.Context, and distributed/all_reduce.go's strategies are driven
// by a context-bearing coordinator — generalized from "cancel a tensor
// op" to "abandon a solver check without leaking it."
func CheckWithDeadline(ctx context.Context, s Solver, assumptions []arith.Bool, timeout time.Duration) (Outcome, Model, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan checkResult, 1)

	go func() {
		outcome, model, err := s.CheckAssuming(deadlineCtx, assumptions)
		done <- checkResult{outcome: outcome, model: model, err: err}
	}()

	select {
	case r := <-done:
		return r.outcome, r.model, r.err
	case <-deadlineCtx.Done():
		// The worker is still running; it will observe deadlineCtx.Done()
		// on its own next cooperative check (solver backends that support
		// interruption do so via ctx) and exit. We do not block waiting
		// for it: the protocol only promises the committed store stays
		// untouched, not that every abandoned goroutine has exited by the
		// time CheckWithDeadline returns.
		return Unknown, nil, nil
	}
}
