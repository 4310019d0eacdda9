// Package smt is the narrow bridge between the symbolic arithmetic IR
// (package arith) and an SMT solver, plus the deadline-worker protocol
// that keeps a wall-clock-exceeded check from leaking a live solver
// goroutine.
//
// The interface is deliberately small: Assert commits a permanent
// assertion (the assertion stack only ever grows — Push/Pop are not part
// of this contract), and CheckAssuming tests the committed store plus a
// transient assumption list, exactly mirroring how the search driver uses
// a solver: accumulate committed state across successful attempts, and
// test-then-discard-or-commit a tentative one.
package smt

import (
	"context"

	"github.com/synthgraph/symgen/arith"
)

// Outcome is the three-valued result of a solver check.
type Outcome int

const (
	Unknown Outcome = iota
	Sat
	Unsat
)

func (o Outcome) String() string {
	switch o {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Model is the solver's variable assignment from the most recent
// successful (Sat) check. Assignment keys are arith symbol names, matching
// what arith.Expr.Eval/arith.Bool.Eval expect as an env.
type Model interface {
	Assignment() map[string]int64
}

// Solver is the incremental SMT session the search driver and the
// symbolic graph depend on. A single instance is owned exclusively by
// one search.Driver for the lifetime of one run: it is not safe for
// concurrent use.
type Solver interface {
	// Assert commits a constraint permanently. Once asserted, a
	// constraint is never retracted within this run.
	Assert(b arith.Bool)

	// CheckAssuming tests the committed assertion set plus a transient
	// assumption list under ctx's deadline. On Sat, the returned Model
	// reflects the assumptions; it does not itself commit them — callers
	// that want to keep an accepted attempt must re-Assert it.
	CheckAssuming(ctx context.Context, assumptions []arith.Bool) (Outcome, Model, error)

	// Close releases any solver-native resources (e.g. the z3 context).
	Close()
}
