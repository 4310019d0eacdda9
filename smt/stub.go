package smt

import (
	"context"

	"github.com/synthgraph/symgen/arith"
)

// Stub is an in-memory reference Solver that evaluates assertions directly
// against a caller-supplied environment instead of delegating to a real SMT
// backend. It exists for the same reason TestableEngine
// (compute/testable_engine.go) exists alongside CPUEngine: deterministic,
// dependency-free exercise of the search driver and symbolic graph's
// control flow without requiring a live z3 process.
//
// Stub does not search for a satisfying assignment: it is handed one up
// front (via Bind) and simply checks whether the committed assertions plus
// the current CheckAssuming call's assumptions all evaluate to true under
// it, extending the environment on demand for symbols it has not seen
// before via the configured Allocator.
type Stub struct {
	env       map[string]int64
	asserted  []arith.Bool
	allocator func(symbol string) int64
}

// NewStub creates a Stub. allocator supplies a value for any symbol
// encountered during evaluation that Bind has not already fixed; if nil, a
// constant allocator returning 1 is used, which is sufficient to satisfy
// ordinary positivity/shape-match constraints in tests.
func NewStub(allocator func(symbol string) int64) *Stub {
	if allocator == nil {
		allocator = func(string) int64 { return 1 }
	}

	return &Stub{env: map[string]int64{}, allocator: allocator}
}

// Bind fixes a symbol to an explicit value, overriding the allocator.
func (s *Stub) Bind(symbol string, value int64) {
	s.env[symbol] = value
}

func (s *Stub) resolve(names []string) {
	for _, n := range names {
		if _, ok := s.env[n]; !ok {
			s.env[n] = s.allocator(n)
		}
	}
}

func (s *Stub) Assert(b arith.Bool) {
	s.asserted = append(s.asserted, b)
}

func (s *Stub) CheckAssuming(_ context.Context, assumptions []arith.Bool) (Outcome, Model, error) {
	all := make([]arith.Bool, 0, len(s.asserted)+len(assumptions))
	all = append(all, s.asserted...)
	all = append(all, assumptions...)

	for _, b := range all {
		s.resolve(b.Symbols())

		v, ok := b.Eval(s.env)
		if !ok {
			// Every symbol was resolved above, so a failed Eval here
			// means the IR referenced something outside its own
			// Symbols() closure: a generator invariant violation, not a
			// modeling gap Stub should paper over.
			panic("smt: Stub could not evaluate an assertion after resolving all its symbols")
		}

		if !v {
			return Unsat, nil, nil
		}
	}

	snapshot := make(map[string]int64, len(s.env))
	for k, v := range s.env {
		snapshot[k] = v
	}

	return Sat, stubModel{assignment: snapshot}, nil
}

func (s *Stub) Close() {}

type stubModel struct {
	assignment map[string]int64
}

func (m stubModel) Assignment() map[string]int64 { return m.assignment }
