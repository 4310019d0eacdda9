package smt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/arith"
)

// These exercise the production Z3 backend directly (NewStub's reference
// semantics are plain int64 arithmetic and do not reproduce z3's bitvector
// theory, so ModeBV width handling — the zero-extension spec.md §4.1
// requires — only gets real coverage here).

func TestZ3IntModeSat(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	x := b.NewSymbol("x")

	s := NewZ3(arith.ModeInt)
	defer s.Close()

	s.Assert(b.Gt(x, b.Const(0)))

	outcome, model, err := s.CheckAssuming(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Sat, outcome)
	assert.NotNil(t, model)
}

// TestZ3BitvectorCompareAgainstBareLiteral mirrors opset/conv2d.go's
// Requires (a derived sum compared against a bare kernel-size literal):
// padded has a non-zero width from Builder.Add's carry-bit widening, while
// the literal 5 carries none of its own (arith.Builder.Const never sets
// Expr.width). Lowering must align both to one width before comparing, or
// z3's bitvector theory rejects the mismatched sort pair.
func TestZ3BitvectorCompareAgainstBareLiteral(t *testing.T) {
	b := arith.NewBuilder(arith.ModeBV, 6)
	x := b.NewSymbol("x")
	padded := b.Add(x, b.Const(3))

	s := NewZ3(arith.ModeBV)
	defer s.Close()

	s.Assert(b.Eq(x, b.Const(4)))

	outcome, model, err := s.CheckAssuming(context.Background(), []arith.Bool{b.Ge(padded, b.Const(5))})
	require.NoError(t, err)
	require.Equal(t, Sat, outcome)

	name, _ := x.IsSymbol()
	assert.Equal(t, int64(4), model.Assignment()[name])
}

// TestZ3BitvectorAddCarryAvoidsWraparound checks that Add's one-bit carry
// widening (arith/builder.go's Add) actually reaches z3: at the symbol's
// native 6-bit width, 63+1 wraps to 0, but the widened sum must equal 64.
func TestZ3BitvectorAddCarryAvoidsWraparound(t *testing.T) {
	b := arith.NewBuilder(arith.ModeBV, 6)
	x := b.NewSymbol("x")
	sum := b.Add(x, b.Const(1))

	s := NewZ3(arith.ModeBV)
	defer s.Close()

	s.Assert(b.Eq(x, b.Const(63)))
	s.Assert(b.Eq(sum, b.Const(64)))

	outcome, _, err := s.CheckAssuming(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Sat, outcome)
}

// TestZ3BitvectorMulWidthAvoidsWraparound checks Mul's doubled width: at the
// symbols' native 6-bit width, 63*63 mod 64 == 1, but the widened product
// must equal the true value 3969 — and comparing that product against a
// bare literal must not ask z3 for a 0-bit sort (arith.Builder.Const never
// sets Expr.width on its own).
func TestZ3BitvectorMulWidthAvoidsWraparound(t *testing.T) {
	b := arith.NewBuilder(arith.ModeBV, 6)
	x := b.NewSymbol("x")
	y := b.NewSymbol("y")
	product := b.Mul(x, y)

	s := NewZ3(arith.ModeBV)
	defer s.Close()

	s.Assert(b.Eq(x, b.Const(63)))
	s.Assert(b.Eq(y, b.Const(63)))
	s.Assert(b.Eq(product, b.Const(3969)))

	outcome, _, err := s.CheckAssuming(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Sat, outcome)
}

func TestZ3BitvectorUnsatOnContradiction(t *testing.T) {
	b := arith.NewBuilder(arith.ModeBV, 6)
	x := b.NewSymbol("x")

	s := NewZ3(arith.ModeBV)
	defer s.Close()

	s.Assert(b.Gt(x, b.Const(10)))
	s.Assert(b.Lt(x, b.Const(2)))

	outcome, _, err := s.CheckAssuming(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Unsat, outcome)
}

func TestZ3BitvectorAssumptionsAreTransient(t *testing.T) {
	b := arith.NewBuilder(arith.ModeBV, 6)
	x := b.NewSymbol("x")

	s := NewZ3(arith.ModeBV)
	defer s.Close()

	s.Assert(b.Eq(x, b.Const(5)))

	outcome, _, err := s.CheckAssuming(context.Background(), []arith.Bool{b.Lt(x, b.Const(0))})
	require.NoError(t, err)
	assert.Equal(t, Unsat, outcome, "an unsigned bitvector symbol is never < 0, so this assumption must fail")

	outcome, _, err = s.CheckAssuming(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Sat, outcome, "the committed store must be unaffected by the rejected assumption")
}
