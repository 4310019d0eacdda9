package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
)

func TestAllPositiveConcreteRejection(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	s := New(b, []arith.Expr{b.Const(2), b.Const(0)}, dtype.Float32)

	_, err := s.AllPositive()
	require.Error(t, err)
}

func TestAllPositiveSymbolic(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	x := b.NewSymbol("x")
	s := New(b, []arith.Expr{x, b.Const(3)}, dtype.Float32)

	cs, err := s.AllPositive()
	require.NoError(t, err)
	assert.Len(t, cs, 1, "only the symbolic dim should produce a constraint")
}

func TestNElementFoldsConcreteDims(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	s := New(b, []arith.Expr{b.Const(2), b.Const(3), b.Const(4)}, dtype.Int32)

	v, ok := s.NElement().Concrete()
	require.True(t, ok)
	assert.Equal(t, int64(24), v)
}

func TestNElementScalarIsOne(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	s := New(b, nil, dtype.Float32)

	v, ok := s.NElement().Concrete()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestEqualToRankMismatchIsSanity(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	a := New(b, []arith.Expr{b.Const(2)}, dtype.Float32)
	c := New(b, []arith.Expr{b.Const(2), b.Const(3)}, dtype.Float32)

	_, err := a.EqualTo(c)
	require.Error(t, err)
}

func TestBroadcastShapesConcrete(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	a := New(b, []arith.Expr{b.Const(1), b.Const(5)}, dtype.Float32)
	c := New(b, []arith.Expr{b.Const(3), b.Const(1)}, dtype.Float32)

	out := BroadcastShapes(b, a, c)
	require.Equal(t, 2, out.Rank())

	v0, ok := out.Dims[0].Concrete()
	require.True(t, ok)
	assert.Equal(t, int64(3), v0)

	v1, ok := out.Dims[1].Concrete()
	require.True(t, ok)
	assert.Equal(t, int64(5), v1)
}

func TestBroadcastConstraintsCountsPerAxisPerShape(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	a := New(b, []arith.Expr{b.Const(1), b.Const(5)}, dtype.Float32)
	c := New(b, []arith.Expr{b.Const(3), b.Const(1)}, dtype.Float32)

	cs := BroadcastConstraints(b, a, c)
	assert.Len(t, cs, 4)
}
