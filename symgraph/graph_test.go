package symgraph

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/opset"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/smt"
)

func TestAddPlaceholderAndFinalizeAssignsInput(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := New(b)

	dims := []arith.Expr{b.NewSymbol("d0")}
	ph := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	require.Len(t, g.Placeholders(), 1)
	assert.Equal(t, ph, g.Placeholders()[0])

	g.Finalize(rand.New(rand.NewSource(1)))

	assert.Empty(t, g.Placeholders(), "Finalize must resolve every placeholder")

	a, ok := g.Alive(ph)
	require.True(t, ok)

	n, ok := g.Node(a.Producer)
	require.True(t, ok)
	assert.False(t, n.IsPlaceholder)
	assert.Equal(t, "Input", n.TerminalKind, "the first placeholder must always finalize as Input")
}

func TestForwardInsertCommitsOnSat(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := New(b)
	rng := rand.New(rand.NewSource(1))

	dims := []arith.Expr{b.NewSymbol("d0"), b.NewSymbol("d1")}
	ph := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	relu := findUnary(t, "ReLU")
	inst := relu.New(b, rng, 1)

	solver := smt.NewStub(nil)

	res, err := g.ForwardInsert(context.Background(), solver, time.Second, rng, inst, []AliveID{ph}, nil)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, res.Outcome)
	require.Len(t, res.Outputs, 1)

	assert.Equal(t, 1, g.NodeCount(), "ForwardInsert's committed node must count toward NodeCount")

	n, ok := g.Node(res.NodeID)
	require.True(t, ok)
	assert.Equal(t, []AliveID{ph}, n.InAlive)
}

func TestForwardInsertDiscardsOnUnsat(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := New(b)
	rng := rand.New(rand.NewSource(1))

	dims := []arith.Expr{b.NewSymbol("d0")}
	ph := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	relu := findUnary(t, "ReLU")
	inst := relu.New(b, rng, 1)

	solver := smt.NewStub(nil)
	solver.Assert(arith.False)

	res, err := g.ForwardInsert(context.Background(), solver, time.Second, rng, inst, []AliveID{ph}, nil)
	require.NoError(t, err)
	assert.Equal(t, smt.Unsat, res.Outcome)
	assert.Equal(t, 0, g.NodeCount(), "a discarded attempt must not mutate the graph")
}

func TestBackwardInsertRetargetsPlaceholder(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := New(b)
	rng := rand.New(rand.NewSource(1))

	dims := []arith.Expr{b.NewSymbol("d0"), b.NewSymbol("d1")}
	target := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	relu := findUnary(t, "ReLU")
	inst := relu.New(b, rng, 1)

	solver := smt.NewStub(nil)

	res, err := g.BackwardInsert(
		context.Background(), solver, time.Second, rng, inst,
		[]dtype.DType{dtype.Float32}, []AliveID{target}, []int{2}, nil,
	)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, res.Outcome)

	assert.Equal(t, []AliveID{target}, res.Outputs, "the target alive id is reused by the new producer")

	a, ok := g.Alive(target)
	require.True(t, ok)

	n, ok := g.Node(a.Producer)
	require.True(t, ok)
	assert.False(t, n.IsPlaceholder, "the target's producer must now be the inserted op, not a placeholder")
	assert.Len(t, n.InAlive, 1, "ReLU's single fresh input placeholder")

	require.Len(t, g.Placeholders(), 1, "BackwardInsert mints one fresh placeholder per input")
}

func TestBackwardInsertRejectsVariableArity(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := New(b)
	rng := rand.New(rand.NewSource(1))

	dims := []arith.Expr{b.NewSymbol("d0")}
	target := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	inst := opset.NewConcat().New(b, rng, 2)
	solver := smt.NewStub(nil)

	_, err := g.BackwardInsert(
		context.Background(), solver, time.Second, rng, inst,
		[]dtype.DType{dtype.Float32, dtype.Float32}, []AliveID{target}, []int{2, 2}, nil,
	)
	require.Error(t, err)
}

func findUnary(t *testing.T, name string) opset.Variant {
	t.Helper()

	for _, v := range opset.StandardUnary() {
		if v.Name() == name {
			return v
		}
	}

	t.Fatalf("unary variant %q not found", name)
	return nil
}
