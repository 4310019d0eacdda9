package concretize

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
	"github.com/synthgraph/symgen/symgraph"
)

func reluVariant(t *testing.T) opset.Variant {
	t.Helper()

	for _, v := range opset.StandardUnary() {
		if v.Name() == "ReLU" {
			return v
		}
	}

	t.Fatal("ReLU variant not found")
	return nil
}

// buildLinearGraph grows Input -> ReLU -> ReLU then finalizes and solves,
// returning the graph and its model.
func buildLinearGraph(t *testing.T) (*symgraph.Graph, smt.Model) {
	t.Helper()

	b := arith.NewBuilder(arith.ModeInt, 0)
	g := symgraph.New(b)
	rng := rand.New(rand.NewSource(7))

	dims := []arith.Expr{b.NewSymbol("d0"), b.NewSymbol("d1")}
	root := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	solver := smt.NewStub(func(string) int64 { return 4 })

	relu := reluVariant(t)

	res1, err := g.ForwardInsert(context.Background(), solver, time.Second, rng, relu.New(b, rng, 1), []symgraph.AliveID{root}, nil)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, res1.Outcome)

	res2, err := g.ForwardInsert(context.Background(), solver, time.Second, rng, relu.New(b, rng, 1), res1.Outputs, nil)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, res2.Outcome)

	g.Finalize(rng)

	outcome, model, err := smt.CheckWithDeadline(context.Background(), solver, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, outcome)

	return g, model
}

func TestConcretizeOrdersNodesTopologically(t *testing.T) {
	g, model := buildLinearGraph(t)

	cg, err := Concretize(g, model)
	require.NoError(t, err)
	require.Len(t, cg.Nodes, 3, "one Input terminal plus two ReLU ops")

	assert.Equal(t, "Input", cg.Nodes[0].TerminalKind)
	assert.Equal(t, "ReLU", cg.Nodes[1].OpType)
	assert.Equal(t, "ReLU", cg.Nodes[2].OpType)

	assert.Equal(t, []symgraph.NodeID{cg.Nodes[0].ID}, cg.Nodes[1].InputNodeIDs)
	assert.Equal(t, []symgraph.NodeID{cg.Nodes[1].ID}, cg.Nodes[2].InputNodeIDs)
}

func TestConcretizeResolvesConcreteDims(t *testing.T) {
	g, model := buildLinearGraph(t)

	cg, err := Concretize(g, model)
	require.NoError(t, err)

	for _, n := range cg.Nodes {
		for _, s := range n.OutputShapes {
			for _, d := range s.Dims {
				assert.Greater(t, d, int64(0))
			}
		}
	}
}

func TestConcretizePreservesDuplicateInputReferences(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	g := symgraph.New(b)
	rng := rand.New(rand.NewSource(3))

	dims := []arith.Expr{b.NewSymbol("d0")}
	root := g.AddPlaceholder(shape.New(b, dims, dtype.Float32))

	solver := smt.NewStub(func(string) int64 { return 3 })

	add := findBinary(t, "Add")

	res, err := g.ForwardInsert(context.Background(), solver, time.Second, rng, add.New(b, rng, 2), []symgraph.AliveID{root, root}, nil)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, res.Outcome)

	g.Finalize(rng)

	outcome, model, err := smt.CheckWithDeadline(context.Background(), solver, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, smt.Sat, outcome)

	cg, err := Concretize(g, model)
	require.NoError(t, err)

	addNode := cg.Nodes[len(cg.Nodes)-1]
	assert.Equal(t, "Add", addNode.OpType)
	require.Len(t, addNode.InputNodeIDs, 2)
	assert.Equal(t, addNode.InputNodeIDs[0], addNode.InputNodeIDs[1], "Add(x, x) must reference its single producer twice, not dedupe")
}

func findBinary(t *testing.T, name string) opset.Variant {
	t.Helper()

	for _, v := range opset.StandardBinary() {
		if v.Name() == name {
			return v
		}
	}

	t.Fatalf("binary variant %q not found", name)
	return nil
}
