// Package symgraph is the abstract multi-digraph of operator nodes whose
// edges are "alive shapes": tensor descriptors currently available as
// output of some node and thus reusable as another node's input. It
// generalizes graph.Graph[T]/graph.Builder[T] (graph/graph.go,
// graph/builder.go) from a single-input-arity execution DAG with a fixed
// topological node slice to a multi-edge DAG addressed by numeric id,
// supporting backward insertion's in-place edge re-targeting (per §9's
// "Cyclic structures" design note: nodes and alive shapes refer to each
// other by id, not by pointer, so re-targeting an edge is a constant-time
// update rather than a graph rewrite).
//
// Graph owns no solver state of its own: forward and backward insertion
// take a smt.Solver and a per-attempt assumption list from the caller
// (search.Driver), check it, and either commit (mutate the graph, Assert
// every constraint) or discard (mutate nothing) — matching spec.md §4.4's
// "on unsat or unknown: discard the tentative assertions; leave the graph
// unchanged."
package symgraph

import (
	"context"
	"math/rand"
	"time"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/opset"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/smt"
	"github.com/synthgraph/symgen/synerr"
)

// NodeID and AliveID are arena indices, matching shape.Alive.ID's type so a
// symgraph.AliveID can be handed straight to shape.Alive without a cast.
type NodeID = int
type AliveID = int

// Node is one operator node (or, before Finalize, a placeholder) in the
// graph. A placeholder carries no Op; PlaceholderShape is the single
// output it produces. After Finalize, TerminalKind names what it became
// ("Input" or "Constant") and IsPlaceholder is false.
type Node struct {
	ID              NodeID
	Op              opset.Instance
	InputArity      int
	OutputArity     int
	InAlive         []AliveID
	OutAlive        []AliveID
	IsPlaceholder   bool
	PlaceholderShape *shape.TensorShape
	TerminalKind    string // "Input" or "Constant", set by Finalize
}

// Graph is a multi-digraph of Nodes whose edges are AliveIDs. It is not
// safe for concurrent use: one live Graph, one live smt.Solver, and the
// shared arith.Builder symbol counter are per-instance state belonging to
// a single search.Driver run (spec.md §5, §9).
type Graph struct {
	b     *arith.Builder
	nodes map[NodeID]*Node
	alive map[AliveID]*shape.Alive

	nextNode  NodeID
	nextAlive AliveID
}

// New creates an empty Graph sharing b with every shape it will carry.
func New(b *arith.Builder) *Graph {
	return &Graph{
		b:     b,
		nodes: map[NodeID]*Node{},
		alive: map[AliveID]*shape.Alive{},
	}
}

// Builder returns the arithmetic builder every shape and constraint in
// this graph is expressed against.
func (g *Graph) Builder() *arith.Builder { return g.b }

func (g *Graph) newNodeID() NodeID {
	id := g.nextNode
	g.nextNode++

	return id
}

func (g *Graph) newAliveID() AliveID {
	id := g.nextAlive
	g.nextAlive++

	return id
}

// Node looks up a node by id. The second return is false if id is unknown.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Alive looks up an alive shape by id.
func (g *Graph) Alive(id AliveID) (shape.Alive, bool) {
	a, ok := g.alive[id]
	if !ok {
		return shape.Alive{}, false
	}

	return *a, true
}

// AliveShapes returns a snapshot of every alive shape currently in the
// arena, in id order, for the search driver to filter by rank and dtype.
func (g *Graph) AliveShapes() []shape.Alive {
	out := make([]shape.Alive, 0, len(g.alive))
	for id := 0; id < g.nextAlive; id++ {
		if a, ok := g.alive[id]; ok {
			out = append(out, *a)
		}
	}

	return out
}

// Placeholders returns the alive ids whose producing node is still an
// unresolved Placeholder.
func (g *Graph) Placeholders() []AliveID {
	var out []AliveID

	for id := 0; id < g.nextAlive; id++ {
		a, ok := g.alive[id]
		if !ok {
			continue
		}

		if n, ok := g.nodes[a.Producer]; ok && n.IsPlaceholder {
			out = append(out, id)
		}
	}

	return out
}

// NodeCount returns the number of non-placeholder nodes, matching
// config.MaxNodes' "target node count (not counting placeholders)".
func (g *Graph) NodeCount() int {
	n := 0

	for _, node := range g.nodes {
		if !node.IsPlaceholder {
			n++
		}
	}

	return n
}

// AddPlaceholder inserts a fresh zero-input Placeholder node producing one
// alive shape of s, returning its alive id. Used both to seed the graph's
// initial frontier and internally by BackwardInsert.
func (g *Graph) AddPlaceholder(s shape.TensorShape) AliveID {
	nodeID := g.newNodeID()
	aliveID := g.newAliveID()

	shapeCopy := s
	g.nodes[nodeID] = &Node{
		ID:               nodeID,
		OutputArity:      1,
		OutAlive:         []AliveID{aliveID},
		IsPlaceholder:    true,
		PlaceholderShape: &shapeCopy,
	}
	g.alive[aliveID] = &shape.Alive{ID: aliveID, Producer: nodeID, Port: 0, Shape: s}

	return aliveID
}

// InsertResult reports the outcome of a ForwardInsert/BackwardInsert
// attempt. NodeID/Outputs are only meaningful when Outcome == smt.Sat.
type InsertResult struct {
	Outcome smt.Outcome
	NodeID  NodeID
	Outputs []AliveID
}

// assembleAndCheck checks cs, the assertion set its caller has already
// assembled (op-local + positivity + caller-supplied extra, e.g. the
// float-budget delta), under timeout, and on Sat commits every assertion
// in cs. It returns the solver's outcome and, on Sat, its model; the
// caller applies the graph mutation itself.
func assembleAndCheck(
	ctx context.Context,
	solver smt.Solver,
	timeout time.Duration,
	cs []arith.Bool,
) (smt.Outcome, smt.Model, error) {
	outcome, model, err := smt.CheckWithDeadline(ctx, solver, cs, timeout)
	if err != nil {
		return smt.Unknown, nil, err
	}

	if outcome == smt.Sat {
		for _, c := range cs {
			solver.Assert(c)
		}
	}

	return outcome, model, nil
}

// ForwardInsert appends a node that consumes the alive shapes named by
// inputs and produces fresh ones (spec.md §4.4). inst must already carry
// its fresh construction symbols (search.Driver allocates them via
// Variant.New before choosing forward or backward mode). A *synerr.Sanity
// or *synerr.Constraint returned here means the attempt is rejected before
// ever reaching the solver; the graph is left untouched either way.
func (g *Graph) ForwardInsert(
	ctx context.Context,
	solver smt.Solver,
	timeout time.Duration,
	rng *rand.Rand,
	inst opset.Instance,
	inputs []AliveID,
	extra func(outputs []shape.TensorShape) []arith.Bool,
) (*InsertResult, error) {
	inputShapes := make([]shape.TensorShape, len(inputs))

	for i, id := range inputs {
		a, ok := g.alive[id]
		if !ok {
			return nil, synerr.NewSanity("ForwardInsert: unknown alive shape id %d", id)
		}

		inputShapes[i] = a.Shape
	}

	if err := inst.PostSymbolize(g.b, rng, inputShapes); err != nil {
		return nil, err
	}

	outShapes, err := inst.ShapeFn(inputShapes)
	if err != nil {
		return nil, err
	}

	reqs, err := inst.Requires(g.b, inputShapes)
	if err != nil {
		return nil, err
	}

	cs := append([]arith.Bool{}, reqs...)

	for _, os := range outShapes {
		pos, err := os.AllPositive()
		if err != nil {
			return nil, err
		}

		cs = append(cs, pos...)
	}

	if extra != nil {
		cs = append(cs, extra(outShapes)...)
	}

	outcome, _, err := assembleAndCheck(ctx, solver, timeout, cs)
	if err != nil {
		return nil, err
	}

	if outcome != smt.Sat {
		return &InsertResult{Outcome: outcome}, nil
	}

	nodeID := g.newNodeID()
	outIDs := make([]AliveID, len(outShapes))

	for i, os := range outShapes {
		id := g.newAliveID()
		outIDs[i] = id
		g.alive[id] = &shape.Alive{ID: id, Producer: nodeID, Port: i, Shape: os}
	}

	g.nodes[nodeID] = &Node{
		ID:          nodeID,
		Op:          inst,
		InputArity:  len(inputs),
		OutputArity: len(outShapes),
		InAlive:     append([]AliveID{}, inputs...),
		OutAlive:    outIDs,
	}

	return &InsertResult{Outcome: smt.Sat, NodeID: nodeID, Outputs: outIDs}, nil
}

// BackwardInsert replaces the placeholder nodes producing targets with the
// outputs of a new node whose inputs are fresh placeholders of dtypes
// (spec.md §4.4). len(targets) must equal inst.Variant().OutputArity(),
// and len(dtypes) must equal inst.Arity() (the dtype tuple the driver
// chose for this attempt, since an Instance's own Variant.InDTypes may
// list several admissible tuples).
//
// inst.Variant().Arity() == opset.VariableArity (Concat) is rejected with
// a *synerr.Sanity: growing backward from a variable-arity op would
// require the driver to also choose how many fresh placeholders to mint,
// which spec.md §4.4 does not describe and which this generator does not
// attempt.
func (g *Graph) BackwardInsert(
	ctx context.Context,
	solver smt.Solver,
	timeout time.Duration,
	rng *rand.Rand,
	inst opset.Instance,
	dtypes []dtype.DType,
	targets []AliveID,
	ranks []int,
	extra func(newPlaceholders []shape.TensorShape) []arith.Bool,
) (*InsertResult, error) {
	if inst.Variant().Arity() == opset.VariableArity {
		return nil, synerr.NewSanity("BackwardInsert: variable-arity variant %s is not supported", inst.Variant().Name())
	}

	if len(ranks) != len(dtypes) {
		return nil, synerr.NewSanity("BackwardInsert: %d ranks but %d dtypes", len(ranks), len(dtypes))
	}

	targetShapes := make([]shape.TensorShape, len(targets))

	for i, id := range targets {
		a, ok := g.alive[id]
		if !ok {
			return nil, synerr.NewSanity("BackwardInsert: unknown alive shape id %d", id)
		}

		if n, ok := g.nodes[a.Producer]; !ok || !n.IsPlaceholder {
			return nil, synerr.NewSanity("BackwardInsert: alive id %d is not an unresolved placeholder", id)
		}

		targetShapes[i] = a.Shape
	}

	newShapes := make([]shape.TensorShape, len(dtypes))

	for i, dt := range dtypes {
		rank := ranks[i]
		if rank == opset.AnyRank {
			rank = 1 + rng.Intn(4)
		}

		dims := make([]arith.Expr, rank)
		for d := range dims {
			dims[d] = g.b.NewSymbol("bw_dim")
		}

		newShapes[i] = shape.New(g.b, dims, dt)
	}

	if err := inst.PostSymbolize(g.b, rng, newShapes); err != nil {
		return nil, err
	}

	outShapes, err := inst.ShapeFn(newShapes)
	if err != nil {
		return nil, err
	}

	if len(outShapes) != len(targets) {
		return nil, synerr.NewSanity("BackwardInsert: variant %s produced %d outputs for %d targets",
			inst.Variant().Name(), len(outShapes), len(targets))
	}

	for i, os := range outShapes {
		if os.DType != targetShapes[i].DType {
			return nil, synerr.NewConstraint("BackwardInsert: %s output %d dtype %s does not match target dtype %s",
				inst.Variant().Name(), i, os.DType, targetShapes[i].DType)
		}
	}

	reqs, err := inst.Requires(g.b, newShapes)
	if err != nil {
		return nil, err
	}

	cs := append([]arith.Bool{}, reqs...)

	for _, ns := range newShapes {
		pos, err := ns.AllPositive()
		if err != nil {
			return nil, err
		}

		cs = append(cs, pos...)
	}

	for i, os := range outShapes {
		eq, err := os.EqualTo(targetShapes[i])
		if err != nil {
			return nil, err
		}

		cs = append(cs, eq...)
	}

	if extra != nil {
		cs = append(cs, extra(newShapes)...)
	}

	outcome, _, err := assembleAndCheck(ctx, solver, timeout, cs)
	if err != nil {
		return nil, err
	}

	if outcome != smt.Sat {
		return &InsertResult{Outcome: outcome}, nil
	}

	newPlaceholderIDs := make([]AliveID, len(newShapes))
	for i, ns := range newShapes {
		newPlaceholderIDs[i] = g.AddPlaceholder(ns)
	}

	nodeID := g.newNodeID()
	oldProducers := make(map[NodeID]bool, len(targets))

	for _, targetID := range targets {
		oldProducers[g.alive[targetID].Producer] = true
	}

	for i, targetID := range targets {
		// Re-target: the new op's output reuses the placeholder's own
		// alive id, so every existing consumer of that placeholder keeps
		// a valid reference without being rewritten.
		g.alive[targetID].Producer = nodeID
		g.alive[targetID].Port = i
	}

	// Remove the old placeholder nodes now that nothing references them
	// as a producer.
	for oldID := range oldProducers {
		delete(g.nodes, oldID)
	}

	g.nodes[nodeID] = &Node{
		ID:          nodeID,
		Op:          inst,
		InputArity:  len(newPlaceholderIDs),
		OutputArity: len(outShapes),
		InAlive:     newPlaceholderIDs,
		OutAlive:    append([]AliveID{}, targets...),
	}

	return &InsertResult{Outcome: smt.Sat, NodeID: nodeID, Outputs: targets}, nil
}

// Finalize converts every remaining placeholder into either an Input or a
// Constant (spec.md §4.4): at least the first placeholder becomes an
// Input, the rest are chosen randomly. After Finalize, Placeholders()
// returns empty (testable property: finalization totality).
func (g *Graph) Finalize(rng *rand.Rand) {
	phs := g.Placeholders()
	assignedInput := false

	for idx, id := range phs {
		a := g.alive[id]
		n := g.nodes[a.Producer]

		kind := "Constant"
		if idx == 0 || (!assignedInput && idx == len(phs)-1) {
			kind = "Input"
		} else if rng.Intn(2) == 0 {
			kind = "Input"
		}

		if kind == "Input" {
			assignedInput = true
		}

		n.IsPlaceholder = false
		n.TerminalKind = kind
	}
}
