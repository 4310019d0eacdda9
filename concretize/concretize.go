// Package concretize turns a finished symgraph.Graph plus the solver's
// final model into a fully numeric graph: every dimension expression and
// every operator's symbolic construction parameter is evaluated against
// the model, nodes are ordered topologically, and placeholders are
// reported as Input or Constant per symgraph.Finalize's assignment. It
// never talks to the solver itself — that boundary belongs to search.Driver
// — and it performs no numeric tensor math, matching the operator algebra's
// own shape-only scope.
//
// Topological ordering is delegated to katalvlaran/lvlath's dfs.TopologicalSort
// (see DESIGN.md): symgraph's producer/consumer edges already form the DAG
// that algorithm expects, and its White/Gray/Black cycle detection replaces
// what would otherwise be a hand-rolled recursion-stack DFS.
package concretize

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"

	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/smt"
	"github.com/synthgraph/symgen/symgraph"
	"github.com/synthgraph/symgen/synerr"
)

// Shape is a fully numeric tensor descriptor.
type Shape struct {
	Dims  []int64
	DType dtype.DType
}

// Node is one concretized graph node. For a terminal (Input or Constant)
// node OpType equals TerminalKind and Attrs/Params are empty; TerminalKind
// is "" for an ordinary operator node.
type Node struct {
	ID           symgraph.NodeID
	OpType       string
	Attrs        map[string]any
	Params       map[string]int64
	InputNodeIDs []symgraph.NodeID // one entry per input slot, in order; duplicates allowed
	InputShapes  []Shape
	OutputShapes []Shape
	TerminalKind string // "Input" or "Constant"; empty for an operator node
}

// Graph is the concretized result, nodes already in topological order.
type Graph struct {
	Nodes []Node
}

// Concretize evaluates every shape and construction parameter in g against
// model's assignment and returns a topologically sorted concrete graph. A
// dimension or parameter whose symbol the model leaves unassigned is a
// *synerr.Sanity: it means the graph was accepted by a sat check whose
// model should have resolved every symbol the graph references.
func Concretize(g *symgraph.Graph, model smt.Model) (*Graph, error) {
	env := model.Assignment()

	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(order))

	for _, id := range order {
		n, _ := g.Node(id)

		cn := Node{ID: id, InputNodeIDs: inputProducerIDs(g, n)}

		if !n.IsPlaceholder && n.TerminalKind == "" {
			inputShapes, err := concreteShapes(g, n.InAlive, env)
			if err != nil {
				return nil, err
			}

			outputShapes, err := concreteShapes(g, n.OutAlive, env)
			if err != nil {
				return nil, err
			}

			op := n.Op.Concretize(env)

			cn.OpType = op.OpType
			cn.Attrs = op.Attrs
			cn.Params = op.Params
			cn.InputShapes = inputShapes
			cn.OutputShapes = outputShapes
		} else {
			// A finalized terminal: either still IsPlaceholder==false with
			// TerminalKind set (the ordinary case) or, for the seed
			// placeholder should Finalize somehow be skipped, treated the
			// same way defensively.
			outputShapes, err := concreteShapes(g, n.OutAlive, env)
			if err != nil {
				return nil, err
			}

			cn.OpType = n.TerminalKind
			cn.TerminalKind = n.TerminalKind
			cn.Attrs = map[string]any{}
			cn.Params = map[string]int64{}
			cn.OutputShapes = outputShapes
		}

		nodes = append(nodes, cn)
	}

	return &Graph{Nodes: nodes}, nil
}

func concreteShapes(g *symgraph.Graph, ids []symgraph.AliveID, env map[string]int64) ([]Shape, error) {
	out := make([]Shape, len(ids))

	for i, id := range ids {
		a, ok := g.Alive(id)
		if !ok {
			return nil, synerr.NewSanity("concretize: unknown alive shape id %d", id)
		}

		dims := make([]int64, a.Shape.Rank())

		for j, d := range a.Shape.Dims {
			v, ok := d.Eval(env)
			if !ok {
				return nil, synerr.NewSanity("concretize: dimension %d of alive shape %d has no model assignment", j, id)
			}

			if v < 1 {
				return nil, synerr.NewSanity("concretize: alive shape %d dimension %d evaluated to %d, not positive", id, j, v)
			}

			dims[j] = v
		}

		out[i] = Shape{Dims: dims, DType: a.Shape.DType}
	}

	return out, nil
}

// inputProducerIDs returns one producer node id per input slot, in order,
// with duplicates preserved (an op consuming the same alive shape twice
// yields the same id twice) — what a materializer needs to wire edges.
func inputProducerIDs(g *symgraph.Graph, n *symgraph.Node) []symgraph.NodeID {
	out := make([]symgraph.NodeID, 0, len(n.InAlive))

	for _, id := range n.InAlive {
		a, ok := g.Alive(id)
		if !ok {
			continue
		}

		out = append(out, a.Producer)
	}

	return out
}

// producerIDs returns the deduplicated set of producer node ids, used only
// for topological-sort dependency walking.
func producerIDs(g *symgraph.Graph, n *symgraph.Node) []symgraph.NodeID {
	seen := map[symgraph.NodeID]bool{}

	var out []symgraph.NodeID

	for _, id := range inputProducerIDs(g, n) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}

// topoSort orders every node in g (placeholders included — by the time
// Concretize is called, Finalize has already converted them all to
// terminals, but topoSort itself does not depend on that) so every node
// appears after each of its producers.
//
// symgraph addresses nodes by numeric NodeID while lvlath's core.Graph keys
// vertices by string; there is no way around a conversion at this boundary,
// so each NodeID is rendered with strconv.Itoa on the way in and parsed back
// with strconv.Atoi on the way out. The vertex set itself is still built from
// AliveShapes (Graph exposes no raw node-id list), and the edge set is the
// same deduplicated producer set producerIDs already computes.
func topoSort(g *symgraph.Graph) ([]symgraph.NodeID, error) {
	var ids []symgraph.NodeID

	seenNode := map[symgraph.NodeID]bool{}

	for _, a := range g.AliveShapes() {
		if !seenNode[a.Producer] {
			seenNode[a.Producer] = true
			ids = append(ids, a.Producer)
		}
	}

	lg := core.NewGraph(core.WithDirected(true))

	for _, id := range ids {
		if err := lg.AddVertex(strconv.Itoa(int(id))); err != nil {
			return nil, synerr.NewSanity("concretize: building topo-sort graph: %v", err)
		}
	}

	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			return nil, synerr.NewSanity("concretize: unknown node id %d", id)
		}

		for _, depID := range producerIDs(g, n) {
			// producer -> consumer: depID must be ordered before id.
			if _, err := lg.AddEdge(strconv.Itoa(int(depID)), strconv.Itoa(int(id)), 0); err != nil {
				return nil, synerr.NewSanity("concretize: building topo-sort graph: %v", err)
			}
		}
	}

	sorted, err := dfs.TopologicalSort(lg)
	if err != nil {
		if errors.Is(err, dfs.ErrCycleDetected) {
			return nil, synerr.NewSanity("concretize: cycle detected while ordering nodes")
		}

		return nil, synerr.NewSanity("concretize: topological sort: %v", err)
	}

	order := make([]symgraph.NodeID, len(sorted))

	for i, s := range sorted {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, synerr.NewSanity("concretize: non-numeric vertex id %q from topo sort", s)
		}

		order[i] = symgraph.NodeID(v)
	}

	return order, nil
}

// String renders a Shape as "[d0 d1 ...]:dtype", for debug output and the
// reference materializer.
func (s Shape) String() string {
	return fmt.Sprintf("%v:%v", s.Dims, s.DType)
}
