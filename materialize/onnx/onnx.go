// Package onnx adapts a concretized graph into an illustrative ONNX-shaped
// Model: one Node per operator, one graph input per Input terminal, one
// Initializer per Constant terminal. It is grounded on
// pkg/onnx/exporter.go's Node/Initializer/Model triple, generalized from
// that exporter's single hand-built Dense layer to an arbitrary
// concretize.Graph of any size and operator mix.
package onnx

import (
	"fmt"

	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/materialize"
	"github.com/synthgraph/symgen/symgraph"
)

// Node is a simplified ONNX node: an operator plus the edge names it
// consumes and produces.
type Node struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes map[string]any
}

// Initializer is a simplified ONNX initializer: a named constant tensor,
// described by shape only (its data is supplied separately by whatever
// populates the constants map passed to Materialize).
type Initializer struct {
	Name  string
	Shape []int64
}

// Model is a simplified ONNX model: a flat node list plus the graph's
// declared inputs, outputs, and initializers.
type Model struct {
	GraphName    string
	Inputs       []string
	Outputs      []string
	Nodes        []Node
	Initializers []Initializer
}

// Materializer exports a concretize.Graph to Model. It implements
// materialize.Materializer with Executable bound to *Model.
type Materializer struct{}

// New returns an onnx Materializer.
func New() *Materializer { return &Materializer{} }

var _ materialize.Materializer = (*Materializer)(nil)

func edgeName(id symgraph.NodeID, slot int) string {
	return fmt.Sprintf("n%d_out%d", id, slot)
}

func nodeName(id symgraph.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

// Materialize walks g in the topological order Concretize already produced
// and emits one Node per operator node, one graph input per Input
// terminal, and one Initializer per Constant terminal. constants supplies
// a concrete value for every Constant node id; Materialize only records
// that a value was supplied; it never inspects the value, matching the
// generator core's own non-ownership of tensor data.
func (m *Materializer) Materialize(g *concretize.Graph, constants map[symgraph.NodeID]materialize.TensorValue) (materialize.Executable, error) {
	model := &Model{
		GraphName:    "symgen_model",
		Nodes:        make([]Node, 0, len(g.Nodes)),
		Initializers: []Initializer{},
	}

	produced := map[symgraph.NodeID][]string{}

	for _, n := range g.Nodes {
		outs := make([]string, len(n.OutputShapes))
		for i := range n.OutputShapes {
			outs[i] = edgeName(n.ID, i)
		}
		produced[n.ID] = outs

		switch n.TerminalKind {
		case "Input":
			model.Inputs = append(model.Inputs, outs...)
			continue
		case "Constant":
			if _, ok := constants[n.ID]; !ok {
				return nil, fmt.Errorf("onnx: no constant value supplied for node %d", n.ID)
			}

			shape := make([]int64, 0)
			if len(n.OutputShapes) > 0 {
				shape = n.OutputShapes[0].Dims
			}

			model.Initializers = append(model.Initializers, Initializer{
				Name:  outs[0],
				Shape: shape,
			})

			continue
		}

		ins := make([]string, 0, len(n.InputNodeIDs))

		slotCount := map[symgraph.NodeID]int{}

		for _, pid := range n.InputNodeIDs {
			pouts, ok := produced[pid]
			if !ok || len(pouts) == 0 {
				return nil, fmt.Errorf("onnx: node %d references producer %d before it was emitted", n.ID, pid)
			}

			slot := slotCount[pid]
			if slot >= len(pouts) {
				slot = len(pouts) - 1
			}

			ins = append(ins, pouts[slot])
			slotCount[pid]++
		}

		attrs := make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			attrs[k] = v
		}

		model.Nodes = append(model.Nodes, Node{
			Name:       nodeName(n.ID),
			OpType:     n.OpType,
			Inputs:     ins,
			Outputs:    outs,
			Attributes: attrs,
		})
	}

	if len(g.Nodes) > 0 {
		last := g.Nodes[len(g.Nodes)-1]
		if outs, ok := produced[last.ID]; ok {
			model.Outputs = append(model.Outputs, outs...)
		}
	}

	return model, nil
}
