// Package materialize declares the three collaborator contracts the
// generator core hands off to once a graph is concretized
// (spec.md §6): materialization/export, input-value sampling, and backend
// execution. None of the three is implemented here beyond the reference
// Materializer adapters in materialize/onnx and materialize/zmf — they
// are, by design, external to the core.
package materialize

import (
	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/symgraph"
)

// TensorValue is an opaque tensor value exchanged between the input oracle,
// a materializer's constant assignment, and a backend runner. The
// generator core never inspects its contents — it only ever produces
// shapes and dtypes, never tensor data.
type TensorValue any

// Executable is an opaque materialized model, ready for a BackendRunner.
type Executable any

// Materializer accepts a concretized graph plus a value for every node
// whose TerminalKind is "Constant" (keyed by node id) and returns an
// opaque executable model. The generator only guarantees what spec.md §6
// promises: an acyclic, topologically ordered graph, every edge's shape a
// sequence of positive integers, every dtype in the declared enumeration,
// and every node's operator variant one of the closed set in package
// opset.
type Materializer interface {
	Materialize(g *concretize.Graph, constants map[symgraph.NodeID]TensorValue) (Executable, error)
}

// InputOracle produces random input tensors for a concretized graph's
// Input nodes, keyed by node id; it reports no expected outputs —
// outside the core per spec.md §1/§6.
type InputOracle interface {
	SampleInputs(g *concretize.Graph) (map[symgraph.NodeID]TensorValue, error)
}

// BackendRunner executes a materialized model against an input assignment
// — outside the core per spec.md §1/§6.
type BackendRunner interface {
	Run(model Executable, inputs map[symgraph.NodeID]TensorValue) (map[symgraph.NodeID]TensorValue, error)
}
