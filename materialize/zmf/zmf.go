// Package zmf adapts a concretized graph into a Zerfoo Model Format
// protobuf message, ready for proto.Marshal and export to a neutral
// model file. It is grounded on model/zmf_exporter.go's
// convertModelToZMF/convertNodeToZMF/convertParameterToZMF triple,
// generalized from "serialize one trained graph.Graph[T] of typed
// layers, with real weight data" to "serialize one concretized
// symgraph.Graph of opset variants, with placeholder-only constant
// tensors" — the generator core never owns tensor values (materialize.
// TensorValue is opaque), so unlike the teacher's exporter this one
// never calls serializeTensorData; it records shape and dtype only and
// leaves the byte payload to whatever supplied the constant.
package zmf

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/materialize"
	"github.com/synthgraph/symgen/symgraph"
	"github.com/zerfoo/zmf"
)

// Materializer exports a concretize.Graph to a *zmf.Model. It implements
// materialize.Materializer with Executable bound to *zmf.Model.
type Materializer struct {
	// Version is stamped into every exported model's ZmfVersion field.
	// Empty means "1.0.0", matching the teacher exporter's default.
	Version string
}

// New returns a zmf Materializer using the default format version.
func New() *Materializer { return &Materializer{} }

var _ materialize.Materializer = (*Materializer)(nil)

func edgeName(id symgraph.NodeID, slot int) string {
	return fmt.Sprintf("node_%d_out%d", id, slot)
}

func nodeName(id symgraph.NodeID) string {
	return fmt.Sprintf("node_%d", id)
}

// Materialize walks g in the topological order concretize.Concretize
// already produced and builds a *zmf.Model: one zmf.Node per operator
// node (with its fixed attributes, n.Attrs, carried as zmf.Attribute
// values; its numeric n.Params are not exported; the same Attribute_{S,I,F,B} union the teacher's
// convertNodeToZMF switches on), one zmf.ValueInfo per Input, and one
// zmf.Tensor initializer per Constant. constants must supply a value
// for every Constant node id; Materialize records only that a value
// was supplied (shape and dtype are what populate the zmf.Tensor), not
// its contents, matching the core's non-ownership of tensor data.
func (m *Materializer) Materialize(g *concretize.Graph, constants map[symgraph.NodeID]materialize.TensorValue) (materialize.Executable, error) {
	version := m.Version
	if version == "" {
		version = "1.0.0"
	}

	model := &zmf.Model{
		ZmfVersion: version,
		Graph: &zmf.Graph{
			Parameters: map[string]*zmf.Tensor{},
		},
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
			for _, out := range outs {
				model.Graph.Inputs = append(model.Graph.Inputs, &zmf.ValueInfo{
					Name:  out,
					Shape: outputDims(n),
				})
			}

			continue
		case "Constant":
			if _, ok := constants[n.ID]; !ok {
				return nil, fmt.Errorf("zmf: no constant value supplied for node %d", n.ID)
			}

			name := nodeName(n.ID)

			dt := dtype.DType(0)
			if len(n.OutputShapes) > 0 {
				dt = n.OutputShapes[0].DType
			}

			model.Graph.Parameters[name] = &zmf.Tensor{
				Dtype: toZMFDType(dt),
				Shape: outputDims(n),
			}

			continue
		}

		zn := &zmf.Node{
			Name:   nodeName(n.ID),
			OpType: n.OpType,
		}

		slotCount := map[symgraph.NodeID]int{}

		for _, pid := range n.InputNodeIDs {
			pouts, ok := produced[pid]
			if !ok || len(pouts) == 0 {
				return nil, fmt.Errorf("zmf: node %d references producer %d before it was emitted", n.ID, pid)
			}

			slot := slotCount[pid]
			if slot >= len(pouts) {
				slot = len(pouts) - 1
			}

			zn.Inputs = append(zn.Inputs, pouts[slot])
			slotCount[pid]++
		}

		if len(n.Attrs) > 0 {
			zn.Attributes = make(map[string]*zmf.Attribute, len(n.Attrs))
			for k, v := range n.Attrs {
				zn.Attributes[k] = toZMFAttribute(v)
			}
		}

		model.Graph.Nodes = append(model.Graph.Nodes, zn)
	}

	if len(g.Nodes) > 0 {
		last := g.Nodes[len(g.Nodes)-1]
		for _, out := range produced[last.ID] {
			model.Graph.Outputs = append(model.Graph.Outputs, &zmf.ValueInfo{
				Name:  out,
				Shape: outputDims(last),
			})
		}
	}

	return model, nil
}

func outputDims(n concretize.Node) []int64 {
	if len(n.OutputShapes) == 0 {
		return nil
	}

	return n.OutputShapes[0].Dims
}

// toZMFDType mirrors the teacher's getZMFDataType, generalized from a Go
// generic type parameter's runtime type switch to our closed dtype.DType
// enumeration.
func toZMFDType(d dtype.DType) zmf.Tensor_DataType {
	switch d {
	case dtype.Int32:
		return zmf.Tensor_INT32
	case dtype.Int64:
		return zmf.Tensor_INT64
	case dtype.Float32:
		return zmf.Tensor_FLOAT32
	case dtype.Float64:
		return zmf.Tensor_FLOAT64
	default:
		// Bool, Float16, Float8 have no dedicated zmf wire type; fall
		// back to FLOAT32 as the teacher's exporter does for any
		// unrecognized element type.
		return zmf.Tensor_FLOAT32
	}
}

// toZMFAttribute mirrors the teacher's convertNodeToZMF attribute switch.
func toZMFAttribute(v any) *zmf.Attribute {
	attr := &zmf.Attribute{}

	switch x := v.(type) {
	case string:
		attr.Value = &zmf.Attribute_S{S: x}
	case int:
		attr.Value = &zmf.Attribute_I{I: int64(x)}
	case int64:
		attr.Value = &zmf.Attribute_I{I: x}
	case float32:
		attr.Value = &zmf.Attribute_F{F: x}
	case float64:
		attr.Value = &zmf.Attribute_F{F: float32(x)}
	case bool:
		attr.Value = &zmf.Attribute_B{B: x}
	default:
		attr.Value = &zmf.Attribute_S{S: fmt.Sprintf("%v", v)}
	}

	return attr
}

// Marshal serializes model to its ZMF wire format, the step the teacher's
// ZMFExporter.Export performs before writing to a file (file I/O itself
// is out of scope per spec.md §1's "export to neutral model formats").
func Marshal(model *zmf.Model) ([]byte, error) {
	data, err := proto.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("zmf: marshal model: %w", err)
	}

	return data, nil
}
