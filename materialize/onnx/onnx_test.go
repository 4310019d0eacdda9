package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/materialize"
	"github.com/synthgraph/symgen/symgraph"
)

func TestMaterializeLinearChain(t *testing.T) {
	g := &concretize.Graph{
		Nodes: []concretize.Node{
			{ID: 0, TerminalKind: "Input", OutputShapes: []concretize.Shape{{Dims: []int64{2, 3}, DType: dtype.Float32}}},
			{
				ID:           1,
				OpType:       "ReLU",
				Attrs:        map[string]any{},
				InputNodeIDs: []symgraph.NodeID{0},
				InputShapes:  []concretize.Shape{{Dims: []int64{2, 3}, DType: dtype.Float32}},
				OutputShapes: []concretize.Shape{{Dims: []int64{2, 3}, DType: dtype.Float32}},
			},
		},
	}

	m := New()

	out, err := m.Materialize(g, nil)
	require.NoError(t, err)

	model := out.(*Model)
	require.Len(t, model.Nodes, 1)
	assert.Equal(t, "ReLU", model.Nodes[0].OpType)
	assert.Equal(t, []string{"n0_out0"}, model.Nodes[0].Inputs)
	assert.Equal(t, []string{"n1_out0"}, model.Nodes[0].Outputs)

	assert.Equal(t, []string{"n0_out0"}, model.Inputs)
	assert.Equal(t, []string{"n1_out0"}, model.Outputs)
	assert.Empty(t, model.Initializers)
}

func TestMaterializeConstantBecomesInitializer(t *testing.T) {
	g := &concretize.Graph{
		Nodes: []concretize.Node{
			{ID: 5, TerminalKind: "Constant", OutputShapes: []concretize.Shape{{Dims: []int64{4}, DType: dtype.Float32}}},
		},
	}

	_, err := New().Materialize(g, nil)
	assert.Error(t, err, "a Constant node with no supplied value must fail")

	out, err := New().Materialize(g, map[symgraph.NodeID]materialize.TensorValue{5: []float32{1, 2, 3, 4}})
	require.NoError(t, err)

	model := out.(*Model)
	require.Len(t, model.Initializers, 1)
	assert.Equal(t, "n5_out0", model.Initializers[0].Name)
	assert.Equal(t, []int64{4}, model.Initializers[0].Shape)
	assert.Empty(t, model.Nodes)
}

func TestMaterializeDuplicateInputSlotReferencesSameEdgeTwice(t *testing.T) {
	g := &concretize.Graph{
		Nodes: []concretize.Node{
			{ID: 0, TerminalKind: "Input", OutputShapes: []concretize.Shape{{Dims: []int64{2}, DType: dtype.Float32}}},
			{
				ID:           1,
				OpType:       "Add",
				Attrs:        map[string]any{},
				InputNodeIDs: []symgraph.NodeID{0, 0},
				InputShapes: []concretize.Shape{
					{Dims: []int64{2}, DType: dtype.Float32},
					{Dims: []int64{2}, DType: dtype.Float32},
				},
				OutputShapes: []concretize.Shape{{Dims: []int64{2}, DType: dtype.Float32}},
			},
		},
	}

	out, err := New().Materialize(g, nil)
	require.NoError(t, err)

	model := out.(*Model)
	require.Len(t, model.Nodes, 1)
	assert.Equal(t, []string{"n0_out0", "n0_out0"}, model.Nodes[0].Inputs)
}
