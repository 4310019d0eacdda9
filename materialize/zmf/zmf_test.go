package zmf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/materialize"
	"github.com/synthgraph/symgen/symgraph"
	"github.com/zerfoo/zmf"
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

	out, err := New().Materialize(g, nil)
	require.NoError(t, err)

	model := out.(*zmf.Model)
	assert.Equal(t, "1.0.0", model.ZmfVersion)
	require.Len(t, model.Graph.Nodes, 1)
	assert.Equal(t, "ReLU", model.Graph.Nodes[0].OpType)
	assert.Equal(t, []string{"node_0_out0"}, model.Graph.Nodes[0].Inputs)

	require.Len(t, model.Graph.Inputs, 1)
	assert.Equal(t, "node_0_out0", model.Graph.Inputs[0].Name)
	assert.Equal(t, []int64{2, 3}, model.Graph.Inputs[0].Shape)

	require.Len(t, model.Graph.Outputs, 1)
	assert.Equal(t, "node_1_out0", model.Graph.Outputs[0].Name)
}

func TestMaterializeConstantBecomesParameter(t *testing.T) {
	g := &concretize.Graph{
		Nodes: []concretize.Node{
			{ID: 5, TerminalKind: "Constant", OutputShapes: []concretize.Shape{{Dims: []int64{4}, DType: dtype.Int64}}},
		},
	}

	_, err := New().Materialize(g, nil)
	assert.Error(t, err, "a Constant node with no supplied value must fail")

	out, err := New().Materialize(g, map[symgraph.NodeID]materialize.TensorValue{5: []int64{1, 2, 3, 4}})
	require.NoError(t, err)

	model := out.(*zmf.Model)
	require.Len(t, model.Graph.Parameters, 1)
	param := model.Graph.Parameters["node_5"]
	require.NotNil(t, param)
	assert.Equal(t, zmf.Tensor_INT64, param.Dtype)
	assert.Equal(t, []int64{4}, param.Shape)
}

func TestMaterializeProducesMarshalableModel(t *testing.T) {
	g := &concretize.Graph{
		Nodes: []concretize.Node{
			{ID: 0, TerminalKind: "Input", OutputShapes: []concretize.Shape{{Dims: []int64{1}, DType: dtype.Float32}}},
			{
				ID:           1,
				OpType:       "ReLU",
				Attrs:        map[string]any{"mode": "approx"},
				InputNodeIDs: []symgraph.NodeID{0},
				OutputShapes: []concretize.Shape{{Dims: []int64{1}, DType: dtype.Float32}},
			},
		},
	}

	out, err := New().Materialize(g, nil)
	require.NoError(t, err)

	model := out.(*zmf.Model)
	attr := model.Graph.Nodes[0].Attributes["mode"]
	require.NotNil(t, attr)
	assert.Equal(t, "approx", attr.GetS())

	data, err := Marshal(model)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var roundTrip zmf.Model
	require.NoError(t, proto.Unmarshal(data, &roundTrip))
	assert.Equal(t, model.ZmfVersion, roundTrip.ZmfVersion)
}
