package opset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

func TestExpandWithinRankReplacesTargetAxis(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	rng := rand.New(rand.NewSource(1))

	v := &expandVariant{maxK: 1}
	inst := v.New(b, rng, 1).(*expandInstance)
	inst.k = 2 // axis rank-2 of a rank-3 input

	in := concreteShape(b, dtype.Float32, 4, 1, 8)

	out, err := inst.ShapeFn([]shape.TensorShape{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Dims, 3)
	assert.Equal(t, in.Dims[0], out[0].Dims[0])
	assert.Equal(t, inst.n, out[0].Dims[1])
	assert.Equal(t, in.Dims[2], out[0].Dims[2])

	cs, err := inst.Requires(b, []shape.TensorShape{in})
	require.NoError(t, err)
	assert.NotEmpty(t, cs)
}

func TestExpandBeyondRankPrependsNAndOnes(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	rng := rand.New(rand.NewSource(1))

	v := &expandVariant{maxK: 1}
	inst := v.New(b, rng, 1).(*expandInstance)
	inst.k = 4 // exceeds the rank-2 input's axis range

	in := concreteShape(b, dtype.Float32, 3, 5)

	out, err := inst.ShapeFn([]shape.TensorShape{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Dims, 4)

	assert.Equal(t, inst.n, out[0].Dims[0])

	one, ok := out[0].Dims[1].Concrete()
	require.True(t, ok)
	assert.Equal(t, int64(1), one)

	assert.Equal(t, in.Dims[0], out[0].Dims[2])
	assert.Equal(t, in.Dims[1], out[0].Dims[3])
}

func TestExpandConcretizeResolvesN(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	rng := rand.New(rand.NewSource(1))

	v := NewExpand(2)
	inst := v.New(b, rng, 1).(*expandInstance)

	_, ok := inst.n.Concrete()
	assert.False(t, ok, "n should be symbolic, not concrete, at construction")

	name, ok := inst.n.IsSymbol()
	require.True(t, ok)

	op := inst.Concretize(map[string]int64{name: 7})
	assert.Equal(t, "Expand", op.OpType)
	assert.Equal(t, int64(7), op.Params["n"])
}
