package opset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/dtype"
)

func TestInferNullaryIsEmptyTuple(t *testing.T) {
	tuples := Infer(NewConstant(4, dtype.All()), 0)
	assert.Equal(t, []dtype.Tuple{{}}, tuples)
}

func TestInferReshapeAcceptsEveryNonBoolDType(t *testing.T) {
	v := NewReshape(4)
	require.Nil(t, v.InDTypes(1), "Reshape must request inference, not declare tuples directly")

	tuples := Infer(v, 1)
	require.NotEmpty(t, tuples)

	seen := map[dtype.DType]bool{}
	for _, tup := range tuples {
		require.Len(t, tup, 1)
		seen[tup[0]] = true
	}

	for _, d := range dtype.NonBool() {
		assert.True(t, seen[d], "Reshape should admit %s", d)
	}

	assert.False(t, seen[dtype.Bool], "Reshape's dtype-agnostic ShapeFn still only ranges over NonBool in Infer's probe set")
}

func TestInferConcatAdmitsPairTuples(t *testing.T) {
	v := NewConcat()
	tuples := Infer(v, 2)
	assert.NotEmpty(t, tuples)

	for _, tup := range tuples {
		assert.Len(t, tup, 2)
	}
}

func TestInferIsDeterministicAcrossCalls(t *testing.T) {
	v := NewTranspose()
	first := Infer(v, 1)
	second := Infer(v, 1)
	assert.Equal(t, first, second, "Infer must be deterministic across repeated calls for the same variant/arity")
}
