package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/synerr"
)

// transposeVariant swaps two axes of its input. Like Reduce, the axis
// pair cannot be chosen until the input's rank is known, so it is picked
// in PostSymbolize.
type transposeVariant struct{}

// NewTranspose returns the Transpose variant.
func NewTranspose() Variant { return transposeVariant{} }

func (transposeVariant) Name() string              { return "Transpose" }
func (transposeVariant) Arity() int                 { return 1 }
func (transposeVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (transposeVariant) SameInputRanks() bool       { return false }
func (transposeVariant) OutputArity() int           { return 1 }
func (transposeVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v transposeVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &transposeInstance{v: v, d0: -1, d1: -1}
}

type transposeInstance struct {
	v      transposeVariant
	d0, d1 int
}

func (i *transposeInstance) Variant() Variant { return i.v }
func (i *transposeInstance) Arity() int       { return 1 }
func (i *transposeInstance) OpType() string   { return "Transpose" }

func (i *transposeInstance) Attrs() map[string]any {
	return map[string]any{"d0": i.d0, "d1": i.d1}
}

func (i *transposeInstance) PostSymbolize(_ *arith.Builder, rng *rand.Rand, inputs []shape.TensorShape) error {
	rank := inputs[0].Rank()
	if rank < 2 {
		return synerr.NewConstraint("Transpose: rank %d has fewer than two axes to swap", rank)
	}

	i.d0 = rng.Intn(rank)
	i.d1 = rng.Intn(rank)

	for i.d1 == i.d0 {
		i.d1 = rng.Intn(rank)
	}

	return nil
}

func (i *transposeInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	dims := make([]arith.Expr, len(in.Dims))
	copy(dims, in.Dims)
	dims[i.d0], dims[i.d1] = dims[i.d1], dims[i.d0]

	return []shape.TensorShape{shape.New(in.B, dims, in.DType)}, nil
}

func (i *transposeInstance) Requires(_ *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	return inputs[0].AllPositive()
}

func (i *transposeInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{
		OpType: "Transpose",
		Attrs:  map[string]any{"d0": i.d0, "d1": i.d1},
		Params: map[string]int64{},
	}
}
