package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/synerr"
)

// concatVariant joins arity inputs along one axis. Arity is chosen by the
// caller (the search driver), not by the variant, since Concat is this
// operator family's only variable-arity member.
type concatVariant struct{}

// NewConcat returns the Concat variant.
func NewConcat() Variant { return concatVariant{} }

func (concatVariant) Name() string                 { return "Concat" }
func (concatVariant) Arity() int                    { return VariableArity }
func (concatVariant) InputRanks(arity int) []int {
	ranks := make([]int, arity)
	for i := range ranks {
		ranks[i] = AnyRank
	}

	return ranks
}
func (concatVariant) SameInputRanks() bool       { return true }
func (concatVariant) OutputArity() int           { return 1 }
func (concatVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v concatVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &concatInstance{v: v, axis: -1}
}

type concatInstance struct {
	v    concatVariant
	axis int
}

func (i *concatInstance) Variant() Variant { return i.v }
func (i *concatInstance) Arity() int       { return VariableArity }
func (i *concatInstance) OpType() string   { return "Concat" }

func (i *concatInstance) Attrs() map[string]any {
	return map[string]any{"axis": i.axis}
}

func (i *concatInstance) PostSymbolize(_ *arith.Builder, rng *rand.Rand, inputs []shape.TensorShape) error {
	rank := inputs[0].Rank()
	if rank == 0 {
		return synerr.NewConstraint("Concat: cannot concatenate rank-0 tensors")
	}

	i.axis = rng.Intn(rank)

	return nil
}

func (i *concatInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	b := inputs[0].B

	dims := make([]arith.Expr, len(inputs[0].Dims))
	copy(dims, inputs[0].Dims)

	total := dims[i.axis]
	for _, in := range inputs[1:] {
		total = b.Add(total, in.Dims[i.axis])
	}

	dims[i.axis] = total

	return []shape.TensorShape{shape.New(b, dims, inputs[0].DType)}, nil
}

func (i *concatInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	if i.axis < 0 || i.axis >= inputs[0].Rank() {
		return nil, synerr.NewSanity("Concat: axis %d out of range for rank %d", i.axis, inputs[0].Rank())
	}

	var cs []arith.Bool

	for idx, in := range inputs {
		pos, err := in.AllPositive()
		if err != nil {
			return nil, err
		}

		cs = append(cs, pos...)

		if in.Rank() != inputs[0].Rank() {
			return nil, errRankMismatch("Concat", inputs[0].Rank(), in.Rank())
		}

		if in.DType != inputs[0].DType {
			return nil, errDTypeMismatch("Concat", inputs[0].DType, in.DType)
		}

		if idx == 0 {
			continue
		}

		for axis := range in.Dims {
			if axis == i.axis {
				continue
			}

			cs = append(cs, b.Eq(in.Dims[axis], inputs[0].Dims[axis]))
		}
	}

	return cs, nil
}

func (i *concatInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{
		OpType: "Concat",
		Attrs:  map[string]any{"axis": i.axis},
		Params: map[string]int64{},
	}
}
