package opset

import (
	"fmt"
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// padVariant widens every axis by a (before, after) pair. Unlike Slice's
// start/end, the number of symbols needed depends on the input's rank,
// which is unknown at New time, so Pad allocates its per-axis symbols in
// PostSymbolize instead — the one variant that allocates symbols there.
type padVariant struct{}

// NewPad returns the Pad variant.
func NewPad() Variant { return padVariant{} }

func (padVariant) Name() string              { return "Pad" }
func (padVariant) Arity() int                 { return 1 }
func (padVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (padVariant) SameInputRanks() bool       { return false }
func (padVariant) OutputArity() int           { return 1 }
func (padVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v padVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &padInstance{v: v}
}

type padInstance struct {
	v             padVariant
	before, after []arith.Expr
}

func (i *padInstance) Variant() Variant { return i.v }
func (i *padInstance) Arity() int       { return 1 }
func (i *padInstance) OpType() string   { return "Pad" }

func (i *padInstance) Attrs() map[string]any {
	return map[string]any{"rank": len(i.before)}
}

func (i *padInstance) PostSymbolize(b *arith.Builder, _ *rand.Rand, inputs []shape.TensorShape) error {
	rank := inputs[0].Rank()

	i.before = make([]arith.Expr, rank)
	i.after = make([]arith.Expr, rank)

	for axis := 0; axis < rank; axis++ {
		i.before[axis] = b.NewSymbol(fmt.Sprintf("pad_before%d", axis))
		i.after[axis] = b.NewSymbol(fmt.Sprintf("pad_after%d", axis))
	}

	return nil
}

func (i *padInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	b := in.B

	dims := make([]arith.Expr, in.Rank())
	for axis, d := range in.Dims {
		dims[axis] = b.Add(b.Add(i.before[axis], d), i.after[axis])
	}

	return []shape.TensorShape{shape.New(b, dims, in.DType)}, nil
}

func (i *padInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	cs, err := inputs[0].AllPositive()
	if err != nil {
		return nil, err
	}

	for axis := range i.before {
		cs = append(cs, b.Ge(i.before[axis], b.Const(0)), b.Ge(i.after[axis], b.Const(0)))
	}

	return cs, nil
}

func (i *padInstance) Concretize(env map[string]int64) ConcreteOp {
	before := make([]int64, len(i.before))
	after := make([]int64, len(i.after))

	for axis := range i.before {
		v, ok := i.before[axis].Eval(env)
		if !ok {
			panic("opset: Pad concretized with an unresolved before-width symbol")
		}

		before[axis] = v

		v, ok = i.after[axis].Eval(env)
		if !ok {
			panic("opset: Pad concretized with an unresolved after-width symbol")
		}

		after[axis] = v
	}

	return ConcreteOp{
		OpType: "Pad",
		Attrs:  map[string]any{"before": before, "after": after},
		Params: map[string]int64{},
	}
}
