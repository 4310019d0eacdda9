package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/synerr"
)

// sliceVariant extracts a contiguous (strided) region of one axis:
// start/end are fresh symbolic construction parameters, step is a small
// fixed attribute, and axis is deferred to PostSymbolize like Reduce and
// Transpose.
type sliceVariant struct {
	maxStep int
}

func (v *sliceVariant) Name() string              { return "Slice" }
func (v *sliceVariant) Arity() int                 { return 1 }
func (v *sliceVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (v *sliceVariant) SameInputRanks() bool       { return false }
func (v *sliceVariant) OutputArity() int           { return 1 }
func (v *sliceVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v *sliceVariant) New(b *arith.Builder, rng *rand.Rand, _ int) Instance {
	step := 1 + rng.Intn(v.maxStep)

	return &sliceInstance{
		v:     v,
		start: b.NewSymbol("slice_start"),
		end:   b.NewSymbol("slice_end"),
		step:  step,
		axis:  -1,
	}
}

type sliceInstance struct {
	v          *sliceVariant
	start, end arith.Expr
	step       int
	axis       int
}

func (i *sliceInstance) Variant() Variant { return i.v }
func (i *sliceInstance) Arity() int       { return 1 }
func (i *sliceInstance) OpType() string   { return "Slice" }

func (i *sliceInstance) Attrs() map[string]any {
	return map[string]any{"axis": i.axis, "step": i.step}
}

func (i *sliceInstance) PostSymbolize(_ *arith.Builder, rng *rand.Rand, inputs []shape.TensorShape) error {
	rank := inputs[0].Rank()
	if rank == 0 {
		return synerr.NewConstraint("Slice: cannot slice a rank-0 tensor")
	}

	i.axis = rng.Intn(rank)

	return nil
}

func (i *sliceInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	b := in.B

	dims := make([]arith.Expr, len(in.Dims))
	copy(dims, in.Dims)

	span := b.Sub(i.end, i.start)
	count := b.DivInt(b.Add(span, b.Const(int64(i.step-1))), b.Const(int64(i.step)))
	dims[i.axis] = count

	return []shape.TensorShape{shape.New(b, dims, in.DType)}, nil
}

func (i *sliceInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	in := inputs[0]

	cs, err := in.AllPositive()
	if err != nil {
		return nil, err
	}

	axisDim := in.Dims[i.axis]

	cs = append(cs,
		b.Ge(i.start, b.Const(0)),
		b.Gt(i.end, i.start),
		b.Le(i.end, axisDim),
	)

	return cs, nil
}

func (i *sliceInstance) Concretize(env map[string]int64) ConcreteOp {
	start, ok1 := i.start.Eval(env)
	end, ok2 := i.end.Eval(env)

	if !ok1 || !ok2 {
		panic("opset: Slice concretized with an unresolved start/end symbol")
	}

	return ConcreteOp{
		OpType: "Slice",
		Attrs:  map[string]any{"axis": i.axis, "step": i.step},
		Params: map[string]int64{"start": start, "end": end},
	}
}

// NewSlice returns a Slice variant whose stride is chosen uniformly from
// [1, maxStep].
func NewSlice(maxStep int) Variant {
	if maxStep < 1 {
		maxStep = 1
	}

	return &sliceVariant{maxStep: maxStep}
}
