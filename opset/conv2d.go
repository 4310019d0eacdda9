package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// conv2DVariant is a single-input NCHW convolution: kernel size, stride,
// output-channel count and symmetric padding are fixed attributes chosen
// at construction (input rank is always 4, so unlike Reduce/Transpose/
// Pad there is nothing to defer until the input is known).
type conv2DVariant struct {
	kernelChoices  []int
	strideChoices  []int
	outChanChoices []int
	maxPad         int
}

func (v *conv2DVariant) Name() string              { return "Conv2D" }
func (v *conv2DVariant) Arity() int                 { return 1 }
func (v *conv2DVariant) InputRanks(int) []int       { return []int{4} }
func (v *conv2DVariant) SameInputRanks() bool       { return false }
func (v *conv2DVariant) OutputArity() int           { return 1 }
func (v *conv2DVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v *conv2DVariant) New(_ *arith.Builder, rng *rand.Rand, _ int) Instance {
	return &conv2DInstance{
		v:        v,
		kernel:   v.kernelChoices[rng.Intn(len(v.kernelChoices))],
		stride:   v.strideChoices[rng.Intn(len(v.strideChoices))],
		outChans: v.outChanChoices[rng.Intn(len(v.outChanChoices))],
		pad:      rng.Intn(v.maxPad + 1),
	}
}

type conv2DInstance struct {
	NoPostSymbolize
	v                          *conv2DVariant
	kernel, stride, outChans   int
	pad                        int
}

func (i *conv2DInstance) Variant() Variant { return i.v }
func (i *conv2DInstance) Arity() int       { return 1 }
func (i *conv2DInstance) OpType() string   { return "Conv2D" }

func (i *conv2DInstance) Attrs() map[string]any {
	return map[string]any{
		"kernel": i.kernel, "stride": i.stride, "out_channels": i.outChans, "pad": i.pad,
	}
}

func (i *conv2DInstance) outSpatial(b *arith.Builder, dim arith.Expr) arith.Expr {
	padded := b.Add(dim, b.Const(int64(2*i.pad)))
	reduced := b.Sub(padded, b.Const(int64(i.kernel)))

	return b.Add(b.DivInt(reduced, b.Const(int64(i.stride))), b.Const(1))
}

func (i *conv2DInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	b := in.B

	n := in.Dims[0]
	h := i.outSpatial(b, in.Dims[2])
	w := i.outSpatial(b, in.Dims[3])

	return []shape.TensorShape{
		shape.New(b, []arith.Expr{n, b.Const(int64(i.outChans)), h, w}, in.DType),
	}, nil
}

func (i *conv2DInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	in := inputs[0]

	cs, err := in.AllPositive()
	if err != nil {
		return nil, err
	}

	for _, dim := range []arith.Expr{in.Dims[2], in.Dims[3]} {
		padded := b.Add(dim, b.Const(int64(2*i.pad)))
		cs = append(cs, b.Ge(padded, b.Const(int64(i.kernel))))
	}

	return cs, nil
}

func (i *conv2DInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{
		OpType: "Conv2D",
		Attrs:  i.Attrs(),
		Params: map[string]int64{},
	}
}

// NewConv2D returns a Conv2D variant whose kernel size, stride and
// output-channel count are drawn from the given choice sets, and whose
// symmetric padding is drawn uniformly from [0, maxPad].
func NewConv2D(kernelChoices, strideChoices, outChanChoices []int, maxPad int) Variant {
	return &conv2DVariant{
		kernelChoices:  kernelChoices,
		strideChoices:  strideChoices,
		outChanChoices: outChanChoices,
		maxPad:         maxPad,
	}
}
