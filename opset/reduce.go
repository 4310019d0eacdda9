package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/synerr"
)

// reduceVariant collapses one axis of its input. The axis itself is a
// fixed (non-symbolic) attribute, but it cannot be chosen until the
// input's rank is known, so it is picked in PostSymbolize rather than
// New — the same reason Pad defers its per-side widths.
type reduceVariant struct {
	name      string
	dtypes    []dtype.Tuple
	outType   dtype.DType // zero value means "same as input"
	isSqueeze bool        // Squeeze requires the chosen axis to have size 1
}

func (v *reduceVariant) Name() string              { return v.name }
func (v *reduceVariant) Arity() int                 { return 1 }
func (v *reduceVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (v *reduceVariant) SameInputRanks() bool       { return false }
func (v *reduceVariant) OutputArity() int           { return 1 }
func (v *reduceVariant) InDTypes(int) []dtype.Tuple { return v.dtypes }

func (v *reduceVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &reduceInstance{v: v, axis: -1}
}

type reduceInstance struct {
	v    *reduceVariant
	axis int
}

func (i *reduceInstance) Variant() Variant { return i.v }
func (i *reduceInstance) Arity() int       { return 1 }
func (i *reduceInstance) OpType() string   { return i.v.name }

func (i *reduceInstance) Attrs() map[string]any {
	return map[string]any{"axis": i.axis}
}

func (i *reduceInstance) PostSymbolize(_ *arith.Builder, rng *rand.Rand, inputs []shape.TensorShape) error {
	rank := inputs[0].Rank()
	if rank == 0 {
		return synerr.NewConstraint("%s: cannot reduce a rank-0 tensor", i.v.name)
	}

	i.axis = rng.Intn(rank)

	return nil
}

func (i *reduceInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	out := make([]arith.Expr, 0, in.Rank()-1)

	for axis, d := range in.Dims {
		if axis == i.axis {
			continue
		}

		out = append(out, d)
	}

	dt := in.DType
	if i.v.outType != 0 {
		dt = i.v.outType
	}

	return []shape.TensorShape{shape.New(in.B, out, dt)}, nil
}

func (i *reduceInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	in := inputs[0]

	if i.axis < 0 || i.axis >= in.Rank() {
		return nil, synerr.NewSanity("%s: axis %d out of range for rank %d", i.v.name, i.axis, in.Rank())
	}

	cs, err := in.AllPositive()
	if err != nil {
		return nil, err
	}

	if i.v.isSqueeze {
		cs = append(cs, b.Eq(in.Dims[i.axis], b.Const(1)))
	}

	return cs, nil
}

func (i *reduceInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{
		OpType: i.v.name,
		Attrs:  map[string]any{"axis": i.axis},
		Params: map[string]int64{},
	}
}

// StandardReduce returns the closed family of reduction variants: Sum,
// Max, Min and ArgMin/ArgMax over any non-bool dtype, Mean restricted to
// floats (it cannot be expressed over integers without rounding
// semantics this generator does not model), and Squeeze, which behaves
// like any other axis-collapsing reduction except it additionally
// requires the collapsed axis to already be size 1.
func StandardReduce() []Variant {
	numericTup := func() []dtype.Tuple {
		var ts []dtype.Tuple
		for _, d := range dtype.NonBool() {
			ts = append(ts, dtype.Tuple{d})
		}

		return ts
	}()

	floatTup := func() []dtype.Tuple {
		var ts []dtype.Tuple
		for _, d := range dtype.Floats() {
			ts = append(ts, dtype.Tuple{d})
		}

		return ts
	}()

	return []Variant{
		&reduceVariant{name: "Sum", dtypes: numericTup},
		&reduceVariant{name: "Max", dtypes: numericTup},
		&reduceVariant{name: "Min", dtypes: numericTup},
		&reduceVariant{name: "Mean", dtypes: floatTup},
		&reduceVariant{name: "ArgMin", dtypes: numericTup, outType: dtype.Int64},
		&reduceVariant{name: "ArgMax", dtypes: numericTup, outType: dtype.Int64},
		&reduceVariant{name: "Squeeze", dtypes: numericTup, isSqueeze: true},
	}
}
