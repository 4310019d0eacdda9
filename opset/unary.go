package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// unaryVariant is one elementwise unary operator: output shape equals
// input shape exactly, no extra construction parameters, no extra
// constraints beyond dtype/rank admissibility.
type unaryVariant struct {
	name    string
	dtypes  []dtype.Tuple
	outType func(dtype.DType) dtype.DType // nil means "same as input"
}

func (v *unaryVariant) Name() string                 { return v.name }
func (v *unaryVariant) Arity() int                    { return 1 }
func (v *unaryVariant) InputRanks(int) []int          { return []int{AnyRank} }
func (v *unaryVariant) SameInputRanks() bool          { return false }
func (v *unaryVariant) OutputArity() int              { return 1 }
func (v *unaryVariant) InDTypes(int) []dtype.Tuple    { return v.dtypes }

func (v *unaryVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &unaryInstance{v: v}
}

type unaryInstance struct {
	NoPostSymbolize
	v *unaryVariant
}

func (i *unaryInstance) Variant() Variant  { return i.v }
func (i *unaryInstance) Arity() int        { return 1 }
func (i *unaryInstance) OpType() string    { return i.v.name }
func (i *unaryInstance) Attrs() map[string]any { return map[string]any{} }

func (i *unaryInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	out := inputs[0].DType
	if i.v.outType != nil {
		out = i.v.outType(inputs[0].DType)
	}

	return []shape.TensorShape{shape.New(inputs[0].B, inputs[0].Dims, out)}, nil
}

func (i *unaryInstance) Requires(_ *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	return inputs[0].AllPositive()
}

func (i *unaryInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{OpType: i.v.name, Attrs: map[string]any{}, Params: map[string]int64{}}
}

// StandardUnary returns one variant per registered elementwise unary
// operator: the float-only transcendental/activation family (ReLU, Tanh,
// Sigmoid, Exp, Log, Sqrt), the numeric sign/magnitude family (Neg, Abs)
// admitted on any non-bool dtype, and Not, admitted only on Bool.
func StandardUnary() []Variant {
	floatTup := func() []dtype.Tuple {
		var ts []dtype.Tuple
		for _, d := range dtype.Floats() {
			ts = append(ts, dtype.Tuple{d})
		}

		return ts
	}()

	numericTup := func() []dtype.Tuple {
		var ts []dtype.Tuple
		for _, d := range dtype.NonBool() {
			ts = append(ts, dtype.Tuple{d})
		}

		return ts
	}()

	boolTup := []dtype.Tuple{{dtype.Bool}}

	return []Variant{
		&unaryVariant{name: "ReLU", dtypes: floatTup},
		&unaryVariant{name: "Tanh", dtypes: floatTup},
		&unaryVariant{name: "Sigmoid", dtypes: floatTup},
		&unaryVariant{name: "Exp", dtypes: floatTup},
		&unaryVariant{name: "Log", dtypes: floatTup},
		&unaryVariant{name: "Sqrt", dtypes: floatTup},
		&unaryVariant{name: "Neg", dtypes: numericTup},
		&unaryVariant{name: "Abs", dtypes: numericTup},
		&unaryVariant{name: "Not", dtypes: boolTup},
	}
}
