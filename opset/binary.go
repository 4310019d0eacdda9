package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// binaryVariant is one broadcasting binary operator: the two inputs need
// not share a shape, only a broadcast-compatible one, and the output
// shape is the broadcast of both. outType overrides the element dtype of
// the result (comparisons and logical ops always produce Bool regardless
// of operand dtype). outType applies only when isBool is set; otherwise the
// result takes the first operand's dtype.
type binaryVariant struct {
	name    string
	dtypes  []dtype.Tuple
	outType dtype.DType
	isBool  bool
}

func (v *binaryVariant) Name() string              { return v.name }
func (v *binaryVariant) Arity() int                 { return 2 }
func (v *binaryVariant) InputRanks(int) []int       { return []int{AnyRank, AnyRank} }
func (v *binaryVariant) SameInputRanks() bool       { return false }
func (v *binaryVariant) OutputArity() int           { return 1 }
func (v *binaryVariant) InDTypes(int) []dtype.Tuple { return v.dtypes }

func (v *binaryVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return &binaryInstance{v: v}
}

type binaryInstance struct {
	NoPostSymbolize
	v *binaryVariant
}

func (i *binaryInstance) Variant() Variant      { return i.v }
func (i *binaryInstance) Arity() int            { return 2 }
func (i *binaryInstance) OpType() string        { return i.v.name }
func (i *binaryInstance) Attrs() map[string]any { return map[string]any{} }

func (i *binaryInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	b := inputs[0].B
	out := shape.BroadcastShapes(b, inputs[0], inputs[1])

	if i.v.isBool {
		out.DType = i.v.outType
	} else {
		out.DType = inputs[0].DType
	}

	return []shape.TensorShape{out}, nil
}

func (i *binaryInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	var cs []arith.Bool

	for _, in := range inputs {
		pos, err := in.AllPositive()
		if err != nil {
			return nil, err
		}

		cs = append(cs, pos...)
	}

	if !i.v.isBool && inputs[0].DType != inputs[1].DType {
		return nil, errDTypeMismatch(i.v.name, inputs[0].DType, inputs[1].DType)
	}

	cs = append(cs, shape.BroadcastConstraints(b, inputs[0], inputs[1])...)

	return cs, nil
}

func (i *binaryInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{OpType: i.v.name, Attrs: map[string]any{}, Params: map[string]int64{}}
}

// StandardBinary returns one variant per registered broadcasting binary
// operator: arithmetic (same-dtype in, same-dtype out), integer-only
// Mod, comparisons (any shared non-bool dtype in, Bool out), and logical
// connectives (Bool in, Bool out).
func StandardBinary() []Variant {
	numericTup := pairTuples(dtype.NonBool())
	intTup := pairTuples(dtype.Ints())
	boolTup := []dtype.Tuple{{dtype.Bool, dtype.Bool}}

	arithmetic := func(name string) *binaryVariant {
		return &binaryVariant{name: name, dtypes: numericTup}
	}

	cmp := func(name string) *binaryVariant {
		return &binaryVariant{name: name, dtypes: numericTup, outType: dtype.Bool, isBool: true}
	}

	logical := func(name string) *binaryVariant {
		return &binaryVariant{name: name, dtypes: boolTup, outType: dtype.Bool, isBool: true}
	}

	return []Variant{
		arithmetic("Add"), arithmetic("Sub"), arithmetic("Mul"), arithmetic("Div"),
		&binaryVariant{name: "Mod", dtypes: intTup},
		cmp("Eq"), cmp("Ne"), cmp("Lt"), cmp("Le"), cmp("Gt"), cmp("Ge"),
		logical("And"), logical("Or"),
	}
}

func pairTuples(ds []dtype.DType) []dtype.Tuple {
	ts := make([]dtype.Tuple, len(ds))
	for i, d := range ds {
		ts[i] = dtype.Tuple{d, d}
	}

	return ts
}
