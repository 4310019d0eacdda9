package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// whereVariant is the ternary elementwise select: output[i] = cond[i] ?
// x[i] : y[i], broadcast across all three operands.
type whereVariant struct{}

// NewWhere returns the Where variant.
func NewWhere() Variant { return whereVariant{} }

func (whereVariant) Name() string        { return "Where" }
func (whereVariant) Arity() int          { return 3 }
func (whereVariant) InputRanks(int) []int { return []int{AnyRank, AnyRank, AnyRank} }
func (whereVariant) SameInputRanks() bool { return false }
func (whereVariant) OutputArity() int     { return 1 }

func (whereVariant) InDTypes(int) []dtype.Tuple {
	var ts []dtype.Tuple
	for _, d := range dtype.NonBool() {
		ts = append(ts, dtype.Tuple{dtype.Bool, d, d})
	}

	return ts
}

func (v whereVariant) New(*arith.Builder, *rand.Rand, int) Instance {
	return whereInstance{v: v}
}

type whereInstance struct {
	NoPostSymbolize
	v whereVariant
}

func (i whereInstance) Variant() Variant      { return i.v }
func (i whereInstance) Arity() int            { return 3 }
func (i whereInstance) OpType() string        { return "Where" }
func (i whereInstance) Attrs() map[string]any { return map[string]any{} }

func (i whereInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	b := inputs[0].B
	out := shape.BroadcastShapes(b, inputs[0], inputs[1], inputs[2])
	out.DType = inputs[1].DType

	return []shape.TensorShape{out}, nil
}

func (i whereInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	if inputs[0].DType != dtype.Bool {
		return nil, errDTypeMismatch("Where", inputs[0].DType, dtype.Bool)
	}

	if inputs[1].DType != inputs[2].DType {
		return nil, errDTypeMismatch("Where", inputs[1].DType, inputs[2].DType)
	}

	var cs []arith.Bool

	for _, in := range inputs {
		pos, err := in.AllPositive()
		if err != nil {
			return nil, err
		}

		cs = append(cs, pos...)
	}

	cs = append(cs, shape.BroadcastConstraints(b, inputs[0], inputs[1], inputs[2])...)

	return cs, nil
}

func (i whereInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{OpType: "Where", Attrs: map[string]any{}, Params: map[string]int64{}}
}
