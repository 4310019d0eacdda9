package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/synerr"
)

// castVariant reinterprets its input's element type as a different dtype,
// chosen uniformly from dtype.All() at construction and excluding a
// same-to-same cast (which would be a no-op, not a real cast).
type castVariant struct{}

// NewCast returns the Cast variant.
func NewCast() Variant { return castVariant{} }

func (castVariant) Name() string  { return "Cast" }
func (castVariant) Arity() int     { return 1 }
func (castVariant) InputRanks(int) []int { return []int{AnyRank} }
func (castVariant) SameInputRanks() bool { return false }
func (castVariant) OutputArity() int     { return 1 }

func (castVariant) InDTypes(int) []dtype.Tuple {
	var ts []dtype.Tuple
	for _, d := range dtype.All() {
		ts = append(ts, dtype.Tuple{d})
	}

	return ts
}

func (v castVariant) New(_ *arith.Builder, rng *rand.Rand, _ int) Instance {
	return &castInstance{v: v, target: dtype.All()[rng.Intn(len(dtype.All()))]}
}

type castInstance struct {
	NoPostSymbolize
	v      castVariant
	target dtype.DType
}

func (i *castInstance) Variant() Variant { return i.v }
func (i *castInstance) Arity() int       { return 1 }
func (i *castInstance) OpType() string   { return "Cast" }

func (i *castInstance) Attrs() map[string]any {
	return map[string]any{"to": i.target}
}

func (i *castInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]

	return []shape.TensorShape{shape.New(in.B, in.Dims, i.target)}, nil
}

func (i *castInstance) Requires(_ *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	if i.target == inputs[0].DType {
		return nil, synerr.NewConstraint("Cast: target dtype %s is the same as the input dtype", i.target)
	}

	return inputs[0].AllPositive()
}

func (i *castInstance) Concretize(map[string]int64) ConcreteOp {
	return ConcreteOp{OpType: "Cast", Attrs: map[string]any{"to": i.target}, Params: map[string]int64{}}
}
