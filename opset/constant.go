package opset

import (
	"fmt"
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// nullaryVariant is the shared shape of Constant and Input: a zero-arity
// operator producing one output shape of a freshly chosen rank, every
// dimension a fresh symbol. The only difference between the two is
// opType, which governs how symgraph's finalization pass and the
// materializer treat the resulting node.
type nullaryVariant struct {
	opType     string
	maxRank    int
	dtypeWheel []dtype.DType
}

func (v *nullaryVariant) Name() string              { return v.opType }
func (v *nullaryVariant) Arity() int                 { return 0 }
func (v *nullaryVariant) InputRanks(int) []int       { return nil }
func (v *nullaryVariant) SameInputRanks() bool       { return false }
func (v *nullaryVariant) OutputArity() int           { return 1 }
func (v *nullaryVariant) InDTypes(int) []dtype.Tuple { return []dtype.Tuple{} }

func (v *nullaryVariant) New(b *arith.Builder, rng *rand.Rand, _ int) Instance {
	rank := rng.Intn(v.maxRank + 1)
	dims := make([]arith.Expr, rank)

	for i := range dims {
		dims[i] = b.NewSymbol(fmt.Sprintf("%s_dim%d", v.opType, i))
	}

	dt := v.dtypeWheel[rng.Intn(len(v.dtypeWheel))]

	return &nullaryInstance{v: v, b: b, dims: dims, dt: dt}
}

type nullaryInstance struct {
	NoPostSymbolize
	v    *nullaryVariant
	b    *arith.Builder
	dims []arith.Expr
	dt   dtype.DType
}

func (i *nullaryInstance) Variant() Variant      { return i.v }
func (i *nullaryInstance) Arity() int            { return 0 }
func (i *nullaryInstance) OpType() string        { return i.v.opType }
func (i *nullaryInstance) Attrs() map[string]any { return map[string]any{"dtype": i.dt} }

// ShapeFn ignores inputs: a nullary operator's output derives from its
// own construction parameters, not from any input shape.
func (i *nullaryInstance) ShapeFn([]shape.TensorShape) ([]shape.TensorShape, error) {
	return []shape.TensorShape{shape.New(i.b, i.dims, i.dt)}, nil
}

func (i *nullaryInstance) Requires(b *arith.Builder, _ []shape.TensorShape) ([]arith.Bool, error) {
	return shape.New(b, i.dims, i.dt).AllPositive()
}

func (i *nullaryInstance) Concretize(env map[string]int64) ConcreteOp {
	dims := make([]int64, len(i.dims))

	for idx, d := range i.dims {
		v, ok := d.Eval(env)
		if !ok {
			panic(fmt.Sprintf("opset: %s concretized with an unresolved dimension symbol", i.v.opType))
		}

		dims[idx] = v
	}

	return ConcreteOp{
		OpType: i.v.opType,
		Attrs:  map[string]any{"dtype": i.dt, "dims": dims},
		Params: map[string]int64{},
	}
}

// NewConstant returns the Constant variant: a zero-arity operator that
// materializes as a fixed-value tensor baked into the graph.
func NewConstant(maxRank int, dtypeWheel []dtype.DType) Variant {
	return &nullaryVariant{opType: "Constant", maxRank: maxRank, dtypeWheel: dtypeWheel}
}
