package opset

import (
	"fmt"
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// reshapeVariant reflows an input into a target shape of a freshly chosen
// rank whose dimensions are themselves fresh symbols, constrained only to
// be positive and to reproduce the input's element count — the same
// "wildcard axis" reshape supports in concrete frameworks, except every
// axis is wildcard until the solver resolves it.
type reshapeVariant struct {
	maxOutRank int
}

func (v *reshapeVariant) Name() string              { return "Reshape" }
func (v *reshapeVariant) Arity() int                 { return 1 }
func (v *reshapeVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (v *reshapeVariant) SameInputRanks() bool       { return false }
func (v *reshapeVariant) OutputArity() int           { return 1 }
func (v *reshapeVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v *reshapeVariant) New(b *arith.Builder, rng *rand.Rand, _ int) Instance {
	outRank := 1 + rng.Intn(v.maxOutRank)
	dims := make([]arith.Expr, outRank)

	for i := range dims {
		dims[i] = b.NewSymbol(fmt.Sprintf("reshape_dim%d", i))
	}

	return &reshapeInstance{v: v, dims: dims}
}

type reshapeInstance struct {
	NoPostSymbolize
	v    *reshapeVariant
	dims []arith.Expr
}

func (i *reshapeInstance) Variant() Variant      { return i.v }
func (i *reshapeInstance) Arity() int            { return 1 }
func (i *reshapeInstance) OpType() string        { return "Reshape" }
func (i *reshapeInstance) Attrs() map[string]any { return map[string]any{"rank": len(i.dims)} }

func (i *reshapeInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	return []shape.TensorShape{shape.New(inputs[0].B, i.dims, inputs[0].DType)}, nil
}

func (i *reshapeInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	out := shape.New(b, i.dims, inputs[0].DType)

	cs, err := out.AllPositive()
	if err != nil {
		return nil, err
	}

	cs = append(cs, b.Eq(out.NElement(), inputs[0].NElement()))

	return cs, nil
}

func (i *reshapeInstance) Concretize(env map[string]int64) ConcreteOp {
	params := make(map[string]int64, len(i.dims))

	for idx, d := range i.dims {
		v, ok := d.Eval(env)
		if !ok {
			panic("opset: Reshape concretized with an unresolved dimension symbol")
		}

		params[fmt.Sprintf("dim%d", idx)] = v
	}

	return ConcreteOp{
		OpType: "Reshape",
		Attrs:  map[string]any{"rank": len(i.dims)},
		Params: params,
	}
}

// NewReshape returns a Reshape variant whose target rank is chosen
// uniformly from [1, maxOutRank].
func NewReshape(maxOutRank int) Variant {
	if maxOutRank < 1 {
		maxOutRank = 1
	}

	return &reshapeVariant{maxOutRank: maxOutRank}
}
