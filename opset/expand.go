package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// expandVariant broadcasts a size-1 axis (or grows new leading axes) to a
// fresh symbolic size n, counting the target axis from the right via
// lastDimK: when lastDimK falls within the input's rank, that axis must
// already be 1 or already equal n; when lastDimK exceeds the input's
// rank, Expand instead prepends n and lastDimK-rank-1 ones ahead of the
// existing dims. lastDimK is fixed at construction, like reshapeVariant's
// maxOutRank; n is a fresh symbol, like reshapeVariant's target dims.
type expandVariant struct {
	maxK int
}

// NewExpand returns an Expand variant whose lastDimK is chosen uniformly
// from [1, maxK].
func NewExpand(maxK int) Variant {
	if maxK < 1 {
		maxK = 1
	}

	return &expandVariant{maxK: maxK}
}

func (v *expandVariant) Name() string              { return "Expand" }
func (v *expandVariant) Arity() int                 { return 1 }
func (v *expandVariant) InputRanks(int) []int       { return []int{AnyRank} }
func (v *expandVariant) SameInputRanks() bool       { return false }
func (v *expandVariant) OutputArity() int           { return 1 }
func (v *expandVariant) InDTypes(int) []dtype.Tuple { return nil }

func (v *expandVariant) New(b *arith.Builder, rng *rand.Rand, _ int) Instance {
	k := 1 + rng.Intn(v.maxK)
	n := b.NewSymbol("expand_n")

	return &expandInstance{v: v, k: k, n: n}
}

type expandInstance struct {
	NoPostSymbolize
	v *expandVariant
	k int
	n arith.Expr
}

func (i *expandInstance) Variant() Variant      { return i.v }
func (i *expandInstance) Arity() int            { return 1 }
func (i *expandInstance) OpType() string        { return "Expand" }
func (i *expandInstance) Attrs() map[string]any { return map[string]any{"last_dim_k": i.k} }

// targetAxis reports the 0-indexed axis i.k counts from the right of a
// shape with the given rank, and whether that axis falls within range.
func targetAxis(rank, k int) (axis int, inRange bool) {
	axis = rank - k
	return axis, axis >= 0
}

func (i *expandInstance) ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error) {
	in := inputs[0]
	rank := in.Rank()

	if axis, ok := targetAxis(rank, i.k); ok {
		dims := make([]arith.Expr, rank)
		copy(dims, in.Dims)
		dims[axis] = i.n

		return []shape.TensorShape{shape.New(in.B, dims, in.DType)}, nil
	}

	lead := i.k - rank - 1

	dims := make([]arith.Expr, 0, i.k+rank-i.k)
	dims = append(dims, i.n)

	for j := 0; j < lead; j++ {
		dims = append(dims, in.B.Const(1))
	}

	dims = append(dims, in.Dims...)

	return []shape.TensorShape{shape.New(in.B, dims, in.DType)}, nil
}

func (i *expandInstance) Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error) {
	in := inputs[0]
	rank := in.Rank()

	cs, err := (shape.TensorShape{B: b, Dims: []arith.Expr{i.n}}).AllPositive()
	if err != nil {
		return nil, err
	}

	if axis, ok := targetAxis(rank, i.k); ok {
		dim := in.Dims[axis]
		cs = append(cs, b.Or(b.Eq(dim, b.Const(1)), b.Eq(dim, i.n)))
	}
	// When lastDimK exceeds rank, Expand only prepends new axes: the
	// existing dims are untouched and need no additional constraint: they
	// reappear in the output, whose positivity ForwardInsert asserts.

	return cs, nil
}

func (i *expandInstance) Concretize(env map[string]int64) ConcreteOp {
	n, ok := i.n.Eval(env)
	if !ok {
		panic("opset: Expand concretized with an unresolved n symbol")
	}

	return ConcreteOp{
		OpType: "Expand",
		Attrs:  map[string]any{"last_dim_k": i.k},
		Params: map[string]int64{"n": n},
	}
}
