// Package opset is the closed family of abstract tensor operator variants:
// elementwise unary, broadcasting binary, ternary select, reductions,
// reshape, transpose, slice, pad, conv2d, concat, cast, constant, input
// placeholder, and expand. Each Variant is a factory for Instances, which
// carry the per-construction symbolic parameters and know how to compute a
// nominal output shape (ShapeFn), a constraint set (Requires), and — once
// a solver model is available — a fully concrete operator (Concretize).
//
// The shape here generalizes graph.Node[T] (graph/node.go) and the
// layers/core family of concrete layers: where a layer carries
// Forward/Backward tensor math, an Instance carries only shape/dtype
// transfer and symbolic constraints — this generator never evaluates an
// operator's numeric semantics, only its shape and dtype contract.
package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// AnyRank is the declared-rank sentinel meaning "any rank is acceptable."
const AnyRank = -1

// VariableArity is Variant.Arity()'s sentinel for operators (Concat) whose
// input count is chosen per instance rather than fixed by the variant.
const VariableArity = -1

// Variant is a constructor for Instances of one operator family.
type Variant interface {
	// Name identifies the variant (and is the OpType of its Instances),
	// e.g. "ReLU", "Add", "Conv2D".
	Name() string

	// Arity returns the fixed input count, or VariableArity if the caller
	// must choose one (only Concat does this) and pass it to New.
	Arity() int

	// InputRanks returns the declared rank per input slot for an instance
	// constructed with the given arity (meaningful only when Arity() ==
	// VariableArity); AnyRank means "any rank accepted."
	InputRanks(arity int) []int

	// SameInputRanks reports whether every input must share one rank.
	SameInputRanks() bool

	// OutputArity is the number of output shapes ShapeFn produces.
	OutputArity() int

	// InDTypes returns the admissible input-dtype tuples for an instance
	// of the given arity, or nil to request the one-time dtype-inference
	// pass (package-level Infer).
	InDTypes(arity int) []dtype.Tuple

	// New constructs a fresh Instance: fresh symbolic construction
	// parameters plus any fixed, non-symbolic attributes chosen now
	// (axis, mode, reduce dim, ...). arity is only consulted by
	// variable-arity variants.
	New(b *arith.Builder, rng *rand.Rand, arity int) Instance
}

// Instance is one constructed (possibly still symbolic) operator.
type Instance interface {
	Variant() Variant

	// Arity is this instance's input count.
	Arity() int

	// OpType names the concrete operator kind for materializer/debug
	// purposes, e.g. "ReLU", "Add", "ArgMax".
	OpType() string

	// Attrs returns the instance's fixed, non-symbolic attributes.
	Attrs() map[string]any

	// ShapeFn computes the nominal output shapes from the input shapes.
	// Pure: it must not mutate inputs or the instance, and must not touch
	// the solver.
	ShapeFn(inputs []shape.TensorShape) ([]shape.TensorShape, error)

	// Requires returns the guard constraint set: arity/rank/dtype checks
	// (which may reject immediately via a *synerr.Constraint) plus
	// algebraic relations among input dims and the instance's own
	// symbolic construction parameters.
	Requires(b *arith.Builder, inputs []shape.TensorShape) ([]arith.Bool, error)

	// PostSymbolize lets an instance finish construction once input shapes
	// are known: Pad allocates its per-axis width symbols here, and Reduce,
	// Transpose, Slice and Concat pick their axes here. The default is a no-op;
	// embed NoPostSymbolize to get it for free.
	PostSymbolize(b *arith.Builder, rng *rand.Rand, inputs []shape.TensorShape) error

	// Concretize reconstructs the operator with every symbolic
	// construction parameter replaced by its solver value from env.
	// Fixed attributes are copied verbatim.
	Concretize(env map[string]int64) ConcreteOp
}

// NoPostSymbolize is embedded by instances with no post-symbolization
// hook, following the convention of small embeddable helper types such as
// graph's inputNode supplying no-op Backward/Parameters.
type NoPostSymbolize struct{}

func (NoPostSymbolize) PostSymbolize(*arith.Builder, *rand.Rand, []shape.TensorShape) error {
	return nil
}
