package opset

import (
	"math/rand"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/shape"
)

// Infer is the one-time dtype-inference pass for variants whose InDTypes
// returns nil (Reshape, Transpose, Slice, Pad, Concat, Conv2D, Expand: every
// shape-only operator that never actually inspects its operand dtype). It
// probes every candidate tuple of the given arity against a disposable
// instance built over concrete, rank-satisfying placeholder shapes and
// keeps the tuples that do not error out.
//
// This generator carries no numeric tensor backend (materialization is out
// of scope per the operator algebra's own design), so probing runs
// PostSymbolize/ShapeFn/Requires over concrete dims instead of evaluating
// real tensor semantics — the only signal available at this layer is
// whether dtype admissibility itself rejects the tuple, which for this
// operator family it structurally can't (they only read ranks and
// element counts). The result is still derived per-call, not hardcoded,
// so a future Variant with genuine dtype-dependent Requires logic is
// handled correctly without changing this function.
func Infer(v Variant, arity int) []dtype.Tuple {
	if arity == 0 {
		return []dtype.Tuple{{}}
	}

	ranks := v.InputRanks(arity)

	var out []dtype.Tuple

	for _, tuple := range cartesianDTypes(dtype.NonBool(), arity) {
		if probe(v, arity, ranks, tuple) {
			out = append(out, tuple)
		}
	}

	return out
}

func cartesianDTypes(choices []dtype.DType, n int) []dtype.Tuple {
	if n == 0 {
		return []dtype.Tuple{{}}
	}

	rest := cartesianDTypes(choices, n-1)
	out := make([]dtype.Tuple, 0, len(choices)*len(rest))

	for _, d := range choices {
		for _, r := range rest {
			t := append(dtype.Tuple{d}, r...)
			out = append(out, t)
		}
	}

	return out
}

// probe builds a disposable instance and disposable concrete shapes (every
// declared rank resolved to a fixed probe value, AnyRank resolved to 2) and
// reports whether the variant's own pipeline accepts tuple without error. A
// panic (a variant indexing into a construction parameter it assumes
// PostSymbolize already populated) counts as rejection, not a crash: it
// only ever happens here, inside the inference probe, never during a real
// search.Driver attempt, since the driver always calls PostSymbolize itself
// before ShapeFn/Requires.
func probe(v Variant, arity int, ranks []int, tuple dtype.Tuple) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	b := arith.NewBuilder(arith.ModeInt, 0)
	rng := rand.New(rand.NewSource(1))
	inst := v.New(b, rng, arity)

	shapes := make([]shape.TensorShape, arity)

	for i := range shapes {
		rank := 2
		if i < len(ranks) && ranks[i] != AnyRank {
			rank = ranks[i]
		}

		dims := make([]arith.Expr, rank)
		for d := range dims {
			dims[d] = b.Const(3)
		}

		shapes[i] = shape.New(b, dims, tuple[i])
	}

	if err := inst.PostSymbolize(b, rng, shapes); err != nil {
		return false
	}

	if _, err := inst.ShapeFn(shapes); err != nil {
		return false
	}

	cs, err := inst.Requires(b, shapes)
	if err != nil {
		return false
	}

	for _, c := range cs {
		val, known := c.Concrete()
		if !known {
			// A still-symbolic guard (e.g. Reshape's own target dims, or
			// Pad's before/after widths) is not a dtype rejection.
			continue
		}

		if !val {
			return false
		}
	}

	return true
}
