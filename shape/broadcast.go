package shape

import (
	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
)

// dimAt pads dims with leading 1s (conceptually) so index i (aligned
// to the right) of every input shape lines up, matching the alignment
// convention of tensor/broadcast.go's BroadcastShapes: axis i counts from
// the last dimension backward.
func dimAt(dims []arith.Expr, b *arith.Builder, fromRight, maxRank int) arith.Expr {
	rank := len(dims)
	if fromRight >= rank {
		return b.Const(1)
	}

	return dims[rank-1-fromRight]
}

// BroadcastShapes returns the nominal output shape of broadcasting all of
// shapes together: the maximum rank, with dimension i (aligned to the
// right) equal to the max of the concrete participating values, or — if
// any participant at that axis is symbolic — a symbolic expression
// "whichever operand isn't 1" folded across the list. It does not assert
// that the broadcast is legal; pair it with BroadcastConstraints.
func BroadcastShapes(b *arith.Builder, shapes ...TensorShape) TensorShape {
	maxRank := 0
	dt := dtype.DType(0)

	for _, s := range shapes {
		if s.Rank() > maxRank {
			maxRank = s.Rank()
		}

		dt = s.DType
	}

	out := make([]arith.Expr, maxRank)

	for axis := 0; axis < maxRank; axis++ {
		out[axis] = nominalDim(b, shapes, axis, maxRank)
	}

	return TensorShape{B: b, Dims: out, DType: dt}
}

func nominalDim(b *arith.Builder, shapes []TensorShape, fromRight, maxRank int) arith.Expr {
	anySymbolic := false
	maxConcrete := int64(1)

	dims := make([]arith.Expr, 0, len(shapes))

	for _, s := range shapes {
		d := dimAt(s.Dims, b, fromRight, maxRank)
		dims = append(dims, d)

		if v, ok := d.Concrete(); ok {
			if v > maxConcrete {
				maxConcrete = v
			}
		} else {
			anySymbolic = true
		}
	}

	if !anySymbolic {
		return b.Const(maxConcrete)
	}

	// Fold "if y == 1 then x else y" across the list: the nominal
	// dimension is whichever participant is not the trivial broadcast
	// value 1.
	acc := dims[0]
	for _, d := range dims[1:] {
		one := b.Const(1)
		acc = b.If(b.Eq(d, one), acc, d)
	}

	return acc
}

// BroadcastConstraints returns, per axis and per participating shape, the
// predicate "this axis's dim is 1 or equals the nominal broadcast value."
func BroadcastConstraints(b *arith.Builder, shapes ...TensorShape) []arith.Bool {
	nominal := BroadcastShapes(b, shapes...)

	var cs []arith.Bool

	for _, s := range shapes {
		for axis := 0; axis < s.Rank(); axis++ {
			d := s.Dims[s.Rank()-1-axis]
			nom := dimAt(nominal.Dims, b, axis, nominal.Rank())

			cs = append(cs, b.Or(b.Eq(d, b.Const(1)), b.Eq(d, nom)))
		}
	}

	return cs
}

// BroadcastToConstraints asserts a one-directional broadcast from each of
// srcs into tgt: every src axis must be 1 or equal to tgt's corresponding
// (right-aligned) axis.
func BroadcastToConstraints(b *arith.Builder, tgt TensorShape, srcs ...TensorShape) []arith.Bool {
	var cs []arith.Bool

	for _, s := range srcs {
		for axis := 0; axis < s.Rank(); axis++ {
			d := s.Dims[s.Rank()-1-axis]
			t := dimAt(tgt.Dims, b, axis, tgt.Rank())

			cs = append(cs, b.Or(b.Eq(d, b.Const(1)), b.Eq(d, t)))
		}
	}

	return cs
}
