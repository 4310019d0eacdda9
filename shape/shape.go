// Package shape provides the tensor shape/dtype descriptor and its
// broadcasting algebra, generalizing the shape/stride bookkeeping of
// tensor/tensor.go, tensor/shaping.go and tensor/broadcast.go from a
// concrete-only []int to a mix of concrete and symbolic dimension
// expressions.
package shape

import (
	"fmt"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/synerr"
)

// TensorShape is an ordered sequence of dimension expressions plus an
// element dtype tag. B is the arithmetic builder used to fold/compose new
// expressions derived from this shape (nelement, broadcast, ...); every
// TensorShape in one run shares the same Builder, following the
// one-engine-per-graph convention of compute.Engine[T] threaded through
// graph.Graph[T].
type TensorShape struct {
	B     *arith.Builder
	Dims  []arith.Expr
	DType dtype.DType
}

// New builds a TensorShape. It does not validate positivity; call
// AllPositive for that.
func New(b *arith.Builder, dims []arith.Expr, dt dtype.DType) TensorShape {
	return TensorShape{B: b, Dims: dims, DType: dt}
}

// Rank returns the number of dimensions.
func (s TensorShape) Rank() int { return len(s.Dims) }

// AllPositive returns one `dim > 0` constraint per symbolic dimension. A
// concrete dimension is checked immediately; if it is not positive, the
// shape is locally rejected via a *synerr.Constraint, not a symbolic
// constraint, since there is nothing left for the solver to do about a
// number that is already known to be wrong.
func (s TensorShape) AllPositive() ([]arith.Bool, error) {
	cs := make([]arith.Bool, 0, len(s.Dims))

	for i, d := range s.Dims {
		if v, ok := d.Concrete(); ok {
			if v <= 0 {
				return nil, synerr.NewConstraint("shape dimension %d is %d, must be positive", i, v)
			}

			continue
		}

		cs = append(cs, s.B.Gt(d, s.B.Const(0)))
	}

	return cs, nil
}

// NElement returns an arithmetic expression for the total element count
// (the empty-shape / rank-0 case is defined as 1, matching a scalar
// tensor), folding concrete factors as it goes.
func (s TensorShape) NElement() arith.Expr {
	acc := s.B.Const(1)
	for _, d := range s.Dims {
		acc = s.B.Mul(acc, d)
	}

	return acc
}

// EqualTo returns one equality constraint per dimension pair. A rank
// mismatch is a *synerr.Sanity — the canonical case of a violated internal
// invariant, since the caller should never invoke EqualTo on shapes of
// different rank.
func (s TensorShape) EqualTo(o TensorShape) ([]arith.Bool, error) {
	if s.Rank() != o.Rank() {
		return nil, synerr.NewSanity("EqualTo: rank mismatch %d vs %d", s.Rank(), o.Rank())
	}

	cs := make([]arith.Bool, len(s.Dims))
	for i := range s.Dims {
		cs[i] = s.B.Eq(s.Dims[i], o.Dims[i])
	}

	return cs, nil
}

func (s TensorShape) String() string {
	return fmt.Sprintf("%v:%v", s.Dims, s.DType)
}

// Alive is a tensor descriptor currently available as an output of some
// node in the abstract graph, and thus reusable as another node's input.
// It is the unit symgraph hands between forward and backward insertion.
type Alive struct {
	ID       int
	Producer int // node id that produced this shape
	Port     int // output port on Producer
	Shape    TensorShape
}
