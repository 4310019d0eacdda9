package arith

import "fmt"

// Builder constructs Exprs and Bools for one generator run. It owns the
// theory mode, the monotonic symbol-name counter, and (in ModeBV) the
// common bitvector width every symbol is created at before later alignment
// widens it further per operation. None of this is shared across Builder
// instances.
type Builder struct {
	mode      Mode
	nextID    int
	bvWidth   int // default width new symbols are created at, in ModeBV
}

// NewBuilder creates a Builder. bvWidth is ignored in ModeInt. It must be
// in [1, MaxBVWidth] in ModeBV.
func NewBuilder(mode Mode, bvWidth int) *Builder {
	if mode == ModeBV && (bvWidth <= 0 || bvWidth > MaxBVWidth) {
		panic(fmt.Sprintf("arith: invalid bitvector width %d (max %d)", bvWidth, MaxBVWidth))
	}

	return &Builder{mode: mode, bvWidth: bvWidth}
}

// Mode reports the builder's theory.
func (b *Builder) Mode() Mode { return b.mode }

// Const builds a concrete integer literal.
func (b *Builder) Const(v int64) Expr {
	return Expr{kind: kConst, constVal: v}
}

// NewSymbol allocates a fresh symbolic integer, named with an internal
// monotonic counter so every symbol in a run is unique regardless of which
// operator variant or placeholder requested it.
func (b *Builder) NewSymbol(hint string) Expr {
	b.nextID++
	name := fmt.Sprintf("%s_%d", hint, b.nextID)

	width := 0
	if b.mode == ModeBV {
		width = b.bvWidth
	}

	return Expr{kind: kSymbol, symName: name, width: width}
}

// width returns the alignment width to use for a binary op between a and b,
// optionally widened by extra bits (used for add's carry bit and mul's
// doubled width). Returns 0 in ModeInt.
func (b *Builder) width(a, b2 Expr, extra int) int {
	if b.mode != ModeBV {
		return 0
	}

	w := a.width
	if b2.width > w {
		w = b2.width
	}

	w += extra
	if w > MaxBVWidth {
		panic(fmt.Sprintf("arith: bitvector width %d exceeds MaxBVWidth %d", w, MaxBVWidth))
	}

	return w
}

func (b *Builder) bin(kind exprKind, x, y Expr, widthExtra int) Expr {
	if cx, ok := x.Concrete(); ok {
		if cy, ok := y.Concrete(); ok {
			return b.Const(evalConst(kind, cx, cy))
		}
	}

	return Expr{kind: kind, args: []Expr{x, y}, width: b.width(x, y, widthExtra)}
}

func evalConst(kind exprKind, x, y int64) int64 {
	switch kind {
	case kAdd:
		return x + y
	case kSub:
		return x - y
	case kMul:
		return x * y
	case kDiv:
		// Integer division rounds toward negative infinity (floor); this
		// package only ever models integer operands, never fractional
		// ones, so floor is the only rounding mode Div needs.
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}

		return q
	case kMod:
		m := x % y
		if m != 0 && ((m < 0) != (y < 0)) {
			m += y
		}

		return m
	default:
		panic("arith: evalConst called with non-arithmetic kind")
	}
}

// Add builds x + y. In ModeBV the result width is one bit wider than the
// wider operand, to hold the carry.
func (b *Builder) Add(x, y Expr) Expr { return b.bin(kAdd, x, y, 1) }

// Sub builds x - y.
func (b *Builder) Sub(x, y Expr) Expr { return b.bin(kSub, x, y, 0) }

// Mul builds x * y. In ModeBV the result width is doubled.
func (b *Builder) Mul(x, y Expr) Expr {
	if cx, ok := x.Concrete(); ok {
		if cy, ok := y.Concrete(); ok {
			return b.Const(cx * cy)
		}
	}

	w := 0
	if b.mode == ModeBV {
		w = b.width(x, y, 0) * 2
		if w > MaxBVWidth {
			panic(fmt.Sprintf("arith: bitvector width %d exceeds MaxBVWidth %d", w, MaxBVWidth))
		}
	}

	return Expr{kind: kMul, args: []Expr{x, y}, width: w}
}

// DivInt builds floor(x / y), the only rounding mode Div uses for integer
// operands.
func (b *Builder) DivInt(x, y Expr) Expr { return b.bin(kDiv, x, y, 0) }

// Mod builds x mod y, normalized to have the sign of y (Euclidean-style,
// matching DivInt's floor rounding: x == y*DivInt(x,y) + Mod(x,y)).
func (b *Builder) Mod(x, y Expr) Expr { return b.bin(kMod, x, y, 0) }

// If builds an integer if-then-else: cond ? then : els.
func (b *Builder) If(cond Bool, then, els Expr) Expr {
	if cb, ok := cond.Concrete(); ok {
		if cb {
			return then
		}

		return els
	}

	w := then.width
	if els.width > w {
		w = els.width
	}

	c := cond

	return Expr{kind: kIf, cond: &c, args: []Expr{then, els}, width: w}
}

func (b *Builder) cmp(kind boolKind, x, y Expr) Bool {
	if cx, ok := x.Concrete(); ok {
		if cy, ok := y.Concrete(); ok {
			return boolFromConstCmp(kind, cx, cy)
		}
	}

	return Bool{kind: kind, cmp: []Expr{x, y}}
}

func boolFromConstCmp(kind boolKind, x, y int64) Bool {
	var r bool

	switch kind {
	case bEq:
		r = x == y
	case bNe:
		r = x != y
	case bLt:
		r = x < y
	case bLe:
		r = x <= y
	case bGt:
		r = x > y
	case bGe:
		r = x >= y
	default:
		panic("arith: boolFromConstCmp called with non-comparison kind")
	}

	if r {
		return True
	}

	return False
}

// Eq, Ne, Lt, Le, Gt, Ge build integer comparisons. In ModeBV these always
// compare the zero-extended unsigned interpretation of the operands; since
// this package never represents negative bitvector values, the
// unsigned/signed distinction is implicit in that invariant rather than in
// a runtime flag.
func (b *Builder) Eq(x, y Expr) Bool { return b.cmp(bEq, x, y) }
func (b *Builder) Ne(x, y Expr) Bool { return b.cmp(bNe, x, y) }
func (b *Builder) Lt(x, y Expr) Bool { return b.cmp(bLt, x, y) }
func (b *Builder) Le(x, y Expr) Bool { return b.cmp(bLe, x, y) }
func (b *Builder) Gt(x, y Expr) Bool { return b.cmp(bGt, x, y) }
func (b *Builder) Ge(x, y Expr) Bool { return b.cmp(bGe, x, y) }

// And, Or, Not build logical connectives, folding immediately when both (or
// the one) operand is concrete.
func (b *Builder) And(x, y Bool) Bool {
	if cx, ok := x.Concrete(); ok {
		if !cx {
			return False
		}

		if cy, ok := y.Concrete(); ok {
			return boolLit(cy)
		}

		return y
	}

	if cy, ok := y.Concrete(); ok {
		if !cy {
			return False
		}

		return x
	}

	return Bool{kind: bAnd, args: []Bool{x, y}}
}

func (b *Builder) Or(x, y Bool) Bool {
	if cx, ok := x.Concrete(); ok {
		if cx {
			return True
		}

		if cy, ok := y.Concrete(); ok {
			return boolLit(cy)
		}

		return y
	}

	if cy, ok := y.Concrete(); ok {
		if cy {
			return True
		}

		return x
	}

	return Bool{kind: bOr, args: []Bool{x, y}}
}

func (b *Builder) Not(x Bool) Bool {
	if cx, ok := x.Concrete(); ok {
		return boolLit(!cx)
	}

	return Bool{kind: bNot, args: []Bool{x}}
}

// BoolIf builds a boolean if-then-else: cond ? then : els.
func (b *Builder) BoolIf(cond, then, els Bool) Bool {
	if cb, ok := cond.Concrete(); ok {
		if cb {
			return then
		}

		return els
	}

	c, th, el := cond, then, els

	return Bool{kind: bIf, cond: &c, then: &th, els: &el}
}

func boolLit(v bool) Bool {
	if v {
		return True
	}

	return False
}

// All ANDs together every Bool in cs, short-circuiting on a concrete false
// and skipping concrete-true members. A convenience used throughout the
// operator algebra to assemble a requires() constraint set into one Bool.
func All(b *Builder, cs ...Bool) Bool {
	acc := True
	for _, c := range cs {
		acc = b.And(acc, c)
	}

	return acc
}
