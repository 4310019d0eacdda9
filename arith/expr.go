// Package arith provides a small symbolic arithmetic IR over integers,
// mirroring the one-interface-many-operations shape of
// numeric.Arithmetic[T] (numeric/arithmetic.go) but specialized to the
// symbol/constant duality the generator needs: an operand is either a
// concrete int64 or a named symbolic variable, and every builder method
// folds to a concrete result as soon as both operands are concrete.
//
// A Builder owns one run's mode (integer or fixed-width bitvector theory),
// its symbol-name counter, and the default bitvector width of new symbols
// (the hard maximum is the package constant MaxBVWidth). None of
// this is process-global: it is per-instance state threaded explicitly,
// following the convention that a generator's mutable state belongs on the
// generator value, not in package-level variables.
package arith

import "fmt"

// Mode selects the SMT theory the generator's constraints are expressed in.
type Mode int

const (
	// ModeInt treats symbols as unbounded, by-convention-nonnegative
	// mathematical integers (positivity is asserted explicitly by callers).
	ModeInt Mode = iota
	// ModeBV treats symbols as fixed-width bitvectors, zero-extended to a
	// shared width before any binary operation, with unsigned comparisons.
	ModeBV
)

// MaxBVWidth is the hard ceiling on any bitvector width this package will
// construct. Exceeding it is a programming error, not a recoverable
// condition, so callers that would exceed it should not call into this
// package at all.
const MaxBVWidth = 64

// exprKind tags the closed set of integer-expression shapes. Modeling the
// IR as one tagged struct, rather than an interface-per-case hierarchy,
// keeps the operand union ("concrete or symbolic, plus a trait for which
// relation applies") flat and exhaustively switchable.
type exprKind int

const (
	kConst exprKind = iota
	kSymbol
	kAdd
	kSub
	kMul
	kDiv
	kMod
	kIf
)

// Expr is an integer-valued symbolic arithmetic expression: a concrete
// int64, a named symbol, or a closed-form combination of other Exprs. Zero
// value is not meaningful; construct via a Builder.
type Expr struct {
	kind exprKind

	// width is the bitvector width in ModeBV, meaningless in ModeInt.
	width int

	constVal int64
	symName  string

	args []Expr // operand(s) for add/sub/mul/div/mod; [then, else] for kIf
	cond *Bool  // condition for kIf
}

// Concrete reports whether e folds to a known integer value, and returns it
// if so. A kConst node is always concrete; every other kind is symbolic by
// construction (a Builder never constructs a non-const node unless at
// least one operand is symbolic — see Builder.bin).
func (e Expr) Concrete() (int64, bool) {
	if e.kind == kConst {
		return e.constVal, true
	}

	return 0, false
}

// IsSymbol reports whether e is a bare symbol, and returns its name.
func (e Expr) IsSymbol() (string, bool) {
	if e.kind == kSymbol {
		return e.symName, true
	}

	return "", false
}

// Width returns the bitvector width associated with e. Only meaningful in
// ModeBV; constant nodes created without an explicit width report 0,
// meaning "adopts whatever width it is combined with."
func (e Expr) Width() int { return e.width }

// BinOp identifies a binary arithmetic operator, exposed for solver
// backends (package smt) that need to lower Expr into their own term
// representation without reaching into this package's unexported fields.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var kindToBinOp = map[exprKind]BinOp{
	kAdd: OpAdd, kSub: OpSub, kMul: OpMul, kDiv: OpDiv, kMod: OpMod,
}

// BinOperands reports the operator and operands if e is a binary
// arithmetic node, else ok is false.
func (e Expr) BinOperands() (op BinOp, x, y Expr, ok bool) {
	bop, known := kindToBinOp[e.kind]
	if !known {
		return 0, Expr{}, Expr{}, false
	}

	return bop, e.args[0], e.args[1], true
}

// IsIf reports whether e is an if-then-else node.
func (e Expr) IsIf() bool { return e.kind == kIf }

// IfOperands returns the condition/then/else of an if-then-else node. It
// panics if !e.IsIf().
func (e Expr) IfOperands() (cond Bool, then, els Expr) {
	if e.kind != kIf {
		panic("arith: IfOperands called on a non-if Expr")
	}

	return *e.cond, e.args[0], e.args[1]
}

func (e Expr) String() string {
	switch e.kind {
	case kConst:
		return fmt.Sprintf("%d", e.constVal)
	case kSymbol:
		return e.symName
	case kAdd:
		return fmt.Sprintf("(%s + %s)", e.args[0], e.args[1])
	case kSub:
		return fmt.Sprintf("(%s - %s)", e.args[0], e.args[1])
	case kMul:
		return fmt.Sprintf("(%s * %s)", e.args[0], e.args[1])
	case kDiv:
		return fmt.Sprintf("(%s / %s)", e.args[0], e.args[1])
	case kMod:
		return fmt.Sprintf("(%s %% %s)", e.args[0], e.args[1])
	case kIf:
		return fmt.Sprintf("(if %s then %s else %s)", e.cond, e.args[0], e.args[1])
	default:
		return "<invalid expr>"
	}
}
