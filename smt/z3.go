package smt

import (
	"context"
	"fmt"

	z3 "github.com/aclements/go-z3/z3"

	"github.com/synthgraph/symgen/arith"
)

// Z3 is the production Solver, backed by github.com/aclements/go-z3 (see
// DESIGN.md for why this dependency was introduced): it is the direct,
// idiomatic match for an incremental solver over integer or fixed-width
// bitvector theories with a model on success.
type Z3 struct {
	ctx    *z3.Context
	solver *z3.Solver
	mode   arith.Mode
	consts map[string]z3.Value // symbol name -> declared const, cached so
	// re-referencing a symbol across insertions reuses one z3 declaration
	// instead of re-declaring it (re-declaration under the same name is
	// how a fresh Go *arith.Builder symbol would otherwise alias another
	// run's stale term).
}

// NewZ3 creates a Z3 solver for the given theory mode.
func NewZ3(mode arith.Mode) *Z3 {
	cfg := z3.NewConfig()
	ctx := z3.NewContext(cfg)

	return &Z3{
		ctx:    ctx,
		solver: ctx.NewSolver(),
		mode:   mode,
		consts: map[string]z3.Value{},
	}
}

func (s *Z3) Assert(b arith.Bool) {
	s.solver.Assert(s.lowerBool(b).(z3.Bool))
}

func (s *Z3) CheckAssuming(ctx context.Context, assumptions []arith.Bool) (Outcome, Model, error) {
	terms := make([]z3.Bool, len(assumptions))
	for i, a := range assumptions {
		terms[i] = s.lowerBool(a).(z3.Bool)
	}

	sat, err := s.solver.CheckAssuming(ctx, terms...)
	if err != nil {
		return Unknown, nil, err
	}

	switch sat {
	case z3.Sat:
		m := s.solver.Model()
		return Sat, &z3Model{ctx: s.ctx, m: m}, nil
	case z3.Unsat:
		return Unsat, nil, nil
	default:
		return Unknown, nil, nil
	}
}

func (s *Z3) Close() {
	s.ctx.Close()
}

// lowerBool recursively translates a Bool into a z3.Bool, sharing symbol
// declarations via s.consts.
func (s *Z3) lowerBool(b arith.Bool) z3.Value {
	if v, ok := b.Concrete(); ok {
		return s.ctx.FromBool(v)
	}

	switch {
	case b.IsComparison():
		x, y := b.CmpOperands()

		w := 0
		if s.mode == arith.ModeBV {
			w = x.Width()
			if y.Width() > w {
				w = y.Width()
			}

			if w == 0 {
				w = 1
			}
		}

		lx := s.extend(s.lowerExpr(x, w), w)
		ly := s.extend(s.lowerExpr(y, w), w)

		return s.applyCompare(b, lx, ly)
	case b.IsAnd():
		l, r := b.LogicalOperands()
		return s.lowerBool(l).(z3.Bool).And(s.lowerBool(r).(z3.Bool))
	case b.IsOr():
		l, r := b.LogicalOperands()
		return s.lowerBool(l).(z3.Bool).Or(s.lowerBool(r).(z3.Bool))
	case b.IsNot():
		x, _ := b.LogicalOperands()
		return s.lowerBool(x).(z3.Bool).Not()
	case b.IsIf():
		cond, then, els := b.IfOperands()
		return s.lowerBool(cond).(z3.Bool).IfThenElse(s.lowerBool(then), s.lowerBool(els))
	default:
		panic(fmt.Sprintf("smt: cannot lower Bool %v", b))
	}
}

func (s *Z3) applyCompare(b arith.Bool, x, y z3.Value) z3.Bool {
	op := b.CompareOp()

	if s.mode == arith.ModeBV {
		bx, by := x.(z3.BV), y.(z3.BV)

		switch op {
		case arith.CmpEq:
			return bx.Eq(by)
		case arith.CmpNe:
			return bx.Eq(by).Not()
		case arith.CmpLt:
			return bx.ULT(by)
		case arith.CmpLe:
			return bx.ULE(by)
		case arith.CmpGt:
			return bx.UGT(by)
		case arith.CmpGe:
			return bx.UGE(by)
		}
	}

	ix, iy := x.(z3.Int), y.(z3.Int)

	switch op {
	case arith.CmpEq:
		return ix.Eq(iy)
	case arith.CmpNe:
		return ix.Eq(iy).Not()
	case arith.CmpLt:
		return ix.LT(iy)
	case arith.CmpLe:
		return ix.LE(iy)
	case arith.CmpGt:
		return ix.GT(iy)
	case arith.CmpGe:
		return ix.GE(iy)
	}

	panic("smt: unreachable comparison op")
}

// lowerExpr translates an Expr into a z3.Int or z3.BV, per s.mode, zero
// extending bitvector operands to each op's declared result width before
// combining them.
//
// ctxWidth is the width the enclosing operation wants this Expr lowered at,
// used only when e itself carries none. arith.Builder.Const never sets
// Expr.width (a bare literal's width is "whatever it is combined with", per
// Expr.Width's doc comment) — without a context width, a literal like
// b.Const(int64(i.kernel)) compared or summed against a derived symbolic
// expression would ask z3 for a 0-bit bitvector sort, which it rejects. Every
// call site below hands down the width of the surrounding comparison/binop/
// if-then-else so a width-less operand adopts its sibling's width instead.
func (s *Z3) lowerExpr(e arith.Expr, ctxWidth int) z3.Value {
	w := e.Width()
	if w == 0 {
		w = ctxWidth
	}

	if s.mode == arith.ModeBV && w == 0 {
		// Both e and its context are width-less: e is a bare literal with no
		// symbolic sibling anywhere in the expression it came from. Builder
		// folds any comparison/binop whose operands are both concrete before
		// it ever reaches a solver, so this floor only guards against asking
		// z3 for a 0-bit sort; the value itself is never constrained by it.
		w = 1
	}

	if v, ok := e.Concrete(); ok {
		if s.mode == arith.ModeBV {
			return s.ctx.FromInt(v, s.ctx.BVSort(w))
		}

		return s.ctx.FromInt(v, s.ctx.IntSort())
	}

	if name, ok := e.IsSymbol(); ok {
		if c, ok := s.consts[name]; ok {
			return c
		}

		var v z3.Value
		if s.mode == arith.ModeBV {
			v = s.ctx.Const(name, s.ctx.BVSort(w))
		} else {
			v = s.ctx.Const(name, s.ctx.IntSort())
		}

		s.consts[name] = v

		return v
	}

	if op, x, y, ok := e.BinOperands(); ok {
		lx := s.extend(s.lowerExpr(x, w), w)
		ly := s.extend(s.lowerExpr(y, w), w)

		return s.applyBin(op, lx, ly)
	}

	cond, then, els := e.IfOperands()
	lthen := s.extend(s.lowerExpr(then, w), w)
	lels := s.extend(s.lowerExpr(els, w), w)

	return s.lowerBool(cond).(z3.Bool).IfThenElse(lthen, lels)
}

// extend zero-extends a bitvector value to width bits; a no-op in integer
// mode or when the value is already at width.
func (s *Z3) extend(v z3.Value, width int) z3.Value {
	if s.mode != arith.ModeBV {
		return v
	}

	bv := v.(z3.BV)
	if bv.Sort().Size() == uint(width) {
		return bv
	}

	return bv.ZeroExtend(width - int(bv.Sort().Size()))
}

func (s *Z3) applyBin(op arith.BinOp, x, y z3.Value) z3.Value {
	if s.mode == arith.ModeBV {
		bx, by := x.(z3.BV), y.(z3.BV)

		switch op {
		case arith.OpAdd:
			return bx.Add(by)
		case arith.OpSub:
			return bx.Sub(by)
		case arith.OpMul:
			return bx.Mul(by)
		case arith.OpDiv:
			return bx.UDiv(by)
		case arith.OpMod:
			return bx.URem(by)
		}
	}

	ix, iy := x.(z3.Int), y.(z3.Int)

	switch op {
	case arith.OpAdd:
		return ix.Add(iy)
	case arith.OpSub:
		return ix.Sub(iy)
	case arith.OpMul:
		return ix.Mul(iy)
	case arith.OpDiv:
		return ix.Div(iy)
	case arith.OpMod:
		return ix.Mod(iy)
	}

	panic("smt: unreachable binary op")
}

type z3Model struct {
	ctx *z3.Context
	m   *z3.Model
}

func (m *z3Model) Assignment() map[string]int64 {
	out := map[string]int64{}

	for _, decl := range m.m.Consts() {
		out[decl.Name()] = m.m.EvalInt(decl.Value())
	}

	return out
}
