package arith

// Eval substitutes every symbol in e with its value from env and folds the
// expression to a concrete integer. It returns ok=false if e references a
// symbol absent from env. This is what the concretizer uses to turn a
// solver's model into numeric shapes and operator construction
// parameters, and what the reference in-memory solver (smt.Stub) uses to
// check candidate assertions against a fixed assignment.
func (e Expr) Eval(env map[string]int64) (int64, bool) {
	switch e.kind {
	case kConst:
		return e.constVal, true
	case kSymbol:
		v, ok := env[e.symName]
		return v, ok
	case kAdd, kSub, kMul, kDiv, kMod:
		x, ok := e.args[0].Eval(env)
		if !ok {
			return 0, false
		}

		y, ok := e.args[1].Eval(env)
		if !ok {
			return 0, false
		}

		return evalConst(e.kind, x, y), true
	case kIf:
		cond, ok := e.cond.Eval(env)
		if !ok {
			return 0, false
		}

		if cond {
			return e.args[0].Eval(env)
		}

		return e.args[1].Eval(env)
	default:
		return 0, false
	}
}

// Eval substitutes every symbol in b with its value from env and folds to a
// concrete boolean.
func (b Bool) Eval(env map[string]int64) (bool, bool) {
	switch b.kind {
	case bConst:
		return b.constVal, true
	case bEq, bNe, bLt, bLe, bGt, bGe:
		x, ok := b.cmp[0].Eval(env)
		if !ok {
			return false, false
		}

		y, ok := b.cmp[1].Eval(env)
		if !ok {
			return false, false
		}

		r, _ := boolFromConstCmp(b.kind, x, y).Concrete()

		return r, true
	case bAnd:
		x, ok := b.args[0].Eval(env)
		if !ok {
			return false, false
		}

		y, ok := b.args[1].Eval(env)
		if !ok {
			return false, false
		}

		return x && y, true
	case bOr:
		x, ok := b.args[0].Eval(env)
		if !ok {
			return false, false
		}

		y, ok := b.args[1].Eval(env)
		if !ok {
			return false, false
		}

		return x || y, true
	case bNot:
		x, ok := b.args[0].Eval(env)
		if !ok {
			return false, false
		}

		return !x, true
	case bIf:
		cond, ok := b.cond.Eval(env)
		if !ok {
			return false, false
		}

		if cond {
			return b.then.Eval(env)
		}

		return b.els.Eval(env)
	default:
		return false, false
	}
}

// Symbols returns the set of symbol names referenced transitively by e.
func (e Expr) Symbols() []string {
	seen := map[string]bool{}
	e.collectSymbols(seen)

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}

	return out
}

// Symbols returns the set of symbol names referenced transitively by b.
func (b Bool) Symbols() []string {
	seen := map[string]bool{}
	b.collectSymbols(seen)

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}

	return out
}

func (b Bool) collectSymbols(seen map[string]bool) {
	switch b.kind {
	case bEq, bNe, bLt, bLe, bGt, bGe:
		b.cmp[0].collectSymbols(seen)
		b.cmp[1].collectSymbols(seen)
	case bAnd, bOr:
		b.args[0].collectSymbols(seen)
		b.args[1].collectSymbols(seen)
	case bNot:
		b.args[0].collectSymbols(seen)
	case bIf:
		b.cond.collectSymbols(seen)
		b.then.collectSymbols(seen)
		b.els.collectSymbols(seen)
	}
}

func (e Expr) collectSymbols(seen map[string]bool) {
	switch e.kind {
	case kSymbol:
		seen[e.symName] = true
	case kAdd, kSub, kMul, kDiv, kMod:
		e.args[0].collectSymbols(seen)
		e.args[1].collectSymbols(seen)
	case kIf:
		e.cond.collectSymbols(seen)
		e.args[0].collectSymbols(seen)
		e.args[1].collectSymbols(seen)
	}
}
