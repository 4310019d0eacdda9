// Package search is the growth loop that drives symgraph.Graph from one
// seed placeholder to a finalized abstract graph: pick a variant, allocate
// its fresh construction symbols, choose forward or backward insertion,
// assemble the float-budget constraint, and commit or discard under the
// solver's verdict. It generalizes the teacher's training loop shape
// (training/trainer.go's step-retry-then-advance structure) from "one
// gradient step" to "one accepted graph-growth step," and its own state
// machine — abstract_gen, post_process, terminal — mirrors the
// teacher's three-phase `cmd/cli` command lifecycle (parse, run, report)
// more than any single teacher loop, so it is written fresh in that idiom
// rather than copied from one file.
package search

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/config"
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/opset"
	"github.com/synthgraph/symgen/shape"
	"github.com/synthgraph/symgen/smt"
	"github.com/synthgraph/symgen/symgraph"
	"github.com/synthgraph/symgen/synerr"
)

// pairKey records one (predecessor, successor) variant-name pair for
// WeightLatest's unsolvable-pair bias.
type pairKey struct {
	predecessor string
	successor   string
}

// Driver owns one generation run's mutable state: the graph under
// construction, the solver it is checked against, and the bookkeeping the
// weighted-picking and float-budget disciplines need. Not safe for
// concurrent use (spec.md §5): one Driver, one Solver, one Graph.
type Driver struct {
	cfg    config.Config
	rng    *rand.Rand
	b      *arith.Builder
	solver smt.Solver
	g      *symgraph.Graph

	// runID identifies this Driver instance in logs and in any artifact a
	// caller names after the run (e.g. a fuzzing campaign running many
	// symgen processes concurrently). It plays no part in graph growth:
	// it is drawn from crypto-random uuid generation, never from d.rng,
	// so two runs sharing the same seed remain structurally identical
	// (spec.md §8 Determinism) regardless of their runID.
	runID uuid.UUID

	active []opset.Variant

	tupleCache map[string][]dtype.Tuple
	unsolvable map[pairKey]int
	lastName   string
}

// RunID returns the identifier generated for this Driver instance.
func (d *Driver) RunID() uuid.UUID { return d.runID }

// NewDriver builds a Driver over variants, filtering out any name listed in
// cfg.SkipOps. The solver must be freshly constructed (no prior Assert
// calls) and is owned by the Driver for the run's lifetime; the caller
// closes it afterward.
func NewDriver(cfg config.Config, solver smt.Solver, variants []opset.Variant) *Driver {
	rng := rand.New(rand.NewSource(cfg.Seed))

	bvWidth := cfg.BVSize
	mode := arith.ModeInt

	if cfg.UseBitvec {
		mode = arith.ModeBV

		if bvWidth == 0 {
			bvWidth = 1 + rng.Intn(cfg.BVSizeRandomMax)
		}
	}

	b := arith.NewBuilder(mode, bvWidth)

	active := make([]opset.Variant, 0, len(variants))

	for _, v := range variants {
		if !cfg.SkipsOp(v.Name()) {
			active = append(active, v)
		}
	}

	return &Driver{
		cfg:        cfg,
		rng:        rng,
		b:          b,
		solver:     solver,
		g:          symgraph.New(b),
		runID:      uuid.New(),
		active:     active,
		tupleCache: map[string][]dtype.Tuple{},
		unsolvable: map[pairKey]int{},
	}
}

// DefaultVariants returns the full registered operator family, sized from
// cfg where the variant needs construction-time choice sets that are not
// themselves part of config.Config's tuning surface (kernel/stride/channel
// choices, max reshape rank, slice stride bound) — fixed here the same way
// the teacher's cmd/zerfoo/main.go hardcodes its default layer widths
// rather than threading every constant through a flag.
func DefaultVariants(cfg config.Config) []opset.Variant {
	out := []opset.Variant{
		opset.NewReshape(4),
		opset.NewSlice(3),
		opset.NewConv2D([]int{1, 3, 5}, []int{1, 2}, []int{1, 4, 8, 16}, 2),
		opset.NewPad(),
		opset.NewTranspose(),
		opset.NewConcat(),
		opset.NewCast(),
		opset.NewWhere(),
		opset.NewExpand(4),
		opset.NewConstant(4, cfg.DTypeWheel),
		opset.NewInput(4, cfg.DTypeWheel),
	}

	out = append(out, opset.StandardUnary()...)
	out = append(out, opset.StandardBinary()...)
	out = append(out, opset.StandardReduce()...)

	return out
}

// Graph returns the graph under construction. Valid at any point, but only
// finalized (Placeholders() empty) after Run returns successfully.
func (d *Driver) Graph() *symgraph.Graph { return d.g }

// Run grows the graph from one seed placeholder until config.MaxNodes is
// reached or config.MaxGenDuration elapses (abstract_gen), finalizes every
// remaining placeholder into an Input or Constant (post_process), and
// performs one last satisfiability check over the fully committed store
// (terminal). The returned Model resolves every symbol the graph's shapes
// and operator construction parameters reference.
func (d *Driver) Run(ctx context.Context) (*symgraph.Graph, smt.Model, error) {
	log.Printf("search[%s]: starting growth loop (max_nodes=%d)", d.runID, d.cfg.MaxNodes)

	d.seedRoot()

	deadline := time.Now().Add(d.cfg.MaxGenDuration())

	for d.g.NodeCount() < d.cfg.MaxNodes && time.Now().Before(deadline) {
		if err := d.attemptIteration(ctx); err != nil {
			return nil, nil, err
		}
	}

	if n := d.g.NodeCount(); n < d.cfg.MaxNodes {
		log.Printf("search: growth loop stopped at %d/%d nodes (wall clock exhausted)", n, d.cfg.MaxNodes)
	}

	d.g.Finalize(d.rng)

	outcome, model, err := smt.CheckWithDeadline(ctx, d.solver, nil, d.cfg.CheckTimeout())
	if err != nil {
		return nil, nil, err
	}

	if outcome != smt.Sat {
		return nil, nil, synerr.NewSanity("search: final satisfiability check returned %s", outcome)
	}

	return d.g, model, nil
}

// seedRoot adds the single initial placeholder backward insertion grows
// from, per spec.md §4.4's placeholder lifecycle: nothing can grow
// backward from an empty graph, so the frontier must start non-empty.
func (d *Driver) seedRoot() {
	rank := d.cfg.MinInputDims + d.rng.Intn(3)
	dims := make([]arith.Expr, rank)

	for i := range dims {
		dims[i] = d.b.NewSymbol("root_dim")
	}

	dt := d.cfg.DTypeWheel[d.rng.Intn(len(d.cfg.DTypeWheel))]
	d.g.AddPlaceholder(shape.New(d.b, dims, dt))
}

// attemptIteration picks one variant and retries it up to
// cfg.RetriesPerVariant times, choosing forward or backward insertion at
// random on each attempt per cfg.ForwardProb, before giving up on this iteration entirely. A
// *synerr.Sanity bubbles up and aborts the run; every other rejection is
// silently absorbed and the loop simply tries again next iteration.
func (d *Driver) attemptIteration(ctx context.Context) error {
	v := d.pickVariant()
	if v == nil {
		return nil
	}

	for attempt := 0; attempt < d.cfg.RetriesPerVariant; attempt++ {
		arity := v.Arity()
		if arity == opset.VariableArity {
			arity = 2 + d.rng.Intn(3)
		}

		inst := v.New(d.b, d.rng, arity)

		var (
			result *symgraph.InsertResult
			err    error
		)

		if d.rng.Float64() < d.cfg.ForwardProb {
			result, err = d.tryForward(ctx, v, inst, arity)
		} else {
			result, err = d.tryBackward(ctx, v, inst, arity)
		}

		if err != nil {
			if synerr.IsSanity(err) {
				return fmt.Errorf("search: %s: %w", v.Name(), err)
			}
			// *synerr.Constraint: this attempt is unsalvageable, move on.
			continue
		}

		if result == nil {
			// No compatible operands/placeholders existed for this variant
			// right now; try another attempt (a later one might pick a
			// different dtype tuple or arity) rather than another variant.
			continue
		}

		switch result.Outcome {
		case smt.Sat:
			d.unsolvable[pairKey{d.lastName, v.Name()}] = 0
			d.lastName = v.Name()

			return nil
		case smt.Unsat:
			continue
		default: // smt.Unknown: the check itself timed out.
			d.unsolvable[pairKey{d.lastName, v.Name()}]++
			continue
		}
	}

	return nil
}

func (d *Driver) admissibleTuples(v opset.Variant, arity int) []dtype.Tuple {
	if arity == 0 {
		return []dtype.Tuple{{}}
	}

	key := fmt.Sprintf("%s#%d", v.Name(), arity)
	if t, ok := d.tupleCache[key]; ok {
		return t
	}

	t := v.InDTypes(arity)
	if t == nil {
		t = opset.Infer(v, arity)
	}

	d.tupleCache[key] = t

	return t
}

func (d *Driver) tryForward(ctx context.Context, v opset.Variant, inst opset.Instance, arity int) (*symgraph.InsertResult, error) {
	if arity == 0 {
		return d.g.ForwardInsert(ctx, d.solver, d.cfg.CheckTimeout(), d.rng, inst, nil, d.budgetExtra)
	}

	tuples := d.admissibleTuples(v, arity)
	if len(tuples) == 0 {
		return nil, nil
	}

	alive := d.g.AliveShapes()
	ranks := v.InputRanks(arity)
	sameRank := v.SameInputRanks()

	for _, ti := range d.rng.Perm(len(tuples)) {
		chosen, ok := d.chooseInputs(alive, ranks, tuples[ti], sameRank)
		if !ok {
			continue
		}

		return d.g.ForwardInsert(ctx, d.solver, d.cfg.CheckTimeout(), d.rng, inst, chosen, d.budgetExtra)
	}

	return nil, nil
}

// chooseInputs picks one alive shape per input slot matching tuple's dtype
// and ranks' rank requirement. When sameRank holds (Concat), every slot is
// additionally restricted to one rank shared across all of them.
func (d *Driver) chooseInputs(alive []shape.Alive, ranks []int, tuple dtype.Tuple, sameRank bool) ([]symgraph.AliveID, bool) {
	n := len(tuple)
	bySlot := make([][]shape.Alive, n)

	for i := 0; i < n; i++ {
		for _, a := range alive {
			if a.Shape.DType != tuple[i] {
				continue
			}

			if ranks[i] != opset.AnyRank && a.Shape.Rank() != ranks[i] {
				continue
			}

			bySlot[i] = append(bySlot[i], a)
		}

		if len(bySlot[i]) == 0 {
			return nil, false
		}
	}

	if sameRank {
		counts := map[int]int{}

		for i := 0; i < n; i++ {
			seen := map[int]bool{}

			for _, a := range bySlot[i] {
				r := a.Shape.Rank()
				if !seen[r] {
					counts[r]++
					seen[r] = true
				}
			}
		}

		var common []int

		for r, c := range counts {
			if c == n {
				common = append(common, r)
			}
		}

		if len(common) == 0 {
			return nil, false
		}

		sort.Ints(common)
		r := common[d.rng.Intn(len(common))]

		for i := 0; i < n; i++ {
			var filtered []shape.Alive

			for _, a := range bySlot[i] {
				if a.Shape.Rank() == r {
					filtered = append(filtered, a)
				}
			}

			bySlot[i] = filtered
		}
	}

	out := make([]symgraph.AliveID, n)
	for i := 0; i < n; i++ {
		out[i] = bySlot[i][d.rng.Intn(len(bySlot[i]))].ID
	}

	return out, true
}

func (d *Driver) tryBackward(ctx context.Context, v opset.Variant, inst opset.Instance, arity int) (*symgraph.InsertResult, error) {
	if v.Arity() == opset.VariableArity {
		// BackwardInsert itself rejects variable-arity variants; see
		// symgraph.Graph.BackwardInsert's doc comment.
		return nil, nil
	}

	if v.OutputArity() != 1 {
		return nil, nil
	}

	tuples := d.admissibleTuples(v, arity)
	if len(tuples) == 0 {
		return nil, nil
	}

	placeholders := d.g.Placeholders()
	if len(placeholders) == 0 {
		return nil, nil
	}

	ranks := v.InputRanks(arity)

	for _, ti := range d.rng.Perm(len(tuples)) {
		tuple := tuples[ti]

		for _, pi := range d.rng.Perm(len(placeholders)) {
			target := placeholders[pi]

			result, err := d.g.BackwardInsert(
				ctx, d.solver, d.cfg.CheckTimeout(), d.rng, inst,
				tuple, []symgraph.AliveID{target}, ranks, d.budgetExtra,
			)
			if err != nil {
				if synerr.IsConstraint(err) {
					continue
				}

				return nil, err
			}

			if result.Outcome == smt.Sat || result.Outcome == smt.Unknown {
				return result, nil
			}
		}
	}

	return nil, nil
}

// pickVariant chooses one active variant under cfg.MergeOpWeighting.
// WeightV0 is uniform; WeightV1 splits one unit of mass evenly within a
// named family so a family with more registered members does not dominate
// selection; WeightLatest additionally discounts a candidate whose
// (predecessor, successor) pair has timed out (smt.Unknown) before without
// ever yet succeeding since.
func (d *Driver) pickVariant() opset.Variant {
	if len(d.active) == 0 {
		return nil
	}

	if d.cfg.MergeOpWeighting == config.WeightV0 {
		return d.active[d.rng.Intn(len(d.active))]
	}

	familyCount := map[string]int{}
	for _, v := range d.active {
		familyCount[family(v.Name())]++
	}

	weights := make([]float64, len(d.active))
	total := 0.0

	for i, v := range d.active {
		w := 1.0 / float64(familyCount[family(v.Name())])

		if d.cfg.MergeOpWeighting == config.WeightLatest {
			if d.unsolvable[pairKey{d.lastName, v.Name()}] > 0 {
				w *= 0.25
			}
		}

		weights[i] = w
		total += w
	}

	if total <= 0 {
		return d.active[d.rng.Intn(len(d.active))]
	}

	r := d.rng.Float64() * total

	for i, v := range d.active {
		r -= weights[i]
		if r <= 0 {
			return v
		}
	}

	return d.active[len(d.active)-1]
}

// family groups variant names the way spec.md §4.5's merge_op_weighting
// describes: semantically related variants share one unit of selection
// mass instead of each inflating it by how many of them happen to be
// registered.
func family(name string) string {
	switch name {
	case "ReLU", "Tanh", "Sigmoid", "Exp", "Log", "Sqrt", "Neg", "Abs", "Not":
		return "unary"
	case "Add", "Sub", "Mul", "Div", "Mod", "Eq", "Ne", "Lt", "Le", "Gt", "Ge", "And", "Or":
		return "binary"
	case "Sum", "Max", "Min", "Mean", "ArgMin", "ArgMax", "Squeeze":
		return "reduce"
	case "Reshape", "Transpose", "Slice", "Pad", "Concat":
		return "shape"
	case "Conv2D":
		return "conv"
	case "Cast":
		return "cast"
	case "Where":
		return "select"
	case "Constant", "Input":
		return "terminal"
	default:
		return name
	}
}

// budgetExtra returns the float-budget constraint for a candidate set of
// new/output shapes, under whichever discipline cfg.FloatBudgetMode names.
// BudgetGlobalSum bounds every currently-alive shape (of any dtype) plus the
// candidate's own contribution; BudgetPerOp bounds only the candidate's own
// contribution, independent of what is already alive. Both modes compare
// against the whole FloatBudgetMB.
func (d *Driver) budgetExtra(shapes []shape.TensorShape) []arith.Bool {
	limit := int64(d.cfg.FloatBudgetMB * 1024 * 1024)

	total := d.b.Const(0)

	if d.cfg.FloatBudgetMode == config.BudgetGlobalSum {
		for _, a := range d.g.AliveShapes() {
			total = d.addFloatBytes(total, a.Shape)
		}
	}

	for _, s := range shapes {
		total = d.addFloatBytes(total, s)
	}

	return []arith.Bool{d.b.Le(total, d.b.Const(limit))}
}

// addFloatBytes folds s's contribution (element count times its dtype's byte
// width) into total. Despite the name, this counts every dtype, not just
// floats: the original generator's n_floats accumulator sums
// s.nelement() with no dtype filter (nnsmith's graph_gen.py), and spec.md
// §8's Testable Property 7 states the same unconditional sum, so an
// Int32/Int64/Bool-heavy graph (reachable via ArgMin/ArgMax's forced Int64
// output, Cast, or the Input/Constant dtype wheel) must be charged against
// the budget exactly like a float-heavy one.
func (d *Driver) addFloatBytes(total arith.Expr, s shape.TensorShape) arith.Expr {
	bytes := d.b.Mul(s.NElement(), d.b.Const(int64(s.DType.ByteWidth())))

	return d.b.Add(total, bytes)
}
