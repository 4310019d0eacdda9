// Package config is the generator's tuning surface (spec.md §6), built
// with the teacher's functional-option idiom: layers/core's
// FFNOption[T]/WithFFNBias[T] pattern (layers/core/ffn.go), generalized
// from "configure one layer's construction" to "configure one
// search.Driver run."
package config

import (
	"time"

	"github.com/synthgraph/symgen/dtype"
)

// FloatBudgetMode selects which of the two float-budget disciplines
// spec.md §9's first Open Question describes a driver run enforces. Only
// one mode applies per run; it is never toggled mid-run.
type FloatBudgetMode int

const (
	// BudgetGlobalSum bounds the running sum of nelement over every alive
	// shape.
	BudgetGlobalSum FloatBudgetMode = iota
	// BudgetPerOp bounds each new operator's own contribution by the
	// whole FloatBudgetMB, independent of what came before; the budget is
	// not divided among operators.
	BudgetPerOp
)

// MergeOpWeighting selects the variant-family weighting scheme (spec.md
// §6's merge_op_weighting).
type MergeOpWeighting int

const (
	// WeightV0 weights every variant equally, ignoring family grouping.
	WeightV0 MergeOpWeighting = iota
	// WeightV1 groups variants into named families (all Reshape arities,
	// all reductions, ...) and splits one unit of mass evenly within a
	// family, so adding more arities to one family does not inflate that
	// family's overall selection probability.
	WeightV1
	// WeightLatest is WeightV1 plus a bias away from (successor,
	// predecessor) variant pairs recorded as unsolvable by a prior
	// timeout (spec.md §4.5, §7).
	WeightLatest
)

// Config is the recognized tuning surface of spec.md §6's table. The zero
// value is not runnable; use New, which applies Defaults() first.
type Config struct {
	Seed int64

	MaxNodes  int
	MaxGenMS  int
	RetriesPerVariant int

	MinInputDims int

	UseBitvec bool
	BVSize    int // symbol width, or 0 to mean "random up to BVSizeRandomMax"
	BVSizeRandomMax int

	FloatBudgetMB   float64
	FloatBudgetMode FloatBudgetMode

	ForwardProb float64

	SkipOps []string

	MergeOpWeighting MergeOpWeighting

	// DTypeWheel is the dtype set Input/Constant placeholders are drawn
	// from; defaulted to dtype.All() but overridable so a run can be
	// restricted to, e.g., float32-only graphs.
	DTypeWheel []dtype.DType
}

// Defaults returns the baseline configuration before any Option is
// applied: 50 nodes, a five-second wall clock budget, p_forward 0.5,
// integer theory, global-sum float budget capped at 64 MiB, every
// registered operator variant in play.
func Defaults() Config {
	return Config{
		Seed:              1,
		MaxNodes:          50,
		MaxGenMS:          5000,
		RetriesPerVariant: 3,
		MinInputDims:      1,
		UseBitvec:         false,
		BVSize:            8,
		BVSizeRandomMax:   8,
		FloatBudgetMB:     64,
		FloatBudgetMode:   BudgetGlobalSum,
		ForwardProb:       0.5,
		MergeOpWeighting:  WeightV1,
		DTypeWheel:        dtype.All(),
	}
}

// Option mutates a Config in place, following the teacher's
// FFNOption[T]/WithFFNBias[T] convention (layers/core/ffn.go).
type Option func(*Config)

// New builds a Config from Defaults() with every opt applied in order.
func New(opts ...Option) Config {
	c := Defaults()
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

func WithSeed(seed int64) Option { return func(c *Config) { c.Seed = seed } }

func WithMaxNodes(n int) Option { return func(c *Config) { c.MaxNodes = n } }

// WithMaxGenDuration sets the growth loop's wall-clock budget.
func WithMaxGenDuration(d time.Duration) Option {
	return func(c *Config) { c.MaxGenMS = int(d.Milliseconds()) }
}

func WithMinInputDims(n int) Option { return func(c *Config) { c.MinInputDims = n } }

func WithBitvec(size int) Option {
	return func(c *Config) {
		c.UseBitvec = true
		c.BVSize = size
	}
}

func WithRandomBitvec(maxSize int) Option {
	return func(c *Config) {
		c.UseBitvec = true
		c.BVSize = 0
		c.BVSizeRandomMax = maxSize
	}
}

func WithFloatBudget(mb float64, mode FloatBudgetMode) Option {
	return func(c *Config) {
		c.FloatBudgetMB = mb
		c.FloatBudgetMode = mode
	}
}

func WithForwardProb(p float64) Option { return func(c *Config) { c.ForwardProb = p } }

func WithSkipOps(names ...string) Option {
	return func(c *Config) { c.SkipOps = append(c.SkipOps, names...) }
}

func WithMergeOpWeighting(w MergeOpWeighting) Option {
	return func(c *Config) { c.MergeOpWeighting = w }
}

func WithDTypeWheel(ds ...dtype.DType) Option {
	return func(c *Config) { c.DTypeWheel = ds }
}

// MaxGenDuration returns MaxGenMS as a time.Duration, for callers that
// want to thread it through context.WithTimeout.
func (c Config) MaxGenDuration() time.Duration {
	return time.Duration(c.MaxGenMS) * time.Millisecond
}

// CheckTimeout is the per-attempt solver deadline of spec.md §4.5:
// max_gen_ms / 3.
func (c Config) CheckTimeout() time.Duration {
	return c.MaxGenDuration() / 3
}

// SkipsOp reports whether name is in SkipOps.
func (c Config) SkipsOp(name string) bool {
	for _, s := range c.SkipOps {
		if s == name {
			return true
		}
	}

	return false
}
