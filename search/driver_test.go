package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/config"
	"github.com/synthgraph/symgen/opset"
	"github.com/synthgraph/symgen/smt"
)

// fixedAllocator resolves every otherwise-unbound symbol to the same small
// positive value, which is enough to satisfy the positivity/shape-match
// constraints every variant in this package emits.
func fixedAllocator(v int64) func(string) int64 {
	return func(string) int64 { return v }
}

func TestRunReturnsFinalizedGraphAndModel(t *testing.T) {
	cfg := config.New(
		config.WithSeed(1),
		config.WithMaxNodes(6),
		config.WithMaxGenDuration(2000000000), // 2s in ns, avoids importing time in this literal
	)

	solver := smt.NewStub(fixedAllocator(3))
	driver := NewDriver(cfg, solver, DefaultVariants(cfg))

	g, model, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, model)

	assert.GreaterOrEqual(t, g.NodeCount(), 1)
	assert.Empty(t, g.Placeholders(), "Run must finalize every placeholder before returning")
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	cfg := config.New(config.WithSeed(99), config.WithMaxNodes(5))

	runOnce := func() []string {
		solver := smt.NewStub(fixedAllocator(2))
		driver := NewDriver(cfg, solver, DefaultVariants(cfg))

		g, _, err := driver.Run(context.Background())
		require.NoError(t, err)

		var opTypes []string
		for id := 0; ; id++ {
			n, ok := g.Node(id)
			if !ok && id > g.NodeCount()+len(g.Placeholders())+5 {
				break
			}

			if ok && n.Op != nil {
				opTypes = append(opTypes, n.Op.OpType())
			}
		}

		return opTypes
	}

	a := runOnce()
	b := runOnce()
	assert.Equal(t, a, b, "same seed and same Stub allocator must grow an identical op sequence")
}

func TestSkipOpsExcludesVariantFromSelection(t *testing.T) {
	cfg := config.New(config.WithSeed(1), config.WithSkipOps("Conv2D"))

	solver := smt.NewStub(fixedAllocator(3))
	driver := NewDriver(cfg, solver, DefaultVariants(cfg))

	for _, v := range driver.active {
		assert.NotEqual(t, "Conv2D", v.Name())
	}
}

func TestDefaultVariantsRegistersEveryFamily(t *testing.T) {
	cfg := config.Defaults()
	variants := DefaultVariants(cfg)

	names := map[string]bool{}
	for _, v := range variants {
		names[v.Name()] = true
	}

	for _, want := range []string{"Reshape", "Slice", "Conv2D", "Pad", "Transpose", "Concat", "Cast", "Where", "Constant", "Input", "ReLU", "Add", "Sum"} {
		assert.True(t, names[want], "expected %s to be registered", want)
	}
}

func TestFamilyGroupsKnownVariants(t *testing.T) {
	assert.Equal(t, "unary", family("ReLU"))
	assert.Equal(t, "binary", family("Add"))
	assert.Equal(t, "reduce", family("ArgMax"))
	assert.Equal(t, "shape", family("Concat"))
	assert.Equal(t, "terminal", family("Input"))
	assert.Equal(t, "Frobnicate", family("Frobnicate"), "an unrecognized name falls back to itself")
}

func TestAdmissibleTuplesCachesInferredResult(t *testing.T) {
	cfg := config.Defaults()
	solver := smt.NewStub(nil)
	driver := NewDriver(cfg, solver, DefaultVariants(cfg))

	reshape := findVariant(t, driver.active, "Reshape")

	first := driver.admissibleTuples(reshape, 1)
	require.NotEmpty(t, first)

	second := driver.admissibleTuples(reshape, 1)
	assert.Equal(t, first, second)
}

func findVariant(t *testing.T, variants []opset.Variant, name string) opset.Variant {
	t.Helper()

	for _, v := range variants {
		if v.Name() == name {
			return v
		}
	}

	t.Fatalf("variant %q not found", name)
	return nil
}
