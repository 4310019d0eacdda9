package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/synthgraph/symgen/dtype"
)

func TestDefaultsAreRunnable(t *testing.T) {
	c := Defaults()
	assert.Equal(t, 50, c.MaxNodes)
	assert.Equal(t, BudgetGlobalSum, c.FloatBudgetMode)
	assert.NotEmpty(t, c.DTypeWheel)
}

func TestNewAppliesOptionsInOrder(t *testing.T) {
	c := New(
		WithSeed(42),
		WithMaxNodes(10),
		WithForwardProb(0.75),
	)

	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 10, c.MaxNodes)
	assert.Equal(t, 0.75, c.ForwardProb)
}

func TestWithBitvecSetsFixedSize(t *testing.T) {
	c := New(WithBitvec(16))
	assert.True(t, c.UseBitvec)
	assert.Equal(t, 16, c.BVSize)
}

func TestWithRandomBitvecZeroesSize(t *testing.T) {
	c := New(WithRandomBitvec(24))
	assert.True(t, c.UseBitvec)
	assert.Equal(t, 0, c.BVSize, "BVSize 0 signals the driver to roll a width at run time")
	assert.Equal(t, 24, c.BVSizeRandomMax)
}

func TestMaxGenDurationAndCheckTimeout(t *testing.T) {
	c := New(WithMaxGenDuration(9 * time.Second))
	assert.Equal(t, 9*time.Second, c.MaxGenDuration())
	assert.Equal(t, 3*time.Second, c.CheckTimeout())
}

func TestSkipsOp(t *testing.T) {
	c := New(WithSkipOps("Conv2D", "Pad"))
	assert.True(t, c.SkipsOp("Conv2D"))
	assert.True(t, c.SkipsOp("Pad"))
	assert.False(t, c.SkipsOp("Add"))
}

func TestWithDTypeWheelOverridesDefault(t *testing.T) {
	c := New(WithDTypeWheel(dtype.Float32))
	assert.Equal(t, []dtype.DType{dtype.Float32}, c.DTypeWheel)
}
