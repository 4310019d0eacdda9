package synerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanityIsClassifiedCorrectly(t *testing.T) {
	err := NewSanity("rank mismatch %d vs %d", 2, 3)

	assert.True(t, IsSanity(err))
	assert.False(t, IsConstraint(err))
	assert.Contains(t, err.Error(), "rank mismatch 2 vs 3")
}

func TestConstraintIsClassifiedCorrectly(t *testing.T) {
	err := NewConstraint("dimension %d is not positive", -1)

	assert.True(t, IsConstraint(err))
	assert.False(t, IsSanity(err))
	assert.Contains(t, err.Error(), "dimension -1 is not positive")
}

func TestUnrelatedErrorIsNeitherKind(t *testing.T) {
	err := errors.New("boring error")

	assert.False(t, IsSanity(err))
	assert.False(t, IsConstraint(err))
}
