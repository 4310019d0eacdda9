package smt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthgraph/symgen/arith"
)

func TestCheckWithDeadlineReturnsFastResult(t *testing.T) {
	b := arith.NewBuilder(arith.ModeInt, 0)
	x := b.NewSymbol("x")

	s := NewStub(nil)
	s.Assert(b.Gt(x, b.Const(0)))

	outcome, model, err := CheckWithDeadline(context.Background(), s, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Sat, outcome)
	assert.NotNil(t, model)
}

// slowSolver never returns from CheckAssuming before its context is
// cancelled, simulating a solver backend with no cooperative deadline —
// exactly the case the worker-termination protocol exists to handle.
type slowSolver struct{}

func (slowSolver) Assert(arith.Bool) {}

func (slowSolver) CheckAssuming(ctx context.Context, _ []arith.Bool) (Outcome, Model, error) {
	<-ctx.Done()
	return Unknown, nil, ctx.Err()
}

func (slowSolver) Close() {}

func TestCheckWithDeadlineTimesOutAsUnknown(t *testing.T) {
	outcome, model, err := CheckWithDeadline(context.Background(), slowSolver{}, nil, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Unknown, outcome)
	assert.Nil(t, model)
}
