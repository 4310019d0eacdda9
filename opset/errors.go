package opset

import (
	"github.com/synthgraph/symgen/dtype"
	"github.com/synthgraph/symgen/synerr"
)

func errDTypeMismatch(op string, a, b dtype.DType) error {
	return synerr.NewConstraint("%s: operand dtypes %s and %s do not match", op, a, b)
}

func errRankMismatch(op string, want, got int) error {
	return synerr.NewConstraint("%s: expected rank %d, got %d", op, want, got)
}
