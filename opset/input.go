package opset

import "github.com/synthgraph/symgen/dtype"

// NewInput returns the Input variant: a zero-arity operator identical to
// Constant except that finalization and the materializer treat it as a
// named model input instead of a baked-in value.
func NewInput(maxRank int, dtypeWheel []dtype.DType) Variant {
	return &nullaryVariant{opType: "Input", maxRank: maxRank, dtypeWheel: dtypeWheel}
}
