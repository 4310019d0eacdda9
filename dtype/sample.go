package dtype

import (
	"github.com/zerfoo/float16"
	"github.com/zerfoo/float8"
)

// Sample produces n dummy elements of dtype d, encoded as Go `any` values,
// for use by the operator algebra's one-time dtype-inference pass: that
// pass instantiates an operator's concrete backend on small dummy tensors
// of candidate dtypes and records which input-dtype tuples succeed. The
// values are deliberately small and nonzero so that division-like probes
// do not trivially degenerate.
func Sample(d DType, n int) []any {
	out := make([]any, n)

	for i := range out {
		v := float32(i%3) + 1 // 1, 2, 3, 1, 2, 3, ...

		switch d {
		case Bool:
			out[i] = i%2 == 0
		case Int32:
			out[i] = int32(v)
		case Int64:
			out[i] = int64(v)
		case Float16:
			out[i] = float16.FromFloat32(v)
		case Float32:
			out[i] = v
		case Float64:
			out[i] = float64(v)
		case Float8:
			out[i] = float8.ToFloat8(v)
		default:
			panic("dtype: Sample called with unknown dtype")
		}
	}

	return out
}
