// Package dtype provides the fixed, extensible element-type enumeration shared
// by the shape model and the operator algebra. It plays the role the numeric
// package plays for concrete tensor math (one dispatch point per backing
// type), but for symbolic graph generation the only thing a dtype needs to
// carry is identity, an ordering, a byte width, and subset membership.
package dtype

import "fmt"

// DType identifies the element type of a tensor shape. The zero value is not
// a valid dtype; use one of the named constants.
type DType int

const (
	invalid DType = iota
	Bool
	Int32
	Int64
	Float16
	Float32
	Float64
	Float8
)

// all is the fixed, ordered enumeration. Index order matters: it is the order
// operator-variant weighting and dtype-combination enumeration iterate in.
var all = []DType{Bool, Int32, Int64, Float16, Float32, Float64, Float8}

// String implements fmt.Stringer.
func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float8:
		return "float8"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// ByteWidth returns the number of bytes one element of this dtype occupies,
// used by the search driver's float-budget accounting.
func (d DType) ByteWidth() int {
	switch d {
	case Bool, Float8:
		return 1
	case Float16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("dtype: unknown byte width for %v", d))
	}
}

// IsFloat reports whether d is one of the floating-point dtypes.
func (d DType) IsFloat() bool {
	switch d {
	case Float16, Float32, Float64, Float8:
		return true
	default:
		return false
	}
}

// IsInt reports whether d is one of the integer dtypes.
func (d DType) IsInt() bool {
	return d == Int32 || d == Int64
}

// Valid reports whether d is one of the declared enumeration members.
func (d DType) Valid() bool {
	for _, x := range all {
		if x == d {
			return true
		}
	}

	return false
}

// All returns every declared dtype, in enumeration order.
func All() []DType {
	out := make([]DType, len(all))
	copy(out, all)

	return out
}

// NonBool returns every dtype except Bool.
func NonBool() []DType {
	out := make([]DType, 0, len(all)-1)
	for _, d := range all {
		if d != Bool {
			out = append(out, d)
		}
	}

	return out
}

// Floats returns every floating-point dtype.
func Floats() []DType {
	out := make([]DType, 0, 4)
	for _, d := range all {
		if d.IsFloat() {
			out = append(out, d)
		}
	}

	return out
}

// Ints returns every integer dtype.
func Ints() []DType {
	out := make([]DType, 0, 2)
	for _, d := range all {
		if d.IsInt() {
			out = append(out, d)
		}
	}

	return out
}

// Tuple is an admissible input-dtype combination for an operator variant: one
// entry per input slot, matching the variant's declared arity.
type Tuple []DType

// Equal reports whether two tuples name the same dtypes in the same order.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}

	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}

	return true
}
