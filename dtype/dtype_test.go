package dtype

import "testing"

func TestByteWidth(t *testing.T) {
	cases := map[DType]int{
		Bool:    1,
		Float8:  1,
		Float16: 2,
		Int32:   4,
		Float32: 4,
		Int64:   8,
		Float64: 8,
	}

	for d, want := range cases {
		if got := d.ByteWidth(); got != want {
			t.Errorf("%v.ByteWidth() = %d, want %d", d, got, want)
		}
	}
}

func TestSubsets(t *testing.T) {
	if len(All()) != 7 {
		t.Errorf("All() length = %d, want 7", len(All()))
	}

	for _, d := range NonBool() {
		if d == Bool {
			t.Errorf("NonBool() contains Bool")
		}
	}

	for _, d := range Floats() {
		if !d.IsFloat() {
			t.Errorf("Floats() contains non-float %v", d)
		}
	}

	for _, d := range Ints() {
		if !d.IsInt() {
			t.Errorf("Ints() contains non-int %v", d)
		}
	}
}

func TestTupleEqual(t *testing.T) {
	a := Tuple{Float32, Float32}
	b := Tuple{Float32, Float32}
	c := Tuple{Float32, Int32}

	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}

	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}

	if a.Equal(Tuple{Float32}) {
		t.Errorf("expected length mismatch to not be equal")
	}
}

func TestSample(t *testing.T) {
	for _, d := range All() {
		vals := Sample(d, 4)
		if len(vals) != 4 {
			t.Errorf("Sample(%v, 4) returned %d values", d, len(vals))
		}
	}
}
