package scene

import "math"

// Vec is a 2- or 3-component property value (position, anchor, scale, point
// parameters). Slider parameters are stored as a one-component Vec.
type Vec []float64

// Dim returns the number of components.
func (v Vec) Dim() int { return len(v) }

// At returns component i, or 0 when v has fewer components.
func (v Vec) At(i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// Clone returns an independent copy of v.
func (v Vec) Clone() Vec {
	if v == nil {
		return nil
	}
	out := make(Vec, len(v))
	copy(out, v)
	return out
}

// Add returns v+w. The shorter operand is padded with zeros.
func (v Vec) Add(w Vec) Vec {
	n := max(len(v), len(w))
	out := make(Vec, n)
	for i := range out {
		out[i] = v.At(i) + w.At(i)
	}
	return out
}

// Sub returns v-w. The shorter operand is padded with zeros.
func (v Vec) Sub(w Vec) Vec {
	n := max(len(v), len(w))
	out := make(Vec, n)
	for i := range out {
		out[i] = v.At(i) - w.At(i)
	}
	return out
}

// Length returns the Euclidean norm of v.
func (v Vec) Length() float64 {
	var sum float64
	for _, c := range v {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// Distance returns |v-w|.
func Distance(v, w Vec) float64 {
	return v.Sub(w).Length()
}

// Equal reports whether v and w have the same components.
func (v Vec) Equal(w Vec) bool {
	if len(v) != len(w) {
		return false
	}
	for i := range v {
		if v[i] != w[i] {
			return false
		}
	}
	return true
}

// Uniform returns a Vec of n components all set to x.
func Uniform(x float64, n int) Vec {
	out := make(Vec, n)
	for i := range out {
		out[i] = x
	}
	return out
}
