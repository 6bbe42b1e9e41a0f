package formula

import "math"

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// easeOutUnit is the cubic Hermite with tangent 1 at 0 and tangent 0 at 1.
func easeOutUnit(u float64) float64 {
	return u + u*u - u*u*u
}

// easeInUnit mirrors easeOutUnit: tangent 0 at 0, tangent 1 at 1.
func easeInUnit(u float64) float64 {
	return 2*u*u - u*u*u
}

// easeUnit is smoothstep: tangent 0 at both ends.
func easeUnit(u float64) float64 {
	return u * u * (3 - 2*u)
}

func linearUnit(u float64) float64 { return u }

// interp maps t from [tMin, tMax] onto [v1, v2] through curve. Inputs
// outside the range clamp to the nearer end; t at or below tMin yields v1
// even when the range is empty.
func interp(t, tMin, tMax, v1, v2 float64, curve func(float64) float64) float64 {
	if t <= tMin {
		return v1
	}
	if t >= tMax {
		return v2
	}
	u := (t - tMin) / (tMax - tMin)
	return v1 + (v2-v1)*curve(u)
}

// Linear interpolates linearly.
func Linear(t, tMin, tMax, v1, v2 float64) float64 {
	return interp(t, tMin, tMax, v1, v2, linearUnit)
}

// Ease interpolates with zero tangents at both ends.
func Ease(t, tMin, tMax, v1, v2 float64) float64 {
	return interp(t, tMin, tMax, v1, v2, easeUnit)
}

// EaseIn interpolates with a zero tangent at tMin only.
func EaseIn(t, tMin, tMax, v1, v2 float64) float64 {
	return interp(t, tMin, tMax, v1, v2, easeInUnit)
}

// EaseOut interpolates with a zero tangent at tMax only.
func EaseOut(t, tMin, tMax, v1, v2 float64) float64 {
	return interp(t, tMin, tMax, v1, v2, easeOutUnit)
}
