package utils

import "golang.org/x/exp/constraints"

// Clamp constrains v to the range [minVal, maxVal].
func Clamp[T constraints.Ordered](v, minVal, maxVal T) T {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// MapLinear maps v from [inMin, inMax] onto [outMin, outMax]. Values outside the
// input range extrapolate instead of clamping.
func MapLinear(v, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// Lerp interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// ClampIndex bounds idx to the valid range for a slice of length.
func ClampIndex(idx, length int) int {
	if length <= 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}

// ChannelByte converts a colour channel that may be overdriven into a byte.
func ChannelByte(v float64) uint8 {
	return uint8(Clamp(v, 0.0, 255.0) + 0.5)
}
