// Package mathx holds the small integer helpers used by the divider and
// timing searches. Firmware maths here stays in unsigned integers.
package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b), or 0 when b is 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// RoundDiv returns a/b rounded half up, or 0 when b is 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// AbsDiff returns |a-b| without wrapping for unsigned operands.
func AbsDiff[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}

// WithinPPM reports whether got lies within ppm parts-per-million of want.
func WithinPPM(got, want, ppm uint64) bool {
	return AbsDiff(got, want)*1_000_000 <= want*ppm
}
