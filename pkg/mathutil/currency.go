// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundYen rounds a value to whole currency units, halves away from zero.
func RoundYen(val float64) float64 {
	return math.Round(val)
}

// RoundPlaces rounds a value to the given number of decimal places using
// decimal arithmetic so that values such as 0.0455 do not drift below the
// midpoint in binary floating point.
func RoundPlaces(val float64, places int) float64 {
	f, _ := decimal.NewFromFloat(val).Round(int32(places)).Float64()
	return f
}

// ScaleRound multiplies n by factor and rounds half away from zero to an
// integer. The product is computed in decimal so 15 * 0.2 is exactly 3.
func ScaleRound(n int, factor float64) int {
	product := decimal.NewFromInt(int64(n)).Mul(decimal.NewFromFloat(factor))
	return int(product.Round(0).IntPart())
}

// NormalizeRate accepts a rate given either as a percentage (3.5) or as a
// decimal (0.035) and returns the decimal form. Values whose magnitude
// exceeds 1 are treated as percentages.
func NormalizeRate(rate float64) float64 {
	if math.Abs(rate) > 1 {
		return rate / constants.PercentageMultiplier
	}
	return rate
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp limits val to the closed interval [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Sum adds all values in the slice.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
