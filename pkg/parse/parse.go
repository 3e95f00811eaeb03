// Package parse converts loosely-typed configuration values into numbers.
// Parsing never fails: malformed input yields the caller's default.
package parse

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Float parses value into a float64. Strings may carry thousands separators
// ("35,654,400"). Nil, empty, or malformed values return def.
func Float(value interface{}, def float64) float64 {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok {
		cleaned := clean(s)
		if cleaned == "" {
			return def
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return def
		}
		return f
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return def
	}
	return f
}

// Int parses value into an int with the same rules as Float. Fractional
// numeric values are truncated; fractional strings are malformed.
func Int(value interface{}, def int) int {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok {
		cleaned := clean(s)
		if cleaned == "" {
			return def
		}
		n, err := strconv.Atoi(cleaned)
		if err != nil {
			return def
		}
		return n
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return def
	}
	return n
}

// Floats parses each element of a list with Float, substituting def for
// malformed elements. A scalar is treated as a one-element list.
func Floats(value interface{}, def float64) []float64 {
	if value == nil {
		return nil
	}
	if floats, ok := value.([]float64); ok {
		return append([]float64(nil), floats...)
	}
	items, err := cast.ToSliceE(value)
	if err != nil {
		return []float64{Float(value, def)}
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		out = append(out, Float(item, def))
	}
	return out
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
