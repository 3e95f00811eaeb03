// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/property-forecast/pkg/cashflow"
)

// FindYear finds the cashflow row of a 1-based projection year.
// Returns a pointer to the row if found, nil otherwise.
func FindYear(rows []cashflow.CashflowYear, year int) *cashflow.CashflowYear {
	for i := range rows {
		if rows[i].Year == year {
			return &rows[i]
		}
	}
	return nil
}

// AssertClose fails the test when got and expected differ by more than
// tolerance.
func AssertClose(t testing.TB, name string, got, expected, tolerance float64) {
	t.Helper()
	if math.Abs(got-expected) > tolerance {
		t.Errorf("%s = %v, expected %v (tolerance %v)", name, got, expected, tolerance)
	}
}

// AssertNonIncreasing fails the test at the first index where values rises
// by more than tolerance.
func AssertNonIncreasing(t testing.TB, name string, values []float64, tolerance float64) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1]+tolerance {
			t.Errorf("%s[%d] = %v rises above %v", name, i, values[i], values[i-1])
			return
		}
	}
}
