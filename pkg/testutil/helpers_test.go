package testutil

import (
	"testing"

	"github.com/iwvelando/property-forecast/pkg/cashflow"
)

func TestFindYear(t *testing.T) {
	rows := []cashflow.CashflowYear{
		{Year: 1, Cashflow: 100},
		{Year: 2, Cashflow: 200},
	}

	tests := []struct {
		name     string
		year     int
		expected float64
		found    bool
	}{
		{"First year", 1, 100, true},
		{"Second year", 2, 200, true},
		{"Beyond horizon", 3, 0, false},
		{"Year zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := FindYear(rows, tt.year)
			if (row != nil) != tt.found {
				t.Fatalf("FindYear(%d) found = %v, expected %v", tt.year, row != nil, tt.found)
			}
			if row != nil && row.Cashflow != tt.expected {
				t.Errorf("FindYear(%d).Cashflow = %v, expected %v", tt.year, row.Cashflow, tt.expected)
			}
		})
	}

	if FindYear(nil, 1) != nil {
		t.Error("expected nil for empty rows")
	}
}

func TestAssertClose(t *testing.T) {
	AssertClose(t, "within tolerance", 100.4, 100, 0.5)
}

func TestAssertNonIncreasing(t *testing.T) {
	AssertNonIncreasing(t, "balance", []float64{300, 200, 200, 0}, 0)
	AssertNonIncreasing(t, "empty", nil, 0)
}
