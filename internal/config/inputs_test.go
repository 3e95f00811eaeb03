package config

import (
	"math"
	"testing"

	"github.com/iwvelando/property-forecast/pkg/constants"
)

func TestAssets(t *testing.T) {
	tests := []struct {
		name              string
		buildingCost      float64
		equipmentCost     float64
		expectedBuilding  float64
		expectedEquipment float64
	}{
		{"Combined cost is split", 10000000, 0, 8500000, 1500000},
		{"Separate costs are kept", 10000000, 2500000, 10000000, 2500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Configuration{
				ElapsedYears: 15,
				Building:     AssetConfig{Cost: tt.buildingCost, StatutoryLife: 34},
				Equipment:    AssetConfig{Cost: tt.equipmentCost, StatutoryLife: 15},
			}
			building, equipment := c.Assets()
			if math.Abs(building.Cost-tt.expectedBuilding) > 1e-6 || math.Abs(equipment.Cost-tt.expectedEquipment) > 1e-6 {
				t.Errorf("Assets() costs = (%v, %v), expected (%v, %v)",
					building.Cost, equipment.Cost, tt.expectedBuilding, tt.expectedEquipment)
			}
			if building.ElapsedYears != 15 || equipment.StatutoryLife != 15 {
				t.Errorf("unexpected assets %+v %+v", building, equipment)
			}
		})
	}
}

func TestTaxInputFallbacks(t *testing.T) {
	tests := []struct {
		name             string
		config           Configuration
		expectedLand     float64
		expectedBuilding float64
	}{
		{
			name: "Explicit assessed values",
			config: Configuration{
				Tax:      TaxConfig{LandAssessedValue: 88559000, BuildingAssessedValue: 35654400},
				Building: AssetConfig{Cost: 50000000},
			},
			expectedLand:     88559000,
			expectedBuilding: 35654400,
		},
		{
			name:             "Building cost without equipment",
			config:           Configuration{Building: AssetConfig{Cost: 40000000}},
			expectedLand:     8000000,
			expectedBuilding: 34000000,
		},
		{
			name:             "Building cost with equipment",
			config:           Configuration{Building: AssetConfig{Cost: 40000000}, Equipment: AssetConfig{Cost: 5000000}},
			expectedLand:     8000000,
			expectedBuilding: 40000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.config.TaxInput([]float64{0.9})
			if math.Abs(in.LandAssessedValue-tt.expectedLand) > 1e-6 {
				t.Errorf("LandAssessedValue = %v, expected %v", in.LandAssessedValue, tt.expectedLand)
			}
			if math.Abs(in.BuildingAssessedValue-tt.expectedBuilding) > 1e-6 {
				t.Errorf("BuildingAssessedValue = %v, expected %v", in.BuildingAssessedValue, tt.expectedBuilding)
			}
			if len(in.Corrections) != 1 {
				t.Errorf("Corrections = %v, expected the supplied series", in.Corrections)
			}
		})
	}
}

func TestIncomeInputSeries(t *testing.T) {
	c := Configuration{
		Years: 4,
		Income: IncomeConfig{
			MonthlyRent:     80000,
			Units:           6,
			RentChangeRates: []float64{0.01, 0.02},
			RentChange:      &TrendConfig{Initial: 0.5},
			Vacancy:         &TrendConfig{Initial: 0.1, Trend: 1},
		},
		RoundToYen: true,
	}

	in := c.IncomeInput()
	expectedRent := []float64{0.01, 0.02, 0.02, 0.02}
	expectedVacancy := []float64{0.1, 0.2, 0.4, 0.8}
	for i := 0; i < 4; i++ {
		if in.RentChangeRates[i] != expectedRent[i] {
			t.Errorf("rent change[%d] = %v, expected %v", i, in.RentChangeRates[i], expectedRent[i])
		}
		if math.Abs(in.VacancyRates[i]-expectedVacancy[i]) > 1e-12 {
			t.Errorf("vacancy[%d] = %v, expected %v", i, in.VacancyRates[i], expectedVacancy[i])
		}
	}
	if in.Units != 6 || !in.RoundToYen {
		t.Errorf("unexpected income input %+v", in)
	}
}

func TestLoanTerms(t *testing.T) {
	c := Configuration{
		Loan: LoanConfig{
			Principal:         30000000,
			AnnualRate:        1.2,
			Years:             25,
			StartMonth:        10,
			Method:            constants.MethodEqualPrincipal,
			CalendarAlignment: constants.AlignmentAnniversary,
		},
	}
	terms := c.LoanTerms()
	if terms == nil {
		t.Fatal("expected loan terms")
	}
	if terms.TermYears != 25 || terms.StartMonth != 10 || terms.Method != constants.MethodEqualPrincipal {
		t.Errorf("unexpected terms %+v", terms)
	}

	c.Loan.Principal = 0
	if c.LoanTerms() != nil {
		t.Error("expected nil terms without a principal")
	}
}

func TestOptimizerConfig(t *testing.T) {
	floatPtr := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		config    OptimizerConfig
		wantField string
		wantError bool
	}{
		{"Default field is monthly rent", OptimizerConfig{Min: floatPtr(10000), Max: floatPtr(200000)}, constants.OptimizerFieldMonthlyRent, false},
		{"Alias for rent", OptimizerConfig{Field: "Rent", Min: floatPtr(0), Max: floatPtr(1)}, constants.OptimizerFieldMonthlyRent, false},
		{"Ratio gets default bounds", OptimizerConfig{Field: "initialCapitalRatio"}, constants.OptimizerFieldInitialCapitalRatio, false},
		{"Rent requires bounds", OptimizerConfig{Field: "monthly_rent"}, constants.OptimizerFieldMonthlyRent, true},
		{"Inverted bounds", OptimizerConfig{Min: floatPtr(5), Max: floatPtr(1)}, constants.OptimizerFieldMonthlyRent, true},
		{"Ratio outside unit interval", OptimizerConfig{Field: "initial_capital_ratio", Max: floatPtr(2)}, constants.OptimizerFieldInitialCapitalRatio, true},
		{"Unsupported field", OptimizerConfig{Field: "units"}, "units", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Fatalf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
			if config.Field != tt.wantField {
				t.Errorf("Field = %q, expected %q", config.Field, tt.wantField)
			}
			if !tt.wantError && (config.Tolerance <= 0 || config.MaxIterations <= 0) {
				t.Errorf("defaults not applied: %+v", config)
			}
		})
	}
}
