package config

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/validation"
)

const minimalConfig = `
purchase_price: 50000000
income:
  monthly_rent: 60000
  units: 8
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Shared test fixture",
			configPath: "../../test/test_config.yaml",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			if config == nil {
				t.Fatal("LoadConfiguration() returned nil config")
			}
			if err := config.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestLoadConfigurationFixture(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.PurchasePrice == nil || *config.PurchasePrice != 120000000 {
		t.Errorf("PurchasePrice = %v, expected 120000000", config.PurchasePrice)
	}
	if config.Building.Cost != 35654400 || config.Tax.LandAssessedValue != 88559000 {
		t.Errorf("thousands separators not parsed: building %v land %v", config.Building.Cost, config.Tax.LandAssessedValue)
	}
	if config.Income.MonthlyRent != 85000 {
		t.Errorf("MonthlyRent = %v, expected 85000", config.Income.MonthlyRent)
	}
	if config.Tax.LandResidentialSpecial != constants.ResidentialSpecialOn {
		t.Errorf("LandResidentialSpecial = %q, expected %q", config.Tax.LandResidentialSpecial, constants.ResidentialSpecialOn)
	}
	if config.Tax.Units != 12 {
		t.Errorf("tax units = %d, expected to default to income units", config.Tax.Units)
	}
	if math.Abs(config.Loan.Principal-96000000) > 1e-6 {
		t.Errorf("loan principal = %v, expected 96000000", config.Loan.Principal)
	}
	if len(config.Loan.RateSchedule) != 2 || config.Loan.RateSchedule[1].AnnualRate != 2.5 {
		t.Errorf("unexpected rate schedule %+v", config.Loan.RateSchedule)
	}
	if config.Expenses.ManagementFeeRate == nil || *config.Expenses.ManagementFeeRate != 5 {
		t.Errorf("ManagementFeeRate = %v, expected 5", config.Expenses.ManagementFeeRate)
	}
	if config.Income.RentChange == nil || config.Income.RentChange.Initial != -0.005 {
		t.Errorf("RentChange = %+v, expected initial -0.005", config.Income.RentChange)
	}
	if config.Optimizer == nil || config.Optimizer.Field != constants.OptimizerFieldMonthlyRent {
		t.Errorf("Optimizer = %+v, expected monthly_rent optimizer", config.Optimizer)
	}

	expected := filepath.Join("../../test", "data/repairs_plan.csv")
	if got := config.ResolvePath(config.Expenses.RepairsPlanCSV); got != expected {
		t.Errorf("ResolvePath() = %q, expected %q", got, expected)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Years", config.Years, constants.DefaultProjectionYears},
		{"Initial capital ratio", config.InitialCapitalRatio, constants.DefaultInitialCapitalRatio},
		{"Gross yield", config.GrossYield, constants.DefaultGrossYield},
		{"Capital gains tax", config.CapitalGainsTaxRate, constants.DefaultCapitalGainsTaxRate},
		{"Round to yen", config.RoundToYen, true},
		{"Loan method", config.Loan.Method, constants.DefaultLoanMethod},
		{"Loan alignment", config.Loan.CalendarAlignment, constants.DefaultCalendarAlignment},
		{"Loan start month", config.Loan.StartMonth, constants.DefaultStartMonth},
		{"Building life", config.Building.StatutoryLife, constants.DefaultBuildingStatutoryLife},
		{"Equipment life", config.Equipment.StatutoryLife, constants.DefaultEquipmentStatutoryLife},
		{"Fixed asset rate", config.Tax.FixedAssetRate, constants.DefaultFixedAssetRate},
		{"City plan rate", config.Tax.CityPlanRate, constants.DefaultCityPlanRate},
		{"Residential special", config.Tax.LandResidentialSpecial, constants.ResidentialSpecialOn},
		{"Tax units", config.Tax.Units, 8},
		{"Output format", config.Output.Format, constants.OutputFormatPretty},
		{"Financed", config.Financed(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
	if config.LoanTerms() != nil {
		t.Error("expected no loan terms without loan years")
	}
}

func TestLoadConfigurationDerivedValues(t *testing.T) {
	input := `
purchase_price: 10000000
initial_capital_ratio: 0.3
loan:
  years: 20
income:
  annual_rent: "1,200,000"
  units: 0
tax:
  land_residential_special: "AUTO"
expenses:
  insurance: "not a number"
`
	config, err := LoadConfigurationFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Income.MonthlyRent != 100000 {
		t.Errorf("MonthlyRent = %v, expected annual rent / 12", config.Income.MonthlyRent)
	}
	if config.Income.Units != 1 {
		t.Errorf("Units = %d, expected 1", config.Income.Units)
	}
	if math.Abs(config.Loan.Principal-7000000) > 1e-6 {
		t.Errorf("Principal = %v, expected 7000000", config.Loan.Principal)
	}
	if !config.Financed() {
		t.Error("expected the purchase to be financed")
	}
	if config.Tax.LandResidentialSpecial != constants.ResidentialSpecialAuto {
		t.Errorf("LandResidentialSpecial = %q, expected auto", config.Tax.LandResidentialSpecial)
	}
	if config.Expenses.Insurance != 0 {
		t.Errorf("Insurance = %v, expected malformed value to fall back to 0", config.Expenses.Insurance)
	}
}

func TestLoadConfigurationEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROPERTY_FORECAST_GROSS_YIELD", "0.05")
	t.Setenv("DEPRECIATION_RATES_CSV", "/srv/rates.csv")

	config, err := LoadConfigurationFromReader(strings.NewReader(minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.GrossYield != 0.05 {
		t.Errorf("GrossYield = %v, expected 0.05 from the environment", config.GrossYield)
	}
	if config.Depreciation.RatesCSV != "/srv/rates.csv" {
		t.Errorf("RatesCSV = %q, expected /srv/rates.csv from the environment", config.Depreciation.RatesCSV)
	}
}

func TestValidate(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader("income:\n  monthly_rent: 1000\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if err := config.Validate(); !errors.Is(err, validation.ErrMissingConfiguration) {
		t.Errorf("Validate() error = %v, expected ErrMissingConfiguration", err)
	}

	config, err = LoadConfigurationFromReader(strings.NewReader(
		"purchase_price: 10000000\nloan:\n  principal: -3000000\n  years: 10\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Loan.Principal != -3000000 {
		t.Errorf("Principal = %v, expected the configured -3000000", config.Loan.Principal)
	}
	if err := config.Validate(); !errors.Is(err, validation.ErrInvalidArgument) {
		t.Errorf("Validate() error = %v, expected ErrInvalidArgument", err)
	}

	price := 1000000.0
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"Negative years", func(c *Configuration) { c.Years = -1 }},
		{"Negative elapsed years", func(c *Configuration) { c.ElapsedYears = -3 }},
		{"Unknown output format", func(c *Configuration) { c.Output.Format = "xml" }},
		{"Unsupported optimizer field", func(c *Configuration) { c.Optimizer = &OptimizerConfig{Field: "units"} }},
		{"Negative loan principal", func(c *Configuration) { c.Loan.Principal = -3000000 }},
		{"Negative loan years", func(c *Configuration) { c.Loan.Years = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Configuration{PurchasePrice: &price, Years: 40, Output: OutputConfig{Format: constants.OutputFormatCSV}}
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, validation.ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, expected ErrInvalidArgument", err)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	input := `
years: 30
purchase_price: 10000000
gross_yield: 0
initial_capital_ratio: 0.2
loan:
  years: 30
  start_month: 4
income:
  monthly_rent: 50000
  vacancy_rates: [0.1, 1.2]
`
	config, err := LoadConfigurationFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	warnings := config.ValidateConfiguration()

	expected := []string{"Loan runs for 31 reporting years", "Gross yield is 0", "Vacancy rate for year 2"}
	for _, want := range expected {
		found := false
		for _, warning := range warnings {
			if strings.Contains(warning, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a warning containing %q, got %v", want, warnings)
		}
	}

	config.Loan.CalendarAlignment = constants.AlignmentAnniversary
	config.GrossYield = 0.05
	config.Income.VacancyRates = []float64{0.05}
	if warnings := config.ValidateConfiguration(); warnings != nil {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}
