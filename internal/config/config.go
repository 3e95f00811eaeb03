// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/loans"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for property-forecast.
type Configuration struct {
	Years               int                `yaml:"years" json:"years" mapstructure:"years"`
	ElapsedYears        int                `yaml:"elapsed_years" json:"elapsed_years" mapstructure:"elapsed_years"`
	PurchasePrice       *float64           `yaml:"purchase_price,omitempty" json:"purchase_price,omitempty" mapstructure:"purchase_price"`
	InitialCapitalRatio float64            `yaml:"initial_capital_ratio" json:"initial_capital_ratio" mapstructure:"initial_capital_ratio"`
	GrossYield          float64            `yaml:"gross_yield" json:"gross_yield" mapstructure:"gross_yield"`
	CapitalGainsTaxRate float64            `yaml:"capital_gains_tax_rate" json:"capital_gains_tax_rate" mapstructure:"capital_gains_tax_rate"`
	RoundToYen          bool               `yaml:"round_to_yen" json:"round_to_yen" mapstructure:"round_to_yen"`
	Loan                LoanConfig         `yaml:"loan" json:"loan" mapstructure:"loan"`
	Building            AssetConfig        `yaml:"building" json:"building" mapstructure:"building"`
	Equipment           AssetConfig        `yaml:"equipment" json:"equipment" mapstructure:"equipment"`
	Depreciation        DepreciationConfig `yaml:"depreciation,omitempty" json:"depreciation,omitempty" mapstructure:"depreciation"`
	Tax                 TaxConfig          `yaml:"tax" json:"tax" mapstructure:"tax"`
	Income              IncomeConfig       `yaml:"income" json:"income" mapstructure:"income"`
	Expenses            ExpensesConfig     `yaml:"expenses" json:"expenses" mapstructure:"expenses"`
	Optimizer           *OptimizerConfig   `yaml:"optimizer,omitempty" json:"optimizer,omitempty" mapstructure:"optimizer"`
	Logging             LoggingConfig      `yaml:"logging,omitempty" json:"logging,omitempty" mapstructure:"logging"`
	Output              OutputConfig       `yaml:"output,omitempty" json:"output,omitempty" mapstructure:"output"`

	// BaseDir anchors relative data file paths; it is the config file's
	// directory when loaded from disk.
	BaseDir string `yaml:"-" json:"-" mapstructure:"-"`
}

// LoanConfig holds the financing terms. A zero principal is derived from the
// purchase price and the initial capital ratio; zero years means no loan.
type LoanConfig struct {
	Principal         float64            `yaml:"principal" json:"principal" mapstructure:"principal"`
	AnnualRate        float64            `yaml:"annual_rate" json:"annual_rate" mapstructure:"annual_rate"`
	Years             int                `yaml:"years" json:"years" mapstructure:"years"`
	StartMonth        int                `yaml:"start_month" json:"start_month" mapstructure:"start_month"`
	Method            string             `yaml:"method" json:"method" mapstructure:"method"`
	CalendarAlignment string             `yaml:"calendar_alignment" json:"calendar_alignment" mapstructure:"calendar_alignment"`
	RateSchedule      []loans.RatePeriod `yaml:"rate_schedule,omitempty" json:"rate_schedule,omitempty" mapstructure:"rate_schedule"`
}

// AssetConfig describes a depreciable asset.
type AssetConfig struct {
	Cost          float64 `yaml:"cost" json:"cost" mapstructure:"cost"`
	StatutoryLife int     `yaml:"statutory_life" json:"statutory_life" mapstructure:"statutory_life"`
}

// DepreciationConfig points at an alternative straight-line rate table.
type DepreciationConfig struct {
	RatesCSV string `yaml:"rates_csv,omitempty" json:"rates_csv,omitempty" mapstructure:"rates_csv"`
}

// TaxConfig holds property tax parameters.
type TaxConfig struct {
	LandAssessedValue          float64 `yaml:"land_assessed_value" json:"land_assessed_value" mapstructure:"land_assessed_value"`
	BuildingAssessedValue      float64 `yaml:"building_assessed_value" json:"building_assessed_value" mapstructure:"building_assessed_value"`
	LandArea                   float64 `yaml:"land_area_m2" json:"land_area_m2" mapstructure:"land_area_m2"`
	Units                      int     `yaml:"units,omitempty" json:"units,omitempty" mapstructure:"units"`
	FixedAssetRate             float64 `yaml:"fixed_asset_rate" json:"fixed_asset_rate" mapstructure:"fixed_asset_rate"`
	CityPlanRate               float64 `yaml:"city_plan_rate" json:"city_plan_rate" mapstructure:"city_plan_rate"`
	LandResidentialSpecial     string  `yaml:"land_residential_special" json:"land_residential_special" mapstructure:"land_residential_special"`
	BuildingCorrectionRatesCSV string  `yaml:"building_correction_rates_csv,omitempty" json:"building_correction_rates_csv,omitempty" mapstructure:"building_correction_rates_csv"`
}

// TrendConfig generates a compounding yearly rate series.
type TrendConfig struct {
	Initial float64 `yaml:"initial" json:"initial" mapstructure:"initial"`
	Trend   float64 `yaml:"trend" json:"trend" mapstructure:"trend"`
}

// IncomeConfig holds the rent roll. Explicit rate lists take precedence over
// trend specifications.
type IncomeConfig struct {
	MonthlyRent     float64      `yaml:"monthly_rent" json:"monthly_rent" mapstructure:"monthly_rent"`
	AnnualRent      float64      `yaml:"annual_rent,omitempty" json:"annual_rent,omitempty" mapstructure:"annual_rent"`
	Units           int          `yaml:"units" json:"units" mapstructure:"units"`
	RentChangeRates []float64    `yaml:"rent_change_rates,omitempty" json:"rent_change_rates,omitempty" mapstructure:"rent_change_rates"`
	RentChange      *TrendConfig `yaml:"rent_change,omitempty" json:"rent_change,omitempty" mapstructure:"rent_change"`
	VacancyRates    []float64    `yaml:"vacancy_rates,omitempty" json:"vacancy_rates,omitempty" mapstructure:"vacancy_rates"`
	Vacancy         *TrendConfig `yaml:"vacancy,omitempty" json:"vacancy,omitempty" mapstructure:"vacancy"`
}

// ExpensesConfig holds operating costs. A non-zero management fee rate
// replaces the flat management fee.
type ExpensesConfig struct {
	ManagementFee       float64  `yaml:"management_fee" json:"management_fee" mapstructure:"management_fee"`
	ManagementFeeRate   *float64 `yaml:"management_fee_rate,omitempty" json:"management_fee_rate,omitempty" mapstructure:"management_fee_rate"`
	Repairs             float64  `yaml:"repairs" json:"repairs" mapstructure:"repairs"`
	Insurance           float64  `yaml:"insurance" json:"insurance" mapstructure:"insurance"`
	Utilities           float64  `yaml:"utilities" json:"utilities" mapstructure:"utilities"`
	CapexLargeCSV       string   `yaml:"capex_large_csv,omitempty" json:"capex_large_csv,omitempty" mapstructure:"capex_large_csv"`
	EquipmentRepairsCSV string   `yaml:"equipment_repairs_csv,omitempty" json:"equipment_repairs_csv,omitempty" mapstructure:"equipment_repairs_csv"`
	RepairsPlanCSV      string   `yaml:"repairs_plan_csv,omitempty" json:"repairs_plan_csv,omitempty" mapstructure:"repairs_plan_csv"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty" mapstructure:"level"`                // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"`             // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	configuration, err := decode(v)
	if err != nil {
		return nil, err
	}
	configuration.BaseDir = filepath.Dir(configPath)
	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("purchase_price")
	_ = v.BindEnv("depreciation.rates_csv",
		constants.EnvPrefix+"_DEPRECIATION_RATES_CSV", constants.DepreciationRatesEnv)
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("years", constants.DefaultProjectionYears)
	v.SetDefault("elapsed_years", 0)
	v.SetDefault("initial_capital_ratio", constants.DefaultInitialCapitalRatio)
	v.SetDefault("gross_yield", constants.DefaultGrossYield)
	v.SetDefault("capital_gains_tax_rate", constants.DefaultCapitalGainsTaxRate)
	v.SetDefault("round_to_yen", true)

	v.SetDefault("loan.start_month", constants.DefaultStartMonth)
	v.SetDefault("loan.method", constants.DefaultLoanMethod)
	v.SetDefault("loan.calendar_alignment", constants.DefaultCalendarAlignment)

	v.SetDefault("building.statutory_life", constants.DefaultBuildingStatutoryLife)
	v.SetDefault("equipment.statutory_life", constants.DefaultEquipmentStatutoryLife)

	v.SetDefault("tax.fixed_asset_rate", constants.DefaultFixedAssetRate)
	v.SetDefault("tax.city_plan_rate", constants.DefaultCityPlanRate)
	v.SetDefault("tax.land_residential_special", constants.ResidentialSpecialOn)

	v.SetDefault("income.units", 1)

	v.SetDefault("output.format", constants.OutputFormatPretty)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration, viper.DecodeHook(numericHook())); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.normalize()
	return &configuration, nil
}

// normalize fills derived defaults that depend on other fields.
func (c *Configuration) normalize() {
	if c.Income.MonthlyRent <= 0 && c.Income.AnnualRent > 0 {
		c.Income.MonthlyRent = c.Income.AnnualRent / constants.MonthsPerYear
	}
	if c.Income.Units <= 0 {
		c.Income.Units = 1
	}
	if c.Tax.Units <= 0 {
		c.Tax.Units = c.Income.Units
	}
	if c.Loan.Principal == 0 && c.PurchasePrice != nil {
		c.Loan.Principal = *c.PurchasePrice * (1 - c.InitialCapitalRatio)
	}
	if c.Building.StatutoryLife <= 0 {
		c.Building.StatutoryLife = constants.DefaultBuildingStatutoryLife
	}
	if c.Equipment.StatutoryLife <= 0 {
		c.Equipment.StatutoryLife = constants.DefaultEquipmentStatutoryLife
	}
	c.Tax.LandResidentialSpecial = strings.ToLower(strings.TrimSpace(c.Tax.LandResidentialSpecial))
	if c.Tax.LandResidentialSpecial == "" {
		c.Tax.LandResidentialSpecial = constants.ResidentialSpecialOn
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Optimizer != nil {
		c.Optimizer.Normalize()
	}
}

// Validate returns an error when a mandatory field is missing or a value is
// structurally unusable.
func (c *Configuration) Validate() error {
	if c.PurchasePrice == nil {
		return fmt.Errorf("%w: purchase_price is required", validation.ErrMissingConfiguration)
	}
	if c.Years < 0 {
		return fmt.Errorf("%w: years must be >= 0, got %d", validation.ErrInvalidArgument, c.Years)
	}
	if c.ElapsedYears < 0 {
		return fmt.Errorf("%w: elapsed_years must be >= 0, got %d", validation.ErrInvalidArgument, c.ElapsedYears)
	}
	if c.Loan.Principal < 0 {
		return fmt.Errorf("%w: loan.principal must be >= 0, got %.2f", validation.ErrInvalidArgument, c.Loan.Principal)
	}
	if c.Loan.Years < 0 {
		return fmt.Errorf("%w: loan.years must be >= 0, got %d", validation.ErrInvalidArgument, c.Loan.Years)
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %s", validation.ErrInvalidArgument, err)
	}
	if c.Optimizer != nil {
		if err := c.Optimizer.Validate(); err != nil {
			return fmt.Errorf("%w: %s", validation.ErrInvalidArgument, err)
		}
	}
	return nil
}

// ResolvePath returns path relative to BaseDir unless it is absolute or
// empty.
func (c *Configuration) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// Financed reports whether the purchase uses a loan.
func (c *Configuration) Financed() bool {
	return c.Loan.Principal > 0 && c.Loan.Years > 0
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		Horizon:             c.Years,
		GrossYield:          c.GrossYield,
		InitialCapitalRatio: c.InitialCapitalRatio,
		VacancyRates:        c.VacancySeries(c.Years),
	}
	if c.Financed() {
		validator.LoanYears = c.Loan.Years
		validator.LoanStartMonth = c.Loan.StartMonth
		if c.Loan.CalendarAlignment == constants.AlignmentAnniversary {
			validator.LoanStartMonth = 1
		}
		validator.LoanMethod = c.Loan.Method
		validator.CalendarAlignment = c.Loan.CalendarAlignment
	}
	return validator.ValidateAll()
}
