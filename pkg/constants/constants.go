// Package constants provides shared constants for the property-forecast application.
package constants

// Projection constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DefaultProjectionYears is the default projection horizon in years
	DefaultProjectionYears = 40

	// BalanceEpsilon is the threshold below which a loan balance is treated as fully repaid
	BalanceEpsilon = 1e-12

	// RateChangeEpsilon is the smallest monthly rate difference that triggers an annuity recompute
	RateChangeEpsilon = 1e-14

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Loan defaults
const (
	// DefaultStartMonth is the calendar month of the first loan payment
	DefaultStartMonth = 1

	// MethodEqualPrincipal repays a fixed principal amount every month
	MethodEqualPrincipal = "equal_principal"

	// MethodEqualTotal repays a fixed total (annuity) amount every month
	MethodEqualTotal = "equal_total"

	// AlignmentCalendar reports loan years by calendar year
	AlignmentCalendar = "calendar"

	// AlignmentAnniversary reports loan years in 12-month blocks from the first payment
	AlignmentAnniversary = "anniversary"

	// DefaultLoanMethod is the repayment method used when none is configured
	DefaultLoanMethod = MethodEqualTotal

	// DefaultCalendarAlignment is the aggregation mode used when none is configured
	DefaultCalendarAlignment = AlignmentCalendar
)

// Depreciation defaults
const (
	// DefaultBuildingStatutoryLife is the statutory life of a residential RC building body
	DefaultBuildingStatutoryLife = 34

	// DefaultEquipmentStatutoryLife is the statutory life of building equipment
	DefaultEquipmentStatutoryLife = 15

	// UsedLifeFactor is the share of elapsed (or statutory) years credited to a used asset
	UsedLifeFactor = 0.2

	// ResidualBookValue is the book value retained after full depreciation
	ResidualBookValue = 1

	// BuildingCostShare is the building share when only a combined cost is supplied
	BuildingCostShare = 0.85

	// RatePrecision is the number of decimal places used for straight-line rates
	RatePrecision = 3

	// DepreciationRatesEnv names the environment variable that overrides the rate table file
	DepreciationRatesEnv = "DEPRECIATION_RATES_CSV"
)

// Tax defaults
const (
	// DefaultFixedAssetRate is the standard fixed-asset tax rate
	DefaultFixedAssetRate = 0.014

	// DefaultCityPlanRate is the standard city-planning tax rate
	DefaultCityPlanRate = 0.003

	// ResidentialFixedAssetFraction is the fixed-asset tax base fraction for residential land
	ResidentialFixedAssetFraction = 1.0 / 6.0

	// ResidentialCityPlanFraction is the city-planning tax base fraction for residential land
	ResidentialCityPlanFraction = 1.0 / 3.0

	// SmallResidentialAreaPerUnit is the land area per unit (m²) eligible for the residential special
	SmallResidentialAreaPerUnit = 200.0

	// DefaultCorrectionMultiplier is the building correction multiplier when none is supplied
	DefaultCorrectionMultiplier = 1.0

	// LandValueShareOfBuilding estimates land assessed value from building cost when absent
	LandValueShareOfBuilding = 0.20

	// ResidentialSpecialOn, ResidentialSpecialOff and ResidentialSpecialAuto are the
	// accepted values of the land residential special setting.
	ResidentialSpecialOn   = "true"
	ResidentialSpecialOff  = "false"
	ResidentialSpecialAuto = "auto"
)

// Cashflow defaults
const (
	// DefaultGrossYield is the gross yield used to impute a sale price
	DefaultGrossYield = 0.045

	// DefaultInitialCapitalRatio is the share of the purchase price paid from own funds
	DefaultInitialCapitalRatio = 0.2

	// DefaultCapitalGainsTaxRate is the tax rate applied to gains on sale
	DefaultCapitalGainsTaxRate = 0.20315
)

// Optimizer defaults
const (
	// OptimizerFieldMonthlyRent searches the initial monthly rent per unit
	OptimizerFieldMonthlyRent = "monthly_rent"

	// OptimizerFieldInitialCapitalRatio searches the share of own funds
	OptimizerFieldInitialCapitalRatio = "initial_capital_ratio"

	// DefaultOptimizerTolerance is the bisection stopping width
	DefaultOptimizerTolerance = 1.0

	// DefaultOptimizerMaxIterations caps the bisection loop
	DefaultOptimizerMaxIterations = 60
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "project_config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "PROPERTY_FORECAST"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (one unit)
	CurrencyTolerance = 1.0
)
