package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/property-forecast/pkg/constants"
)

// OptimizerConfig defines a single-parameter break-even search: find the
// smallest monthly rent or initial capital ratio within [Min, Max] for which
// every projected year's cashflow stays at or above Floor.
type OptimizerConfig struct {
	Field         string   `yaml:"field,omitempty" json:"field,omitempty" mapstructure:"field"`
	Floor         float64  `yaml:"floor" json:"floor" mapstructure:"floor"`
	Min           *float64 `yaml:"min,omitempty" json:"min,omitempty" mapstructure:"min"`
	Max           *float64 `yaml:"max,omitempty" json:"max,omitempty" mapstructure:"max"`
	Tolerance     float64  `yaml:"tolerance,omitempty" json:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int      `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty" mapstructure:"max_iterations"`
}

// CanonicalOptimizerField returns the canonical identifier for an optimizer field.
func CanonicalOptimizerField(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.OptimizerFieldMonthlyRent
	}
	switch strings.ToLower(trimmed) {
	case "monthly_rent", "monthlyrent", "monthly-rent", "rent":
		return constants.OptimizerFieldMonthlyRent
	case "initial_capital_ratio", "initialcapitalratio", "initial-capital-ratio", "capital_ratio":
		return constants.OptimizerFieldInitialCapitalRatio
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Field = CanonicalOptimizerField(o.Field)

	if o.Tolerance <= 0 {
		o.Tolerance = constants.DefaultOptimizerTolerance
		if o.Field == constants.OptimizerFieldInitialCapitalRatio {
			o.Tolerance = defaultRatioTolerance
		}
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = constants.DefaultOptimizerMaxIterations
	}
	if o.Field == constants.OptimizerFieldInitialCapitalRatio {
		if o.Min == nil {
			lo := 0.0
			o.Min = &lo
		}
		if o.Max == nil {
			hi := 1.0
			o.Max = &hi
		}
	}
}

const defaultRatioTolerance = 0.0001

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Field {
	case constants.OptimizerFieldMonthlyRent:
		if o.Min == nil {
			return fmt.Errorf("optimizer requires a minimum bound")
		}
		if o.Max == nil {
			return fmt.Errorf("optimizer requires a maximum bound")
		}
		if *o.Min < 0 {
			return fmt.Errorf("optimizer monthly rent minimum %.2f must not be negative", *o.Min)
		}
	case constants.OptimizerFieldInitialCapitalRatio:
		if *o.Min < 0 || *o.Max > 1 {
			return fmt.Errorf("optimizer initial capital ratio bounds [%.4f, %.4f] must lie within [0, 1]", *o.Min, *o.Max)
		}
	default:
		return fmt.Errorf("optimizer field %q is not supported", o.Field)
	}
	if *o.Min >= *o.Max {
		return fmt.Errorf("optimizer minimum %.4f must be less than maximum %.4f", *o.Min, *o.Max)
	}
	return nil
}
