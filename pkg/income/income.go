// Package income projects annual rental income under rent-change and
// vacancy trends.
package income

import (
	"fmt"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Trend generates a compounding rate series: Initial in year 1, then
// multiplied by (1+Trend) every year.
type Trend struct {
	Initial float64 `json:"initial" yaml:"initial" mapstructure:"initial"`
	Trend   float64 `json:"trend" yaml:"trend" mapstructure:"trend"`
}

// Series returns the trend's rate for each year of the horizon.
func (t Trend) Series(years int) []float64 {
	out := make([]float64, max(years, 0))
	value := t.Initial
	for i := range out {
		out[i] = value
		value *= 1 + t.Trend
	}
	return out
}

// Input describes the rent roll. Rate series shorter than the horizon
// repeat their last element; nil series are all zero.
type Input struct {
	MonthlyRent     float64
	Units           int
	RentChangeRates []float64
	VacancyRates    []float64
	RoundToYen      bool
}

// IncomeYear is the rental income of one year. RentChangeRate is the change
// applied when moving to the following year.
type IncomeYear struct {
	Year           int     `json:"year"`
	MonthlyRent    float64 `json:"monthlyRent"`
	RentChangeRate float64 `json:"rentChangeRate"`
	VacancyRate    float64 `json:"vacancyRate"`
	AnnualGross    float64 `json:"annualGross"`
	AnnualIncome   float64 `json:"annualIncome"`
}

// Engine computes rental income.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an income engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compute returns one IncomeYear per year. The rent of year y is the rent
// of year y-1 compounded by year y-1's change rate; vacancy is clamped to
// [0, 1].
func (e *Engine) Compute(in Input, years int) ([]IncomeYear, error) {
	if years <= 0 {
		return []IncomeYear{}, nil
	}
	if in.MonthlyRent < 0 {
		return nil, fmt.Errorf("%w: monthly rent must be >= 0, got %.2f", validation.ErrInvalidArgument, in.MonthlyRent)
	}
	if in.Units <= 0 {
		return nil, fmt.Errorf("%w: units must be > 0, got %d", validation.ErrInvalidArgument, in.Units)
	}

	rentChanges := series.Extend(in.RentChangeRates, years, 0)
	vacancies := series.Extend(in.VacancyRates, years, 0)

	out := make([]IncomeYear, 0, years)
	rent := in.MonthlyRent
	for y := 1; y <= years; y++ {
		if y > 1 {
			rent *= 1 + rentChanges[y-2]
		}
		vacancy := mathutil.Clamp(vacancies[y-1], 0, 1)
		gross := rent * constants.MonthsPerYear * float64(in.Units)
		row := IncomeYear{
			Year:           y,
			MonthlyRent:    rent,
			RentChangeRate: rentChanges[y-1],
			VacancyRate:    vacancy,
			AnnualGross:    gross,
			AnnualIncome:   gross * (1 - vacancy),
		}
		if in.RoundToYen {
			row.MonthlyRent = mathutil.RoundYen(row.MonthlyRent)
			row.AnnualGross = mathutil.RoundYen(row.AnnualGross)
			row.AnnualIncome = mathutil.RoundYen(row.AnnualIncome)
		}
		out = append(out, row)
	}

	e.logger.Debug(fmt.Sprintf("computed %d years of rental income for %d units", years, in.Units),
		zap.String("op", "income.Compute"),
	)
	return out, nil
}

// TotalIncome sums the annual income of rows.
func TotalIncome(rows []IncomeYear) float64 {
	total := 0.0
	for _, row := range rows {
		total += row.AnnualIncome
	}
	return total
}
