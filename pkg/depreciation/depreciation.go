// Package depreciation computes straight-line depreciation schedules for a
// building and its equipment, including the shortened life of used assets.
package depreciation

import (
	"fmt"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Asset is a depreciable asset as of the start of the projection.
type Asset struct {
	Cost          float64
	StatutoryLife int
	ElapsedYears  int
}

// Schedule is the yearly depreciation of one asset.
type Schedule struct {
	StatutoryLife int     `json:"statutoryLife"`
	ElapsedYears  int     `json:"elapsedYears"`
	UsedLife      int     `json:"usedLife"`
	Rate          float64 `json:"rate"`
	AnnualAmounts []int64 `json:"annualAmounts"`
	Total         int64   `json:"total"`
}

// AmountForYear returns the depreciation of a 1-based year, zero once the
// asset is fully depreciated.
func (s Schedule) AmountForYear(year int) int64 {
	if year < 1 || year > len(s.AnnualAmounts) {
		return 0
	}
	return s.AnnualAmounts[year-1]
}

// Engine generates depreciation schedules using a shared RateTable.
type Engine struct {
	logger *zap.Logger
	rates  *RateTable
}

// NewEngine creates a depreciation engine. A nil rates uses the embedded
// statutory table.
func NewEngine(logger *zap.Logger, rates *RateTable) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rates == nil {
		rates = NewRateTable(logger, nil)
	}
	return &Engine{logger: logger, rates: rates}
}

// UsedLife returns the remaining useful life of an asset that has already
// been in service for elapsed years. Fractional years round half up.
func UsedLife(statutoryLife, elapsed int) (int, error) {
	if statutoryLife <= 0 {
		return 0, fmt.Errorf("%w: statutory life must be > 0, got %d", validation.ErrInvalidArgument, statutoryLife)
	}
	if elapsed < 0 {
		return 0, fmt.Errorf("%w: elapsed years must be >= 0, got %d", validation.ErrInvalidArgument, elapsed)
	}

	if elapsed < statutoryLife {
		return statutoryLife - elapsed + mathutil.ScaleRound(elapsed, constants.UsedLifeFactor), nil
	}
	return max(1, mathutil.ScaleRound(statutoryLife, constants.UsedLifeFactor)), nil
}

// Schedule computes the depreciation schedule of asset.
func (e *Engine) Schedule(asset Asset) (Schedule, error) {
	if asset.Cost < 0 {
		return Schedule{}, fmt.Errorf("%w: cost must be >= 0, got %.2f", validation.ErrInvalidArgument, asset.Cost)
	}
	usedLife, err := UsedLife(asset.StatutoryLife, asset.ElapsedYears)
	if err != nil {
		return Schedule{}, err
	}
	rate, err := e.rates.Rate(usedLife)
	if err != nil {
		return Schedule{}, err
	}

	amounts := ResidualSchedule(asset.Cost, rate, usedLife)
	var total int64
	for _, amount := range amounts {
		total += amount
	}

	e.logger.Debug(fmt.Sprintf("cost %.0f depreciates over %d years at %.3f", asset.Cost, usedLife, rate),
		zap.String("op", "depreciation.Schedule"),
	)
	return Schedule{
		StatutoryLife: asset.StatutoryLife,
		ElapsedYears:  asset.ElapsedYears,
		UsedLife:      usedLife,
		Rate:          rate,
		AnnualAmounts: amounts,
		Total:         total,
	}, nil
}

// ResidualSchedule spreads cost over years at rate so that the total equals
// round(cost) minus the residual book value. Every year but the last takes
// round(cost*rate), capped so the total cannot overshoot; the last year
// takes the remainder.
func ResidualSchedule(cost, rate float64, years int) []int64 {
	if years <= 0 {
		return []int64{}
	}
	amounts := make([]int64, years)
	costYen := int64(mathutil.RoundYen(cost))
	if costYen <= constants.ResidualBookValue {
		return amounts
	}

	target := costYen - constants.ResidualBookValue
	if years == 1 {
		amounts[0] = target
		return amounts
	}

	base := min(int64(mathutil.RoundYen(cost*rate)), target/int64(years-1))
	for i := 0; i < years-1; i++ {
		amounts[i] = base
	}
	amounts[years-1] = target - base*int64(years-1)
	return amounts
}

// SplitCombinedCost applies the building/equipment split used when only a
// combined building cost is known: with no equipment cost, 85% of the
// building cost stays with the building and 15% moves to equipment.
func SplitCombinedCost(buildingCost, equipmentCost float64) (building, equipment float64) {
	if equipmentCost != 0 {
		return buildingCost, equipmentCost
	}
	building = buildingCost * constants.BuildingCostShare
	return building, buildingCost - building
}

// Cumulative returns the running total of all schedules' depreciation over
// the horizon.
func Cumulative(years int, schedules ...Schedule) []int64 {
	out := make([]int64, max(years, 0))
	var running int64
	for y := 1; y <= years; y++ {
		for _, s := range schedules {
			running += s.AmountForYear(y)
		}
		out[y-1] = running
	}
	return out
}
