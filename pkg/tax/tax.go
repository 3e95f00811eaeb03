// Package tax computes the annual fixed-asset and city-planning taxes on a
// property's land and building.
package tax

import (
	"fmt"
	"strings"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Input holds the assessed values and rates for a property. Zero rates
// take the statutory defaults and an empty ResidentialSpecial applies the
// special. Corrections scale the building's assessed value per year; a
// short series repeats its last value and a nil series means no correction.
type Input struct {
	LandAssessedValue     float64
	BuildingAssessedValue float64
	LandArea              float64
	Units                 int
	FixedAssetRate        float64
	CityPlanRate          float64
	ResidentialSpecial    string
	Corrections           []float64
}

// TaxYear is the property tax due for one year.
type TaxYear struct {
	Year             int     `json:"year"`
	CorrectionRate   float64 `json:"correctionRate"`
	FixedTaxLand     float64 `json:"fixedTaxLand"`
	CityTaxLand      float64 `json:"cityTaxLand"`
	FixedTaxBuilding float64 `json:"fixedTaxBuilding"`
	CityTaxBuilding  float64 `json:"cityTaxBuilding"`
	Total            float64 `json:"total"`
}

// Engine computes property taxes.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a tax engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// ResidentialSpecialApplies reports whether the small residential land
// special reduces the land tax bases. In auto mode the land qualifies when
// it does not exceed 200 m² per unit.
func (in Input) ResidentialSpecialApplies() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(in.ResidentialSpecial)) {
	case "", constants.ResidentialSpecialOn:
		return true, nil
	case constants.ResidentialSpecialOff:
		return false, nil
	case constants.ResidentialSpecialAuto:
		return in.Units > 0 && in.LandArea <= float64(in.Units)*constants.SmallResidentialAreaPerUnit, nil
	default:
		return false, fmt.Errorf("%w: land residential special must be %q, %q or %q, got %q",
			validation.ErrInvalidArgument, constants.ResidentialSpecialOn, constants.ResidentialSpecialOff,
			constants.ResidentialSpecialAuto, in.ResidentialSpecial)
	}
}

// Compute returns one TaxYear per year of the horizon.
func (e *Engine) Compute(in Input, years int) ([]TaxYear, error) {
	if years < 0 {
		return nil, fmt.Errorf("%w: years must be >= 0, got %d", validation.ErrInvalidArgument, years)
	}
	special, err := in.ResidentialSpecialApplies()
	if err != nil {
		return nil, err
	}

	fixedRate := in.FixedAssetRate
	if fixedRate == 0 {
		fixedRate = constants.DefaultFixedAssetRate
	}
	cityRate := in.CityPlanRate
	if cityRate == 0 {
		cityRate = constants.DefaultCityPlanRate
	}

	landFixedBase := in.LandAssessedValue
	landCityBase := in.LandAssessedValue
	if special {
		landFixedBase *= constants.ResidentialFixedAssetFraction
		landCityBase *= constants.ResidentialCityPlanFraction
	}
	fixedTaxLand := landFixedBase * fixedRate
	cityTaxLand := landCityBase * cityRate

	corrections := series.Extend(in.Corrections, years, constants.DefaultCorrectionMultiplier)
	out := make([]TaxYear, 0, years)
	for y := 1; y <= years; y++ {
		building := in.BuildingAssessedValue * corrections[y-1]
		year := TaxYear{
			Year:             y,
			CorrectionRate:   corrections[y-1],
			FixedTaxLand:     fixedTaxLand,
			CityTaxLand:      cityTaxLand,
			FixedTaxBuilding: building * fixedRate,
			CityTaxBuilding:  building * cityRate,
		}
		year.Total = year.FixedTaxLand + year.CityTaxLand + year.FixedTaxBuilding + year.CityTaxBuilding
		out = append(out, year)
	}

	e.logger.Debug(fmt.Sprintf("computed %d years of property tax", years),
		zap.String("op", "tax.Compute"),
		zap.Bool("residential_special", special),
	)
	return out, nil
}
