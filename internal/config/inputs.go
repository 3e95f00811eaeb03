package config

import (
	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/depreciation"
	"github.com/iwvelando/property-forecast/pkg/income"
	"github.com/iwvelando/property-forecast/pkg/loans"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/tax"
)

// LoanTerms converts the loan section into amortization terms, or nil when
// the purchase is not financed.
func (c *Configuration) LoanTerms() *loans.LoanTerms {
	if !c.Financed() {
		return nil
	}
	return &loans.LoanTerms{
		Principal:         c.Loan.Principal,
		AnnualRate:        c.Loan.AnnualRate,
		TermYears:         c.Loan.Years,
		StartMonth:        c.Loan.StartMonth,
		Method:            c.Loan.Method,
		CalendarAlignment: c.Loan.CalendarAlignment,
		RateSchedule:      append([]loans.RatePeriod(nil), c.Loan.RateSchedule...),
	}
}

// Assets returns the building and equipment as depreciable assets. A
// missing equipment cost splits the building cost 85/15.
func (c *Configuration) Assets() (building, equipment depreciation.Asset) {
	buildingCost, equipmentCost := depreciation.SplitCombinedCost(c.Building.Cost, c.Equipment.Cost)
	building = depreciation.Asset{
		Cost:          buildingCost,
		StatutoryLife: c.Building.StatutoryLife,
		ElapsedYears:  c.ElapsedYears,
	}
	equipment = depreciation.Asset{
		Cost:          equipmentCost,
		StatutoryLife: c.Equipment.StatutoryLife,
		ElapsedYears:  c.ElapsedYears,
	}
	return building, equipment
}

// TaxInput converts the tax section. Missing assessed values are estimated
// from the building cost: the building at its cost (85% of it without an
// equipment cost) and the land at 20% of the building cost.
func (c *Configuration) TaxInput(corrections []float64) tax.Input {
	buildingValue := c.Tax.BuildingAssessedValue
	if buildingValue == 0 && c.Building.Cost != 0 {
		buildingValue = c.Building.Cost
		if c.Equipment.Cost == 0 {
			buildingValue *= constants.BuildingCostShare
		}
	}
	landValue := c.Tax.LandAssessedValue
	if landValue == 0 {
		landValue = c.Building.Cost * constants.LandValueShareOfBuilding
	}
	return tax.Input{
		LandAssessedValue:     landValue,
		BuildingAssessedValue: buildingValue,
		LandArea:              c.Tax.LandArea,
		Units:                 c.Tax.Units,
		FixedAssetRate:        c.Tax.FixedAssetRate,
		CityPlanRate:          c.Tax.CityPlanRate,
		ResidentialSpecial:    c.Tax.LandResidentialSpecial,
		Corrections:           corrections,
	}
}

// RentChangeSeries returns the yearly rent change rates over years.
func (c *Configuration) RentChangeSeries(years int) []float64 {
	return rateSeries(c.Income.RentChangeRates, c.Income.RentChange, years)
}

// VacancySeries returns the yearly vacancy rates over years, before clamping.
func (c *Configuration) VacancySeries(years int) []float64 {
	return rateSeries(c.Income.VacancyRates, c.Income.Vacancy, years)
}

func rateSeries(values []float64, trend *TrendConfig, years int) []float64 {
	switch {
	case len(values) > 0:
		return series.Extend(values, years, 0)
	case trend != nil:
		return income.Trend{Initial: trend.Initial, Trend: trend.Trend}.Series(years)
	default:
		return series.Extend(nil, years, 0)
	}
}

// IncomeInput converts the income section.
func (c *Configuration) IncomeInput() income.Input {
	return income.Input{
		MonthlyRent:     c.Income.MonthlyRent,
		Units:           c.Income.Units,
		RentChangeRates: c.RentChangeSeries(c.Years),
		VacancyRates:    c.VacancySeries(c.Years),
		RoundToYen:      c.RoundToYen,
	}
}
