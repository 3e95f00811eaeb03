package validation

import (
	"fmt"

	"github.com/iwvelando/property-forecast/pkg/constants"
)

// LoanHorizonWarning reports when a loan is still being repaid after the
// projection horizon ends.
func LoanHorizonWarning(loanYears, startMonth, horizon int) string {
	if loanYears <= 0 || horizon <= 0 {
		return ""
	}
	reportingYears := loanYears
	if startMonth > 1 {
		// calendar alignment spills into one extra reporting year
		reportingYears++
	}
	if reportingYears > horizon {
		return fmt.Sprintf("Loan runs for %d reporting years but the projection covers %d - the final balance will be outstanding at the horizon",
			reportingYears, horizon)
	}
	return ""
}

// RangeWarnings returns one warning per value in the series that falls
// outside [lo, hi].
func RangeWarnings(name string, values []float64, lo, hi float64) []string {
	var warnings []string
	for i, v := range values {
		if v < lo || v > hi {
			warnings = append(warnings, fmt.Sprintf("%s for year %d is %.4f, outside [%.2f, %.2f] - it will be clamped",
				name, i+1, v, lo, hi))
		}
	}
	return warnings
}

// ConfigValidator holds the parts of a configuration that are checked for
// suspicious but legal values.
type ConfigValidator struct {
	Horizon             int
	LoanYears           int
	LoanStartMonth      int
	GrossYield          float64
	InitialCapitalRatio float64
	VacancyRates        []float64
	LoanMethod          string
	CalendarAlignment   string
}

// ValidateAll validates the configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if warning := LoanHorizonWarning(cv.LoanYears, cv.LoanStartMonth, cv.Horizon); warning != "" {
		warnings = append(warnings, warning)
	}

	if cv.GrossYield == 0 {
		warnings = append(warnings, "Gross yield is 0 - imputed sale prices will be 0")
	}

	if cv.InitialCapitalRatio <= 0 || cv.InitialCapitalRatio > 1 {
		warnings = append(warnings, fmt.Sprintf("Initial capital ratio %.4f is outside (0, 1] - APR will not be meaningful",
			cv.InitialCapitalRatio))
	}

	warnings = append(warnings, RangeWarnings("Vacancy rate", cv.VacancyRates, 0, 1)...)

	if cv.LoanYears > 0 {
		if cv.LoanMethod != constants.MethodEqualPrincipal && cv.LoanMethod != constants.MethodEqualTotal {
			warnings = append(warnings, fmt.Sprintf("Loan method %q is not one of %s or %s",
				cv.LoanMethod, constants.MethodEqualPrincipal, constants.MethodEqualTotal))
		}
		if cv.CalendarAlignment != constants.AlignmentCalendar && cv.CalendarAlignment != constants.AlignmentAnniversary {
			warnings = append(warnings, fmt.Sprintf("Calendar alignment %q is not one of %s or %s",
				cv.CalendarAlignment, constants.AlignmentCalendar, constants.AlignmentAnniversary))
		}
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
