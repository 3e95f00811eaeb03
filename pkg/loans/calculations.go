// Package loans provides loan amortization schedules for the projection.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// RatePeriod applies AnnualRate to loan years StartYear through EndYear
// inclusive. A zero EndYear covers StartYear only.
type RatePeriod struct {
	StartYear  int     `json:"startYear" yaml:"start_year" mapstructure:"start_year"`
	EndYear    int     `json:"endYear" yaml:"end_year" mapstructure:"end_year"`
	AnnualRate float64 `json:"annualRate" yaml:"annual_rate" mapstructure:"annual_rate"`
}

// LoanTerms describes a single amortizing loan.
type LoanTerms struct {
	Principal         float64
	AnnualRate        float64
	TermYears         int
	StartMonth        int
	Method            string
	CalendarAlignment string
	RateSchedule      []RatePeriod
}

// MonthlyPayment holds the values for a given payment.
type MonthlyPayment struct {
	MonthIndex   int     `json:"month"`
	Payment      float64 `json:"payment"`
	Principal    float64 `json:"principal"`
	Interest     float64 `json:"interest"`
	BalanceAfter float64 `json:"balance"`
}

// AnnualLoanSummary aggregates the payments of one reporting year.
type AnnualLoanSummary struct {
	YearIndex      int     `json:"year"`
	MonthsCovered  int     `json:"months"`
	PrincipalPaid  float64 `json:"principalPaid"`
	InterestPaid   float64 `json:"interestPaid"`
	TotalPaid      float64 `json:"totalPaid"`
	CumulativePaid float64 `json:"cumulativePaid"`
	BalanceEnd     float64 `json:"balanceEnd"`
}

// Schedule is the full monthly and annual repayment plan of a loan.
type Schedule struct {
	Monthly []MonthlyPayment    `json:"monthly"`
	Annual  []AnnualLoanSummary `json:"annual"`
}

// TotalMonths returns the number of scheduled payments.
func (t LoanTerms) TotalMonths() int {
	return t.TermYears * constants.MonthsPerYear
}

// Validate checks the terms for out-of-range values.
func (t LoanTerms) Validate() error {
	if t.Principal <= 0 {
		return fmt.Errorf("%w: principal must be > 0, got %.2f", validation.ErrInvalidArgument, t.Principal)
	}
	if t.TermYears <= 0 {
		return fmt.Errorf("%w: loan years must be > 0, got %d", validation.ErrInvalidArgument, t.TermYears)
	}
	if t.StartMonth < 1 || t.StartMonth > constants.MonthsPerYear {
		return fmt.Errorf("%w: start month must be between 1 and 12, got %d", validation.ErrInvalidArgument, t.StartMonth)
	}
	if t.Method != constants.MethodEqualPrincipal && t.Method != constants.MethodEqualTotal {
		return fmt.Errorf("%w: method must be %q or %q, got %q", validation.ErrInvalidArgument,
			constants.MethodEqualPrincipal, constants.MethodEqualTotal, t.Method)
	}
	if t.CalendarAlignment != constants.AlignmentCalendar && t.CalendarAlignment != constants.AlignmentAnniversary {
		return fmt.Errorf("%w: calendar alignment must be %q or %q, got %q", validation.ErrInvalidArgument,
			constants.AlignmentCalendar, constants.AlignmentAnniversary, t.CalendarAlignment)
	}
	return nil
}

// MonthlyRate converts an annual rate, given as a percentage (1.5) or a
// decimal (0.015), into a monthly decimal rate.
func MonthlyRate(annualRate float64) float64 {
	return mathutil.NormalizeRate(annualRate) / constants.MonthsPerYear
}

// LoanYear returns the 1-based loan year that contains a 1-based month index.
func LoanYear(monthIndex int) int {
	return (monthIndex-1)/constants.MonthsPerYear + 1
}

// RateForMonth resolves the monthly rate for a payment. The first schedule
// period containing the payment's loan year wins; otherwise the flat rate
// applies.
func (t LoanTerms) RateForMonth(monthIndex int) float64 {
	year := LoanYear(monthIndex)
	for _, period := range t.RateSchedule {
		start := period.StartYear
		if start == 0 {
			start = 1
		}
		end := period.EndYear
		if end == 0 {
			end = start
		}
		if start <= year && year <= end {
			return MonthlyRate(period.AnnualRate)
		}
	}
	return MonthlyRate(t.AnnualRate)
}

// CalculateMonthlyPayment returns the level annuity payment that repays
// balance over the given number of months at a monthly rate.
func CalculateMonthlyPayment(balance, monthlyRate float64, months int) float64 {
	if months <= 0 {
		return balance
	}
	if monthlyRate == 0 {
		return balance / float64(months)
	}
	growth := math.Pow(1+monthlyRate, float64(months))
	return balance * (monthlyRate * growth) / (growth - 1)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(balance, monthlyRate float64) float64 {
	return balance * monthlyRate
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan
func (g *AmortizationScheduleGenerator) GenerateSchedule(terms LoanTerms) (Schedule, error) {
	if err := terms.Validate(); err != nil {
		return Schedule{}, err
	}

	var monthly []MonthlyPayment
	if terms.Method == constants.MethodEqualPrincipal {
		monthly = g.equalPrincipal(terms)
	} else {
		monthly = g.equalTotal(terms)
	}

	var annual []AnnualLoanSummary
	if terms.CalendarAlignment == constants.AlignmentCalendar {
		annual = aggregate(monthly, constants.MonthsPerYear+1-terms.StartMonth)
	} else {
		annual = aggregate(monthly, constants.MonthsPerYear)
	}

	g.logger.Debug(fmt.Sprintf("generated %d monthly payments across %d reporting years",
		len(monthly), len(annual)),
		zap.String("op", "loans.GenerateSchedule"),
		zap.String("method", terms.Method),
		zap.String("alignment", terms.CalendarAlignment),
	)
	return Schedule{Monthly: monthly, Annual: annual}, nil
}

func (g *AmortizationScheduleGenerator) equalPrincipal(terms LoanTerms) []MonthlyPayment {
	totalMonths := terms.TotalMonths()
	fixedPrincipal := terms.Principal / float64(totalMonths)
	balance := terms.Principal

	monthly := make([]MonthlyPayment, 0, totalMonths)
	for m := 1; m <= totalMonths; m++ {
		interest := CalculateInterestPayment(balance, terms.RateForMonth(m))
		balance -= fixedPrincipal
		if m == totalMonths || balance < constants.BalanceEpsilon {
			balance = 0
		}
		monthly = append(monthly, MonthlyPayment{
			MonthIndex:   m,
			Payment:      fixedPrincipal + interest,
			Principal:    fixedPrincipal,
			Interest:     interest,
			BalanceAfter: balance,
		})
	}
	return monthly
}

func (g *AmortizationScheduleGenerator) equalTotal(terms LoanTerms) []MonthlyPayment {
	totalMonths := terms.TotalMonths()
	balance := terms.Principal
	currentRate := 0.0
	payment := 0.0

	monthly := make([]MonthlyPayment, 0, totalMonths)
	for m := 1; m <= totalMonths; m++ {
		rate := terms.RateForMonth(m)
		if m == 1 || math.Abs(rate-currentRate) > constants.RateChangeEpsilon {
			remaining := totalMonths - (m - 1)
			if m > 1 {
				g.logger.Debug(fmt.Sprintf("month %d: rate changed from %.6f to %.6f, recomputing payment over %d months",
					m, currentRate, rate, remaining),
					zap.String("op", "loans.equalTotal"),
				)
			}
			currentRate = rate
			payment = CalculateMonthlyPayment(balance, currentRate, remaining)
		}

		interest := CalculateInterestPayment(balance, currentRate)
		principal := payment - interest
		current := MonthlyPayment{MonthIndex: m, Interest: interest}
		if m == totalMonths || principal >= balance {
			// Settle the remaining balance exactly.
			current.Principal = balance
			current.Payment = balance + interest
			balance = 0
		} else {
			current.Principal = principal
			current.Payment = payment
			balance -= principal
			if balance < constants.BalanceEpsilon {
				balance = 0
			}
		}
		current.BalanceAfter = balance
		monthly = append(monthly, current)
	}
	return monthly
}

// aggregate groups monthly payments into reporting years. The first year
// covers firstYearMonths (capped at the schedule length), every later year
// covers twelve months, and a trailing partial block absorbs the remainder.
func aggregate(monthly []MonthlyPayment, firstYearMonths int) []AnnualLoanSummary {
	var annual []AnnualLoanSummary
	cumulative := 0.0
	idx := 0
	blockSize := firstYearMonths
	for idx < len(monthly) {
		end := min(idx+blockSize, len(monthly))
		block := monthly[idx:end]

		summary := AnnualLoanSummary{
			YearIndex:     len(annual) + 1,
			MonthsCovered: len(block),
		}
		for _, payment := range block {
			summary.PrincipalPaid += payment.Principal
			summary.InterestPaid += payment.Interest
			summary.TotalPaid += payment.Payment
		}
		cumulative += summary.TotalPaid
		summary.CumulativePaid = cumulative
		summary.BalanceEnd = block[len(block)-1].BalanceAfter
		annual = append(annual, summary)

		idx = end
		blockSize = constants.MonthsPerYear
	}
	return annual
}

// BalanceAtYear returns the outstanding balance at the end of reporting year
// year. Years before the first summary report the full principal and years
// beyond the schedule report zero.
func (s Schedule) BalanceAtYear(principal float64, year int) float64 {
	if year < 1 {
		return principal
	}
	if year > len(s.Annual) {
		return 0
	}
	return s.Annual[year-1].BalanceEnd
}

// AnnualAt returns the summary for a 1-based reporting year, or a zero
// summary when the loan has no payments in that year.
func (s Schedule) AnnualAt(year int) AnnualLoanSummary {
	if year < 1 || year > len(s.Annual) {
		return AnnualLoanSummary{YearIndex: year}
	}
	return s.Annual[year-1]
}
