package loans

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

func baseTerms() LoanTerms {
	return LoanTerms{
		Principal:         1200,
		AnnualRate:        0,
		TermYears:         1,
		StartMonth:        1,
		Method:            constants.MethodEqualPrincipal,
		CalendarAlignment: constants.AlignmentCalendar,
	}
}

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name          string
		balance       float64
		monthlyRate   float64
		months        int
		expectedRange []float64 // [min, max] expected range
	}{
		{
			name:          "Thirty-year loan at 6%",
			balance:       240000,
			monthlyRate:   0.005,
			months:        360,
			expectedRange: []float64{1438, 1440},
		},
		{
			name:          "Zero interest loan",
			balance:       12000,
			monthlyRate:   0,
			months:        60,
			expectedRange: []float64{200, 200},
		},
		{
			name:          "High interest loan",
			balance:       10000,
			monthlyRate:   0.015,
			months:        36,
			expectedRange: []float64{361, 363},
		},
		{
			name:          "No remaining months",
			balance:       500,
			monthlyRate:   0.01,
			months:        0,
			expectedRange: []float64{500, 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.balance, tt.monthlyRate, tt.months)
			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateMonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestMonthlyRate(t *testing.T) {
	tests := []struct {
		name     string
		annual   float64
		expected float64
	}{
		{"Percentage", 12, 0.01},
		{"Decimal", 0.12, 0.01},
		{"Exactly one is a decimal", 1, 1.0 / 12},
		{"Zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthlyRate(tt.annual); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("MonthlyRate(%v) = %v, expected %v", tt.annual, got, tt.expected)
			}
		})
	}
}

func TestRateForMonth(t *testing.T) {
	terms := baseTerms()
	terms.AnnualRate = 2.4
	terms.RateSchedule = []RatePeriod{
		{StartYear: 1, EndYear: 5, AnnualRate: 1.2},
		{StartYear: 3, EndYear: 3, AnnualRate: 6},
		{StartYear: 7, AnnualRate: 3.6},
	}

	tests := []struct {
		month    int
		expected float64
	}{
		{1, 0.001},
		{60, 0.001},
		{25, 0.001}, // first match wins over the overlapping year 3 entry
		{61, 0.002},
		{73, 0.003},
		{85, 0.002},
	}
	for _, tt := range tests {
		if got := terms.RateForMonth(tt.month); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("RateForMonth(%d) = %v, expected %v", tt.month, got, tt.expected)
		}
	}
}

func TestGenerateScheduleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanTerms)
	}{
		{"Zero principal", func(l *LoanTerms) { l.Principal = 0 }},
		{"Negative principal", func(l *LoanTerms) { l.Principal = -1 }},
		{"Zero years", func(l *LoanTerms) { l.TermYears = 0 }},
		{"Start month zero", func(l *LoanTerms) { l.StartMonth = 0 }},
		{"Start month thirteen", func(l *LoanTerms) { l.StartMonth = 13 }},
		{"Unknown method", func(l *LoanTerms) { l.Method = "balloon" }},
		{"Unknown alignment", func(l *LoanTerms) { l.CalendarAlignment = "fiscal" }},
	}

	generator := NewAmortizationScheduleGenerator(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := baseTerms()
			tt.mutate(&terms)
			_, err := generator.GenerateSchedule(terms)
			if !errors.Is(err, validation.ErrInvalidArgument) {
				t.Errorf("GenerateSchedule() error = %v, expected ErrInvalidArgument", err)
			}
		})
	}
}

func TestZeroInterestEqualPrincipalOneYear(t *testing.T) {
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(baseTerms())
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	if len(schedule.Annual) != 1 {
		t.Fatalf("expected 1 annual summary, got %d", len(schedule.Annual))
	}
	year := schedule.Annual[0]
	if year.MonthsCovered != 12 {
		t.Errorf("MonthsCovered = %d, expected 12", year.MonthsCovered)
	}
	if math.Abs(year.PrincipalPaid-1200) > 1e-6 {
		t.Errorf("PrincipalPaid = %v, expected 1200", year.PrincipalPaid)
	}
	if math.Abs(year.InterestPaid) > 1e-6 {
		t.Errorf("InterestPaid = %v, expected 0", year.InterestPaid)
	}
	if year.BalanceEnd != 0 {
		t.Errorf("BalanceEnd = %v, expected 0", year.BalanceEnd)
	}
}

func TestCalendarAlignmentPartialYears(t *testing.T) {
	terms := baseTerms()
	terms.StartMonth = 4

	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule.Annual) != 2 {
		t.Fatalf("expected 2 annual summaries, got %d", len(schedule.Annual))
	}
	if schedule.Annual[0].MonthsCovered != 9 || math.Abs(schedule.Annual[0].PrincipalPaid-900) > 1e-6 {
		t.Errorf("first year = %+v, expected 9 months and 900 principal", schedule.Annual[0])
	}
	if schedule.Annual[1].MonthsCovered != 3 || math.Abs(schedule.Annual[1].PrincipalPaid-300) > 1e-6 {
		t.Errorf("second year = %+v, expected 3 months and 300 principal", schedule.Annual[1])
	}
	if schedule.Annual[1].BalanceEnd != 0 {
		t.Errorf("final balance = %v, expected 0", schedule.Annual[1].BalanceEnd)
	}
}

func TestAggregationMonthCoverage(t *testing.T) {
	tests := []struct {
		name      string
		alignment string
		start     int
		years     int
		expected  []int
	}{
		{"Calendar January start", constants.AlignmentCalendar, 1, 2, []int{12, 12}},
		{"Calendar October start", constants.AlignmentCalendar, 10, 2, []int{3, 12, 9}},
		{"Calendar December start", constants.AlignmentCalendar, 12, 1, []int{1, 11}},
		{"Anniversary ignores start month", constants.AlignmentAnniversary, 10, 2, []int{12, 12}},
	}

	generator := NewAmortizationScheduleGenerator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := baseTerms()
			terms.Principal = 2400000
			terms.AnnualRate = 1.5
			terms.Method = constants.MethodEqualTotal
			terms.StartMonth = tt.start
			terms.TermYears = tt.years
			terms.CalendarAlignment = tt.alignment

			schedule, err := generator.GenerateSchedule(terms)
			if err != nil {
				t.Fatalf("GenerateSchedule() error = %v", err)
			}
			if len(schedule.Annual) != len(tt.expected) {
				t.Fatalf("got %d annual summaries, expected %d", len(schedule.Annual), len(tt.expected))
			}
			total := 0
			for i, year := range schedule.Annual {
				if year.YearIndex != i+1 {
					t.Errorf("YearIndex = %d, expected %d", year.YearIndex, i+1)
				}
				if year.MonthsCovered != tt.expected[i] {
					t.Errorf("year %d covers %d months, expected %d", i+1, year.MonthsCovered, tt.expected[i])
				}
				total += year.MonthsCovered
			}
			if total != tt.years*12 {
				t.Errorf("months covered = %d, expected %d", total, tt.years*12)
			}
		})
	}
}

func TestEqualTotalFixedRate(t *testing.T) {
	terms := LoanTerms{
		Principal:         35000000,
		AnnualRate:        0.018,
		TermYears:         30,
		StartMonth:        7,
		Method:            constants.MethodEqualTotal,
		CalendarAlignment: constants.AlignmentCalendar,
	}
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	if len(schedule.Monthly) != 360 {
		t.Fatalf("expected 360 payments, got %d", len(schedule.Monthly))
	}
	if last := schedule.Monthly[359]; last.BalanceAfter != 0 || last.MonthIndex != 360 {
		t.Errorf("final payment = %+v, expected month 360 with zero balance", last)
	}

	// Level payments until the final settlement.
	first := schedule.Monthly[0].Payment
	for _, payment := range schedule.Monthly[:359] {
		if math.Abs(payment.Payment-first) > 1e-6 {
			t.Fatalf("month %d payment %v differs from level payment %v", payment.MonthIndex, payment.Payment, first)
		}
	}

	previous := terms.Principal
	for _, payment := range schedule.Monthly {
		if payment.BalanceAfter < 0 || payment.BalanceAfter > previous {
			t.Fatalf("month %d balance %v is negative or increased from %v", payment.MonthIndex, payment.BalanceAfter, previous)
		}
		previous = payment.BalanceAfter
	}

	principalPaid := 0.0
	for _, year := range schedule.Annual {
		principalPaid += year.PrincipalPaid
	}
	if math.Abs(principalPaid-terms.Principal) > 1e-3 {
		t.Errorf("principal paid = %v, expected %v", principalPaid, terms.Principal)
	}
	lastYear := schedule.Annual[len(schedule.Annual)-1]
	if math.Abs(lastYear.CumulativePaid-schedule.Monthly[0].Payment*359-schedule.Monthly[359].Payment) > 1e-2 {
		t.Errorf("cumulative paid %v does not match the monthly payments", lastYear.CumulativePaid)
	}
}

func TestEqualPrincipalZeroRateExact(t *testing.T) {
	terms := LoanTerms{
		Principal:         1000000,
		TermYears:         35,
		StartMonth:        3,
		Method:            constants.MethodEqualPrincipal,
		CalendarAlignment: constants.AlignmentCalendar,
	}
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	principalPaid := 0.0
	for _, year := range schedule.Annual {
		principalPaid += year.PrincipalPaid
	}
	if math.Abs(principalPaid-terms.Principal) > 1e-6 {
		t.Errorf("principal paid = %v, expected %v", principalPaid, terms.Principal)
	}
	if final := schedule.Annual[len(schedule.Annual)-1].BalanceEnd; final != 0 {
		t.Errorf("final balance = %v, expected 0", final)
	}
}

func TestAnnuityBasic(t *testing.T) {
	terms := LoanTerms{
		Principal:         1000,
		AnnualRate:        12,
		TermYears:         1,
		StartMonth:        1,
		Method:            constants.MethodEqualTotal,
		CalendarAlignment: constants.AlignmentCalendar,
	}
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	year := schedule.Annual[0]
	if math.Abs(year.PrincipalPaid-1000) > 1e-6 {
		t.Errorf("PrincipalPaid = %v, expected 1000", year.PrincipalPaid)
	}
	if year.InterestPaid <= 0 {
		t.Errorf("InterestPaid = %v, expected > 0", year.InterestPaid)
	}
	if year.BalanceEnd != 0 {
		t.Errorf("BalanceEnd = %v, expected 0", year.BalanceEnd)
	}
}

func TestVariableAnnuity(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(nil)
	fixed := LoanTerms{
		Principal:         1200,
		AnnualRate:        6,
		TermYears:         2,
		StartMonth:        1,
		Method:            constants.MethodEqualTotal,
		CalendarAlignment: constants.AlignmentCalendar,
	}
	variable := fixed
	variable.RateSchedule = []RatePeriod{
		{StartYear: 1, EndYear: 1, AnnualRate: 12},
		{StartYear: 2, EndYear: 2, AnnualRate: 0},
	}

	fixedSchedule, err := generator.GenerateSchedule(fixed)
	if err != nil {
		t.Fatalf("GenerateSchedule(fixed) error = %v", err)
	}
	variableSchedule, err := generator.GenerateSchedule(variable)
	if err != nil {
		t.Fatalf("GenerateSchedule(variable) error = %v", err)
	}

	if len(variableSchedule.Monthly) != 24 {
		t.Fatalf("expected 24 payments, got %d", len(variableSchedule.Monthly))
	}
	if variableSchedule.Monthly[23].BalanceAfter != 0 {
		t.Errorf("final balance = %v, expected 0", variableSchedule.Monthly[23].BalanceAfter)
	}

	totalInterest := func(s Schedule) float64 {
		total := 0.0
		for _, m := range s.Monthly {
			total += m.Interest
		}
		return total
	}
	if totalInterest(fixedSchedule) == totalInterest(variableSchedule) {
		t.Error("expected the rate schedule to change the interest paid")
	}

	// Year two runs at zero interest, so the recomputed payment is level.
	year2 := variableSchedule.Monthly[12:]
	for _, m := range year2 {
		if m.Interest != 0 {
			t.Errorf("month %d interest = %v, expected 0", m.MonthIndex, m.Interest)
		}
		if math.Abs(m.Payment-year2[0].Payment) > 1e-9 {
			t.Errorf("month %d payment = %v, expected %v", m.MonthIndex, m.Payment, year2[0].Payment)
		}
	}
}

func TestScheduleLookups(t *testing.T) {
	schedule, err := NewAmortizationScheduleGenerator(nil).GenerateSchedule(baseTerms())
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if got := schedule.BalanceAtYear(1200, 0); got != 1200 {
		t.Errorf("BalanceAtYear(0) = %v, expected 1200", got)
	}
	if got := schedule.BalanceAtYear(1200, 5); got != 0 {
		t.Errorf("BalanceAtYear(5) = %v, expected 0", got)
	}
	if got := schedule.AnnualAt(3); got.YearIndex != 3 || got.TotalPaid != 0 {
		t.Errorf("AnnualAt(3) = %+v, expected an empty year 3 summary", got)
	}
}
