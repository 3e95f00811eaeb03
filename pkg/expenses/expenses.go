// Package expenses aggregates property tax, loan repayment and operating
// costs into one expense breakdown per year.
package expenses

import (
	"fmt"

	"github.com/iwvelando/property-forecast/pkg/income"
	"github.com/iwvelando/property-forecast/pkg/loans"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/tax"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Operations holds the running costs of the property. Flat amounts apply
// every year. A non-zero ManagementFeeRate (decimal or percentage) replaces
// ManagementFee with that share of each year's rental income. Yearly cost
// series shorter than the horizon are zero afterwards, and RepairsPlan,
// when set, replaces both CapexLarge and EquipmentRepairs.
type Operations struct {
	ManagementFee     float64
	ManagementFeeRate *float64
	Repairs           float64
	Insurance         float64
	Utilities         float64
	CapexLarge        []float64
	EquipmentRepairs  []float64
	RepairsPlan       *series.RepairsPlan
}

// Input collects everything the aggregator needs. A nil Loan means the
// purchase is not financed.
type Input struct {
	Tax        tax.Input
	Loan       *loans.LoanTerms
	Operations Operations
	Income     []income.IncomeYear
	RoundToYen bool
}

// ExpenseYear is the expense breakdown of one year.
type ExpenseYear struct {
	Year             int     `json:"year"`
	FixedTaxLand     float64 `json:"fixedTaxLand"`
	CityTaxLand      float64 `json:"cityTaxLand"`
	FixedTaxBuilding float64 `json:"fixedTaxBuilding"`
	CityTaxBuilding  float64 `json:"cityTaxBuilding"`
	TaxesTotal       float64 `json:"taxesTotal"`
	LoanPrincipal    float64 `json:"loanPrincipal"`
	LoanInterest     float64 `json:"loanInterest"`
	LoanTotal        float64 `json:"loanTotal"`
	ManagementFee    float64 `json:"managementFee"`
	Repairs          float64 `json:"repairs"`
	Insurance        float64 `json:"insurance"`
	Utilities        float64 `json:"utilities"`
	CapexLarge       float64 `json:"capexLarge"`
	EquipmentRepairs float64 `json:"equipmentRepairs"`
	OperationsTotal  float64 `json:"operationsTotal"`
	TotalExpenses    float64 `json:"totalExpenses"`
}

// Aggregator composes the tax engine, the amortization generator and the
// operating costs.
type Aggregator struct {
	logger *zap.Logger
	tax    *tax.Engine
	loans  *loans.AmortizationScheduleGenerator
}

// NewAggregator creates an expense aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		logger: logger,
		tax:    tax.NewEngine(logger),
		loans:  loans.NewAmortizationScheduleGenerator(logger),
	}
}

// Aggregate returns one ExpenseYear per year of the horizon.
func (a *Aggregator) Aggregate(in Input, years int) ([]ExpenseYear, error) {
	if years < 0 {
		return nil, fmt.Errorf("%w: years must be >= 0, got %d", validation.ErrInvalidArgument, years)
	}
	if years == 0 {
		return []ExpenseYear{}, nil
	}

	taxes, err := a.tax.Compute(in.Tax, years)
	if err != nil {
		return nil, fmt.Errorf("failed to compute property tax: %w", err)
	}

	var schedule loans.Schedule
	if in.Loan != nil {
		schedule, err = a.loans.GenerateSchedule(*in.Loan)
		if err != nil {
			return nil, fmt.Errorf("failed to generate loan schedule: %w", err)
		}
	}

	ops := in.Operations
	capexLarge, equipmentRepairs := ops.CapexLarge, ops.EquipmentRepairs
	if ops.RepairsPlan != nil {
		capexLarge, equipmentRepairs = ops.RepairsPlan.CapexLarge, ops.RepairsPlan.EquipmentRepairs
	}
	feeRate := 0.0
	if ops.ManagementFeeRate != nil {
		feeRate = mathutil.NormalizeRate(*ops.ManagementFeeRate)
	}

	out := make([]ExpenseYear, 0, years)
	for y := 1; y <= years; y++ {
		t := taxes[y-1]
		loan := schedule.AnnualAt(y)
		row := ExpenseYear{
			Year:             y,
			FixedTaxLand:     t.FixedTaxLand,
			CityTaxLand:      t.CityTaxLand,
			FixedTaxBuilding: t.FixedTaxBuilding,
			CityTaxBuilding:  t.CityTaxBuilding,
			TaxesTotal:       t.Total,
			LoanPrincipal:    loan.PrincipalPaid,
			LoanInterest:     loan.InterestPaid,
			LoanTotal:        loan.TotalPaid,
			ManagementFee:    ops.ManagementFee,
			Repairs:          ops.Repairs,
			Insurance:        ops.Insurance,
			Utilities:        ops.Utilities,
			CapexLarge:       valueAt(capexLarge, y),
			EquipmentRepairs: valueAt(equipmentRepairs, y),
		}
		if feeRate != 0 && y <= len(in.Income) {
			row.ManagementFee = in.Income[y-1].AnnualIncome * feeRate
		}
		row.OperationsTotal = row.ManagementFee + row.Repairs + row.Insurance + row.Utilities +
			row.CapexLarge + row.EquipmentRepairs
		row.TotalExpenses = row.TaxesTotal + row.LoanTotal + row.OperationsTotal

		if in.RoundToYen {
			row.round()
		}
		out = append(out, row)
	}

	a.logger.Debug(fmt.Sprintf("aggregated %d years of expenses", years),
		zap.String("op", "expenses.Aggregate"),
		zap.Bool("financed", in.Loan != nil),
		zap.Bool("repairs_plan", ops.RepairsPlan != nil),
	)
	return out, nil
}

// round rounds every monetary field to whole currency units. Totals are
// rounded from their unrounded sums.
func (e *ExpenseYear) round() {
	for _, field := range []*float64{
		&e.FixedTaxLand, &e.CityTaxLand, &e.FixedTaxBuilding, &e.CityTaxBuilding, &e.TaxesTotal,
		&e.LoanPrincipal, &e.LoanInterest, &e.LoanTotal,
		&e.ManagementFee, &e.Repairs, &e.Insurance, &e.Utilities, &e.CapexLarge, &e.EquipmentRepairs,
		&e.OperationsTotal, &e.TotalExpenses,
	} {
		*field = mathutil.RoundYen(*field)
	}
}

func valueAt(values []float64, year int) float64 {
	if year < 1 || year > len(values) {
		return 0
	}
	return values[year-1]
}

// TotalExpenses sums the total expenses of rows.
func TotalExpenses(rows []ExpenseYear) float64 {
	total := 0.0
	for _, row := range rows {
		total += row.TotalExpenses
	}
	return total
}
