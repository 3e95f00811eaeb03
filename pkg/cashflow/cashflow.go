// Package cashflow composes income, expenses, depreciation and the loan
// schedule into a yearly cashflow and liquidation-return projection.
package cashflow

import (
	"fmt"
	"math"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/depreciation"
	"github.com/iwvelando/property-forecast/pkg/expenses"
	"github.com/iwvelando/property-forecast/pkg/income"
	"github.com/iwvelando/property-forecast/pkg/loans"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Input is the full set of projection parameters. PurchasePrice is
// mandatory. The loan, if any, is taken from Expenses.Loan, and RoundToYen
// applies to income and expenses alike.
type Input struct {
	Years               int
	PurchasePrice       *float64
	InitialCapitalRatio float64
	GrossYield          float64
	CapitalGainsTaxRate float64
	Income              income.Input
	Expenses            expenses.Input
	Building            depreciation.Asset
	Equipment           depreciation.Asset
	RoundToYen          bool
}

// CashflowYear is the position of the investment at the end of one year,
// assuming it is sold then.
type CashflowYear struct {
	Year                   int     `json:"year"`
	AnnualIncome           float64 `json:"annualIncome"`
	TotalExpenses          float64 `json:"totalExpenses"`
	Cashflow               float64 `json:"cashflow"`
	CumulativeCashflow     float64 `json:"cumulativeCashflow"`
	CumulativeDepreciation int64   `json:"cumulativeDepreciation"`
	LoanBalanceEnd         float64 `json:"loanBalanceEnd"`
	SalePrice              float64 `json:"salePrice"`
	TaxOnSale              float64 `json:"taxOnSale"`
	NetProfit              float64 `json:"netProfit"`
	APR                    float64 `json:"apr"`
}

// Projection holds every per-year series produced for one run.
type Projection struct {
	InitialCapital float64                `json:"initialCapital"`
	Income         []income.IncomeYear    `json:"income"`
	Expenses       []expenses.ExpenseYear `json:"expenses"`
	Building       depreciation.Schedule  `json:"building"`
	Equipment      depreciation.Schedule  `json:"equipment"`
	Loan           loans.Schedule         `json:"loan"`
	Cashflow       []CashflowYear         `json:"cashflow"`
}

// MinimumCashflow returns the lowest single-year cashflow, or 0 for an
// empty projection.
func (p Projection) MinimumCashflow() float64 {
	if len(p.Cashflow) == 0 {
		return 0
	}
	minimum := math.Inf(1)
	for _, year := range p.Cashflow {
		minimum = math.Min(minimum, year.Cashflow)
	}
	return minimum
}

// Final returns the last projected year, if any.
func (p Projection) Final() (CashflowYear, bool) {
	if len(p.Cashflow) == 0 {
		return CashflowYear{}, false
	}
	return p.Cashflow[len(p.Cashflow)-1], true
}

// Projector runs the full projection.
type Projector struct {
	logger       *zap.Logger
	income       *income.Engine
	expenses     *expenses.Aggregator
	depreciation *depreciation.Engine
	loans        *loans.AmortizationScheduleGenerator
}

// NewProjector creates a projector whose depreciation engine shares rates.
// A nil rates uses the embedded statutory table.
func NewProjector(logger *zap.Logger, rates *depreciation.RateTable) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		logger:       logger,
		income:       income.NewEngine(logger),
		expenses:     expenses.NewAggregator(logger),
		depreciation: depreciation.NewEngine(logger, rates),
		loans:        loans.NewAmortizationScheduleGenerator(logger),
	}
}

// Project computes the projection for in. It never mutates in.
func (p *Projector) Project(in Input) (Projection, error) {
	if in.PurchasePrice == nil {
		return Projection{}, fmt.Errorf("%w: purchase_price is required", validation.ErrMissingConfiguration)
	}
	if in.Years < 0 {
		return Projection{}, fmt.Errorf("%w: years must be >= 0, got %d", validation.ErrInvalidArgument, in.Years)
	}
	purchasePrice := *in.PurchasePrice
	initialCapital := purchasePrice * in.InitialCapitalRatio
	gainsRate := in.CapitalGainsTaxRate
	if gainsRate == 0 {
		gainsRate = constants.DefaultCapitalGainsTaxRate
	}

	incomeInput := in.Income
	incomeInput.RoundToYen = in.RoundToYen
	incomeRows, err := p.income.Compute(incomeInput, in.Years)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to compute income: %w", err)
	}

	expenseInput := in.Expenses
	expenseInput.Income = incomeRows
	expenseInput.RoundToYen = in.RoundToYen
	expenseRows, err := p.expenses.Aggregate(expenseInput, in.Years)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to aggregate expenses: %w", err)
	}

	building, err := p.depreciation.Schedule(in.Building)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to depreciate building: %w", err)
	}
	equipment, err := p.depreciation.Schedule(in.Equipment)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to depreciate equipment: %w", err)
	}
	depreciationCum := depreciation.Cumulative(in.Years, building, equipment)

	var schedule loans.Schedule
	if in.Expenses.Loan != nil {
		schedule, err = p.loans.GenerateSchedule(*in.Expenses.Loan)
		if err != nil {
			return Projection{}, fmt.Errorf("failed to generate loan schedule: %w", err)
		}
	}

	out := make([]CashflowYear, 0, in.Years)
	cumulative := 0.0
	for y := 1; y <= in.Years; y++ {
		row := CashflowYear{
			Year:                   y,
			AnnualIncome:           incomeRows[y-1].AnnualIncome,
			TotalExpenses:          expenseRows[y-1].TotalExpenses,
			CumulativeDepreciation: depreciationCum[y-1],
		}
		row.Cashflow = row.AnnualIncome - row.TotalExpenses
		cumulative += row.Cashflow
		row.CumulativeCashflow = cumulative

		if in.Expenses.Loan != nil {
			row.LoanBalanceEnd = schedule.BalanceAtYear(in.Expenses.Loan.Principal, y)
		}
		if in.GrossYield > 0 {
			row.SalePrice = incomeRows[y-1].AnnualGross / in.GrossYield
		}
		if in.RoundToYen {
			row.LoanBalanceEnd = mathutil.RoundYen(row.LoanBalanceEnd)
			row.SalePrice = mathutil.RoundYen(row.SalePrice)
		}

		gain := row.SalePrice - purchasePrice + float64(row.CumulativeDepreciation)
		row.TaxOnSale = mathutil.RoundYen(math.Max(0, gain*gainsRate))
		row.NetProfit = row.CumulativeCashflow + row.SalePrice - row.LoanBalanceEnd - row.TaxOnSale - initialCapital
		if initialCapital != 0 {
			row.APR = row.NetProfit / initialCapital
		}
		out = append(out, row)
	}

	projection := Projection{
		InitialCapital: initialCapital,
		Income:         incomeRows,
		Expenses:       expenseRows,
		Building:       building,
		Equipment:      equipment,
		Loan:           schedule,
		Cashflow:       out,
	}
	if final, ok := projection.Final(); ok {
		p.logger.Debug(fmt.Sprintf("projected %d years, final net profit %.0f (APR %.4f)",
			in.Years, final.NetProfit, final.APR),
			zap.String("op", "cashflow.Project"),
		)
	}
	return projection, nil
}
