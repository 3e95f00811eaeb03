// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/property-forecast/internal/forecast"
	"github.com/iwvelando/property-forecast/pkg/cashflow"
	"github.com/iwvelando/property-forecast/pkg/format"
	"github.com/iwvelando/property-forecast/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvHeader = []string{
	"year",
	"annual_income",
	"total_expenses",
	"cashflow",
	"cumulative_cashflow",
	"cumulative_depreciation",
	"loan_balance_end",
	"sale_price",
	"tax_on_sale",
	"net_profit",
	"apr",
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(result forecast.Forecast) {
	_ = WritePretty(os.Stdout, result)
}

// WritePretty writes the human-readable report of result to w.
func WritePretty(w io.Writer, result forecast.Forecast) error {
	p := message.NewPrinter(language.English)
	projection := result.Projection

	_, _ = fmt.Fprintf(w, "--- Property forecast %s ---\n", result.RunID)
	_, _ = fmt.Fprintf(w, "Initial capital: %s\n", format.Yen(projection.InitialCapital))
	_, _ = p.Fprintf(w, "Building depreciation: %d years at %.3f (total %d)\n",
		projection.Building.UsedLife, projection.Building.Rate, projection.Building.Total)
	_, _ = p.Fprintf(w, "Equipment depreciation: %d years at %.3f (total %d)\n",
		projection.Equipment.UsedLife, projection.Equipment.Rate, projection.Equipment.Total)
	if summary := result.Optimization; summary != nil {
		writeOptimization(w, *summary)
	}
	for _, warning := range result.Warnings {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	_, _ = fmt.Fprintf(w, "\n%4s | %14s | %14s | %14s | %15s | %14s | %14s | %14s | %15s | %8s\n",
		"Year", "Income", "Expenses", "Cashflow", "Cumulative", "Loan Balance", "Sale Price", "Tax on Sale", "Net Profit", "APR")
	_, _ = fmt.Fprintf(w, "%4s | %14s | %14s | %14s | %15s | %14s | %14s | %14s | %15s | %8s\n",
		"____", "______", "________", "________", "__________", "____________", "__________", "___________", "__________", "___")
	for _, year := range projection.Cashflow {
		_, err := fmt.Fprintf(w, "%4d | %14s | %14s | %14s | %15s | %14s | %14s | %14s | %15s | %8s\n",
			year.Year,
			format.Number(year.AnnualIncome),
			format.Number(year.TotalExpenses),
			format.Number(year.Cashflow),
			format.Number(year.CumulativeCashflow),
			format.Number(year.LoanBalanceEnd),
			format.Number(year.SalePrice),
			format.Number(year.TaxOnSale),
			format.Number(year.NetProfit),
			format.Percent(year.APR),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeOptimization(w io.Writer, summary optimization.Summary) {
	status := "converged"
	if !summary.Converged {
		status = "not converged"
	}
	_, _ = fmt.Fprintf(w, "Optimized %s: %s -> %s (%s after %d iterations)\n",
		summary.Field, summary.OriginalDisplay, summary.ValueDisplay, status, summary.Iterations)
	_, _ = fmt.Fprintf(w, "  Minimum annual cashflow %s against floor %s (headroom %s)\n",
		format.Yen(summary.MinimumCashflow), format.Yen(summary.Floor), format.Yen(summary.Headroom))
	for _, note := range summary.Notes {
		_, _ = fmt.Fprintf(w, "  Note: %s\n", note)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(result forecast.Forecast) {
	_ = WriteCSV(os.Stdout, result)
}

// CsvString returns the CSV representation of result.
func CsvString(result forecast.Forecast) string {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, result)
	return buf.String()
}

// WriteCSV writes one row per projected year to w.
func WriteCSV(w io.Writer, result forecast.Forecast) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, year := range result.Projection.Cashflow {
		if err := writer.Write(csvRecord(year)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRecord(year cashflow.CashflowYear) []string {
	return []string{
		strconv.Itoa(year.Year),
		formatAmount(year.AnnualIncome),
		formatAmount(year.TotalExpenses),
		formatAmount(year.Cashflow),
		formatAmount(year.CumulativeCashflow),
		strconv.FormatInt(year.CumulativeDepreciation, 10),
		formatAmount(year.LoanBalanceEnd),
		formatAmount(year.SalePrice),
		formatAmount(year.TaxOnSale),
		formatAmount(year.NetProfit),
		strconv.FormatFloat(year.APR, 'f', 6, 64),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
