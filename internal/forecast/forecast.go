// Package forecast turns a configuration into a full projection: it loads
// the file-backed yearly series, converts each configuration section into
// engine input and runs the cashflow projector.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/property-forecast/internal/config"
	"github.com/iwvelando/property-forecast/pkg/cashflow"
	"github.com/iwvelando/property-forecast/pkg/depreciation"
	"github.com/iwvelando/property-forecast/pkg/expenses"
	"github.com/iwvelando/property-forecast/pkg/optimization"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Options carries the resources shared across forecast runs. A nil Fs reads
// from the operating system; a nil Rates builds a table from the
// configuration.
type Options struct {
	Fs    afero.Fs
	Rates *depreciation.RateTable
}

// Forecast holds all information related to a single projection run.
type Forecast struct {
	RunID        string                `json:"runId"`
	Projection   cashflow.Projection   `json:"projection"`
	Warnings     []string              `json:"warnings,omitempty"`
	Optimization *optimization.Summary `json:"optimization,omitempty"`
}

// GetForecast computes the projection described by conf.
func GetForecast(logger *zap.Logger, conf config.Configuration, opts Options) (Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	started := time.Now()

	if err := conf.Validate(); err != nil {
		return Forecast{}, err
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	rates := opts.Rates
	if rates == nil {
		rates = NewRateTable(logger, conf, fsys)
	}

	in, warnings, err := BuildInput(logger, conf, fsys)
	if err != nil {
		return Forecast{}, err
	}

	projection, err := cashflow.NewProjector(logger, rates).Project(in)
	if err != nil {
		return Forecast{}, err
	}

	logger.Info(fmt.Sprintf("projected %d years in %s", conf.Years, time.Since(started)),
		zap.String("op", "forecast.GetForecast"),
	)
	return Forecast{RunID: runID, Projection: projection, Warnings: warnings}, nil
}

// NewRateTable returns the depreciation rate table configured by conf: the
// file named by depreciation.rates_csv when set, otherwise the embedded
// statutory table.
func NewRateTable(logger *zap.Logger, conf config.Configuration, fsys afero.Fs) *depreciation.RateTable {
	if conf.Depreciation.RatesCSV == "" {
		return depreciation.NewRateTable(logger, nil)
	}
	return depreciation.NewRateTable(logger, depreciation.FileRates(fsys, conf.ResolvePath(conf.Depreciation.RatesCSV)))
}

// BuildInput converts conf into projector input. Missing data files are
// reported as warnings and replaced by their documented defaults; any other
// file error is returned.
func BuildInput(logger *zap.Logger, conf config.Configuration, fsys afero.Fs) (cashflow.Input, []string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	loader := seriesLoader{logger: logger, conf: conf, fsys: fsys}

	corrections, err := loader.yearly("tax.building_correction_rates_csv", conf.Tax.BuildingCorrectionRatesCSV,
		series.Options{Default: 1, Padding: series.PadRepeatLast})
	if err != nil {
		return cashflow.Input{}, nil, err
	}
	capex, err := loader.yearly("expenses.capex_large_csv", conf.Expenses.CapexLargeCSV,
		series.Options{Padding: series.PadDefault})
	if err != nil {
		return cashflow.Input{}, nil, err
	}
	equipmentRepairs, err := loader.yearly("expenses.equipment_repairs_csv", conf.Expenses.EquipmentRepairsCSV,
		series.Options{Padding: series.PadDefault})
	if err != nil {
		return cashflow.Input{}, nil, err
	}
	plan, err := loader.repairsPlan()
	if err != nil {
		return cashflow.Input{}, nil, err
	}

	building, equipment := conf.Assets()
	in := cashflow.Input{
		Years:               conf.Years,
		PurchasePrice:       conf.PurchasePrice,
		InitialCapitalRatio: conf.InitialCapitalRatio,
		GrossYield:          conf.GrossYield,
		CapitalGainsTaxRate: conf.CapitalGainsTaxRate,
		Income:              conf.IncomeInput(),
		Expenses: expenses.Input{
			Tax:  conf.TaxInput(corrections),
			Loan: conf.LoanTerms(),
			Operations: expenses.Operations{
				ManagementFee:     conf.Expenses.ManagementFee,
				ManagementFeeRate: conf.Expenses.ManagementFeeRate,
				Repairs:           conf.Expenses.Repairs,
				Insurance:         conf.Expenses.Insurance,
				Utilities:         conf.Expenses.Utilities,
				CapexLarge:        capex,
				EquipmentRepairs:  equipmentRepairs,
				RepairsPlan:       plan,
			},
		},
		Building:   building,
		Equipment:  equipment,
		RoundToYen: conf.RoundToYen,
	}

	warnings := append(conf.ValidateConfiguration(), loader.warnings...)
	return in, warnings, nil
}

type seriesLoader struct {
	logger   *zap.Logger
	conf     config.Configuration
	fsys     afero.Fs
	warnings []string
}

func (l *seriesLoader) yearly(key, path string, opts series.Options) ([]float64, error) {
	if path == "" {
		return nil, nil
	}
	values, err := series.Yearly(l.fsys, l.conf.ResolvePath(path), l.conf.Years, opts)
	if err != nil {
		return nil, l.degrade(key, err)
	}
	return values, nil
}

func (l *seriesLoader) repairsPlan() (*series.RepairsPlan, error) {
	path := l.conf.Expenses.RepairsPlanCSV
	if path == "" {
		return nil, nil
	}
	plan, err := series.Repairs(l.fsys, l.conf.ResolvePath(path), l.conf.Years)
	if err != nil {
		return nil, l.degrade("expenses.repairs_plan_csv", err)
	}
	return plan, nil
}

// degrade swallows missing files with a warning and passes other errors on.
func (l *seriesLoader) degrade(key string, err error) error {
	if !errors.Is(err, validation.ErrMissingResource) {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	warning := fmt.Sprintf("%s could not be loaded, using defaults: %s", key, err)
	l.logger.Warn(warning, zap.String("op", "forecast.BuildInput"))
	l.warnings = append(l.warnings, warning)
	return nil
}
