// Package optimizer searches for the break-even value of a single
// configuration input.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/property-forecast/internal/config"
	"github.com/iwvelando/property-forecast/internal/forecast"
	"github.com/iwvelando/property-forecast/pkg/cashflow"
	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/format"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/optimization"
	"go.uber.org/zap"
)

const ratioPlaces = 4

type Runner struct {
	logger    *zap.Logger
	conf      *config.Configuration
	projector *cashflow.Projector
	base      cashflow.Input
}

type target struct {
	field         string
	minValue      float64
	maxValue      float64
	floor         float64
	originalState fieldState
}

type evaluation struct {
	value   float64
	display string
	minCash float64
	floor   float64
}

func (e evaluation) feasible() bool {
	return e.minCash >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.minCash - e.floor
}

type fieldState struct {
	numeric float64
	display string
}

// NewRunner constructs a Runner for the provided configuration. The series
// files and rate table are loaded once and shared by every evaluation.
func NewRunner(logger *zap.Logger, conf *config.Configuration, opts forecast.Options) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	rates := opts.Rates
	if rates == nil {
		rates = forecast.NewRateTable(logger, *conf, opts.Fs)
	}
	base, _, err := forecast.BuildInput(logger, *conf, opts.Fs)
	if err != nil {
		return nil, fmt.Errorf("optimizer baseline input failed: %w", err)
	}

	return &Runner{
		logger:    logger,
		conf:      conf,
		projector: cashflow.NewProjector(zap.NewNop(), rates),
		base:      base,
	}, nil
}

// Run executes the optimizer directive, if any, and writes the chosen value
// back into the configuration. A configuration without an optimizer section
// yields a nil summary.
func (r *Runner) Run() (*optimization.Summary, error) {
	cfg := r.conf.Optimizer
	if cfg == nil {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := target{
		field:         cfg.Field,
		minValue:      *cfg.Min,
		maxValue:      *cfg.Max,
		floor:         cfg.Floor,
		originalState: r.currentState(cfg.Field),
	}
	summary, err := r.optimize(t, cfg)
	if err != nil {
		return nil, err
	}
	r.apply(t.field, summary.Value)

	r.logger.Info("optimizer adjusted configuration field",
		zap.String("op", "optimizer.Run"),
		zap.String("field", t.field),
		zap.Float64("originalNumeric", t.originalState.numeric),
		zap.String("originalDisplay", t.originalState.display),
		zap.Float64("optimizedNumeric", summary.Value),
		zap.String("optimizedDisplay", summary.ValueDisplay),
		zap.Float64("floor", summary.Floor),
		zap.Float64("minCashflow", summary.MinimumCashflow),
		zap.Float64("headroom", summary.Headroom),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return &summary, nil
}

func (r *Runner) optimize(t target, cfg *config.OptimizerConfig) (optimization.Summary, error) {
	lowerEval, err := r.evaluate(t, t.minValue)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := r.evaluate(t, t.maxValue)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Field:           t.field,
		Original:        t.originalState.numeric,
		OriginalDisplay: t.originalState.display,
		Floor:           t.floor,
	}
	finish := func(eval evaluation, iterations int, converged bool) optimization.Summary {
		summary.Value = eval.value
		summary.ValueDisplay = eval.display
		summary.MinimumCashflow = eval.minCash
		summary.Headroom = eval.headroom()
		summary.Iterations = iterations
		summary.Converged = converged
		if !converged {
			summary.Notes = []string{fmt.Sprintf(
				"unable to keep every annual cashflow at or above %s within bounds %s to %s",
				format.Yen(t.floor),
				formatFieldDisplay(t.field, t.minValue),
				formatFieldDisplay(t.field, t.maxValue),
			)}
		}
		return summary
	}

	switch {
	case !lowerEval.feasible() && !upperEval.feasible():
		chased := upperEval
		if lowerEval.headroom() > upperEval.headroom() {
			chased = lowerEval
		}
		return finish(chased, 0, false), nil
	case lowerEval.feasible():
		// the smallest value in range already clears the floor
		return finish(lowerEval, 0, true), nil
	}

	iterations := 0
	best := upperEval
	lower := lowerEval.value
	upper := upperEval.value
	for iterations < cfg.MaxIterations && math.Abs(upper-lower) > cfg.Tolerance {
		mid := lower + (upper-lower)/2
		evalMid, err := r.evaluate(t, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if evalMid.feasible() {
			best = evalMid
			if evalMid.value == upper {
				break
			}
			upper = evalMid.value
		} else {
			if evalMid.value == lower {
				break
			}
			lower = evalMid.value
		}
	}

	r.logger.Debug(fmt.Sprintf("bisection on %s stopped after %d iterations at [%f, %f]", t.field, iterations, lower, upper),
		zap.String("op", "optimizer.optimize"),
	)
	return finish(best, iterations, true), nil
}

func (r *Runner) evaluate(t target, raw float64) (evaluation, error) {
	value := mathutil.Clamp(snapFieldValue(t.field, raw), t.minValue, t.maxValue)
	in, err := r.inputWith(t.field, value)
	if err != nil {
		return evaluation{}, err
	}

	projection, err := r.projector.Project(in)
	if err != nil {
		return evaluation{}, fmt.Errorf("optimizer forecast evaluation failed: %w", err)
	}
	return evaluation{
		value:   value,
		display: formatFieldDisplay(t.field, value),
		minCash: projection.MinimumCashflow(),
		floor:   t.floor,
	}, nil
}

// inputWith returns a copy of the baseline input with field set to value.
// Changing the initial capital ratio re-derives the loan principal from the
// purchase price.
func (r *Runner) inputWith(field string, value float64) (cashflow.Input, error) {
	in := r.base
	switch field {
	case constants.OptimizerFieldMonthlyRent:
		in.Income.MonthlyRent = value
	case constants.OptimizerFieldInitialCapitalRatio:
		in.InitialCapitalRatio = value
		if in.Expenses.Loan != nil {
			terms := *in.Expenses.Loan
			terms.Principal = *in.PurchasePrice * (1 - value)
			if terms.Principal > 0 {
				in.Expenses.Loan = &terms
			} else {
				in.Expenses.Loan = nil
			}
		}
	default:
		return cashflow.Input{}, fmt.Errorf("optimizer field %q is not supported", field)
	}
	return in, nil
}

func (r *Runner) currentState(field string) fieldState {
	switch field {
	case constants.OptimizerFieldInitialCapitalRatio:
		return fieldState{numeric: r.conf.InitialCapitalRatio, display: format.Percent(r.conf.InitialCapitalRatio)}
	default:
		return fieldState{numeric: r.conf.Income.MonthlyRent, display: format.Yen(r.conf.Income.MonthlyRent)}
	}
}

func (r *Runner) apply(field string, value float64) {
	switch field {
	case constants.OptimizerFieldMonthlyRent:
		r.conf.Income.MonthlyRent = value
	case constants.OptimizerFieldInitialCapitalRatio:
		r.conf.InitialCapitalRatio = value
		if r.conf.Loan.Years > 0 {
			r.conf.Loan.Principal = *r.conf.PurchasePrice * (1 - value)
		}
	}
}

func snapFieldValue(field string, value float64) float64 {
	switch field {
	case constants.OptimizerFieldMonthlyRent:
		return mathutil.RoundYen(value)
	case constants.OptimizerFieldInitialCapitalRatio:
		return mathutil.RoundPlaces(value, ratioPlaces)
	default:
		return value
	}
}

func formatFieldDisplay(field string, value float64) string {
	switch field {
	case constants.OptimizerFieldMonthlyRent:
		return format.Yen(value)
	case constants.OptimizerFieldInitialCapitalRatio:
		return format.Percent(value)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}
