package depreciation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/iwvelando/property-forecast/pkg/series"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

//go:embed data/depreciation_rates_jpn.csv
var officialRates []byte

// RateLoader produces the used-life to straight-line rate mapping.
type RateLoader func() (map[int]float64, error)

// EmbeddedRates loads the statutory rate table compiled into the binary.
func EmbeddedRates() RateLoader {
	return func() (map[int]float64, error) {
		return series.RatesFromReader(bytes.NewReader(officialRates))
	}
}

// FileRates loads the rate table from a CSV file on fsys.
func FileRates(fsys afero.Fs, path string) RateLoader {
	return func() (map[int]float64, error) {
		return series.Rates(fsys, path)
	}
}

// RateTable resolves straight-line rates by used life. The table is loaded
// at most once, on first use, and is read-only afterwards.
type RateTable struct {
	logger *zap.Logger
	loader RateLoader
	once   sync.Once
	rates  map[int]float64
}

// NewRateTable creates a rate table backed by loader. A nil loader uses the
// embedded statutory table.
func NewRateTable(logger *zap.Logger, loader RateLoader) *RateTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = EmbeddedRates()
	}
	return &RateTable{logger: logger, loader: loader}
}

func (t *RateTable) load() {
	t.once.Do(func() {
		rates, err := t.loader()
		if err != nil {
			if errors.Is(err, validation.ErrMissingResource) {
				t.logger.Warn("depreciation rate table not found, falling back to 1/used_life rates",
					zap.String("op", "depreciation.RateTable.load"),
					zap.Error(err),
				)
			} else {
				t.logger.Error("failed to load depreciation rate table, falling back to 1/used_life rates",
					zap.String("op", "depreciation.RateTable.load"),
					zap.Error(err),
				)
			}
			rates = map[int]float64{}
		}
		t.rates = rates
		t.logger.Debug(fmt.Sprintf("loaded %d depreciation rates", len(rates)),
			zap.String("op", "depreciation.RateTable.load"),
		)
	})
}

// Lookup returns the tabulated rate for usedLife, if any.
func (t *RateTable) Lookup(usedLife int) (float64, bool) {
	t.load()
	rate, ok := t.rates[usedLife]
	return rate, ok
}

// Len returns the number of tabulated lives.
func (t *RateTable) Len() int {
	t.load()
	return len(t.rates)
}

// Rate returns the straight-line rate for usedLife, falling back to
// 1/usedLife rounded to three places for lives missing from the table.
func (t *RateTable) Rate(usedLife int) (float64, error) {
	if usedLife <= 0 {
		return 0, fmt.Errorf("%w: used life must be > 0, got %d", validation.ErrInvalidArgument, usedLife)
	}
	if rate, ok := t.Lookup(usedLife); ok {
		return rate, nil
	}
	return mathutil.RoundPlaces(1/float64(usedLife), constants.RatePrecision), nil
}
