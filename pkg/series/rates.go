package series

import (
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/property-forecast/pkg/constants"
	"github.com/iwvelando/property-forecast/pkg/mathutil"
	"github.com/spf13/afero"
)

const (
	lifeColumn = "service_life"
	rateColumn = "straight_line_rate"
)

// Rates loads a straight-line depreciation rate table from path.
func Rates(fsys afero.Fs, path string) (map[int]float64, error) {
	rows, err := readRows(fsys, path)
	if err != nil {
		return nil, err
	}
	return ratesFromRows(rows), nil
}

// RatesFromReader loads a straight-line depreciation rate table from r.
//
// The expected shape is a "service_life,straight_line_rate" header followed
// by one row per life; without a header the first two columns are used.
// Rows that do not parse are skipped and rates are rounded to three places.
func RatesFromReader(r io.Reader) (map[int]float64, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return ratesFromRows(rows), nil
}

func ratesFromRows(rows [][]string) map[int]float64 {
	rates := make(map[int]float64)
	if len(rows) == 0 {
		return rates
	}

	lifeIdx, rateIdx := 0, 1
	start := 0
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case lifeColumn:
			lifeIdx = i
			start = 1
		case rateColumn:
			rateIdx = i
			start = 1
		}
	}

	for _, row := range rows[start:] {
		if lifeIdx >= len(row) || rateIdx >= len(row) {
			continue
		}
		life, err := strconv.Atoi(strings.TrimSpace(row[lifeIdx]))
		if err != nil || life <= 0 {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[rateIdx]), 64)
		if err != nil {
			continue
		}
		rates[life] = mathutil.RoundPlaces(rate, constants.RatePrecision)
	}
	return rates
}
