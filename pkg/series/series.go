// Package series reads the plain-text tabular files used for year-indexed
// inputs: building correction multipliers, operating costs by year, combined
// repairs plans, and straight-line depreciation rate tables.
//
// Files are read through an afero.Fs so callers can inject an in-memory
// filesystem. Comment lines starting with "#" and blank lines are ignored.
package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/property-forecast/pkg/parse"
	"github.com/iwvelando/property-forecast/pkg/validation"
	"github.com/spf13/afero"
)

// Padding controls how a sequential (bare value) series is extended when it
// is shorter than the requested horizon.
type Padding int

const (
	// PadDefault fills the missing years with the default value.
	PadDefault Padding = iota
	// PadRepeatLast repeats the final value for the missing years.
	PadRepeatLast
)

// Options configures how a yearly series is materialized.
type Options struct {
	Default float64
	Padding Padding
}

// RepairsPlan holds a combined three-column repairs file split into its two
// cost columns, one entry per year.
type RepairsPlan struct {
	CapexLarge       []float64
	EquipmentRepairs []float64
}

// Yearly loads a yearly series of the given length from path. Rows with two
// or more columns are read as "year,value" pairs overriding the default at
// 1-based years; otherwise every row is the next year's value.
func Yearly(fsys afero.Fs, path string, years int, opts Options) ([]float64, error) {
	rows, err := readRows(fsys, path)
	if err != nil {
		return nil, err
	}
	return FromRows(rows, years, opts), nil
}

// FromRows materializes already-split rows into a yearly series.
func FromRows(rows [][]string, years int, opts Options) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)
	for i := range out {
		out[i] = opts.Default
	}
	if len(rows) == 0 {
		return out
	}

	if isPaired(rows) {
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			year, ok := yearIndex(row[0])
			if !ok || year < 1 || year > years {
				continue
			}
			out[year-1] = parse.Float(row[1], opts.Default)
		}
		return out
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		values = append(values, parse.Float(row[0], opts.Default))
	}
	for i := 0; i < years; i++ {
		switch {
		case i < len(values):
			out[i] = values[i]
		case opts.Padding == PadRepeatLast:
			out[i] = values[len(values)-1]
		}
	}
	return out
}

// Repairs loads a "year,capex_large,equipment_repairs" file. A non-numeric
// first row is treated as a header. Rows with fewer than three columns or a
// year outside 1..years are skipped.
func Repairs(fsys afero.Fs, path string, years int) (*RepairsPlan, error) {
	rows, err := readRows(fsys, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: repairs plan %s has no rows", validation.ErrMissingResource, path)
	}

	plan := &RepairsPlan{
		CapexLarge:       make([]float64, max(years, 0)),
		EquipmentRepairs: make([]float64, max(years, 0)),
	}
	start := 0
	if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][0]), 64); err != nil {
		start = 1
	}
	for _, row := range rows[start:] {
		if len(row) < 3 {
			continue
		}
		year, ok := yearIndex(row[0])
		if !ok || year < 1 || year > years {
			continue
		}
		plan.CapexLarge[year-1] = parse.Float(row[1], 0)
		plan.EquipmentRepairs[year-1] = parse.Float(row[2], 0)
	}
	return plan, nil
}

// ReadRows parses CSV content from r, dropping blank and comment lines.
func ReadRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		reader := csv.NewReader(strings.NewReader(trimmed))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		record, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %q: %w", trimmed, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readRows(fsys afero.Fs, path string) ([][]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no file configured", validation.ErrMissingResource)
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", validation.ErrMissingResource, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadRows(f)
}

func isPaired(rows [][]string) bool {
	for _, row := range rows {
		if len(row) >= 2 {
			return true
		}
	}
	return false
}

func yearIndex(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Extend returns values fitted to years entries: truncated when longer,
// padded by repeating the last value when shorter, and filled with def when
// values is empty.
func Extend(values []float64, years int, def float64) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)
	for i := range out {
		switch {
		case i < len(values):
			out[i] = values[i]
		case len(values) > 0:
			out[i] = values[len(values)-1]
		default:
			out[i] = def
		}
	}
	return out
}
