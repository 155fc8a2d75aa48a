// Package dataset turns uploaded tabular files into validated (x, y) samples.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/KaramelBytes/linefit/internal/regression"
)

// Dataset is the typed result of ingestion. Samples hold only rows whose X
// and Y both parsed as finite numbers, in file order.
type Dataset struct {
	Name        string              `json:"name"`
	Format      string              `json:"format"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	Columns     []string            `json:"columns"`
	XColumn     string              `json:"x_column"`
	YColumn     string              `json:"y_column"`
	Rows        int                 `json:"rows"`
	Processed   int                 `json:"processed"`
	Skipped     int                 `json:"skipped"`
	Samples     []regression.Sample `json:"-"`
	Preview     [][]string          `json:"preview,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// rowSource yields records; io.EOF ends the stream.
type rowSource interface {
	Next() ([]string, error)
}

func build(name, format string, src rowSource, opt Options) (*Dataset, error) {
	opt = opt.normalized()
	header, err := src.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: file is empty: %w", name, ErrNoData)
		}
		return nil, fmt.Errorf("read header: %w: %w", ErrMalformed, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.TrimSpace(h)
	}
	xi, yi := findColumn(cols, opt.XColumn), findColumn(cols, opt.YColumn)
	if xi < 0 || yi < 0 {
		se := &SchemaError{Columns: cols}
		if xi < 0 {
			se.Missing = append(se.Missing, opt.XColumn)
		}
		if yi < 0 {
			se.Missing = append(se.Missing, opt.YColumn)
		}
		return nil, se
	}

	ds := &Dataset{Name: name, Format: format, Columns: cols, XColumn: cols[xi], YColumn: cols[yi]}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var xNum, yNum int
	for {
		rec, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w: %w", ds.Rows+1, ErrMalformed, err)
		}
		ds.Rows++
		if ds.Processed >= maxRows {
			continue
		}
		ds.Processed++
		if len(ds.Preview) < opt.PreviewRows {
			row := make([]string, len(cols))
			copy(row, rec)
			ds.Preview = append(ds.Preview, row)
		}
		x, xok := parseNumeric(field(rec, xi), opt)
		y, yok := parseNumeric(field(rec, yi), opt)
		if xok {
			xNum++
		}
		if yok {
			yNum++
		}
		if !xok || !yok {
			ds.Skipped++
			continue
		}
		ds.Samples = append(ds.Samples, regression.Sample{X: x, Y: y})
	}

	if ds.Rows == 0 {
		return nil, fmt.Errorf("%s: no data rows: %w", name, ErrNoData)
	}
	if xNum == 0 {
		return nil, &SchemaError{Columns: cols, Reason: fmt.Sprintf("column %q has no numeric values", ds.XColumn)}
	}
	if yNum == 0 {
		return nil, &SchemaError{Columns: cols, Reason: fmt.Sprintf("column %q has no numeric values", ds.YColumn)}
	}
	if ds.Skipped > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("skipped %d row(s) with missing or non-numeric %s/%s", ds.Skipped, ds.XColumn, ds.YColumn))
	}
	if ds.Processed < ds.Rows {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", ds.Processed, ds.Rows))
	}
	return ds, nil
}

// findColumn matches exactly first, then case-insensitively.
func findColumn(cols []string, name string) int {
	name = strings.TrimSpace(name)
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	for i, c := range cols {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

// XY returns the sample coordinates as parallel slices.
func (d *Dataset) XY() (xs, ys []float64) {
	return regression.Split(d.Samples)
}
