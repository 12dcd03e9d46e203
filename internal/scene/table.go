package scene

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Source is one accepted table row. Extra holds sampled parameters
// beyond position and flux, keyed by name.
type Source struct {
	ID    int
	X     float64
	Y     float64
	Flux  float64
	Extra map[string]float64
}

// Table is the ordered ground-truth record of a generated scene.
type Table struct {
	rows  []Source
	extra []string
}

// NewTable wraps source records, collecting extra-parameter column
// names in sorted order.
func NewTable(rows []Source) *Table {
	seen := map[string]bool{}
	var extra []string
	for _, r := range rows {
		for name := range r.Extra {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return &Table{rows: rows, extra: extra}
}

// Len returns the number of accepted sources.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the source records in generation order. Callers must
// not modify the returned slice.
func (t *Table) Rows() []Source { return t.rows }

// Columns lists the column names in CSV order.
func (t *Table) Columns() []string {
	cols := []string{"id", "x", "y", "flux"}
	return append(cols, t.extra...)
}

// WriteCSV writes the table, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, 4+len(t.extra))
	for _, r := range t.rows {
		rec[0] = strconv.Itoa(r.ID)
		rec[1] = formatFloat(r.X)
		rec[2] = formatFloat(r.Y)
		rec[3] = formatFloat(r.Flux)
		for i, name := range t.extra {
			rec[4+i] = formatFloat(r.Extra[name])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Fluxes returns the flux column in row order.
func (t *Table) Fluxes() []float64 {
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Flux
	}
	return out
}

// FluxStats returns the mean and standard deviation of the flux
// column. Both are zero for an empty table.
func (t *Table) FluxStats() (mean, std float64) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	fluxes := t.Fluxes()
	mean = stat.Mean(fluxes, nil)
	if len(fluxes) > 1 {
		std = stat.StdDev(fluxes, nil)
	}
	return mean, std
}

// TotalFlux returns the sum of the flux column.
func (t *Table) TotalFlux() float64 {
	var sum float64
	for _, r := range t.rows {
		sum += r.Flux
	}
	return sum
}
