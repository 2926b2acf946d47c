// Package dataset holds the raw tabular shape produced by the loader and
// consumed by the normalizer. Rows are untyped and untrusted; nothing past
// the services boundary ever sees them.
package dataset

import (
	"strings"
)

// Row is one record of a source file: column name to raw cell value.
// A missing cell is either an absent key or an empty string.
type Row map[string]string

// Get returns the trimmed cell value and whether it is present and non-empty.
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an in-memory table: an ordered column list plus its rows.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New creates a dataset with the given columns and no rows.
func New(columns []string) *Dataset {
	return &Dataset{Columns: columns}
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn registers a column name if not already present.
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// DropColumns removes the named columns from the column list and from every
// row. Unknown names are ignored.
func (d *Dataset) DropColumns(names ...string) {
	if d == nil || len(names) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := d.Columns[:0]
	for _, c := range d.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	d.Columns = kept
	for _, row := range d.Rows {
		for n := range drop {
			delete(row, n)
		}
	}
}

// MissingFraction returns the fraction of rows whose cell for the column is
// missing or blank. An empty dataset reports 0.
func (d *Dataset) MissingFraction(column string) float64 {
	if d.Empty() {
		return 0
	}
	missing := 0
	for _, row := range d.Rows {
		if _, ok := row.Get(column); !ok {
			missing++
		}
	}
	return float64(missing) / float64(len(d.Rows))
}

// Filter returns a new dataset keeping only the rows the predicate accepts.
// The column list is shared, rows are not copied.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	out := &Dataset{Columns: d.Columns}
	for _, row := range d.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
