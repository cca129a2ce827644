// Package dataset holds the in-memory tabular representation produced by the
// structured loader and consumed by the analysis engine: column names plus
// row-major cells, every cell a numeric value or a missing marker.
package dataset

import (
	"strconv"
	"strings"
)

// Value is one table cell after numeric coercion. Cells whose source text did
// not parse as a number carry the missing marker instead of a value.
type Value struct {
	Num     float64
	Missing bool
}

// Missing is the marker stored for cells that failed numeric coercion.
var MissingValue = Value{Missing: true}

// Num returns a present numeric value.
func Num(f float64) Value { return Value{Num: f} }

// String renders the cell for prompts and text tables. Missing cells render
// as NaN, matching how the sampled head looked in the tool this replaces.
func (v Value) String() string {
	if v.Missing {
		return "NaN"
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

// Table is an ordered set of named columns over row-major cells.
type Table struct {
	Cols []string
	Rows [][]Value
}

// FromStrings builds a Table from raw string records by coercing every cell
// to a number. Coercion is per value and non-fatal: empty cells and cells
// that do not parse become the missing marker. Short rows are padded with
// missing; long rows are truncated to the header width.
func FromStrings(header []string, records [][]string) *Table {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	rows := make([][]Value, 0, len(records))
	for _, rec := range records {
		row := make([]Value, len(cols))
		for j := range cols {
			if j >= len(rec) {
				row[j] = MissingValue
				continue
			}
			row[j] = coerce(rec[j])
		}
		rows = append(rows, row)
	}
	return &Table{Cols: cols, Rows: rows}
}

func coerce(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return MissingValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return MissingValue
	}
	return Value{Num: f}
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// ColCount returns the number of columns.
func (t *Table) ColCount() int { return len(t.Cols) }

// ColumnIndex resolves a column by name, first exactly and then
// case-insensitively. Plans produced by the model occasionally drift on
// casing, so the relaxed match keeps otherwise valid plans executable.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Cols {
		if c == name {
			return i, true
		}
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Cols {
		if strings.ToLower(c) == lower {
			return i, true
		}
	}
	return 0, false
}

// Column returns the cells of column i in row order.
func (t *Table) Column(i int) []Value {
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Select returns a new table restricted to the named column indices, sharing
// no row slices with the receiver.
func (t *Table) Select(idx []int) *Table {
	cols := make([]string, len(idx))
	for i, j := range idx {
		cols[i] = t.Cols[j]
	}
	rows := make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]Value, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		rows[r] = nr
	}
	return &Table{Cols: cols, Rows: rows}
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	rows := make([][]Value, n)
	for i := 0; i < n; i++ {
		row := make([]Value, len(t.Rows[i]))
		copy(row, t.Rows[i])
		rows[i] = row
	}
	cols := make([]string, len(t.Cols))
	copy(cols, t.Cols)
	return &Table{Cols: cols, Rows: rows}
}
