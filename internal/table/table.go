// Package table holds the in-memory sheet model shared by every stage of
// the ingest pipeline: raw grids as read from a workbook, located tables
// with a header, and the normalized rows handed to summaries.
package table

import (
	"strings"
)

// RawGrid is an untyped worksheet. An empty string is an absent cell.
type RawGrid [][]string

// RawSheet is one worksheet as delivered by a reader.
type RawSheet struct {
	Name string
	Grid RawGrid
	// ReadErr is set when the reader could not load this sheet.
	ReadErr error
}

// Cell is a table value. The zero Cell is the explicit "no value" marker.
type Cell struct {
	Value string
	Valid bool
}

// Missing is the "no value" marker.
var Missing = Cell{}

// Text wraps a present value.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// naTokens are the spreadsheet placeholders read as no value.
var naTokens = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// FromRaw converts a raw grid value. Empty strings and NA placeholders
// such as "N/A" or "#N/A" become Missing.
func FromRaw(s string) Cell {
	if s == "" || naTokens[strings.TrimSpace(s)] {
		return Missing
	}
	return Text(s)
}

// IsBlank reports whether c is missing or whitespace only.
func (c Cell) IsBlank() bool {
	return !c.Valid || strings.TrimSpace(c.Value) == ""
}

// String returns the value, or "" when missing.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// Trimmed returns the cell with surrounding whitespace removed.
func (c Cell) Trimmed() Cell {
	if !c.Valid {
		return c
	}
	return Text(strings.TrimSpace(c.Value))
}

// Float parses the cell as a number.
func (c Cell) Float() (float64, bool) {
	if c.IsBlank() {
		return 0, false
	}
	return ParseNumber(c.Value)
}

// Table is a header plus rows of equal width. Stages clone a table before
// changing it so their inputs stay untouched.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New builds a table from a header and raw data rows, padding or
// truncating each row to the header width.
func New(columns []string, data [][]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	for _, rec := range data {
		row := make([]Cell, len(columns))
		for j := range row {
			if j < len(rec) {
				row[j] = FromRaw(rec[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Get returns the cell at row r of the named column, or Missing when the
// column does not exist.
func (t *Table) Get(r int, name string) Cell {
	j := t.Index(name)
	if j < 0 || r < 0 || r >= len(t.Rows) {
		return Missing
	}
	return t.Rows[r][j]
}

// Set stores a cell. The column must exist.
func (t *Table) Set(r int, name string, c Cell) {
	if j := t.Index(name); j >= 0 {
		t.Rows[r][j] = c
	}
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) []Cell {
	out := make([]Cell, len(t.Rows))
	j := t.Index(name)
	if j < 0 {
		return out
	}
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// SetColumn replaces a column's cells; the column is appended if absent.
func (t *Table) SetColumn(name string, cells []Cell) {
	j := t.EnsureColumn(name)
	for i := range t.Rows {
		if i < len(cells) {
			t.Rows[i][j] = cells[i]
		} else {
			t.Rows[i][j] = Missing
		}
	}
}

// EnsureColumn appends an all-missing column when absent and returns its
// position.
func (t *Table) EnsureColumn(name string) int {
	if j := t.Index(name); j >= 0 {
		return j
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], Missing)
	}
	return len(t.Columns) - 1
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	c := &Table{Columns: append([]string(nil), t.Columns...)}
	c.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]Cell(nil), row...)
	}
	return c
}

// Project returns a new table with exactly the given columns in order;
// columns the table lacks are filled with Missing.
func (t *Table) Project(columns []string) *Table {
	out := &Table{Columns: append([]string(nil), columns...)}
	idx := make([]int, len(columns))
	for k, name := range columns {
		idx[k] = t.Index(name)
	}
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		nr := make([]Cell, len(columns))
		for k, j := range idx {
			if j >= 0 {
				nr[k] = row[j]
			}
		}
		out.Rows[i] = nr
	}
	return out
}
