// Package fileparser loads carrier statement files of unknown layout
// (CSV, XLS, XLSX, XML) into a uniform rectangular table of strings.
// This package has no knowledge of carriers or sub-reports; it only
// recovers tabular structure.
package fileparser

import (
	"fmt"
	"strings"
)

// Table is an ordered sequence of named columns over an ordered sequence
// of rows. Column names need not be unique; every row has exactly
// len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a Table from a header and raw rows, padding or trimming
// each row to the header width so the rectangular invariant holds.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{
		Columns: columns,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, fitRow(row, len(columns)))
	}
	return t
}

// fitRow pads a short row with empty cells or trims a long one.
func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	fitted := make([]string, width)
	copy(fitted, row)
	return fitted
}

// ColumnIndex returns the position of the first column with the given
// name (trimmed comparison), or -1 if absent. First occurrence wins when
// names repeat, which keeps access deterministic for duplicate headers.
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, col := range t.Columns {
		if strings.TrimSpace(col) == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col). Out-of-range access returns "".
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return ""
	}
	return t.Rows[row][col]
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// DedupedColumns returns the column names with repeats suffixed _1, _2, …
// so they can key a map. The first occurrence keeps its original name.
func (t *Table) DedupedColumns() []string {
	seen := make(map[string]int, len(t.Columns))
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		if n, dup := seen[col]; dup {
			seen[col] = n + 1
			out[i] = fmt.Sprintf("%s_%d", col, n+1)
		} else {
			seen[col] = 0
			out[i] = col
		}
	}
	return out
}

// Preview returns up to n rows as key-value records keyed by the deduped
// column names. It is total and deterministic: it never fails, and
// null-like cells are rendered as empty strings. This is the
// representation shown to a human for carrier confirmation.
func (t *Table) Preview(n int) ([]map[string]string, []string) {
	cols := t.DedupedColumns()
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	records := make([]map[string]string, 0, n)
	for _, row := range t.Rows[:n] {
		rec := make(map[string]string, len(cols))
		for i, col := range cols {
			rec[col] = cleanNull(row[i])
		}
		records = append(records, rec)
	}
	return records, cols
}

// cleanNull maps spreadsheet null spellings to the empty string.
func cleanNull(s string) string {
	switch strings.TrimSpace(s) {
	case "", "nan", "NaN", "NULL", "null", "#N/A":
		return ""
	}
	return s
}
