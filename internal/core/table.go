package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
)

// Table is an in-memory logsheet: a header, kept rows and a declared schema.
// Every cell is a string; missing cells are "" or NALiteral.
type Table struct {
	Alias  string
	Path   string
	Schema Schema

	header []string
	index  map[string]int
	rows   []row
}

type row struct {
	source int // 0-based position in the source file
	cells  []string
}

// NewTable creates an empty table with the given header.
func NewTable(alias string, schema Schema, header []string) (*Table, error) {
	t := &Table{
		Alias:  alias,
		Schema: schema,
		header: slices.Clone(header),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		if _, dup := t.index[h]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", alias, h)
		}
		t.index[h] = i
	}
	return t, nil
}

// Append adds a row found at the 0-based source position.
func (t *Table) Append(source int, cells []string) error {
	if len(cells) != len(t.header) {
		return fmt.Errorf("table %s: row %d has %d cells, want %d", t.Alias, source+1, len(cells), len(t.header))
	}
	t.rows = append(t.rows, row{source: source, cells: slices.Clone(cells)})
	return nil
}

// addColumn appends a column filled with empty cells.
func (t *Table) addColumn(name string) {
	t.index[name] = len(t.header)
	t.header = append(t.header, name)
	for i := range t.rows {
		t.rows[i].cells = append(t.rows[i].cells, "")
	}
}

// Len returns the number of kept rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the header in file order.
func (t *Table) Columns() []string { return slices.Clone(t.header) }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RowNumber returns the 1-based source row number of the i-th kept row.
func (t *Table) RowNumber(i int) int { return t.rows[i].source + 1 }

// Cell returns the value of column name in the i-th kept row.
func (t *Table) Cell(i int, name string) (string, error) {
	pos, ok := t.index[name]
	if !ok {
		return "", fmt.Errorf("table %s: %w: %s", t.Alias, ErrColumnNotFound, name)
	}
	if i < 0 || i >= len(t.rows) {
		return "", fmt.Errorf("table %s: %w: index %d", t.Alias, ErrRowOutOfRange, i)
	}
	return t.rows[i].cells[pos], nil
}

// Column returns a copy of every value of column name, in kept-row order.
func (t *Table) Column(name string) ([]string, error) {
	pos, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("table %s: %w: %s", t.Alias, ErrColumnNotFound, name)
	}
	values := make([]string, len(t.rows))
	for i, r := range t.rows {
		values[i] = r.cells[pos]
	}
	return values, nil
}

// SetByRowNumber overwrites the cell at a 1-based source row number.
// It returns the previous value.
func (t *Table) SetByRowNumber(rowNumber int, name, value string) (string, error) {
	pos, ok := t.index[name]
	if !ok {
		return "", fmt.Errorf("table %s: %w: %s", t.Alias, ErrColumnNotFound, name)
	}
	for i := range t.rows {
		if t.rows[i].source+1 == rowNumber {
			old := t.rows[i].cells[pos]
			t.rows[i].cells[pos] = value
			return old, nil
		}
	}
	return "", fmt.Errorf("table %s: %w: row %d", t.Alias, ErrRowOutOfRange, rowNumber)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Alias:  t.Alias,
		Path:   t.Path,
		Schema: t.Schema,
		header: slices.Clone(t.header),
		index:  make(map[string]int, len(t.index)),
		rows:   make([]row, len(t.rows)),
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, r := range t.rows {
		c.rows[i] = row{source: r.source, cells: slices.Clone(r.cells)}
	}
	return c
}

// WriteCSV writes the header and kept rows as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.rows {
		if err := cw.Write(r.cells); err != nil {
			return fmt.Errorf("write row %d: %w", r.source+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
