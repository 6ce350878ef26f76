package tabular

import (
	"encoding/csv"
	"io"

	"asclepius/pkg/errors"
)

// Table is an ordered-column table of string cells, shaped like a CSV file.
// An empty cell means the value is missing.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given column order
func New(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

// AppendRow adds a row. Cell count must match the column count.
func (t *Table) AppendRow(cells ...string) error {
	if len(cells) != len(t.columns) {
		return errors.Wrapf(errors.ErrInvalidInput, "row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// Cell returns the cell at (row, column). ok is false when the column does
// not exist or the row index is out of range.
func (t *Table) Cell(row int, column string) (string, bool) {
	i, exists := t.index[column]
	if !exists || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][i], true
}

// SetCell overwrites the cell at (row, column)
func (t *Table) SetCell(row int, column string, value string) bool {
	i, exists := t.index[column]
	if !exists || row < 0 || row >= len(t.rows) {
		return false
	}
	t.rows[row][i] = value
	return true
}

// Column returns all cells of a column in row order
func (t *Table) Column(name string) ([]string, bool) {
	i, exists := t.index[name]
	if !exists {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, true
}

// Row returns row i as a column-to-cell map
func (t *Table) Row(i int) map[string]string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	out := make(map[string]string, len(t.columns))
	for c, name := range t.columns {
		out[name] = t.rows[i][c]
	}
	return out
}

// Select returns a new table containing only the named columns, in the given
// order. Unknown names are ignored.
func (t *Table) Select(names ...string) *Table {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if t.HasColumn(n) {
			kept = append(kept, n)
		}
	}
	out := New(kept...)
	for r := range t.rows {
		cells := make([]string, len(kept))
		for i, n := range kept {
			cells[i] = t.rows[r][t.index[n]]
		}
		out.rows = append(out.rows, cells)
	}
	return out
}

// DropColumns returns a new table without the named columns
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	return t.Select(kept...)
}

// Equal reports whether two tables have identical columns and cells
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i, c := range t.columns {
		if other.columns[i] != c {
			return false
		}
	}
	for r := range t.rows {
		for c := range t.rows[r] {
			if t.rows[r][c] != other.rows[r][c] {
				return false
			}
		}
	}
	return true
}

// ReadCSV reads a table from CSV. The first record is the header. Short
// records are padded with empty cells so ragged exports do not abort the load.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty csv input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	t := New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		if len(record) > len(header) {
			record = record[:len(header)]
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// WriteCSV writes the table as CSV with a header record
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, row := range t.rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv record")
		}
	}
	cw.Flush()
	return cw.Error()
}
