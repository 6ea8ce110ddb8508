package types

import "math"

// Table is a free-form numeric table: sensor readouts, structural model
// components and connection maps. Rows are aligned with Columns.
type Table struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

func NewTable(columns []string, rows [][]float64) *Table {
	return &Table{Columns: columns, Rows: rows}
}

func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Column returns the values of a named column, row by row.
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row) {
			return nil, false
		}
		values = append(values, row[idx])
	}
	return values, true
}

// Equal reports deep equality. NaN cells compare equal to NaN cells,
// matching the semantics the rest of the data model relies on.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == nil && other == nil
	}
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i, c := range t.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(other.Rows[i]) {
			return false
		}
		for j, v := range row {
			if !floatEqual(v, other.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
