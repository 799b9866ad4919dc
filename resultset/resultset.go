// Package resultset implements KadeDB's shared query output shape: a
// typed column header plus a row vector, with cursor iteration, CSV/JSON
// emission, and page slicing.
package resultset

import (
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// ResultRow is one output row: a sequence of owned values parallel to a
// ResultSet's Columns.
type ResultRow []value.Value

// ResultSet is a typed column header (parallel Columns/Types slices) plus
// a sequence of ResultRow.
type ResultSet struct {
	Columns []string
	Types   []value.Type
	Rows    []ResultRow
}

// New builds a ResultSet from parallel column name/type slices. Panics if
// the slices' lengths differ, a programmer error rather than a runtime one.
func New(columns []string, types []value.Type) *ResultSet {
	if len(columns) != len(types) {
		panic("resultset: columns and types length mismatch")
	}
	return &ResultSet{Columns: columns, Types: types}
}

// AddRow appends r, which must have one cell per column.
func (rs *ResultSet) AddRow(r ResultRow) error {
	if len(r) != len(rs.Columns) {
		return status.InvalidArgumentf("resultset: row has %d cells, header has %d columns", len(r), len(rs.Columns))
	}
	rs.Rows = append(rs.Rows, r)
	return nil
}

// NumRows returns the number of rows.
func (rs *ResultSet) NumRows() int { return len(rs.Rows) }

// NumColumns returns the number of columns.
func (rs *ResultSet) NumColumns() int { return len(rs.Columns) }

// FindColumn returns the index of name, or -1 if absent.
func (rs *ResultSet) FindColumn(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// At returns the cell at (rowIdx, colIdx).
func (rs *ResultSet) At(rowIdx, colIdx int) value.Value {
	return rs.Rows[rowIdx][colIdx]
}

// AtName returns the cell at (rowIdx, name).
func (rs *ResultSet) AtName(rowIdx int, name string) (value.Value, error) {
	idx := rs.FindColumn(name)
	if idx < 0 {
		return value.Value{}, status.InvalidArgumentf("resultset: unknown column %q", name)
	}
	return rs.Rows[rowIdx][idx], nil
}

// Cursor is a forward-only iterator over a ResultSet's rows.
type Cursor struct {
	rs  *ResultSet
	pos int
}

// NewCursor returns a Cursor positioned before the first row.
func (rs *ResultSet) NewCursor() *Cursor {
	return &Cursor{rs: rs, pos: -1}
}

// Next advances the cursor and reports whether a row is available.
func (c *Cursor) Next() bool {
	c.pos++
	return c.pos < len(c.rs.Rows)
}

// Row returns the row at the cursor's current position.
func (c *Cursor) Row() ResultRow {
	return c.rs.Rows[c.pos]
}

// Page returns the 0-indexed page of pageSize rows as a new ResultSet
// sharing this set's header. An out-of-range index returns an empty page,
// not an error.
func (rs *ResultSet) Page(pageSize, pageIndex int) *ResultSet {
	out := New(append([]string(nil), rs.Columns...), append([]value.Type(nil), rs.Types...))
	if pageSize <= 0 {
		return out
	}
	start := pageSize * pageIndex
	if start >= len(rs.Rows) {
		return out
	}
	end := start + pageSize
	if end > len(rs.Rows) {
		end = len(rs.Rows)
	}
	out.Rows = append(out.Rows, rs.Rows[start:end]...)
	return out
}

// PageCount returns the number of pages of pageSize rows, rounding up.
func (rs *ResultSet) PageCount(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	n := len(rs.Rows) / pageSize
	if len(rs.Rows)%pageSize != 0 {
		n++
	}
	return n
}
