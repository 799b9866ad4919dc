// Package row implements the two row container shapes used across
// KadeDB's stores (Row, deep-owned; RowShallow, shared-cell) plus
// Document, the name-to-value container used by the document store.
package row

import "github.com/kadedb/kadedb/value"

// Row is a fixed-length sequence of owned values, positionally aligned to
// a schema's column order. A null cell is represented by value.NewNull()
// rather than a parallel bool flag.
type Row struct {
	Cells []value.Value
}

// NewRow returns a Row wrapping cells. The slice is taken as-is; callers
// that built cells specifically for this Row don't need a copy.
func NewRow(cells []value.Value) Row {
	return Row{Cells: cells}
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.Cells) }

// At returns the cell at i.
func (r Row) At(i int) value.Value { return r.Cells[i] }

// Clone returns a deep copy: a new backing slice with every cell cloned.
func (r Row) Clone() Row {
	out := make([]value.Value, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Clone()
	}
	return Row{Cells: out}
}

// RowShallow shares cell ownership with whatever built it; Copy shares the
// same backing slice rather than cloning. It is meant to be scoped to a
// single caller and never stored inside a stateful container.
type RowShallow struct {
	Cells []value.Value
}

// FromClones builds a RowShallow by deep-cloning r's cells, so later
// mutation of the shallow copy's cells (if any) never reaches r.
func FromClones(r Row) RowShallow {
	return RowShallow{Cells: r.Clone().Cells}
}

// ToRowDeep converts back to an owned Row via a deep clone.
func (rs RowShallow) ToRowDeep() Row {
	out := make([]value.Value, len(rs.Cells))
	for i, c := range rs.Cells {
		out[i] = c.Clone()
	}
	return Row{Cells: out}
}

// Copy shares the backing slice with rs; mutating one's Cells slice
// contents is visible to the other. Intentional: RowShallow exists
// specifically to avoid per-cell clones for callers who promise not to
// retain it past the current operation.
func (rs RowShallow) Copy() RowShallow { return rs }

// Document is a field-name to value mapping. Unlike Row it carries its own
// field names and has no fixed arity.
type Document map[string]value.Value

// DeepCopyDocument returns a new Document with every cell cloned.
func DeepCopyDocument(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v.Clone()
	}
	return out
}
