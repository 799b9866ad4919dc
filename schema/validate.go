package schema

import (
	"fmt"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/value"
)

// ValidateRow checks r against schema: arity, null-vs-nullable, type
// match (Integer validates against a Float column too), and per-column
// Constraints. Returns nil on success, else a descriptive error.
func ValidateRow(s *TableSchema, r row.Row) error {
	cols := s.Columns()
	if r.Len() != len(cols) {
		return fmt.Errorf("row has %d cells, schema has %d columns", r.Len(), len(cols))
	}
	for i, c := range cols {
		cell := r.At(i)
		if err := validateCell(c, cell); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return nil
}

// ValidateDocument checks d against schema: every non-nullable declared
// field must be present and non-null; present fields must match type and
// constraints. Unknown fields in d always pass.
func ValidateDocument(s *DocumentSchema, d row.Document) error {
	for _, c := range s.Fields() {
		cell, present := d[c.Name]
		if !present || cell.IsNull() {
			if !c.Nullable {
				return fmt.Errorf("field %q: required field is missing or null", c.Name)
			}
			continue
		}
		if err := validateCell(c, cell); err != nil {
			return fmt.Errorf("field %q: %w", c.Name, err)
		}
	}
	return nil
}

func validateCell(c Column, cell value.Value) error {
	if cell.IsNull() {
		if !c.Nullable {
			return fmt.Errorf("null not allowed")
		}
		return nil
	}
	if !typeMatches(c.Type, cell.Type()) {
		return fmt.Errorf("expected %s, got %s", c.Type, cell.Type())
	}
	return validateConstraints(c, cell)
}

// typeMatches allows an Integer cell to validate against a Float column.
func typeMatches(want, got value.Type) bool {
	if want == got {
		return true
	}
	if want == value.Float && got == value.Integer {
		return true
	}
	return false
}

func validateConstraints(c Column, cell value.Value) error {
	if c.Constraints == nil {
		return nil
	}
	cons := c.Constraints

	if cell.Type() == value.String {
		s, _ := cell.AsString()
		if cons.MinLength != nil && len(s) < *cons.MinLength {
			return fmt.Errorf("length %d is below minimum %d", len(s), *cons.MinLength)
		}
		if cons.MaxLength != nil && len(s) > *cons.MaxLength {
			return fmt.Errorf("length %d exceeds maximum %d", len(s), *cons.MaxLength)
		}
	}

	if len(cons.OneOf) > 0 {
		found := false
		for _, candidate := range cons.OneOf {
			if candidate.Equals(cell) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("value %q is not one of the allowed values", cell.ToString())
		}
	}

	if cons.MinValue != nil && cell.Compare(*cons.MinValue) < 0 {
		return fmt.Errorf("value %s is below minimum %s", cell.ToString(), cons.MinValue.ToString())
	}
	if cons.MaxValue != nil && cell.Compare(*cons.MaxValue) > 0 {
		return fmt.Errorf("value %s exceeds maximum %s", cell.ToString(), cons.MaxValue.ToString())
	}
	return nil
}

// ValidateUniqueRows checks every unique column of s against rows: the
// multiset of non-null values for that column must be a set. When
// ignoreNulls is true, null cells are skipped; otherwise all nulls are
// treated as equal to each other and so at most one null is allowed.
func ValidateUniqueRows(s *TableSchema, rows []row.Row, ignoreNulls bool) error {
	for _, c := range s.Columns() {
		if !c.Unique {
			continue
		}
		idx := s.ColumnIndex(c.Name)
		seen := make(map[string]bool, len(rows))
		for _, r := range rows {
			cell := r.At(idx)
			skip, key := cellUniqueKey(cell, ignoreNulls)
			if skip {
				continue
			}
			if seen[key] {
				return fmt.Errorf("column %q: duplicate value %s", c.Name, cell.ToString())
			}
			seen[key] = true
		}
	}
	return nil
}

// ValidateUniqueDocuments is ValidateUniqueRows' document-store analogue.
func ValidateUniqueDocuments(s *DocumentSchema, docs []row.Document, ignoreNulls bool) error {
	for _, c := range s.Fields() {
		if !c.Unique {
			continue
		}
		seen := make(map[string]bool, len(docs))
		for _, d := range docs {
			cell, present := d[c.Name]
			if !present {
				cell = value.NewNull()
			}
			skip, key := cellUniqueKey(cell, ignoreNulls)
			if skip {
				continue
			}
			if seen[key] {
				return fmt.Errorf("field %q: duplicate value %s", c.Name, cell.ToString())
			}
			seen[key] = true
		}
	}
	return nil
}

// cellUniqueKey returns the string key used for duplicate detection for
// cell, plus whether cell should be skipped entirely (ignoreNulls && cell
// is null). Real values are prefixed so that a non-null String("") (whose
// ToString() is "") can never collide with the null sentinel, and nulls
// kept for comparison (ignoreNulls false) get their own prefix distinct
// from both.
func cellUniqueKey(cell value.Value, ignoreNulls bool) (skip bool, key string) {
	if cell.IsNull() {
		if ignoreNulls {
			return true, ""
		}
		return false, "\x00null"
	}
	return false, "\x01" + cell.ToString()
}
