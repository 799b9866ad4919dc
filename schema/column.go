package schema

import "github.com/kadedb/kadedb/value"

// Constraints bounds a column's allowed values beyond its type and
// nullability. Every field is optional (nil/empty means unconstrained).
type Constraints struct {
	MinLength *int
	MaxLength *int
	OneOf     []value.Value
	MinValue  *value.Value
	MaxValue  *value.Value
}

// Column describes one field of a TableSchema or DocumentSchema.
type Column struct {
	Name        string
	Type        value.Type
	Nullable    bool
	Unique      bool
	Constraints *Constraints
}
