package schema

import "sort"

// DocumentSchema maps field name to Column. Unlike TableSchema it has no
// fixed arity and no primary key; unknown fields in a document are always
// allowed, only known fields are validated.
type DocumentSchema struct {
	fields map[string]Column
}

// NewDocumentSchema returns an empty schema ready for AddField calls.
func NewDocumentSchema() *DocumentSchema {
	return &DocumentSchema{fields: make(map[string]Column)}
}

// AddField declares or replaces a field.
func (s *DocumentSchema) AddField(c Column) {
	s.fields[c.Name] = c
}

// RemoveField drops a field declaration, if present.
func (s *DocumentSchema) RemoveField(name string) {
	delete(s.fields, name)
}

// GetField looks up a field's column definition.
func (s *DocumentSchema) GetField(name string) (Column, bool) {
	c, ok := s.fields[name]
	return c, ok
}

// HasField reports whether name is declared.
func (s *DocumentSchema) HasField(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Fields returns every declared column, sorted by name for determinism
// (a DocumentSchema has no inherent declaration order).
func (s *DocumentSchema) Fields() []Column {
	names := make([]string, 0, len(s.fields))
	for n := range s.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = s.fields[n]
	}
	return out
}

// Clone returns a deep copy.
func (s *DocumentSchema) Clone() *DocumentSchema {
	out := NewDocumentSchema()
	for name, c := range s.fields {
		cc := c
		if c.Constraints != nil {
			copyCons := *c.Constraints
			cc.Constraints = &copyCons
		}
		out.fields[name] = cc
	}
	return out
}
