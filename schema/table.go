package schema

import "github.com/kadedb/kadedb/status"

// TableSchema is an ordered sequence of columns plus an optional primary
// key column name. Column lookup by name is O(1) via an index map kept in
// sync with the column slice.
type TableSchema struct {
	columns    []Column
	index      map[string]int
	primaryKey string
}

// NewTableSchema builds a schema from columns in declaration order. If
// primaryKey is non-empty it must name one of columns.
func NewTableSchema(columns []Column, primaryKey string) (*TableSchema, error) {
	s := &TableSchema{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := s.index[c.Name]; dup {
			return nil, status.InvalidArgumentf("table schema: duplicate column %q", c.Name)
		}
		s.columns[i] = c
		s.index[c.Name] = i
	}
	if primaryKey != "" {
		if err := s.SetPrimaryKey(primaryKey); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Columns returns the schema's columns in declared order. The returned
// slice is a copy; mutating it does not affect the schema.
func (s *TableSchema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of columns.
func (s *TableSchema) Len() int { return len(s.columns) }

// PrimaryKey returns the primary key column name, or "" if none is set.
func (s *TableSchema) PrimaryKey() string { return s.primaryKey }

// FindColumn looks up a column by name in O(1) average time.
func (s *TableSchema) FindColumn(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// ColumnIndex returns the position of name in declared order, or -1.
func (s *TableSchema) ColumnIndex(name string) int {
	i, ok := s.index[name]
	if !ok {
		return -1
	}
	return i
}

// AddColumn appends a new column. Fails if the name already exists.
func (s *TableSchema) AddColumn(c Column) error {
	if _, dup := s.index[c.Name]; dup {
		return status.AlreadyExistsf("table schema: column %q already exists", c.Name)
	}
	s.index[c.Name] = len(s.columns)
	s.columns = append(s.columns, c)
	return nil
}

// RemoveColumn removes a column by name, shifting later columns left.
// Clears the primary key if it named the removed column.
func (s *TableSchema) RemoveColumn(name string) error {
	i, ok := s.index[name]
	if !ok {
		return status.NotFoundf("table schema: column %q not found", name)
	}
	s.columns = append(s.columns[:i], s.columns[i+1:]...)
	delete(s.index, name)
	for n, idx := range s.index {
		if idx > i {
			s.index[n] = idx - 1
		}
	}
	if s.primaryKey == name {
		s.primaryKey = ""
	}
	return nil
}

// UpdateColumn replaces the column named name in place. The replacement's
// Name may differ from name, in which case the index is re-keyed.
func (s *TableSchema) UpdateColumn(name string, c Column) error {
	i, ok := s.index[name]
	if !ok {
		return status.NotFoundf("table schema: column %q not found", name)
	}
	if c.Name != name {
		if _, dup := s.index[c.Name]; dup {
			return status.AlreadyExistsf("table schema: column %q already exists", c.Name)
		}
		delete(s.index, name)
		s.index[c.Name] = i
		if s.primaryKey == name {
			s.primaryKey = c.Name
		}
	}
	s.columns[i] = c
	return nil
}

// SetPrimaryKey designates name as the primary key column. name must
// already exist.
func (s *TableSchema) SetPrimaryKey(name string) error {
	if _, ok := s.index[name]; !ok {
		return status.InvalidArgumentf("table schema: primary key column %q does not exist", name)
	}
	s.primaryKey = name
	return nil
}

// Clone returns a deep copy, so mutating it never affects s (a store
// keeps its own copy of a schema handed to it at creation time).
func (s *TableSchema) Clone() *TableSchema {
	cols := make([]Column, len(s.columns))
	idx := make(map[string]int, len(s.index))
	for i, c := range s.columns {
		cc := c
		if c.Constraints != nil {
			copyCons := *c.Constraints
			cc.Constraints = &copyCons
		}
		cols[i] = cc
	}
	for k, v := range s.index {
		idx[k] = v
	}
	return &TableSchema{columns: cols, index: idx, primaryKey: s.primaryKey}
}
