// Package relational implements KadeDB's relational store: a map of named
// tables, each a TableSchema plus a row slice, guarded by a single mutex
// per store.
package relational

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

type table struct {
	schema *schema.TableSchema
	rows   []row.Row
}

// Store holds every table created through it. The zero value is not
// usable; construct with New.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// CreateTable registers name with a copy of s. Mutating s after this call
// never affects the store's schema.
func (st *Store) CreateTable(name string, s *schema.TableSchema) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.tables[name]; ok {
		return status.AlreadyExistsf("relational: table %q already exists", name)
	}
	st.tables[name] = &table{schema: s.Clone()}
	return nil
}

// DropTable removes name and every row it owned.
func (st *Store) DropTable(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.tables[name]; !ok {
		return status.NotFoundf("relational: table %q not found", name)
	}
	delete(st.tables, name)
	return nil
}

// ListTables returns every table name, sorted for deterministic output.
func (st *Store) ListTables() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.tables))
	for name := range st.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TableSchema returns a clone of name's schema, for callers (e.g. the
// optimizer/executor) that need to validate predicate columns without
// holding the store's lock.
func (st *Store) TableSchema(name string) (*schema.TableSchema, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return nil, status.NotFoundf("relational: table %q not found", name)
	}
	return t.schema.Clone(), nil
}

// InsertRow appends a clone of r to name, after validating it against the
// table's schema and re-checking uniqueness across the resulting row set.
// On failure the table is left exactly as it was.
func (st *Store) InsertRow(name string, r row.Row) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return status.NotFoundf("relational: table %q not found", name)
	}
	if err := schema.ValidateRow(t.schema, r); err != nil {
		return status.InvalidArgumentf("relational: %v", err)
	}
	candidate := append(append([]row.Row(nil), t.rows...), r.Clone())
	if err := schema.ValidateUniqueRows(t.schema, candidate, true); err != nil {
		return status.FailedPreconditionf("relational: %v", err)
	}
	t.rows = candidate
	return nil
}

// Select filters name's rows by where (nil matches every row) and
// projects cols (empty means every column, in declared order).
func (st *Store) Select(name string, cols []string, where *predicate.Predicate) (*resultset.ResultSet, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return nil, status.NotFoundf("relational: table %q not found", name)
	}
	projCols, idxs, types, err := projection(t.schema, cols)
	if err != nil {
		return nil, err
	}
	rs := resultset.New(projCols, types)
	for _, r := range t.rows {
		matched, err := predicate.Eval(t.schema, r, where)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		out := make(resultset.ResultRow, len(idxs))
		for i, ci := range idxs {
			out[i] = r.At(ci).Clone()
		}
		if err := rs.AddRow(out); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// DeleteRows removes every row matching where (nil matches all) and
// returns the count removed.
func (st *Store) DeleteRows(name string, where *predicate.Predicate) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return 0, status.NotFoundf("relational: table %q not found", name)
	}
	kept := make([]row.Row, 0, len(t.rows))
	removed := 0
	for _, r := range t.rows {
		matched, err := predicate.Eval(t.schema, r, where)
		if err != nil {
			return 0, err
		}
		if matched {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	return removed, nil
}

// RowUpdater computes a replacement row from an existing row and schema,
// used by UpdateRowsWith for computed assignments.
type RowUpdater func(s *schema.TableSchema, r row.Row) (row.Row, error)

// UpdateRows applies a fixed column->value map to every row matching
// where. It is a thin wrapper over UpdateRowsWith for the "simple
// assignment" path the executor's UPDATE takes.
func (st *Store) UpdateRows(name string, assignments map[string]value.Value, where *predicate.Predicate) (int, error) {
	return st.UpdateRowsWith(name, where, func(s *schema.TableSchema, r row.Row) (row.Row, error) {
		newCells := append([]value.Value(nil), r.Cells...)
		for col, v := range assignments {
			idx := s.ColumnIndex(col)
			if idx < 0 {
				return row.Row{}, status.InvalidArgumentf("relational: unknown column %q", col)
			}
			newCells[idx] = v.Clone()
		}
		return row.NewRow(newCells), nil
	})
}

// UpdateRowsWith applies updater to every row matching where, revalidating
// schema and uniqueness over the resulting table before committing. On
// failure (validation or uniqueness) the table is left exactly as it was.
func (st *Store) UpdateRowsWith(name string, where *predicate.Predicate, updater RowUpdater) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return 0, status.NotFoundf("relational: table %q not found", name)
	}

	snapshot := make([]row.Row, len(t.rows))
	for i, r := range t.rows {
		snapshot[i] = r.Clone()
	}

	updated := 0
	for i, r := range t.rows {
		matched, err := predicate.Eval(t.schema, r, where)
		if err != nil {
			t.rows = snapshot
			return 0, err
		}
		if !matched {
			continue
		}
		newRow, err := updater(t.schema, r)
		if err != nil {
			t.rows = snapshot
			return 0, err
		}
		if err := schema.ValidateRow(t.schema, newRow); err != nil {
			t.rows = snapshot
			return 0, status.InvalidArgumentf("relational: %v", err)
		}
		t.rows[i] = newRow
		updated++
	}
	if err := schema.ValidateUniqueRows(t.schema, t.rows, true); err != nil {
		t.rows = snapshot
		return 0, status.FailedPreconditionf("relational: %v", err)
	}
	return updated, nil
}

// TruncateTable clears name's rows but keeps its schema.
func (st *Store) TruncateTable(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tables[name]
	if !ok {
		return status.NotFoundf("relational: table %q not found", name)
	}
	t.rows = nil
	return nil
}

func projection(s *schema.TableSchema, cols []string) ([]string, []int, []value.Type, error) {
	all := s.Columns()
	if len(cols) == 0 {
		names := make([]string, len(all))
		idxs := make([]int, len(all))
		types := make([]value.Type, len(all))
		for i, c := range all {
			names[i] = c.Name
			idxs[i] = i
			types[i] = c.Type
		}
		return names, idxs, types, nil
	}
	names := make([]string, len(cols))
	idxs := make([]int, len(cols))
	types := make([]value.Type, len(cols))
	for i, name := range cols {
		c, ok := s.FindColumn(name)
		if !ok {
			return nil, nil, nil, status.InvalidArgumentf("relational: unknown column %q", name)
		}
		names[i] = name
		idxs[i] = s.ColumnIndex(name)
		types[i] = c.Type
	}
	return names, idxs, types, nil
}
