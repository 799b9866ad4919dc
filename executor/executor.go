// Package executor lowers a parsed KadeQL Statement to relational storage
// operations: build+simplify+validate the WHERE predicate, then dispatch
// by statement kind.
package executor

import (
	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/optimizer"
	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/relational"
	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// Executor runs parsed KadeQL statements against a relational store.
type Executor struct {
	storage *relational.Store
}

// New returns an Executor bound to storage.
func New(storage *relational.Store) *Executor {
	return &Executor{storage: storage}
}

// Execute dispatches stmt to the matching storage operation and returns
// its result as a ResultSet.
func (ex *Executor) Execute(stmt kadeql.Statement) (*resultset.ResultSet, error) {
	switch s := stmt.(type) {
	case *kadeql.Select:
		return ex.execSelect(s)
	case *kadeql.Insert:
		return ex.execInsert(s)
	case *kadeql.Update:
		return ex.execUpdate(s)
	case *kadeql.Delete:
		return ex.execDelete(s)
	default:
		return nil, status.InvalidArgumentf("executor: unsupported statement type")
	}
}

// buildWhere lowers and simplifies e into a Predicate and validates its
// columns against the table's live schema.
func (ex *Executor) buildWhere(table string, e kadeql.Expr) (*predicate.Predicate, error) {
	p, err := optimizer.Build(e)
	if err != nil {
		return nil, err
	}
	p = optimizer.Simplify(p)
	s, err := ex.storage.TableSchema(table)
	if err != nil {
		return nil, err
	}
	if err := optimizer.ValidateColumns(s, p); err != nil {
		return nil, err
	}
	return p, nil
}

func affectedResult(column string, n int) *resultset.ResultSet {
	rs := resultset.New([]string{"affected", column}, []value.Type{value.Integer, value.Integer})
	_ = rs.AddRow(resultset.ResultRow{value.NewInteger(int64(n)), value.NewInteger(int64(n))})
	return rs
}

func (ex *Executor) execInsert(ins *kadeql.Insert) (*resultset.ResultSet, error) {
	s, err := ex.storage.TableSchema(ins.Table)
	if err != nil {
		return nil, err
	}
	cols := ins.Columns
	if cols == nil {
		for _, c := range s.Columns() {
			cols = append(cols, c.Name)
		}
	}
	positions := make([]int, len(cols))
	for i, name := range cols {
		idx := s.ColumnIndex(name)
		if idx < 0 {
			return nil, status.InvalidArgumentf("executor: unknown column %q", name)
		}
		positions[i] = idx
	}

	inserted := 0
	for _, tuple := range ins.Tuples {
		cells := make([]value.Value, s.Len())
		for i := range cells {
			cells[i] = value.NewNull()
		}
		for i, e := range tuple {
			lit, ok := e.(*kadeql.Literal)
			if !ok {
				return nil, status.InvalidArgumentf("executor: INSERT values must be literals")
			}
			v, err := literalValue(lit)
			if err != nil {
				return nil, err
			}
			cells[positions[i]] = v
		}
		if err := ex.storage.InsertRow(ins.Table, row.NewRow(cells)); err != nil {
			return nil, err
		}
		inserted++
	}
	return affectedResult("inserted", inserted), nil
}

func (ex *Executor) execDelete(del *kadeql.Delete) (*resultset.ResultSet, error) {
	where, err := ex.buildWhere(del.Table, del.Where)
	if err != nil {
		return nil, err
	}
	n, err := ex.storage.DeleteRows(del.Table, where)
	if err != nil {
		return nil, err
	}
	return affectedResult("deleted", n), nil
}

func (ex *Executor) execUpdate(upd *kadeql.Update) (*resultset.ResultSet, error) {
	where, err := ex.buildWhere(upd.Table, upd.Where)
	if err != nil {
		return nil, err
	}

	simple := true
	for _, a := range upd.Set {
		if _, ok := a.Value.(*kadeql.Literal); !ok {
			simple = false
			break
		}
	}

	if simple {
		assignments := make(map[string]value.Value, len(upd.Set))
		for _, a := range upd.Set {
			lv, err := literalValue(a.Value.(*kadeql.Literal))
			if err != nil {
				return nil, err
			}
			assignments[a.Column] = lv
		}
		n, err := ex.storage.UpdateRows(upd.Table, assignments, where)
		if err != nil {
			return nil, err
		}
		return affectedResult("updated", n), nil
	}

	n, err := ex.storage.UpdateRowsWith(upd.Table, where, func(s *schema.TableSchema, r row.Row) (row.Row, error) {
		newCells := append([]value.Value(nil), r.Cells...)
		for _, a := range upd.Set {
			idx := s.ColumnIndex(a.Column)
			if idx < 0 {
				return row.Row{}, status.InvalidArgumentf("executor: unknown column %q", a.Column)
			}
			v, err := evalExpr(a.Value, s, r)
			if err != nil {
				return row.Row{}, err
			}
			newCells[idx] = v
		}
		return row.NewRow(newCells), nil
	})
	if err != nil {
		return nil, err
	}
	return affectedResult("updated", n), nil
}

func literalValue(lit *kadeql.Literal) (value.Value, error) {
	switch lit.Kind {
	case kadeql.LitInteger:
		return value.NewInteger(lit.Int), nil
	case kadeql.LitFloat:
		return value.NewFloat(lit.Flt), nil
	case kadeql.LitString:
		return value.NewString(lit.Str), nil
	case kadeql.LitBoolean:
		return value.NewBoolean(lit.Bool), nil
	case kadeql.LitNull:
		return value.NewNull(), nil
	default:
		return value.Value{}, status.InvalidArgumentf("executor: unknown literal kind")
	}
}
