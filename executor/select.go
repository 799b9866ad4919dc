package executor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

func (ex *Executor) execSelect(sel *kadeql.Select) (*resultset.ResultSet, error) {
	where, err := ex.buildWhere(sel.Table, sel.Where)
	if err != nil {
		return nil, err
	}

	if sel.Columns != nil {
		cols := sel.Columns
		if len(cols) == 1 && cols[0] == "*" {
			cols = nil
		}
		return ex.storage.Select(sel.Table, cols, where)
	}

	if isPlainProjection(sel.Items) {
		return ex.plainProjection(sel.Table, sel.Items, where)
	}
	return ex.aggregationSelect(sel.Table, sel.Items, where)
}

func isPlainProjection(items []kadeql.SelectItem) bool {
	for _, it := range items {
		if _, ok := it.Expr.(*kadeql.Ident); !ok {
			return false
		}
	}
	return true
}

// plainProjection handles expression-mode SELECTs whose items are all bare
// identifiers, optionally aliased: project the named columns and rename
// the header to each item's alias (or the column's own name).
func (ex *Executor) plainProjection(table string, items []kadeql.SelectItem, where *predicate.Predicate) (*resultset.ResultSet, error) {
	if len(items) == 1 && items[0].Alias == "" && items[0].Expr.(*kadeql.Ident).Name == "*" {
		return ex.storage.Select(table, nil, where)
	}
	cols := make([]string, len(items))
	for i, it := range items {
		cols[i] = it.Expr.(*kadeql.Ident).Name
	}
	rs, err := ex.storage.Select(table, cols, where)
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		if it.Alias != "" {
			rs.Columns[i] = it.Alias
		}
	}
	return rs, nil
}

// timestampHeuristicColumn returns the first Integer column named
// "timestamp", the default FIRST/LAST ordering key.
func timestampHeuristicColumn(s *schema.TableSchema) string {
	for _, c := range s.Columns() {
		if c.Name == "timestamp" && c.Type == value.Integer {
			return c.Name
		}
	}
	return ""
}

type aggGroup struct {
	key  []value.Value
	rows []row.Row
}

func keyOf(vals []value.Value) string {
	out := ""
	for _, v := range vals {
		out += v.Type().String() + ":" + v.ToString() + "|"
	}
	return out
}

// aggregationSelect handles expression-mode SELECTs containing any
// function call or arithmetic expression: group rows by their TIME_BUCKET
// values (a single global group if none), then produce one output row per
// group.
func (ex *Executor) aggregationSelect(table string, items []kadeql.SelectItem, where *predicate.Predicate) (*resultset.ResultSet, error) {
	s, err := ex.storage.TableSchema(table)
	if err != nil {
		return nil, err
	}
	full, err := ex.storage.Select(table, nil, where)
	if err != nil {
		return nil, err
	}

	// Function names are case-insensitive, like keywords.
	bucketIdx := make([]int, 0)
	for i, it := range items {
		if f, ok := it.Expr.(*kadeql.FuncExpr); ok {
			switch strings.ToUpper(f.Name) {
			case "TIME_BUCKET":
				bucketIdx = append(bucketIdx, i)
			case "FIRST", "LAST":
			default:
				return nil, status.InvalidArgumentf("executor: unknown function %q", f.Name)
			}
		}
	}

	var order []string
	groups := make(map[string]*aggGroup)
	for _, rr := range full.Rows {
		r := row.NewRow(append([]value.Value(nil), rr...))
		key := make([]value.Value, len(bucketIdx))
		for j, i := range bucketIdx {
			v, err := evalTimeBucket(items[i].Expr.(*kadeql.FuncExpr), s, r)
			if err != nil {
				return nil, err
			}
			key[j] = v
		}
		k := keyOf(key)
		g, ok := groups[k]
		if !ok {
			g = &aggGroup{key: key}
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, r)
	}
	if len(groups) == 0 && len(bucketIdx) == 0 {
		groups[""] = &aggGroup{}
		order = append(order, "")
	}

	if len(bucketIdx) > 0 {
		sort.Slice(order, func(a, b int) bool {
			ga, gb := groups[order[a]], groups[order[b]]
			for i := range ga.key {
				c := ga.key[i].Compare(gb.key[i])
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}

	columns := make([]string, len(items))
	types := make([]value.Type, len(items))
	for i, it := range items {
		columns[i] = outputName(it, i)
	}

	firstRow := true
	var outRows []resultset.ResultRow
	for _, k := range order {
		g := groups[k]
		out := make(resultset.ResultRow, len(items))
		bi := 0
		for i, it := range items {
			var cell value.Value
			switch expr := it.Expr.(type) {
			case *kadeql.FuncExpr:
				if strings.ToUpper(expr.Name) == "TIME_BUCKET" {
					cell = g.key[bi]
					bi++
				} else {
					v, err := evalFirstLast(expr, s, g.rows)
					if err != nil {
						return nil, err
					}
					cell = v
				}
			default:
				if len(g.rows) == 0 {
					cell = value.NewNull()
				} else {
					v, err := evalExpr(expr, s, g.rows[0])
					if err != nil {
						return nil, err
					}
					cell = v
				}
			}
			out[i] = cell
			if firstRow {
				types[i] = cell.Type()
			}
		}
		firstRow = false
		outRows = append(outRows, out)
	}
	rs := &resultset.ResultSet{Columns: columns, Types: types, Rows: outRows}
	return rs, nil
}

func outputName(it kadeql.SelectItem, idx int) string {
	if it.Alias != "" {
		return it.Alias
	}
	if id, ok := it.Expr.(*kadeql.Ident); ok {
		return id.Name
	}
	if f, ok := it.Expr.(*kadeql.FuncExpr); ok {
		return f.Name
	}
	return "col" + strconv.Itoa(idx)
}

func evalTimeBucket(f *kadeql.FuncExpr, s *schema.TableSchema, r row.Row) (value.Value, error) {
	if len(f.Args) != 2 {
		return value.Value{}, status.InvalidArgumentf("executor: TIME_BUCKET requires exactly 2 arguments")
	}
	widthLit, ok := f.Args[1].(*kadeql.Literal)
	if !ok || widthLit.Kind != kadeql.LitInteger {
		return value.Value{}, status.InvalidArgumentf("executor: TIME_BUCKET width must be an integer literal")
	}
	width := widthLit.Int
	if width <= 0 {
		return value.Value{}, status.InvalidArgumentf("executor: TIME_BUCKET width must be positive")
	}
	v, err := evalExpr(f.Args[0], s, r)
	if err != nil {
		return value.Value{}, err
	}
	ts, err := v.AsInt()
	if err != nil {
		return value.Value{}, status.InvalidArgumentf("executor: TIME_BUCKET requires an integer expression: %v", err)
	}
	return value.NewInteger(floorDiv(ts, width) * width), nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// evalFirstLast computes FIRST(value [, orderExpr]) / LAST(value
// [, orderExpr]): the value of the first argument at the row
// minimizing/maximizing orderExpr, ties broken by insertion order.
func evalFirstLast(f *kadeql.FuncExpr, s *schema.TableSchema, rows []row.Row) (value.Value, error) {
	if len(f.Args) < 1 || len(f.Args) > 2 {
		return value.Value{}, status.InvalidArgumentf("executor: %s requires 1 or 2 arguments", f.Name)
	}
	if len(rows) == 0 {
		return value.NewNull(), nil
	}
	orderExpr := f.Args[0]
	if len(f.Args) == 2 {
		orderExpr = f.Args[1]
	} else if col := timestampHeuristicColumn(s); col != "" {
		orderExpr = &kadeql.Ident{Name: col}
	}

	wantMax := strings.ToUpper(f.Name) == "LAST"
	bestIdx := 0
	bestKey, err := evalExpr(orderExpr, s, rows[0])
	if err != nil {
		return value.Value{}, err
	}
	for i := 1; i < len(rows); i++ {
		k, err := evalExpr(orderExpr, s, rows[i])
		if err != nil {
			return value.Value{}, err
		}
		cmp := k.Compare(bestKey)
		if (wantMax && cmp > 0) || (!wantMax && cmp < 0) {
			bestKey = k
			bestIdx = i
		}
	}
	return evalExpr(f.Args[0], s, rows[bestIdx])
}
