package executor_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/executor"
	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/relational"
	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/value"
)

func newPersonStore(t *testing.T) *relational.Store {
	t.Helper()
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "id", Type: value.Integer, Unique: true},
		{Name: "name", Type: value.String},
		{Name: "age", Type: value.Integer},
	}, "id")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("person", s))
	return st
}

func execQuery(t *testing.T, ex *executor.Executor, q string) *resultset.ResultSet {
	t.Helper()
	stmt, err := kadeql.ParseQuery(q)
	require.NoError(t, err)
	rs, err := ex.Execute(stmt)
	require.NoError(t, err)
	return rs
}

func mustInt(t *testing.T, rs *resultset.ResultSet, row int, col string) int64 {
	t.Helper()
	v, err := rs.AtName(row, col)
	require.NoError(t, err)
	n, err := v.AsInt()
	require.NoError(t, err)
	return n
}

func insertPeople(t *testing.T, ex *executor.Executor) {
	t.Helper()
	execQuery(t, ex, "INSERT INTO person (id, name, age) VALUES (1, 'Ada', 36), (2, 'Grace', 41), (3, 'Bob', 29)")
}

func TestInsertAndSelectLegacy(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)

	rs := execQuery(t, ex, "INSERT INTO person (id, name, age) VALUES (1, 'Ada', 36), (2, 'Grace', 41)")
	require.Equal(t, int64(2), mustInt(t, rs, 0, "inserted"))

	rs = execQuery(t, ex, "SELECT name FROM person WHERE age >= 30 AND age <= 40")
	require.Equal(t, 1, rs.NumRows())
	v, err := rs.AtName(0, "name")
	require.NoError(t, err)
	s, err := v.AsString()
	require.NoError(t, err)
	require.Equal(t, "Ada", s)
}

func TestSelectReversedOperandAndNot(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "SELECT id FROM person WHERE NOT(name = 'Bob') AND 25 < age")
	require.Equal(t, 2, rs.NumRows())
}

func TestUpdateSimpleAssignment(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "UPDATE person SET age = 99 WHERE id = 1")
	require.Equal(t, int64(1), mustInt(t, rs, 0, "updated"))

	rs = execQuery(t, ex, "SELECT age FROM person WHERE id = 1")
	require.Equal(t, int64(99), mustInt(t, rs, 0, "age"))
}

func TestUpdateComputedExpression(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "UPDATE person SET age = age + 1 WHERE id = 1")
	require.Equal(t, int64(1), mustInt(t, rs, 0, "updated"))

	rs = execQuery(t, ex, "SELECT age FROM person WHERE id = 1")
	require.Equal(t, int64(37), mustInt(t, rs, 0, "age"))
}

func TestUpdateComputedConcatAndDivByZero(t *testing.T) {
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "id", Type: value.Integer, Unique: true},
		{Name: "label", Type: value.String},
		{Name: "n", Type: value.Integer},
	}, "id")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("widget", s))
	ex := executor.New(st)
	execQuery(t, ex, "INSERT INTO widget (id, label, n) VALUES (1, 'x', 5)")

	rs := execQuery(t, ex, "UPDATE widget SET label = label + '!' WHERE id = 1")
	require.Equal(t, int64(1), mustInt(t, rs, 0, "updated"))
	rs = execQuery(t, ex, "SELECT label FROM widget WHERE id = 1")
	v, err := rs.AtName(0, "label")
	require.NoError(t, err)
	str, err := v.AsString()
	require.NoError(t, err)
	require.Equal(t, "x!", str)

	stmt, err := kadeql.ParseQuery("UPDATE widget SET n = n / 0 WHERE id = 1")
	require.NoError(t, err)
	_, err = ex.Execute(stmt)
	require.Error(t, err)
}

func TestSelectStarProjectsAllColumns(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "SELECT * FROM person WHERE id = 1")
	require.Equal(t, []string{"id", "name", "age"}, rs.Columns)
	require.Equal(t, 1, rs.NumRows())
}

func TestDeleteWithWhere(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "DELETE FROM person WHERE age < 30")
	require.Equal(t, int64(1), mustInt(t, rs, 0, "deleted"))
}

func TestSelectExpressionModeAliasedIdentifiers(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	rs := execQuery(t, ex, "SELECT name AS who, age FROM person WHERE id = 1")
	require.Equal(t, []string{"who", "age"}, rs.Columns)
}

func TestSelectAggregationTimeBucketFirstLast(t *testing.T) {
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "timestamp", Type: value.Integer},
		{Name: "value", Type: value.Integer},
	}, "")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("cpu", s))
	ex := executor.New(st)

	rows := [][2]int64{{0, 10}, {5, 20}, {10, 30}, {15, 40}}
	for _, r := range rows {
		q := "INSERT INTO cpu (timestamp, value) VALUES (" +
			strconv.FormatInt(r[0], 10) + ", " + strconv.FormatInt(r[1], 10) + ")"
		execQuery(t, ex, q)
	}

	rs := execQuery(t, ex, "SELECT TIME_BUCKET(timestamp, 10) AS bucket, FIRST(value) FROM cpu")
	require.Equal(t, 2, rs.NumRows())
	require.Equal(t, int64(0), mustInt(t, rs, 0, "bucket"))
	require.Equal(t, int64(10), mustInt(t, rs, 0, "FIRST"))
	require.Equal(t, int64(10), mustInt(t, rs, 1, "bucket"))
	require.Equal(t, int64(30), mustInt(t, rs, 1, "FIRST"))
}

func TestSelectAggregationLastAndDescendingGroups(t *testing.T) {
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "timestamp", Type: value.Integer},
		{Name: "value", Type: value.Integer},
	}, "")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("cpu", s))
	ex := executor.New(st)

	rows := [][2]int64{{15, 40}, {0, 10}, {5, 20}, {10, 30}}
	for _, r := range rows {
		q := "INSERT INTO cpu (timestamp, value) VALUES (" +
			strconv.FormatInt(r[0], 10) + ", " + strconv.FormatInt(r[1], 10) + ")"
		execQuery(t, ex, q)
	}

	rs := execQuery(t, ex, "SELECT TIME_BUCKET(timestamp, 10) AS bucket, LAST(value) FROM cpu")
	require.Equal(t, 2, rs.NumRows())
	require.Equal(t, int64(0), mustInt(t, rs, 0, "bucket"))
	require.Equal(t, int64(20), mustInt(t, rs, 0, "LAST"))
	require.Equal(t, int64(10), mustInt(t, rs, 1, "bucket"))
	require.Equal(t, int64(40), mustInt(t, rs, 1, "LAST"))
}

func TestInsertNegativeLiteral(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)

	execQuery(t, ex, "INSERT INTO person (id, name, age) VALUES (1, 'Ada', -1)")
	rs := execQuery(t, ex, "SELECT age FROM person WHERE id = 1")
	require.Equal(t, int64(-1), mustInt(t, rs, 0, "age"))
}

func TestSelectAggregationUnknownFunction(t *testing.T) {
	st := newPersonStore(t)
	ex := executor.New(st)
	insertPeople(t, ex)

	stmt, err := kadeql.ParseQuery("SELECT MEDIAN(age) FROM person")
	require.NoError(t, err)
	_, err = ex.Execute(stmt)
	require.Error(t, err)
}

func TestSelectAggregationLowercaseFunctionNames(t *testing.T) {
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "timestamp", Type: value.Integer},
		{Name: "value", Type: value.Integer},
	}, "")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("cpu", s))
	ex := executor.New(st)
	execQuery(t, ex, "INSERT INTO cpu (timestamp, value) VALUES (0, 10), (5, 20)")

	rs := execQuery(t, ex, "SELECT time_bucket(timestamp, 10) AS bucket, last(value) AS v FROM cpu")
	require.Equal(t, 1, rs.NumRows())
	require.Equal(t, int64(0), mustInt(t, rs, 0, "bucket"))
	require.Equal(t, int64(20), mustInt(t, rs, 0, "v"))
}

func TestInsertArityMismatchSurfacesParseError(t *testing.T) {
	_, err := kadeql.ParseQuery(`INSERT INTO person (id, age) VALUES (5, "x", 99)`)
	require.Error(t, err)
	var perr *kadeql.ParseError
	require.ErrorAs(t, err, &perr)
}
