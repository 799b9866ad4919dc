package kadeql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/kadeql"
)

func TestParseSelectLegacyMode(t *testing.T) {
	stmt, err := kadeql.ParseQuery("SELECT name FROM person WHERE age >= 30 AND age <= 40")
	require.NoError(t, err)
	sel, ok := stmt.(*kadeql.Select)
	require.True(t, ok)
	require.Equal(t, []string{"name"}, sel.Columns)
	require.Equal(t, "person", sel.Table)
	require.NotNil(t, sel.Where)
}

func TestParseSelectNotAndReversedOperand(t *testing.T) {
	stmt, err := kadeql.ParseQuery("SELECT id FROM person WHERE NOT(name = 'Bob') AND 25 < age")
	require.NoError(t, err)
	sel, ok := stmt.(*kadeql.Select)
	require.True(t, ok)
	require.Equal(t, []string{"id"}, sel.Columns)
	bin, ok := sel.Where.(*kadeql.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, kadeql.OpAnd, bin.Op)
}

func TestParseInsertArityMismatchError(t *testing.T) {
	_, err := kadeql.ParseQuery(`INSERT INTO person (id, age) VALUES (5, "x", 99)`)
	require.Error(t, err)
	var perr *kadeql.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseInsertMultiTuple(t *testing.T) {
	stmt, err := kadeql.ParseQuery("INSERT INTO person (id, name) VALUES (1, 'Ada'), (2, 'Grace')")
	require.NoError(t, err)
	ins, ok := stmt.(*kadeql.Insert)
	require.True(t, ok)
	require.Equal(t, []string{"id", "name"}, ins.Columns)
	require.Len(t, ins.Tuples, 2)
}

func TestParseUpdateComputedExpression(t *testing.T) {
	stmt, err := kadeql.ParseQuery("UPDATE person SET age = age + 1 WHERE id = 1")
	require.NoError(t, err)
	upd, ok := stmt.(*kadeql.Update)
	require.True(t, ok)
	require.Len(t, upd.Set, 1)
	_, ok = upd.Set[0].Value.(*kadeql.BinaryExpr)
	require.True(t, ok)
}

func TestParseSelectExpressionModeWithAlias(t *testing.T) {
	stmt, err := kadeql.ParseQuery("SELECT TIME_BUCKET(ts, 10) AS bucket, FIRST(value) FROM cpu")
	require.NoError(t, err)
	sel, ok := stmt.(*kadeql.Select)
	require.True(t, ok)
	require.Nil(t, sel.Columns)
	require.Len(t, sel.Items, 2)
	require.Equal(t, "bucket", sel.Items[0].Alias)
	_, ok = sel.Items[0].Expr.(*kadeql.FuncExpr)
	require.True(t, ok)
}

func TestParseDeleteWithWhere(t *testing.T) {
	stmt, err := kadeql.ParseQuery("DELETE FROM person WHERE age < 18;")
	require.NoError(t, err)
	del, ok := stmt.(*kadeql.Delete)
	require.True(t, ok)
	require.Equal(t, "person", del.Table)
	require.NotNil(t, del.Where)
}

func TestParseBetween(t *testing.T) {
	stmt, err := kadeql.ParseQuery("SELECT id FROM person WHERE age BETWEEN 20 AND 30")
	require.NoError(t, err)
	sel := stmt.(*kadeql.Select)
	_, ok := sel.Where.(*kadeql.BetweenExpr)
	require.True(t, ok)
}

func TestParseSignedNumericLiteralFolds(t *testing.T) {
	stmt, err := kadeql.ParseQuery("SELECT id FROM person WHERE age > -5")
	require.NoError(t, err)
	sel := stmt.(*kadeql.Select)
	bin, ok := sel.Where.(*kadeql.BinaryExpr)
	require.True(t, ok)
	lit, ok := bin.Right.(*kadeql.Literal)
	require.True(t, ok)
	require.Equal(t, kadeql.LitInteger, lit.Kind)
	require.Equal(t, int64(-5), lit.Int)

	stmt, err = kadeql.ParseQuery("INSERT INTO t (x) VALUES (-2.5)")
	require.NoError(t, err)
	ins := stmt.(*kadeql.Insert)
	flit, ok := ins.Tuples[0][0].(*kadeql.Literal)
	require.True(t, ok)
	require.Equal(t, kadeql.LitFloat, flit.Kind)
	require.Equal(t, -2.5, flit.Flt)
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := kadeql.Tokenize("SELECT 'abc FROM t")
	require.Error(t, err)
}

func TestLexerCaseInsensitiveKeywords(t *testing.T) {
	toks, err := kadeql.Tokenize("select Foo from Bar")
	require.NoError(t, err)
	require.Equal(t, kadeql.TokKeyword, toks[0].Kind)
	require.Equal(t, "SELECT", toks[0].Text)
	require.Equal(t, kadeql.TokIdent, toks[1].Kind)
	require.Equal(t, "Foo", toks[1].Text)
}
