package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/optimizer"
	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/value"
)

func parseWhere(t *testing.T, query string) kadeql.Expr {
	t.Helper()
	stmt, err := kadeql.ParseQuery(query)
	require.NoError(t, err)
	return stmt.(*kadeql.Select).Where
}

func TestBuildReversedOperand(t *testing.T) {
	e := parseWhere(t, "SELECT id FROM person WHERE 25 < age")
	p, err := optimizer.Build(e)
	require.NoError(t, err)
	require.Equal(t, predicate.KindComparison, p.Kind)
	require.Equal(t, "age", p.Column)
	require.Equal(t, predicate.Gt, p.Op)
}

func TestBuildConstantFolding(t *testing.T) {
	e := parseWhere(t, "SELECT id FROM person WHERE 1 = 1")
	p, err := optimizer.Build(e)
	require.NoError(t, err)
	require.True(t, predicate.IsTrueConstant(p))

	e = parseWhere(t, "SELECT id FROM person WHERE 1 = 2")
	p, err = optimizer.Build(e)
	require.NoError(t, err)
	require.True(t, predicate.IsFalseConstant(p))
}

func TestSimplifyDeMorgan(t *testing.T) {
	e := parseWhere(t, "SELECT id FROM person WHERE NOT (age < 10 AND name = 'Bob')")
	p, err := optimizer.Build(e)
	require.NoError(t, err)
	simplified := optimizer.Simplify(p)
	require.Equal(t, predicate.KindOr, simplified.Kind)
	require.Len(t, simplified.Children, 2)
}

func TestSimplifyIdempotent(t *testing.T) {
	e := parseWhere(t, "SELECT id FROM person WHERE NOT(name = 'Bob') AND 25 < age")
	p, err := optimizer.Build(e)
	require.NoError(t, err)
	once := optimizer.Simplify(p)
	twice := optimizer.Simplify(once)
	require.Equal(t, describe(once), describe(twice))
}

func TestSimplifyPreservesEval(t *testing.T) {
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "age", Type: value.Integer},
		{Name: "name", Type: value.String},
	}, "")
	require.NoError(t, err)
	r := row.NewRow([]value.Value{value.NewInteger(36), value.NewString("Ada")})

	e := parseWhere(t, "SELECT id FROM person WHERE NOT(name = 'Bob') AND 25 < age")
	p, err := optimizer.Build(e)
	require.NoError(t, err)
	before, err := predicate.Eval(s, r, p)
	require.NoError(t, err)

	simplified := optimizer.Simplify(p)
	after, err := predicate.Eval(s, r, simplified)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestValidateColumnsRejectsUnknown(t *testing.T) {
	s, err := schema.NewTableSchema([]schema.Column{{Name: "age", Type: value.Integer}}, "")
	require.NoError(t, err)
	p := predicate.Comparison("nope", predicate.Eq, value.NewInteger(1))
	err = optimizer.ValidateColumns(s, p)
	require.Error(t, err)
}

func describe(p *predicate.Predicate) string {
	if p == nil {
		return "nil"
	}
	switch p.Kind {
	case predicate.KindComparison:
		return p.Column + p.Op.String() + p.RHS.ToString()
	default:
		s := ""
		for _, c := range p.Children {
			s += describe(c) + ";"
		}
		return s
	}
}
