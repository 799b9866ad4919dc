package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/value"
)

func ageSchema(t *testing.T) *schema.TableSchema {
	t.Helper()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "age", Type: value.Integer, Nullable: true},
	}, "")
	require.NoError(t, err)
	return s
}

func TestEmptyChildrenNeutralSemantics(t *testing.T) {
	s := ageSchema(t)
	r := row.NewRow([]value.Value{value.NewInteger(1)})

	ok, err := predicate.Eval(s, r, predicate.And())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = predicate.Eval(s, r, predicate.Or())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = predicate.Eval(s, r, predicate.Not())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComparisonAgainstNullCellIsFalse(t *testing.T) {
	s := ageSchema(t)
	r := row.NewRow([]value.Value{value.NewNull()})

	ok, err := predicate.Eval(s, r, predicate.Comparison("age", predicate.Ge, value.NewInteger(10)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownColumnIsInvalidArgument(t *testing.T) {
	s := ageSchema(t)
	r := row.NewRow([]value.Value{value.NewInteger(1)})

	_, err := predicate.Eval(s, r, predicate.Comparison("bogus", predicate.Eq, value.NewInteger(1)))
	assert.Error(t, err)
}

func TestAndOrComposition(t *testing.T) {
	s := ageSchema(t)
	r := row.NewRow([]value.Value{value.NewInteger(36)})

	p := predicate.And(
		predicate.Comparison("age", predicate.Ge, value.NewInteger(30)),
		predicate.Comparison("age", predicate.Le, value.NewInteger(40)),
	)
	ok, err := predicate.Eval(s, r, p)
	require.NoError(t, err)
	assert.True(t, ok)

	p2 := predicate.Not(predicate.Comparison("age", predicate.Eq, value.NewInteger(36)))
	ok, err = predicate.Eval(s, r, p2)
	require.NoError(t, err)
	assert.False(t, ok)
}
