package relational_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/relational"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

func personSchema(t *testing.T) *schema.TableSchema {
	t.Helper()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "id", Type: value.Integer, Unique: true},
		{Name: "name", Type: value.String},
		{Name: "age", Type: value.Integer, Nullable: true},
	}, "id")
	require.NoError(t, err)
	return s
}

func seedPeople(t *testing.T, st *relational.Store) {
	t.Helper()
	require.NoError(t, st.CreateTable("person", personSchema(t)))
	rows := [][3]any{
		{int64(1), "Ada", int64(36)},
		{int64(2), "Grace", int64(41)},
		{int64(3), "Bob", int64(29)},
	}
	for _, r := range rows {
		require.NoError(t, st.InsertRow("person", row.NewRow([]value.Value{
			value.NewInteger(r[0].(int64)),
			value.NewString(r[1].(string)),
			value.NewInteger(r[2].(int64)),
		})))
	}
}

func TestSelectWithAnd(t *testing.T) {
	st := relational.New()
	seedPeople(t, st)

	where := predicate.And(
		predicate.Comparison("age", predicate.Ge, value.NewInteger(30)),
		predicate.Comparison("age", predicate.Le, value.NewInteger(40)),
	)
	rs, err := st.Select("person", []string{"name"}, where)
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
	s, err := rs.At(0, 0).AsString()
	require.NoError(t, err)
	require.Equal(t, "Ada", s)
}

func TestInsertUniquenessRollback(t *testing.T) {
	st := relational.New()
	seedPeople(t, st)

	err := st.InsertRow("person", row.NewRow([]value.Value{
		value.NewInteger(1), value.NewString("Dup"), value.NewNull(),
	}))
	require.Error(t, err)
	require.Equal(t, status.FailedPrecondition, status.Of(err))

	rs, err := st.Select("person", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, rs.NumRows())
}

func TestUpdateRowsUniquenessRollback(t *testing.T) {
	st := relational.New()
	seedPeople(t, st)

	_, err := st.UpdateRows("person", map[string]value.Value{"id": value.NewInteger(2)},
		predicate.Comparison("id", predicate.Eq, value.NewInteger(1)))
	require.Error(t, err)
	require.Equal(t, status.FailedPrecondition, status.Of(err))

	rs, err := st.Select("person", []string{"id"}, predicate.Comparison("id", predicate.Eq, value.NewInteger(1)))
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
}

func TestDeleteRowsAndTruncate(t *testing.T) {
	st := relational.New()
	seedPeople(t, st)

	n, err := st.DeleteRows("person", predicate.Comparison("age", predicate.Lt, value.NewInteger(30)))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, st.TruncateTable("person"))
	rs, err := st.Select("person", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, rs.NumRows())
}

func TestInsertUniquenessEmptyStringNotConfusedWithNullSentinel(t *testing.T) {
	st := relational.New()
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "code", Type: value.String, Unique: true},
	}, "")
	require.NoError(t, err)
	require.NoError(t, st.CreateTable("widgets", s))

	require.NoError(t, st.InsertRow("widgets", row.NewRow([]value.Value{value.NewString("")})))
	err = st.InsertRow("widgets", row.NewRow([]value.Value{value.NewString("")}))
	require.Error(t, err)
	require.Equal(t, status.FailedPrecondition, status.Of(err))
}

func TestUnknownTableErrors(t *testing.T) {
	st := relational.New()
	_, err := st.Select("nope", nil, nil)
	require.Equal(t, status.NotFound, status.Of(err))
}
