package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
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

func TestTableSchemaFindColumn(t *testing.T) {
	s := personSchema(t)
	c, ok := s.FindColumn("name")
	require.True(t, ok)
	assert.Equal(t, value.String, c.Type)

	_, ok = s.FindColumn("missing")
	assert.False(t, ok)
}

func TestSetPrimaryKeyUnknownColumnFails(t *testing.T) {
	s := personSchema(t)
	err := s.SetPrimaryKey("nope")
	require.Error(t, err)
}

func TestValidateRowArityAndType(t *testing.T) {
	s := personSchema(t)

	ok := row.NewRow([]value.Value{value.NewInteger(1), value.NewString("Ada"), value.NewInteger(36)})
	assert.NoError(t, schema.ValidateRow(s, ok))

	wrongArity := row.NewRow([]value.Value{value.NewInteger(1)})
	assert.Error(t, schema.ValidateRow(s, wrongArity))

	nullName := row.NewRow([]value.Value{value.NewInteger(1), value.NewNull(), value.NewInteger(36)})
	assert.Error(t, schema.ValidateRow(s, nullName))

	nullAge := row.NewRow([]value.Value{value.NewInteger(1), value.NewString("Ada"), value.NewNull()})
	assert.NoError(t, schema.ValidateRow(s, nullAge), "age is nullable")

	wrongType := row.NewRow([]value.Value{value.NewString("x"), value.NewString("Ada"), value.NewNull()})
	assert.Error(t, schema.ValidateRow(s, wrongType))
}

func TestValidateRowIntegerCoercesToFloatColumn(t *testing.T) {
	s, err := schema.NewTableSchema([]schema.Column{{Name: "amount", Type: value.Float}}, "")
	require.NoError(t, err)

	r := row.NewRow([]value.Value{value.NewInteger(10)})
	assert.NoError(t, schema.ValidateRow(s, r))
}

func TestValidateRowConstraints(t *testing.T) {
	minLen, maxLen := 2, 4
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "code", Type: value.String, Constraints: &schema.Constraints{MinLength: &minLen, MaxLength: &maxLen}},
	}, "")
	require.NoError(t, err)

	tooShort := row.NewRow([]value.Value{value.NewString("a")})
	err = schema.ValidateRow(s, tooShort)
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())

	ok := row.NewRow([]value.Value{value.NewString("abcd")})
	assert.NoError(t, schema.ValidateRow(s, ok))
}

func TestValidateUniqueRows(t *testing.T) {
	s := personSchema(t)
	rows := []row.Row{
		row.NewRow([]value.Value{value.NewInteger(1), value.NewString("Ada"), value.NewNull()}),
		row.NewRow([]value.Value{value.NewInteger(1), value.NewString("Grace"), value.NewNull()}),
	}
	err := schema.ValidateUniqueRows(s, rows, true)
	assert.Error(t, err)
}

func TestValidateUniqueRowsEmptyStringNotConfusedWithNullSentinel(t *testing.T) {
	s, err := schema.NewTableSchema([]schema.Column{
		{Name: "code", Type: value.String, Unique: true},
	}, "")
	require.NoError(t, err)
	rows := []row.Row{
		row.NewRow([]value.Value{value.NewString("")}),
		row.NewRow([]value.Value{value.NewString("")}),
	}
	err = schema.ValidateUniqueRows(s, rows, true)
	assert.Error(t, err)
}

func TestValidateDocumentUnknownFieldsPass(t *testing.T) {
	ds := schema.NewDocumentSchema()
	ds.AddField(schema.Column{Name: "name", Type: value.String})

	d := row.Document{"name": value.NewString("x"), "extra": value.NewInteger(1)}
	assert.NoError(t, schema.ValidateDocument(ds, d))
}

func TestValidateDocumentMissingRequiredField(t *testing.T) {
	ds := schema.NewDocumentSchema()
	ds.AddField(schema.Column{Name: "name", Type: value.String})

	assert.Error(t, schema.ValidateDocument(ds, row.Document{}))
}

func TestTimeSeriesSchemaDerivedColumns(t *testing.T) {
	ts := schema.NewTimeSeriesSchema("timestamp", schema.Seconds)
	ts.AddTagColumn(schema.Column{Name: "sensor_id", Type: value.Integer})
	ts.AddValueColumn(schema.Column{Name: "value", Type: value.Integer})

	cols := ts.AllColumns()
	require.Len(t, cols, 3)
	assert.Equal(t, "timestamp", cols[0].Name)
	assert.Equal(t, "sensor_id", cols[1].Name)
	assert.Equal(t, "value", cols[2].Name)
	assert.False(t, cols[0].Nullable)
}

func TestPartitionBucketStartNegative(t *testing.T) {
	assert.Equal(t, int64(-3600), schema.Hourly.BucketStart(-1))
	assert.Equal(t, int64(0), schema.Hourly.BucketStart(0))
}
