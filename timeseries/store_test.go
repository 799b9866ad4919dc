package timeseries_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/timeseries"
	"github.com/kadedb/kadedb/value"
)

func cpuSchema() *schema.TimeSeriesSchema {
	s := schema.NewTimeSeriesSchema("timestamp", schema.Seconds)
	s.AddTagColumn(schema.Column{Name: "sensor_id", Type: value.Integer})
	s.AddValueColumn(schema.Column{Name: "value", Type: value.Integer})
	return s
}

func appendRow(t *testing.T, st *timeseries.Store, name string, ts, sensor, v int64) {
	t.Helper()
	require.NoError(t, st.Append(name, row.NewRow([]value.Value{
		value.NewInteger(ts), value.NewInteger(sensor), value.NewInteger(v),
	})))
}

func TestAggregateSumBuckets(t *testing.T) {
	st := timeseries.New()
	require.NoError(t, st.CreateSeries("cpu", cpuSchema(), schema.Hourly))

	appendRow(t, st, "cpu", 100, 1, 10)
	appendRow(t, st, "cpu", 105, 1, 20)
	appendRow(t, st, "cpu", 110, 2, 30)

	rs, err := st.Aggregate("cpu", "value", timeseries.Sum, 100, 130, 10, schema.Seconds, nil)
	require.NoError(t, err)
	require.Equal(t, 2, rs.NumRows())
	require.Equal(t, int64(100), rs.At(0, 0).RawInt())
	require.Equal(t, 30.0, rs.At(0, 1).RawFloat())
	require.Equal(t, int64(110), rs.At(1, 0).RawInt())
	require.Equal(t, 30.0, rs.At(1, 1).RawFloat())
}

func TestTTLRetention(t *testing.T) {
	s := cpuSchema()
	s.SetRetentionPolicy(&schema.RetentionPolicy{TTLSeconds: 10})
	st := timeseries.New()
	require.NoError(t, st.CreateSeries("cpu", s, schema.Hourly))

	appendRow(t, st, "cpu", 0, 1, 1)
	appendRow(t, st, "cpu", 5, 1, 1)
	appendRow(t, st, "cpu", 20, 1, 1)

	rs, err := st.RangeQuery("cpu", nil, -1000, 1000, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
	tsIdx := rs.FindColumn("timestamp")
	require.Equal(t, int64(20), rs.At(0, tsIdx).RawInt())
}

func TestMaxRowsRetention(t *testing.T) {
	s := cpuSchema()
	s.SetRetentionPolicy(&schema.RetentionPolicy{MaxRows: 2, DropOldest: true})
	st := timeseries.New()
	require.NoError(t, st.CreateSeries("cpu", s, schema.Hourly))

	appendRow(t, st, "cpu", 0, 1, 1)
	appendRow(t, st, "cpu", 10, 1, 2)
	appendRow(t, st, "cpu", 20, 1, 3)

	rs, err := st.RangeQuery("cpu", nil, -1000, 1000, nil)
	require.NoError(t, err)
	require.Equal(t, 2, rs.NumRows())
	tsIdx := rs.FindColumn("timestamp")
	require.Equal(t, int64(10), rs.At(0, tsIdx).RawInt())
	require.Equal(t, int64(20), rs.At(1, tsIdx).RawInt())
}

func TestAggregateAvgIgnoresNonNumericCells(t *testing.T) {
	s := schema.NewTimeSeriesSchema("timestamp", schema.Seconds)
	s.AddTagColumn(schema.Column{Name: "sensor_id", Type: value.Integer})
	s.AddValueColumn(schema.Column{Name: "reading", Type: value.Integer, Nullable: true})
	st := timeseries.New()
	require.NoError(t, st.CreateSeries("mixed", s, schema.Hourly))

	require.NoError(t, st.Append("mixed", row.NewRow([]value.Value{
		value.NewInteger(100), value.NewInteger(1), value.NewNull(),
	})))
	require.NoError(t, st.Append("mixed", row.NewRow([]value.Value{
		value.NewInteger(105), value.NewInteger(1), value.NewInteger(10),
	})))
	require.NoError(t, st.Append("mixed", row.NewRow([]value.Value{
		value.NewInteger(108), value.NewInteger(1), value.NewInteger(20),
	})))

	rs, err := st.Aggregate("mixed", "reading", timeseries.Avg, 100, 110, 10, schema.Seconds, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
	// The null row still counts for Count but must not drag the average
	// down: (10+20)/2, not (10+20)/3.
	require.Equal(t, 15.0, rs.At(0, 1).RawFloat())
}

func TestRangeQueryRejectsInvertedBounds(t *testing.T) {
	st := timeseries.New()
	require.NoError(t, st.CreateSeries("cpu", cpuSchema(), schema.Hourly))
	_, err := st.RangeQuery("cpu", nil, 100, 50, nil)
	require.Error(t, err)
}
