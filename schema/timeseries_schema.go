package schema

import "github.com/kadedb/kadedb/value"

// Granularity is the scale factor converting stored timestamp integers
// (and bucket widths) to seconds.
type Granularity int

const (
	Nanoseconds Granularity = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

// ToSeconds converts a raw timestamp (or width) in this granularity's
// units to whole seconds, using floor division so negative timestamps
// partition consistently.
func (g Granularity) ToSeconds(raw int64) int64 {
	switch g {
	case Nanoseconds:
		return floorDiv(raw, 1_000_000_000)
	case Microseconds:
		return floorDiv(raw, 1_000_000)
	case Milliseconds:
		return floorDiv(raw, 1_000)
	case Seconds:
		return raw
	case Minutes:
		return raw * 60
	case Hours:
		return raw * 3600
	case Days:
		return raw * 86400
	default:
		return raw
	}
}

// WidthSeconds converts a bucket width expressed in this granularity's
// units to whole seconds, rounded up to at least 1 second for sub-second
// widths.
func (g Granularity) WidthSeconds(raw int64) int64 {
	switch g {
	case Nanoseconds:
		return maxInt64(ceilDiv(raw, 1_000_000_000), 1)
	case Microseconds:
		return maxInt64(ceilDiv(raw, 1_000_000), 1)
	case Milliseconds:
		return maxInt64(ceilDiv(raw, 1_000), 1)
	case Seconds:
		return maxInt64(raw, 1)
	case Minutes:
		return maxInt64(raw*60, 1)
	case Hours:
		return maxInt64(raw*3600, 1)
	case Days:
		return maxInt64(raw*86400, 1)
	default:
		return maxInt64(raw, 1)
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Partition is the coarse bucketing scheme used for physical time-series
// storage layout.
type Partition int

const (
	Hourly Partition = iota
	Daily
)

// DivSeconds returns the bucket-width-in-seconds used to compute a
// partition bucket start.
func (p Partition) DivSeconds() int64 {
	if p == Daily {
		return 86400
	}
	return 3600
}

// BucketStart returns floor(tsec/div)*div for this partition's div,
// using floor division for negative timestamps too.
func (p Partition) BucketStart(tsec int64) int64 {
	div := p.DivSeconds()
	return floorDiv(tsec, div) * div
}

// RetentionPolicy bounds how long / how many rows a series keeps.
type RetentionPolicy struct {
	TTLSeconds int64
	MaxRows    int
	DropOldest bool
}

// TimeSeriesSchema describes one series: its timestamp column, the
// granularity that timestamp is expressed in, its ordered tag and value
// columns, and an optional retention policy.
type TimeSeriesSchema struct {
	TimestampColumn string
	Granularity     Granularity
	valueColumns    []Column
	tagColumns      []Column
	Retention       *RetentionPolicy
}

// NewTimeSeriesSchema starts a schema with just its timestamp column and
// granularity; value/tag columns are added with AddValueColumn/AddTagColumn.
func NewTimeSeriesSchema(timestampColumn string, granularity Granularity) *TimeSeriesSchema {
	return &TimeSeriesSchema{TimestampColumn: timestampColumn, Granularity: granularity}
}

// AddValueColumn appends a value column, in declaration order.
func (s *TimeSeriesSchema) AddValueColumn(c Column) {
	s.valueColumns = append(s.valueColumns, c)
}

// AddTagColumn appends a tag column, in declaration order.
func (s *TimeSeriesSchema) AddTagColumn(c Column) {
	s.tagColumns = append(s.tagColumns, c)
}

// SetRetentionPolicy installs (or replaces) the series' retention policy.
func (s *TimeSeriesSchema) SetRetentionPolicy(r *RetentionPolicy) {
	s.Retention = r
}

// ValueColumns returns the declared value columns, in order.
func (s *TimeSeriesSchema) ValueColumns() []Column {
	out := make([]Column, len(s.valueColumns))
	copy(out, s.valueColumns)
	return out
}

// TagColumns returns the declared tag columns, in order.
func (s *TimeSeriesSchema) TagColumns() []Column {
	out := make([]Column, len(s.tagColumns))
	copy(out, s.tagColumns)
	return out
}

// AllColumns returns the flattened column list used for the series' derived
// TableSchema: timestamp first (non-nullable Integer), then tags, then
// values, matching append/rangeQuery/aggregate row layout.
func (s *TimeSeriesSchema) AllColumns() []Column {
	out := make([]Column, 0, 1+len(s.tagColumns)+len(s.valueColumns))
	out = append(out, Column{Name: s.TimestampColumn, Type: value.Integer, Nullable: false})
	out = append(out, s.tagColumns...)
	out = append(out, s.valueColumns...)
	return out
}

// DerivedTableSchema builds the flat TableSchema stored rows are aligned
// to: timestamp column first, then tags, then values.
func (s *TimeSeriesSchema) DerivedTableSchema() (*TableSchema, error) {
	return NewTableSchema(s.AllColumns(), "")
}

// Clone returns a deep copy.
func (s *TimeSeriesSchema) Clone() *TimeSeriesSchema {
	out := &TimeSeriesSchema{
		TimestampColumn: s.TimestampColumn,
		Granularity:     s.Granularity,
		valueColumns:    append([]Column(nil), s.valueColumns...),
		tagColumns:      append([]Column(nil), s.tagColumns...),
	}
	if s.Retention != nil {
		r := *s.Retention
		out.Retention = &r
	}
	return out
}
