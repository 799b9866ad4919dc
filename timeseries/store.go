// Package timeseries implements KadeDB's append-only time-series store:
// per-series partitioned buckets, retention-bounded append, range scan
// and bucketed aggregation.
package timeseries

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

type series struct {
	schema      *schema.TimeSeriesSchema
	partition   schema.Partition
	tableSchema *schema.TableSchema
	buckets     map[int64][]row.Row
}

// Store holds every series created through it.
type Store struct {
	mu     sync.Mutex
	series map[string]*series
}

// New returns an empty Store.
func New() *Store {
	return &Store{series: make(map[string]*series)}
}

// CreateSeries registers name with a copy of s, stored under partition.
// The derived flat TableSchema is timestamp column first, then tags, then
// values.
func (st *Store) CreateSeries(name string, s *schema.TimeSeriesSchema, partition schema.Partition) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.series[name]; ok {
		return status.AlreadyExistsf("timeseries: series %q already exists", name)
	}
	ts, err := s.DerivedTableSchema()
	if err != nil {
		return status.InvalidArgumentf("timeseries: %v", err)
	}
	st.series[name] = &series{
		schema:      s.Clone(),
		partition:   partition,
		tableSchema: ts,
		buckets:     make(map[int64][]row.Row),
	}
	return nil
}

// DropSeries removes name and every bucket/row it owned.
func (st *Store) DropSeries(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.series[name]; !ok {
		return status.NotFoundf("timeseries: series %q not found", name)
	}
	delete(st.series, name)
	return nil
}

// ListSeries returns every series name, sorted for deterministic output.
func (st *Store) ListSeries() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.series))
	for name := range st.series {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TableSchema returns the derived flat schema for name.
func (st *Store) TableSchema(name string) (*schema.TableSchema, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.series[name]
	if !ok {
		return nil, status.NotFoundf("timeseries: series %q not found", name)
	}
	return s.tableSchema.Clone(), nil
}

func (s *series) timestampIndex() int {
	return s.tableSchema.ColumnIndex(s.schema.TimestampColumn)
}

// Append validates r against the derived schema, extracts its timestamp
// (which must be Integer), appends a clone into the correct partition
// bucket, and then enforces retention: TTL eviction first, then
// maxRows/dropOldest trimming. Retention is never an error.
func (st *Store) Append(name string, r row.Row) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.series[name]
	if !ok {
		return status.NotFoundf("timeseries: series %q not found", name)
	}
	if err := schema.ValidateRow(s.tableSchema, r); err != nil {
		return status.InvalidArgumentf("timeseries: %v", err)
	}
	tsIdx := s.timestampIndex()
	tsCell := r.At(tsIdx)
	tsRaw, err := tsCell.AsInt()
	if err != nil {
		return status.InvalidArgumentf("timeseries: timestamp column %q is not an integer", s.schema.TimestampColumn)
	}
	tsec := s.schema.Granularity.ToSeconds(tsRaw)
	bucketStart := s.partition.BucketStart(tsec)
	s.buckets[bucketStart] = append(s.buckets[bucketStart], r.Clone())

	s.enforceRetention(tsec)
	return nil
}

func (s *series) enforceRetention(lastAppendTsec int64) {
	pol := s.schema.Retention
	if pol == nil {
		return
	}
	tsIdx := s.timestampIndex()

	if pol.TTLSeconds > 0 {
		cutoff := lastAppendTsec - pol.TTLSeconds
		for bs, rows := range s.buckets {
			if bs+86400 < cutoff {
				delete(s.buckets, bs)
				continue
			}
			kept := rows[:0:0]
			for _, r := range rows {
				rowTsec := s.schema.Granularity.ToSeconds(r.At(tsIdx).RawInt())
				if rowTsec >= cutoff {
					kept = append(kept, r)
				}
			}
			if len(kept) == 0 {
				delete(s.buckets, bs)
			} else {
				s.buckets[bs] = kept
			}
		}
	}

	if pol.MaxRows > 0 {
		total := 0
		for _, rows := range s.buckets {
			total += len(rows)
		}
		for total > pol.MaxRows {
			oldest, ok := s.oldestNonEmptyBucket()
			if !ok {
				break
			}
			rows := s.buckets[oldest]
			s.buckets[oldest] = rows[1:]
			total--
			if len(s.buckets[oldest]) == 0 {
				delete(s.buckets, oldest)
			}
		}
	}
}

func (s *series) oldestNonEmptyBucket() (int64, bool) {
	first := true
	var best int64
	for bs, rows := range s.buckets {
		if len(rows) == 0 {
			continue
		}
		if first || bs < best {
			best = bs
			first = false
		}
	}
	return best, !first
}

// RangeQuery returns rows in name whose timestamp falls in
// [startIncl, endExcl), filtered by where (nil matches all) and projected
// to cols (empty means every column, in declared order). endExcl < start
// is InvalidArgument.
func (st *Store) RangeQuery(name string, cols []string, startIncl, endExcl int64, where *predicate.Predicate) (*resultset.ResultSet, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.series[name]
	if !ok {
		return nil, status.NotFoundf("timeseries: series %q not found", name)
	}
	if endExcl < startIncl {
		return nil, status.InvalidArgumentf("timeseries: end %d is before start %d", endExcl, startIncl)
	}
	startSec := s.schema.Granularity.ToSeconds(startIncl)
	endSec := s.schema.Granularity.ToSeconds(endExcl)

	projCols, idxs, types, err := projectColumns(s.tableSchema, cols)
	if err != nil {
		return nil, err
	}
	rs := resultset.New(projCols, types)

	tsIdx := s.timestampIndex()
	div := s.partition.DivSeconds()
	startBucket := s.partition.BucketStart(startSec)
	endBucket := startBucket
	if endSec > startSec {
		endBucket = s.partition.BucketStart(endSec - 1)
	}
	for bs := startBucket; bs <= endBucket; bs += div {
		rows, ok := s.buckets[bs]
		if !ok {
			continue
		}
		for _, r := range rows {
			rowTsec := s.schema.Granularity.ToSeconds(r.At(tsIdx).RawInt())
			if rowTsec < startSec || rowTsec >= endSec {
				continue
			}
			matched, err := predicate.Eval(s.tableSchema, r, where)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
			out := make(resultset.ResultRow, len(idxs))
			for i, ci := range idxs {
				out[i] = r.At(ci).Clone()
			}
			if err := rs.AddRow(out); err != nil {
				return nil, err
			}
		}
	}
	return rs, nil
}

// Agg identifies a bucketed aggregation function.
type Agg int

const (
	Count Agg = iota
	Sum
	Min
	Max
	Avg
)

type accumulator struct {
	count    int64
	numCount int64
	sum      float64
	min      float64
	max      float64
	seen     bool
}

// Aggregate buckets rows in [startIncl, endExcl) by
// startSec + floor((tsec-startSec)/widthSec)*widthSec and computes agg
// over valueColumn within each bucket. Count tallies every qualifying row
// regardless of the value column's type; Sum/Min/Max/Avg ignore
// non-numeric cells for their statistic but such rows still count toward
// Count. Output is sorted ascending by bucket start.
func (st *Store) Aggregate(name, valueColumn string, agg Agg, startIncl, endExcl, bucketWidth int64, bucketGranularity schema.Granularity, where *predicate.Predicate) (*resultset.ResultSet, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.series[name]
	if !ok {
		return nil, status.NotFoundf("timeseries: series %q not found", name)
	}
	if s.tableSchema.ColumnIndex(valueColumn) < 0 {
		return nil, status.InvalidArgumentf("timeseries: unknown value column %q", valueColumn)
	}
	if bucketWidth <= 0 {
		return nil, status.InvalidArgumentf("timeseries: bucket width must be positive")
	}
	if endExcl < startIncl {
		return nil, status.InvalidArgumentf("timeseries: end %d is before start %d", endExcl, startIncl)
	}

	startSec := s.schema.Granularity.ToSeconds(startIncl)
	endSec := s.schema.Granularity.ToSeconds(endExcl)
	widthSec := bucketGranularity.WidthSeconds(bucketWidth)

	tsIdx := s.timestampIndex()
	valIdx := s.tableSchema.ColumnIndex(valueColumn)

	accs := make(map[int64]*accumulator)
	div := s.partition.DivSeconds()
	startBucket := s.partition.BucketStart(startSec)
	endBucket := startBucket
	if endSec > startSec {
		endBucket = s.partition.BucketStart(endSec - 1)
	}
	for bs := startBucket; bs <= endBucket; bs += div {
		rows, ok := s.buckets[bs]
		if !ok {
			continue
		}
		for _, r := range rows {
			rowTsec := s.schema.Granularity.ToSeconds(r.At(tsIdx).RawInt())
			if rowTsec < startSec || rowTsec >= endSec {
				continue
			}
			matched, err := predicate.Eval(s.tableSchema, r, where)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
			bucketStart := startSec + floorDiv(rowTsec-startSec, widthSec)*widthSec
			acc, ok := accs[bucketStart]
			if !ok {
				acc = &accumulator{}
				accs[bucketStart] = acc
			}
			acc.count++
			cell := r.At(valIdx)
			var num float64
			var numeric bool
			switch cell.Type() {
			case value.Integer:
				num, numeric = float64(cell.RawInt()), true
			case value.Float:
				num, numeric = cell.RawFloat(), true
			}
			if numeric {
				if !acc.seen {
					acc.min, acc.max = num, num
					acc.seen = true
				} else {
					if num < acc.min {
						acc.min = num
					}
					if num > acc.max {
						acc.max = num
					}
				}
				acc.sum += num
				acc.numCount++
			}
		}
	}

	valType := value.Float
	if agg == Count {
		valType = value.Integer
	}
	rs := resultset.New([]string{"bucket_start", "value"}, []value.Type{value.Integer, valType})

	keys := make([]int64, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, bs := range keys {
		acc := accs[bs]
		var out value.Value
		switch agg {
		case Count:
			out = value.NewInteger(acc.count)
		case Sum:
			out = value.NewFloat(acc.sum)
		case Min:
			out = value.NewFloat(acc.min)
		case Max:
			out = value.NewFloat(acc.max)
		case Avg:
			if acc.numCount == 0 {
				out = value.NewFloat(0)
			} else {
				out = value.NewFloat(acc.sum / float64(acc.numCount))
			}
		}
		if err := rs.AddRow(resultset.ResultRow{value.NewInteger(bs), out}); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func projectColumns(s *schema.TableSchema, cols []string) ([]string, []int, []value.Type, error) {
	all := s.Columns()
	if len(cols) == 0 {
		names := make([]string, len(all))
		idxs := make([]int, len(all))
		types := make([]value.Type, len(all))
		for i, c := range all {
			names[i] = c.Name
			idxs[i] = i
			types[i] = c.Type
		}
		return names, idxs, types, nil
	}
	names := make([]string, len(cols))
	idxs := make([]int, len(cols))
	types := make([]value.Type, len(cols))
	for i, name := range cols {
		c, ok := s.FindColumn(name)
		if !ok {
			return nil, nil, nil, status.InvalidArgumentf("timeseries: unknown column %q", name)
		}
		names[i] = name
		idxs[i] = s.ColumnIndex(name)
		types[i] = c.Type
	}
	return names, idxs, types, nil
}
