// Package config bootstraps KadeDB's four stores from a TOML schema file
// and decodes engine-wide options from YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kadedb/kadedb/document"
	"github.com/kadedb/kadedb/graph"
	"github.com/kadedb/kadedb/relational"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/timeseries"
	"github.com/kadedb/kadedb/value"
)

// Stores bundles one of each KadeDB store, built fresh by LoadStores.
type Stores struct {
	Relational *relational.Store
	Document   *document.Store
	TimeSeries *timeseries.Store
	Graph      *graph.Store
}

// schemaFile is the top-level TOML document: [[tables]], [[collections]],
// [[series]] and [[graphs]] are all top-level keys.
type schemaFile struct {
	Tables      []tomlTable      `toml:"tables"`
	Collections []tomlCollection `toml:"collections"`
	Series      []tomlSeries     `toml:"series"`
	Graphs      []tomlGraph      `toml:"graphs"`
}

type tomlColumn struct {
	Name     string   `toml:"name"`
	Type     string   `toml:"type"`
	Nullable bool     `toml:"nullable"`
	Unique   bool     `toml:"unique"`
	OneOf    []string `toml:"one_of"`
}

type tomlTable struct {
	Name       string       `toml:"name"`
	PrimaryKey string       `toml:"primary_key"`
	Columns    []tomlColumn `toml:"columns"`
}

type tomlCollection struct {
	Name       string       `toml:"name"`
	Schemaless bool         `toml:"schemaless"`
	Fields     []tomlColumn `toml:"fields"`
}

type tomlRetention struct {
	TTLSeconds int64 `toml:"ttl_seconds"`
	MaxRows    int   `toml:"max_rows"`
	DropOldest bool  `toml:"drop_oldest"`
}

type tomlSeries struct {
	Name            string         `toml:"name"`
	TimestampColumn string         `toml:"timestamp_column"`
	Granularity     string         `toml:"granularity"`
	Partition       string         `toml:"partition"`
	Tags            []tomlColumn   `toml:"tags"`
	Values          []tomlColumn   `toml:"values"`
	Retention       *tomlRetention `toml:"retention"`
}

type tomlGraph struct {
	Name string `toml:"name"`
}

// LoadStores opens path and parses it as a TOML schema file, building and
// populating a fresh Stores. An empty or missing [[...]] section is not
// an error; a store with no declarations is simply empty.
func LoadStores(path string) (*Stores, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open schema file %q: %w", path, err)
	}
	defer f.Close()
	return ParseStores(f)
}

// ParseStores reads a TOML schema document from r and builds the stores
// it describes.
func ParseStores(r io.Reader) (*Stores, error) {
	var sf schemaFile
	if _, err := toml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("config: decode schema: %w", err)
	}

	st := &Stores{
		Relational: relational.New(),
		Document:   document.New(),
		TimeSeries: timeseries.New(),
		Graph:      graph.New(),
	}

	for i := range sf.Tables {
		if err := loadTable(st.Relational, &sf.Tables[i]); err != nil {
			return nil, fmt.Errorf("config: table %q: %w", sf.Tables[i].Name, err)
		}
	}
	for i := range sf.Collections {
		if err := loadCollection(st.Document, &sf.Collections[i]); err != nil {
			return nil, fmt.Errorf("config: collection %q: %w", sf.Collections[i].Name, err)
		}
	}
	for i := range sf.Series {
		if err := loadSeries(st.TimeSeries, &sf.Series[i]); err != nil {
			return nil, fmt.Errorf("config: series %q: %w", sf.Series[i].Name, err)
		}
	}
	for i := range sf.Graphs {
		if err := st.Graph.CreateGraph(sf.Graphs[i].Name); err != nil {
			return nil, fmt.Errorf("config: graph %q: %w", sf.Graphs[i].Name, err)
		}
	}
	return st, nil
}

func valueType(raw string) (value.Type, error) {
	switch strings.ToLower(raw) {
	case "integer", "int":
		return value.Integer, nil
	case "float", "double":
		return value.Float, nil
	case "string", "text":
		return value.String, nil
	case "boolean", "bool":
		return value.Boolean, nil
	case "null":
		return value.Null, nil
	default:
		return value.Null, fmt.Errorf("unsupported column type %q", raw)
	}
}

func toColumn(tc *tomlColumn) (schema.Column, error) {
	t, err := valueType(tc.Type)
	if err != nil {
		return schema.Column{}, err
	}
	c := schema.Column{Name: tc.Name, Type: t, Nullable: tc.Nullable, Unique: tc.Unique}
	if len(tc.OneOf) > 0 {
		oneOf := make([]value.Value, len(tc.OneOf))
		for i, s := range tc.OneOf {
			oneOf[i] = value.NewString(s)
		}
		c.Constraints = &schema.Constraints{OneOf: oneOf}
	}
	return c, nil
}

func loadTable(st *relational.Store, tt *tomlTable) error {
	cols := make([]schema.Column, len(tt.Columns))
	for i := range tt.Columns {
		c, err := toColumn(&tt.Columns[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", tt.Columns[i].Name, err)
		}
		cols[i] = c
	}
	s, err := schema.NewTableSchema(cols, tt.PrimaryKey)
	if err != nil {
		return err
	}
	return st.CreateTable(tt.Name, s)
}

func loadCollection(st *document.Store, tc *tomlCollection) error {
	if tc.Schemaless && len(tc.Fields) == 0 {
		return st.CreateCollection(tc.Name, nil)
	}
	s := schema.NewDocumentSchema()
	for i := range tc.Fields {
		c, err := toColumn(&tc.Fields[i])
		if err != nil {
			return fmt.Errorf("field %q: %w", tc.Fields[i].Name, err)
		}
		s.AddField(c)
	}
	return st.CreateCollection(tc.Name, s)
}

func granularity(raw string) (schema.Granularity, error) {
	switch strings.ToLower(raw) {
	case "", "seconds", "sec":
		return schema.Seconds, nil
	case "nanoseconds", "ns":
		return schema.Nanoseconds, nil
	case "microseconds", "us":
		return schema.Microseconds, nil
	case "milliseconds", "ms":
		return schema.Milliseconds, nil
	case "minutes", "min":
		return schema.Minutes, nil
	case "hours":
		return schema.Hours, nil
	case "days":
		return schema.Days, nil
	default:
		return 0, fmt.Errorf("unsupported granularity %q", raw)
	}
}

func partition(raw string) (schema.Partition, error) {
	switch strings.ToLower(raw) {
	case "", "hourly":
		return schema.Hourly, nil
	case "daily":
		return schema.Daily, nil
	default:
		return 0, fmt.Errorf("unsupported partition %q", raw)
	}
}

func loadSeries(st *timeseries.Store, ts *tomlSeries) error {
	g, err := granularity(ts.Granularity)
	if err != nil {
		return err
	}
	p, err := partition(ts.Partition)
	if err != nil {
		return err
	}
	s := schema.NewTimeSeriesSchema(ts.TimestampColumn, g)
	for i := range ts.Tags {
		c, err := toColumn(&ts.Tags[i])
		if err != nil {
			return fmt.Errorf("tag %q: %w", ts.Tags[i].Name, err)
		}
		s.AddTagColumn(c)
	}
	for i := range ts.Values {
		c, err := toColumn(&ts.Values[i])
		if err != nil {
			return fmt.Errorf("value %q: %w", ts.Values[i].Name, err)
		}
		s.AddValueColumn(c)
	}
	if ts.Retention != nil {
		s.SetRetentionPolicy(&schema.RetentionPolicy{
			TTLSeconds: ts.Retention.TTLSeconds,
			MaxRows:    ts.Retention.MaxRows,
			DropOldest: ts.Retention.DropOldest,
		})
	}
	return st.CreateSeries(ts.Name, s, p)
}
