package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/schema"
)

// EngineOptions are engine-wide knobs with defaults the engine runs with
// when no YAML config is supplied.
type EngineOptions struct {
	PageSize         int
	CSV              resultset.CSVOptions
	DefaultPartition schema.Partition
}

// DefaultEngineOptions returns the engine's zero-config defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		PageSize:         100,
		CSV:              resultset.DefaultCSVOptions(),
		DefaultPartition: schema.Hourly,
	}
}

// ParseEngineOptionsString decodes yamlString into EngineOptions, starting
// from DefaultEngineOptions and overriding whatever fields are present.
// An empty string returns the defaults unchanged.
func ParseEngineOptionsString(yamlString string) (EngineOptions, error) {
	opts := DefaultEngineOptions()
	if yamlString == "" {
		return opts, nil
	}
	return parseEngineOptionsFromBytes([]byte(yamlString), opts)
}

// ParseEngineOptionsFile decodes buf, the contents of a YAML config file,
// starting from DefaultEngineOptions like ParseEngineOptionsString. It has
// no empty-input shortcut: an empty buf is a decode error.
func ParseEngineOptionsFile(buf []byte) (EngineOptions, error) {
	return parseEngineOptionsFromBytes(buf, DefaultEngineOptions())
}

func parseEngineOptionsFromBytes(buf []byte, base EngineOptions) (EngineOptions, error) {
	var raw struct {
		PageSize         int    `yaml:"page_size"`
		CSVDelimiter     string `yaml:"csv_delimiter"`
		CSVQuote         string `yaml:"csv_quote"`
		DefaultPartition string `yaml:"default_partition"`
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return EngineOptions{}, fmt.Errorf("config: decode engine options: %w", err)
	}

	opts := base
	if raw.PageSize != 0 {
		opts.PageSize = raw.PageSize
	}
	if raw.CSVDelimiter != "" {
		opts.CSV.Delimiter = []rune(raw.CSVDelimiter)[0]
	}
	if raw.CSVQuote != "" {
		opts.CSV.Quote = []rune(raw.CSVQuote)[0]
	}
	if raw.DefaultPartition != "" {
		p, err := partition(raw.DefaultPartition)
		if err != nil {
			return EngineOptions{}, fmt.Errorf("config: %w", err)
		}
		opts.DefaultPartition = p
	}
	return opts, nil
}
