// Command kadedb bootstraps the in-memory stores from an optional TOML
// schema file and executes a single KadeQL statement against them:
// go-flags options, x/term for output-mode detection, and a --debug AST
// dump via k0kubun/pp.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kadedb/kadedb/config"
	"github.com/kadedb/kadedb/executor"
	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/relational"
	"github.com/kadedb/kadedb/resultset"
)

type cliOptions struct {
	Schema  string `short:"f" long:"schema" description:"TOML file bootstrapping initial table/document/time-series/graph schemas" value-name:"schema_file"`
	Query   string `short:"q" long:"query" description:"KadeQL statement to execute; reads stdin when omitted" value-name:"kadeql"`
	Format  string `long:"format" description:"Output format: table, csv or json" value-name:"format" default:"table"`
	Debug   bool   `long:"debug" description:"Print the parsed AST before executing"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

var version string

func parseArgs(args []string) *cliOptions {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		os.Exit(1)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return &opts
}

func readQuery(opts *cliOptions) (string, error) {
	if opts.Query != "" {
		return opts.Query, nil
	}
	buf, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	return strings.TrimSpace(string(buf)), nil
}

func main() {
	opts := parseArgs(os.Args[1:])

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store := relational.New()
	if opts.Schema != "" {
		stores, err := config.LoadStores(opts.Schema)
		if err != nil {
			sugar.Fatalw("failed to load schema file", "path", opts.Schema, "error", err)
		}
		store = stores.Relational
	}

	query, err := readQuery(opts)
	if err != nil {
		sugar.Fatalw("failed to read query", "error", err)
	}
	if query == "" {
		sugar.Fatal("no query given; pass --query or pipe one on stdin")
	}

	stmt, err := kadeql.ParseQuery(query)
	if err != nil {
		sugar.Errorw("parse error", "query", query, "error", err)
		os.Exit(1)
	}
	if opts.Debug {
		pp.Println(stmt)
	}

	ex := executor.New(store)
	start := time.Now()
	rs, err := ex.Execute(stmt)
	elapsed := time.Since(start)
	if err != nil {
		sugar.Errorw("query failed", "query", query, "elapsed", elapsed, "error", err)
		os.Exit(1)
	}
	sugar.Infow("query executed", "elapsed", elapsed, "rows", rs.NumRows())

	if err := writeResult(os.Stdout, rs, opts.Format); err != nil {
		sugar.Fatalw("failed to write result", "error", err)
	}
}

func writeResult(w io.Writer, rs *resultset.ResultSet, format string) error {
	switch strings.ToLower(format) {
	case "csv":
		return rs.WriteCSV(w, resultset.DefaultCSVOptions())
	case "json":
		return rs.WriteJSON(w, true)
	case "table", "":
		return writeTable(w, rs)
	default:
		return fmt.Errorf("unknown --format %q", format)
	}
}

// writeTable renders rs as a padded, terminal-friendly table when stdout
// is a terminal, falling back to plain CSV otherwise.
func writeTable(w io.Writer, rs *resultset.ResultSet) error {
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return rs.WriteCSV(w, resultset.DefaultCSVOptions())
	}

	widths := make([]int, rs.NumColumns())
	for i, c := range rs.Columns {
		widths[i] = len(c)
	}
	rendered := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		rendered[i] = make([]string, len(row))
		for j, v := range row {
			s := v.ToString()
			rendered[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	printRow := func(fields []string) {
		for i, f := range fields {
			fmt.Fprintf(w, "%-*s  ", widths[i], f)
		}
		fmt.Fprintln(w)
	}
	printRow(rs.Columns)
	for _, r := range rendered {
		printRow(r)
	}
	return nil
}
