package resultset

import (
	"fmt"
	"io"
	"strings"
)

// CSVOptions configures RFC-4180-ish emission. Delimiter/quote default to
// ',' and '"' via DefaultCSVOptions; quoting is always applied whenever a
// field contains the delimiter, the quote character, or a newline.
type CSVOptions struct {
	Delimiter rune
	Quote     rune
}

// DefaultCSVOptions returns comma-delimited, double-quoted options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Quote: '"'}
}

// WriteCSV writes a header row (column names) followed by one row per
// ResultRow, each Value rendered with Value.ToString.
func (rs *ResultSet) WriteCSV(w io.Writer, opts CSVOptions) error {
	if err := writeCSVRecord(w, rs.Columns, opts); err != nil {
		return err
	}
	for _, r := range rs.Rows {
		fields := make([]string, len(r))
		for i, v := range r {
			fields[i] = v.ToString()
		}
		if err := writeCSVRecord(w, fields, opts); err != nil {
			return err
		}
	}
	return nil
}

// ToCSV renders WriteCSV's output as a string.
func (rs *ResultSet) ToCSV(opts CSVOptions) (string, error) {
	var b strings.Builder
	if err := rs.WriteCSV(&b, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCSVRecord(w io.Writer, fields []string, opts CSVOptions) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := io.WriteString(w, string(opts.Delimiter)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, csvEscape(f, opts)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func csvEscape(field string, opts CSVOptions) string {
	needsQuoting := strings.ContainsRune(field, opts.Delimiter) ||
		strings.ContainsRune(field, opts.Quote) ||
		strings.ContainsAny(field, "\n\r")
	if !needsQuoting {
		return field
	}
	q := string(opts.Quote)
	escaped := strings.ReplaceAll(field, q, q+q)
	return fmt.Sprintf("%s%s%s", q, escaped, q)
}
