package resultset

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/kadedb/kadedb/value"
)

// jsonScalar renders a Value as a plain JSON scalar, not KadeDB's
// tagged {"t":...,"v":...} wire form (that is codec's job for exact
// round-tripping; ResultSet JSON is for human/tool consumption).
func jsonScalar(v value.Value) any {
	switch v.Type() {
	case value.Null:
		return nil
	case value.Integer:
		return v.RawInt()
	case value.Float:
		return v.RawFloat()
	case value.String:
		s, _ := v.AsString()
		return s
	case value.Boolean:
		return v.RawBool()
	default:
		return nil
	}
}

func typeName(t value.Type) string {
	return t.String()
}

// WriteJSON writes rs as JSON. With envelope=false, it writes an array of
// row objects keyed by column name. With envelope=true, it writes
// {"columns":[...], "types":[...], "rows":[[...], ...]}.
func (rs *ResultSet) WriteJSON(w io.Writer, envelope bool) error {
	enc := json.NewEncoder(w)
	if !envelope {
		out := make([]map[string]any, len(rs.Rows))
		for i, r := range rs.Rows {
			obj := make(map[string]any, len(rs.Columns))
			for j, col := range rs.Columns {
				obj[col] = jsonScalar(r[j])
			}
			out[i] = obj
		}
		return enc.Encode(out)
	}

	types := make([]string, len(rs.Types))
	for i, t := range rs.Types {
		types[i] = typeName(t)
	}
	rows := make([][]any, len(rs.Rows))
	for i, r := range rs.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = jsonScalar(v)
		}
		rows[i] = row
	}
	envelopeObj := struct {
		Columns []string `json:"columns"`
		Types   []string `json:"types"`
		Rows    [][]any  `json:"rows"`
	}{Columns: rs.Columns, Types: types, Rows: rows}
	return enc.Encode(envelopeObj)
}

// ToJSON renders WriteJSON's output as a string.
func (rs *ResultSet) ToJSON(envelope bool) (string, error) {
	var b bytes.Buffer
	if err := rs.WriteJSON(&b, envelope); err != nil {
		return "", err
	}
	return b.String(), nil
}
