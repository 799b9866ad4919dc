package codec

import (
	"encoding/json"
	"fmt"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/value"
)

// valueJSON is the tagged wire form {"t":"null|int|float|string|bool","v":...}
// used for exact round-tripping, distinct from resultset's plain-scalar
// JSON, which is for human/tool consumption rather than fidelity.
type valueJSON struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

func valueTag(t value.Type) string {
	switch t {
	case value.Integer:
		return "int"
	case value.Float:
		return "float"
	case value.String:
		return "string"
	case value.Boolean:
		return "bool"
	default:
		return "null"
	}
}

func tagToType(tag string) (value.Type, error) {
	switch tag {
	case "null":
		return value.Null, nil
	case "int":
		return value.Integer, nil
	case "float":
		return value.Float, nil
	case "string":
		return value.String, nil
	case "bool":
		return value.Boolean, nil
	default:
		return value.Null, serr(fmt.Sprintf("unknown value tag %q", tag), nil)
	}
}

// MarshalValueJSON renders v as its tagged JSON wire form.
func MarshalValueJSON(v value.Value) ([]byte, error) {
	vj := valueJSON{T: valueTag(v.Type())}
	switch v.Type() {
	case value.Null:
		// no payload
	case value.Integer:
		payload, err := json.Marshal(v.RawInt())
		if err != nil {
			return nil, serr("marshal integer payload", err)
		}
		vj.V = payload
	case value.Float:
		payload, err := json.Marshal(v.RawFloat())
		if err != nil {
			return nil, serr("marshal float payload", err)
		}
		vj.V = payload
	case value.String:
		s, _ := v.AsString()
		payload, err := json.Marshal(s)
		if err != nil {
			return nil, serr("marshal string payload", err)
		}
		vj.V = payload
	case value.Boolean:
		payload, err := json.Marshal(v.RawBool())
		if err != nil {
			return nil, serr("marshal boolean payload", err)
		}
		vj.V = payload
	}
	out, err := json.Marshal(vj)
	if err != nil {
		return nil, serr("marshal value", err)
	}
	return out, nil
}

// UnmarshalValueJSON parses the tagged JSON wire form produced by
// MarshalValueJSON.
func UnmarshalValueJSON(data []byte) (value.Value, error) {
	var vj valueJSON
	if err := json.Unmarshal(data, &vj); err != nil {
		return value.Value{}, serr("unmarshal value envelope", err)
	}
	typ, err := tagToType(vj.T)
	if err != nil {
		return value.Value{}, err
	}
	switch typ {
	case value.Null:
		return value.NewNull(), nil
	case value.Integer:
		var i int64
		if err := json.Unmarshal(vj.V, &i); err != nil {
			return value.Value{}, serr("unmarshal integer payload", err)
		}
		return value.NewInteger(i), nil
	case value.Float:
		var f float64
		if err := json.Unmarshal(vj.V, &f); err != nil {
			return value.Value{}, serr("unmarshal float payload", err)
		}
		return value.NewFloat(f), nil
	case value.String:
		var s string
		if err := json.Unmarshal(vj.V, &s); err != nil {
			return value.Value{}, serr("unmarshal string payload", err)
		}
		return value.NewString(s), nil
	case value.Boolean:
		var b bool
		if err := json.Unmarshal(vj.V, &b); err != nil {
			return value.Value{}, serr("unmarshal boolean payload", err)
		}
		return value.NewBoolean(b), nil
	default:
		return value.Value{}, serr("unreachable value tag", nil)
	}
}

// rowJSON is {"values":[...],"version":N}.
type rowJSON struct {
	Values  []json.RawMessage `json:"values"`
	Version uint8             `json:"version"`
}

// MarshalRowJSON renders r as {"values":[ValueJSON,...],"version":N}.
func MarshalRowJSON(r row.Row) ([]byte, error) {
	values := make([]json.RawMessage, r.Len())
	for i, cell := range r.Cells {
		b, err := MarshalValueJSON(cell)
		if err != nil {
			return nil, err
		}
		values[i] = b
	}
	out, err := json.Marshal(rowJSON{Values: values, Version: Version})
	if err != nil {
		return nil, serr("marshal row", err)
	}
	return out, nil
}

// UnmarshalRowJSON parses the form produced by MarshalRowJSON.
func UnmarshalRowJSON(data []byte) (row.Row, error) {
	var rj rowJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return row.Row{}, serr("unmarshal row envelope", err)
	}
	if rj.Version != Version {
		return row.Row{}, serr(fmt.Sprintf("unsupported row version %d", rj.Version), nil)
	}
	cells := make([]value.Value, len(rj.Values))
	for i, raw := range rj.Values {
		v, err := UnmarshalValueJSON(raw)
		if err != nil {
			return row.Row{}, err
		}
		cells[i] = v
	}
	return row.NewRow(cells), nil
}

// documentJSON is a flat {name: ValueJSON|null} object; a JSON null means
// the field is present with a KadeDB Null value.
type documentJSON map[string]json.RawMessage

// MarshalDocumentJSON renders d as a flat {name: ValueJSON} object.
func MarshalDocumentJSON(d row.Document) ([]byte, error) {
	out := make(documentJSON, len(d))
	for name, cell := range d {
		b, err := MarshalValueJSON(cell)
		if err != nil {
			return nil, err
		}
		out[name] = b
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, serr("marshal document", err)
	}
	return raw, nil
}

// UnmarshalDocumentJSON parses the form produced by MarshalDocumentJSON.
func UnmarshalDocumentJSON(data []byte) (row.Document, error) {
	var dj documentJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, serr("unmarshal document envelope", err)
	}
	d := make(row.Document, len(dj))
	for name, raw := range dj {
		if string(raw) == "null" {
			d[name] = value.NewNull()
			continue
		}
		v, err := UnmarshalValueJSON(raw)
		if err != nil {
			return nil, err
		}
		d[name] = v
	}
	return d, nil
}

// columnJSON mirrors schema.Column for JSON purposes.
type columnJSON struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Nullable    bool             `json:"nullable"`
	Unique      bool             `json:"unique"`
	Constraints *constraintsJSON `json:"constraints,omitempty"`
}

type constraintsJSON struct {
	MinLength *int              `json:"minLength,omitempty"`
	MaxLength *int              `json:"maxLength,omitempty"`
	OneOf     []json.RawMessage `json:"oneOf,omitempty"`
	MinValue  json.RawMessage   `json:"minValue,omitempty"`
	MaxValue  json.RawMessage   `json:"maxValue,omitempty"`
}

// schemaJSON is {"columns":[...],"primaryKey":null|string,"version":N}.
type schemaJSON struct {
	Columns    []columnJSON `json:"columns"`
	PrimaryKey *string      `json:"primaryKey"`
	Version    uint8        `json:"version"`
}

func columnTypeName(t value.Type) string {
	return t.String()
}

func columnTypeFromName(name string) (value.Type, error) {
	switch name {
	case "null":
		return value.Null, nil
	case "integer":
		return value.Integer, nil
	case "float":
		return value.Float, nil
	case "string":
		return value.String, nil
	case "boolean":
		return value.Boolean, nil
	default:
		return value.Null, serr(fmt.Sprintf("unknown column type %q", name), nil)
	}
}

// MarshalTableSchemaJSON renders s per the schemaJSON shape.
func MarshalTableSchemaJSON(s *schema.TableSchema) ([]byte, error) {
	cols := s.Columns()
	cjs := make([]columnJSON, len(cols))
	for i, c := range cols {
		cj := columnJSON{
			Name:     c.Name,
			Type:     columnTypeName(c.Type),
			Nullable: c.Nullable,
			Unique:   c.Unique,
		}
		if c.Constraints != nil {
			cons, err := marshalConstraints(c.Constraints)
			if err != nil {
				return nil, err
			}
			cj.Constraints = cons
		}
		cjs[i] = cj
	}
	var pk *string
	if s.PrimaryKey() != "" {
		p := s.PrimaryKey()
		pk = &p
	}
	out, err := json.Marshal(schemaJSON{Columns: cjs, PrimaryKey: pk, Version: Version})
	if err != nil {
		return nil, serr("marshal schema", err)
	}
	return out, nil
}

// UnmarshalTableSchemaJSON parses the form produced by
// MarshalTableSchemaJSON.
func UnmarshalTableSchemaJSON(data []byte) (*schema.TableSchema, error) {
	var sj schemaJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, serr("unmarshal schema envelope", err)
	}
	if sj.Version != Version {
		return nil, serr(fmt.Sprintf("unsupported schema version %d", sj.Version), nil)
	}
	cols := make([]schema.Column, len(sj.Columns))
	for i, cj := range sj.Columns {
		typ, err := columnTypeFromName(cj.Type)
		if err != nil {
			return nil, err
		}
		col := schema.Column{Name: cj.Name, Type: typ, Nullable: cj.Nullable, Unique: cj.Unique}
		if cj.Constraints != nil {
			cons, err := unmarshalConstraints(cj.Constraints)
			if err != nil {
				return nil, err
			}
			col.Constraints = cons
		}
		cols[i] = col
	}
	pk := ""
	if sj.PrimaryKey != nil {
		pk = *sj.PrimaryKey
	}
	s, err := schema.NewTableSchema(cols, pk)
	if err != nil {
		return nil, serr("rebuild schema", err)
	}
	return s, nil
}

func marshalConstraints(c *schema.Constraints) (*constraintsJSON, error) {
	cj := &constraintsJSON{MinLength: c.MinLength, MaxLength: c.MaxLength}
	if len(c.OneOf) > 0 {
		cj.OneOf = make([]json.RawMessage, len(c.OneOf))
		for i, v := range c.OneOf {
			b, err := MarshalValueJSON(v)
			if err != nil {
				return nil, err
			}
			cj.OneOf[i] = b
		}
	}
	if c.MinValue != nil {
		b, err := MarshalValueJSON(*c.MinValue)
		if err != nil {
			return nil, err
		}
		cj.MinValue = b
	}
	if c.MaxValue != nil {
		b, err := MarshalValueJSON(*c.MaxValue)
		if err != nil {
			return nil, err
		}
		cj.MaxValue = b
	}
	return cj, nil
}

func unmarshalConstraints(cj *constraintsJSON) (*schema.Constraints, error) {
	c := &schema.Constraints{MinLength: cj.MinLength, MaxLength: cj.MaxLength}
	if len(cj.OneOf) > 0 {
		c.OneOf = make([]value.Value, len(cj.OneOf))
		for i, raw := range cj.OneOf {
			v, err := UnmarshalValueJSON(raw)
			if err != nil {
				return nil, err
			}
			c.OneOf[i] = v
		}
	}
	if len(cj.MinValue) > 0 {
		v, err := UnmarshalValueJSON(cj.MinValue)
		if err != nil {
			return nil, err
		}
		c.MinValue = &v
	}
	if len(cj.MaxValue) > 0 {
		v, err := UnmarshalValueJSON(cj.MaxValue)
		if err != nil {
			return nil, err
		}
		c.MaxValue = &v
	}
	return c, nil
}
