// Package codec implements KadeDB's versioned binary and JSON wire
// formats for Value, Row, TableSchema and Document.
//
// Binary primitives are little-endian; every top-level entity (Row,
// TableSchema, Document) is framed by a 4-byte magic number and a 1-byte
// version so readers can reject foreign or future-versioned data before
// attempting to decode it.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/value"
)

// Magic is the 4-byte little-endian header every top-level entity starts
// with.
const Magic uint32 = 0x4B444256

// Version is the current binary format version.
const Version uint8 = 1

// Value variant tags.
const (
	tagNull    uint8 = 0
	tagInteger uint8 = 1
	tagFloat   uint8 = 2
	tagString  uint8 = 3
	tagBoolean uint8 = 4
)

// SerializationError wraps a decode/encode failure with its cause.
type SerializationError struct {
	Message string
	Cause   error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codec: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("codec: %s", e.Message)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

func serr(msg string, cause error) error { return &SerializationError{Message: msg, Cause: cause} }

func writeHeader(w io.Writer) error {
	if err := writeU32(w, Magic); err != nil {
		return serr("write magic", err)
	}
	if err := writeU8(w, Version); err != nil {
		return serr("write version", err)
	}
	return nil
}

func readHeader(r io.Reader) error {
	magic, err := readU32(r)
	if err != nil {
		return serr("read magic", err)
	}
	if magic != Magic {
		return serr(fmt.Sprintf("bad magic 0x%X", magic), nil)
	}
	ver, err := readU8(r)
	if err != nil {
		return serr("read version", err)
	}
	if ver != Version {
		return serr(fmt.Sprintf("unsupported version %d", ver), nil)
	}
	return nil
}

func writeU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeI64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readI64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func writeF64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

func readF64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteValue writes a single tagged Value (1-byte tag + payload), with no
// top-level header; Values are always nested inside a Row/Document frame.
func WriteValue(w io.Writer, v value.Value) error {
	switch v.Type() {
	case value.Null:
		return writeU8(w, tagNull)
	case value.Integer:
		if err := writeU8(w, tagInteger); err != nil {
			return err
		}
		return writeI64(w, v.RawInt())
	case value.Float:
		if err := writeU8(w, tagFloat); err != nil {
			return err
		}
		return writeF64(w, v.RawFloat())
	case value.String:
		if err := writeU8(w, tagString); err != nil {
			return err
		}
		s, _ := v.AsString()
		return writeString(w, s)
	case value.Boolean:
		if err := writeU8(w, tagBoolean); err != nil {
			return err
		}
		b := uint8(0)
		if v.RawBool() {
			b = 1
		}
		return writeU8(w, b)
	default:
		return serr(fmt.Sprintf("unknown value type %v", v.Type()), nil)
	}
}

// ReadValue reads a single tagged Value.
func ReadValue(r io.Reader) (value.Value, error) {
	tag, err := readU8(r)
	if err != nil {
		return value.Value{}, serr("read value tag", err)
	}
	switch tag {
	case tagNull:
		return value.NewNull(), nil
	case tagInteger:
		i, err := readI64(r)
		if err != nil {
			return value.Value{}, serr("read integer payload", err)
		}
		return value.NewInteger(i), nil
	case tagFloat:
		f, err := readF64(r)
		if err != nil {
			return value.Value{}, serr("read float payload", err)
		}
		return value.NewFloat(f), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, serr("read string payload", err)
		}
		return value.NewString(s), nil
	case tagBoolean:
		b, err := readU8(r)
		if err != nil {
			return value.Value{}, serr("read boolean payload", err)
		}
		return value.NewBoolean(b != 0), nil
	default:
		return value.Value{}, serr(fmt.Sprintf("unknown value tag %d", tag), nil)
	}
}

// WriteRow writes r framed by the standard header: count(u32) then, per
// cell, isNull(u8) and, if not null, a Value.
func WriteRow(w io.Writer, r row.Row) error {
	if err := writeHeader(w); err != nil {
		return err
	}
	if err := writeU32(w, uint32(r.Len())); err != nil {
		return serr("write row count", err)
	}
	for _, cell := range r.Cells {
		if cell.IsNull() {
			if err := writeU8(w, 1); err != nil {
				return serr("write row null flag", err)
			}
			continue
		}
		if err := writeU8(w, 0); err != nil {
			return serr("write row null flag", err)
		}
		if err := WriteValue(w, cell); err != nil {
			return err
		}
	}
	return nil
}

// ReadRow reads a Row previously written by WriteRow.
func ReadRow(r io.Reader) (row.Row, error) {
	if err := readHeader(r); err != nil {
		return row.Row{}, err
	}
	n, err := readU32(r)
	if err != nil {
		return row.Row{}, serr("read row count", err)
	}
	cells := make([]value.Value, n)
	for i := range cells {
		isNull, err := readU8(r)
		if err != nil {
			return row.Row{}, serr("read row null flag", err)
		}
		if isNull != 0 {
			cells[i] = value.NewNull()
			continue
		}
		v, err := ReadValue(r)
		if err != nil {
			return row.Row{}, err
		}
		cells[i] = v
	}
	return row.NewRow(cells), nil
}

// WriteDocument writes d framed by the standard header: count(u32) then,
// per entry, name(string), isNull(u8), and if not null a Value.
func WriteDocument(w io.Writer, d row.Document) error {
	if err := writeHeader(w); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(d))); err != nil {
		return serr("write document count", err)
	}
	for _, name := range sortedKeys(d) {
		if err := writeString(w, name); err != nil {
			return serr("write document field name", err)
		}
		cell := d[name]
		if cell.IsNull() {
			if err := writeU8(w, 1); err != nil {
				return serr("write document null flag", err)
			}
			continue
		}
		if err := writeU8(w, 0); err != nil {
			return serr("write document null flag", err)
		}
		if err := WriteValue(w, cell); err != nil {
			return err
		}
	}
	return nil
}

// ReadDocument reads a Document previously written by WriteDocument.
func ReadDocument(r io.Reader) (row.Document, error) {
	if err := readHeader(r); err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, serr("read document count", err)
	}
	d := make(row.Document, n)
	for i := uint32(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, serr("read document field name", err)
		}
		isNull, err := readU8(r)
		if err != nil {
			return nil, serr("read document null flag", err)
		}
		if isNull != 0 {
			d[name] = value.NewNull()
			continue
		}
		v, err := ReadValue(r)
		if err != nil {
			return nil, err
		}
		d[name] = v
	}
	return d, nil
}

func sortedKeys(d row.Document) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// WriteTableSchema writes s framed by the standard header: column
// count(u32), per column (name, type tag, nullable, unique, constraint
// presence+payload), then primary key presence(u8)+name.
func WriteTableSchema(w io.Writer, s *schema.TableSchema) error {
	if err := writeHeader(w); err != nil {
		return err
	}
	cols := s.Columns()
	if err := writeU32(w, uint32(len(cols))); err != nil {
		return serr("write schema column count", err)
	}
	for _, c := range cols {
		if err := writeColumn(w, c); err != nil {
			return err
		}
	}
	if s.PrimaryKey() == "" {
		return writeU8(w, 0)
	}
	if err := writeU8(w, 1); err != nil {
		return serr("write schema primary-key flag", err)
	}
	return writeString(w, s.PrimaryKey())
}

// ReadTableSchema reads a TableSchema previously written by
// WriteTableSchema.
func ReadTableSchema(r io.Reader) (*schema.TableSchema, error) {
	if err := readHeader(r); err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, serr("read schema column count", err)
	}
	cols := make([]schema.Column, n)
	for i := range cols {
		c, err := readColumn(r)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	hasPK, err := readU8(r)
	if err != nil {
		return nil, serr("read schema primary-key flag", err)
	}
	pk := ""
	if hasPK != 0 {
		pk, err = readString(r)
		if err != nil {
			return nil, serr("read schema primary key", err)
		}
	}
	s, err := schema.NewTableSchema(cols, pk)
	if err != nil {
		return nil, serr("rebuild schema", err)
	}
	return s, nil
}

func writeColumn(w io.Writer, c schema.Column) error {
	if err := writeString(w, c.Name); err != nil {
		return serr("write column name", err)
	}
	if err := writeU8(w, valueTypeTag(c.Type)); err != nil {
		return serr("write column type", err)
	}
	if err := writeU8(w, boolU8(c.Nullable)); err != nil {
		return serr("write column nullable", err)
	}
	if err := writeU8(w, boolU8(c.Unique)); err != nil {
		return serr("write column unique", err)
	}
	if c.Constraints == nil {
		return writeU8(w, 0)
	}
	if err := writeU8(w, 1); err != nil {
		return serr("write constraints presence", err)
	}
	return writeConstraints(w, c.Constraints)
}

func readColumn(r io.Reader) (schema.Column, error) {
	name, err := readString(r)
	if err != nil {
		return schema.Column{}, serr("read column name", err)
	}
	tag, err := readU8(r)
	if err != nil {
		return schema.Column{}, serr("read column type", err)
	}
	nullable, err := readU8(r)
	if err != nil {
		return schema.Column{}, serr("read column nullable", err)
	}
	unique, err := readU8(r)
	if err != nil {
		return schema.Column{}, serr("read column unique", err)
	}
	hasConstraints, err := readU8(r)
	if err != nil {
		return schema.Column{}, serr("read constraints presence", err)
	}
	col := schema.Column{
		Name:     name,
		Type:     tagValueType(tag),
		Nullable: nullable != 0,
		Unique:   unique != 0,
	}
	if hasConstraints != 0 {
		cons, err := readConstraints(r)
		if err != nil {
			return schema.Column{}, err
		}
		col.Constraints = cons
	}
	return col, nil
}

func writeConstraints(w io.Writer, c *schema.Constraints) error {
	if err := writeOptionalInt(w, c.MinLength); err != nil {
		return err
	}
	if err := writeOptionalInt(w, c.MaxLength); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(c.OneOf))); err != nil {
		return serr("write constraints oneOf count", err)
	}
	for _, v := range c.OneOf {
		if err := WriteValue(w, v); err != nil {
			return err
		}
	}
	if err := writeOptionalValue(w, c.MinValue); err != nil {
		return err
	}
	return writeOptionalValue(w, c.MaxValue)
}

func readConstraints(r io.Reader) (*schema.Constraints, error) {
	c := &schema.Constraints{}
	var err error
	if c.MinLength, err = readOptionalInt(r); err != nil {
		return nil, err
	}
	if c.MaxLength, err = readOptionalInt(r); err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, serr("read constraints oneOf count", err)
	}
	if n > 0 {
		c.OneOf = make([]value.Value, n)
	}
	for i := range c.OneOf {
		v, err := ReadValue(r)
		if err != nil {
			return nil, err
		}
		c.OneOf[i] = v
	}
	if c.MinValue, err = readOptionalValue(r); err != nil {
		return nil, err
	}
	if c.MaxValue, err = readOptionalValue(r); err != nil {
		return nil, err
	}
	return c, nil
}

func writeOptionalInt(w io.Writer, v *int) error {
	if v == nil {
		return writeU8(w, 0)
	}
	if err := writeU8(w, 1); err != nil {
		return err
	}
	return writeI64(w, int64(*v))
}

func readOptionalInt(r io.Reader) (*int, error) {
	present, err := readU8(r)
	if err != nil {
		return nil, serr("read optional-int presence", err)
	}
	if present == 0 {
		return nil, nil
	}
	i, err := readI64(r)
	if err != nil {
		return nil, serr("read optional-int payload", err)
	}
	iv := int(i)
	return &iv, nil
}

func writeOptionalValue(w io.Writer, v *value.Value) error {
	if v == nil {
		return writeU8(w, 0)
	}
	if err := writeU8(w, 1); err != nil {
		return err
	}
	return WriteValue(w, *v)
}

func readOptionalValue(r io.Reader) (*value.Value, error) {
	present, err := readU8(r)
	if err != nil {
		return nil, serr("read optional-value presence", err)
	}
	if present == 0 {
		return nil, nil
	}
	v, err := ReadValue(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func valueTypeTag(t value.Type) uint8 {
	switch t {
	case value.Null:
		return tagNull
	case value.Integer:
		return tagInteger
	case value.Float:
		return tagFloat
	case value.String:
		return tagString
	case value.Boolean:
		return tagBoolean
	default:
		return tagNull
	}
}

func tagValueType(tag uint8) value.Type {
	switch tag {
	case tagInteger:
		return value.Integer
	case tagFloat:
		return value.Float
	case tagString:
		return value.String
	case tagBoolean:
		return value.Boolean
	default:
		return value.Null
	}
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
