package output

import (
	"bytes"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/vegasq/csvcat/value"
)

// JSONFormatter outputs the result as a single JSON array of objects.
type JSONFormatter struct {
	writer io.Writer

	schema value.Schema
	rows   int
	buf    bytes.Buffer
}

// NewJSONFormatter creates a new JSON array formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as a JSON array. Object keys follow schema order.
func (j *JSONFormatter) Format(schema value.Schema, rows []value.Row) error {
	return formatRows(j, schema, rows)
}

// Begin opens the array.
func (j *JSONFormatter) Begin(schema value.Schema) error {
	j.schema = schema
	j.rows = 0
	_, err := io.WriteString(j.writer, "[")
	return err
}

// WriteRow writes one array element.
func (j *JSONFormatter) WriteRow(row value.Row) error {
	j.buf.Reset()
	if j.rows > 0 {
		j.buf.WriteByte(',')
	}
	j.buf.WriteString("\n  ")
	if err := appendObject(&j.buf, j.schema, row); err != nil {
		return err
	}
	j.rows++
	_, err := j.writer.Write(j.buf.Bytes())
	return err
}

// End closes the array.
func (j *JSONFormatter) End() error {
	tail := "]\n"
	if j.rows > 0 {
		tail = "\n]\n"
	}
	_, err := io.WriteString(j.writer, tail)
	return err
}

// JSONLFormatter outputs rows as JSON Lines format
type JSONLFormatter struct {
	writer io.Writer

	schema value.Schema
	buf    bytes.Buffer
}

// NewJSONLFormatter creates a new JSON Lines formatter
func NewJSONLFormatter(w io.Writer) *JSONLFormatter {
	return &JSONLFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line)
func (j *JSONLFormatter) Format(schema value.Schema, rows []value.Row) error {
	return formatRows(j, schema, rows)
}

// Begin writes nothing; JSON Lines has no header.
func (j *JSONLFormatter) Begin(schema value.Schema) error {
	j.schema = schema
	return nil
}

// WriteRow writes one line.
func (j *JSONLFormatter) WriteRow(row value.Row) error {
	j.buf.Reset()
	if err := appendObject(&j.buf, j.schema, row); err != nil {
		return err
	}
	j.buf.WriteByte('\n')
	_, err := j.writer.Write(j.buf.Bytes())
	return err
}

// End is a no-op.
func (j *JSONLFormatter) End() error { return nil }

// appendObject encodes row as a JSON object. Maps would lose column order,
// so the object is assembled key by key.
func appendObject(buf *bytes.Buffer, schema value.Schema, row value.Row) error {
	buf.WriteByte('{')
	for i, v := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(schema.Column(i).Name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(jsonValue(v))
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}

func jsonValue(v value.Value) any {
	if v.Kind() == value.KindDateTime {
		return v.String()
	}
	return v.Interface()
}
