package output

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/csvcat/value"
)

// ParquetFormatter writes the result as a Parquet file. Every column is
// optional so Null values survive the round trip.
type ParquetFormatter struct {
	writer io.Writer
}

// NewParquetFormatter creates a new Parquet formatter
func NewParquetFormatter(w io.Writer) *ParquetFormatter {
	return &ParquetFormatter{writer: w}
}

// SetOutput sets the output writer
func (p *ParquetFormatter) SetOutput(w io.Writer) {
	p.writer = w
}

// Format writes rows as a single Parquet file.
func (p *ParquetFormatter) Format(schema value.Schema, rows []value.Row) error {
	pqSchema, leaves, err := parquetSchema(schema)
	if err != nil {
		return err
	}

	writer := parquet.NewWriter(p.writer, pqSchema)
	buf := make([]parquet.Row, 0, len(rows))
	for _, row := range rows {
		pqRow := make(parquet.Row, len(row))
		for i, v := range row {
			pqRow[leaves[i]] = parquetValue(v).Level(0, definitionLevel(v), leaves[i])
		}
		buf = append(buf, pqRow)
	}

	if _, err := writer.WriteRows(buf); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// parquetSchema maps the result schema onto a flat Parquet group. Group
// fields are ordered by name, so the returned slice gives the leaf column
// index of each result column.
func parquetSchema(schema value.Schema) (*parquet.Schema, []int, error) {
	group := make(parquet.Group, schema.Len())
	for _, col := range schema.Columns() {
		if _, dup := group[col.Name]; dup {
			return nil, nil, fmt.Errorf("parquet output requires unique column names, %q appears twice", col.Name)
		}
		group[col.Name] = parquet.Optional(parquetNode(col.Type))
	}

	pqSchema := parquet.NewSchema("csvcat", group)
	leaves := make([]int, schema.Len())
	for i, col := range schema.Columns() {
		leaf, ok := pqSchema.Lookup(col.Name)
		if !ok {
			return nil, nil, fmt.Errorf("parquet column %q missing from schema", col.Name)
		}
		leaves[i] = leaf.ColumnIndex
	}
	return pqSchema, leaves, nil
}

func parquetNode(t value.ColumnType) parquet.Node {
	switch t {
	case value.Boolean:
		return parquet.Leaf(parquet.BooleanType)
	case value.Int64:
		return parquet.Int(64)
	case value.Float64:
		return parquet.Leaf(parquet.DoubleType)
	case value.DateTime:
		return parquet.Timestamp(parquet.Microsecond)
	default:
		return parquet.String()
	}
}

func parquetValue(v value.Value) parquet.Value {
	switch v.Kind() {
	case value.KindString:
		return parquet.ByteArrayValue([]byte(v.AsString()))
	case value.KindBoolean:
		return parquet.BooleanValue(v.AsBool())
	case value.KindInt64:
		return parquet.Int64Value(v.AsInt())
	case value.KindFloat64:
		return parquet.DoubleValue(v.AsFloat())
	case value.KindDateTime:
		return parquet.Int64Value(v.AsTime().UnixMicro())
	default:
		return parquet.NullValue()
	}
}

func definitionLevel(v value.Value) int {
	if v.IsNull() {
		return 0
	}
	return 1
}
