package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/csvcat/value"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write a result in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes rows in the formatter's specific format. Every row has
	// one value per schema column, in schema order.
	Format(schema value.Schema, rows []value.Row) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// RowWriter is implemented by formatters that can write a result as it is
// produced, holding one row at a time. Begin writes whatever precedes the
// rows, End whatever follows them and flushes.
type RowWriter interface {
	Begin(schema value.Schema) error
	WriteRow(row value.Row) error
	End() error
}

// formatRows drives a RowWriter over a materialized result.
func formatRows(w RowWriter, schema value.Schema, rows []value.Row) error {
	if err := w.Begin(schema); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.End()
}

// Formats lists the names accepted by New.
var Formats = []string{"csv", "json", "jsonl", "table", "yaml", "parquet"}

// New returns the formatter registered under format, writing to w.
func New(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return NewCSVFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "jsonl", "ndjson":
		return NewJSONLFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	case "yaml", "yml":
		return NewYAMLFormatter(w), nil
	case "parquet":
		return NewParquetFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}
