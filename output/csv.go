package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/csvcat/value"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer

	csv    *csv.Writer
	record []string
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the header followed by one record per row. Null values are
// written as empty fields.
func (c *CSVFormatter) Format(schema value.Schema, rows []value.Row) error {
	return formatRows(c, schema, rows)
}

// Begin writes the header record.
func (c *CSVFormatter) Begin(schema value.Schema) error {
	c.csv = csv.NewWriter(c.writer)
	c.record = make([]string, schema.Len())
	return c.write(schema.Names())
}

// WriteRow writes one record.
func (c *CSVFormatter) WriteRow(row value.Row) error {
	for i, v := range row {
		c.record[i] = formatValue(v)
	}
	return c.write(c.record)
}

// End flushes buffered records.
func (c *CSVFormatter) End() error {
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// write writes one record. csv.Writer renders a lone empty field as a blank
// line, which CSV readers skip, so that record is written quoted.
func (c *CSVFormatter) write(record []string) error {
	if len(record) != 1 || record[0] != "" {
		return c.csv.Write(record)
	}
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(c.writer, "\"\"\n")
	return err
}

// formatValue converts a value to its CSV field text
func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindString:
		return sanitize(v.AsString())
	default:
		return v.String()
	}
}

// sanitize guards against CSV injection by prefixing text that a
// spreadsheet application would evaluate as a formula.
func sanitize(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(s, "'", "''")
	}
	return s
}
