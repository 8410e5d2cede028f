package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/csvcat/value"
)

// TableFormatter renders rows as an aligned text table for terminals.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders the header, the rows and a row count footer.
func (t *TableFormatter) Format(schema value.Schema, rows []value.Row) error {
	table := tablewriter.NewWriter(t.writer)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(schema.Names())
	table.SetAutoWrapText(false)

	alignments := make([]int, schema.Len())
	for i, col := range schema.Columns() {
		switch col.Type {
		case value.Int64, value.Float64:
			alignments[i] = tablewriter.ALIGN_RIGHT
		default:
			alignments[i] = tablewriter.ALIGN_LEFT
		}
	}
	table.SetColumnAlignment(alignments)

	for _, row := range rows {
		table.Append(row.Strings())
	}
	table.Render()

	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	_, err := fmt.Fprintf(t.writer, "(%d %s)\n", len(rows), noun)
	return err
}
