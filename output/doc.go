// Package output writes query results in the formats the CLI offers.
//
// Every formatter implements Formatter and receives the result schema
// together with its rows, so columns always appear in query order.
// The csv, json and jsonl formatters also implement RowWriter and can be
// fed one row at a time.
//
// # Supported Formats
//
//   - csv: header row then one record per row; Null is an empty field
//   - json: a single array of objects
//   - jsonl: one JSON object per line (suitable for streaming)
//   - table: an aligned text table with a row count
//   - yaml: a sequence of mappings
//   - parquet: a Parquet file with one optional column per result column
//
// # Basic Usage
//
//	result, err := query.Execute("SELECT id, amount FROM 'orders.csv'")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	formatter, err := output.New("table", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result.Schema, result.Rows); err != nil {
//	    log.Fatal(err)
//	}
//
// Text fields written as CSV are sanitized against spreadsheet formula
// injection: a value starting with =, +, -, @, |, tab or a line break is
// prefixed with a single quote.
package output
