// Package reader opens CSV files, infers their column types and decodes
// their rows.
//
// A query runs in two phases against one open file. Infer reads the header
// and the first SampleSize data rows and picks, for every column, the most
// specific type all sampled values parse under (Boolean, Int64, Float64,
// DateTime, then String). Next then streams every data row, the buffered
// sample first, converting each field with its column's type. A row whose
// field count or content does not match the schema stops the stream with a
// RowDecodeError carrying the file line.
//
// # Basic Usage
//
//	src, err := reader.Open("orders.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	if err := src.Infer(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(src.Schema())
//
//	for src.Next() {
//	    fmt.Println(src.Line(), src.Row())
//	}
//	if err := src.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Schema Introspection
//
//	infos, err := reader.ExtractSchemaInfo("orders.csv")
//	for _, info := range infos {
//	    fmt.Printf("%s: %s %v\n", info.Name, info.Type, info.Rejected)
//	}
//
// # Input Handling
//
// Files follow RFC 4180: comma separated, double quotes around fields that
// contain commas, quotes or newlines, a doubled quote inside a quoted field.
// Gzip compressed input is detected by its magic bytes. A UTF-8 or UTF-16
// byte order mark is removed and UTF-16 text is converted to UTF-8.
//
// # Resource Management
//
// The file is closed when Next returns false, and Close may be called any
// number of times, so a deferred Close is always safe.
package reader
