// Package query parses and runs filtered projections over CSV files.
//
// The language is a small SQL subset:
//
//	SELECT * | col [, col ...]
//	FROM 'path/to/file.csv'
//	[WHERE predicate]
//	[LIMIT n] [OFFSET m]
//
// Predicates combine comparisons (=, <>, !=, <, >, <=, >=) and
// IS [NOT] NULL tests with AND, OR, NOT and parentheses. Keywords are
// case-insensitive; column names and string literals are not. Numbers
// without a fraction or exponent are Int64, others Float64.
//
// # Basic Usage
//
//	result, err := query.Execute("SELECT id, amount FROM 'orders.csv' WHERE amount > 25")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range result.Rows {
//	    fmt.Println(row)
//	}
//
// # Streaming
//
// Execute materializes the result. Query returns a cursor that decodes one
// row per Next call, so arbitrarily large files run in constant memory:
//
//	exec := query.NewExecutor(query.WithLogger(logger))
//	rows, err := exec.Query("SELECT * FROM 'big.csv' WHERE status = 'failed'")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    fmt.Println(rows.Row())
//	}
//	if err := rows.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Typing
//
// Column types come from the file (see package reader). Comparisons are
// type-checked before any row is read: an unknown column is a SchemaError
// and comparing a String column with a number is a TypeMismatchError. An
// Int64 literal compared with a Float64 column is widened, and a string
// literal compared with a DateTime column is parsed as a date. Comparisons
// with a Null value are false.
//
// # Errors
//
// Every error is a *qerr.Error; match its kind with errors.Is against
// qerr.ErrParse, qerr.ErrIO, qerr.ErrSchema, qerr.ErrTypeMismatch or
// qerr.ErrRowDecode. A row that fails to decode aborts the query and no
// partial result is returned from Execute.
package query
