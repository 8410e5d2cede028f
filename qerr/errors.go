// Package qerr defines the error taxonomy shared by every csvcat component.
//
// All failures surfaced by parsing, opening, inferring, decoding or evaluating
// are *Error values carrying a Kind plus whatever context the failing component
// had (query offset, file line, column, expected and actual values). Callers
// match on kind with errors.Is against the sentinel values:
//
//	if errors.Is(err, qerr.ErrRowDecode) {
//	    var qe *qerr.Error
//	    errors.As(err, &qe)
//	    fmt.Println("bad line", qe.Line)
//	}
package qerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by the stage of the pipeline that raised it.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindParse
	KindIO
	KindSchema
	KindTypeMismatch
	KindRowDecode
)

// String returns the kind's name as printed by the CLI.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindIO:
		return "IOError"
	case KindSchema:
		return "SchemaError"
	case KindTypeMismatch:
		return "TypeMismatchError"
	case KindRowDecode:
		return "RowDecodeError"
	default:
		return "Error"
	}
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrParse        = &Error{Kind: KindParse}
	ErrIO           = &Error{Kind: KindIO}
	ErrSchema       = &Error{Kind: KindSchema}
	ErrTypeMismatch = &Error{Kind: KindTypeMismatch}
	ErrRowDecode    = &Error{Kind: KindRowDecode}
)

// Error is the structured error type used throughout csvcat.
// Zero-valued context fields are omitted from the message.
type Error struct {
	Kind Kind
	Msg  string

	// Query context. Pos is a byte offset into the query text, -1 when unknown.
	Pos   int
	Token string

	// File context. Line is 1-based, the header is line 1.
	Path   string
	Line   int
	Column string

	Expected string
	Actual   string

	Cause error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Pos >= 0 && e.Kind == KindParse {
		fmt.Fprintf(&b, "at offset %d: ", e.Pos)
	}
	b.WriteString(e.Msg)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf extracts the kind from an error chain.
// Returns KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}

// Parse reports a malformed query at byte offset pos.
func Parse(pos int, token, format string, args ...any) *Error {
	return &Error{
		Kind:  KindParse,
		Msg:   fmt.Sprintf(format, args...),
		Pos:   pos,
		Token: token,
	}
}

// IO reports a failure to open or read path.
func IO(path, msg string, cause error) *Error {
	return &Error{
		Kind:  KindIO,
		Msg:   fmt.Sprintf("%s %q", msg, path),
		Pos:   -1,
		Path:  path,
		Cause: cause,
	}
}

// Schema reports a schema violation such as an unknown column.
func Schema(format string, args ...any) *Error {
	return &Error{
		Kind: KindSchema,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  -1,
	}
}

// UnknownColumn reports a reference to a column missing from the header.
func UnknownColumn(name string, available []string) *Error {
	e := Schema("unknown column %q (available: %s)", name, strings.Join(available, ", "))
	e.Column = name
	return e
}

// TypeMismatch reports operands of incompatible types.
func TypeMismatch(expected, actual, format string, args ...any) *Error {
	return &Error{
		Kind:     KindTypeMismatch,
		Msg:      fmt.Sprintf(format, args...),
		Pos:      -1,
		Expected: expected,
		Actual:   actual,
	}
}

// FieldCount reports a record whose field count differs from the header.
func FieldCount(line, expected, actual int) *Error {
	return &Error{
		Kind:     KindRowDecode,
		Msg:      fmt.Sprintf("expected %d fields, got %d", expected, actual),
		Pos:      -1,
		Line:     line,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
	}
}

// FieldValue reports a field that does not parse under its column's type.
func FieldValue(line int, column, expectedType, raw string) *Error {
	return &Error{
		Kind:     KindRowDecode,
		Msg:      fmt.Sprintf("column %q: cannot parse %q as %s", column, raw, expectedType),
		Pos:      -1,
		Line:     line,
		Column:   column,
		Expected: expectedType,
		Actual:   raw,
	}
}

// Malformed reports a record the CSV tokenizer rejected.
func Malformed(line int, cause error) *Error {
	return &Error{
		Kind:  KindRowDecode,
		Msg:   "malformed record",
		Pos:   -1,
		Line:  line,
		Cause: cause,
	}
}
