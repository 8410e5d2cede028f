package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

// record is a raw CSV record and the file line it starts on.
type record struct {
	fields []string
	line   int
}

// CSVSource is an open CSV file being queried. Infer reads the header and
// the sample; Next then yields every data row, sample rows first, decoded
// with the inferred schema. A CSVSource is used by one goroutine and
// cannot be rewound.
type CSVSource struct {
	path    string
	csv     *csv.Reader
	closers []io.Closer
	closed  bool

	inferred bool
	header   []string
	schema   value.Schema
	reports  []ColumnReport

	sample    []record
	pending   error // read error hit while buffering the sample
	replayed  int
	exhausted bool

	nextLine int // line the next record should start on; 0 before the header
	blanks   []int
	held     *heldRecord

	row  value.Row
	line int
	err  error
}

// heldRecord is a read result that waits behind the blank lines found
// ahead of it.
type heldRecord struct {
	record
	err error
}

// Open opens a CSV file for querying.
//
// The path must exist and be readable. Gzip compressed files and files with
// a byte order mark are handled transparently. JSON files fail with an
// IOError wrapping ErrUnsupportedFormat.
//
// Example:
//
//	src, err := reader.Open("orders.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
func Open(path string) (*CSVSource, error) {
	if DetectFormat(path) != FormatCSV {
		return nil, qerr.IO(path, "cannot query", ErrUnsupportedFormat)
	}

	text, closers, err := openText(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(text)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	return &CSVSource{
		path:    path,
		csv:     r,
		closers: closers,
	}, nil
}

// Path returns the path the source was opened with.
func (s *CSVSource) Path() string { return s.path }

// Infer reads the header and up to SampleSize data rows and derives the
// schema. It is a no-op after the first successful call.
//
// A file with no header is a SchemaError. A file with a header but no data
// rows gets an all-String schema. Sample rows that cannot be read or have
// the wrong number of fields are left out of inference; Next reports them
// when it reaches them.
func (s *CSVSource) Infer() error {
	if s.inferred {
		return nil
	}
	if s.closed {
		return qerr.IO(s.path, "source is closed", nil)
	}

	header, _, err := s.read()
	if errors.Is(err, io.EOF) {
		return s.fail(qerr.Schema("%s: missing header row", s.path))
	}
	if err != nil {
		return s.fail(err)
	}
	s.header = header

	for len(s.sample) < SampleSize {
		fields, line, err := s.read()
		if errors.Is(err, io.EOF) {
			s.exhausted = true
			break
		}
		if err != nil {
			s.pending = err
			break
		}
		s.sample = append(s.sample, record{fields: fields, line: line})
	}

	usable := make([][]string, 0, len(s.sample))
	for _, rec := range s.sample {
		if len(rec.fields) == len(header) {
			usable = append(usable, rec.fields)
		}
	}

	schema, reports, err := InferTypes(header, usable)
	if err != nil {
		return s.fail(err)
	}
	s.schema = schema
	s.reports = reports
	s.inferred = true
	return nil
}

// Header returns the raw header fields. Valid after Infer.
func (s *CSVSource) Header() []string { return s.header }

// Schema returns the inferred schema. Valid after Infer.
func (s *CSVSource) Schema() value.Schema { return s.schema }

// Reports explains the inferred type of every column. Valid after Infer.
func (s *CSVSource) Reports() []ColumnReport { return s.reports }

// Next advances to the next data row. It returns false at end of file or on
// the first error; Err tells which. The file is closed when Next returns
// false.
func (s *CSVSource) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	if !s.inferred {
		if err := s.Infer(); err != nil {
			return false
		}
	}

	rec, err := s.nextRecord()
	if errors.Is(err, io.EOF) {
		_ = s.Close()
		return false
	}
	if err != nil {
		_ = s.fail(err)
		return false
	}

	row, err := s.decode(rec)
	if err != nil {
		_ = s.fail(err)
		return false
	}
	s.row = row
	s.line = rec.line
	return true
}

// Row returns the current row. The slice is owned by the caller.
func (s *CSVSource) Row() value.Row { return s.row }

// Line returns the file line the current row starts on.
func (s *CSVSource) Line() int { return s.line }

// Err returns the error that stopped iteration, if any.
func (s *CSVSource) Err() error { return s.err }

// Close releases the file. It is safe to call Close multiple times.
func (s *CSVSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func (s *CSVSource) fail(err error) error {
	s.err = err
	_ = s.Close()
	return err
}

// nextRecord replays the buffered sample, then its pending error, then
// reads on from the file.
func (s *CSVSource) nextRecord() (record, error) {
	if s.replayed < len(s.sample) {
		rec := s.sample[s.replayed]
		s.sample[s.replayed] = record{}
		s.replayed++
		return rec, nil
	}
	if s.pending != nil {
		return record{}, s.pending
	}
	if s.exhausted {
		return record{}, io.EOF
	}

	fields, line, err := s.read()
	if err != nil {
		return record{}, err
	}
	return record{fields: fields, line: line}, nil
}

// read returns a copy of the next CSV record and its starting line.
//
// encoding/csv skips blank lines, so read compares where each record starts
// with where the previous one ended. Every blank line in between comes back
// as a record holding one empty field, before the record that follows it.
// Blank lines ahead of the header and at the end of the file are ignored.
func (s *CSVSource) read() ([]string, int, error) {
	if len(s.blanks) == 0 && s.held == nil {
		fields, line, err := s.readRecord()
		if s.nextLine > 0 && line > s.nextLine {
			for l := s.nextLine; l < line; l++ {
				s.blanks = append(s.blanks, l)
			}
		}
		if err == nil {
			s.nextLine = s.endLine(fields) + 1
		}
		if len(s.blanks) == 0 {
			return fields, line, err
		}
		s.held = &heldRecord{record: record{fields: fields, line: line}, err: err}
	}

	if len(s.blanks) > 0 {
		line := s.blanks[0]
		s.blanks = s.blanks[1:]
		return []string{""}, line, nil
	}
	held := s.held
	s.held = nil
	return held.fields, held.line, held.err
}

// readRecord reads one record from the CSV stream. Errors carry the line
// the failing record starts on when it is known.
func (s *CSVSource) readRecord() ([]string, int, error) {
	fields, err := s.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.StartLine, qerr.Malformed(pe.StartLine, pe.Err)
		}
		return nil, 0, qerr.IO(s.path, "cannot read", err)
	}
	line, _ := s.csv.FieldPos(0)

	for i, f := range fields {
		if !utf8.ValidString(f) {
			return nil, line, qerr.Malformed(line, fmt.Errorf("invalid UTF-8 in field %d", i+1))
		}
	}

	cp := make([]string, len(fields))
	copy(cp, fields)
	return cp, line, nil
}

// endLine is the file line the record just read ends on. Quoted fields may
// span lines.
func (s *CSVSource) endLine(fields []string) int {
	last := len(fields) - 1
	line, _ := s.csv.FieldPos(last)
	return line + strings.Count(fields[last], "\n")
}

// decode converts a raw record to a row using the inferred column types.
func (s *CSVSource) decode(rec record) (value.Row, error) {
	if len(rec.fields) != s.schema.Len() {
		return nil, qerr.FieldCount(rec.line, s.schema.Len(), len(rec.fields))
	}

	row := make(value.Row, len(rec.fields))
	for i, raw := range rec.fields {
		col := s.schema.Column(i)
		v, ok := value.Parse(raw, col.Type)
		if !ok {
			return nil, qerr.FieldValue(rec.line, col.Name, col.Type.String(), raw)
		}
		row[i] = v
	}
	return row, nil
}
