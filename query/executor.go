package query

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/reader"
	"github.com/vegasq/csvcat/value"
)

// Source is a data source a query runs against. Infer must be called
// before Schema; Next then yields rows decoded with that schema.
// *reader.CSVSource is the implementation used by default.
type Source interface {
	Infer() error
	Schema() value.Schema
	Next() bool
	Row() value.Row
	Err() error
	Close() error
}

// Opener opens the source named by a query's FROM clause.
type Opener func(path string) (Source, error)

// OpenCSV is the default Opener.
func OpenCSV(path string) (Source, error) {
	src, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Result is a fully materialized query result.
type Result struct {
	ID     string
	Schema value.Schema
	Rows   []value.Row
}

// Executor runs queries. It holds configuration only, so one Executor may
// serve concurrent queries; each query owns its own source.
type Executor struct {
	logger  *slog.Logger
	open    Opener
	maxRows int64
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for execution events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithOpener replaces the function used to open FROM sources.
func WithOpener(open Opener) Option {
	return func(e *Executor) { e.open = open }
}

// WithMaxRows caps the number of rows any query returns. Zero means no cap.
func WithMaxRows(n int64) Option {
	return func(e *Executor) { e.maxRows = n }
}

// NewExecutor creates an executor reading CSV files.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		open:   OpenCSV,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute parses and runs sql with a default executor.
func Execute(sql string) (*Result, error) {
	return NewExecutor().Execute(sql)
}

// Execute parses and runs sql, collecting every matching row.
// On any error no partial result is returned.
func (e *Executor) Execute(sql string) (*Result, error) {
	q, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	return e.ExecuteQuery(q)
}

// ExecuteQuery runs a parsed query, collecting every matching row in file
// order.
func (e *Executor) ExecuteQuery(q *Query) (*Result, error) {
	rows, err := e.Stream(q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := &Result{
		ID:     rows.ID(),
		Schema: rows.Schema(),
		Rows:   []value.Row{},
	}
	for rows.Next() {
		result.Rows = append(result.Rows, rows.Row())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Query parses sql and returns a cursor over its result.
func (e *Executor) Query(sql string) (*Rows, error) {
	q, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	return e.Stream(q)
}

// Stream opens the query's source, infers its schema, checks every column
// reference and the predicate's types, and returns a cursor. No data row
// is decoded before all of those succeed. The caller must Close the cursor
// unless Next has returned false.
func (e *Executor) Stream(q *Query) (*Rows, error) {
	id := uuid.NewString()
	logger := e.logger.With("query_id", id, "source", q.Source)
	logger.Debug("query parsed", "query", q.String())

	src, err := e.open(q.Source)
	if err != nil {
		return nil, err
	}

	rows, err := e.prepare(q, src, id, logger)
	if err != nil {
		_ = src.Close()
		logger.Debug("query rejected", "error", err)
		return nil, err
	}
	return rows, nil
}

func (e *Executor) prepare(q *Query, src Source, id string, logger *slog.Logger) (*Rows, error) {
	if err := src.Infer(); err != nil {
		return nil, err
	}
	schema := src.Schema()
	logger.Debug("schema inferred", "schema", schema.String())

	var projection []int
	if q.Wildcard {
		projection = make([]int, schema.Len())
		for i := range projection {
			projection[i] = i
		}
	} else {
		projection = make([]int, len(q.Columns))
		for i, name := range q.Columns {
			idx, ok := schema.Index(name)
			if !ok {
				return nil, qerr.UnknownColumn(name, schema.Names())
			}
			projection[i] = idx
		}
	}

	pred, err := Compile(q.Filter, schema)
	if err != nil {
		return nil, err
	}

	limit := int64(-1)
	if q.Limit != nil {
		limit = *q.Limit
	}
	if e.maxRows > 0 && (limit < 0 || limit > e.maxRows) {
		limit = e.maxRows
	}
	var offset int64
	if q.Offset != nil {
		offset = *q.Offset
	}

	return &Rows{
		id:         id,
		src:        src,
		pred:       pred,
		projection: projection,
		schema:     schema.Project(projection),
		limit:      limit,
		offset:     offset,
		logger:     logger,
		started:    time.Now(),
	}, nil
}

// Rows is a cursor over a query result. Rows are produced lazily, one per
// Next call, in file order.
//
//	rows, err := exec.Query("SELECT id FROM 'orders.csv' WHERE amount > 10")
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    fmt.Println(rows.Row())
//	}
//	return rows.Err()
type Rows struct {
	id         string
	src        Source
	pred       Predicate
	projection []int
	schema     value.Schema

	limit   int64 // -1 for no limit
	offset  int64
	skipped int64
	emitted int64
	scanned int64

	row    value.Row
	err    error
	closed bool

	logger  *slog.Logger
	started time.Time
}

// ID identifies this execution in logs.
func (r *Rows) ID() string { return r.id }

// Schema returns the projected result schema.
func (r *Rows) Schema() value.Schema { return r.schema }

// Row returns the current result row.
func (r *Rows) Row() value.Row { return r.row }

// Err returns the error that ended iteration, if any.
func (r *Rows) Err() error { return r.err }

// Next advances to the next matching row. It returns false when the result
// is exhausted, the limit is reached or an error occurs; the source is
// closed in every case.
func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	if r.limit >= 0 && r.emitted >= r.limit {
		r.finish()
		return false
	}

	for r.src.Next() {
		r.scanned++
		row := r.src.Row()

		ok, err := r.pred.Eval(row)
		if err != nil {
			r.fail(err)
			return false
		}
		if !ok {
			continue
		}
		if r.skipped < r.offset {
			r.skipped++
			continue
		}

		out := make(value.Row, len(r.projection))
		for i, idx := range r.projection {
			out[i] = row[idx]
		}
		r.row = out
		r.emitted++
		return true
	}

	if err := r.src.Err(); err != nil {
		r.fail(err)
		return false
	}
	r.finish()
	return false
}

// Close releases the source. It is safe to call Close multiple times.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.row = nil
	return r.src.Close()
}

func (r *Rows) finish() {
	_ = r.Close()
	r.logger.Debug("query finished",
		"rows", r.emitted,
		"scanned", r.scanned,
		"duration", time.Since(r.started))
}

func (r *Rows) fail(err error) {
	r.err = err
	_ = r.Close()
	r.logger.Debug("query failed",
		"error", err,
		"rows", r.emitted,
		"scanned", r.scanned)
}
