package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vegasq/csvcat/internal/config"
	"github.com/vegasq/csvcat/internal/logging"
	"github.com/vegasq/csvcat/output"
	"github.com/vegasq/csvcat/query"
	"github.com/vegasq/csvcat/reader"
	"github.com/vegasq/csvcat/value"
)

const usageText = `Usage: csvcat [options] "SELECT ... FROM 'file.csv' [WHERE ...]"
       csvcat --schema <file.csv>
       csvcat -i

Query CSV files with a small SQL subset. Column types are inferred from the
first rows of each file.

Options:
`

const examplesText = `
Examples:
  csvcat "SELECT * FROM 'orders.csv'"
  csvcat -f table -q "SELECT id, amount FROM 'orders.csv' WHERE amount > 30"
  csvcat -f parquet -o out.parquet "SELECT * FROM 'orders.csv.gz' LIMIT 1000"
  csvcat --schema orders.csv
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole command; it returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("csvcat", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	queryFlag := fs.StringP("query", "q", "", "SQL query to run")
	schemaFlag := fs.Bool("schema", false, "print the inferred schema of the given file")
	interactive := fs.BoolP("interactive", "i", false, "start an interactive shell")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
		fmt.Fprint(stderr, examplesText)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Debug("configuration loaded", "format", cfg.Format, "limit", cfg.Limit, "output", cfg.Output)

	exec := query.NewExecutor(query.WithLogger(logger), query.WithMaxRows(cfg.Limit))

	sql := *queryFlag
	if sql == "" && !*schemaFlag {
		sql = strings.Join(fs.Args(), " ")
	}

	switch {
	case *schemaFlag && *queryFlag != "":
		fmt.Fprintln(stderr, "Error: --schema and -q cannot be used together")
		return 1
	case *schemaFlag:
		if fs.NArg() != 1 {
			fmt.Fprintf(stderr, "Error: --schema takes exactly one file argument\n\n")
			fs.Usage()
			return 1
		}
		err = withOutput(cfg, stdout, func(f output.Formatter) error {
			return printSchema(f, fs.Arg(0))
		})
	case *interactive:
		format := cfg.Format
		if !fs.Changed("format") {
			format = "table"
		}
		// The session scopes interrupts to one statement at a time.
		return runREPL(ctx, newSession(exec, format, stdout, stderr, logger), cfg.History, stdin, stdout, stderr)
	case strings.TrimSpace(sql) == "":
		fmt.Fprintf(stderr, "Error: missing query\n\n")
		fs.Usage()
		return 1
	default:
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		err = withOutput(cfg, stdout, func(f output.Formatter) error {
			return runQuery(ctx, exec, sql, f)
		})
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// withOutput builds the configured formatter on stdout or the -o file and
// hands it to fn. Output is spooled and only delivered when fn succeeds.
func withOutput(cfg *config.Config, stdout io.Writer, fn func(output.Formatter) error) error {
	if cfg.Output == "" && strings.EqualFold(cfg.Format, "parquet") {
		return errors.New("parquet output requires -o/--output")
	}
	return spooled(cfg.Format, cfg.Output, stdout, fn)
}

// spooled runs fn with a formatter writing to a spool for path, or for
// stdout when path is empty, and commits the spool on success.
func spooled(format, path string, stdout io.Writer, fn func(output.Formatter) error) error {
	sp, err := newSpool(path, stdout)
	if err != nil {
		return err
	}
	defer sp.discard()

	f, err := output.New(format, sp)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return sp.commit()
}

// runQuery runs sql and writes its result with f, stopping early when ctx
// is done. Formatters that implement output.RowWriter receive rows as they
// are produced; the others receive the collected result.
func runQuery(ctx context.Context, exec *query.Executor, sql string, f output.Formatter) error {
	rows, err := exec.Query(sql)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if w, ok := f.(output.RowWriter); ok {
		return streamRows(ctx, rows, w)
	}

	collected := []value.Row{}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		collected = append(collected, rows.Row())
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return f.Format(rows.Schema(), collected)
}

func streamRows(ctx context.Context, rows *query.Rows, w output.RowWriter) error {
	if err := w.Begin(rows.Schema()); err != nil {
		return err
	}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteRow(rows.Row()); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.End()
}

var schemaColumns = value.NewSchema(
	value.Column{Name: "name", Type: value.String},
	value.Column{Name: "type", Type: value.String},
	value.Column{Name: "sampled", Type: value.Int64},
	value.Column{Name: "empty", Type: value.Int64},
	value.Column{Name: "rejected", Type: value.String},
)

// printSchema formats the inference report of path as a result set.
func printSchema(f output.Formatter, path string) error {
	infos, err := reader.ExtractSchemaInfo(path)
	if err != nil {
		return err
	}

	rows := make([]value.Row, len(infos))
	for i, info := range infos {
		rows[i] = value.Row{
			value.Str(info.Name),
			value.Str(info.Type),
			value.Int(int64(info.Sampled)),
			value.Int(int64(info.Empty)),
			value.Str(strings.Join(info.Rejected, "; ")),
		}
	}
	return f.Format(schemaColumns, rows)
}
