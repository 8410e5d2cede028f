package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vegasq/csvcat/output"
	"github.com/vegasq/csvcat/query"
)

const (
	prompt         = "csvcat> "
	continuePrompt = "   ...> "
)

const helpText = `meta commands:
  \q | quit | exit       quit
  \schema <file>         show the inferred schema of a CSV file
  \format [name]         show or set the output format (csv, json, jsonl, table, yaml)
  \help                  show help

sql:
  SELECT <cols> FROM '<file>' [WHERE <predicate>] [LIMIT n] [OFFSET n]
  a statement runs at the end of a line; an open quote continues it on the next line`

// session holds the interactive state between input lines.
type session struct {
	exec   *query.Executor
	format string
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	// interruptible derives the context of one statement. An interrupt
	// cancels that statement only.
	interruptible func(context.Context) (context.Context, context.CancelFunc)

	buf strings.Builder
}

func newSession(exec *query.Executor, format string, out, errOut io.Writer, logger *slog.Logger) *session {
	return &session{
		exec:          exec,
		format:        format,
		out:           out,
		errOut:        errOut,
		logger:        logger,
		interruptible: onInterrupt,
	}
}

func onInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// pending reports whether a statement is waiting for more input.
func (s *session) pending() bool { return s.buf.Len() > 0 }

// reset drops a partially entered statement.
func (s *session) reset() { s.buf.Reset() }

// handle processes one input line and reports whether the user asked to
// quit. Query failures are printed and the session continues.
func (s *session) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !s.pending() {
		if trimmed == "" {
			return false
		}
		if isMetaCommand(trimmed) {
			return s.meta(trimmed)
		}
	}

	if s.pending() {
		s.buf.WriteByte('\n')
	}
	s.buf.WriteString(line)
	if !statementComplete(s.buf.String()) {
		return false
	}

	stmt := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	if stmt == "" || stmt == ";" {
		return false
	}

	stmtCtx, stop := s.interruptible(ctx)
	defer stop()
	err := spooled(s.format, "", s.out, func(f output.Formatter) error {
		return runQuery(stmtCtx, s.exec, stmt, f)
	})
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
	return false
}

func (s *session) meta(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case `\q`, "quit", "exit":
		return true
	case `\help`, `\h`, `\?`:
		fmt.Fprintln(s.out, helpText)
	case `\format`:
		if arg == "" {
			fmt.Fprintf(s.out, "output format: %s\n", s.format)
			break
		}
		if strings.EqualFold(arg, "parquet") {
			fmt.Fprintln(s.errOut, "Error: parquet output is only available with -o")
			break
		}
		if _, err := output.New(arg, s.out); err != nil {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			break
		}
		s.format = strings.ToLower(arg)
		fmt.Fprintf(s.out, "output format: %s\n", s.format)
	case `\schema`:
		if arg == "" {
			fmt.Fprintln(s.errOut, `Error: usage: \schema <file>`)
			break
		}
		f, err := output.New(s.format, s.out)
		if err == nil {
			err = printSchema(f, strings.Trim(arg, `'"`))
		}
		if err != nil {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}
	default:
		fmt.Fprintf(s.errOut, "unknown command: %s (try \\help)\n", cmd)
	}
	return false
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, `\`) || line == "quit" || line == "exit"
}

// statementComplete reports whether buf has no open single- or
// double-quoted section. A doubled quote inside a quoted section toggles
// twice and so keeps it open.
func statementComplete(buf string) bool {
	var quote rune
	for _, r := range buf {
		switch {
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
		case r == quote:
			quote = 0
		}
	}
	return quote == 0
}

// runREPL reads statements with line editing and history until EOF or \q.
func runREPL(ctx context.Context, s *session, historyFile string, stdin io.Reader, stdout, stderr io.Writer) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "readline: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	s.logger.Debug("interactive session started", "history", historyFile, "format", s.format)
	fmt.Fprintln(stdout, `type \help for help`)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C clears the current statement
			if s.pending() {
				s.reset()
				rl.SetPrompt(prompt)
			}
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(stdout)
			return 0
		}

		if s.handle(ctx, line) {
			return 0
		}
		if s.pending() {
			rl.SetPrompt(continuePrompt)
		} else {
			rl.SetPrompt(prompt)
		}
	}
}
