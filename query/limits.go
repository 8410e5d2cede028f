package query

import (
	"errors"

	"github.com/vegasq/csvcat/qerr"
)

// Size limits enforced by Parse. A query over any of them fails with a
// ParseError whose cause is the matching Err value below.
const (
	MaxQueryLength      = 1 << 20 // bytes
	MaxTokens           = 10000
	MaxExpressionDepth  = 100 // parentheses and NOT count alike
	MaxColumnNameLength = 256
	MaxSourcePathLength = 4096
)

var (
	ErrQueryTooLong      = errors.New("query too long")
	ErrTooManyTokens     = errors.New("too many tokens")
	ErrExpressionTooDeep = errors.New("expression nested too deeply")
	ErrColumnNameTooLong = errors.New("column name too long")
	ErrSourcePathTooLong = errors.New("source path too long")
	ErrEmptySourcePath   = errors.New("source path cannot be empty")
)

func overLimit(pos int, cause error, got, max int, unit string) error {
	e := qerr.Parse(pos, "", "%d %s, at most %d allowed", got, unit, max)
	e.Cause = cause
	return e
}

func checkQueryLength(query string) error {
	if len(query) > MaxQueryLength {
		return overLimit(-1, ErrQueryTooLong, len(query), MaxQueryLength, "bytes")
	}
	return nil
}

func checkTokenCount(tokens []Token) error {
	if len(tokens) > MaxTokens {
		return overLimit(-1, ErrTooManyTokens, len(tokens), MaxTokens, "tokens")
	}
	return nil
}

func checkSourcePath(tok Token) error {
	if tok.Value == "" {
		e := qerr.Parse(tok.Pos, "''", "invalid FROM")
		e.Cause = ErrEmptySourcePath
		return e
	}
	if len(tok.Value) > MaxSourcePathLength {
		return overLimit(tok.Pos, ErrSourcePathTooLong, len(tok.Value), MaxSourcePathLength, "bytes of path")
	}
	return nil
}

func checkColumnName(tok Token) error {
	if len(tok.Value) > MaxColumnNameLength {
		return overLimit(tok.Pos, ErrColumnNameTooLong, len(tok.Value), MaxColumnNameLength, "bytes of column name")
	}
	return nil
}

// nesting counts how deep the expression parser has recursed.
type nesting int

func (n *nesting) push(pos int) error {
	*n++
	if int(*n) > MaxExpressionDepth {
		return overLimit(pos, ErrExpressionTooDeep, int(*n), MaxExpressionDepth, "levels")
	}
	return nil
}

func (n *nesting) pop() { *n-- }
