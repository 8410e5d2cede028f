package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/csvcat/value"
)

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenIs
	TokenNull
	TokenLimit
	TokenOffset
	TokenBool

	// Operators
	TokenEqual        // =
	TokenNotEqual     // <> or !=
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=

	// Literals
	TokenString      // 'text'
	TokenNumber      // 42, -1.5, 1e3
	TokenIdent       // name
	TokenQuotedIdent // "name with spaces"

	// Delimiters
	TokenStar       // *
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
	TokenSemicolon  // ;

	// Special
	TokenEOF
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenSelect:       "SELECT",
	TokenFrom:         "FROM",
	TokenWhere:        "WHERE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenIs:           "IS",
	TokenNull:         "NULL",
	TokenLimit:        "LIMIT",
	TokenOffset:       "OFFSET",
	TokenBool:         "boolean",
	TokenEqual:        "=",
	TokenNotEqual:     "<>",
	TokenLess:         "<",
	TokenGreater:      ">",
	TokenLessEqual:    "<=",
	TokenGreaterEqual: ">=",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenIdent:        "identifier",
	TokenQuotedIdent:  "quoted identifier",
	TokenStar:         "*",
	TokenComma:        ",",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenSemicolon:    ";",
	TokenEOF:          "end of query",
	TokenError:        "invalid token",
}

// String returns a human readable token type name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// isComparison reports whether t is a comparison operator.
func (t TokenType) isComparison() bool {
	switch t {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		return true
	default:
		return false
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset in the query
}

// Query represents a parsed query. It is not modified after Parse returns.
type Query struct {
	Columns  []string // projected columns in requested order; empty with Wildcard
	Wildcard bool     // SELECT *
	Source   string   // file path from FROM
	Filter   Expression
	Limit    *int64
	Offset   *int64
}

// String renders the query back to its canonical text.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Wildcard {
		b.WriteString("*")
	} else {
		for i, c := range q.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteIdent(c))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteString(q.Source))
	if q.Filter != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Filter.String())
	}
	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.Limit)
	}
	if q.Offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *q.Offset)
	}
	return b.String()
}

// Expression represents a node of a WHERE clause
type Expression interface {
	String() string
	expression()
}

// BinaryExpr joins two expressions with AND or OR
type BinaryExpr struct {
	Left     Expression
	Operator TokenType // TokenAnd or TokenOr
	Right    Expression
}

func (e *BinaryExpr) expression() {}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator.String() + " " + e.Right.String() + ")"
}

// NotExpr negates an expression
type NotExpr struct {
	Expr Expression
}

func (e *NotExpr) expression() {}

func (e *NotExpr) String() string {
	return "NOT " + e.Expr.String()
}

// ComparisonExpr compares two operands
type ComparisonExpr struct {
	Left     Operand
	Operator TokenType
	Right    Operand
	Pos      int
}

func (e *ComparisonExpr) expression() {}

func (e *ComparisonExpr) String() string {
	return e.Left.String() + " " + e.Operator.String() + " " + e.Right.String()
}

// IsNullExpr tests a column for Null
type IsNullExpr struct {
	Column  *ColumnRef
	Negated bool // IS NOT NULL
}

func (e *IsNullExpr) expression() {}

func (e *IsNullExpr) String() string {
	if e.Negated {
		return e.Column.String() + " IS NOT NULL"
	}
	return e.Column.String() + " IS NULL"
}

// Operand is one side of a comparison
type Operand interface {
	String() string
	operand()
}

// ColumnRef names a column of the source
type ColumnRef struct {
	Name string
	Pos  int
}

func (c *ColumnRef) operand() {}

func (c *ColumnRef) String() string { return quoteIdent(c.Name) }

// Literal is a constant operand. Value is Int64 or Float64 for numbers,
// String for quoted text and Boolean for TRUE and FALSE.
type Literal struct {
	Value value.Value
	Pos   int
}

func (l *Literal) operand() {}

func (l *Literal) String() string {
	if l.Value.Kind() == value.KindString {
		return quoteString(l.Value.AsString())
	}
	if l.Value.Kind() == value.KindBoolean {
		return strings.ToUpper(l.Value.String())
	}
	if l.Value.Kind() == value.KindFloat64 {
		s := l.Value.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return l.Value.String()
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent leaves plain identifiers bare and double-quotes the rest.
func quoteIdent(name string) string {
	plain := name != ""
	for i, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')) {
			plain = false
			break
		}
	}
	if plain {
		if _, kw := keywords[strings.ToLower(name)]; !kw {
			return name
		}
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
