package query

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

// Parser parses queries into AST
type Parser struct {
	tokens []Token
	pos    int
	depth  nesting
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		end := 0
		if len(p.tokens) > 0 {
			end = p.tokens[len(p.tokens)-1].Pos
		}
		return Token{Type: TokenEOF, Pos: end}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// errorf builds a ParseError at the current token.
func (p *Parser) errorf(format string, args ...any) error {
	tok := p.current()
	if tok.Type == TokenError {
		return lexError(tok)
	}
	return qerr.Parse(tok.Pos, tok.Value, format, args...)
}

// unexpected reports the current token when something else was required.
func (p *Parser) unexpected(want string) error {
	tok := p.current()
	if tok.Type == TokenEOF {
		return p.errorf("expected %s, got end of query", want)
	}
	return p.errorf("expected %s, got %s %q", want, tok.Type, tok.Value)
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return p.unexpected(tokType.String())
	}
	p.advance()
	return nil
}

// lexError describes a token the lexer could not recognise.
func lexError(tok Token) error {
	switch {
	case !utf8.ValidString(tok.Value):
		return qerr.Parse(tok.Pos, tok.Value, "invalid UTF-8 byte 0x%02x", tok.Value[0])
	case strings.HasPrefix(tok.Value, "'"):
		return qerr.Parse(tok.Pos, tok.Value, "unterminated string literal")
	case strings.HasPrefix(tok.Value, `"`):
		return qerr.Parse(tok.Pos, tok.Value, "unterminated quoted identifier")
	case tok.Value != "" && (isDigit(rune(tok.Value[0])) || tok.Value[0] == '-'):
		return qerr.Parse(tok.Pos, tok.Value, "malformed number %q", tok.Value)
	default:
		return qerr.Parse(tok.Pos, tok.Value, "invalid character %q", tok.Value)
	}
}

// Parse parses a query of the form
//
//	SELECT * | col [, col ...] FROM 'path' [WHERE expr] [LIMIT n [OFFSET m]]
//
// Keywords are case-insensitive. Any failure is a ParseError carrying the
// byte offset of the offending token.
func Parse(query string) (*Query, error) {
	if err := checkQueryLength(query); err != nil {
		return nil, err
	}

	tokens := Tokenize(query)

	if err := checkTokenCount(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	q, err := parser.parseQuery()
	if err != nil {
		return nil, err
	}

	if parser.current().Type == TokenSemicolon {
		parser.advance()
	}

	// Validate that we consumed all tokens (should be at EOF)
	if parser.current().Type != TokenEOF {
		return nil, parser.errorf("unexpected trailing %s %q after query", parser.current().Type, parser.current().Value)
	}

	return q, nil
}

// parseQuery parses: SELECT projection FROM path [WHERE expr] [LIMIT n [OFFSET m]]
func (p *Parser) parseQuery() (*Query, error) {
	if p.current().Type != TokenSelect {
		return nil, p.unexpected("SELECT")
	}
	p.advance()

	q := &Query{}
	if err := p.parseProjection(q); err != nil {
		return nil, err
	}

	if err := p.expect(TokenFrom); err != nil {
		return nil, err
	}

	source := p.current()
	if source.Type != TokenString && source.Type != TokenQuotedIdent {
		return nil, p.unexpected("quoted file path after FROM")
	}
	if err := checkSourcePath(source); err != nil {
		return nil, err
	}
	q.Source = source.Value
	p.advance()

	// Parse WHERE clause (optional)
	if p.current().Type == TokenWhere {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q.Filter = expr
	}

	// Parse LIMIT and OFFSET (optional)
	if p.current().Type == TokenLimit {
		limit, err := p.parseCount(TokenLimit)
		if err != nil {
			return nil, err
		}
		q.Limit = limit
	}
	if p.current().Type == TokenOffset {
		offset, err := p.parseCount(TokenOffset)
		if err != nil {
			return nil, err
		}
		q.Offset = offset
	}

	return q, nil
}

// parseProjection parses '*' or a comma separated column list
func (p *Parser) parseProjection(q *Query) error {
	if p.current().Type == TokenStar {
		q.Wildcard = true
		p.advance()
		return nil
	}

	for {
		tok := p.current()
		if tok.Type != TokenIdent && tok.Type != TokenQuotedIdent {
			return p.unexpected("column name or *")
		}
		if err := checkColumnName(tok); err != nil {
			return err
		}
		q.Columns = append(q.Columns, tok.Value)
		p.advance()

		if p.current().Type != TokenComma {
			return nil
		}
		p.advance()
	}
}

// parseCount parses LIMIT n or OFFSET n
func (p *Parser) parseCount(keyword TokenType) (*int64, error) {
	if err := p.expect(keyword); err != nil {
		return nil, err
	}

	tok := p.current()
	if tok.Type != TokenNumber {
		return nil, p.unexpected("number after " + keyword.String())
	}

	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return nil, qerr.Parse(tok.Pos, tok.Value, "invalid %s value %q", keyword, tok.Value)
	}
	if n < 0 {
		return nil, qerr.Parse(tok.Pos, tok.Value, "%s must be non-negative, got %d", keyword, n)
	}

	p.advance()
	return &n, nil
}

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expression, error) {
	if err := p.depth.push(p.current().Pos); err != nil {
		return nil, err
	}
	defer p.depth.pop()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: TokenOr,
			Right:    right,
		}
	}

	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: TokenAnd,
			Right:    right,
		}
	}

	return left, nil
}

// parseNot parses NOT prefixes (higher precedence than AND)
func (p *Parser) parseNot() (Expression, error) {
	if p.current().Type != TokenNot {
		return p.parsePrimary()
	}

	if err := p.depth.push(p.current().Pos); err != nil {
		return nil, err
	}
	defer p.depth.pop()

	p.advance()
	expr, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &NotExpr{Expr: expr}, nil
}

// parsePrimary parses a parenthesized expression, a comparison or IS [NOT] NULL
func (p *Parser) parsePrimary() (Expression, error) {
	if p.current().Type == TokenLeftParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil
	}

	start := p.current().Pos
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.current().Type == TokenIs {
		return p.parseIsNull(left)
	}

	op := p.current()
	if !op.Type.isComparison() {
		return nil, p.unexpected("comparison operator")
	}
	p.advance()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return &ComparisonExpr{
		Left:     left,
		Operator: op.Type,
		Right:    right,
		Pos:      start,
	}, nil
}

// parseIsNull parses the tail of: column IS [NOT] NULL
func (p *Parser) parseIsNull(left Operand) (Expression, error) {
	col, ok := left.(*ColumnRef)
	if !ok {
		return nil, p.errorf("IS NULL requires a column, got %s", left)
	}
	p.advance() // IS

	negated := false
	if p.current().Type == TokenNot {
		negated = true
		p.advance()
	}
	if err := p.expect(TokenNull); err != nil {
		return nil, err
	}
	return &IsNullExpr{Column: col, Negated: negated}, nil
}

// parseOperand parses a column reference or a literal
func (p *Parser) parseOperand() (Operand, error) {
	tok := p.current()

	switch tok.Type {
	case TokenIdent, TokenQuotedIdent:
		if err := checkColumnName(tok); err != nil {
			return nil, err
		}
		p.advance()
		return &ColumnRef{Name: tok.Value, Pos: tok.Pos}, nil

	case TokenString:
		p.advance()
		return &Literal{Value: value.Str(tok.Value), Pos: tok.Pos}, nil

	case TokenNumber:
		v, err := parseNumber(tok)
		if err != nil {
			return nil, err
		}
		p.advance()
		return &Literal{Value: v, Pos: tok.Pos}, nil

	case TokenBool:
		p.advance()
		return &Literal{Value: value.Bool(strings.EqualFold(tok.Value, "true")), Pos: tok.Pos}, nil

	case TokenNull:
		return nil, p.errorf("NULL cannot be compared, use IS NULL or IS NOT NULL")

	default:
		return nil, p.unexpected("column name or literal")
	}
}

// parseNumber types a numeric literal: Int64 unless it has a fraction or
// an exponent.
func parseNumber(tok Token) (value.Value, error) {
	if strings.ContainsAny(tok.Value, ".eE") {
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return value.Null(), qerr.Parse(tok.Pos, tok.Value, "number %s out of range", tok.Value)
		}
		return value.Float(f), nil
	}

	i, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return value.Null(), qerr.Parse(tok.Pos, tok.Value, "integer %s out of range", tok.Value)
	}
	return value.Int(i), nil
}
