package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	eof     = -1
	badByte = -2 // a byte that does not start valid UTF-8
)

// Lexer tokenizes query strings
type Lexer struct {
	input string
	pos   int // offset of ch
	next  int // offset after ch
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = eof
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	if r == utf8.RuneError && w == 1 {
		r = badByte
	}
	l.ch = r
	l.next += w
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	if r == utf8.RuneError && w == 1 {
		return badByte
	}
	return r
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// readQuoted reads text up to the closing quote. A doubled quote stands for
// one quote character. ok is false if the input ends first or an invalid
// byte is met; l.ch tells which.
func (l *Lexer) readQuoted(quote rune) (text string, ok bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for {
		switch l.ch {
		case eof, badByte:
			return result.String(), false
		case quote:
			if l.peekChar() != quote {
				l.readChar() // skip closing quote
				return result.String(), true
			}
			l.readChar()
		}
		result.WriteRune(l.ch)
		l.readChar()
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// readNumber reads [-]digits[.digits][(e|E)[+|-]digits].
// ok is false if an exponent has no digits.
func (l *Lexer) readNumber() (text string, ok bool) {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return l.input[start:l.pos], false
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos], true
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case eof:
		tok.Type = TokenEOF
	case badByte:
		tok.Type, tok.Value = TokenError, l.input[l.pos:l.next]
		l.readChar()
	case '=':
		tok.Type, tok.Value = TokenEqual, "="
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Value = TokenNotEqual, "!="
		} else {
			tok.Type, tok.Value = TokenError, "!"
		}
		l.readChar()
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type, tok.Value = TokenLessEqual, "<="
		case '>':
			l.readChar()
			tok.Type, tok.Value = TokenNotEqual, "<>"
		default:
			tok.Type, tok.Value = TokenLess, "<"
		}
		l.readChar()
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Value = TokenGreaterEqual, ">="
		} else {
			tok.Type, tok.Value = TokenGreater, ">"
		}
		l.readChar()
	case '\'', '"':
		quote := l.ch
		text, ok := l.readQuoted(quote)
		switch {
		case !ok && l.ch == badByte:
			tok.Pos, tok.Type, tok.Value = l.pos, TokenError, l.input[l.pos:l.next]
		case !ok:
			tok.Type, tok.Value = TokenError, l.input[tok.Pos:]
		case quote == '\'':
			tok.Type, tok.Value = TokenString, text
		default:
			tok.Type, tok.Value = TokenQuotedIdent, text
		}
	case '*':
		tok.Type, tok.Value = TokenStar, "*"
		l.readChar()
	case ',':
		tok.Type, tok.Value = TokenComma, ","
		l.readChar()
	case '(':
		tok.Type, tok.Value = TokenLeftParen, "("
		l.readChar()
	case ')':
		tok.Type, tok.Value = TokenRightParen, ")"
		l.readChar()
	case ';':
		tok.Type, tok.Value = TokenSemicolon, ";"
		l.readChar()
	default:
		switch {
		case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())):
			text, ok := l.readNumber()
			tok.Value = text
			if ok {
				tok.Type = TokenNumber
			} else {
				tok.Type = TokenError
			}
		case unicode.IsLetter(l.ch) || l.ch == '_':
			tok.Value = l.readIdentifier()
			tok.Type = identifierType(tok.Value)
		default:
			tok.Type, tok.Value = TokenError, string(l.ch)
			l.readChar()
		}
	}

	return tok
}

var keywords = map[string]TokenType{
	"select": TokenSelect,
	"from":   TokenFrom,
	"where":  TokenWhere,
	"and":    TokenAnd,
	"or":     TokenOr,
	"not":    TokenNot,
	"is":     TokenIs,
	"null":   TokenNull,
	"limit":  TokenLimit,
	"offset": TokenOffset,
	"true":   TokenBool,
	"false":  TokenBool,
}

// identifierType determines if an identifier is a keyword.
// Keywords match in any letter case.
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToLower(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input, ending with an EOF or error token
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
