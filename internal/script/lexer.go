package script

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenType is the kind of a lexical token. Words are always IDENT; the
// parser decides which idents act as keywords, so property names like
// "value" or "class" stay usable.
type TokenType int

const (
	EOF TokenType = iota
	IDENT
	NUMBER
	STRING

	LBRACE
	RBRACE
	LPAREN
	RPAREN
	COMMA
	COLON
	DOT

	PLUS
	MINUS
	STAR
	SLASH
	CARET
	EQUALS
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of input"
	case IDENT:
		return "identifier"
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case LBRACE:
		return "'{'"
	case RBRACE:
		return "'}'"
	case LPAREN:
		return "'('"
	case RPAREN:
		return "')'"
	case COMMA:
		return "','"
	case COLON:
		return "':'"
	case DOT:
		return "'.'"
	case PLUS:
		return "'+'"
	case MINUS:
		return "'-'"
	case STAR:
		return "'*'"
	case SLASH:
		return "'/'"
	case CARET:
		return "'^'"
	case EQUALS:
		return "'='"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token is one lexical token. Line and Col are 1-based. NUMBER tokens carry
// their exact value and whether the literal ended in "...", the spelling for
// a truncated constant.
type Token struct {
	Type   TokenType
	Lexeme string
	Text   string   // STRING: decoded body
	Value  *big.Rat // NUMBER only
	Trunc  bool     // NUMBER only
	Line   int
	Col    int
}

// LexError is a scanning failure at a source position.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer scans a script source string into tokens.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Lex scans the whole source, returning the token stream terminated by EOF.
func Lex(src string) ([]Token, error) {
	return NewLexer(src).All()
}

// All scans every remaining token.
func (l *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.scan()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipSpace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekN(1) != '/' {
				return
			}
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

func (l *Lexer) token(t TokenType, start, line, col int) Token {
	return Token{Type: t, Lexeme: l.src[start:l.pos], Line: line, Col: col}
}

func (l *Lexer) scan() (Token, error) {
	l.skipSpace()
	line, col, start := l.line, l.col, l.pos
	if l.atEnd() {
		return Token{Type: EOF, Line: line, Col: col}, nil
	}

	ch := l.peek()
	switch {
	case isDigit(ch):
		return l.scanNumber(start, line, col)
	case isAlpha(ch):
		for !l.atEnd() && isAlphaNum(l.peek()) {
			l.advance()
		}
		return l.token(IDENT, start, line, col), nil
	case ch == '"':
		return l.scanString(start, line, col)
	}

	l.advance()
	var t TokenType
	switch ch {
	case '{':
		t = LBRACE
	case '}':
		t = RBRACE
	case '(':
		t = LPAREN
	case ')':
		t = RPAREN
	case ',':
		t = COMMA
	case ':':
		t = COLON
	case '.':
		t = DOT
	case '+':
		t = PLUS
	case '-':
		t = MINUS
	case '*':
		t = STAR
	case '/':
		t = SLASH
	case '^':
		t = CARET
	case '=':
		t = EQUALS
	default:
		return Token{}, &LexError{Line: line, Col: col, Msg: fmt.Sprintf("unexpected character %q", ch)}
	}
	return l.token(t, start, line, col), nil
}

// scanNumber consumes digits, an optional fraction, an optional exponent and
// an optional trailing "...". The value is an exact rational of the written
// digits; "..." only marks it as a truncation.
func (l *Lexer) scanNumber(start, line, col int) (Token, error) {
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		l.advance()
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			l.advance()
			l.advance()
			for !l.atEnd() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	trunc := false
	if l.peek() == '.' && l.peekN(1) == '.' && l.peekN(2) == '.' {
		trunc = true
		l.advance()
		l.advance()
		l.advance()
	}

	tok := l.token(NUMBER, start, line, col)
	tok.Trunc = trunc
	numText := strings.TrimSuffix(tok.Lexeme, "...")
	r, ok := new(big.Rat).SetString(numText)
	if !ok {
		return Token{}, &LexError{Line: line, Col: col, Msg: fmt.Sprintf("malformed number %q", tok.Lexeme)}
	}
	tok.Value = r
	return tok, nil
}

func (l *Lexer) scanString(start, line, col int) (Token, error) {
	l.advance()
	var b strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			return Token{}, &LexError{Line: line, Col: col, Msg: "unterminated string"}
		}
		ch := l.advance()
		if ch == '"' {
			tok := l.token(STRING, start, line, col)
			tok.Text = b.String()
			return tok, nil
		}
		if ch == '\\' {
			if l.atEnd() {
				return Token{}, l.err("unfinished escape sequence")
			}
			switch esc := l.advance(); esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return Token{}, l.err(fmt.Sprintf("unknown escape \\%c", esc))
			}
			continue
		}
		b.WriteByte(ch)
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isAlphaNum(b byte) bool { return isAlpha(b) || isDigit(b) }
