package dsl

import (
	"strconv"
)

// Lexer converts DSL source into tokens. It is a pure function of its input;
// create a new Lexer to rescan.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 1-based column of cur
	tokens []Token

	tokStart Position
}

// NewLexer creates a lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:    src,
		tokens: make([]Token, 0, len(src)/2+1),
		line:   1,
		col:    1,
	}
}

// Tokenize scans src and returns the full token slice ending with TokenEOF.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Scan()
}

// Scan tokenizes the entire source. The returned slice always ends with EOF;
// on malformed input it returns a *Error of kind LexError.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return l.tokens, nil
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekNext() byte {
	if l.cur+1 >= len(l.src) {
		return 0
	}
	return l.src[l.cur+1]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) match(expected byte) bool {
	if l.peek() != expected || l.isAtEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) addToken(tt TokenType) Token {
	tok := Token{
		Type:   tt,
		Lexeme: l.src[l.start:l.cur],
		Pos:    l.tokStart,
	}
	l.tokens = append(l.tokens, tok)
	return tok
}

func (l *Lexer) previous() *Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) err(format string, args ...interface{}) error {
	return newError(LexError, l.tokStart, format, args...)
}

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespace()
	l.start = l.cur
	l.tokStart = Position{Offset: l.cur, Line: l.line, Col: l.col}

	if l.isAtEnd() {
		return l.addToken(TokenEOF), nil
	}

	ch := l.advance()
	switch ch {
	case '\n':
		return l.addToken(TokenNewline), nil
	case '(':
		return l.addToken(TokenLParen), nil
	case ')':
		return l.addToken(TokenRParen), nil
	case ',':
		return l.addToken(TokenComma), nil
	case '+':
		return l.addToken(TokenPlus), nil
	case '*':
		return l.addToken(TokenStar), nil
	case '/':
		return l.addToken(TokenSlash), nil
	case '%':
		return l.addToken(TokenPercent), nil
	case '-':
		if isDigit(l.peek()) && !l.afterOperand() {
			return l.scanNumber()
		}
		return l.addToken(TokenMinus), nil
	case '=':
		if l.match('=') {
			return l.addToken(TokenEq), nil
		}
		return l.addToken(TokenAssign), nil
	case '!':
		if l.match('=') {
			return l.addToken(TokenNeq), nil
		}
		return l.addToken(TokenNot), nil
	case '<':
		if l.match('=') {
			return l.addToken(TokenLte), nil
		}
		return l.addToken(TokenLt), nil
	case '>':
		if l.match('=') {
			return l.addToken(TokenGte), nil
		}
		return l.addToken(TokenGt), nil
	case '&':
		if l.match('&') {
			return l.addToken(TokenAnd), nil
		}
		return Token{}, l.err("unexpected character '&' (did you mean '&&'?)")
	case '|':
		if l.match('|') {
			return l.addToken(TokenOr), nil
		}
		return Token{}, l.err("unexpected character '|' (did you mean '||'?)")
	case '"', '\'':
		return l.scanString(ch)
	}

	switch {
	case isDigit(ch):
		return l.scanNumber()
	case isAlpha(ch):
		return l.scanIdentifier(), nil
	}
	return Token{}, l.err("unexpected character %q", rune(ch))
}

// afterOperand reports whether the previous token can end an operand, in
// which case a '-' is the binary operator rather than a literal sign.
func (l *Lexer) afterOperand() bool {
	p := l.previous()
	if p == nil {
		return false
	}
	switch p.Type {
	case TokenNumber, TokenString, TokenIdent, TokenTrue, TokenFalse, TokenRParen:
		return true
	}
	return false
}

func (l *Lexer) scanNumber() (Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := l.src[l.start:l.cur]
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{}, l.err("invalid number %q", lexeme)
	}
	tok := l.addToken(TokenNumber)
	tok.Number = v
	l.tokens[len(l.tokens)-1] = tok
	return tok, nil
}

func (l *Lexer) scanString(quote byte) (Token, error) {
	for !l.isAtEnd() && l.peek() != quote {
		l.advance()
	}
	if l.isAtEnd() {
		return Token{}, l.err("unterminated string")
	}
	l.advance() // closing quote
	tok := l.addToken(TokenString)
	tok.Text = l.src[l.start+1 : l.cur-1]
	l.tokens[len(l.tokens)-1] = tok
	return tok, nil
}

func (l *Lexer) scanIdentifier() Token {
	for isAlphaNum(l.peek()) {
		l.advance()
	}
	if tt, ok := keywords[l.src[l.start:l.cur]]; ok {
		return l.addToken(tt)
	}
	return l.addToken(TokenIdent)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}
