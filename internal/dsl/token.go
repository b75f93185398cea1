// Package dsl implements the expression language authors use inside a
// question template's code field: a lexer, a precedence-climbing parser and a
// tree-walking evaluator over three dynamic value types, plus the {{name}}
// template renderer that substitutes evaluated symbols into question text.
package dsl

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF     TokenType = iota // end of source
	TokenNewline                  // statement separator

	// Literals and names
	TokenNumber // 12, 3.5, -4
	TokenString // "text" or 'text'
	TokenIdent  // identifier
	TokenTrue   // true
	TokenFalse  // false

	// Keywords
	TokenIf
	TokenThen
	TokenElse

	// Punctuation
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,

	// Operators
	TokenAssign  // =
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenEq      // ==
	TokenNeq     // !=
	TokenLt      // <
	TokenLte     // <=
	TokenGt      // >
	TokenGte     // >=
	TokenAnd     // &&
	TokenOr      // ||
	TokenNot     // !
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenNewline: "NEWLINE",
	TokenNumber:  "NUMBER",
	TokenString:  "STRING",
	TokenIdent:   "IDENT",
	TokenTrue:    "true",
	TokenFalse:   "false",
	TokenIf:      "if",
	TokenThen:    "then",
	TokenElse:    "else",
	TokenLParen:  "(",
	TokenRParen:  ")",
	TokenComma:   ",",
	TokenAssign:  "=",
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenSlash:   "/",
	TokenPercent: "%",
	TokenEq:      "==",
	TokenNeq:     "!=",
	TokenLt:      "<",
	TokenLte:     "<=",
	TokenGt:      ">",
	TokenGte:     ">=",
	TokenAnd:     "&&",
	TokenOr:      "||",
	TokenNot:     "!",
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"if":    TokenIf,
	"then":  TokenThen,
	"else":  TokenElse,
	"true":  TokenTrue,
	"false": TokenFalse,
}

// Position locates a token in the source. Line and Col are 1-based, Offset is
// the byte offset of the token start.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Col    int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexical unit.
type Token struct {
	Type   TokenType
	Lexeme string  // exact source slice, quotes included for strings
	Number float64 // decoded value for TokenNumber
	Text   string  // decoded value for TokenString (delimiters stripped)
	Pos    Position
}

func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "newline"
	default:
		return fmt.Sprintf("%q", t.Lexeme)
	}
}
