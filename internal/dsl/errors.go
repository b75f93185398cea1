package dsl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure raised anywhere in the pipeline.
type ErrorKind string

const (
	LexError            ErrorKind = "LexError"
	ParseError          ErrorKind = "ParseError"
	TypeError           ErrorKind = "TypeError"
	DivisionByZero      ErrorKind = "DivisionByZero"
	DomainError         ErrorKind = "DomainError"
	ArgumentError       ErrorKind = "ArgumentError"
	UnknownSymbol       ErrorKind = "UnknownSymbol"
	DuplicateAssignment ErrorKind = "DuplicateAssignment"
)

// Error is the single error type produced by the lexer, parser and evaluator.
// Pos points at the offending token or the start of the failing expression.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Msg)
}

func newError(kind ErrorKind, pos Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsAuthoringError reports whether err is a malformed-source error (lex or
// parse) as opposed to a failure that only surfaced while evaluating.
func IsAuthoringError(err error) bool {
	return IsKind(err, LexError) || IsKind(err, ParseError)
}
