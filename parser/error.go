package parser

import (
	"fmt"
	"github.com/pkg/errors"
)

// ParsingError tells where and why a query expression couldn't be parsed. The error returned by the parser carries the
// stack of where it was created, use %+v to print it.
type ParsingError struct {
	Message  string    `json:"message"`
	Position int       `json:"position"`
	Lexeme   string    `json:"lexeme,omitempty"`
	Kind     TokenKind `json:"kind,omitempty"`
	Expected string    `json:"expected,omitempty"`
	cause    error
}

func (e *ParsingError) Error() string {
	return e.Message
}

func (e *ParsingError) Unwrap() error {
	return e.cause
}

func newParsingError(e *ParsingError, format string, args ...any) error {
	e.Message = "Parsing error: " + fmt.Sprintf(format, args...)
	return errors.WithStack(e)
}

// errorExpectedButFound creates the usual "Expected foo but found bar" error.
func errorExpectedButFound(expected string, found *Token) error {
	return newParsingError(
		&ParsingError{Position: found.startPosition, Lexeme: found.lexeme, Kind: found.kind, Expected: expected},
		"Expected %s at position %d but found '%s' of kind %s.", expected, found.startPosition, found.lexeme, found.kind,
	)
}

func errorExpectedKind(expected TokenKind, found *Token) error {
	return errorExpectedButFound(expected.Describe(), found)
}

// errorQueryEnded is used when there are no tokens left but the parser expected something.
func errorQueryEnded(position int, expected string) error {
	return newParsingError(
		&ParsingError{Position: position, Expected: expected},
		"Query ended at position %d, expected %s.", position, expected,
	)
}

// errorInvalidValue is used for tokens of the right kind whose value can't be used, e.g. an invalid date.
func errorInvalidValue(token *Token, cause error) error {
	return newParsingError(
		&ParsingError{Position: token.startPosition, Lexeme: token.lexeme, Kind: token.kind, cause: cause},
		"Invalid value '%s' at position %d: %s", token.lexeme, token.startPosition, cause.Error(),
	)
}

func errorDuplicateExpression(token *Token) error {
	return newParsingError(
		&ParsingError{Position: token.startPosition, Lexeme: token.lexeme, Kind: token.kind},
		"Expression '%s' at position %d occurs more than once", token.lexeme, token.startPosition,
	)
}
