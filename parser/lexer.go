package parser

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"unicode"
)

type Lexer struct {
	input []rune
	index int // Position in input.
}

func isIdentifierStartChar(char rune) bool {
	return char == '_' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

// Variable names like "ssh_karin_2" contain digits, but never at the beginning.
func isIdentifierChar(char rune) bool {
	return isIdentifierStartChar(char) || unicode.IsDigit(char)
}

func isNumberChar(char rune) bool {
	return unicode.IsDigit(char) || char == '.' || char == 'e' || char == 'E'
}

// char returns the rune at the current location or the rune '-1' if there is no next char.
func (l *Lexer) char() rune {
	if l.index >= len(l.input) {
		return -1
	}
	return l.input[l.index]
}

// nextChar returns the next rune, so the one after the rune char() returns, or the rune '-1' if there is no next char.
func (l *Lexer) nextChar() rune {
	if l.index+1 >= len(l.input) {
		return -1
	}
	return l.input[l.index+1]
}

// singleCharKinds maps the runes that form a token on their own to the kind of that token.
var singleCharKinds = map[rune]TokenKind{
	'(': TokenKindOpeningParenthesis,
	')': TokenKindClosingParenthesis,
	'*': TokenKindWildcard,
	'.': TokenKindDot,
}

func isSign(char rune) bool {
	return char == '-' || char == '+'
}

func (l *Lexer) read() ([]*Token, error) {
	var tokens []*Token
	for {
		l.skipSeparators()
		if l.index >= len(l.input) {
			return tokens, nil
		}

		if l.char() == '/' {
			err := l.skipComment()
			if err != nil {
				return nil, err
			}
			continue
		}

		token, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tracef("Found %s token at %d: %q", token.kind, token.startPosition, token.lexeme)
		tokens = append(tokens, token)
	}
}

// skipSeparators moves over whitespace and commas. Both only separate arguments and carry no meaning.
func (l *Lexer) skipSeparators() {
	for l.index < len(l.input) && (unicode.IsSpace(l.char()) || l.char() == ',') {
		l.index++
	}
}

// nextToken reads the token starting at the current index, which must not be a separator or comment.
func (l *Lexer) nextToken() (*Token, error) {
	char := l.char()
	l.tracef("Next token")

	switch {
	case char == '"':
		return l.currentString()
	case char == '.' && unicode.IsDigit(l.nextChar()):
		// Numbers like ".5"
		return l.currentNumber(), nil
	case isIdentifierStartChar(char):
		return l.currentIdentifier(), nil
	case unicode.IsDigit(char), isSign(char) && (unicode.IsDigit(l.nextChar()) || l.nextChar() == '.'):
		return l.currentNumber(), nil
	}

	if kind, ok := singleCharKinds[char]; ok {
		l.index++
		return l.tokenSince(kind, l.index-1), nil
	}

	return nil, errors.Errorf("Unexpected character '%c' at index %d", char, l.index)
}

// skipComment moves to the end of the line of a "//" comment starting at the current index.
func (l *Lexer) skipComment() error {
	if l.nextChar() != '/' {
		return errors.Errorf("Unexpected '%c' at index %d", l.char(), l.index)
	}
	l.tracef("Skip comment")

	for l.index < len(l.input) && l.char() != '\n' && l.char() != '\r' {
		l.index++
	}
	return nil
}

// isExponentSign checks if the current rune is the sign of an exponent like in "1e-3".
func (l *Lexer) isExponentSign() bool {
	if l.index == 0 || !isSign(l.char()) {
		return false
	}
	previous := l.input[l.index-1]
	return previous == 'e' || previous == 'E'
}

// tokenSince creates a token of the given kind from the input between startIndex and the current index.
func (l *Lexer) tokenSince(kind TokenKind, startIndex int) *Token {
	return &Token{
		kind:          kind,
		lexeme:        string(l.input[startIndex:l.index]),
		startPosition: startIndex,
	}
}

// currentIdentifier returns the identifier starting at the current index.
func (l *Lexer) currentIdentifier() *Token {
	startIndex := l.index
	for l.index < len(l.input) && isIdentifierChar(l.char()) {
		l.index++
	}
	return l.tokenSince(TokenKindIdentifier, startIndex)
}

// currentNumber returns the number starting at the current index. A leading sign belongs to the number and an
// exponent may have a sign as well. Malformed numbers like "1.2.3" are left to the parser.
func (l *Lexer) currentNumber() *Token {
	startIndex := l.index
	if isSign(l.char()) {
		l.index++
	}

	for l.index < len(l.input) && (isNumberChar(l.char()) || l.isExponentSign()) {
		l.index++
	}

	return l.tokenSince(TokenKindNumber, startIndex)
}

// currentString returns the string literal starting at the current '"'. The lexeme doesn't contain the quotes but the
// position is the one of the opening quote.
func (l *Lexer) currentString() (*Token, error) {
	startIndex := l.index

	closingIndex := -1
	for i := startIndex + 1; i < len(l.input); i++ {
		if l.input[i] == '"' {
			closingIndex = i
			break
		}
	}
	if closingIndex == -1 {
		return nil, errors.Errorf("Unterminated string starting at index %d", startIndex)
	}

	l.index = closingIndex + 1
	return &Token{
		kind:          TokenKindString,
		lexeme:        string(l.input[startIndex+1 : closingIndex]),
		startPosition: startIndex,
	}, nil
}

// tracef logs the message together with the lexer position. Nothing is formatted unless trace logging is enabled.
func (l *Lexer) tracef(format string, args ...any) {
	if sigolo.ShouldLogTrace() {
		sigolo.Traceb(1, "lexer@%d (%q): %s", l.index, l.char(), fmt.Sprintf(format, args...))
	}
}
