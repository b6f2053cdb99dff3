package parser

import (
	"fmt"
)

type TokenKind int

const (
	TokenKindUnknown TokenKind = iota

	TokenKindIdentifier // Expression names like "bbox" and variable names
	TokenKindNumber
	TokenKindString
	TokenKindWildcard

	TokenKindDot

	TokenKindOpeningParenthesis
	TokenKindClosingParenthesis
)

type tokenKindInfo struct {
	name   string
	symbol string // Only set for tokens that always consist of the same character
}

var tokenKinds = map[TokenKind]tokenKindInfo{
	TokenKindUnknown:            {name: "unknown"},
	TokenKindIdentifier:         {name: "identifier"},
	TokenKindNumber:             {name: "number"},
	TokenKindString:             {name: "string"},
	TokenKindWildcard:           {name: "wildcard", symbol: "*"},
	TokenKindDot:                {name: "dot", symbol: "."},
	TokenKindOpeningParenthesis: {name: "opening parenthesis", symbol: "("},
	TokenKindClosingParenthesis: {name: "closing parenthesis", symbol: ")"},
}

func (k TokenKind) String() string {
	info, ok := tokenKinds[k]
	if !ok {
		return fmt.Sprintf("invalid token kind %d", int(k))
	}
	return info.name
}

// Describe returns the quoted symbol of fixed tokens like "'('" and the name of all other kinds.
func (k TokenKind) Describe() string {
	info, ok := tokenKinds[k]
	if ok && info.symbol != "" {
		return "'" + info.symbol + "'"
	}
	return k.String()
}

type Token struct {
	kind          TokenKind
	lexeme        string
	startPosition int
}

func (t *Token) endPosition() int {
	return t.startPosition + len(t.lexeme)
}
