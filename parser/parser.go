package parser

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"slices"
	"strconv"
	"strings"
	"swotdb/query"
)

var (
	bboxExpression = "bbox"
	timeExpression = "time"
	varsExpression = "vars"

	locationExpressions = []string{bboxExpression}
	filterExpressions   = []string{timeExpression, varsExpression}
)

type Parser struct {
	token []*Token
	index int
}

// ParseQueryString turns an expression like
//
//	bbox(-10.5, 35, 5, 45).time("2023-05-01", *).vars(ssha_unfiltered, ssha_karin_2)
//
// into a query. The bbox arguments are in lon/lat order (lonMin, latMin, lonMax, latMax) as with every other bbox of
// this kind. The time and vars expressions are optional but may occur only once each.
func ParseQueryString(queryString string) (*query.Query, error) {
	runes := []rune(strings.Trim(queryString, "\n\r\t "))
	lexer := Lexer{
		input: runes,
		index: 0,
	}

	token, err := lexer.read()
	if err != nil {
		return nil, err
	}

	sigolo.Tracef("Found %d token", len(token))
	for _, t := range token {
		sigolo.Tracef("  kind=%d, pos=%d : %s", t.kind, t.startPosition, t.lexeme)
	}

	parser := Parser{
		token: token,
		index: 0,
	}
	return parser.parse()
}

func (p *Parser) moveToNextToken() *Token {
	p.index++
	sigolo.Debugb(1, "Moved to next token: %+v", p.currentToken())
	return p.currentToken()
}

func (p *Parser) peekNextToken() *Token {
	if p.index+1 >= len(p.token) {
		return nil
	}
	return p.token[p.index+1]
}

func (p *Parser) currentToken() *Token {
	if p.index >= len(p.token) {
		return nil
	}
	return p.token[p.index]
}

// lastPosition returns the position after the last token, used for errors when the token stream ended.
func (p *Parser) lastPosition() int {
	if len(p.token) == 0 {
		return 0
	}
	return p.token[len(p.token)-1].endPosition()
}

// expectNext moves to the next token and makes sure it is of the given kind.
func (p *Parser) expectNext(kind TokenKind) (*Token, error) {
	token := p.moveToNextToken()
	if token == nil {
		return nil, errorQueryEnded(p.lastPosition(), kind.Describe())
	}
	if token.kind != kind {
		return nil, errorExpectedKind(kind, token)
	}
	return token, nil
}

func (p *Parser) parse() (*query.Query, error) {
	token := p.currentToken()
	if token == nil {
		return nil, errorQueryEnded(0, "location expression (one of: "+strings.Join(locationExpressions, ", ")+")")
	}

	q, err := p.parseLocationExpression()
	if err != nil {
		return nil, err
	}

	var seenExpressions []string
	for p.peekNextToken() != nil {
		// Each further expression is separated by a '.'
		_, err = p.expectNext(TokenKindDot)
		if err != nil {
			return nil, err
		}

		token = p.moveToNextToken()
		if token == nil {
			return nil, errorQueryEnded(p.lastPosition(), "filter expression (one of: "+strings.Join(filterExpressions, ", ")+")")
		}
		if token.kind != TokenKindIdentifier || !slices.Contains(filterExpressions, token.lexeme) {
			return nil, errorExpectedButFound("filter expression (one of: "+strings.Join(filterExpressions, ", ")+")", token)
		}
		if slices.Contains(seenExpressions, token.lexeme) {
			return nil, errorDuplicateExpression(token)
		}
		seenExpressions = append(seenExpressions, token.lexeme)

		switch token.lexeme {
		case timeExpression:
			err = p.parseTimeExpression(q)
		case varsExpression:
			err = p.parseVarsExpression(q)
		}
		if err != nil {
			return nil, err
		}
	}

	sigolo.Debugf("Parsed query: %s", q.String())
	return q, nil
}

func (p *Parser) parseLocationExpression() (*query.Query, error) {
	token := p.currentToken()
	if token.kind != TokenKindIdentifier || !slices.Contains(locationExpressions, token.lexeme) {
		return nil, errorExpectedButFound("location expression (one of: "+strings.Join(locationExpressions, ", ")+")", token)
	}

	// Only "bbox" exists so far
	return p.parseBboxLocationExpression()
}

func (p *Parser) parseBboxLocationExpression() (*query.Query, error) {
	_, err := p.expectNext(TokenKindOpeningParenthesis)
	if err != nil {
		return nil, err
	}

	// Expect four numbers for the BBOX
	var coordinates = [4]float64{}
	for i := 0; i < 4; i++ {
		token, err := p.expectNext(TokenKindNumber)
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(token.lexeme, 64)
		if err != nil {
			return nil, errorInvalidValue(token, err)
		}
		coordinates[i] = value
	}

	_, err = p.expectNext(TokenKindClosingParenthesis)
	if err != nil {
		return nil, err
	}

	lonMin, latMin, lonMax, latMax := coordinates[0], coordinates[1], coordinates[2], coordinates[3]
	return query.NewQuery(latMin, latMax, lonMin, lonMax), nil
}

// parseTimeExpression parses the arguments of 'time("start", "end")' where each value might be '*' for an unbounded
// range.
func (p *Parser) parseTimeExpression(q *query.Query) error {
	_, err := p.expectNext(TokenKindOpeningParenthesis)
	if err != nil {
		return err
	}

	var times = [2]string{}
	for i := 0; i < 2; i++ {
		token := p.moveToNextToken()
		if token == nil {
			return errorQueryEnded(p.lastPosition(), "time value or '*'")
		}

		switch token.kind {
		case TokenKindWildcard:
			times[i] = "*"
		case TokenKindString:
			times[i] = token.lexeme
			if strings.TrimSpace(times[i]) == "*" {
				return errorInvalidValue(token, errors.New("Use * without quotes for an unbounded time"))
			}
			_, err = query.ParseTime(times[i])
			if err != nil {
				return errorInvalidValue(token, err)
			}
		default:
			return errorExpectedButFound("time value or '*'", token)
		}
	}

	_, err = p.expectNext(TokenKindClosingParenthesis)
	if err != nil {
		return err
	}

	// Errors were handled above.
	start, _ := query.ParseTime(times[0])
	end, _ := query.ParseTime(times[1])
	q.WithTimeRange(start, end)
	return nil
}

// parseVarsExpression parses 'vars(a, b, ...)' where the variable names are identifiers or strings.
func (p *Parser) parseVarsExpression(q *query.Query) error {
	_, err := p.expectNext(TokenKindOpeningParenthesis)
	if err != nil {
		return err
	}

	var variables []string
	for {
		token := p.moveToNextToken()
		if token == nil {
			return errorQueryEnded(p.lastPosition(), "variable name or ')'")
		}

		if token.kind == TokenKindClosingParenthesis {
			break
		}
		if token.kind != TokenKindIdentifier && token.kind != TokenKindString {
			return errorExpectedButFound("variable name or ')'", token)
		}
		variables = append(variables, token.lexeme)
	}

	if len(variables) == 0 {
		closingToken := p.currentToken()
		return errorExpectedButFound("at least one variable name", closingToken)
	}

	q.WithVariables(variables...)
	return nil
}
