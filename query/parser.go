package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
)

const (
	spatialKeyword        = "spatial"
	temporalKeyword       = "temporal"
	spatiotemporalKeyword = "spatiotemporal"

	andKeyword = "AND"
	orKeyword  = "OR"
)

var windowExpressions = []string{spatialKeyword, temporalKeyword, spatiotemporalKeyword}

// Parser builds the expression tree of a query. The grammar is:
//
//	query       = or
//	or          = and { "OR" and }
//	and         = primary { "AND" primary }
//	primary     = window | "(" or ")"
//	window      = "spatial" "(" number{4} ")"
//	            | "temporal" "(" time{2} ")"
//	            | "spatiotemporal" "(" number{4} time{2} ")"
//	time        = number | string
type Parser struct {
	token []*Token
	index int // Index of the current, not yet consumed, token.
}

func ParseQueryString(queryString string) (*Query, error) {
	lexer := Lexer{
		input: []rune(queryString),
		index: 0,
	}

	token, err := lexer.read()
	if err != nil {
		return nil, err
	}

	if sigolo.ShouldLogTrace() {
		sigolo.Tracef("Found %d token", len(token))
		for _, t := range token {
			sigolo.Tracef("  kind=%s, pos=%d : %s", t.kind.String(), t.startPosition, t.lexeme)
		}
	}

	parser := Parser{
		token: token,
		index: 0,
	}
	return parser.parse()
}

func (p *Parser) currentToken() *Token {
	if p.index >= len(p.token) {
		return nil
	}
	return p.token[p.index]
}

func (p *Parser) moveToNextToken() *Token {
	p.index++
	return p.currentToken()
}

// getEndPosition returns the position right behind the last token.
func (p *Parser) getEndPosition() int {
	if len(p.token) == 0 {
		return 0
	}
	return p.token[len(p.token)-1].endPosition
}

func (p *Parser) isCurrentKeyword(keyword string) bool {
	token := p.currentToken()
	return token != nil && token.kind == TokenKindKeyword && token.lexeme == keyword
}

// consumeTokenKind consumes the current token when it has the given kind and returns an error otherwise.
func (p *Parser) consumeTokenKind(kind TokenKind) (*Token, error) {
	token := p.currentToken()
	if token == nil {
		return nil, ParsingTokenStreamEndAtPosition(p.getEndPosition(), fmt.Sprintf("'%s'", kind.Lexeme()))
	}
	if token.kind != kind {
		return nil, ParsingErrorExpectedTokenKind(token.startPosition, token.lexeme, token.kind, kind)
	}
	p.moveToNextToken()
	return token, nil
}

func (p *Parser) parse() (*Query, error) {
	if len(p.token) == 0 {
		return nil, ParsingTokenStreamEndAtPosition(0, "window expression")
	}

	expression, err := p.parseOrExpression()
	if err != nil {
		return nil, err
	}

	token := p.currentToken()
	if token != nil {
		return nil, ParsingErrorExpectedButFound("'AND', 'OR' or end of query", token.startPosition, token.lexeme, token.kind)
	}

	return NewQuery(expression), nil
}

func (p *Parser) parseOrExpression() (Expression, error) {
	expression, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}

	for p.isCurrentKeyword(orKeyword) {
		p.moveToNextToken()

		secondExpression, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}

		expression = NewLogicalExpression(expression, secondExpression, LogicOpOr)
	}

	return expression, nil
}

func (p *Parser) parseAndExpression() (Expression, error) {
	expression, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	for p.isCurrentKeyword(andKeyword) {
		p.moveToNextToken()

		secondExpression, err := p.parsePrimaryExpression()
		if err != nil {
			return nil, err
		}

		expression = NewLogicalExpression(expression, secondExpression, LogicOpAnd)
	}

	return expression, nil
}

func (p *Parser) parsePrimaryExpression() (Expression, error) {
	expectedMessage := fmt.Sprintf("window expression (one of: %s) or '('", strings.Join(windowExpressions, ", "))

	token := p.currentToken()
	if token == nil {
		return nil, ParsingTokenStreamEndAtPosition(p.getEndPosition(), expectedMessage)
	}

	switch token.kind {
	case TokenKindOpeningParenthesis:
		p.moveToNextToken()
		expression, err := p.parseOrExpression()
		if err != nil {
			return nil, err
		}

		_, err = p.consumeTokenKind(TokenKindClosingParenthesis)
		if err != nil {
			return nil, err
		}
		return expression, nil
	case TokenKindKeyword:
		switch token.lexeme {
		case spatialKeyword:
			return p.parseSpatialExpression()
		case temporalKeyword:
			return p.parseTemporalExpression()
		case spatiotemporalKeyword:
			return p.parseSpatiotemporalExpression()
		}
	}

	return nil, ParsingErrorExpectedButFound(expectedMessage, token.startPosition, token.lexeme, token.kind)
}

func (p *Parser) parseSpatialExpression() (Expression, error) {
	arguments, err := p.parseArguments(4)
	if err != nil {
		return nil, err
	}

	coordinates, err := p.parseCoordinates(arguments)
	if err != nil {
		return nil, err
	}

	return NewSpatialExpression(coordinates[0], coordinates[1], coordinates[2], coordinates[3]), nil
}

func (p *Parser) parseTemporalExpression() (Expression, error) {
	arguments, err := p.parseArguments(2)
	if err != nil {
		return nil, err
	}

	times, err := p.parseTimes(arguments)
	if err != nil {
		return nil, err
	}

	return NewTemporalExpression(times[0], times[1]), nil
}

func (p *Parser) parseSpatiotemporalExpression() (Expression, error) {
	arguments, err := p.parseArguments(6)
	if err != nil {
		return nil, err
	}

	coordinates, err := p.parseCoordinates(arguments[:4])
	if err != nil {
		return nil, err
	}

	times, err := p.parseTimes(arguments[4:])
	if err != nil {
		return nil, err
	}

	return NewSpatiotemporalExpression(coordinates[0], coordinates[1], coordinates[2], coordinates[3], times[0], times[1]), nil
}

// parseArguments consumes the keyword of a window expression and the given number of arguments in parentheses.
func (p *Parser) parseArguments(count int) ([]*Token, error) {
	keywordToken := p.currentToken()
	p.moveToNextToken()

	_, err := p.consumeTokenKind(TokenKindOpeningParenthesis)
	if err != nil {
		return nil, err
	}

	var arguments []*Token
	for i := 0; i < count; i++ {
		expectedMessage := fmt.Sprintf("argument %d of %d of '%s' expression", i+1, count, keywordToken.lexeme)

		token := p.currentToken()
		if token == nil {
			return nil, ParsingTokenStreamEndAtPosition(p.getEndPosition(), expectedMessage)
		}
		if token.kind != TokenKindNumber && token.kind != TokenKindString {
			return nil, ParsingErrorExpectedButFound(expectedMessage, token.startPosition, token.lexeme, token.kind)
		}

		arguments = append(arguments, token)
		p.moveToNextToken()
	}

	_, err = p.consumeTokenKind(TokenKindClosingParenthesis)
	if err != nil {
		return nil, err
	}

	return arguments, nil
}

func (p *Parser) parseCoordinates(arguments []*Token) ([]float64, error) {
	var coordinates []float64
	for _, token := range arguments {
		value, err := strconv.ParseFloat(token.lexeme, 64)
		if token.kind != TokenKindNumber || err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, ParsingErrorExpectedButFound("finite number as coordinate", token.startPosition, token.lexeme, token.kind)
		}
		coordinates = append(coordinates, value)
	}
	return coordinates, nil
}

// parseTimes interprets numbers as milliseconds since the Unix epoch and strings as RFC3339 timestamps.
func (p *Parser) parseTimes(arguments []*Token) ([]time.Time, error) {
	var times []time.Time
	for _, token := range arguments {
		var value time.Time
		var err error

		switch token.kind {
		case TokenKindNumber:
			var millis int64
			millis, err = strconv.ParseInt(token.lexeme, 10, 64)
			value = time.UnixMilli(millis).UTC()
		case TokenKindString:
			value, err = time.Parse(time.RFC3339Nano, token.lexeme)
		}

		if err != nil {
			return nil, ParsingErrorExpectedButFound("timestamp as integer epoch milliseconds or RFC3339 string", token.startPosition, token.lexeme, token.kind)
		}
		times = append(times, value)
	}
	return times, nil
}
