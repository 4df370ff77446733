package query

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"trajgrid/util"
)

func TestParser_currentAndNextToken(t *testing.T) {
	// Arrange
	parser := &Parser{
		token: []*Token{
			{kind: TokenKindKeyword, lexeme: "spatial", startPosition: 0, endPosition: 7},
			{kind: TokenKindOpeningParenthesis, lexeme: "(", startPosition: 7, endPosition: 8},
		},
		index: 0,
	}

	// Act & Assert
	util.AssertEqual(t, parser.token[0], parser.currentToken())
	util.AssertTrue(t, parser.isCurrentKeyword(spatialKeyword))

	util.AssertEqual(t, parser.token[1], parser.moveToNextToken())
	util.AssertEqual(t, parser.token[1], parser.currentToken())
	util.AssertFalse(t, parser.isCurrentKeyword(spatialKeyword))

	util.AssertNil(t, parser.moveToNextToken())
	util.AssertNil(t, parser.currentToken())
	util.AssertEqual(t, 8, parser.getEndPosition())
}

func TestParser_parseSpatialExpression(t *testing.T) {
	// Arrange
	parser := &Parser{
		token: []*Token{
			{kind: TokenKindKeyword, lexeme: "spatial", startPosition: 0},
			{kind: TokenKindOpeningParenthesis, lexeme: "(", startPosition: 7},
			{kind: TokenKindNumber, lexeme: "1.1", startPosition: 8},
			{kind: TokenKindNumber, lexeme: "-2.2", startPosition: 12},
			{kind: TokenKindNumber, lexeme: "3", startPosition: 17},
			{kind: TokenKindNumber, lexeme: "4.567", startPosition: 19},
			{kind: TokenKindClosingParenthesis, lexeme: ")", startPosition: 24},
			{kind: TokenKindKeyword, lexeme: "AND", startPosition: 26},
		},
		index: 0,
	}

	// Act
	expression, err := parser.parseSpatialExpression()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, NewSpatialExpression(1.1, -2.2, 3, 4.567), expression)
	util.AssertEqual(t, 7, parser.index)
}

func TestParser_parseTimes(t *testing.T) {
	// Arrange
	parser := &Parser{}
	arguments := []*Token{
		{kind: TokenKindNumber, lexeme: "1714564800000"},
		{kind: TokenKindString, lexeme: "2024-05-01T14:00:10+02:00"},
		{kind: TokenKindString, lexeme: "2024-05-01T12:00:10.5Z"},
	}

	// Act
	times, err := parser.parseTimes(arguments)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 3, len(times))
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	util.AssertTrue(t, t0.Equal(times[0]))
	util.AssertTrue(t, t0.Add(10*time.Second).Equal(times[1]))
	util.AssertTrue(t, t0.Add(10500*time.Millisecond).Equal(times[2]))
}

func TestParseQueryString_windowExpressions(t *testing.T) {
	for queryString, expected := range map[string]string{
		"spatial(0, 0, 10, 20)":                         "spatial(0, 0, 10, 20)",
		"spatial(-1.5 2.25 .5 3.)":                      "spatial(-1.5, 2.25, 0.5, 3)",
		"temporal(0, 1000)":                             `temporal("1970-01-01T00:00:00Z", "1970-01-01T00:00:01Z")`,
		`temporal("2024-05-01T14:00:00+02:00", -1000)`:  `temporal("2024-05-01T12:00:00Z", "1969-12-31T23:59:59Z")`,
		"spatiotemporal(1, 2, 3, 4, 1714564800000, 1)": `spatiotemporal(1, 2, 3, 4, "2024-05-01T12:00:00Z", "1970-01-01T00:00:00.001Z")`,
		"  // only a comment\n  spatial(1,2,3,4)  \n":  "spatial(1, 2, 3, 4)",
	} {
		// Act
		query, err := ParseQueryString(queryString)

		// Assert
		util.AssertNil(t, err)
		util.AssertEqual(t, expected, query.String())
	}
}

func TestParseQueryString_precedence(t *testing.T) {
	for queryString, expected := range map[string]string{
		"spatial(0,0,1,1) OR temporal(0,1000) AND spatial(2,2,3,3)":   `(spatial(0, 0, 1, 1) OR (temporal("1970-01-01T00:00:00Z", "1970-01-01T00:00:01Z") AND spatial(2, 2, 3, 3)))`,
		"spatial(0,0,1,1) AND temporal(0,1000) OR spatial(2,2,3,3)":   `((spatial(0, 0, 1, 1) AND temporal("1970-01-01T00:00:00Z", "1970-01-01T00:00:01Z")) OR spatial(2, 2, 3, 3))`,
		"(spatial(0,0,1,1) OR temporal(0,1000)) AND spatial(2,2,3,3)": `((spatial(0, 0, 1, 1) OR temporal("1970-01-01T00:00:00Z", "1970-01-01T00:00:01Z")) AND spatial(2, 2, 3, 3))`,
		"spatial(0,0,1,1) OR spatial(1,1,2,2) OR spatial(2,2,3,3)":    "((spatial(0, 0, 1, 1) OR spatial(1, 1, 2, 2)) OR spatial(2, 2, 3, 3))",
		"spatial(0,0,1,1) AND (spatial(1,1,2,2) AND spatial(2,2,3,3))": "(spatial(0, 0, 1, 1) AND (spatial(1, 1, 2, 2) AND spatial(2, 2, 3, 3)))",
		"((spatial(0,0,1,1)))":                                          "spatial(0, 0, 1, 1)",
	} {
		// Act
		query, err := ParseQueryString(queryString)

		// Assert
		util.AssertNil(t, err)
		util.AssertEqual(t, expected, query.String())
	}
}

func TestParseQueryString_tokenStreamEnded(t *testing.T) {
	for queryString, position := range map[string]int{
		"":                      0,
		"// nothing":            0,
		"spatial(1,2,3,4":       15,
		"spatial":               7,
		"(spatial(1,2,3,4)":     17,
		"spatial(1,2,3,4) AND ": 20,
	} {
		// Act
		query, err := ParseQueryString(queryString)

		// Assert
		util.AssertNil(t, query)
		var parsingError *ParsingTokenStreamEndedError
		util.AssertTrue(t, errors.As(err, &parsingError))
		util.AssertEqual(t, position, parsingError.Position)
	}
}

func TestParseQueryString_expectedButFound(t *testing.T) {
	for queryString, position := range map[string]int{
		"spatial(1,2,3)":                    13,
		"spatial(1,2,3,4) spatial(1,2,3,4)": 17,
		"foo(1,2)":                          0,
		"AND spatial(1,2,3,4)":              0,
		`temporal("yesterday", 1)`:          9,
		`spatial("1",2,3,4)`:                8,
		"temporal(1.5, 2)":                  9,
		"spatial(1..2,2,3,4)":               8,
		"spatial(1,2,3,4) and temporal(1,2)": 17,
	} {
		// Act
		query, err := ParseQueryString(queryString)

		// Assert
		util.AssertNil(t, query)
		var parsingError *ParsingExpectedButFoundError
		util.AssertTrue(t, errors.As(err, &parsingError))
		util.AssertEqual(t, position, parsingError.Position)
	}
}

func TestParseQueryString_expectedTokenKind(t *testing.T) {
	// Act
	query, err := ParseQueryString("spatial 1,2,3,4)")

	// Assert
	util.AssertNil(t, query)
	var parsingError *ParsingExpectedTokenKindError
	util.AssertTrue(t, errors.As(err, &parsingError))
	util.AssertEqual(t, 8, parsingError.Position)
	util.AssertEqual(t, TokenKindOpeningParenthesis, parsingError.ExpectedKind)
	util.AssertEqual(t, TokenKindNumber, parsingError.CurrentKind)
}

func TestParsingError_format(t *testing.T) {
	// Arrange
	_, err := ParseQueryString("spatial(1,2,3)")

	// Act
	short := fmt.Sprintf("%s", err)
	long := fmt.Sprintf("%+v", err)

	// Assert
	util.AssertEqual(t, err.Error(), short)
	util.AssertTrue(t, strings.HasPrefix(long, err.Error()+"\n"))
	util.AssertTrue(t, strings.Contains(long, "parser.go"))
}
