package query

import (
	"testing"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"trajgrid/util"
)

func TestLexer_currentAndNextChar(t *testing.T) {
	// Arrange
	l := &Lexer{
		input: []rune("012345"),
		index: 0,
	}

	// Act & Assert
	util.AssertEqual(t, '0', l.char())
	util.AssertEqual(t, '1', l.nextChar())

	l.index = 3
	util.AssertEqual(t, '3', l.char())
	util.AssertEqual(t, '4', l.nextChar())

	l.index = 5
	util.AssertEqual(t, '5', l.char())
	util.AssertEqual(t, rune(-1), l.nextChar())

	l.index = 6
	util.AssertEqual(t, rune(-1), l.char())
	util.AssertEqual(t, rune(-1), l.nextChar())
}

func TestLexer_skipComment(t *testing.T) {
	// Arrange
	l := &Lexer{
		input: []rune("// ignore this\nspatial(1,2,3,4)"),
		index: 0,
	}

	// Act
	err := l.skipComment()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 14, l.index)
}

func TestLexer_skipComment_noCommentReturnsError(t *testing.T) {
	// Arrange
	l := &Lexer{
		input: []rune("/ spatial(1,2,3,4)"),
		index: 0,
	}

	// Act
	err := l.skipComment()

	// Assert
	util.AssertNotNil(t, err)
	util.AssertEqual(t, 0, l.index)
}

func TestLexer_read(t *testing.T) {
	// Arrange
	sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	defer sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
	l := &Lexer{
		input: []rune("spatial(0, -1.5)\n// comment\nAND temporal(\"a b\" 12)"),
		index: 0,
	}

	// Act
	tokens, err := l.read()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, []*Token{
		{kind: TokenKindKeyword, lexeme: "spatial", startPosition: 0, endPosition: 7},
		{kind: TokenKindOpeningParenthesis, lexeme: "(", startPosition: 7, endPosition: 8},
		{kind: TokenKindNumber, lexeme: "0", startPosition: 8, endPosition: 9},
		{kind: TokenKindNumber, lexeme: "-1.5", startPosition: 11, endPosition: 15},
		{kind: TokenKindClosingParenthesis, lexeme: ")", startPosition: 15, endPosition: 16},
		{kind: TokenKindKeyword, lexeme: "AND", startPosition: 28, endPosition: 31},
		{kind: TokenKindKeyword, lexeme: "temporal", startPosition: 32, endPosition: 40},
		{kind: TokenKindOpeningParenthesis, lexeme: "(", startPosition: 40, endPosition: 41},
		{kind: TokenKindString, lexeme: "a b", startPosition: 41, endPosition: 46},
		{kind: TokenKindNumber, lexeme: "12", startPosition: 47, endPosition: 49},
		{kind: TokenKindClosingParenthesis, lexeme: ")", startPosition: 49, endPosition: 50},
	}, tokens)
}

func TestLexer_read_commentAtEnd(t *testing.T) {
	// Arrange
	l := &Lexer{
		input: []rune("spatial // foo"),
		index: 0,
	}

	// Act
	tokens, err := l.read()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(tokens))
	util.AssertEqual(t, "spatial", tokens[0].lexeme)
}

func TestLexer_read_onlyWhitespace(t *testing.T) {
	// Arrange
	l := &Lexer{
		input: []rune(" \n\t, "),
		index: 0,
	}

	// Act
	tokens, err := l.read()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 0, len(tokens))
}

func TestLexer_read_errors(t *testing.T) {
	for input, position := range map[string]int{
		"spatial(1 # 2)":    10,
		"temporal(\"abc, 1)": 9,
		"spatial / 2":       8,
		"-":                 0,
	} {
		// Arrange
		l := &Lexer{
			input: []rune(input),
			index: 0,
		}

		// Act
		tokens, err := l.read()

		// Assert
		util.AssertNil(t, tokens)
		var lexingError *LexingError
		util.AssertTrue(t, errors.As(err, &lexingError))
		util.AssertEqual(t, position, lexingError.Position)
	}
}
