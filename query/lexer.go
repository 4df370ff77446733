package query

import (
	"fmt"
	"unicode"

	"github.com/hauke96/sigolo/v2"
	"trajgrid/util"
)

type Lexer struct {
	input []rune
	index int // Position in input.
}

var (
	keywordChars = []rune{
		'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
		'_'}
	numberChars = []rune{'1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '.'}
)

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

func (l *Lexer) read() ([]*Token, error) {
	var tokens []*Token
	for l.index < len(l.input) {
		token, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		if token != nil {
			l.tracef("Found token kind=%s, pos=%d, lexeme=\"%s\"", token.kind.String(), token.startPosition, token.lexeme)
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// nextToken returns the token at the current position or nil when only whitespace and comments are left. Commas are
// treated like whitespace, they only separate arguments for better readability.
func (l *Lexer) nextToken() (*Token, error) {
	for ; l.index < len(l.input); l.index++ {
		char := l.char()

		if unicode.IsSpace(char) || char == ',' {
			continue
		}

		// Ignore comments until next linebreak
		if char == '/' {
			err := l.skipComment()
			if err != nil {
				return nil, err
			}
			return nil, nil
		}

		switch char {
		case '(':
			return l.currentSingleCharToken(TokenKindOpeningParenthesis), nil
		case ')':
			return l.currentSingleCharToken(TokenKindClosingParenthesis), nil
		case '"':
			return l.currentString()
		}

		if util.Contains(keywordChars, char) {
			return l.currentKeyword(), nil
		}

		if util.Contains(numberChars, char) || (char == '-' && util.Contains(numberChars, l.nextChar())) {
			return l.currentNumber(), nil
		}

		return nil, LexingErrorAtPosition(l.index, "unexpected character '%c'", char)
	}

	return nil, nil
}

func (l *Lexer) skipComment() error {
	l.tracef("Potential comment start")
	if l.nextChar() != '/' {
		return LexingErrorAtPosition(l.index, "unexpected character '%c', comments start with '//'", l.char())
	}

	for ; l.index < len(l.input); l.index++ {
		if l.char() == '\n' || l.char() == '\r' {
			return nil
		}
	}

	l.tracef("Comment reached end of input")
	return nil
}

func (l *Lexer) currentSingleCharToken(tokenKind TokenKind) *Token {
	token := &Token{
		kind:          tokenKind,
		lexeme:        string(l.char()),
		startPosition: l.index,
		endPosition:   l.index + 1,
	}
	l.index++
	return token
}

// currentKeyword returns the keyword starting at the current index.
func (l *Lexer) currentKeyword() *Token {
	startIndex := l.index
	for ; l.index < len(l.input) && util.Contains(keywordChars, l.char()); l.index++ {
	}

	return &Token{
		kind:          TokenKindKeyword,
		lexeme:        string(l.input[startIndex:l.index]),
		startPosition: startIndex,
		endPosition:   l.index,
	}
}

// currentNumber returns the number starting at the current index. The lexeme is not validated, so "1.2.3" is a
// number token as well and the parser reports it.
func (l *Lexer) currentNumber() *Token {
	startIndex := l.index
	if l.char() == '-' {
		l.index++
	}
	for ; l.index < len(l.input) && util.Contains(numberChars, l.char()); l.index++ {
	}

	return &Token{
		kind:          TokenKindNumber,
		lexeme:        string(l.input[startIndex:l.index]),
		startPosition: startIndex,
		endPosition:   l.index,
	}
}

// currentString returns the double quoted string starting at the current index. Escape sequences are not supported.
func (l *Lexer) currentString() (*Token, error) {
	startIndex := l.index
	l.index++ // Opening quote

	for ; l.index < len(l.input) && l.char() != '"'; l.index++ {
	}

	if l.index >= len(l.input) {
		return nil, LexingErrorAtPosition(startIndex, "string is not terminated")
	}
	l.index++ // Closing quote

	return &Token{
		kind:          TokenKindString,
		lexeme:        string(l.input[startIndex+1 : l.index-1]),
		startPosition: startIndex,
		endPosition:   l.index,
	}, nil
}

func (l *Lexer) tracef(format string, args ...any) {
	if !sigolo.ShouldLogTrace() {
		return
	}
	formattedMessage := format
	if len(args) > 0 {
		formattedMessage = fmt.Sprintf(format, args...)
	}
	sigolo.Traceb(1, "[%d, %q] %s", l.index, l.char(), formattedMessage)
}
