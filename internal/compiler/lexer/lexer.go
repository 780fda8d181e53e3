// Package lexer tokenizes OneSite model definition source (.site files).
package lexer

import (
	"strconv"
	"unicode"
)

// Lexer tokenizes model definition source code
type Lexer struct {
	source      []rune
	start       int
	current     int
	line        int
	column      int
	startColumn int
	file        string
	tokens      []Token
	errors      []LexError
}

// New creates a new Lexer for the given source code
func New(source, file string) *Lexer {
	return &Lexer{
		source:      []rune(source),
		line:        1,
		column:      1,
		startColumn: 1,
		file:        file,
		tokens:      make([]Token, 0, len(source)/8),
		errors:      make([]LexError, 0),
	}
}

// ScanTokens scans all tokens from the source and returns them with any errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Line:   l.line,
		Column: l.column,
		File:   l.file,
	})

	return l.tokens, l.errors
}

// scanToken scans a single token
func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case '{':
		l.addToken(TOKEN_LBRACE, nil)
	case '}':
		l.addToken(TOKEN_RBRACE, nil)
	case '(':
		l.addToken(TOKEN_LPAREN, nil)
	case ')':
		l.addToken(TOKEN_RPAREN, nil)
	case ',':
		l.addToken(TOKEN_COMMA, nil)
	case ':':
		l.addToken(TOKEN_COLON, nil)
	case '.':
		l.addToken(TOKEN_DOT, nil)
	case '=':
		l.addToken(TOKEN_EQUAL, nil)
	case '@':
		l.addToken(TOKEN_AT, nil)
	case '!':
		l.addToken(TOKEN_BANG, nil)
	case '?':
		l.addToken(TOKEN_QUESTION, nil)

	// Comments run to end of line and are discarded
	case '#':
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}

	// String literals
	case '"':
		l.scanString()

	// Whitespace
	case ' ', '\r', '\t':
		break

	case '\n':
		l.line++
		l.column = 1

	default:
		if l.isDigit(r) || (r == '-' && l.isDigit(l.peek())) {
			l.scanNumber()
		} else if l.isAlpha(r) {
			l.scanIdentifier()
		} else {
			l.addError("Unexpected character: " + string(r))
		}
	}
}

// scanString scans a string literal, handling escape sequences
func (l *Lexer) scanString() {
	var value []rune

	for !l.isAtEnd() && l.peek() != '"' {
		if l.peek() == '\n' {
			l.addError("Unterminated string")
			return
		}
		if l.peek() == '\\' {
			l.advance()
			if l.isAtEnd() {
				l.addError("Unterminated string")
				return
			}
			escaped := l.advance()
			switch escaped {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				value = append(value, '\\', escaped)
			}
		} else {
			value = append(value, l.advance())
		}
	}

	if l.isAtEnd() {
		l.addError("Unterminated string")
		return
	}

	// Consume closing quote
	l.advance()

	l.addToken(TOKEN_STRING_LITERAL, string(value))
}

// scanNumber scans an integer or float literal
func (l *Lexer) scanNumber() {
	for l.isDigit(l.peek()) {
		l.advance()
	}

	isFloat := false
	if l.peek() == '.' && l.isDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		for l.isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := string(l.source[l.start:l.current])

	if isFloat {
		value, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.addError("Invalid float literal: " + err.Error())
			return
		}
		l.addToken(TOKEN_FLOAT_LITERAL, value)
	} else {
		value, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			l.addError("Invalid integer literal: " + err.Error())
			return
		}
		l.addToken(TOKEN_INT_LITERAL, value)
	}
}

// scanIdentifier scans an identifier or keyword
func (l *Lexer) scanIdentifier() {
	for l.isAlphaNumeric(l.peek()) {
		l.advance()
	}

	lexeme := string(l.source[l.start:l.current])

	if tokenType, isKeyword := lookupKeyword(lexeme); isKeyword {
		l.addToken(tokenType, nil)
		return
	}

	l.addToken(TOKEN_IDENTIFIER, lexeme)
}

// Helper methods

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	r := l.source[l.current]
	l.current++
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (l *Lexer) isAlpha(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func (l *Lexer) isAlphaNumeric(r rune) bool {
	return l.isAlpha(r) || l.isDigit(r)
}

func (l *Lexer) addToken(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  string(l.source[l.start:l.current]),
		Literal: literal,
		Line:    l.line,
		Column:  l.startColumn,
		File:    l.file,
	})
}

func (l *Lexer) addError(message string) {
	l.errors = append(l.errors, LexError{
		Message: message,
		Line:    l.line,
		Column:  l.column,
		File:    l.file,
	})
}
