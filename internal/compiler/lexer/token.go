package lexer

import "fmt"

// TokenType represents the type of token in the model definition language
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ERROR
	TOKEN_COMMENT

	// Keywords
	TOKEN_MODEL

	// Type keywords
	TOKEN_STRING
	TOKEN_INT
	TOKEN_FLOAT
	TOKEN_BOOL
	TOKEN_DATETIME
	TOKEN_ENUM

	// Literals
	TOKEN_IDENTIFIER
	TOKEN_INT_LITERAL
	TOKEN_FLOAT_LITERAL
	TOKEN_STRING_LITERAL
	TOKEN_TRUE
	TOKEN_FALSE

	// Operators
	TOKEN_BANG     // !
	TOKEN_QUESTION // ?
	TOKEN_AT       // @
	TOKEN_COLON    // :
	TOKEN_DOT      // .
	TOKEN_COMMA    // ,
	TOKEN_EQUAL    // =

	// Delimiters
	TOKEN_LBRACE // {
	TOKEN_RBRACE // }
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
)

// Token represents a single lexical token
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // For literals (numbers, strings)
	Line    int
	Column  int
	File    string
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_ERROR:
		return "ERROR"
	case TOKEN_COMMENT:
		return "COMMENT"
	case TOKEN_MODEL:
		return "MODEL"
	case TOKEN_STRING:
		return "STRING"
	case TOKEN_INT:
		return "INT"
	case TOKEN_FLOAT:
		return "FLOAT"
	case TOKEN_BOOL:
		return "BOOL"
	case TOKEN_DATETIME:
		return "DATETIME"
	case TOKEN_ENUM:
		return "ENUM"
	case TOKEN_IDENTIFIER:
		return "IDENTIFIER"
	case TOKEN_INT_LITERAL:
		return "INT_LITERAL"
	case TOKEN_FLOAT_LITERAL:
		return "FLOAT_LITERAL"
	case TOKEN_STRING_LITERAL:
		return "STRING_LITERAL"
	case TOKEN_TRUE:
		return "TRUE"
	case TOKEN_FALSE:
		return "FALSE"
	case TOKEN_BANG:
		return "BANG"
	case TOKEN_QUESTION:
		return "QUESTION"
	case TOKEN_AT:
		return "AT"
	case TOKEN_COLON:
		return "COLON"
	case TOKEN_DOT:
		return "DOT"
	case TOKEN_COMMA:
		return "COMMA"
	case TOKEN_EQUAL:
		return "EQUAL"
	case TOKEN_LBRACE:
		return "LBRACE"
	case TOKEN_RBRACE:
		return "RBRACE"
	case TOKEN_LPAREN:
		return "LPAREN"
	case TOKEN_RPAREN:
		return "RPAREN"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// keywords maps keyword strings to their token types for O(1) lookup
var keywords = map[string]TokenType{
	"model": TOKEN_MODEL,

	// Type keywords
	"string":   TOKEN_STRING,
	"int":      TOKEN_INT,
	"float":    TOKEN_FLOAT,
	"bool":     TOKEN_BOOL,
	"datetime": TOKEN_DATETIME,
	"enum":     TOKEN_ENUM,

	// Literals
	"true":  TOKEN_TRUE,
	"false": TOKEN_FALSE,
}

// lookupKeyword checks if an identifier is a keyword
// Returns the token type and true if it's a keyword, TOKEN_IDENTIFIER and false otherwise
func lookupKeyword(identifier string) (TokenType, bool) {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType, true
	}
	return TOKEN_IDENTIFIER, false
}

// LexError represents a lexical error with its source position
type LexError struct {
	Message string
	Line    int
	Column  int
	File    string
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
