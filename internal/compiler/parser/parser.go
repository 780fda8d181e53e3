// Package parser transforms token streams from .site model files into an AST.
package parser

import (
	"fmt"
	"strconv"

	"github.com/IronSpiderMan/OneSite/internal/compiler/lexer"
)

// Parser transforms a token stream into a File AST
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ParseError
}

// New creates a new Parser from a token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens: tokens,
		errors: []ParseError{},
	}
}

// Parse parses the token stream and returns the AST and any errors
func (p *Parser) Parse() (*File, []ParseError) {
	file := &File{Location: TokenToLocation(p.peek())}

	for !p.isAtEnd() {
		if p.check(lexer.TOKEN_MODEL) {
			if m := p.parseModel(); m != nil {
				file.Models = append(file.Models, m)
			}
		} else {
			p.addError(fmt.Sprintf("Unexpected token: %s. Expected 'model' keyword.", p.peek().Lexeme), p.peek())
			p.synchronize()
		}
	}

	return file, p.errors
}

// parseModel parses a model definition
//
//	model Post @link_table {
//	  fields...
//	}
func (p *Parser) parseModel() *ModelNode {
	modelToken, ok := p.consume(lexer.TOKEN_MODEL, "Expected 'model' keyword")
	if !ok {
		return nil
	}

	name, ok := p.parseIdentifier()
	if !ok {
		p.synchronize()
		return nil
	}

	model := &ModelNode{
		Name:     name,
		Location: TokenToLocation(modelToken),
	}

	// Model-level annotations appear between the name and the body
	for p.check(lexer.TOKEN_AT) {
		if a := p.parseAnnotation(); a != nil {
			model.Annotations = append(model.Annotations, a)
		}
	}

	if _, ok := p.consume(lexer.TOKEN_LBRACE, "Expected '{' after model name"); !ok {
		p.synchronize()
		return nil
	}

	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		if field := p.parseField(); field != nil {
			model.Fields = append(model.Fields, field)
		}
	}

	if _, ok := p.consume(lexer.TOKEN_RBRACE, "Expected '}' after model body"); !ok {
		return model // Return partial AST
	}

	return model
}

// parseField parses a field definition
//
//	status: enum(DRAFT, PUBLISHED)! = DRAFT @site(component: "select")
func (p *Parser) parseField() *FieldNode {
	fieldStart := p.peek()

	name, ok := p.parseFieldName()
	if !ok {
		p.skipUntilFieldBoundary()
		return nil
	}

	if _, ok := p.consume(lexer.TOKEN_COLON, "Expected ':' after field name"); !ok {
		p.skipUntilFieldBoundary()
		return nil
	}

	fieldType, ok := p.parseType()
	if !ok {
		p.skipUntilFieldBoundary()
		return nil
	}

	field := &FieldNode{
		Name:     name,
		Type:     fieldType,
		Location: TokenToLocation(fieldStart),
	}

	// Nullability marker; absent means required
	if p.match(lexer.TOKEN_QUESTION) {
		field.Optional = true
	} else {
		p.match(lexer.TOKEN_BANG)
	}

	// Default value
	if p.match(lexer.TOKEN_EQUAL) {
		if lit, ok := p.parseLiteral(); ok {
			field.Default = lit
		} else {
			p.skipUntilFieldBoundary()
			return field
		}
	}

	// Field annotations
	for p.check(lexer.TOKEN_AT) {
		if a := p.parseAnnotation(); a != nil {
			field.Annotations = append(field.Annotations, a)
		}
	}

	return field
}

// parseType parses a field type, including enum member lists
func (p *Parser) parseType() (TypeNode, bool) {
	typeToken := p.peek()

	switch typeToken.Type {
	case lexer.TOKEN_STRING, lexer.TOKEN_INT, lexer.TOKEN_FLOAT,
		lexer.TOKEN_BOOL, lexer.TOKEN_DATETIME:
		p.advance()
		return TypeNode{Name: typeToken.Lexeme, Location: TokenToLocation(typeToken)}, true

	case lexer.TOKEN_ENUM:
		p.advance()
		node := TypeNode{Name: "enum", Location: TokenToLocation(typeToken)}

		if _, ok := p.consume(lexer.TOKEN_LPAREN, "Expected '(' after 'enum'"); !ok {
			return node, false
		}
		for {
			member, ok := p.parseIdentifier()
			if !ok {
				return node, false
			}
			node.EnumValues = append(node.EnumValues, member)
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
		if _, ok := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after enum members"); !ok {
			return node, false
		}
		if len(node.EnumValues) == 0 {
			p.addError("Enum type must declare at least one member", typeToken)
			return node, false
		}
		return node, true

	default:
		p.addError(fmt.Sprintf("Expected field type, got '%s'", typeToken.Lexeme), typeToken)
		return TypeNode{}, false
	}
}

// parseAnnotation parses an @annotation with optional arguments
func (p *Parser) parseAnnotation() *AnnotationNode {
	atToken, ok := p.consume(lexer.TOKEN_AT, "Expected '@'")
	if !ok {
		return nil
	}

	name, ok := p.parseIdentifier()
	if !ok {
		return nil
	}

	annotation := &AnnotationNode{
		Name:     name,
		Location: TokenToLocation(atToken),
	}

	if !p.match(lexer.TOKEN_LPAREN) {
		return annotation
	}

	// Either a reference argument (@fk(Post.id)) or key: value pairs. A
	// bare identifier is still a reference, so the loader can report the
	// dotless form with field context instead of a parse error.
	if p.check(lexer.TOKEN_IDENTIFIER) && (p.peekNext().Type == lexer.TOKEN_DOT || p.peekNext().Type == lexer.TOKEN_RPAREN) {
		ref := p.advance().Lexeme
		if p.match(lexer.TOKEN_DOT) {
			column, ok := p.parseIdentifier()
			if !ok {
				return nil
			}
			ref += "." + column
		}
		annotation.Ref = ref
	} else {
		for {
			key, ok := p.parseIdentifier()
			if !ok {
				return nil
			}
			if _, ok := p.consume(lexer.TOKEN_COLON, "Expected ':' after annotation key"); !ok {
				return nil
			}
			value, ok := p.parseLiteral()
			if !ok {
				return nil
			}
			annotation.Args = append(annotation.Args, Argument{Key: key, Value: value})
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
	}

	p.consume(lexer.TOKEN_RPAREN, "Expected ')' after annotation arguments")
	return annotation
}

// parseLiteral parses a literal value: number, string, bool, or bare
// identifier (enum member)
func (p *Parser) parseLiteral() (*LiteralNode, bool) {
	token := p.peek()

	switch token.Type {
	case lexer.TOKEN_INT_LITERAL:
		p.advance()
		return &LiteralNode{
			Kind:     LiteralInt,
			Text:     strconv.FormatInt(token.Literal.(int64), 10),
			Location: TokenToLocation(token),
		}, true
	case lexer.TOKEN_FLOAT_LITERAL:
		p.advance()
		return &LiteralNode{
			Kind:     LiteralFloat,
			Text:     token.Lexeme,
			Location: TokenToLocation(token),
		}, true
	case lexer.TOKEN_STRING_LITERAL:
		p.advance()
		return &LiteralNode{
			Kind:     LiteralString,
			Text:     token.Literal.(string),
			Location: TokenToLocation(token),
		}, true
	case lexer.TOKEN_TRUE:
		p.advance()
		return &LiteralNode{Kind: LiteralBool, Text: "true", Location: TokenToLocation(token)}, true
	case lexer.TOKEN_FALSE:
		p.advance()
		return &LiteralNode{Kind: LiteralBool, Text: "false", Location: TokenToLocation(token)}, true
	case lexer.TOKEN_IDENTIFIER:
		p.advance()
		return &LiteralNode{Kind: LiteralIdent, Text: token.Lexeme, Location: TokenToLocation(token)}, true
	default:
		p.addError(fmt.Sprintf("Expected literal value, got '%s'", token.Lexeme), token)
		return nil, false
	}
}

// Helper methods for token manipulation

func (p *Parser) isAtEnd() bool {
	if p.current >= len(p.tokens) {
		return true
	}
	return p.tokens[p.current].Type == lexer.TOKEN_EOF
}

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() lexer.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() lexer.Token {
	if p.current > 0 {
		return p.tokens[p.current-1]
	}
	return p.tokens[0]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, tokenType := range types {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tokenType lexer.TokenType, message string) (lexer.Token, bool) {
	if p.check(tokenType) {
		return p.advance(), true
	}

	p.addError(message, p.peek())
	return lexer.Token{}, false
}

// parseIdentifier parses an identifier token
func (p *Parser) parseIdentifier() (string, bool) {
	if p.check(lexer.TOKEN_IDENTIFIER) {
		return p.advance().Lexeme, true
	}

	p.addError("Expected identifier", p.peek())
	return "", false
}

// parseFieldName parses a field name. Type keywords are allowed as field
// names (a field may be called "float" or "datetime").
func (p *Parser) parseFieldName() (string, bool) {
	switch p.peek().Type {
	case lexer.TOKEN_IDENTIFIER, lexer.TOKEN_STRING, lexer.TOKEN_INT,
		lexer.TOKEN_FLOAT, lexer.TOKEN_BOOL, lexer.TOKEN_DATETIME, lexer.TOKEN_ENUM:
		return p.advance().Lexeme, true
	}

	p.addError(fmt.Sprintf("Expected field name, got '%s'", p.peek().Lexeme), p.peek())
	return "", false
}

func (p *Parser) addError(message string, token lexer.Token) {
	p.errors = append(p.errors, ParseError{
		Message:  message,
		Location: TokenToLocation(token),
	})
}

// synchronize implements panic mode error recovery: skip tokens until the
// next model declaration
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() && !p.check(lexer.TOKEN_MODEL) {
		p.advance()
	}
}

// skipUntilFieldBoundary skips tokens until something that can start a new
// field, a closing brace, or a new model
func (p *Parser) skipUntilFieldBoundary() {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TOKEN_RBRACE, lexer.TOKEN_MODEL:
			return
		case lexer.TOKEN_IDENTIFIER:
			if p.peekNext().Type == lexer.TOKEN_COLON {
				return
			}
		}
		p.advance()
	}
}
