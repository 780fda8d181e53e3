package parser

import "github.com/IronSpiderMan/OneSite/internal/compiler/lexer"

// SourceLocation represents a location in model source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// File is the root node for one parsed .site file
type File struct {
	Models   []*ModelNode
	Location SourceLocation
}

// ModelNode represents a model definition
type ModelNode struct {
	Name        string
	Annotations []*AnnotationNode
	Fields      []*FieldNode
	Location    SourceLocation
}

// FieldNode represents a field definition
type FieldNode struct {
	Name        string
	Type        TypeNode
	Optional    bool // ? vs ! (or no marker, which means required)
	Default     *LiteralNode
	Annotations []*AnnotationNode
	Location    SourceLocation
}

// TypeNode represents a field type
type TypeNode struct {
	Name       string   // string, int, float, bool, datetime, enum
	EnumValues []string // for enum(A, B, ...)
	Location   SourceLocation
}

// LiteralKind classifies a parsed literal
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralIdent // bare identifier, used for enum member defaults
)

// LiteralNode is a literal value as written in source. Text preserves the
// canonical textual form used for rendering defaults into the targets.
type LiteralNode struct {
	Kind     LiteralKind
	Text     string
	Location SourceLocation
}

// AnnotationNode represents an @annotation on a model or field.
//
//	@pk
//	@link_table
//	@fk(Post.id)
//	@site(component: "image", permissions: "rc")
type AnnotationNode struct {
	Name     string
	Ref      string      // dotted reference argument, e.g. "Post.id" for @fk
	Args     []Argument  // key/value arguments for @site
	Location SourceLocation
}

// Argument is one key: value pair inside an annotation argument list
type Argument struct {
	Key   string
	Value *LiteralNode
}

// Arg returns the argument with the given key, or nil
func (a *AnnotationNode) Arg(key string) *LiteralNode {
	for _, arg := range a.Args {
		if arg.Key == key {
			return arg.Value
		}
	}
	return nil
}

// Annotation returns the first annotation with the given name, or nil
func (m *ModelNode) Annotation(name string) *AnnotationNode {
	for _, a := range m.Annotations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Annotation returns the first annotation with the given name, or nil
func (f *FieldNode) Annotation(name string) *AnnotationNode {
	for _, a := range f.Annotations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TokenToLocation converts a token to a SourceLocation
func TokenToLocation(token lexer.Token) SourceLocation {
	return SourceLocation{
		File:   token.File,
		Line:   token.Line,
		Column: token.Column,
	}
}
