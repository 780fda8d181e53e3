// Package loader builds the model registry from .site source files. It is
// the first pipeline stage: everything downstream (resolution,
// classification, generation) consumes the registry it produces and never
// re-reads source.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/IronSpiderMan/OneSite/internal/compiler/lexer"
	"github.com/IronSpiderMan/OneSite/internal/compiler/parser"
	"github.com/IronSpiderMan/OneSite/internal/schema"
)

// Model source files use the .site extension.
const SourceExt = ".site"

// searchGuesses are the field names tried, in order, when no field declares
// the search site prop. Mirrors the label-field inference of the generator's
// lookup widgets.
var searchGuesses = []string{"name", "title", "label", "slug", "email", "username", "full_name"}

// LoadDir loads every .site file under dir (sorted by path, so registration
// order is deterministic) and returns the populated registry.
func LoadDir(dir string) (*schema.Registry, error) {
	pattern := filepath.Join(dir, "*"+SourceExt)
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list model files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", SourceExt, dir)
	}
	sort.Strings(files)

	reg := schema.NewRegistry()
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := LoadSource(reg, string(source), file); err != nil {
			return nil, err
		}
	}

	finalize(reg)
	return reg, nil
}

// LoadSource lexes, parses and registers all models in one source string.
// The caller owns the registry; call finalize via LoadDir for directory
// loads, or Finalize directly when composing sources by hand (tests).
func LoadSource(reg *schema.Registry, source, file string) error {
	l := lexer.New(source, file)
	tokens, lexErrs := l.ScanTokens()
	if len(lexErrs) > 0 {
		first := lexErrs[0]
		return &LoadError{File: first.File, Line: first.Line, Column: first.Column, Message: first.Message}
	}

	p := parser.New(tokens)
	ast, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		first := parseErrs[0]
		return &LoadError{
			File:    first.Location.File,
			Line:    first.Location.Line,
			Column:  first.Location.Column,
			Message: first.Message,
		}
	}

	for _, node := range ast.Models {
		model, err := buildModel(node, file)
		if err != nil {
			return err
		}
		if err := reg.Register(model); err != nil {
			return &LoadError{
				Model:   model.Name,
				File:    file,
				Line:    node.Location.Line,
				Column:  node.Location.Column,
				Message: err.Error(),
			}
		}
	}
	return nil
}

// Finalize applies cross-field defaulting that needs the complete model:
// the virtual password field on User and search-field inference.
func Finalize(reg *schema.Registry) { finalize(reg) }

func finalize(reg *schema.Registry) {
	for _, m := range reg.Models() {
		if m.Name == "User" {
			if m.Field("password") == nil {
				// Write-only credential field; never persisted in the read schema
				m.Fields = append(m.Fields, &schema.FieldDefinition{
					Name:  "password",
					Type:  schema.TypeString,
					Props: schema.SiteProps{Permissions: "c"},
				})
			}
			if m.Field("hashed_password") == nil {
				// Backing column for the virtual password field, hidden from
				// every schema variant
				m.Fields = append(m.Fields, &schema.FieldDefinition{
					Name:  "hashed_password",
					Type:  schema.TypeString,
					Props: schema.SiteProps{Permissions: ""},
				})
			}
		}
		m.SearchField = inferSearchField(m)
	}
}

func buildModel(node *parser.ModelNode, file string) (*schema.ModelDefinition, error) {
	model := &schema.ModelDefinition{
		Name: node.Name,
		File: file,
	}

	for _, a := range node.Annotations {
		switch a.Name {
		case "link_table":
			model.IsLinkTable = true
		default:
			return nil, &LoadError{
				Model:   node.Name,
				File:    file,
				Line:    a.Location.Line,
				Column:  a.Location.Column,
				Message: fmt.Sprintf("unknown model annotation @%s", a.Name),
			}
		}
	}

	for _, fn := range node.Fields {
		field, err := buildField(node.Name, fn, file)
		if err != nil {
			return nil, err
		}
		if model.Field(field.Name) != nil {
			return nil, fieldError(node.Name, fn, file, "duplicate field name")
		}
		model.Fields = append(model.Fields, field)
	}

	// Link tables carry a composite key; the resolver validates it. Every
	// other model must declare exactly one primary key.
	if !model.IsLinkTable {
		if n := len(model.PrimaryKeyFields()); n != 1 {
			return nil, &LoadError{
				Model:   node.Name,
				File:    file,
				Line:    node.Location.Line,
				Column:  node.Location.Column,
				Message: fmt.Sprintf("model must declare exactly one primary key field, found %d", n),
			}
		}
	}

	return model, nil
}

func buildField(modelName string, node *parser.FieldNode, file string) (*schema.FieldDefinition, error) {
	fieldType, err := schema.ParseFieldType(node.Type.Name)
	if err != nil {
		return nil, fieldError(modelName, node, file, err.Error())
	}

	field := &schema.FieldDefinition{
		Name:       node.Name,
		Type:       fieldType,
		Optional:   node.Optional,
		EnumValues: append([]string(nil), node.Type.EnumValues...),
		Props:      schema.SiteProps{Permissions: schema.DefaultPermissions},
	}

	if node.Default != nil {
		def, err := buildDefault(modelName, node, field)
		if err != nil {
			return nil, err
		}
		field.Default = def
	}

	for _, a := range node.Annotations {
		switch a.Name {
		case "pk":
			field.PrimaryKey = true
		case "fk":
			if a.Ref == "" {
				return nil, fieldError(modelName, node, file, "@fk requires a Model.column reference")
			}
			refModel, refColumn, ok := strings.Cut(a.Ref, ".")
			if !ok || refModel == "" || refColumn == "" {
				return nil, fieldError(modelName, node, file, fmt.Sprintf("malformed @fk reference %q, expected Model.column", a.Ref))
			}
			field.ForeignKey = &schema.ForeignKey{Model: refModel, Column: refColumn}
		case "site":
			if a.Ref != "" {
				return nil, fieldError(modelName, node, file, "@site expects key: value arguments")
			}
			if err := applySiteProps(modelName, node, file, a, &field.Props); err != nil {
				return nil, err
			}
		default:
			return nil, fieldError(modelName, node, file, fmt.Sprintf("unknown field annotation @%s", a.Name))
		}
	}

	// The primary key is exposed read-only regardless of declared props
	if field.Name == "id" || field.PrimaryKey {
		field.Props.Permissions = "r"
	}

	return field, nil
}

// applySiteProps converts the open-ended @site argument list into the typed
// SiteProps, rejecting anything it does not recognize.
func applySiteProps(modelName string, node *parser.FieldNode, file string, a *parser.AnnotationNode, props *schema.SiteProps) error {
	for _, arg := range a.Args {
		switch arg.Key {
		case "component":
			if arg.Value.Kind != parser.LiteralString {
				return fieldError(modelName, node, file, "site prop component must be a string")
			}
			if _, ok := schema.ParseWidgetKind(arg.Value.Text); !ok {
				return fieldError(modelName, node, file, fmt.Sprintf("unknown component %q", arg.Value.Text))
			}
			props.Component = arg.Value.Text
		case "permissions":
			if arg.Value.Kind != parser.LiteralString {
				return fieldError(modelName, node, file, "site prop permissions must be a string")
			}
			perms := arg.Value.Text
			for _, r := range perms {
				if r != 'r' && r != 'c' && r != 'u' {
					return fieldError(modelName, node, file, fmt.Sprintf("invalid permission letter %q (allowed: r, c, u)", string(r)))
				}
			}
			props.Permissions = perms
		case "create_optional":
			v, err := boolArg(modelName, node, file, arg)
			if err != nil {
				return err
			}
			props.CreateOptional = v
		case "update_optional":
			v, err := boolArg(modelName, node, file, arg)
			if err != nil {
				return err
			}
			props.UpdateOptional = v
		case "allow_download":
			v, err := boolArg(modelName, node, file, arg)
			if err != nil {
				return err
			}
			props.AllowDownload = &v
		case "search":
			v, err := boolArg(modelName, node, file, arg)
			if err != nil {
				return err
			}
			props.Search = v
		default:
			return fieldError(modelName, node, file, fmt.Sprintf("unknown site prop %q", arg.Key))
		}
	}
	return nil
}

func boolArg(modelName string, node *parser.FieldNode, file string, arg parser.Argument) (bool, error) {
	if arg.Value.Kind != parser.LiteralBool {
		return false, fieldError(modelName, node, file, fmt.Sprintf("site prop %s must be a boolean", arg.Key))
	}
	return arg.Value.Text == "true", nil
}

// buildDefault validates the declared default against the field type and
// converts it into the schema representation.
func buildDefault(modelName string, node *parser.FieldNode, field *schema.FieldDefinition) (*schema.DefaultValue, error) {
	lit := node.Default
	mismatch := func() error {
		return fieldError(modelName, node, node.Location.File,
			fmt.Sprintf("default value %q does not match field type %s", lit.Text, field.Type))
	}

	switch field.Type {
	case schema.TypeInt:
		if lit.Kind != parser.LiteralInt {
			return nil, mismatch()
		}
		return &schema.DefaultValue{Kind: schema.LitInt, Text: lit.Text}, nil
	case schema.TypeFloat:
		if lit.Kind != parser.LiteralFloat && lit.Kind != parser.LiteralInt {
			return nil, mismatch()
		}
		return &schema.DefaultValue{Kind: schema.LitFloat, Text: lit.Text}, nil
	case schema.TypeBool:
		if lit.Kind != parser.LiteralBool {
			return nil, mismatch()
		}
		return &schema.DefaultValue{Kind: schema.LitBool, Text: lit.Text}, nil
	case schema.TypeString, schema.TypeDatetime:
		if lit.Kind != parser.LiteralString {
			return nil, mismatch()
		}
		return &schema.DefaultValue{Kind: schema.LitString, Text: lit.Text}, nil
	case schema.TypeEnum:
		if lit.Kind != parser.LiteralIdent && lit.Kind != parser.LiteralString {
			return nil, mismatch()
		}
		for _, m := range node.Type.EnumValues {
			if m == lit.Text {
				return &schema.DefaultValue{Kind: schema.LitEnumMember, Text: lit.Text}, nil
			}
		}
		return nil, fieldError(modelName, node, node.Location.File,
			fmt.Sprintf("default %q is not an enum member", lit.Text))
	}
	return nil, mismatch()
}

// inferSearchField picks the field used for lookup labels and fuzzy search.
func inferSearchField(m *schema.ModelDefinition) string {
	for _, f := range m.Fields {
		if f.Props.Search {
			return f.Name
		}
	}
	for _, guess := range searchGuesses {
		if f := m.Field(guess); f != nil {
			return f.Name
		}
	}
	for _, f := range m.Fields {
		if f.Type == schema.TypeString && !f.Synthetic && f.Props.Readable() {
			return f.Name
		}
	}
	if pks := m.PrimaryKeyFields(); len(pks) > 0 {
		return pks[0].Name
	}
	return "id"
}

func fieldError(modelName string, node *parser.FieldNode, file string, message string) *LoadError {
	return &LoadError{
		Model:   modelName,
		Field:   node.Name,
		File:    file,
		Line:    node.Location.Line,
		Column:  node.Location.Column,
		Message: message,
	}
}
