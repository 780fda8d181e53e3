// Package schema defines the shared intermediate representation for the
// sync pipeline: model and field definitions, the model registry,
// relationship edges, and resolved UI component specifications. Every
// generator target (backend and frontend) renders from these types, which is
// what keeps the emitted artifacts consistent with each other.
package schema

import (
	"fmt"
	"strings"
)

// FieldType represents the supported primitive field types.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDatetime
	TypeEnum
)

// String returns the string representation of the field type.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDatetime:
		return "datetime"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ParseFieldType converts a type name from model source into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "datetime":
		return TypeDatetime, nil
	case "enum":
		return TypeEnum, nil
	default:
		return 0, fmt.Errorf("unsupported field type: %s", s)
	}
}

// LiteralKind classifies a field default value literal.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitEnumMember
)

// DefaultValue holds a field's declared default as written in source.
type DefaultValue struct {
	Kind LiteralKind
	Text string
}

// SiteProps is the strongly-typed form of a field's site_props metadata.
// Unknown keys are rejected at load time rather than carried through the
// pipeline as an open-ended mapping.
type SiteProps struct {
	Component     string
	Permissions   string // subset of "rcu"
	CreateOptional bool
	UpdateOptional bool
	AllowDownload *bool // nil means not set; file widgets default to true
	Search        bool
}

// DefaultPermissions is applied when a field declares no permission string.
const DefaultPermissions = "rcu"

// Readable reports whether the field appears in the read schema.
func (p SiteProps) Readable() bool { return strings.Contains(p.Permissions, "r") }

// Creatable reports whether the field appears in the create schema.
func (p SiteProps) Creatable() bool { return strings.Contains(p.Permissions, "c") }

// Updatable reports whether the field appears in the update schema.
func (p SiteProps) Updatable() bool { return strings.Contains(p.Permissions, "u") }

// ForeignKey is a reference to another model's column, either declared
// explicitly with @fk or inferred from the <model>_id naming convention.
type ForeignKey struct {
	Model    string
	Column   string
	Implicit bool
}

// FieldDefinition describes a single field of a model.
type FieldDefinition struct {
	Name       string
	Type       FieldType
	Optional   bool
	List       bool // ordered sequence of Type; only synthetic _ids fields today
	Default    *DefaultValue
	EnumValues []string
	PrimaryKey bool
	ForeignKey *ForeignKey
	Props      SiteProps

	// Synthetic marks fields injected by the relationship resolver
	// (the many-to-many <model>_ids fields). RelTarget names the model a
	// synthetic field collects ids for.
	Synthetic bool
	RelTarget string
}

// ModelDefinition describes one model: its ordered fields and model-level
// metadata. Definitions are owned by the Registry for the duration of a
// single sync run and rebuilt from source on every invocation.
type ModelDefinition struct {
	Name        string
	File        string
	Fields      []*FieldDefinition
	IsLinkTable bool

	// SearchField is the field used for lookup labels and fuzzy search,
	// either declared via the search site prop or inferred by the loader.
	SearchField string
}

// LowerName returns the model name lowered, used for module and path names.
func (m *ModelDefinition) LowerName() string { return strings.ToLower(m.Name) }

// Field returns the field with the given name, or nil.
func (m *ModelDefinition) Field(name string) *FieldDefinition {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// PrimaryKeyFields returns the fields flagged as primary key, in order.
func (m *ModelDefinition) PrimaryKeyFields() []*FieldDefinition {
	var pks []*FieldDefinition
	for _, f := range m.Fields {
		if f.PrimaryKey {
			pks = append(pks, f)
		}
	}
	return pks
}

// ForeignKeyFields returns the fields carrying a foreign key, in order.
func (m *ModelDefinition) ForeignKeyFields() []*FieldDefinition {
	var fks []*FieldDefinition
	for _, f := range m.Fields {
		if f.ForeignKey != nil {
			fks = append(fks, f)
		}
	}
	return fks
}
