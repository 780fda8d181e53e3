package codegen

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/IronSpiderMan/OneSite/internal/compiler/classify"
	"github.com/IronSpiderMan/OneSite/internal/schema"
)

// FieldContext is one field prepared for template rendering. All type and
// widget decisions are made here so the templates stay purely declarative.
type FieldContext struct {
	Name     string
	PyType   string // bare python type, without Optional[...]
	TSType   string
	Optional   bool
	List       bool
	PrimaryKey bool

	Enum       bool
	EnumValues []string

	Default    string // python literal, empty when no default
	TSDefault  string // typescript literal for form initial state
	ForeignKey *schema.ForeignKey
	Synthetic  bool

	Widget schema.ComponentSpec

	Permissions    string
	CreateOptional bool
	UpdateOptional bool
	SearchField    bool
}

// Readable reports whether the field appears in the read schema.
func (f FieldContext) Readable() bool { return strings.ContainsRune(f.Permissions, 'r') }

// Creatable reports whether the field appears in the create schema.
func (f FieldContext) Creatable() bool { return strings.ContainsRune(f.Permissions, 'c') }

// Updatable reports whether the field appears in the update schema.
func (f FieldContext) Updatable() bool { return strings.ContainsRune(f.Permissions, 'u') }

// PyAnnotation renders the python type annotation for the persisted model.
// Primary keys are Optional so the database can assign them on insert.
func (f FieldContext) PyAnnotation() string {
	t := f.PyType
	if f.List {
		t = "List[" + t + "]"
	}
	if f.Optional || f.PrimaryKey {
		t = "Optional[" + t + "]"
	}
	return t
}

// PyFieldArgs renders the argument list of the SQLModel Field(...) call.
func (f FieldContext) PyFieldArgs() string {
	var args []string
	switch {
	case f.PrimaryKey:
		args = append(args, "default=None", "primary_key=True")
	case f.Default != "":
		args = append(args, "default="+f.Default)
	case f.Optional:
		args = append(args, "default=None")
	}
	if f.ForeignKey != nil {
		args = append(args, fmt.Sprintf("foreign_key=%q",
			strings.ToLower(f.ForeignKey.Model)+"."+f.ForeignKey.Column))
	}
	return strings.Join(args, ", ")
}

// CreateAnnotation is the annotation used in the create schema, where
// create_optional loosens requiredness without changing the stored type.
func (f FieldContext) CreateAnnotation() string {
	if f.CreateOptional && !f.Optional {
		t := f.PyType
		if f.List {
			t = "List[" + t + "]"
		}
		return "Optional[" + t + "]"
	}
	return f.PyAnnotation()
}

// UpdateAnnotation is the annotation used in the update schema. Updates are
// partial, so every field is Optional there.
func (f FieldContext) UpdateAnnotation() string {
	t := f.PyType
	if f.List {
		t = "List[" + t + "]"
	}
	return "Optional[" + t + "]"
}

// M2MContext describes one many-to-many relation from the owning model's
// point of view, carrying everything the CRUD template needs to maintain
// link rows.
type M2MContext struct {
	FieldName     string // <other>_ids on the owning model
	TargetModel   string
	TargetLower   string
	TargetKeyType string // python type of the target's primary key
	LinkModel     string
	LinkLower     string
	OwnFKColumn   string // link-table column pointing at the owning model
	TargetFKColumn string // link-table column pointing at the other model
}

// Settings carries the project-level generation knobs from site.yml.
type Settings struct {
	// PageSize is the default list page size baked into the generated
	// CRUD, API and store modules.
	PageSize int
	// PublicPath prefixes stored asset names that are not already URLs.
	PublicPath string
}

// DefaultSettings match the site.yml defaults.
var DefaultSettings = Settings{PageSize: 10, PublicPath: "/static"}

func (s Settings) normalized() Settings {
	if s.PageSize <= 0 {
		s.PageSize = DefaultSettings.PageSize
	}
	if s.PublicPath == "" {
		s.PublicPath = DefaultSettings.PublicPath
	}
	return s
}

// ModelContext is the full render context for one model's artifact set.
type ModelContext struct {
	Name        string
	LowerName   string
	Endpoint    string // plural path segment, e.g. "posts"
	Title       string // human heading, e.g. "Posts"
	SearchField string
	IsLinkTable bool
	Settings    Settings

	Fields []FieldContext
	M2M    []M2MContext
}

// ReadFields returns the read-schema projection in declaration order.
func (m ModelContext) ReadFields() []FieldContext { return m.filter(FieldContext.Readable) }

// CreateFields returns the create-schema projection.
func (m ModelContext) CreateFields() []FieldContext { return m.filter(FieldContext.Creatable) }

// UpdateFields returns the update-schema projection.
func (m ModelContext) UpdateFields() []FieldContext { return m.filter(FieldContext.Updatable) }

// ListFields returns the read-schema fields shown as list-page columns.
// The synthetic id-list fields are edited on the form but not listed.
func (m ModelContext) ListFields() []FieldContext {
	var out []FieldContext
	for _, f := range m.ReadFields() {
		if !f.List {
			out = append(out, f)
		}
	}
	return out
}

// FormFields returns the union of create and update schema fields, in
// declaration order, for the detail form.
func (m ModelContext) FormFields() []FieldContext {
	var out []FieldContext
	for _, f := range m.Fields {
		if f.Creatable() || f.Updatable() {
			out = append(out, f)
		}
	}
	return out
}

// StoredFields returns the fields persisted on the table, excluding the
// synthetic relation lists.
func (m ModelContext) StoredFields() []FieldContext {
	out := make([]FieldContext, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.Synthetic && f.Name != "password" {
			out = append(out, f)
		}
	}
	return out
}

// LookupTarget identifies a model whose records feed a lookup widget's
// option list on another model's form.
type LookupTarget struct {
	Name       string
	LowerName  string
	PluralName string
}

// LookupTargets returns the distinct models referenced by searchable-select
// and multi-select widgets on the form, in field order.
func (m ModelContext) LookupTargets() []LookupTarget {
	seen := map[string]bool{}
	var out []LookupTarget
	for _, f := range m.FormFields() {
		w := f.Widget
		if w.TargetModel == "" || seen[w.TargetModel] {
			continue
		}
		if w.Widget != schema.WidgetSearchSelect && w.Widget != schema.WidgetMultiSelect {
			continue
		}
		seen[w.TargetModel] = true
		out = append(out, LookupTarget{
			Name:       w.TargetModel,
			LowerName:  strings.ToLower(w.TargetModel),
			PluralName: inflect.Capitalize(inflect.Pluralize(w.TargetModel)),
		})
	}
	return out
}

// HasPassword reports whether the model carries the write-only password
// field, which is hashed instead of stored verbatim.
func (m ModelContext) HasPassword() bool {
	for _, f := range m.Fields {
		if f.Name == "password" {
			return true
		}
	}
	return false
}

// HasAssets reports whether any field renders an image or file widget,
// which need the public-path URL helper on the generated pages.
func (m ModelContext) HasAssets() bool {
	for _, f := range m.Fields {
		if f.Widget.Widget == schema.WidgetImage || f.Widget.Widget == schema.WidgetFile {
			return true
		}
	}
	return false
}

// EnumFields returns the fields that need a python Enum class.
func (m ModelContext) EnumFields() []FieldContext {
	var out []FieldContext
	for _, f := range m.Fields {
		if f.Enum {
			out = append(out, f)
		}
	}
	return out
}

// FilterFields returns the scalar fields usable as list-page filters.
func (m ModelContext) FilterFields() []FieldContext {
	var out []FieldContext
	for _, f := range m.Fields {
		if f.Synthetic || !f.Readable() {
			continue
		}
		if f.Widget.Widget == schema.WidgetSwitch || f.Widget.Widget == schema.WidgetSelect || f.Widget.Widget == schema.WidgetSearchSelect {
			out = append(out, f)
		}
	}
	return out
}

func (m ModelContext) filter(keep func(FieldContext) bool) []FieldContext {
	var out []FieldContext
	for _, f := range m.Fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// BuildContexts prepares the render context for every model in registry
// order. Link tables are included (their SQLModel table must exist) but are
// flagged so the page, route and menu emitters can skip them.
func BuildContexts(reg *schema.Registry, edges []schema.RelationshipEdge, settings Settings) []ModelContext {
	classifier := classify.New(reg, edges)
	settings = settings.normalized()

	var out []ModelContext
	for _, m := range reg.Models() {
		mc := ModelContext{
			Name:        m.Name,
			LowerName:   m.LowerName(),
			Endpoint:    inflect.Pluralize(m.LowerName()),
			Title:       inflect.Capitalize(inflect.Pluralize(m.Name)),
			SearchField: m.SearchField,
			IsLinkTable: m.IsLinkTable,
			Settings:    settings,
		}

		for _, f := range m.Fields {
			mc.Fields = append(mc.Fields, buildFieldContext(m, f, classifier))
		}

		for _, e := range edges {
			if e.Kind != schema.EdgeManyToMany {
				continue
			}
			switch m.Name {
			case e.Source:
				mc.M2M = append(mc.M2M, m2mContext(reg, e, e.Target, e.SourceFKColumn, e.TargetFKColumn))
			case e.Target:
				mc.M2M = append(mc.M2M, m2mContext(reg, e, e.Source, e.TargetFKColumn, e.SourceFKColumn))
			}
		}

		out = append(out, mc)
	}
	return out
}

func m2mContext(reg *schema.Registry, e schema.RelationshipEdge, other, ownCol, otherCol string) M2MContext {
	link, _ := reg.Get(e.LinkModel)
	target, _ := reg.Get(other)
	keyType := "int"
	if pks := target.PrimaryKeyFields(); len(pks) == 1 {
		keyType = pyType(target, pks[0])
	}
	return M2MContext{
		FieldName:      target.LowerName() + "_ids",
		TargetModel:    target.Name,
		TargetLower:    target.LowerName(),
		TargetKeyType:  keyType,
		LinkModel:      link.Name,
		LinkLower:      link.LowerName(),
		OwnFKColumn:    ownCol,
		TargetFKColumn: otherCol,
	}
}

func buildFieldContext(m *schema.ModelDefinition, f *schema.FieldDefinition, classifier *classify.Classifier) FieldContext {
	fc := FieldContext{
		Name:           f.Name,
		PyType:         pyType(m, f),
		TSType:         tsType(f),
		Optional:       f.Optional,
		List:           f.List,
		PrimaryKey:     f.PrimaryKey,
		Enum:           f.Type == schema.TypeEnum,
		EnumValues:     f.EnumValues,
		ForeignKey:     f.ForeignKey,
		Synthetic:      f.Synthetic,
		Widget:         classifier.FieldSpec(m, f),
		Permissions:    f.Props.Permissions,
		CreateOptional: f.Props.CreateOptional,
		UpdateOptional: f.Props.UpdateOptional,
		SearchField:    f.Name == m.SearchField,
	}
	if f.Default != nil {
		fc.Default = pyLiteral(m, f)
		fc.TSDefault = tsLiteral(f)
	}
	return fc
}

// pyType maps a field to its python type for the SQLModel table and
// schemas. Enums get a model-scoped class name.
func pyType(m *schema.ModelDefinition, f *schema.FieldDefinition) string {
	switch f.Type {
	case schema.TypeInt:
		return "int"
	case schema.TypeFloat:
		return "float"
	case schema.TypeBool:
		return "bool"
	case schema.TypeDatetime:
		return "datetime"
	case schema.TypeEnum:
		return enumClassName(m.Name, f.Name)
	default:
		return "str"
	}
}

func tsType(f *schema.FieldDefinition) string {
	var t string
	switch f.Type {
	case schema.TypeInt, schema.TypeFloat:
		t = "number"
	case schema.TypeBool:
		t = "boolean"
	default:
		t = "string"
	}
	if f.List {
		t += "[]"
	}
	return t
}

func enumClassName(model, field string) string {
	return model + inflect.Camelize(field) + "Enum"
}

func pyLiteral(m *schema.ModelDefinition, f *schema.FieldDefinition) string {
	d := f.Default
	switch d.Kind {
	case schema.LitBool:
		if d.Text == "true" {
			return "True"
		}
		return "False"
	case schema.LitString:
		return fmt.Sprintf("%q", d.Text)
	case schema.LitEnumMember:
		return enumClassName(m.Name, f.Name) + "." + d.Text
	default:
		return d.Text
	}
}

func tsLiteral(f *schema.FieldDefinition) string {
	d := f.Default
	switch d.Kind {
	case schema.LitString:
		return fmt.Sprintf("%q", d.Text)
	case schema.LitEnumMember:
		return fmt.Sprintf("%q", d.Text)
	default:
		return d.Text
	}
}
