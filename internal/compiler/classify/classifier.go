// Package classify assigns a UI widget to every field of a resolved model.
// Classification runs strictly after relationship resolution: the FK and
// id-list widgets need the final edge list and the target models' search
// fields.
package classify

import (
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/IronSpiderMan/OneSite/internal/schema"
)

// Classifier resolves widgets against a fully-resolved registry.
type Classifier struct {
	registry *schema.Registry
	edges    []schema.RelationshipEdge
}

// New returns a classifier over the given registry and edge list.
func New(registry *schema.Registry, edges []schema.RelationshipEdge) *Classifier {
	return &Classifier{registry: registry, edges: edges}
}

// ModelSpecs classifies every field of the model, in declaration order.
func (c *Classifier) ModelSpecs(m *schema.ModelDefinition) []schema.ComponentSpec {
	specs := make([]schema.ComponentSpec, 0, len(m.Fields))
	for _, f := range m.Fields {
		specs = append(specs, c.FieldSpec(m, f))
	}
	return specs
}

// FieldSpec returns the widget assignment for one field. The rules apply in
// a fixed order and the first match wins:
//
//  1. an explicit component site prop
//  2. foreign-key fields get a searchable lookup on the target model
//  3. synthetic _ids fields get a multi-select on the target model
//  4. bool fields switch, enum fields select
//  5. image-like names (image, avatar, *_image)
//  6. *_file names, downloadable unless overridden
//  7. everything else is plain text
func (c *Classifier) FieldSpec(m *schema.ModelDefinition, f *schema.FieldDefinition) schema.ComponentSpec {
	spec := schema.ComponentSpec{Field: f.Name, Widget: schema.WidgetText}

	if f.Props.Component != "" {
		if w, ok := schema.ParseWidgetKind(f.Props.Component); ok {
			spec.Widget = w
			c.decorate(&spec, m, f)
			return spec
		}
	}

	switch {
	case f.ForeignKey != nil && schema.FKEdgeFor(c.edges, m.Name, f.Name) != nil:
		spec.Widget = schema.WidgetSearchSelect
	case f.Synthetic && f.List:
		spec.Widget = schema.WidgetMultiSelect
	case f.Type == schema.TypeBool:
		spec.Widget = schema.WidgetSwitch
	case f.Type == schema.TypeEnum:
		spec.Widget = schema.WidgetSelect
	case isImageName(f.Name):
		spec.Widget = schema.WidgetImage
	case strings.HasSuffix(f.Name, "_file"):
		spec.Widget = schema.WidgetFile
	}

	c.decorate(&spec, m, f)
	return spec
}

// decorate fills the widget-specific props once a widget is chosen.
func (c *Classifier) decorate(spec *schema.ComponentSpec, m *schema.ModelDefinition, f *schema.FieldDefinition) {
	switch spec.Widget {
	case schema.WidgetSelect:
		spec.Options = append([]string(nil), f.EnumValues...)
	case schema.WidgetFile:
		// Downloadable unless the author says otherwise
		if f.Props.AllowDownload != nil {
			spec.AllowDownload = *f.Props.AllowDownload
		} else {
			spec.AllowDownload = true
		}
	case schema.WidgetSearchSelect:
		target := f.RelTarget
		if fk := f.ForeignKey; fk != nil {
			target = fk.Model
		}
		c.bindLookup(spec, target)
	case schema.WidgetMultiSelect:
		c.bindLookup(spec, f.RelTarget)
	}
}

// bindLookup points a lookup widget at the target model's search endpoint.
func (c *Classifier) bindLookup(spec *schema.ComponentSpec, targetName string) {
	target, ok := c.registry.Get(targetName)
	if !ok {
		return
	}
	spec.TargetModel = target.Name
	spec.Endpoint = "/" + inflect.Pluralize(target.LowerName())
	spec.LabelField = target.SearchField
}

func isImageName(name string) bool {
	return name == "image" || name == "avatar" || strings.HasSuffix(name, "_image")
}
