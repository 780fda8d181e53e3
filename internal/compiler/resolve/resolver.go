// Package resolve turns the loaded registry into a relationship graph. It
// runs exactly once per sync, after every model file has been loaded, so
// cross-file references resolve regardless of load order.
package resolve

import (
	"fmt"

	"github.com/IronSpiderMan/OneSite/internal/schema"
)

// Resolve validates foreign keys, infers implicit ones, verifies link
// tables and injects the synthetic many-to-many id-list fields. It mutates
// the registry's models in place and returns the edge list in deterministic
// order (registry order, then field order).
func Resolve(reg *schema.Registry) ([]schema.RelationshipEdge, error) {
	if err := validateExplicit(reg); err != nil {
		return nil, err
	}
	inferImplicit(reg)

	var edges []schema.RelationshipEdge
	for _, m := range reg.Models() {
		if m.IsLinkTable {
			edge, err := resolveLinkTable(reg, m)
			if err != nil {
				return nil, err
			}
			edges = append(edges, edge)
			continue
		}
		for _, f := range m.Fields {
			if f.ForeignKey == nil {
				continue
			}
			edges = append(edges, schema.RelationshipEdge{
				Kind:    schema.EdgeOneToMany,
				Source:  f.ForeignKey.Model,
				Target:  m.Name,
				FKField: f.Name,
			})
		}
	}
	return edges, nil
}

// validateExplicit checks every declared @fk against the registry. Explicit
// references are an assertion by the author, so a dangling one is an error
// rather than the silent degradation applied to inferred keys.
func validateExplicit(reg *schema.Registry) error {
	for _, m := range reg.Models() {
		for _, f := range m.Fields {
			fk := f.ForeignKey
			if fk == nil || fk.Implicit {
				continue
			}
			target, ok := reg.Get(fk.Model)
			if !ok {
				return &ResolveError{
					Model:   m.Name,
					Field:   f.Name,
					Message: fmt.Sprintf("foreign key references unknown model %s", fk.Model),
				}
			}
			if target.Field(fk.Column) == nil {
				return &ResolveError{
					Model:   m.Name,
					Field:   f.Name,
					Message: fmt.Sprintf("foreign key references unknown column %s.%s", fk.Model, fk.Column),
				}
			}
		}
	}
	return nil
}

// inferImplicit turns int fields named <model>_id into foreign keys when a
// model with that name exists (matched case-insensitively). Fields with no
// matching model stay plain ints.
func inferImplicit(reg *schema.Registry) {
	for _, m := range reg.Models() {
		if m.IsLinkTable {
			continue
		}
		for _, f := range m.Fields {
			if f.ForeignKey != nil || f.Type != schema.TypeInt {
				continue
			}
			base, ok := cutIDSuffix(f.Name)
			if !ok {
				continue
			}
			target, ok := reg.GetFold(base)
			if !ok {
				continue
			}
			pks := target.PrimaryKeyFields()
			if len(pks) != 1 {
				continue
			}
			f.ForeignKey = &schema.ForeignKey{
				Model:    target.Name,
				Column:   pks[0].Name,
				Implicit: true,
			}
		}
	}
}

// resolveLinkTable checks the link-table shape (exactly two FK fields that
// together form the primary key, both resolvable) and injects the synthetic
// <other>_ids fields into both referenced models.
func resolveLinkTable(reg *schema.Registry, m *schema.ModelDefinition) (schema.RelationshipEdge, error) {
	fks := m.ForeignKeyFields()
	if len(fks) != 2 {
		return schema.RelationshipEdge{}, &LinkTableError{
			Model:   m.Name,
			Message: fmt.Sprintf("must declare exactly two foreign key fields, found %d", len(fks)),
		}
	}
	if len(m.PrimaryKeyFields()) != 2 || !fks[0].PrimaryKey || !fks[1].PrimaryKey {
		return schema.RelationshipEdge{}, &LinkTableError{
			Model:   m.Name,
			Message: "the two foreign key fields must compose the primary key",
		}
	}
	for _, f := range m.Fields {
		if f.PrimaryKey && f.ForeignKey == nil {
			return schema.RelationshipEdge{}, &LinkTableError{
				Model:   m.Name,
				Message: fmt.Sprintf("primary key field %s is not a foreign key", f.Name),
			}
		}
	}

	left, lok := reg.Get(fks[0].ForeignKey.Model)
	right, rok := reg.Get(fks[1].ForeignKey.Model)
	if !lok || !rok {
		missing := fks[0].ForeignKey.Model
		if lok {
			missing = fks[1].ForeignKey.Model
		}
		return schema.RelationshipEdge{}, &LinkTableError{
			Model:   m.Name,
			Message: fmt.Sprintf("references unknown model %s", missing),
		}
	}
	if left.IsLinkTable || right.IsLinkTable {
		return schema.RelationshipEdge{}, &LinkTableError{
			Model:   m.Name,
			Message: "cannot reference another link table",
		}
	}

	injectIDList(left, right)
	injectIDList(right, left)

	return schema.RelationshipEdge{
		Kind:           schema.EdgeManyToMany,
		Source:         left.Name,
		Target:         right.Name,
		LinkModel:      m.Name,
		SourceFKColumn: fks[0].Name,
		TargetFKColumn: fks[1].Name,
	}, nil
}

// injectIDList appends the synthetic <other>_ids field to model unless an
// equally named field already exists. The element type follows the target's
// primary key, so non-integer keys round-trip through the id list.
func injectIDList(model, other *schema.ModelDefinition) {
	name := other.LowerName() + "_ids"
	if model.Field(name) != nil {
		return
	}
	elemType := schema.TypeInt
	if pks := other.PrimaryKeyFields(); len(pks) == 1 {
		elemType = pks[0].Type
	}
	model.Fields = append(model.Fields, &schema.FieldDefinition{
		Name:      name,
		Type:      elemType,
		Optional:  true,
		List:      true,
		Synthetic: true,
		RelTarget: other.Name,
		Props:     schema.SiteProps{Permissions: schema.DefaultPermissions},
	})
}

func cutIDSuffix(name string) (string, bool) {
	const suffix = "_id"
	if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
		return "", false
	}
	return name[:len(name)-len(suffix)], true
}
