package schema

// EdgeKind distinguishes the two relationship shapes the resolver detects.
type EdgeKind int

const (
	// EdgeOneToMany is a foreign-key relation: Source is the "one" side,
	// Target the owning model carrying the FK field.
	EdgeOneToMany EdgeKind = iota
	// EdgeManyToMany is a relation through a link table.
	EdgeManyToMany
)

// String returns the string representation of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeOneToMany:
		return "one-to-many"
	case EdgeManyToMany:
		return "many-to-many"
	default:
		return "unknown"
	}
}

// RelationshipEdge is one detected relation between two models. The edge
// list is produced once per sync run, after the whole registry is loaded,
// and is immutable afterwards.
type RelationshipEdge struct {
	Kind   EdgeKind
	Source string
	Target string

	// FKField is the foreign-key field on Target (one-to-many only).
	FKField string

	// Link table metadata (many-to-many only).
	LinkModel      string
	SourceFKColumn string
	TargetFKColumn string
}

// FKEdgeFor returns the one-to-many edge whose FK side is the given field of
// the given model, or nil.
func FKEdgeFor(edges []RelationshipEdge, model, field string) *RelationshipEdge {
	for i := range edges {
		e := &edges[i]
		if e.Kind == EdgeOneToMany && e.Target == model && e.FKField == field {
			return e
		}
	}
	return nil
}
