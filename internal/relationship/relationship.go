// Package relationship defines the directed edges between symbols
// (calls, extends, implements, uses, defines, references) and their
// semantic duals, grounded on original_source/src/relationship/mod.rs.
package relationship

// Kind enumerates the relationship kinds. Each kind has an inverse that
// is its semantic dual; storage holds one direction, readers may
// traverse either (spec.md §3).
type Kind string

const (
	Calls         Kind = "Calls"
	CalledBy      Kind = "CalledBy"
	Extends       Kind = "Extends"
	ExtendedBy    Kind = "ExtendedBy"
	Implements    Kind = "Implements"
	ImplementedBy Kind = "ImplementedBy"
	Uses          Kind = "Uses"
	UsedBy        Kind = "UsedBy"
	Defines       Kind = "Defines"
	DefinedIn     Kind = "DefinedIn"
	References    Kind = "References"
	ReferencedBy  Kind = "ReferencedBy"
)

// String returns the stored representation of k.
func (k Kind) String() string { return string(k) }

// ParseKind parses a stored relationship kind string, defaulting to
// References for unrecognized input (the most conservative usage-only
// classification) rather than panicking on data from an older schema
// version.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case Calls, CalledBy, Extends, ExtendedBy, Implements, ImplementedBy,
		Uses, UsedBy, Defines, DefinedIn, References, ReferencedBy:
		return Kind(s)
	default:
		return References
	}
}

// Inverse returns the semantic dual of k.
func (k Kind) Inverse() Kind {
	switch k {
	case Calls:
		return CalledBy
	case CalledBy:
		return Calls
	case Extends:
		return ExtendedBy
	case ExtendedBy:
		return Extends
	case Implements:
		return ImplementedBy
	case ImplementedBy:
		return Implements
	case Uses:
		return UsedBy
	case UsedBy:
		return Uses
	case Defines:
		return DefinedIn
	case DefinedIn:
		return Defines
	case References:
		return ReferencedBy
	case ReferencedBy:
		return References
	default:
		return k
	}
}

// IsHierarchical reports whether k is an Extends/Implements family kind.
func (k Kind) IsHierarchical() bool {
	switch k {
	case Extends, ExtendedBy, Implements, ImplementedBy:
		return true
	default:
		return false
	}
}

// IsUsage reports whether k is a Calls/Uses/References family kind.
func (k Kind) IsUsage() bool {
	switch k {
	case Calls, CalledBy, Uses, UsedBy, References, ReferencedBy:
		return true
	default:
		return false
	}
}

// IsReverseDependency reports whether k is one of the "who depends on
// me" kinds traversed by GetImpactRadius (spec.md §4.8): CalledBy,
// UsedBy, ImplementedBy, ReferencedBy.
func (k Kind) IsReverseDependency() bool {
	switch k {
	case CalledBy, UsedBy, ImplementedBy, ReferencedBy:
		return true
	default:
		return false
	}
}

// Metadata carries optional positional/context information about where
// a relationship occurs in source.
type Metadata struct {
	Line    uint32
	Column  uint16
	Context string

	HasLine   bool
	HasColumn bool
}

// Relationship is a typed, weighted edge between two symbols (the
// endpoints themselves are carried separately by the caller — see
// docindex's relationshipHit).
type Relationship struct {
	Kind     Kind
	Weight   float32
	Metadata Metadata
}

// New constructs a Relationship with the default weight of 1.0.
func New(kind Kind) Relationship {
	return Relationship{Kind: kind, Weight: 1.0}
}

// WithWeight returns a copy of r with Weight set.
func (r Relationship) WithWeight(w float32) Relationship {
	r.Weight = w
	return r
}

// WithMetadata returns a copy of r with Metadata set.
func (r Relationship) WithMetadata(m Metadata) Relationship {
	r.Metadata = m
	return r
}

// AtPosition returns a copy of m with Line/Column set.
func (m Metadata) AtPosition(line uint32, column uint16) Metadata {
	m.Line = line
	m.Column = column
	m.HasLine = true
	m.HasColumn = true
	return m
}

// WithContext returns a copy of m with Context set.
func (m Metadata) WithContext(ctx string) Metadata {
	m.Context = ctx
	return m
}
