// Package symbol defines the in-memory representation of an indexed
// program entity: its identity, location, kind, visibility, scope and
// optional documentation/signature. It mirrors the original codanna
// symbol model (original_source/src/symbol/mod.rs) translated into
// idiomatic Go.
package symbol

import (
	"fmt"
	"strings"

	"github.com/tokoba/codanna-go/internal/ids"
)

// Kind enumerates the supported symbol kinds.
type Kind string

const (
	KindFunction  Kind = "Function"
	KindMethod    Kind = "Method"
	KindStruct    Kind = "Struct"
	KindEnum      Kind = "Enum"
	KindTrait     Kind = "Trait"
	KindInterface Kind = "Interface"
	KindClass     Kind = "Class"
	KindModule    Kind = "Module"
	KindVariable  Kind = "Variable"
	KindConstant  Kind = "Constant"
	KindField     Kind = "Field"
	KindParameter Kind = "Parameter"
	KindTypeAlias Kind = "TypeAlias"
	KindMacro     Kind = "Macro"
)

// ParseKind parses a Kind from its string form, defaulting to
// KindFunction for unknown values rather than erroring, matching the
// original's from_str_with_default behavior.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindFunction, KindMethod, KindStruct, KindEnum, KindTrait, KindInterface,
		KindClass, KindModule, KindVariable, KindConstant, KindField, KindParameter,
		KindTypeAlias, KindMacro:
		return Kind(s)
	default:
		return KindFunction
	}
}

// Visibility is the access level of a symbol.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityCrate   Visibility = "Crate"
	VisibilityModule  Visibility = "Module"
	VisibilityPrivate Visibility = "Private"
)

// Symbol is the fully-resolved, queryable representation of a code
// entity. Optional vector fields are zero-valued until the post-commit
// vector pass (§4.6) back-patches them.
type Symbol struct {
	Id         ids.SymbolId
	Name       string
	Kind       Kind
	FileId     ids.FileId
	Range      ids.Range
	FilePath   string
	Signature  string
	DocComment string
	ModulePath string
	Visibility Visibility
	Scope      ScopeContext
	Language   string

	// Vector fields, populated by the post-commit pass (§4.5, §4.6).
	ClusterId ids.ClusterId
	VectorId  ids.VectorId
	HasVector bool
}

// New constructs a Symbol with required fields; optional fields default
// to their zero value, matching the original's builder-style Symbol::new.
func New(id ids.SymbolId, name string, kind Kind, fileId ids.FileId, rng ids.Range) *Symbol {
	return &Symbol{
		Id:         id,
		Name:       name,
		Kind:       kind,
		FileId:     fileId,
		Range:      rng,
		Visibility: VisibilityPrivate,
		Scope:      ScopeContext{Kind: ScopeModule},
	}
}

// EmbeddingText builds the synthetic text enqueued for embedding
// generation at add_symbol time (§4.5): "{name} {kind} {signature?}".
func (s *Symbol) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte(' ')
	b.WriteString(string(s.Kind))
	if s.Signature != "" {
		b.WriteByte(' ')
		b.WriteString(s.Signature)
	}
	return b.String()
}

// String renders a human-readable multi-line summary of the symbol,
// grounded on original_source/src/symbol/mod.rs's Display impl.
func (s *Symbol) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Signature != "" {
		fmt.Fprintf(&b, "\n  Signature: %s", s.Signature)
	}
	fmt.Fprintf(&b, "\n  Kind: %s", s.Kind)
	fmt.Fprintf(&b, "\n  Visibility: %s", s.Visibility)
	fmt.Fprintf(&b, "\n  Location: file#%d %d:%d-%d:%d",
		s.FileId.Value(), s.Range.StartLine, s.Range.StartColumn, s.Range.EndLine, s.Range.EndColumn)
	if s.ModulePath != "" {
		fmt.Fprintf(&b, "\n  Module: %s", s.ModulePath)
	}
	return b.String()
}
