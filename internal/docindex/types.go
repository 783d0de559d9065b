package docindex

import (
	"github.com/tokoba/codanna-go/internal/schema"
)

// symbolDoc is the Bleve document shape for a symbol. Field names are
// the ones internal/schema's symbolMapping maps.
type symbolDoc struct {
	DocType     string `json:"doc_type"`
	SymbolId    uint32 `json:"symbol_id"`
	Name        string `json:"name"`
	NameText    string `json:"name_text"`
	Kind        string `json:"kind"`
	FileId      uint32 `json:"file_id"`
	FilePath    string `json:"file_path"`
	Signature   string `json:"signature"`
	DocComment  string `json:"doc_comment"`
	ModulePath  string `json:"module_path"`
	Visibility  string `json:"visibility"`
	Scope       string `json:"scope"`
	Language    string `json:"language"`
	StartLine   uint32 `json:"start_line"`
	StartColumn uint16 `json:"start_column"`
	EndLine     uint32 `json:"end_line"`
	EndColumn   uint16 `json:"end_column"`
	ClusterId   uint32 `json:"cluster_id"`
	VectorId    uint32 `json:"vector_id"`
	HasVector   bool   `json:"has_vector"`
}

// relationshipDoc is the Bleve document shape for a relationship edge.
type relationshipDoc struct {
	DocType      string  `json:"doc_type"`
	FromSymbolId uint32  `json:"from_symbol_id"`
	ToSymbolId   uint32  `json:"to_symbol_id"`
	Kind         string  `json:"kind"`
	Weight       float32 `json:"weight"`
	Context      string  `json:"context"`
	Line         uint32  `json:"line"`
	Column       uint16  `json:"column"`
}

// fileInfoDoc is the Bleve document shape for per-file bookkeeping.
type fileInfoDoc struct {
	DocType     string `json:"doc_type"`
	FileId      uint32 `json:"file_id"`
	Path        string `json:"path"`
	Language    string `json:"language"`
	ContentHash string `json:"content_hash"`
	IndexedAt   int64  `json:"indexed_at"`
	SymbolCount int    `json:"symbol_count"`
}

// importDoc is the Bleve document shape for one import statement.
type importDoc struct {
	DocType    string `json:"doc_type"`
	FileId     uint32 `json:"file_id"`
	Path       string `json:"path"`
	Alias      string `json:"alias"`
	IsGlob     bool   `json:"is_glob"`
	IsTypeOnly bool   `json:"is_type_only"`
}

// metadataDoc is the Bleve document shape for an index-wide singleton
// fact (schema version, embedding model identity, the persisted symbol
// counter).
type metadataDoc struct {
	DocType string `json:"doc_type"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

func (symbolDoc) Type() string       { return schema.DocTypeSymbol }
func (relationshipDoc) Type() string { return schema.DocTypeRelationship }
func (fileInfoDoc) Type() string     { return schema.DocTypeFileInfo }
func (importDoc) Type() string       { return schema.DocTypeImport }
func (metadataDoc) Type() string     { return schema.DocTypeMetadata }
