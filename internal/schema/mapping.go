package schema

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
)

// TypeField is the discriminator every document carries, dispatching
// Bleve's per-type document mapping lookup. Every document the index
// stores — symbol, relationship, file_info, import, metadata — sets
// this field, per spec.md §2's single unified store.
const TypeField = "doc_type"

// Document type discriminator values, stored verbatim in TypeField.
const (
	DocTypeSymbol       = "symbol"
	DocTypeRelationship = "relationship"
	DocTypeFileInfo     = "file_info"
	DocTypeImport       = "import"
	DocTypeMetadata     = "metadata"
)

const ngramFilterName = "codanna_ngram_filter"

// Build constructs the single IndexMapping shared by all five document
// types. Each type gets its own mapping.DocumentMapping registered
// under its TypeField value, and maps the "doc_type" field itself as an
// exact, untokenized term so queries can filter on it verbatim; Bleve
// dispatches incoming documents to the right mapping by their type
// (im.TypeField).
func Build() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	im.TypeField = TypeField
	im.DefaultAnalyzer = CodeAnalyzerName

	if err := im.AddCustomAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": CodeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			CodeStopFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("schema: add code analyzer: %w", err)
	}

	if err := im.AddCustomTokenFilter(ngramFilterName, map[string]interface{}{
		"type": ngram.Name,
		"min":  float64(NgramMin),
		"max":  float64(NgramMax),
	}); err != nil {
		return nil, fmt.Errorf("schema: add ngram filter: %w", err)
	}
	if err := im.AddCustomAnalyzer(NgramAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": single.Name,
		"token_filters": []string{
			lowercase.Name,
			ngramFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("schema: add ngram analyzer: %w", err)
	}

	for docType, dm := range map[string]*mapping.DocumentMapping{
		DocTypeSymbol:       symbolMapping(),
		DocTypeRelationship: relationshipMapping(),
		DocTypeFileInfo:     fileInfoMapping(),
		DocTypeImport:       importMapping(),
		DocTypeMetadata:     metadataMapping(),
	} {
		dm.AddFieldMappingsAt(TypeField, exactField())
		im.AddDocumentMapping(docType, dm)
	}

	return im, nil
}

func exactField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	fm.IncludeInAll = false
	return fm
}

func fullTextField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = CodeAnalyzerName
	fm.Store = true
	return fm
}

func ngramField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = NgramAnalyzerName
	fm.Store = false
	fm.IncludeInAll = false
	return fm
}

func numericField() *mapping.FieldMapping {
	fm := bleve.NewNumericFieldMapping()
	fm.Store = true
	fm.IncludeInAll = false
	return fm
}

func boolField() *mapping.FieldMapping {
	fm := bleve.NewBooleanFieldMapping()
	fm.Store = true
	fm.IncludeInAll = false
	return fm
}

// symbolMapping covers the symbol document: exact name for literal
// lookup, a parallel n-gram field for fuzzy/substring search, full-text
// fields for doc comments/signatures, numeric fast fields for the ids
// the vector subsystem back-patches (cluster_id, vector_id) and the
// has_vector flag used to short-circuit semantic search.
func symbolMapping() *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("name", exactField())
	dm.AddFieldMappingsAt("name_text", ngramField())
	dm.AddFieldMappingsAt("kind", exactField())
	dm.AddFieldMappingsAt("visibility", exactField())
	dm.AddFieldMappingsAt("language", exactField())
	dm.AddFieldMappingsAt("module_path", exactField())
	dm.AddFieldMappingsAt("file_path", exactField())
	dm.AddFieldMappingsAt("scope", exactField())
	dm.AddFieldMappingsAt("doc_comment", fullTextField())
	dm.AddFieldMappingsAt("signature", fullTextField())
	dm.AddFieldMappingsAt("symbol_id", numericField())
	dm.AddFieldMappingsAt("file_id", numericField())
	dm.AddFieldMappingsAt("cluster_id", numericField())
	dm.AddFieldMappingsAt("vector_id", numericField())
	dm.AddFieldMappingsAt("has_vector", boolField())
	dm.AddFieldMappingsAt("start_line", numericField())
	dm.AddFieldMappingsAt("start_column", numericField())
	dm.AddFieldMappingsAt("end_line", numericField())
	dm.AddFieldMappingsAt("end_column", numericField())
	return dm
}

// relationshipMapping covers the relationship document: from/to symbol
// ids, a discriminated kind, and positional context for impact-radius
// and call-graph traversal.
func relationshipMapping() *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("from_symbol_id", numericField())
	dm.AddFieldMappingsAt("to_symbol_id", numericField())
	dm.AddFieldMappingsAt("kind", exactField())
	dm.AddFieldMappingsAt("weight", numericField())
	dm.AddFieldMappingsAt("context", fullTextField())
	dm.AddFieldMappingsAt("line", numericField())
	dm.AddFieldMappingsAt("column", numericField())
	return dm
}

// fileInfoMapping covers per-file bookkeeping: path, language, hash,
// and timestamps used to decide whether a file needs reindexing.
func fileInfoMapping() *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("file_id", numericField())
	dm.AddFieldMappingsAt("path", exactField())
	dm.AddFieldMappingsAt("language", exactField())
	dm.AddFieldMappingsAt("content_hash", exactField())
	dm.AddFieldMappingsAt("indexed_at", numericField())
	dm.AddFieldMappingsAt("symbol_count", numericField())
	return dm
}

// importMapping covers a file's import statements, used to answer
// "what does this file depend on" without walking relationships.
func importMapping() *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("file_id", numericField())
	dm.AddFieldMappingsAt("path", exactField())
	dm.AddFieldMappingsAt("alias", exactField())
	dm.AddFieldMappingsAt("is_glob", boolField())
	dm.AddFieldMappingsAt("is_type_only", boolField())
	return dm
}

// metadataMapping covers index-wide bookkeeping documents: schema
// version, embedding model identity, and other singleton facts that
// don't belong to any one symbol or file.
func metadataMapping() *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("key", exactField())
	dm.AddFieldMappingsAt("value", fullTextField())
	return dm
}
