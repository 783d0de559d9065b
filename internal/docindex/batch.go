package docindex

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	"github.com/tokoba/codanna-go/internal/cerr"
	"github.com/tokoba/codanna-go/internal/embedding"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/relationship"
	"github.com/tokoba/codanna-go/internal/retry"
	"github.com/tokoba/codanna-go/internal/schema"
	"github.com/tokoba/codanna-go/internal/symbol"
)

// batch accumulates writes for one StartBatch/CommitBatch cycle. It is
// not safe for concurrent use: the single-writer contract (spec.md
// §4.2) means one goroutine owns a batch at a time.
type batch struct {
	bleveBatch *bleve.Batch
	pending    []embedding.Pending
	newSymbols map[ids.SymbolId]*symbol.Symbol
}

// StartBatch claims the writer slot and opens a new batch. If another
// batch is already active it fails with a *cerr.Error carrying
// cerr.CodeNoActiveBatch and leaves the active batch untouched.
func (di *DocumentIndex) StartBatch() error {
	if !di.writerMu.tryAcquire() {
		return cerr.New(cerr.CodeNoActiveBatch, "a batch is already active on this DocumentIndex", nil)
	}
	di.counter.BeginBatch()
	di.current = &batch{
		bleveBatch: di.bleveIndex.NewBatch(),
		newSymbols: make(map[ids.SymbolId]*symbol.Symbol),
	}
	return nil
}

func (di *DocumentIndex) requireBatch() (*batch, error) {
	if di.current == nil {
		return nil, cerr.NoActiveBatch()
	}
	return di.current, nil
}

// AddSymbol allocates (if sym.Id is zero) or reuses sym's SymbolId,
// stages its document, and enqueues it for embedding if sym carries no
// vector yet and a vector subsystem is configured.
func (di *DocumentIndex) AddSymbol(sym *symbol.Symbol) (ids.SymbolId, error) {
	b, err := di.requireBatch()
	if err != nil {
		return 0, err
	}

	if sym.Id.IsZero() {
		sym.Id = di.counter.Next()
	}

	// Spec.md §4.5: "the doc is pre-seeded with has_vector=0,
	// cluster_id=0, vector_id=symbol_id" — vector_id and symbol_id share
	// one numbering throughout, so a symbol never carries a vector_id
	// that didn't come from its own id.
	if di.vectors != nil && !sym.HasVector {
		sym.VectorId = ids.VectorId(sym.Id.Value())
	}

	doc := symbolDoc{
		DocType:     schema.DocTypeSymbol,
		SymbolId:    sym.Id.Value(),
		Name:        sym.Name,
		NameText:    sym.Name,
		Kind:        string(sym.Kind),
		FileId:      sym.FileId.Value(),
		FilePath:    sym.FilePath,
		Signature:   sym.Signature,
		DocComment:  sym.DocComment,
		ModulePath:  sym.ModulePath,
		Visibility:  string(sym.Visibility),
		Scope:       sym.Scope.Encode(),
		Language:    sym.Language,
		StartLine:   sym.Range.StartLine,
		StartColumn: sym.Range.StartColumn,
		EndLine:     sym.Range.EndLine,
		EndColumn:   sym.Range.EndColumn,
		ClusterId:   sym.ClusterId.Value(),
		VectorId:    sym.VectorId.Value(),
		HasVector:   sym.HasVector,
	}
	if err := b.bleveBatch.Index(symbolDocID(sym.Id.Value()), doc); err != nil {
		return 0, cerr.InvalidFieldValue("symbol", err)
	}
	b.newSymbols[sym.Id] = sym

	if !sym.HasVector && di.vectors != nil {
		b.pending = append(b.pending, embedding.Pending{SymbolId: sym.Id, Text: sym.EmbeddingText()})
	}

	return sym.Id, nil
}

// AddRelationship stages a relationship edge between two existing
// symbols.
func (di *DocumentIndex) AddRelationship(from, to ids.SymbolId, rel relationship.Relationship) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	doc := relationshipDoc{
		DocType:      schema.DocTypeRelationship,
		FromSymbolId: from.Value(),
		ToSymbolId:   to.Value(),
		Kind:         rel.Kind.String(),
		Weight:       rel.Weight,
		Context:      rel.Metadata.Context,
		Line:         rel.Metadata.Line,
		Column:       rel.Metadata.Column,
	}
	id := relationshipDocID(from.Value(), to.Value(), rel.Kind.String(), rel.Metadata.Line)
	if err := b.bleveBatch.Index(id, doc); err != nil {
		return cerr.InvalidFieldValue("relationship", err)
	}
	return nil
}

// AddImport stages one import statement for a file.
func (di *DocumentIndex) AddImport(fileID ids.FileId, path, alias string, isGlob, isTypeOnly bool) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	doc := importDoc{
		DocType:    schema.DocTypeImport,
		FileId:     fileID.Value(),
		Path:       path,
		Alias:      alias,
		IsGlob:     isGlob,
		IsTypeOnly: isTypeOnly,
	}
	if err := b.bleveBatch.Index(importDocID(fileID.Value(), path), doc); err != nil {
		return cerr.InvalidFieldValue("import", err)
	}
	return nil
}

// StoreFileInfo stages per-file bookkeeping (path, language, content
// hash, indexed-at timestamp, symbol count).
func (di *DocumentIndex) StoreFileInfo(fileID ids.FileId, path, language, contentHash string, indexedAt int64, symbolCount int) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	doc := fileInfoDoc{
		DocType:     schema.DocTypeFileInfo,
		FileId:      fileID.Value(),
		Path:        path,
		Language:    language,
		ContentHash: contentHash,
		IndexedAt:   indexedAt,
		SymbolCount: symbolCount,
	}
	if err := b.bleveBatch.Index(fileInfoDocID(fileID.Value()), doc); err != nil {
		return cerr.InvalidFieldValue("file_info", err)
	}
	return nil
}

// StoreMetadata stages an index-wide singleton key/value fact.
func (di *DocumentIndex) StoreMetadata(key, value string) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	doc := metadataDoc{DocType: schema.DocTypeMetadata, Key: key, Value: value}
	if err := b.bleveBatch.Index(metadataDocID(key), doc); err != nil {
		return cerr.InvalidFieldValue("metadata", err)
	}
	return nil
}

// DeleteSymbol stages removal of a symbol document.
func (di *DocumentIndex) DeleteSymbol(id ids.SymbolId) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	b.bleveBatch.Delete(symbolDocID(id.Value()))
	return nil
}

// DeleteRelationshipsForSymbol removes every relationship edge where
// id is either endpoint. Since Bleve batches can't delete by query,
// this resolves the matching doc ids first via a direct search.
func (di *DocumentIndex) DeleteRelationshipsForSymbol(ctx context.Context, id ids.SymbolId) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	from, err := di.GetRelationshipsFrom(ctx, id)
	if err != nil {
		return err
	}
	to, err := di.GetRelationshipsTo(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range from {
		b.bleveBatch.Delete(relationshipDocID(e.From.Value(), e.To.Value(), e.Rel.Kind.String(), e.Rel.Metadata.Line))
	}
	for _, e := range to {
		b.bleveBatch.Delete(relationshipDocID(e.From.Value(), e.To.Value(), e.Rel.Kind.String(), e.Rel.Metadata.Line))
	}
	return nil
}

// DeleteImportsForFile removes every import document for a file.
func (di *DocumentIndex) DeleteImportsForFile(ctx context.Context, fileID ids.FileId) error {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	imports, err := di.GetImportsForFile(ctx, fileID)
	if err != nil {
		return err
	}
	for _, imp := range imports {
		b.bleveBatch.Delete(importDocID(imp.FileId, imp.Path))
	}
	return nil
}

// RemoveFileDocuments removes a file's file_info document along with
// every symbol, relationship and import document that belongs to it —
// the full teardown used when a file is deleted or about to be
// reindexed from scratch. Spec.md §4.4: unlike every other write
// operation, this one may be called with no batch open, in which case
// it opens, stages, and commits a standalone batch of its own.
func (di *DocumentIndex) RemoveFileDocuments(ctx context.Context, fileID ids.FileId) error {
	if di.current != nil {
		return di.removeFileDocuments(ctx, di.current, fileID)
	}

	if err := di.StartBatch(); err != nil {
		return err
	}
	if err := di.removeFileDocuments(ctx, di.current, fileID); err != nil {
		di.current = nil
		di.writerMu.release()
		di.counter.Abort()
		return err
	}
	return di.CommitBatch(ctx)
}

func (di *DocumentIndex) removeFileDocuments(ctx context.Context, b *batch, fileID ids.FileId) error {
	q := conj(docTypeTerm(schema.DocTypeSymbol), termOn("file_id", strconv.FormatUint(uint64(fileID.Value()), 10)))
	res, err := di.runSearch(ctx, q, 1000000, []string{"symbol_id"})
	if err != nil {
		return err
	}
	for _, h := range res.Hits {
		sid := ids.SymbolId(fieldUint32(&searchHit{Fields: h.Fields}, "symbol_id"))
		if err := di.DeleteRelationshipsForSymbol(ctx, sid); err != nil {
			return err
		}
		b.bleveBatch.Delete(symbolDocID(sid.Value()))
	}

	if err := di.DeleteImportsForFile(ctx, fileID); err != nil {
		return err
	}

	b.bleveBatch.Delete(fileInfoDocID(fileID.Value()))
	return nil
}

// CommitBatch runs the staged batch through the storage engine under
// the retry policy (spec.md §4.3), and on success runs the post-commit
// vector pass: draining pending embeddings, assigning clusters, and
// back-patching the affected symbol documents with their
// cluster_id/vector_id/has_vector fields (spec.md §4.5-4.6). The writer
// slot stays claimed until CommitBatch returns, backoff sleeps
// included; readers never take that slot, so a commit that is backing
// off does not block them.
func (di *DocumentIndex) CommitBatch(ctx context.Context) (err error) {
	b, err := di.requireBatch()
	if err != nil {
		return err
	}
	defer func() {
		di.current = nil
		di.writerMu.release()
		if err != nil {
			di.counter.Abort()
		}
	}()

	policy := di.cfg.retryPolicy()
	commitErr := retry.Run(ctx, policy, func() error {
		return di.bleveIndex.Batch(b.bleveBatch)
	})
	if commitErr != nil {
		return cerr.StorageError("commit_batch", commitErr)
	}

	persisted := di.counter.Commit()
	di.generation.bump()
	di.cache.Purge()

	counterDoc := metadataDoc{DocType: schema.DocTypeMetadata, Key: metaKeySymbolCounter, Value: strconv.FormatUint(uint64(persisted), 10)}
	if err := retry.Run(ctx, policy, func() error {
		return di.bleveIndex.Index(metadataDocID(metaKeySymbolCounter), counterDoc)
	}); err != nil {
		di.log.Warn("failed to persist symbol counter high-water mark", slog.String("error", err.Error()))
	}

	if len(b.pending) > 0 && di.vectors != nil {
		if err := di.runVectorPass(ctx, b); err != nil {
			di.log.Warn("post-commit vector pass failed; affected symbols remain text-searchable only",
				slog.String("error", err.Error()))
		}
	}

	return nil
}
