package docindex

import (
	"context"
	"log/slog"

	"github.com/tokoba/codanna-go/internal/cerr"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/schema"
	"github.com/tokoba/codanna-go/internal/symbol"
)

// runVectorPass drains a committed batch's pending embeddings, embeds
// them, inserts the resulting vectors into the IVF-Flat store,
// reclusters, and back-patches each affected symbol document's
// cluster_id/vector_id/has_vector fields via a second small batch.
// Spec.md §4.6: "a symbol that gains a vector is re-indexed with its
// vector fields set, since Bleve documents are immutable once
// written" — in practice this is a delete-then-add of the same
// document id, which Bleve's batch API expresses as a plain re-Index
// call.
func (di *DocumentIndex) runVectorPass(ctx context.Context, committed *batch) error {
	if di.cfg.Embedder == nil {
		return cerr.EmbeddingFailed(nil).WithSuggestion("configure Config.Embedder to enable semantic search")
	}

	texts := make([]string, len(committed.pending))
	for i, p := range committed.pending {
		texts[i] = p.Text
	}
	vectors, err := di.cfg.Embedder.Embed(ctx, texts)
	if err != nil {
		return cerr.EmbeddingFailed(err)
	}
	if len(vectors) != len(texts) {
		return cerr.DimensionMismatch(len(texts), len(vectors))
	}

	touched := make([]*symbol.Symbol, 0, len(committed.pending))
	for i, p := range committed.pending {
		// vector_id always equals symbol_id (spec.md §3); the store
		// never mints its own id, it just rows up this one.
		vid := ids.VectorId(p.SymbolId.Value())
		if err := di.vectors.Add(ctx, vid, vectors[i]); err != nil {
			di.log.Warn("embedding vector rejected", slog.Uint64("symbol_id", uint64(p.SymbolId.Value())))
			continue
		}
		sym, ok := committed.newSymbols[p.SymbolId]
		if !ok {
			continue
		}
		sym.VectorId = vid
		sym.HasVector = true
		touched = append(touched, sym)
	}

	if len(touched) == 0 {
		return nil
	}

	if err := di.vectors.Train(); err != nil {
		di.log.Warn("vector store clustering failed", slog.String("error", err.Error()))
	} else {
		for _, sym := range touched {
			sym.ClusterId = di.vectors.ClusterOf(sym.VectorId)
		}
	}

	patch := di.bleveIndex.NewBatch()
	for _, sym := range touched {
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
			HasVector:   true,
		}
		if err := patch.Index(symbolDocID(sym.Id.Value()), doc); err != nil {
			di.log.Warn("failed to stage vector back-patch", slog.Uint64("symbol_id", uint64(sym.Id.Value())))
		}
	}

	if err := di.bleveIndex.Batch(patch); err != nil {
		return cerr.StorageError("vector_backpatch", err)
	}
	di.generation.bump()
	di.cache.Purge()

	if err := di.WarmClusterCache(ctx); err != nil {
		di.log.Warn("cluster cache rebuild after vector pass failed; it is rebuilt on the next semantic search",
			slog.String("error", err.Error()))
	}
	return nil
}
