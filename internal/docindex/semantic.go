package docindex

import (
	"context"
	"log/slog"

	"github.com/tokoba/codanna-go/internal/cerr"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/schema"
	"github.com/tokoba/codanna-go/internal/symbol"
	"github.com/tokoba/codanna-go/internal/vectorstore"
)

// SemanticSearch embeds queryText and returns the topK nearest symbols
// by cosine similarity over their EmbeddingText vectors. Spec.md §6:
// semantic search is strictly additive to lexical Search — a caller
// fuses both result sets itself, since ranking fusion policy is a
// caller concern, not something this module imposes.
//
// VectorId and SymbolId share a numbering: AddSymbol/runVectorPass
// enforce vector_id=symbol_id.value() (spec.md §3, §4.5), so resolving
// a vectorstore.Result back to a Symbol is a direct FindSymbolById
// call, no join table required.
func (di *DocumentIndex) SemanticSearch(ctx context.Context, queryText string, topK int) ([]*symbol.Symbol, error) {
	if di.vectors == nil || di.cfg.Embedder == nil {
		return nil, cerr.SemanticSearchDisabled()
	}

	vecs, err := di.cfg.Embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, cerr.EmbeddingFailed(err)
	}
	if len(vecs) != 1 {
		return nil, cerr.DimensionMismatch(1, len(vecs))
	}

	results, err := di.searchVectors(ctx, vecs[0], topK)
	if err != nil {
		return nil, err
	}

	out := make([]*symbol.Symbol, 0, len(results))
	for _, r := range results {
		sym, err := di.FindSymbolById(ctx, ids.SymbolId(r.VectorId.Value()))
		if err != nil {
			continue
		}
		out = append(out, sym)
	}
	return out, nil
}

// searchVectors resolves the candidate document set for query through
// the cluster cache — spec.md §4.7/§4.9's whole reason to exist is
// letting semantic search look up (segment, cluster) -> [DocId] in
// place of a full vector scan — and scores only that candidate set.
// The cache is warmed first if its generation is behind the index's;
// if warming fails, or the store hasn't been trained into any clusters
// yet, this falls back to vectorstore.Search's own exhaustive/clustered
// scan so semantic search degrades gracefully rather than going silent
// (spec.md §4.10: "cluster-cache build failure: logged; queries
// proceed without the cache").
func (di *DocumentIndex) searchVectors(ctx context.Context, query []float32, topK int) ([]vectorstore.Result, error) {
	gen := di.generation.current()
	if di.clusters.Stale(gen) {
		if err := di.WarmClusterCache(ctx); err != nil {
			di.log.Warn("cluster cache warm failed, falling back to full scan", slog.String("error", err.Error()))
			return di.vectors.Search(ctx, query, topK)
		}
	}

	nearest := di.vectors.NearestClusters(query, di.vectors.NProbe())
	if len(nearest) == 0 {
		return di.vectors.Search(ctx, query, topK)
	}

	docIDs := di.clusters.DocIdsForClusters(nearest)
	if len(docIDs) == 0 {
		return di.vectors.Search(ctx, query, topK)
	}

	candidates := make([]ids.VectorId, len(docIDs))
	for i, d := range docIDs {
		candidates[i] = ids.VectorId(d)
	}
	return di.vectors.SearchAmong(ctx, query, topK, candidates)
}

// clusterCacheSource adapts a DocumentIndex's symbol documents to
// clustercache.SegmentSource. Bleve's segment-level API varies across
// storage backends, so this reports the whole index as a single
// logical segment (ordinal 1) rather than reaching into scorch's
// internal segment list — sufficient for the cache's purpose, which is
// avoiding a full document scan per semantic query, not mirroring
// Bleve's on-disk segment boundaries one-to-one.
type clusterCacheSource struct {
	di *DocumentIndex
}

func (s *clusterCacheSource) Segments(ctx context.Context) ([]ids.SegmentOrdinal, error) {
	return []ids.SegmentOrdinal{1}, nil
}

func (s *clusterCacheSource) ClusterAssignments(ctx context.Context, seg ids.SegmentOrdinal) (map[uint32]ids.ClusterId, error) {
	res, err := s.di.runSearch(ctx, docTypeTerm(schema.DocTypeSymbol), 1000000, []string{"symbol_id", "cluster_id", "has_vector"})
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]ids.ClusterId, len(res.Hits))
	for _, h := range res.Hits {
		hit := &searchHit{Fields: h.Fields}
		if !fieldBool(hit, "has_vector") {
			continue
		}
		out[fieldUint32(hit, "symbol_id")] = ids.ClusterId(fieldUint32(hit, "cluster_id"))
	}
	return out, nil
}

// WarmClusterCache rebuilds the cluster membership cache against the
// index's current generation, per spec.md §6's explicit
// "warm_cluster_cache" maintenance trigger.
func (di *DocumentIndex) WarmClusterCache(ctx context.Context) error {
	return di.clusters.Warm(ctx, &clusterCacheSource{di: di}, di.generation.current())
}
