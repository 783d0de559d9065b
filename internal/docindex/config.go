// Package docindex implements the unified document index: one Bleve
// store holding five discriminated document types (symbol,
// relationship, file_info, import, metadata), a batch/commit protocol
// with retry, and a vector subsystem fused to it by a shared
// SymbolId/VectorId numbering. Grounded on the teacher's
// internal/index.Coordinator (config shape, mutex-guarded writer) and
// internal/search.Engine (query composition, fused BM25/vector
// results), generalized from "chunks over a BM25+HNSW+sqlite triple
// store" to "symbols/relationships over one schema-driven store with a
// custom IVF-Flat vector side-car."
package docindex

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokoba/codanna-go/internal/clustercache"
	"github.com/tokoba/codanna-go/internal/embedding"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/retry"
	"github.com/tokoba/codanna-go/internal/schema"
	"github.com/tokoba/codanna-go/internal/symbol"
	"github.com/tokoba/codanna-go/internal/vectorstore"
)

const (
	bleveDirName    = "docs.bleve"
	vectorsDirName  = "vectors"
	lockFileName    = ".codanna.lock"
	defaultCacheCap = 4096

	metaKeySymbolCounter = "symbol_counter"
)

// Config configures a DocumentIndex. The caller is responsible for
// supplying its own values; this module has no file-based configuration
// loader of its own (spec.md's "external collaborators" boundary keeps
// config loading, like the embedding model itself, outside this
// package).
type Config struct {
	// Dir is the directory the index lives in. Created if absent.
	Dir string

	// EmbeddingDimensions enables the vector subsystem when non-zero.
	// Zero means semantic search is disabled entirely: SemanticSearch
	// returns cerr.SemanticSearchDisabled.
	EmbeddingDimensions int
	// Embedder generates embeddings for pending symbol text at commit
	// time. Required when EmbeddingDimensions is non-zero.
	Embedder embedding.Generator
	// NumClusters/NProbe tune the IVF-Flat vector store; zero picks
	// vectorstore.DefaultConfig's values.
	NumClusters int
	NProbe      int

	// SymbolCacheSize bounds the read-through LRU cache of resolved
	// Symbols; zero uses defaultCacheCap.
	SymbolCacheSize int

	// RetryPolicy overrides the commit retry policy; zero value uses
	// retry.DefaultPolicy().
	RetryPolicy *retry.Policy

	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (c Config) retryPolicy() retry.Policy {
	if c.RetryPolicy != nil {
		return *c.RetryPolicy
	}
	return retry.DefaultPolicy()
}

func (c Config) cacheCap() int {
	if c.SymbolCacheSize > 0 {
		return c.SymbolCacheSize
	}
	return defaultCacheCap
}

// DocumentIndex is the single entry point for indexing and querying
// symbols, relationships, file metadata and imports. A process holds
// at most one writer at a time; spec.md §4.2 makes this an advisory
// contract (checked via gofrs/flock, not kernel-enforced) rather than
// a hard lock, since the storage engine itself tolerates a second
// process opening it read-only.
type DocumentIndex struct {
	cfg Config
	log *slog.Logger

	bleveIndex bleve.Index
	lock       *flock.Flock
	sessionID  uuid.UUID

	writerMu   writerMutex
	generation generationCounter
	counter    *ids.SymbolCounter
	current    *batch

	vectors  *vectorstore.Store
	clusters *clustercache.Cache

	cache *lru.Cache[ids.SymbolId, *symbol.Symbol]
}

// Open opens or creates a DocumentIndex rooted at cfg.Dir.
func Open(cfg Config) (*DocumentIndex, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("docindex: Config.Dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("docindex: create dir: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	sessionID := uuid.New()
	log = log.With(slog.String("session_id", sessionID.String()))

	fl := flock.New(filepath.Join(cfg.Dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		log.Warn("advisory writer lock check failed", slog.String("error", err.Error()))
	} else if !locked {
		log.Warn("another process appears to hold the writer lock; continuing, as the lock is advisory only")
	}

	bleveDir := filepath.Join(cfg.Dir, bleveDirName)
	idx, err := openOrCreateBleve(bleveDir)
	if err != nil {
		return nil, err
	}

	di := &DocumentIndex{
		cfg:        cfg,
		log:        log,
		bleveIndex: idx,
		lock:       fl,
		sessionID:  sessionID,
		clusters:   clustercache.New(),
	}

	if err := di.initCounter(); err != nil {
		_ = idx.Close()
		return nil, err
	}

	cache, err := lru.New[ids.SymbolId, *symbol.Symbol](cfg.cacheCap())
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("docindex: create symbol cache: %w", err)
	}
	di.cache = cache

	if cfg.EmbeddingDimensions > 0 {
		vecDir := filepath.Join(cfg.Dir, vectorsDirName)
		vstore, err := openOrCreateVectorStore(vecDir, cfg)
		if err != nil {
			_ = idx.Close()
			return nil, err
		}
		di.vectors = vstore
	}

	return di, nil
}

func openOrCreateBleve(dir string) (bleve.Index, error) {
	if _, err := os.Stat(filepath.Join(dir, "index_meta.json")); err == nil {
		idx, openErr := bleve.Open(dir)
		if openErr == nil {
			return idx, nil
		}
	}
	im, err := schema.Build()
	if err != nil {
		return nil, fmt.Errorf("docindex: build schema: %w", err)
	}
	idx, err := bleve.New(dir, im)
	if err != nil {
		return nil, fmt.Errorf("docindex: create index: %w", err)
	}
	return idx, nil
}

func openOrCreateVectorStore(dir string, cfg Config) (*vectorstore.Store, error) {
	if _, err := os.Stat(filepath.Join(dir, "metadata.json")); err == nil {
		return vectorstore.Open(dir)
	}
	vcfg := vectorstore.DefaultConfig(cfg.EmbeddingDimensions)
	if cfg.NumClusters > 0 {
		vcfg.NumClusters = cfg.NumClusters
	}
	if cfg.NProbe > 0 {
		vcfg.NProbe = cfg.NProbe
	}
	return vectorstore.New(vcfg), nil
}

// Close releases the Bleve index, persists the vector store (if any)
// and releases the advisory writer lock.
func (di *DocumentIndex) Close() error {
	var errs []error
	if di.vectors != nil {
		if err := di.vectors.Persist(filepath.Join(di.cfg.Dir, vectorsDirName)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := di.bleveIndex.Close(); err != nil {
		errs = append(errs, err)
	}
	if di.lock != nil {
		if err := di.lock.Unlock(); err != nil {
			di.log.Warn("failed to release advisory writer lock", slog.String("error", err.Error()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("docindex: close: %v", errs)
	}
	return nil
}

// SessionID identifies this process's handle on the index, for log
// correlation across a multi-process deployment.
func (di *DocumentIndex) SessionID() uuid.UUID { return di.sessionID }
