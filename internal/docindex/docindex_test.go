package docindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/relationship"
	"github.com/tokoba/codanna-go/internal/symbol"
)

const testDims = 4

type fakeEmbedder struct{}

func (fakeEmbedder) Dimensions() int { return testDims }

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, testDims)
		for j, r := range t {
			v[j%testDims] += float32(r % 7)
		}
		out[i] = v
	}
	return out, nil
}

func openTestIndex(t *testing.T) *DocumentIndex {
	t.Helper()
	di, err := Open(Config{
		Dir:                 t.TempDir(),
		EmbeddingDimensions: testDims,
		Embedder:            fakeEmbedder{},
		NumClusters:         2,
		NProbe:              2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = di.Close() })
	return di
}

func mustSymbol(t *testing.T, di *DocumentIndex, name string, fileID uint32, lang string) ids.SymbolId {
	t.Helper()
	fid, _ := ids.NewFileId(fileID)
	sym := symbol.New(0, name, symbol.KindFunction, fid, ids.NewRange(1, 0, 5, 1))
	sym.Language = lang
	sym.Signature = "func " + name + "()"
	id, err := di.AddSymbol(sym)
	require.NoError(t, err)
	return id
}

func TestIndexSymbolsAndFindByNameWithLanguageFilter(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, di.StartBatch())
	mustSymbol(t, di, "HandleRequest", 1, "go")
	mustSymbol(t, di, "HandleRequest", 2, "python")
	require.NoError(t, di.CommitBatch(ctx))

	all, err := di.FindSymbolsByName(ctx, "HandleRequest", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	goOnly, err := di.FindSymbolsByName(ctx, "HandleRequest", "go")
	require.NoError(t, err)
	require.Len(t, goOnly, 1)
	assert.Equal(t, "go", goOnly[0].Language)
}

func TestSearchFindsExactAndPartialName(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, di.StartBatch())
	mustSymbol(t, di, "ParseConfigFile", 1, "go")
	require.NoError(t, di.CommitBatch(ctx))

	hits, err := di.Search(ctx, "ParseConfigFile", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	hits, err = di.Search(ctx, "Config", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestSearchFallsBackOnQueryParseFailure(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, di.StartBatch())
	fid, _ := ids.NewFileId(1)
	sym := symbol.New(0, "Process", symbol.KindFunction, fid, ids.NewRange(1, 0, 5, 1))
	sym.Language = "go"
	sym.Signature = "func Process(v interface{}) error"
	_, err := di.AddSymbol(sym)
	require.NoError(t, err)
	generic := symbol.New(0, "collect", symbol.KindFunction, fid, ids.NewRange(7, 0, 9, 1))
	generic.Language = "rust"
	generic.Signature = "fn collect<T>(items: Vec<T>) -> usize"
	_, err = di.AddSymbol(generic)
	require.NoError(t, err)
	require.NoError(t, di.CommitBatch(ctx))

	// "interface{}" and "Vec<T>" are the spec's own examples of queries
	// Bleve's query string grammar rejects (it reserves { } < > for
	// range syntax) — these must be answered by the literal fallback
	// rather than erroring or coming back empty.
	for _, tc := range []struct{ query, want string }{
		{"interface{}", "Process"},
		{"Vec<T>", "collect"},
	} {
		hits, err := di.Search(ctx, tc.query, 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits, "query %q", tc.query)
		assert.Equal(t, tc.want, hits[0].Name)
	}
}

func TestRelationshipRoundTrip(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, di.StartBatch())
	a := mustSymbol(t, di, "Caller", 1, "go")
	b := mustSymbol(t, di, "Callee", 1, "go")
	require.NoError(t, di.AddRelationship(a, b, relationship.New(relationship.Calls).WithMetadata(relationship.Metadata{}.AtPosition(10, 2))))
	require.NoError(t, di.CommitBatch(ctx))

	from, err := di.GetRelationshipsFrom(ctx, a)
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, b, from[0].To)
	assert.Equal(t, relationship.Calls, from[0].Rel.Kind)

	to, err := di.GetRelationshipsTo(ctx, b)
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, a, to[0].From)
}

func TestImpactRadiusRespectsMaxDepth(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, di.StartBatch())
	s1 := mustSymbol(t, di, "Level0", 1, "go")
	s2 := mustSymbol(t, di, "Level1", 1, "go")
	s3 := mustSymbol(t, di, "Level2", 1, "go")
	s4 := mustSymbol(t, di, "Level3", 1, "go")
	// s2 calls s1, s3 calls s2, s4 calls s3: impact radius of s1 at
	// depth 2 reaches s2,s3 but not s4; at depth 3 it reaches s4 too.
	require.NoError(t, di.AddRelationship(s2, s1, relationship.New(relationship.Calls)))
	require.NoError(t, di.AddRelationship(s3, s2, relationship.New(relationship.Calls)))
	require.NoError(t, di.AddRelationship(s4, s3, relationship.New(relationship.Calls)))
	require.NoError(t, di.CommitBatch(ctx))

	depth2, err := di.GetImpactRadius(ctx, s1, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ids.SymbolId{s2, s3}, depth2)

	depth3, err := di.GetImpactRadius(ctx, s1, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ids.SymbolId{s2, s3, s4}, depth3)
}

func TestImportsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	di, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, di.StartBatch())
	fid, _ := ids.NewFileId(1)
	require.NoError(t, di.StoreFileInfo(fid, "main.go", "go", "deadbeef", 1, 2))
	require.NoError(t, di.AddImport(fid, "fmt", "", false, false))
	require.NoError(t, di.AddImport(fid, "net/http", "", false, false))
	require.NoError(t, di.AddImport(fid, "models", "M", false, true))
	require.NoError(t, di.CommitBatch(ctx))
	require.NoError(t, di.Close())

	reopened, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	imports, err := reopened.GetImportsForFile(ctx, fid)
	require.NoError(t, err)
	require.Len(t, imports, 3)

	byPath := make(map[string]importDoc, len(imports))
	for _, imp := range imports {
		byPath[imp.Path] = imp
	}
	assert.Equal(t, importDoc{FileId: fid.Value(), Path: "fmt", IsGlob: false, IsTypeOnly: false}, byPath["fmt"])
	assert.Equal(t, importDoc{FileId: fid.Value(), Path: "net/http", IsGlob: false, IsTypeOnly: false}, byPath["net/http"])
	assert.Equal(t, importDoc{FileId: fid.Value(), Path: "models", Alias: "M", IsGlob: false, IsTypeOnly: true}, byPath["models"])

	paths, err := reopened.GetAllIndexedPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, paths)
}

func TestRemoveFileDocumentsCascadesWithoutOpenBatch(t *testing.T) {
	di := openTestIndex(t)
	ctx := context.Background()

	fid, _ := ids.NewFileId(7)
	require.NoError(t, di.StartBatch())
	a := mustSymbol(t, di, "Orphaned", 7, "go")
	b := mustSymbol(t, di, "Other", 7, "go")
	require.NoError(t, di.AddRelationship(a, b, relationship.New(relationship.Calls)))
	require.NoError(t, di.StoreFileInfo(fid, "gone.go", "go", "deadbeef", 1, 2))
	require.NoError(t, di.AddImport(fid, "fmt", "", false, false))
	require.NoError(t, di.CommitBatch(ctx))

	// No batch open here: RemoveFileDocuments must perform its own
	// standalone commit per spec.md §4.4.
	require.NoError(t, di.RemoveFileDocuments(ctx, fid))

	_, err := di.FindSymbolById(ctx, a)
	assert.Error(t, err)
	_, err = di.FindSymbolById(ctx, b)
	assert.Error(t, err)

	from, err := di.GetRelationshipsFrom(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, from)

	imports, err := di.GetImportsForFile(ctx, fid)
	require.NoError(t, err)
	assert.Empty(t, imports)

	paths, err := di.GetAllIndexedPaths(ctx)
	require.NoError(t, err)
	assert.NotContains(t, paths, "gone.go")
}

func TestSemanticSearchDisabledWithoutEmbedder(t *testing.T) {
	di, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer di.Close()

	_, err = di.SemanticSearch(context.Background(), "anything", 5)
	require.Error(t, err)
}

func TestCounterSurvivesAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	di, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, di.StartBatch())
	first := mustSymbol(t, di, "First", 1, "go")
	require.NoError(t, di.CommitBatch(ctx))
	require.NoError(t, di.Close())

	reopened, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.StartBatch())
	second := mustSymbol(t, reopened, "Second", 1, "go")
	require.NoError(t, reopened.CommitBatch(ctx))

	assert.Greater(t, second.Value(), first.Value())
}
