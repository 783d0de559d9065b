package docindex

import (
	"context"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/tokoba/codanna-go/internal/cerr"
	"github.com/tokoba/codanna-go/internal/ids"
	"github.com/tokoba/codanna-go/internal/relationship"
	"github.com/tokoba/codanna-go/internal/schema"
	"github.com/tokoba/codanna-go/internal/symbol"
)

var symbolFields = []string{
	"symbol_id", "name", "kind", "file_id", "file_path", "signature",
	"doc_comment", "module_path", "visibility", "scope", "language",
	"start_line", "start_column", "end_line", "end_column",
	"cluster_id", "vector_id", "has_vector",
}

func docTypeTerm(docType string) bleveQuery.Query {
	q := bleve.NewTermQuery(docType)
	q.SetField(schema.TypeField)
	return q
}

func termOn(field, value string) bleveQuery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func conj(queries ...bleveQuery.Query) bleveQuery.Query {
	return bleve.NewConjunctionQuery(queries...)
}

func (di *DocumentIndex) runSearch(ctx context.Context, q bleveQuery.Query, size int, fields []string) (*bleve.SearchResult, error) {
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = fields
	res, err := di.bleveIndex.SearchInContext(ctx, req)
	if err != nil {
		return nil, cerr.StorageError("search", err)
	}
	return res, nil
}

func fieldString(hit *searchHit, name string) string {
	v, ok := hit.Fields[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func fieldUint32(hit *searchHit, name string) uint32 {
	v, ok := hit.Fields[name]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return uint32(n)
	case string:
		parsed, _ := strconv.ParseUint(n, 10, 32)
		return uint32(parsed)
	}
	return 0
}

func fieldBool(hit *searchHit, name string) bool {
	v, ok := hit.Fields[name]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// searchHit aliases the hit shape this package reads fields from,
// decoupling query.go from bleve's exact DocumentMatch type name.
type searchHit = struct {
	Fields map[string]interface{}
}

func symbolFromHit(fields map[string]interface{}) *symbol.Symbol {
	hit := &searchHit{Fields: fields}
	sym := &symbol.Symbol{
		Id:         ids.SymbolId(fieldUint32(hit, "symbol_id")),
		Name:       fieldString(hit, "name"),
		Kind:       symbol.ParseKind(fieldString(hit, "kind")),
		FileId:     ids.FileId(fieldUint32(hit, "file_id")),
		FilePath:   fieldString(hit, "file_path"),
		Signature:  fieldString(hit, "signature"),
		DocComment: fieldString(hit, "doc_comment"),
		ModulePath: fieldString(hit, "module_path"),
		Visibility: symbol.Visibility(fieldString(hit, "visibility")),
		Scope:      symbol.DecodeScope(fieldString(hit, "scope")),
		Language:   fieldString(hit, "language"),
		Range: ids.NewRange(
			fieldUint32(hit, "start_line"),
			uint16(fieldUint32(hit, "start_column")),
			fieldUint32(hit, "end_line"),
			uint16(fieldUint32(hit, "end_column")),
		),
		ClusterId: ids.ClusterId(fieldUint32(hit, "cluster_id")),
		VectorId:  ids.VectorId(fieldUint32(hit, "vector_id")),
		HasVector: fieldBool(hit, "has_vector"),
	}
	return sym
}

// FindSymbolById resolves a single symbol by id, consulting the
// read-through cache first.
func (di *DocumentIndex) FindSymbolById(ctx context.Context, id ids.SymbolId) (*symbol.Symbol, error) {
	if sym, ok := di.cache.Get(id); ok {
		return sym, nil
	}

	q := conj(docTypeTerm(schema.DocTypeSymbol), termOn("symbol_id", strconv.FormatUint(uint64(id.Value()), 10)))
	res, err := di.runSearch(ctx, q, 1, symbolFields)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, cerr.NotFound("symbol", strconv.FormatUint(uint64(id.Value()), 10))
	}
	sym := symbolFromHit(res.Hits[0].Fields)
	di.cache.Add(id, sym)
	return sym, nil
}

// FindSymbolsByName returns every symbol with an exact name match,
// optionally narrowed to one language. Spec.md §6 leaves ambiguity
// resolution to the caller: this returns every candidate rather than
// erroring, since "ambiguous" is only meaningful in the context of an
// operation that needs exactly one (e.g. a future "resolve" helper
// would use cerr.Ambiguous with these candidates).
func (di *DocumentIndex) FindSymbolsByName(ctx context.Context, name, language string) ([]*symbol.Symbol, error) {
	clauses := []bleveQuery.Query{docTypeTerm(schema.DocTypeSymbol), termOn("name", name)}
	if language != "" {
		clauses = append(clauses, termOn("language", language))
	}
	res, err := di.runSearch(ctx, conj(clauses...), 256, symbolFields)
	if err != nil {
		return nil, err
	}
	out := make([]*symbol.Symbol, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, symbolFromHit(h.Fields))
	}
	return out, nil
}

// fuzzyEditDistance and fuzzyPrefixLength implement spec.md §4.8's
// "edit=1, prefix=true": at most one insertion/deletion/substitution,
// with the first character held fixed so the automaton doesn't explode
// on short terms.
const (
	fuzzyEditDistance = 1
	fuzzyPrefixLength = 1
)

// Search runs the query surface spec.md §4.8 specifies:
// `(parsed(query) OR fuzzy_ngram(name_text) OR fuzzy_exact(name))`,
// conjoined with doc_type=symbol. `parsed(query)` is Bleve's own query
// string grammar (field:value syntax, boolean operators, phrases); it
// rejects special-character input like `interface{}` or `Vec<T>`
// (bleve's grammar reserves `{ } < >` for range queries), which is
// exactly when this falls back to a disjunction of literal term
// queries over name_text/doc_comment/signature instead of attempting
// the parsed clause at all.
func (di *DocumentIndex) Search(ctx context.Context, text string, limit int) ([]*symbol.Symbol, error) {
	if limit <= 0 {
		limit = 25
	}

	parsed, parseErr := bleveQuery.ParseQuery([]byte(text))
	if parseErr != nil {
		res, err := di.runSearch(ctx, di.literalFallback(text), limit, symbolFields)
		if err != nil {
			return nil, err
		}
		return symbolsFromHits(res), nil
	}

	fuzzyNgram := bleve.NewFuzzyQuery(text)
	fuzzyNgram.SetField("name_text")
	fuzzyNgram.SetFuzziness(fuzzyEditDistance)
	fuzzyNgram.SetPrefix(fuzzyPrefixLength)

	fuzzyExact := bleve.NewFuzzyQuery(text)
	fuzzyExact.SetField("name")
	fuzzyExact.SetFuzziness(fuzzyEditDistance)
	fuzzyExact.SetPrefix(fuzzyPrefixLength)

	primary := conj(docTypeTerm(schema.DocTypeSymbol), bleve.NewDisjunctionQuery(parsed, fuzzyNgram, fuzzyExact))
	res, err := di.runSearch(ctx, primary, limit, symbolFields)
	if err != nil {
		return nil, err
	}
	return symbolsFromHits(res), nil
}

// literalFallback disjoins literal term queries across the symbol
// text fields, per spec.md §4.8's fallback for queries the parser
// rejects outright. Symbol documents have no "context" field (that's
// a relationship-only attribute), so this covers name_text,
// doc_comment and signature.
func (di *DocumentIndex) literalFallback(text string) bleveQuery.Query {
	nameText := bleve.NewMatchQuery(text)
	nameText.SetField("name_text")
	docComment := bleve.NewMatchQuery(text)
	docComment.SetField("doc_comment")
	signature := bleve.NewMatchQuery(text)
	signature.SetField("signature")
	return conj(docTypeTerm(schema.DocTypeSymbol), bleve.NewDisjunctionQuery(nameText, docComment, signature))
}

func symbolsFromHits(res *bleve.SearchResult) []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, symbolFromHit(h.Fields))
	}
	return out
}

func relationshipFields() []string {
	return []string{"from_symbol_id", "to_symbol_id", "kind", "weight", "context", "line", "column"}
}

type relationshipHit struct {
	From ids.SymbolId
	To   ids.SymbolId
	Rel  relationship.Relationship
}

func relationshipFromFields(fields map[string]interface{}) relationshipHit {
	hit := &searchHit{Fields: fields}
	meta := relationship.Metadata{}.AtPosition(fieldUint32(hit, "line"), uint16(fieldUint32(hit, "column"))).WithContext(fieldString(hit, "context"))
	rel := relationship.New(relationship.ParseKind(fieldString(hit, "kind"))).WithMetadata(meta)
	return relationshipHit{
		From: ids.SymbolId(fieldUint32(hit, "from_symbol_id")),
		To:   ids.SymbolId(fieldUint32(hit, "to_symbol_id")),
		Rel:  rel,
	}
}

// GetRelationshipsFrom returns every relationship edge originating at
// id.
func (di *DocumentIndex) GetRelationshipsFrom(ctx context.Context, id ids.SymbolId) ([]relationshipHit, error) {
	q := conj(docTypeTerm(schema.DocTypeRelationship), termOn("from_symbol_id", strconv.FormatUint(uint64(id.Value()), 10)))
	res, err := di.runSearch(ctx, q, 10000, relationshipFields())
	if err != nil {
		return nil, err
	}
	out := make([]relationshipHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, relationshipFromFields(h.Fields))
	}
	return out, nil
}

// GetRelationshipsTo returns every relationship edge terminating at id.
func (di *DocumentIndex) GetRelationshipsTo(ctx context.Context, id ids.SymbolId) ([]relationshipHit, error) {
	q := conj(docTypeTerm(schema.DocTypeRelationship), termOn("to_symbol_id", strconv.FormatUint(uint64(id.Value()), 10)))
	res, err := di.runSearch(ctx, q, 10000, relationshipFields())
	if err != nil {
		return nil, err
	}
	out := make([]relationshipHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, relationshipFromFields(h.Fields))
	}
	return out, nil
}

// GetAllRelationshipsByKind returns every relationship edge of a given
// kind across the whole index.
func (di *DocumentIndex) GetAllRelationshipsByKind(ctx context.Context, kind relationship.Kind) ([]relationshipHit, error) {
	q := conj(docTypeTerm(schema.DocTypeRelationship), termOn("kind", kind.String()))
	res, err := di.runSearch(ctx, q, 100000, relationshipFields())
	if err != nil {
		return nil, err
	}
	out := make([]relationshipHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, relationshipFromFields(h.Fields))
	}
	return out, nil
}

// GetImpactRadius performs a breadth-first walk over reverse-dependency
// relationships (CalledBy/UsedBy/ImplementedBy/ReferencedBy) up to
// maxDepth hops, returning every symbol reachable from id. Spec.md §5:
// "impact radius answers 'what breaks if I change this', which walks
// the graph backwards along usage edges."
func (di *DocumentIndex) GetImpactRadius(ctx context.Context, id ids.SymbolId, maxDepth int) ([]ids.SymbolId, error) {
	visited := map[ids.SymbolId]struct{}{id: {}}
	frontier := []ids.SymbolId{id}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []ids.SymbolId
		for _, cur := range frontier {
			edges, err := di.GetRelationshipsTo(ctx, cur)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				// Edges are stored in their forward direction (e.g. "A
				// Calls B" as From=A,To=B,Kind=Calls); walking backwards
				// from cur means cur is the To side, so we classify by
				// the stored kind's inverse — CalledBy/UsedBy/
				// ImplementedBy/ReferencedBy are the reverse-dependency
				// kinds GetImpactRadius cares about.
				if !e.Rel.Kind.Inverse().IsReverseDependency() {
					continue
				}
				if _, seen := visited[e.From]; seen {
					continue
				}
				visited[e.From] = struct{}{}
				next = append(next, e.From)
			}
		}
		frontier = next
	}

	delete(visited, id)
	out := make([]ids.SymbolId, 0, len(visited))
	for sid := range visited {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// GetAllIndexedPaths returns the file path of every indexed file.
func (di *DocumentIndex) GetAllIndexedPaths(ctx context.Context) ([]string, error) {
	res, err := di.runSearch(ctx, docTypeTerm(schema.DocTypeFileInfo), 1000000, []string{"path"})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, fieldString(&searchHit{Fields: h.Fields}, "path"))
	}
	return out, nil
}

// GetImportsForFile returns every import statement recorded for a
// file.
func (di *DocumentIndex) GetImportsForFile(ctx context.Context, fileID ids.FileId) ([]importDoc, error) {
	q := conj(docTypeTerm(schema.DocTypeImport), termOn("file_id", strconv.FormatUint(uint64(fileID.Value()), 10)))
	res, err := di.runSearch(ctx, q, 10000, []string{"file_id", "path", "alias", "is_glob", "is_type_only"})
	if err != nil {
		return nil, err
	}
	out := make([]importDoc, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := &searchHit{Fields: h.Fields}
		out = append(out, importDoc{
			FileId:     fieldUint32(hit, "file_id"),
			Path:       fieldString(hit, "path"),
			Alias:      fieldString(hit, "alias"),
			IsGlob:     fieldBool(hit, "is_glob"),
			IsTypeOnly: fieldBool(hit, "is_type_only"),
		})
	}
	return out, nil
}

// metadataValue reads a singleton metadata document's stored value.
func (di *DocumentIndex) metadataValue(key string) (string, error) {
	q := conj(docTypeTerm(schema.DocTypeMetadata), termOn("key", key))
	res, err := di.runSearch(context.Background(), q, 1, []string{"value"})
	if err != nil {
		return "", err
	}
	if len(res.Hits) == 0 {
		return "", nil
	}
	return fieldString(&searchHit{Fields: res.Hits[0].Fields}, "value"), nil
}
