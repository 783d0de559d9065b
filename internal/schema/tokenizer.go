// Package schema builds the single Bleve index.IndexMapping shared by
// every document type the index stores (symbol, relationship,
// file_info, import, metadata), discriminated by a "doc_type" field
// per spec.md §2's "one unified document store" invariant. Grounded on
// the teacher's internal/store/bm25.go custom tokenizer/analyzer
// registration pattern, generalized from a single flat document shape
// to five discriminated types sharing one mapping.
package schema

import (
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// CodeTokenizerName splits identifiers on camelCase/snake_case
	// boundaries so "HandleRequest" yields both "Handle" and "Request";
	// letters and digits are not split apart ("v2" stays one token).
	CodeTokenizerName = "codanna_code_tokenizer"
	// CodeStopFilterName drops a small fixed set of English noise words
	// ("the", "a", "an", "of", "to", "in", "is", "it") from full-text
	// fields without touching the exact-match name field.
	CodeStopFilterName = "codanna_code_stop"
	// CodeAnalyzerName is the default analyzer for positional full-text
	// fields (doc_comment, signature, context).
	CodeAnalyzerName = "codanna_code_analyzer"
	// NgramAnalyzerName backs the fuzzy/substring name_text field.
	NgramAnalyzerName = "codanna_ngram_analyzer"
)

// NgramMin/NgramMax bound the name_text n-gram field per spec.md §5's
// fuzzy-search requirement: short enough to match partial identifiers,
// long enough to avoid a token explosion on long symbol names.
const (
	NgramMin = 3
	NgramMax = 10
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(CodeStopFilterName, codeStopFilterConstructor)
}

func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

// codeTokenizer splits on camelCase/PascalCase boundaries, underscores,
// dots and non-alphanumerics, matching identifier shapes across the
// languages the index stores symbols for.
type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	var tokens analysis.TokenStream
	runes := []rune(string(input))
	start := 0
	pos := 1

	flush := func(end int) {
		if end <= start {
			return
		}
		term := string(runes[start:end])
		tokens = append(tokens, &analysis.Token{
			Term:     []byte(term),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
	}

	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush(i)
			start = i + 1
		case i > start && unicode.IsUpper(r) && i+1 < len(runes) && !unicode.IsUpper(runes[i-1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return tokens
}

func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &codeStopFilter{words: defaultStopWords()}, nil
}

type codeStopFilter struct {
	words map[string]struct{}
}

func defaultStopWords() map[string]struct{} {
	words := []string{"the", "a", "an", "of", "to", "in", "is", "it"}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (f *codeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		if _, stop := f.words[string(tok.Term)]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}
