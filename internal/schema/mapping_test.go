package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildProducesValidMapping(t *testing.T) {
	im, err := Build()
	require.NoError(t, err)
	require.NotNil(t, im)
	require.Equal(t, TypeField, im.TypeField)

	require.Contains(t, im.TypeMapping, DocTypeSymbol)
	require.Contains(t, im.TypeMapping, DocTypeRelationship)
	require.Contains(t, im.TypeMapping, DocTypeFileInfo)
	require.Contains(t, im.TypeMapping, DocTypeImport)
	require.Contains(t, im.TypeMapping, DocTypeMetadata)
}

func TestCodeTokenizerSplitsOnCamelCase(t *testing.T) {
	tok := &codeTokenizer{}
	stream := tok.Tokenize([]byte("HandleRequest_v2"))
	var terms []string
	for _, tk := range stream {
		terms = append(terms, string(tk.Term))
	}
	require.Contains(t, terms, "Handle")
	require.Contains(t, terms, "Request")
	require.Contains(t, terms, "v2")
}

func TestCodeStopFilterDropsStopWords(t *testing.T) {
	filter := &codeStopFilter{words: defaultStopWords()}
	in := []byte("the")
	tok := (&codeTokenizer{}).Tokenize(in)
	out := filter.Filter(tok)
	require.Empty(t, out)
}
