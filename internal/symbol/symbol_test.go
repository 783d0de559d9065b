package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokoba/codanna-go/internal/ids"
)

func TestParseKindDefaultsOnUnknown(t *testing.T) {
	assert.Equal(t, KindFunction, ParseKind("Function"))
	assert.Equal(t, KindStruct, ParseKind("Struct"))
	assert.Equal(t, KindFunction, ParseKind("Nonsense"))
}

func TestEmbeddingText(t *testing.T) {
	id, _ := ids.NewSymbolId(1)
	fid, _ := ids.NewFileId(1)
	s := New(id, "main", KindFunction, fid, ids.NewRange(1, 0, 1, 10))
	s.Signature = "func main()"

	assert.Equal(t, "main Function func main()", s.EmbeddingText())
}

func TestEmbeddingTextWithoutSignature(t *testing.T) {
	id, _ := ids.NewSymbolId(1)
	fid, _ := ids.NewFileId(1)
	s := New(id, "main", KindFunction, fid, ids.NewRange(1, 0, 1, 10))

	assert.Equal(t, "main Function", s.EmbeddingText())
}

func TestScopeEncodeDecodeRoundTrip(t *testing.T) {
	cases := []ScopeContext{
		{Kind: ScopeModule},
		{Kind: ScopeGlobal},
		{Kind: ScopePackage},
		{Kind: ScopeParameter},
		{Kind: ScopeClassMember},
		{Kind: ScopeLocal, Hoisted: true, ParentName: "Handler", ParentKind: KindFunction},
		{Kind: ScopeLocal, Hoisted: false},
	}

	for _, c := range cases {
		encoded := c.Encode()
		decoded := DecodeScope(encoded)
		assert.Equal(t, c, decoded, "round trip for %q", encoded)
	}
}

func TestDecodeScopeDefaultsOnGarbage(t *testing.T) {
	assert.Equal(t, ScopeContext{Kind: ScopeModule}, DecodeScope("garbage"))
}
