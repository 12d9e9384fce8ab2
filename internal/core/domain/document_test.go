package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashContent_Deterministic(t *testing.T) {
	a := HashContent([]byte("select 1"))
	b := HashContent([]byte("select 1"))

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashContent([]byte("select 2")))
}

func TestDocumentID_PureFunction(t *testing.T) {
	hash := HashContent([]byte("content"))

	id1 := DocumentID(hash, "docs/a.md")
	id2 := DocumentID(hash, "docs/a.md")

	assert.Equal(t, id1, id2)
	require.Contains(t, id1, "_")
	parts := strings.Split(id1, "_")
	require.Len(t, parts, 2)
	assert.Equal(t, hash[:16], parts[0])
	assert.Len(t, parts[1], 16)
}

func TestDocumentID_ChangesWithContent(t *testing.T) {
	before := DocumentID(HashContent([]byte("v1")), "docs/a.md")
	after := DocumentID(HashContent([]byte("v2")), "docs/a.md")

	assert.NotEqual(t, before, after)
}

func TestDocumentID_ChangesWithPath(t *testing.T) {
	hash := HashContent([]byte("same"))

	assert.NotEqual(t, DocumentID(hash, "a.md"), DocumentID(hash, "b.md"))
}

func TestDocumentID_ShortHash(t *testing.T) {
	id := DocumentID("abc", "a.md")
	assert.True(t, strings.HasPrefix(id, "abc_"))
}

func TestRecord_Key(t *testing.T) {
	r := Record{
		Document: Document{ID: "doc-1"},
		Chunk:    Chunk{DocumentID: "doc-1", ChunkID: 3},
	}

	assert.Equal(t, RecordKey{DocumentID: "doc-1", ChunkID: 3}, r.Key())
}
