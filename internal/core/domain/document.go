package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// idPartLength is the number of hex characters taken from each hash
// when building a document identifier.
const idPartLength = 16

// Document represents a source file under the content root.
// It is produced by metadata extraction and owns one or more chunks.
type Document struct {
	// ID is derived from ContentHash and RelativePath (see DocumentID).
	ID string

	// Path is the absolute file path.
	Path string

	// RelativePath is the slash-separated path relative to the content root.
	RelativePath string

	// FileName is the base name including extension.
	FileName string

	// FileStem is the base name without extension.
	FileStem string

	// Extension is the lowercased extension including the dot.
	Extension string

	// Size is the file size in bytes.
	Size int64

	// ModifiedAt is the file's last modification time.
	ModifiedAt time.Time

	// ContentHash is the hex SHA-256 digest of the raw file bytes.
	ContentHash string

	// Category is derived from the relative path.
	Category Category

	// Title is the first markdown heading, front matter title, or the stem.
	Title string

	// Table is set for table_context documents.
	Table *TableContext

	// Query is set for pod_queries documents.
	Query *QueryInfo

	// Content is the UTF-8 text of the file. It is not persisted.
	Content string
}

// Chunk represents a searchable unit within a document.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// ChunkID is the 0-based sequence number within the document.
	ChunkID int

	// ChunkCount is the total number of chunks for the parent document.
	ChunkCount int

	// Start is the byte offset of the chunk in the document content.
	Start int

	// End is the exclusive byte offset of the chunk end.
	End int

	// Content is the raw content slice.
	Content string

	// Tokens are the lexical tokens used for keyword matching.
	Tokens []string

	// TokenText is Tokens joined with single spaces.
	TokenText string

	// Embedding is the L2-normalised vector for semantic search.
	Embedding []float32

	// EmbeddingDim is len(Embedding), zero when no embedding was produced.
	EmbeddingDim int
}

// Record is the persisted representation of one chunk.
// Document.Content is always empty on a Record.
type Record struct {
	Document    Document
	Chunk       Chunk
	ProcessedAt time.Time
	RunID       string
}

// Key returns the (document_id, chunk_id) identity of the record.
func (r Record) Key() RecordKey {
	return RecordKey{DocumentID: r.Document.ID, ChunkID: r.Chunk.ChunkID}
}

// RecordKey identifies a record within an index run.
type RecordKey struct {
	DocumentID string
	ChunkID    int
}

// HashContent returns the hex SHA-256 digest of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentID derives the document identifier from a content hash and a
// relative path. It is a pure function: unchanged files keep their ID and
// changed content yields a new one.
func DocumentID(contentHash, relPath string) string {
	prefix := contentHash
	if len(prefix) > idPartLength {
		prefix = prefix[:idPartLength]
	}
	pathHash := HashContent([]byte(relPath))[:idPartLength]
	return prefix + "_" + pathHash
}
