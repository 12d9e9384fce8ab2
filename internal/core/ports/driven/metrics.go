package driven

import "time"

// Metrics records operational counters for indexing and search.
// Services accept nil and fall back to a no-op implementation.
type Metrics interface {
	// FilesProcessed adds files that produced chunks.
	FilesProcessed(n int)

	// FilesSkipped adds files skipped with the given error kind.
	FilesSkipped(kind string, n int)

	// ChunksUploaded adds records committed to the store.
	ChunksUploaded(n int)

	// EmbeddingFailures adds chunks or queries left without an embedding.
	EmbeddingFailures(n int)

	// IndexRun records the outcome of an index run ("completed" or "failed").
	IndexRun(status string)

	// ObserveSearch records a search latency for the given mode.
	ObserveSearch(mode string, d time.Duration)
}
