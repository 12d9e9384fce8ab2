package domain

import (
	"fmt"
	"time"
)

// ProcessingErrorKind classifies why a file was skipped.
type ProcessingErrorKind string

// Available processing error kinds.
const (
	// ProcessingErrorRead indicates the file could not be read.
	ProcessingErrorRead ProcessingErrorKind = "read"

	// ProcessingErrorMetadata indicates metadata extraction failed.
	ProcessingErrorMetadata ProcessingErrorKind = "metadata"

	// ProcessingErrorChunk indicates chunking failed.
	ProcessingErrorChunk ProcessingErrorKind = "chunk"

	// ProcessingErrorEmpty indicates a zero-length file.
	ProcessingErrorEmpty ProcessingErrorKind = "empty"
)

// ProcessingError records a per-file failure during document processing.
type ProcessingError struct {
	Path string
	Kind ProcessingErrorKind
	Err  error
}

// Error implements the error interface.
func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessReport summarises a document processing pass.
type ProcessReport struct {
	// Root is the content root that was walked.
	Root string

	// FilesSeen is the number of candidate files found by the walk.
	FilesSeen int

	// FilesProcessed is the number of files that produced chunks.
	FilesProcessed int

	// ChunksProduced is the total number of chunks.
	ChunksProduced int

	// Errors holds one entry per skipped file.
	Errors []ProcessingError

	// RootMissing is true when the content root did not exist.
	RootMissing bool
}

// FilesSkipped returns the number of files that were skipped.
func (r *ProcessReport) FilesSkipped() int {
	return len(r.Errors)
}

// UploadReport summarises an upload run.
type UploadReport struct {
	// RunID identifies the index run.
	RunID string

	// BatchesWritten is the number of batches committed.
	BatchesWritten int

	// RecordsWritten is the number of records committed.
	RecordsWritten int

	// FailedBatch is the 0-based index of the failed batch, or -1.
	FailedBatch int

	// Completed is true when the run became the visible index content.
	Completed bool
}

// IndexReport summarises a full indexing run.
type IndexReport struct {
	Process *ProcessReport
	Upload  *UploadReport

	// ChunksEmbedded is the number of chunks that received an embedding.
	ChunksEmbedded int

	// EmbeddingFailures is the number of chunks left without an embedding.
	EmbeddingFailures int

	// EmbeddingsEnabled is false when no embedding backend could be loaded.
	EmbeddingsEnabled bool

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// TableStats holds aggregate statistics about the visible index content.
type TableStats struct {
	RunID            string
	TotalChunks      int
	DistinctFiles    int
	DistinctCategory int
	AvgContentLength float64
	FirstProcessedAt time.Time
	LastProcessedAt  time.Time
}
