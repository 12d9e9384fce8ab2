package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRootNotFound indicates the content root directory does not exist.
	ErrRootNotFound = errors.New("content root not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached. Search degrades to lexical-only scoring.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the index store could not be reached.
	ErrStoreUnavailable = errors.New("index store unavailable")

	// ErrMalformedEmbedding indicates a stored embedding could not be decoded
	// or does not match the query dimensionality.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrUploadFailed indicates a batch upload failed part-way through a run.
	ErrUploadFailed = errors.New("upload failed")
)
