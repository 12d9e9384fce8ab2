package driven

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// IndexStore persists index records and serves search candidates.
// Backed by SQLite; each upload is an index run that becomes visible
// only once all of its batches are written.
type IndexStore interface {
	// EnsureSchema creates the tables and views if absent. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// UploadChunks writes records as a new run in batches of batchSize.
	// The run replaces the visible content when every batch succeeds.
	// On the first failing batch it stops and returns the partial report
	// together with an error wrapping domain.ErrUploadFailed.
	UploadChunks(ctx context.Context, records []domain.Record, batchSize int) (*domain.UploadReport, error)

	// TableStats returns aggregate statistics about the visible content.
	TableStats(ctx context.Context) (*domain.TableStats, error)

	// Clear deletes every record and run.
	Clear(ctx context.Context) error

	// Candidates returns up to limit records ordered by the tiered
	// containment score of query, optionally restricted to a category.
	Candidates(ctx context.Context, query string, category *domain.Category, limit int) ([]domain.Candidate, error)

	// DocumentChunks returns every record for a document ordered by chunk ID.
	DocumentChunks(ctx context.Context, documentID string) ([]domain.Record, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
