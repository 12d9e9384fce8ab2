package driven

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// Connector reads documents from a content root.
type Connector interface {
	// Root returns the content root directory.
	Root() string

	// Files walks the content root and returns indexable files ordered by
	// relative path. Returns domain.ErrRootNotFound if the root is missing.
	Files(ctx context.Context) ([]domain.SourceFile, error)

	// Extract reads a file and builds its Document, including content,
	// category fields and title. Failures are domain.ProcessingError values.
	Extract(ctx context.Context, file domain.SourceFile) (*domain.Document, error)

	// Watch listens for changes to indexable files until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close releases resources.
	Close() error
}
