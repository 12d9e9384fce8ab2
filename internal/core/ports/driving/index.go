package driving

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// IndexService builds the search index from the content root.
type IndexService interface {
	// IndexAll processes, embeds and uploads every document under the root.
	// The returned report is non-nil even when an error is returned.
	IndexAll(ctx context.Context) (*domain.IndexReport, error)

	// Stats returns statistics about the visible index content.
	Stats(ctx context.Context) (*domain.TableStats, error)

	// Clear removes all index content.
	Clear(ctx context.Context) error
}
