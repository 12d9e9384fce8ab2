package driving

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
// None of its methods fail: unavailability yields empty results.
type SearchService interface {
	// SearchDocuments ranks stored chunks against a query.
	SearchDocuments(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResponse

	// SearchTableContext searches table_context documents only.
	SearchTableContext(ctx context.Context, query string, topK int) domain.SearchResponse

	// SearchPodQueries searches pod_queries documents only.
	SearchPodQueries(ctx context.Context, query string, topK int) domain.SearchResponse

	// SearchUserContext searches user_context documents only.
	SearchUserContext(ctx context.Context, query string, topK int) domain.SearchResponse

	// GetFullDocumentContent returns every chunk of a document ordered by chunk ID.
	GetFullDocumentContent(ctx context.Context, documentID string) []domain.Record

	// FormatSearchResults renders results as a human-readable report.
	FormatSearchResults(ctx context.Context, results []domain.SearchResult, query string) string
}
