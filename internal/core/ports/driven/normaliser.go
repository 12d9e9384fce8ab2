package driven

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// Normaliser derives presentation fields, such as the title, for an
// extracted document. Each normaliser handles specific file extensions.
// Normalisers never modify Content: chunk offsets are computed against it.
type Normaliser interface {
	// SupportedExtensions returns the file extensions this normaliser handles,
	// lowercased and including the leading dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise fills derived fields on doc.
	Normalise(ctx context.Context, doc *domain.Document) error
}
