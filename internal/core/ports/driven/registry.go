package driven

import (
	"context"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches
// based on file extension.
type NormaliserRegistry interface {
	// Normalise runs the best matching normaliser for doc.Extension.
	// Documents with no matching normaliser are left unchanged.
	Normalise(ctx context.Context, doc *domain.Document) error

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
