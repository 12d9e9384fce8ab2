package driven

import "context"

// LexicalRanker scores a small set of texts against a query using
// term statistics. It is an optional upgrade over the store's
// containment heuristic.
type LexicalRanker interface {
	// Rank returns one score in [0, 1] per text, in input order.
	Rank(ctx context.Context, query string, texts []string) ([]float64, error)
}
