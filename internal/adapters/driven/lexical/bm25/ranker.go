// Package bm25 provides the term-statistics implementation of
// driven.LexicalRanker behind the "bm25" lexical mode, backed by an
// in-memory bleve index using bleve's default relevance scoring.
//
// Each Rank call builds a throwaway index over the given texts, runs the
// query as a match query and normalises hit scores by the best hit, so the
// top text scores 1.0 and texts with no matching term score 0.
package bm25

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure Ranker implements the interface.
var _ driven.LexicalRanker = (*Ranker)(nil)

const textField = "text"

type rankDoc struct {
	Text string `json:"text"`
}

// Ranker scores texts with bleve's term-frequency relevance scoring.
type Ranker struct{}

// NewRanker creates a new BM25 ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns one score in [0, 1] per text, in input order.
func (r *Ranker) Rank(ctx context.Context, query string, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	if strings.TrimSpace(query) == "" || len(texts) == 0 {
		return scores, nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	for i, text := range texts {
		if err := batch.Index(strconv.Itoa(i), rankDoc{Text: text}); err != nil {
			return nil, fmt.Errorf("indexing text %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("indexing texts: %w", err)
	}

	q := bleve.NewMatchQuery(query)
	q.SetField(textField)
	req := bleve.NewSearchRequestOptions(q, len(texts), 0, false)

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	var best float64
	for _, hit := range res.Hits {
		best = max(best, hit.Score)
	}
	if best <= 0 {
		return scores, nil
	}

	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(texts) {
			continue
		}
		scores[i] = hit.Score / best
	}
	return scores, nil
}
