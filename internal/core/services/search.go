package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/core/ports/driving"
	"github.com/custodia-labs/docindex/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService ranks stored chunks by combining a lexical score with
// embedding similarity. It never fails: an unreachable store yields an
// empty response and a missing embedding backend degrades to
// lexical-only scoring.
type SearchService struct {
	store       driven.IndexStore
	embeddings  *EmbeddingGenerator
	ranker      driven.LexicalRanker
	queryPrefix string
	defaults    domain.SearchOptions
	metrics     driven.Metrics
}

// SearchOption configures the search service.
type SearchOption func(*SearchService)

// WithLexicalRanker enables the BM25 lexical mode.
func WithLexicalRanker(r driven.LexicalRanker) SearchOption {
	return func(s *SearchService) {
		s.ranker = r
	}
}

// WithQueryPrefix sets the instruction prepended to queries before embedding.
func WithQueryPrefix(prefix string) SearchOption {
	return func(s *SearchService) {
		s.queryPrefix = prefix
	}
}

// WithSearchDefaults sets the options used to fill unset fields.
func WithSearchDefaults(opts domain.SearchOptions) SearchOption {
	return func(s *SearchService) {
		s.defaults = opts
	}
}

// WithSearchMetrics sets the metrics sink.
func WithSearchMetrics(m driven.Metrics) SearchOption {
	return func(s *SearchService) {
		s.metrics = metricsOrNop(m)
	}
}

// NewSearchService creates a new search service.
// The embeddings parameter is optional (can be nil).
func NewSearchService(store driven.IndexStore, embeddings *EmbeddingGenerator, opts ...SearchOption) *SearchService {
	s := &SearchService{
		store:       store,
		embeddings:  embeddings,
		queryPrefix: domain.DefaultQueryPrefix,
		defaults:    domain.DefaultSearchOptions(),
		metrics:     nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve fills unset option fields from the service defaults. Each
// weight is resolved on its own.
func (s *SearchService) resolve(opts domain.SearchOptions) domain.SearchOptions {
	if opts.TopK <= 0 {
		opts.TopK = s.defaults.TopK
	}
	opts.BM25Weight = firstWeight(opts.BM25Weight, s.defaults.BM25Weight, domain.DefaultBM25Weight)
	opts.EmbeddingWeight = firstWeight(opts.EmbeddingWeight, s.defaults.EmbeddingWeight, domain.DefaultEmbeddingWeight)
	if opts.LexicalMode == "" {
		opts.LexicalMode = s.defaults.LexicalMode
	}
	return opts
}

func firstWeight(set, fallback *float64, def float64) *float64 {
	switch {
	case set != nil:
		return set
	case fallback != nil:
		return fallback
	default:
		return domain.Weight(def)
	}
}

// SearchDocuments ranks stored chunks against query.
func (s *SearchService) SearchDocuments(
	ctx context.Context, query string, opts domain.SearchOptions,
) domain.SearchResponse {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	start := time.Now()
	resp := domain.SearchResponse{Results: []domain.SearchResult{}, Mode: domain.SearchModeLexicalOnly}
	defer func() {
		s.metrics.ObserveSearch(string(resp.Mode), time.Since(start))
	}()

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return resp
	}

	opts = s.resolve(opts)
	if opts.Category != nil && !opts.Category.IsValid() {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("unknown category %q", *opts.Category))
		return resp
	}
	if !opts.LexicalMode.IsValid() {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("unknown lexical mode %q, using containment", opts.LexicalMode))
		opts.LexicalMode = domain.LexicalModeContainment
	}

	if s.store == nil {
		resp.Unavailable = true
		resp.Warnings = append(resp.Warnings, domain.ErrStoreUnavailable.Error())
		return resp
	}

	limit := opts.TopK * domain.CandidateMultiplier
	candidates, err := s.store.Candidates(ctx, query, opts.Category, limit)
	if err != nil {
		logger.Warn("search candidates: %v", err)
		resp.Unavailable = true
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("index store unavailable: %v", err))
		return resp
	}
	resp.CandidatesScanned = len(candidates)
	logger.Debug("Retrieved %d candidates (limit %d)", len(candidates), limit)
	if len(candidates) == 0 {
		return resp
	}

	lexical := s.lexicalScores(ctx, query, candidates, opts.LexicalMode, &resp)

	queryVec := s.queryEmbedding(ctx, query, &resp)
	if queryVec != nil {
		resp.Mode = domain.SearchModeHybrid
	}

	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		var embScore float64
		if queryVec != nil {
			score, err := candidateSimilarity(queryVec, c)
			if err != nil {
				resp.SkippedEmbeddings++
				logger.Debug("Skipping embedding for %s#%d: %v",
					c.Record.Document.RelativePath, c.Record.Chunk.ChunkID, err)
			} else {
				embScore = score
			}
		}

		results[i] = domain.SearchResult{
			Record:         c.Record,
			LexicalScore:   lexical[i],
			EmbeddingScore: embScore,
			CombinedScore:  *opts.BM25Weight*lexical[i] + *opts.EmbeddingWeight*embScore,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	resp.Results = results

	if resp.SkippedEmbeddings > 0 {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("%d candidates had unusable embeddings and scored 0", resp.SkippedEmbeddings))
	}

	logger.Debug("Returning %d results (%s)", len(results), resp.Mode)
	return resp
}

// lexicalScores returns the containment scores, or BM25 scores from the
// ranker when that mode is selected and available.
func (s *SearchService) lexicalScores(
	ctx context.Context, query string, candidates []domain.Candidate, mode domain.LexicalMode, resp *domain.SearchResponse,
) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.LexicalScore
	}

	if mode != domain.LexicalModeBM25 {
		return scores
	}
	if s.ranker == nil {
		resp.Warnings = append(resp.Warnings, "bm25 ranker not configured, using containment scores")
		return scores
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Record.Chunk.TokenText
	}
	ranked, err := s.ranker.Rank(ctx, query, texts)
	if err != nil || len(ranked) != len(candidates) {
		logger.Warn("bm25 ranking failed, using containment scores: %v", err)
		resp.Warnings = append(resp.Warnings, "bm25 ranking failed, using containment scores")
		return scores
	}
	return ranked
}

// queryEmbedding embeds the query, or returns nil to degrade to lexical-only.
func (s *SearchService) queryEmbedding(ctx context.Context, query string, resp *domain.SearchResponse) []float32 {
	if s.embeddings == nil || !s.embeddings.LoadModel(ctx) {
		return nil
	}

	vec, err := s.embeddings.GenerateSingleEmbedding(ctx, query, s.queryPrefix)
	if err != nil {
		logger.Warn("query embedding failed, using lexical scores only: %v", err)
		s.metrics.EmbeddingFailures(1)
		resp.Warnings = append(resp.Warnings, "query embedding failed, results ranked lexically")
		return nil
	}
	return vec
}

// candidateSimilarity scores a stored embedding against the query vector.
func candidateSimilarity(queryVec []float32, c domain.Candidate) (float64, error) {
	if c.EmbeddingErr != nil {
		return 0, c.EmbeddingErr
	}
	emb := c.Record.Chunk.Embedding
	if len(emb) == 0 {
		return 0, fmt.Errorf("%w: no embedding stored", domain.ErrMalformedEmbedding)
	}
	if c.Record.Chunk.EmbeddingDim != 0 && c.Record.Chunk.EmbeddingDim != len(emb) {
		return 0, fmt.Errorf("%w: stored dimension %d, vector length %d",
			domain.ErrMalformedEmbedding, c.Record.Chunk.EmbeddingDim, len(emb))
	}
	return dot(queryVec, emb)
}

// SearchTableContext searches table_context documents only.
func (s *SearchService) SearchTableContext(ctx context.Context, query string, topK int) domain.SearchResponse {
	return s.searchCategory(ctx, query, topK, domain.CategoryTableContext)
}

// SearchPodQueries searches pod_queries documents only.
func (s *SearchService) SearchPodQueries(ctx context.Context, query string, topK int) domain.SearchResponse {
	return s.searchCategory(ctx, query, topK, domain.CategoryPodQueries)
}

// SearchUserContext searches user_context documents only.
func (s *SearchService) SearchUserContext(ctx context.Context, query string, topK int) domain.SearchResponse {
	return s.searchCategory(ctx, query, topK, domain.CategoryUserContext)
}

func (s *SearchService) searchCategory(
	ctx context.Context, query string, topK int, category domain.Category,
) domain.SearchResponse {
	opts := s.defaults.WithCategory(category)
	opts.TopK = topK
	return s.SearchDocuments(ctx, query, opts)
}

// GetFullDocumentContent returns every chunk of a document ordered by
// chunk ID, or nil if the store is unavailable or the document unknown.
func (s *SearchService) GetFullDocumentContent(ctx context.Context, documentID string) []domain.Record {
	if s.store == nil || strings.TrimSpace(documentID) == "" {
		return nil
	}

	records, err := s.store.DocumentChunks(ctx, documentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("document chunks for %s: %v", documentID, err)
		}
		return nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Chunk.ChunkID < records[j].Chunk.ChunkID
	})
	return records
}
