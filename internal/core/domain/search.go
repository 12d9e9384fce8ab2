package domain

import "strings"

// Default search parameters.
const (
	DefaultTopK            = 5
	DefaultBM25Weight      = 0.3
	DefaultEmbeddingWeight = 0.7

	// CandidateMultiplier is how many candidates are fetched per requested result.
	CandidateMultiplier = 3
)

// Lexical containment tiers. The store scores a candidate with the first
// field that contains the query, case-insensitively.
const (
	LexicalScoreTokens   = 1.0
	LexicalScoreContent  = 0.8
	LexicalScoreFileName = 0.6
	LexicalScoreNone     = 0.0
)

// LexicalMode selects how the lexical score of a candidate is computed.
type LexicalMode string

// Available lexical modes.
const (
	// LexicalModeContainment is the tiered substring heuristic computed by the store.
	LexicalModeContainment LexicalMode = "containment"

	// LexicalModeBM25 re-scores the candidate set with term-frequency BM25 ranking.
	LexicalModeBM25 LexicalMode = "bm25"
)

// IsValid returns true if the lexical mode is recognised.
func (m LexicalMode) IsValid() bool {
	return m == LexicalModeContainment || m == LexicalModeBM25
}

// String returns the string representation.
func (m LexicalMode) String() string {
	return string(m)
}

// SearchMode reports which signals contributed to a ranking.
type SearchMode string

// Available search modes.
const (
	// SearchModeLexicalOnly ranks purely by lexical score.
	SearchModeLexicalOnly SearchMode = "lexical_only"

	// SearchModeHybrid combines lexical score and embedding similarity.
	SearchModeHybrid SearchMode = "hybrid"
)

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeLexicalOnly:
		return "Lexical only (embedding backend unavailable)"
	case SearchModeHybrid:
		return "Hybrid (lexical + embedding)"
	default:
		return unknownDescription
	}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Category restricts results to one category when non-nil.
	Category *Category

	// TopK is the maximum number of results.
	TopK int

	// BM25Weight weights the lexical score. Nil selects the default;
	// an explicit zero disables the lexical signal.
	BM25Weight *float64

	// EmbeddingWeight weights the embedding similarity. Nil selects the
	// default.
	EmbeddingWeight *float64

	// LexicalMode selects the lexical scorer.
	LexicalMode LexicalMode
}

// DefaultSearchOptions returns the default search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:            DefaultTopK,
		BM25Weight:      Weight(DefaultBM25Weight),
		EmbeddingWeight: Weight(DefaultEmbeddingWeight),
		LexicalMode:     LexicalModeContainment,
	}
}

// Weight returns a pointer to w for the SearchOptions weight fields.
func Weight(w float64) *float64 {
	return &w
}

// WithCategory returns a copy of the options restricted to c.
func (o SearchOptions) WithCategory(c Category) SearchOptions {
	o.Category = &c
	return o
}

// Candidate is a stored record with the lexical score assigned by the store.
type Candidate struct {
	Record Record

	// LexicalScore is the tiered containment score.
	LexicalScore float64

	// EmbeddingErr is set when the stored embedding could not be decoded.
	EmbeddingErr error
}

// SearchResult represents a single ranked search hit.
type SearchResult struct {
	// Record is the matched chunk with its document metadata.
	Record Record

	// LexicalScore is the lexical relevance (stored as "bm25_score").
	LexicalScore float64

	// EmbeddingScore is the cosine similarity between query and chunk.
	EmbeddingScore float64

	// CombinedScore is the weighted sum used for ranking.
	CombinedScore float64
}

// SearchResponse is the outcome of a search. It never carries an error:
// unavailability is reported through Unavailable and Warnings.
type SearchResponse struct {
	// Results are ranked by CombinedScore, descending.
	Results []SearchResult

	// Mode reports whether embeddings contributed.
	Mode SearchMode

	// CandidatesScanned is the number of candidates scored.
	CandidatesScanned int

	// SkippedEmbeddings counts candidates whose embedding could not be scored.
	SkippedEmbeddings int

	// Unavailable is true when the store could not be queried.
	Unavailable bool

	// Warnings holds non-fatal problems encountered during the search.
	Warnings []string
}

// ContainmentScore returns the tiered lexical score of r for query: the
// first of token text, chunk content and file name that contains the
// query, case-insensitively. An empty query scores zero.
func ContainmentScore(query string, r Record) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case q == "":
		return LexicalScoreNone
	case strings.Contains(strings.ToLower(r.Chunk.TokenText), q):
		return LexicalScoreTokens
	case strings.Contains(strings.ToLower(r.Chunk.Content), q):
		return LexicalScoreContent
	case strings.Contains(strings.ToLower(r.Document.FileName), q):
		return LexicalScoreFileName
	default:
		return LexicalScoreNone
	}
}
