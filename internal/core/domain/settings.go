package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// Default indexing parameters.
const (
	DefaultChunkSize      = 2000
	DefaultChunkOverlap   = 200
	DefaultUploadBatch    = 500
	DefaultEmbedBatchSize = 32
	DefaultMinTokenLength = 2
)

// DefaultQueryPrefix is prepended to queries before embedding. Retrieval
// models are trained with a different instruction for queries than for
// passages; passages are embedded without a prefix.
const DefaultQueryPrefix = "Represent this sentence for searching relevant passages: "

// SupportedExtensions lists the file extensions picked up by the walk.
func SupportedExtensions() []string {
	return []string{".md", ".sql", ".txt", ".json", ".yaml", ".yml"}
}

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible gateway.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexSettings holds document processing and upload configuration.
type IndexSettings struct {
	// Root is the content root directory.
	Root string

	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks in bytes.
	ChunkOverlap int

	// BatchSize is the number of records written per upload batch.
	BatchSize int

	// Workers bounds the document processing worker pool.
	Workers int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// QueryPrefix is prepended to search queries before embedding.
	QueryPrefix string

	// Timeout bounds each call to the backend.
	Timeout time.Duration

	// RequestsPerSecond limits calls to the backend. Zero means unlimited.
	RequestsPerSecond float64

	// BatchSize is the number of texts embedded per backend call.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	TopK            int
	BM25Weight      float64
	EmbeddingWeight float64
	LexicalMode     LexicalMode
}

// Options converts the settings into search options.
func (s SearchSettings) Options() SearchOptions {
	return SearchOptions{
		TopK:            s.TopK,
		BM25Weight:      Weight(s.BM25Weight),
		EmbeddingWeight: Weight(s.EmbeddingWeight),
		LexicalMode:     s.LexicalMode,
	}
}

// StoreSettings holds index store configuration.
type StoreSettings struct {
	// DataDir is the directory holding the index database.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Index     IndexSettings
	Embedding EmbeddingSettings
	Search    SearchSettings
	Store     StoreSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider is left unconfigured; search runs lexical-only
// until one is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Index: IndexSettings{
			Root:         ".",
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			BatchSize:    DefaultUploadBatch,
			Workers:      4,
		},
		Embedding: EmbeddingSettings{
			QueryPrefix: DefaultQueryPrefix,
			Timeout:     30 * time.Second,
			BatchSize:   DefaultEmbedBatchSize,
		},
		Search: SearchSettings{
			TopK:            DefaultTopK,
			BM25Weight:      DefaultBM25Weight,
			EmbeddingWeight: DefaultEmbeddingWeight,
			LexicalMode:     LexicalModeContainment,
		},
	}
}

// Validate checks the settings for consistency. Violations wrap ErrInvalidInput.
func (s *AppSettings) Validate() error {
	idx := s.Index
	if idx.ChunkSize <= 0 {
		return fmt.Errorf("%w: index.chunk_size must be positive", ErrInvalidInput)
	}
	if idx.ChunkOverlap < 0 || idx.ChunkOverlap >= idx.ChunkSize {
		return fmt.Errorf("%w: index.chunk_overlap must be in [0, chunk_size)", ErrInvalidInput)
	}
	if idx.BatchSize <= 0 {
		return fmt.Errorf("%w: index.batch_size must be positive", ErrInvalidInput)
	}

	search := s.Search
	if search.TopK <= 0 {
		return fmt.Errorf("%w: search.top_k must be positive", ErrInvalidInput)
	}
	if search.BM25Weight < 0 || search.EmbeddingWeight < 0 {
		return fmt.Errorf("%w: search weights must not be negative", ErrInvalidInput)
	}
	if !search.LexicalMode.IsValid() {
		return fmt.Errorf("%w: unknown lexical mode %q", ErrInvalidInput, search.LexicalMode)
	}

	emb := s.Embedding
	if emb.Provider != "" && !emb.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, emb.Provider)
	}
	if emb.Provider.RequiresAPIKey() && emb.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s requires an API key", ErrInvalidInput, emb.Provider)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		"bge-m3":            1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
