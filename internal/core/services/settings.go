package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexRoot         = "index.root"
	keyIndexChunkSize    = "index.chunk_size"
	keyIndexChunkOverlap = "index.chunk_overlap"
	keyIndexBatchSize    = "index.batch_size"
	keyIndexWorkers      = "index.workers"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedQueryPrefix  = "embedding.query_prefix"
	keyEmbedTimeout      = "embedding.timeout_seconds"
	keyEmbedRPS          = "embedding.requests_per_second"
	keySearchTopK        = "search.top_k"
	keySearchBM25Weight  = "search.bm25_weight"
	keySearchEmbedWeight = "search.embedding_weight"
	keySearchLexicalMode = "search.lexical_mode"
	keyStoreDataDir      = "store.data_dir"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Index: domain.IndexSettings{
			Root:         s.getString(keyIndexRoot, defaults.Index.Root),
			ChunkSize:    s.getInt(keyIndexChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap: s.getIntAllowZero(keyIndexChunkOverlap, defaults.Index.ChunkOverlap),
			BatchSize:    s.getInt(keyIndexBatchSize, defaults.Index.BatchSize),
			Workers:      s.getInt(keyIndexWorkers, defaults.Index.Workers),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			QueryPrefix:       s.getStringAllowEmpty(keyEmbedQueryPrefix, defaults.Embedding.QueryPrefix),
			Timeout:           time.Duration(s.getInt(keyEmbedTimeout, int(defaults.Embedding.Timeout/time.Second))) * time.Second,
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			BatchSize:         defaults.Embedding.BatchSize,
		},
		Search: domain.SearchSettings{
			TopK:            s.getInt(keySearchTopK, defaults.Search.TopK),
			BM25Weight:      s.getFloat(keySearchBM25Weight, defaults.Search.BM25Weight),
			EmbeddingWeight: s.getFloat(keySearchEmbedWeight, defaults.Search.EmbeddingWeight),
			LexicalMode:     s.getLexicalMode(defaults.Search.LexicalMode),
		},
		Store: domain.StoreSettings{
			DataDir: s.getString(keyStoreDataDir, defaults.Store.DataDir),
		},
	}

	if settings.Embedding.Model == "" && settings.Embedding.Provider.IsValid() {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyIndexRoot, settings.Index.Root},
		{keyIndexChunkSize, settings.Index.ChunkSize},
		{keyIndexChunkOverlap, settings.Index.ChunkOverlap},
		{keyIndexBatchSize, settings.Index.BatchSize},
		{keyIndexWorkers, settings.Index.Workers},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedQueryPrefix, settings.Embedding.QueryPrefix},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keySearchTopK, settings.Search.TopK},
		{keySearchBM25Weight, settings.Search.BM25Weight},
		{keySearchEmbedWeight, settings.Search.EmbeddingWeight},
		{keySearchLexicalMode, settings.Search.LexicalMode.String()},
		{keyStoreDataDir, settings.Store.DataDir},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringAllowEmpty(key, defaultVal string) string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.configStore.GetFloat(key); ok {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getLexicalMode(defaultVal domain.LexicalMode) domain.LexicalMode {
	mode := domain.LexicalMode(s.configStore.GetString(keySearchLexicalMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
