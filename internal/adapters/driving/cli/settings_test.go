package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplySetting(t *testing.T) {
	settings := domain.DefaultAppSettings()

	require.NoError(t, applySetting(&settings, "index.root", "/srv/docs"))
	require.NoError(t, applySetting(&settings, "INDEX.CHUNK_SIZE", "1000"))
	require.NoError(t, applySetting(&settings, "embedding.provider", "Ollama"))
	require.NoError(t, applySetting(&settings, "embedding.timeout_seconds", "5"))
	require.NoError(t, applySetting(&settings, "search.bm25_weight", "0.45"))
	require.NoError(t, applySetting(&settings, "search.lexical_mode", "BM25"))

	assert.Equal(t, "/srv/docs", settings.Index.Root)
	assert.Equal(t, 1000, settings.Index.ChunkSize)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, 5*time.Second, settings.Embedding.Timeout)
	assert.InDelta(t, 0.45, settings.Search.BM25Weight, 1e-9)
	assert.Equal(t, domain.LexicalModeBM25, settings.Search.LexicalMode)
}

func TestApplySetting_Errors(t *testing.T) {
	settings := domain.DefaultAppSettings()

	assert.ErrorIs(t, applySetting(&settings, "search.colour", "blue"), domain.ErrInvalidInput)
	assert.ErrorIs(t, applySetting(&settings, "search.top_k", "ten"), domain.ErrInvalidInput)
	assert.ErrorIs(t, applySetting(&settings, "search.bm25_weight", "lots"), domain.ErrInvalidInput)
	assert.ErrorIs(t, applySetting(&settings, "embedding.provider", "anthropic"), domain.ErrInvalidInput)
}

func TestSettingKeys_Sorted(t *testing.T) {
	keys := settingKeys()

	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "search.lexical_mode")
	assert.Contains(t, keys, "store.data_dir")
}

func TestSettingsCmd_Show(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Index]")
	assert.Contains(t, out, "Chunk size: 2000 (overlap 200)")
	assert.Contains(t, out, "Provider: (none, search is lexical only)")
	assert.Contains(t, out, "Weights: bm25 0.30, embedding 0.70")
	assert.Contains(t, out, "Lexical mode: containment")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_Set(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings", "set", "search.top_k", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "search.top_k = 10")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, settings.Search.TopK)
}

func TestSettingsCmd_SetMasksAPIKey(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings", "set", "embedding.api_key", "sk-1234567890abcdef")

	require.NoError(t, err)
	assert.Contains(t, out, "embedding.api_key = sk-1...cdef")
	assert.NotContains(t, out, "567890")
}

func TestSettingsCmd_SetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown key", key: "search.colour", value: "blue"},
		{name: "zero top k", key: "search.top_k", value: "0"},
		{name: "overlap not below size", key: "index.chunk_overlap", value: "2000"},
		{name: "unknown lexical mode", key: "search.lexical_mode", value: "fuzzy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t)

			_, err := execute(t, "", "settings", "set", tt.key, tt.value)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			settings, getErr := settingsService.Get()
			require.NoError(t, getErr)
			assert.Equal(t, domain.DefaultAppSettings().Search, settings.Search, "nothing saved")
		})
	}
}

func TestSettingsCmd_Keys(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "index.root\n")
	assert.Contains(t, out, "search.embedding_weight\n")
}

func TestSettingsCmd_EmbeddingWizard(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "1\n\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
}

func TestSettingsCmd_EmbeddingWizardRequiresAPIKey(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "2\n\n\n", "settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
