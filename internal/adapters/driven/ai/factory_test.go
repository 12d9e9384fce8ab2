package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantErr   bool
		wantModel string
		wantDims  int
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  true,
		},
		{
			name:     "unconfigured settings",
			settings: &domain.EmbeddingSettings{},
			wantErr:  true,
		},
		{
			name: "openai without key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantErr: true,
		},
		{
			name: "ollama provider",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "mxbai-embed-large",
			},
			wantModel: "mxbai-embed-large",
			wantDims:  1024,
		},
		{
			name: "ollama unknown model uses default dimensions",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "custom-embed",
			},
			wantModel: "custom-embed",
			wantDims:  768,
		},
		{
			name: "openai provider",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-large",
			},
			wantModel: "text-embedding-3-large",
			wantDims:  3072,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestNewEmbeddingLoader_Unconfigured(t *testing.T) {
	loader := NewEmbeddingLoader(domain.EmbeddingSettings{})

	svc, err := loader(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, svc)
}

func TestNewEmbeddingLoader_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	loader := NewEmbeddingLoader(domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "nomic-embed-text",
	})

	svc, err := loader(context.Background())

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestNewEmbeddingLoader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := NewEmbeddingLoader(domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "sk",
		BaseURL:  srv.URL,
	})

	svc, err := loader(context.Background())

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Nil(t, svc)
}
