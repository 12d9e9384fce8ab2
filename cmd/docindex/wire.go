package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docindex/internal/adapters/driven/ai"
	"github.com/custodia-labs/docindex/internal/adapters/driven/lexical/bm25"
	"github.com/custodia-labs/docindex/internal/adapters/driven/metrics"
	"github.com/custodia-labs/docindex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docindex/internal/adapters/driving/cli"
	"github.com/custodia-labs/docindex/internal/connectors/filesystem"
	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/services"
	"github.com/custodia-labs/docindex/internal/normalisers"
	"github.com/custodia-labs/docindex/internal/postprocessors"
)

// buildServices wires the driven adapters into the core services.
func buildServices(_ context.Context, settings domain.AppSettings) (*cli.Services, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Index)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	recorder := metrics.NewRecorder()
	connector := filesystem.New(settings.Index.Root,
		filesystem.WithNormalisers(normalisers.NewDefaultRegistry()))
	embeddings := services.NewEmbeddingGenerator(ai.NewEmbeddingLoader(settings.Embedding), settings.Embedding)

	processor := services.NewDocumentProcessor(connector, pipeline, settings.Index.Workers, recorder)
	indexService := services.NewIndexService(processor, embeddings, store, settings, recorder)
	searchService := services.NewSearchService(store, embeddings,
		services.WithLexicalRanker(bm25.NewRanker()),
		services.WithQueryPrefix(settings.Embedding.QueryPrefix),
		services.WithSearchDefaults(settings.Search.Options()),
		services.WithSearchMetrics(recorder),
	)

	return &cli.Services{
		Index:   indexService,
		Search:  searchService,
		Watcher: connector,
		Metrics: recorder.Handler(),
		Close: func() error {
			return errors.Join(connector.Close(), embeddings.Close(), store.Close())
		},
	}, nil
}
