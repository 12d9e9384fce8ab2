package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

func newTestIndexService(
	conn *mockConnector, gen *EmbeddingGenerator, store *memory.IndexStore, metrics *recordingMetrics,
) *IndexService {
	settings := domain.DefaultAppSettings()
	settings.Index.BatchSize = 2
	settings.Embedding.BatchSize = 1

	var m driven.Metrics
	if metrics != nil {
		m = metrics
	}
	processor := NewDocumentProcessor(conn, &mockPipeline{}, 2, m)
	return NewIndexService(processor, gen, store, settings, m)
}

func TestIndexService_IndexAll_WithEmbeddings(t *testing.T) {
	ctx := context.Background()
	conn := newMockConnector(map[string]string{"a.md": "alpha", "b.md": "beta", "c.md": "gamma"})
	embedSvc := &mockEmbeddingService{embedFn: func(string) ([]float32, error) { return []float32{2, 0, 0}, nil }}
	gen := NewEmbeddingGenerator(loaderFor(embedSvc, nil), domain.EmbeddingSettings{})
	store := memory.NewIndexStore()
	metrics := newRecordingMetrics()

	report, err := newTestIndexService(conn, gen, store, metrics).IndexAll(ctx)

	require.NoError(t, err)
	assert.True(t, report.EmbeddingsEnabled)
	assert.Equal(t, 3, report.ChunksEmbedded)
	assert.Zero(t, report.EmbeddingFailures)
	require.NotNil(t, report.Upload)
	assert.True(t, report.Upload.Completed)
	assert.Equal(t, 2, report.Upload.BatchesWritten)
	assert.Equal(t, 3, metrics.chunksUploaded)
	assert.Equal(t, []string{"completed"}, metrics.runs)

	chunks, err := store.DocumentChunks(ctx, "id-a.md")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{1, 0, 0}, chunks[0].Chunk.Embedding)
	assert.Equal(t, 3, chunks[0].Chunk.EmbeddingDim)
}

func TestIndexService_IndexAll_WithoutBackend(t *testing.T) {
	ctx := context.Background()
	conn := newMockConnector(map[string]string{"a.md": "alpha", "b.md": "beta"})
	gen := NewEmbeddingGenerator(unconfiguredLoader, domain.EmbeddingSettings{})
	store := memory.NewIndexStore()

	report, err := newTestIndexService(conn, gen, store, newRecordingMetrics()).IndexAll(ctx)

	require.NoError(t, err)
	assert.False(t, report.EmbeddingsEnabled)
	assert.Equal(t, 2, report.EmbeddingFailures)

	stats, err := store.TableStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks, "chunks stay lexically searchable")
}

func TestIndexService_IndexAll_FailedEmbeddingBatch(t *testing.T) {
	ctx := context.Background()
	conn := newMockConnector(map[string]string{"a.md": "alpha", "b.md": "bad", "c.md": "gamma"})
	embedSvc := &mockEmbeddingService{embedFn: func(text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("rejected")
		}
		return []float32{0, 1, 0}, nil
	}}
	gen := NewEmbeddingGenerator(loaderFor(embedSvc, nil), domain.EmbeddingSettings{})
	store := memory.NewIndexStore()
	metrics := newRecordingMetrics()

	report, err := newTestIndexService(conn, gen, store, metrics).IndexAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, report.ChunksEmbedded)
	assert.Equal(t, 1, report.EmbeddingFailures)
	assert.Equal(t, 1, metrics.embeddingFailures)

	chunks, err := store.DocumentChunks(ctx, "id-b.md")
	require.NoError(t, err)
	assert.Empty(t, chunks[0].Chunk.Embedding)
	assert.Zero(t, chunks[0].Chunk.EmbeddingDim)
}

func TestIndexService_IndexAll_MissingRootKeepsIndex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIndexStore()
	_, err := newTestIndexService(newMockConnector(map[string]string{"a.md": "alpha"}), nil, store, nil).IndexAll(ctx)
	require.NoError(t, err)

	missing := &mockConnector{root: "/gone", filesErr: fmt.Errorf("%w: /gone", domain.ErrRootNotFound)}
	report, err := newTestIndexService(missing, nil, store, nil).IndexAll(ctx)

	require.ErrorIs(t, err, domain.ErrRootNotFound)
	assert.True(t, report.Process.RootMissing)
	assert.Nil(t, report.Upload)

	stats, err := store.TableStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestIndexService_IndexAll_UploadFailureKeepsPreviousRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIndexStore()
	first, err := newTestIndexService(newMockConnector(map[string]string{"old.md": "old"}), nil, store, nil).IndexAll(ctx)
	require.NoError(t, err)

	store.FailBatch(1)
	metrics := newRecordingMetrics()
	conn := newMockConnector(map[string]string{"a.md": "a", "b.md": "b", "c.md": "c"})
	report, err := newTestIndexService(conn, nil, store, metrics).IndexAll(ctx)

	require.ErrorIs(t, err, domain.ErrUploadFailed)
	require.NotNil(t, report.Upload)
	assert.False(t, report.Upload.Completed)
	assert.Equal(t, 1, report.Upload.FailedBatch)
	assert.Equal(t, []string{"failed"}, metrics.runs)

	stats, err := store.TableStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Upload.RunID, stats.RunID)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestIndexService_IndexAll_EmptyRootClearsVisibleContent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIndexStore()
	_, err := newTestIndexService(newMockConnector(map[string]string{"a.md": "alpha"}), nil, store, nil).IndexAll(ctx)
	require.NoError(t, err)

	report, err := newTestIndexService(newMockConnector(nil), nil, store, nil).IndexAll(ctx)

	require.NoError(t, err)
	assert.True(t, report.Upload.Completed)
	stats, err := store.TableStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
}

func TestIndexService_StatsAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIndexStore()
	svc := newTestIndexService(newMockConnector(map[string]string{"a.md": "alpha", "b.md": "beta"}), nil, store, nil)
	_, err := svc.IndexAll(ctx)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks)

	require.NoError(t, svc.Clear(ctx))
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
}
