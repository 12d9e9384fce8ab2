package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/core/ports/driving"
	"github.com/custodia-labs/docindex/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs the processor, embedding generator and uploader in
// sequence to rebuild the index.
type IndexService struct {
	processor   *DocumentProcessor
	embeddings  *EmbeddingGenerator
	store       driven.IndexStore
	uploadBatch int
	embedBatch  int
	metrics     driven.Metrics
}

// NewIndexService creates an index service.
// The embeddings parameter is optional (can be nil).
func NewIndexService(
	processor *DocumentProcessor,
	embeddings *EmbeddingGenerator,
	store driven.IndexStore,
	settings domain.AppSettings,
	metrics driven.Metrics,
) *IndexService {
	uploadBatch := settings.Index.BatchSize
	if uploadBatch <= 0 {
		uploadBatch = domain.DefaultUploadBatch
	}
	embedBatch := settings.Embedding.BatchSize
	if embedBatch <= 0 {
		embedBatch = domain.DefaultEmbedBatchSize
	}
	return &IndexService{
		processor:   processor,
		embeddings:  embeddings,
		store:       store,
		uploadBatch: uploadBatch,
		embedBatch:  embedBatch,
		metrics:     metricsOrNop(metrics),
	}
}

// IndexAll processes every document, embeds the chunks when a backend is
// available and uploads the result as a new index run. A missing content
// root leaves the existing index untouched.
func (s *IndexService) IndexAll(ctx context.Context) (*domain.IndexReport, error) {
	start := time.Now()
	report := &domain.IndexReport{}
	defer func() {
		report.Duration = time.Since(start)
	}()

	records, processReport := s.processor.ProcessAll(ctx)
	report.Process = processReport
	if processReport.RootMissing {
		return report, fmt.Errorf("%w: %s", domain.ErrRootNotFound, processReport.Root)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.embedRecords(ctx, records, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.Section("Upload")
	upload, err := s.store.UploadChunks(ctx, records, s.uploadBatch)
	report.Upload = upload
	if err != nil {
		s.metrics.IndexRun("failed")
		if upload != nil {
			s.metrics.ChunksUploaded(upload.RecordsWritten)
		}
		return report, fmt.Errorf("upload: %w", err)
	}

	s.metrics.ChunksUploaded(upload.RecordsWritten)
	s.metrics.IndexRun("completed")
	logger.Info("Run %s: %d records in %d batches", upload.RunID, upload.RecordsWritten, upload.BatchesWritten)
	return report, nil
}

// embedRecords fills chunk embeddings batch by batch. A failed batch
// leaves its chunks without embeddings; they stay lexically searchable.
func (s *IndexService) embedRecords(ctx context.Context, records []domain.Record, report *domain.IndexReport) {
	if s.embeddings == nil || len(records) == 0 {
		return
	}

	logger.Section("Embedding")
	if !s.embeddings.LoadModel(ctx) {
		logger.Warn("embedding backend unavailable; indexing without embeddings")
		report.EmbeddingFailures = len(records)
		s.metrics.EmbeddingFailures(len(records))
		return
	}
	report.EmbeddingsEnabled = true

	for start := 0; start < len(records); start += s.embedBatch {
		end := min(start+s.embedBatch, len(records))

		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Chunk.Content)
		}

		vecs, err := s.embeddings.GenerateEmbeddings(ctx, texts)
		if err != nil {
			logger.Warn("embedding batch %d-%d failed: %v", start, end, err)
			report.EmbeddingFailures += end - start
			s.metrics.EmbeddingFailures(end - start)
			if ctx.Err() != nil {
				return
			}
			continue
		}

		for i, v := range vecs {
			records[start+i].Chunk.Embedding = v
			records[start+i].Chunk.EmbeddingDim = len(v)
		}
		report.ChunksEmbedded += len(vecs)
	}
	logger.Info("Embedded %d chunks (%d failed)", report.ChunksEmbedded, report.EmbeddingFailures)
}

// Stats returns statistics about the visible index content.
func (s *IndexService) Stats(ctx context.Context) (*domain.TableStats, error) {
	return s.store.TableStats(ctx)
}

// Clear removes all index content.
func (s *IndexService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
