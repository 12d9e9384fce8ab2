package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/logger"
)

// errNoContent marks zero-length files.
var errNoContent = errors.New("no content")

// DocumentProcessor walks the content root and turns files into records.
type DocumentProcessor struct {
	connector driven.Connector
	pipeline  driven.PostProcessorPipeline
	workers   int
	metrics   driven.Metrics
	now       func() time.Time
}

// NewDocumentProcessor creates a processor. Workers below one means one.
func NewDocumentProcessor(
	connector driven.Connector,
	pipeline driven.PostProcessorPipeline,
	workers int,
	metrics driven.Metrics,
) *DocumentProcessor {
	if workers < 1 {
		workers = 1
	}
	return &DocumentProcessor{
		connector: connector,
		pipeline:  pipeline,
		workers:   workers,
		metrics:   metricsOrNop(metrics),
		now:       time.Now,
	}
}

// fileResult is the outcome for one file.
type fileResult struct {
	records []domain.Record
	err     *domain.ProcessingError
}

// ProcessAll extracts, chunks and tokenises every file under the root.
// Per-file failures are recorded in the report and never abort the pass.
// A missing root yields no records and a report with RootMissing set.
// Records are ordered by relative path, then chunk ID.
func (p *DocumentProcessor) ProcessAll(ctx context.Context) ([]domain.Record, *domain.ProcessReport) {
	logger.Section("Document Processing")

	report := &domain.ProcessReport{Root: p.connector.Root()}

	files, err := p.connector.Files(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrRootNotFound) {
			report.RootMissing = true
			logger.Warn("content root not found: %s", report.Root)
		} else {
			logger.Error("walk %s: %v", report.Root, err)
		}
		return nil, report
	}
	report.FilesSeen = len(files)
	logger.Debug("Found %d candidate files under %s", len(files), report.Root)

	processedAt := p.now().UTC()
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, file := range files {
		g.Go(func() error {
			results[i] = p.processFile(gctx, file, processedAt)
			return nil
		})
	}
	_ = g.Wait()

	var records []domain.Record
	for _, r := range results {
		if r.err != nil {
			report.Errors = append(report.Errors, *r.err)
			p.metrics.FilesSkipped(string(r.err.Kind), 1)
			logger.Warn("skipping %s: %v", r.err.Path, r.err.Err)
			continue
		}
		report.FilesProcessed++
		report.ChunksProduced += len(r.records)
		records = append(records, r.records...)
	}
	p.metrics.FilesProcessed(report.FilesProcessed)

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Document.RelativePath != b.Document.RelativePath {
			return a.Document.RelativePath < b.Document.RelativePath
		}
		return a.Chunk.ChunkID < b.Chunk.ChunkID
	})

	logger.Info("Processed %d/%d files into %d chunks", report.FilesProcessed, report.FilesSeen, report.ChunksProduced)
	return records, report
}

// processFile extracts and chunks a single file.
func (p *DocumentProcessor) processFile(ctx context.Context, file domain.SourceFile, processedAt time.Time) fileResult {
	fail := func(kind domain.ProcessingErrorKind, err error) fileResult {
		return fileResult{err: &domain.ProcessingError{Path: file.RelativePath, Kind: kind, Err: err}}
	}

	if err := ctx.Err(); err != nil {
		return fail(domain.ProcessingErrorRead, err)
	}

	doc, err := p.connector.Extract(ctx, file)
	if err != nil {
		var perr domain.ProcessingError
		if errors.As(err, &perr) {
			perr.Path = file.RelativePath
			return fileResult{err: &perr}
		}
		return fail(domain.ProcessingErrorMetadata, err)
	}

	if doc.Content == "" {
		return fail(domain.ProcessingErrorEmpty, errNoContent)
	}

	chunks, err := p.pipeline.Process(ctx, doc)
	if err != nil {
		return fail(domain.ProcessingErrorChunk, fmt.Errorf("chunk: %w", err))
	}

	meta := *doc
	meta.Content = ""

	records := make([]domain.Record, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, domain.Record{
			Document:    meta,
			Chunk:       c,
			ProcessedAt: processedAt,
		})
	}
	return fileResult{records: records}
}
