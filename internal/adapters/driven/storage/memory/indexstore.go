package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// errInjected is returned by batches failed through FailBatch.
var errInjected = errors.New("injected batch failure")

// IndexStore is an in-memory implementation of driven.IndexStore for
// testing. It keeps the run semantics of the SQLite store: uploads are
// staged and become visible only when every batch succeeds.
type IndexStore struct {
	mu        sync.RWMutex
	current   []domain.Record
	runID     string
	failBatch int
	down      bool
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{failBatch: -1}
}

// FailBatch makes the next uploads fail on the given 0-based batch.
// A negative value disables the failure.
func (s *IndexStore) FailBatch(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatch = n
}

// SetUnavailable makes every read return domain.ErrStoreUnavailable.
func (s *IndexStore) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// EnsureSchema is a no-op.
func (s *IndexStore) EnsureSchema(_ context.Context) error {
	return nil
}

// UploadChunks stages records in batches and swaps them in on success.
func (s *IndexStore) UploadChunks(ctx context.Context, records []domain.Record, batchSize int) (*domain.UploadReport, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.UploadReport{RunID: uuid.NewString(), FailedBatch: -1}
	staged := make([]domain.Record, 0, len(records))

	for batch, start := 0, 0; start < len(records); batch, start = batch+1, start+batchSize {
		if err := ctx.Err(); err != nil {
			report.FailedBatch = batch
			return report, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
		}
		if batch == s.failBatch {
			report.FailedBatch = batch
			return report, fmt.Errorf("%w: batch %d: %w", domain.ErrUploadFailed, batch, errInjected)
		}

		end := min(start+batchSize, len(records))
		for _, r := range records[start:end] {
			r.RunID = report.RunID
			staged = append(staged, r)
		}
		report.BatchesWritten++
		report.RecordsWritten += end - start
	}

	s.current = dedupe(staged)
	s.runID = report.RunID
	report.Completed = true
	return report, nil
}

// dedupe keeps the last record per (document_id, chunk_id).
func dedupe(records []domain.Record) []domain.Record {
	index := make(map[domain.RecordKey]int, len(records))
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.Key()]; ok {
			out[i] = r
			continue
		}
		index[r.Key()] = len(out)
		out = append(out, r)
	}
	return out
}

// TableStats returns aggregate statistics about the visible records.
func (s *IndexStore) TableStats(_ context.Context) (*domain.TableStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, domain.ErrStoreUnavailable
	}

	stats := &domain.TableStats{RunID: s.runID, TotalChunks: len(s.current)}
	if len(s.current) == 0 {
		return stats, nil
	}

	files := make(map[string]struct{})
	categories := make(map[domain.Category]struct{})
	var totalLen int
	for i, r := range s.current {
		files[r.Document.ContentHash] = struct{}{}
		categories[r.Document.Category] = struct{}{}
		totalLen += len(r.Chunk.Content)
		if i == 0 || r.ProcessedAt.Before(stats.FirstProcessedAt) {
			stats.FirstProcessedAt = r.ProcessedAt
		}
		if r.ProcessedAt.After(stats.LastProcessedAt) {
			stats.LastProcessedAt = r.ProcessedAt
		}
	}
	stats.DistinctFiles = len(files)
	stats.DistinctCategory = len(categories)
	stats.AvgContentLength = float64(totalLen) / float64(len(s.current))
	return stats, nil
}

// Clear deletes every record and run.
func (s *IndexStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.runID = ""
	return nil
}

// Candidates scores visible records by tiered containment.
func (s *IndexStore) Candidates(
	_ context.Context, query string, category *domain.Category, limit int,
) ([]domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, domain.ErrStoreUnavailable
	}

	var out []domain.Candidate
	for _, r := range s.current {
		if category != nil && r.Document.Category != *category {
			continue
		}
		out = append(out, domain.Candidate{Record: r, LexicalScore: domain.ContainmentScore(query, r)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LexicalScore != b.LexicalScore {
			return a.LexicalScore > b.LexicalScore
		}
		if a.Record.Document.RelativePath != b.Record.Document.RelativePath {
			return a.Record.Document.RelativePath < b.Record.Document.RelativePath
		}
		return a.Record.Chunk.ChunkID < b.Record.Chunk.ChunkID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DocumentChunks returns a document's visible records ordered by chunk ID.
func (s *IndexStore) DocumentChunks(_ context.Context, documentID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, domain.ErrStoreUnavailable
	}

	var out []domain.Record
	for _, r := range s.current {
		if r.Document.ID == documentID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chunk.ChunkID < out[j].Chunk.ChunkID })
	return out, nil
}

// Ping reports whether the store is available.
func (s *IndexStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}
