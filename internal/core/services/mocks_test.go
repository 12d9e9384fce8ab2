package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each text embeds to a vector selected by embedFn, or [1, 0, 0] by default.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedFn   func(text string) ([]float32, error)
	pingErr   error
	delay     time.Duration
	calls     int
	lastTexts []string
	closed    bool
}

func (m *mockEmbeddingService) embed(ctx context.Context, text string) ([]float32, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.lastTexts = []string{text}
	m.mu.Unlock()
	return m.embed(ctx, text)
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.lastTexts = append([]string(nil), texts...)
	m.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int   { return 3 }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEmbeddingService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// loaderFor returns a loader yielding svc and counting invocations.
func loaderFor(svc driven.EmbeddingService, loads *int) driven.EmbeddingLoader {
	return func(_ context.Context) (driven.EmbeddingService, error) {
		if loads != nil {
			*loads++
		}
		return svc, nil
	}
}

// unconfiguredLoader mimics a loader with no provider configured.
func unconfiguredLoader(_ context.Context) (driven.EmbeddingService, error) {
	return nil, nil
}

// keywordEmbedder maps texts containing a keyword to a fixed direction.
func keywordEmbedder(dirs map[string][]float32) func(string) ([]float32, error) {
	return func(text string) ([]float32, error) {
		for kw, v := range dirs {
			if strings.Contains(strings.ToLower(text), kw) {
				return append([]float32(nil), v...), nil
			}
		}
		return []float32{0, 0, 1}, nil
	}
}

// mockConnector implements driven.Connector over an in-memory file set.
type mockConnector struct {
	root     string
	files    []domain.SourceFile
	docs     map[string]*domain.Document
	extract  map[string]error
	filesErr error
}

func (m *mockConnector) Root() string { return m.root }

func (m *mockConnector) Files(_ context.Context) ([]domain.SourceFile, error) {
	if m.filesErr != nil {
		return nil, m.filesErr
	}
	return m.files, nil
}

func (m *mockConnector) Extract(_ context.Context, f domain.SourceFile) (*domain.Document, error) {
	if err := m.extract[f.RelativePath]; err != nil {
		return nil, err
	}
	doc, ok := m.docs[f.RelativePath]
	if !ok {
		return nil, errors.New("no such file")
	}
	cp := *doc
	return &cp, nil
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.FileChange, error) {
	return nil, errors.New("watch not supported")
}

func (m *mockConnector) Close() error { return nil }

// mockPipeline implements driven.PostProcessorPipeline with one chunk per document.
type mockPipeline struct {
	err map[string]error
}

func (p *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if err := p.err[doc.RelativePath]; err != nil {
		return nil, err
	}
	return []domain.Chunk{{
		DocumentID: doc.ID,
		ChunkID:    0,
		ChunkCount: 1,
		End:        len(doc.Content),
		Content:    doc.Content,
		TokenText:  doc.Content,
	}}, nil
}

// mockRanker implements driven.LexicalRanker with fixed scores.
type mockRanker struct {
	scores []float64
	err    error
	texts  []string
}

func (r *mockRanker) Rank(_ context.Context, _ string, texts []string) ([]float64, error) {
	r.texts = texts
	if r.err != nil {
		return nil, r.err
	}
	return r.scores, nil
}

// failingStore implements driven.IndexStore returning err from every call.
type failingStore struct {
	err error
}

func (s *failingStore) EnsureSchema(context.Context) error { return s.err }
func (s *failingStore) UploadChunks(context.Context, []domain.Record, int) (*domain.UploadReport, error) {
	return &domain.UploadReport{FailedBatch: 0}, s.err
}
func (s *failingStore) TableStats(context.Context) (*domain.TableStats, error) { return nil, s.err }
func (s *failingStore) Clear(context.Context) error                            { return s.err }
func (s *failingStore) Candidates(context.Context, string, *domain.Category, int) ([]domain.Candidate, error) {
	return nil, s.err
}
func (s *failingStore) DocumentChunks(context.Context, string) ([]domain.Record, error) {
	return nil, s.err
}
func (s *failingStore) Ping(context.Context) error { return s.err }
func (s *failingStore) Close() error               { return nil }

// candidateStore implements driven.IndexStore serving fixed candidates.
type candidateStore struct {
	failingStore
	candidates []domain.Candidate
	lastLimit  int
	lastCat    *domain.Category
}

func (s *candidateStore) Candidates(_ context.Context, _ string, c *domain.Category, limit int) ([]domain.Candidate, error) {
	s.lastLimit = limit
	s.lastCat = c
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

// recordingMetrics implements driven.Metrics and keeps totals.
type recordingMetrics struct {
	mu                sync.Mutex
	filesProcessed    int
	filesSkipped      map[string]int
	chunksUploaded    int
	embeddingFailures int
	runs              []string
	searches          []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{filesSkipped: make(map[string]int)}
}

func (m *recordingMetrics) FilesProcessed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filesProcessed += n
}

func (m *recordingMetrics) FilesSkipped(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filesSkipped[kind] += n
}

func (m *recordingMetrics) ChunksUploaded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunksUploaded += n
}

func (m *recordingMetrics) EmbeddingFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddingFailures += n
}

func (m *recordingMetrics) IndexRun(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *recordingMetrics) ObserveSearch(mode string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, mode)
}
