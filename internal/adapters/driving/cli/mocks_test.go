package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/docindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docindex/internal/core/domain"
	coreservices "github.com/custodia-labs/docindex/internal/core/services"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response  domain.SearchResponse
	documents map[string][]domain.Record

	lastQuery     string
	lastOpts      domain.SearchOptions
	formatQueries []string
}

func (m *mockSearchService) SearchDocuments(
	_ context.Context, query string, opts domain.SearchOptions,
) domain.SearchResponse {
	m.lastQuery = query
	m.lastOpts = opts
	return m.response
}

func (m *mockSearchService) SearchTableContext(ctx context.Context, query string, topK int) domain.SearchResponse {
	return m.SearchDocuments(ctx, query, domain.SearchOptions{TopK: topK}.WithCategory(domain.CategoryTableContext))
}

func (m *mockSearchService) SearchPodQueries(ctx context.Context, query string, topK int) domain.SearchResponse {
	return m.SearchDocuments(ctx, query, domain.SearchOptions{TopK: topK}.WithCategory(domain.CategoryPodQueries))
}

func (m *mockSearchService) SearchUserContext(ctx context.Context, query string, topK int) domain.SearchResponse {
	return m.SearchDocuments(ctx, query, domain.SearchOptions{TopK: topK}.WithCategory(domain.CategoryUserContext))
}

func (m *mockSearchService) GetFullDocumentContent(_ context.Context, documentID string) []domain.Record {
	return m.documents[documentID]
}

func (m *mockSearchService) FormatSearchResults(_ context.Context, results []domain.SearchResult, query string) string {
	m.formatQueries = append(m.formatQueries, query)
	return fmt.Sprintf("REPORT: %d results for %q\n", len(results), query)
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report *domain.IndexReport
	stats  *domain.TableStats
	err    error

	indexCalls int
	clearCalls int

	// onIndex runs after each IndexAll call with the call count.
	onIndex func(call int)
}

func (m *mockIndexService) IndexAll(_ context.Context) (*domain.IndexReport, error) {
	m.indexCalls++
	if m.onIndex != nil {
		m.onIndex(m.indexCalls)
	}
	report := m.report
	if report == nil {
		report = &domain.IndexReport{Process: &domain.ProcessReport{Root: "."}}
	}
	return report, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.TableStats, error) {
	if m.stats == nil {
		return &domain.TableStats{}, m.err
	}
	return m.stats, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	m.clearCalls++
	return m.err
}

// mockWatcher emits the configured changes and then blocks until cancelled.
type mockWatcher struct {
	changes []domain.FileChange
}

func (w *mockWatcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	ch := make(chan domain.FileChange, len(w.changes))
	for _, c := range w.changes {
		ch <- c
	}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// setupTestServices installs mock services and an in-memory settings
// service, restoring package state when the test ends.
func setupTestServices(t *testing.T) (*mockIndexService, *mockSearchService) {
	t.Helper()

	idx := &mockIndexService{}
	search := &mockSearchService{}

	oldSettings, oldBuild, oldServices := settingsService, buildServices, services
	settingsService = coreservices.NewSettingsService(memory.NewConfigStore(), nil)
	buildServices = nil
	services = &Services{Index: idx, Search: search}

	t.Cleanup(func() {
		settingsService, buildServices, services = oldSettings, oldBuild, oldServices
		resetFlags()
	})
	return idx, search
}

// resetFlags restores flag variables, which cobra keeps between executions.
func resetFlags() {
	flagVerbose, flagQuiet = false, false
	flagDataDir, flagRoot = "", ""
	indexWatch, indexDebounce = false, 2*time.Second
	searchTopK, searchCategory, searchLexicalMode = 0, "", ""
	searchBM25Weight, searchEmbeddingWeight = 0, 0
	searchJSON, searchFull = false, false
	showMetadata = false
	clearYes = false
	_ = mcpServeCmd.Flags().Set("port", "0")
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, stdin, args...)
}

func executeContext(ctx context.Context, t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func chunkRecord(docID string, chunkID, start int, content string) domain.Record {
	return domain.Record{
		Document: domain.Document{
			ID:           docID,
			RelativePath: "table-context/" + docID + ".md",
			FileName:     docID + ".md",
			Title:        "Table " + docID,
			Category:     domain.CategoryTableContext,
			Table:        &domain.TableContext{Database: "prod", Schema: "sales", TableName: docID},
		},
		Chunk: domain.Chunk{
			DocumentID: docID,
			ChunkID:    chunkID,
			Start:      start,
			End:        start + len(content),
			Content:    content,
		},
	}
}
