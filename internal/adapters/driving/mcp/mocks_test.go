package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response  domain.SearchResponse
	documents map[string][]domain.Record

	lastQuery    string
	lastOpts     domain.SearchOptions
	lastCategory domain.Category
	lastTopK     int
}

func (m *mockSearchService) SearchDocuments(
	_ context.Context, query string, opts domain.SearchOptions,
) domain.SearchResponse {
	m.lastQuery = query
	m.lastOpts = opts
	return m.response
}

func (m *mockSearchService) SearchTableContext(_ context.Context, query string, topK int) domain.SearchResponse {
	return m.category(domain.CategoryTableContext, query, topK)
}

func (m *mockSearchService) SearchPodQueries(_ context.Context, query string, topK int) domain.SearchResponse {
	return m.category(domain.CategoryPodQueries, query, topK)
}

func (m *mockSearchService) SearchUserContext(_ context.Context, query string, topK int) domain.SearchResponse {
	return m.category(domain.CategoryUserContext, query, topK)
}

func (m *mockSearchService) category(c domain.Category, query string, topK int) domain.SearchResponse {
	m.lastCategory = c
	m.lastQuery = query
	m.lastTopK = topK
	return m.response
}

func (m *mockSearchService) GetFullDocumentContent(_ context.Context, documentID string) []domain.Record {
	return m.documents[documentID]
}

func (m *mockSearchService) FormatSearchResults(_ context.Context, results []domain.SearchResult, query string) string {
	return fmt.Sprintf("%d results for %q", len(results), query)
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats *domain.TableStats
	err   error
}

func (m *mockIndexService) IndexAll(_ context.Context) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.TableStats, error) {
	return m.stats, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	return m.err
}

func chunkRecord(docID string, chunkID, start int, content string) domain.Record {
	return domain.Record{
		Document: domain.Document{
			ID:           docID,
			RelativePath: "notes/" + docID + ".md",
			FileName:     docID + ".md",
			Title:        "Notes " + docID,
			Category:     domain.CategoryGeneral,
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
