package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query           string   `json:"query" jsonschema:"the search query"`
	TopK            int      `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
	Category        string   `json:"category,omitempty" jsonschema:"restrict to one category: general, table_context, pod_queries or user_context"`
	BM25Weight      *float64 `json:"bm25_weight,omitempty" jsonschema:"weight of the lexical score (default 0.3)"`
	EmbeddingWeight *float64 `json:"embedding_weight,omitempty" jsonschema:"weight of the embedding similarity (default 0.7)"`
	LexicalMode     string   `json:"lexical_mode,omitempty" jsonschema:"lexical scorer: containment (default) or bm25"`
}

// CategorySearchInput is the input schema for the per-category search tools.
type CategorySearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results           []SearchResultOutput `json:"results"`
	Count             int                  `json:"count"`
	Mode              string               `json:"mode"`
	SkippedEmbeddings int                  `json:"skipped_embeddings,omitempty"`
	Unavailable       bool                 `json:"unavailable,omitempty"`
	Warnings          []string             `json:"warnings,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID     string               `json:"document_id"`
	RelativePath   string               `json:"relative_path"`
	FileName       string               `json:"file_name"`
	Title          string               `json:"title,omitempty"`
	Category       string               `json:"category"`
	ChunkID        int                  `json:"chunk_id"`
	ChunkCount     int                  `json:"chunk_count"`
	LexicalScore   float64              `json:"bm25_score"`
	EmbeddingScore float64              `json:"embedding_score"`
	CombinedScore  float64              `json:"combined_score"`
	Table          *domain.TableContext `json:"table,omitempty"`
	Query          *domain.QueryInfo    `json:"query_info,omitempty"`
	Content        string               `json:"content"`
}

// DocumentInput is the input schema for the get_document tool.
type DocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document identifier returned by a search"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	DocumentID   string `json:"document_id"`
	RelativePath string `json:"relative_path"`
	Title        string `json:"title,omitempty"`
	Category     string `json:"category"`
	ChunkCount   int    `json:"chunk_count"`
	Content      string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Hybrid lexical and semantic search across all indexed documents",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_table_context",
		Description: "Search warehouse table documentation (table_context documents)",
	}, s.categoryHandler(s.ports.Search.SearchTableContext))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_pod_queries",
		Description: "Search validated master queries (pod_queries documents)",
	}, s.categoryHandler(s.ports.Search.SearchPodQueries))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_user_context",
		Description: "Search user-provided context notes (user_context documents)",
	}, s.categoryHandler(s.ports.Search.SearchUserContext))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Return the full reconstructed content of a document",
	}, s.handleGetDocument)
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}
	for _, w := range []*float64{input.BM25Weight, input.EmbeddingWeight} {
		if w != nil && *w < 0 {
			return nil, SearchOutput{}, errors.New("weights must not be negative")
		}
	}

	opts := domain.SearchOptions{
		TopK:            input.TopK,
		BM25Weight:      input.BM25Weight,
		EmbeddingWeight: input.EmbeddingWeight,
	}
	if input.Category != "" {
		c, err := domain.ParseCategory(input.Category)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("unknown category %q", input.Category)
		}
		opts.Category = &c
	}
	if input.LexicalMode != "" {
		mode := domain.LexicalMode(input.LexicalMode)
		if !mode.IsValid() {
			return nil, SearchOutput{}, fmt.Errorf("unknown lexical mode %q", input.LexicalMode)
		}
		opts.LexicalMode = mode
	}

	resp := s.ports.Search.SearchDocuments(ctx, input.Query, opts)
	return s.searchResult(ctx, input.Query, resp)
}

// categoryHandler adapts a per-category search method to a tool handler.
func (s *Server) categoryHandler(
	search func(ctx context.Context, query string, topK int) domain.SearchResponse,
) mcp.ToolHandlerFor[CategorySearchInput, SearchOutput] {
	return func(
		ctx context.Context,
		_ *mcp.CallToolRequest,
		input CategorySearchInput,
	) (*mcp.CallToolResult, SearchOutput, error) {
		if strings.TrimSpace(input.Query) == "" {
			return nil, SearchOutput{}, errors.New("query is required")
		}
		return s.searchResult(ctx, input.Query, search(ctx, input.Query, input.TopK))
	}
}

// searchResult renders the formatted report as text content alongside the
// structured output.
func (s *Server) searchResult(
	ctx context.Context, query string, resp domain.SearchResponse,
) (*mcp.CallToolResult, SearchOutput, error) {
	output := toSearchOutput(resp)
	report := s.ports.Search.FormatSearchResults(ctx, resp.Results, query)
	if resp.Unavailable {
		report = "The document index is unavailable.\n" + report
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: report}},
	}, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, DocumentOutput{}, errors.New("document_id is required")
	}

	records := s.ports.Search.GetFullDocumentContent(ctx, input.DocumentID)
	if len(records) == 0 {
		return nil, DocumentOutput{}, fmt.Errorf("document %s not found", input.DocumentID)
	}

	doc := records[0].Document
	output := DocumentOutput{
		DocumentID:   doc.ID,
		RelativePath: doc.RelativePath,
		Title:        doc.Title,
		Category:     string(doc.Category),
		ChunkCount:   len(records),
		Content:      domain.ReconstructContent(records),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output.Content}},
	}, output, nil
}

func toSearchOutput(resp domain.SearchResponse) SearchOutput {
	output := SearchOutput{
		Results:           make([]SearchResultOutput, len(resp.Results)),
		Count:             len(resp.Results),
		Mode:              string(resp.Mode),
		SkippedEmbeddings: resp.SkippedEmbeddings,
		Unavailable:       resp.Unavailable,
		Warnings:          resp.Warnings,
	}

	for i, r := range resp.Results {
		doc, chunk := r.Record.Document, r.Record.Chunk
		output.Results[i] = SearchResultOutput{
			DocumentID:     doc.ID,
			RelativePath:   doc.RelativePath,
			FileName:       doc.FileName,
			Title:          doc.Title,
			Category:       string(doc.Category),
			ChunkID:        chunk.ChunkID,
			ChunkCount:     chunk.ChunkCount,
			LexicalScore:   r.LexicalScore,
			EmbeddingScore: r.EmbeddingScore,
			CombinedScore:  r.CombinedScore,
			Table:          doc.Table,
			Query:          doc.Query,
			Content:        chunk.Content,
		}
	}

	return output
}
