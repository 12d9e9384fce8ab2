package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docindex resources.
	uriScheme = "docindex://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for index statistics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Statistics about the current index run",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Full reconstructed content of a document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// statsInfo is the JSON shape of the stats resource.
type statsInfo struct {
	RunID            string  `json:"run_id"`
	TotalChunks      int     `json:"total_chunks"`
	DistinctFiles    int     `json:"distinct_files"`
	DistinctCategory int     `json:"distinct_categories"`
	AvgContentLength float64 `json:"avg_content_length"`
	FirstProcessedAt string  `json:"first_processed_at,omitempty"`
	LastProcessedAt  string  `json:"last_processed_at,omitempty"`
}

// handleStatsResource returns statistics about the visible index content.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	info := statsInfo{
		RunID:            stats.RunID,
		TotalChunks:      stats.TotalChunks,
		DistinctFiles:    stats.DistinctFiles,
		DistinctCategory: stats.DistinctCategory,
		AvgContentLength: stats.AvgContentLength,
	}
	if !stats.FirstProcessedAt.IsZero() {
		info.FirstProcessedAt = stats.FirstProcessedAt.Format(time.RFC3339)
		info.LastProcessedAt = stats.LastProcessedAt.Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: docindex://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records := s.ports.Search.GetFullDocumentContent(ctx, docID)
	if len(records) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     domain.ReconstructContent(records),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like docindex://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
