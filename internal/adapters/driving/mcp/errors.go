// Package mcp provides an MCP (Model Context Protocol) server adapter for docindex.
// It lets AI assistants search the document index and read full documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
