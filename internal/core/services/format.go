package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// maxChunkPreview is the number of characters of the matched chunk shown.
const maxChunkPreview = 500

const resultSeparator = "================================================================================"

// FormatSearchResults renders results as a human-readable report. Each
// entry shows the file, its category fields, the three scores, a preview
// of the matched chunk and the reconstructed document.
func (s *SearchService) FormatSearchResults(ctx context.Context, results []domain.SearchResult, query string) string {
	var b strings.Builder

	if len(results) == 0 {
		fmt.Fprintf(&b, "No results found for %q.\n", query)
		return b.String()
	}

	fmt.Fprintf(&b, "Search results for %q (%d):\n", query, len(results))

	for i, r := range results {
		doc := r.Record.Document
		chunk := r.Record.Chunk

		b.WriteString("\n" + resultSeparator + "\n")
		fmt.Fprintf(&b, "Result %d: %s\n", i+1, doc.FileName)
		fmt.Fprintf(&b, "Path: %s\n", doc.RelativePath)
		if doc.Title != "" && doc.Title != doc.FileStem {
			fmt.Fprintf(&b, "Title: %s\n", doc.Title)
		}
		fmt.Fprintf(&b, "Document ID: %s\n", doc.ID)
		fmt.Fprintf(&b, "Category: %s\n", doc.Category)
		fmt.Fprintf(&b, "Scores: combined=%.4f lexical=%.4f embedding=%.4f\n",
			r.CombinedScore, r.LexicalScore, r.EmbeddingScore)

		writeCategoryFields(&b, doc)

		fmt.Fprintf(&b, "Matched chunk %d of %d:\n", chunk.ChunkID+1, chunk.ChunkCount)
		b.WriteString(indent(truncate(chunk.Content, maxChunkPreview)))
		b.WriteString("\n")

		b.WriteString("Full document:\n")
		b.WriteString(indent(s.fullDocument(ctx, r.Record)))
		b.WriteString("\n")
	}

	return b.String()
}

func writeCategoryFields(b *strings.Builder, doc domain.Document) {
	switch doc.Category {
	case domain.CategoryTableContext:
		if doc.Table != nil {
			fmt.Fprintf(b, "Database: %s\n", doc.Table.Database)
			fmt.Fprintf(b, "Schema: %s\n", doc.Table.Schema)
			fmt.Fprintf(b, "Table: %s\n", doc.Table.TableName)
		}
	case domain.CategoryPodQueries:
		if doc.Query != nil {
			fmt.Fprintf(b, "Query: %s\n", doc.Query.Name)
			fmt.Fprintf(b, "Query type: %s\n", doc.Query.Type)
			if len(doc.Query.ReferencedTables) > 0 {
				fmt.Fprintf(b, "Referenced tables: %s\n", strings.Join(doc.Query.ReferencedTables, ", "))
			}
		}
	case domain.CategoryUserContext, domain.CategoryGeneral:
	}
}

// fullDocument reconstructs the matched record's document, falling back to
// the matched chunk when the other chunks cannot be loaded.
func (s *SearchService) fullDocument(ctx context.Context, matched domain.Record) string {
	records := s.GetFullDocumentContent(ctx, matched.Document.ID)
	if len(records) == 0 {
		return matched.Chunk.Content
	}
	return domain.ReconstructContent(records)
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
