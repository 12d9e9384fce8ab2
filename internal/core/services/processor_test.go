package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

func newMockConnector(contents map[string]string) *mockConnector {
	c := &mockConnector{
		root:    "/content",
		docs:    make(map[string]*domain.Document),
		extract: make(map[string]error),
	}
	for rel, content := range contents {
		c.files = append(c.files, domain.SourceFile{Path: "/content/" + rel, RelativePath: rel})
		c.docs[rel] = &domain.Document{
			ID:           "id-" + rel,
			RelativePath: rel,
			FileName:     rel,
			Content:      content,
			Category:     domain.ClassifyPath(rel),
		}
	}
	return c
}

func TestDocumentProcessor_ProcessAll(t *testing.T) {
	conn := newMockConnector(map[string]string{
		"b.md": "beta",
		"a.md": "alpha",
		"c.md": "gamma",
	})
	metrics := newRecordingMetrics()
	p := NewDocumentProcessor(conn, &mockPipeline{}, 2, metrics)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	records, report := p.ProcessAll(context.Background())

	require.Len(t, records, 3)
	assert.Equal(t, "a.md", records[0].Document.RelativePath)
	assert.Equal(t, "b.md", records[1].Document.RelativePath)
	assert.Equal(t, "c.md", records[2].Document.RelativePath)
	for _, r := range records {
		assert.Empty(t, r.Document.Content, "records never carry full document content")
		assert.Equal(t, fixed, r.ProcessedAt)
	}
	assert.Equal(t, 3, report.FilesSeen)
	assert.Equal(t, 3, report.FilesProcessed)
	assert.Equal(t, 3, report.ChunksProduced)
	assert.Zero(t, report.FilesSkipped())
	assert.Equal(t, 3, metrics.filesProcessed)
}

func TestDocumentProcessor_ProcessAll_RecordsFailures(t *testing.T) {
	conn := newMockConnector(map[string]string{
		"good.md":   "content",
		"empty.md":  "",
		"broken.md": "x",
		"chunky.md": "y",
	})
	conn.extract["broken.md"] = domain.ProcessingError{Kind: domain.ProcessingErrorRead, Err: errors.New("permission denied")}
	pipeline := &mockPipeline{err: map[string]error{"chunky.md": errors.New("boom")}}
	metrics := newRecordingMetrics()
	p := NewDocumentProcessor(conn, pipeline, 4, metrics)

	records, report := p.ProcessAll(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "good.md", records[0].Document.RelativePath)
	assert.Equal(t, 4, report.FilesSeen)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Equal(t, 3, report.FilesSkipped())

	kinds := make(map[string]domain.ProcessingErrorKind)
	for _, e := range report.Errors {
		kinds[e.Path] = e.Kind
	}
	assert.Equal(t, domain.ProcessingErrorEmpty, kinds["empty.md"])
	assert.Equal(t, domain.ProcessingErrorRead, kinds["broken.md"])
	assert.Equal(t, domain.ProcessingErrorChunk, kinds["chunky.md"])
	assert.Equal(t, 1, metrics.filesSkipped["empty"])
}

func TestDocumentProcessor_ProcessAll_WhitespaceOnlyFileIsOneChunk(t *testing.T) {
	conn := newMockConnector(map[string]string{"blank.md": "  \n\t\n"})
	p := NewDocumentProcessor(conn, &mockPipeline{}, 1, nil)

	records, report := p.ProcessAll(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "  \n\t\n", records[0].Chunk.Content)
	assert.Equal(t, 1, records[0].Chunk.ChunkCount)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Empty(t, report.Errors)
}

func TestDocumentProcessor_ProcessAll_UnclassifiedExtractError(t *testing.T) {
	conn := newMockConnector(map[string]string{"a.md": "x"})
	conn.extract["a.md"] = errors.New("weird")
	p := NewDocumentProcessor(conn, &mockPipeline{}, 1, nil)

	_, report := p.ProcessAll(context.Background())

	require.Len(t, report.Errors, 1)
	assert.Equal(t, domain.ProcessingErrorMetadata, report.Errors[0].Kind)
}

func TestDocumentProcessor_ProcessAll_MissingRoot(t *testing.T) {
	conn := &mockConnector{root: "/nope", filesErr: fmt.Errorf("%w: /nope", domain.ErrRootNotFound)}
	p := NewDocumentProcessor(conn, &mockPipeline{}, 1, nil)

	records, report := p.ProcessAll(context.Background())

	assert.Empty(t, records)
	require.NotNil(t, report)
	assert.True(t, report.RootMissing)
	assert.Equal(t, "/nope", report.Root)
}

func TestDocumentProcessor_ProcessAll_Deterministic(t *testing.T) {
	contents := make(map[string]string)
	for i := range 40 {
		contents[fmt.Sprintf("dir/file-%02d.md", i)] = fmt.Sprintf("content %d", i)
	}

	var first []domain.Record
	for run := range 3 {
		p := NewDocumentProcessor(newMockConnector(contents), &mockPipeline{}, 8, nil)
		records, _ := p.ProcessAll(context.Background())
		require.Len(t, records, 40)

		if run == 0 {
			first = records
			continue
		}
		for i := range records {
			assert.Equal(t, first[i].Document.RelativePath, records[i].Document.RelativePath)
		}
	}
}

func TestDocumentProcessor_ProcessAll_Cancelled(t *testing.T) {
	conn := newMockConnector(map[string]string{"a.md": "x", "b.md": "y"})
	p := NewDocumentProcessor(conn, &mockPipeline{}, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, report := p.ProcessAll(ctx)

	assert.Empty(t, records)
	assert.Equal(t, 2, report.FilesSkipped())
}

func TestNewDocumentProcessor_ClampsWorkers(t *testing.T) {
	p := NewDocumentProcessor(&mockConnector{}, &mockPipeline{}, 0, nil)

	assert.Equal(t, 1, p.workers)
}
