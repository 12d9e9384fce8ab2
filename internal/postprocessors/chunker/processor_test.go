package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		p := New(WithOverlap(100))
		if p.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", p.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p := New()
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_WhitespaceOnlyContent(t *testing.T) {
	p := New()
	doc := &domain.Document{
		ID:      "blank-doc",
		Content: " \n\t ",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for non-empty content, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Content || chunks[0].ChunkCount != 1 {
		t.Errorf("unexpected chunk: %+v", chunks[0])
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "This is a small piece of content.",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}

	c := chunks[0]
	if c.DocumentID != doc.ID {
		t.Errorf("expected DocumentID '%s', got '%s'", doc.ID, c.DocumentID)
	}
	if c.Content != doc.Content {
		t.Errorf("expected content to match document content")
	}
	if c.ChunkID != 0 || c.ChunkCount != 1 {
		t.Errorf("expected chunk 0 of 1, got %d of %d", c.ChunkID, c.ChunkCount)
	}
	if c.Start != 0 || c.End != len(doc.Content) {
		t.Errorf("expected span [0,%d), got [%d,%d)", len(doc.Content), c.Start, c.End)
	}
}

func TestProcessor_Process_ExactChunkSizeIsSingleChunk(t *testing.T) {
	p := New(WithChunkSize(50), WithOverlap(10))
	doc := &domain.Document{ID: "test-doc", Content: strings.Repeat("a", 50)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("content at the chunk size should produce 1 chunk, got %d", len(chunks))
	}
}

func TestProcessor_Process_LargeContent(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	content := strings.Repeat("x", 250)
	doc := &domain.Document{
		ID:      "test-doc",
		Content: content,
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	assertChunkInvariants(t, content, chunks, 20)

	// No whitespace: the raw boundary is used.
	if len(chunks[0].Content) != 100 {
		t.Errorf("expected first chunk size 100, got %d", len(chunks[0].Content))
	}
}

func TestProcessor_Process_OverlapContent(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3))

	content := "0123456789ABCDEFGHIJ" // 20 chars
	doc := &domain.Document{
		ID:      "test-doc",
		Content: content,
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With size 10 and overlap 3 the spans are [0,10), [7,17), [14,20).
	want := []Span{{0, 10}, {7, 17}, {14, 20}}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Start != w.Start || chunks[i].End != w.End {
			t.Errorf("chunk %d: expected [%d,%d), got [%d,%d)", i, w.Start, w.End, chunks[i].Start, chunks[i].End)
		}
	}
	if chunks[1].Content != "789ABCDEFG" {
		t.Errorf("unexpected second chunk %q", chunks[1].Content)
	}
}

func TestProcessor_Spans_PrefersWhitespaceBreak(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(0))

	// The last space in the first window is at index 15, past the midpoint.
	content := "aaaaaaaaaa bbbb cccccccccccccccccccc"
	spans := p.Spans(content)

	if len(spans) < 2 {
		t.Fatalf("expected at least 2 spans, got %d", len(spans))
	}
	if spans[0].End != 16 {
		t.Errorf("expected first span to end after the space at 15, got %d", spans[0].End)
	}
	if !strings.HasSuffix(content[spans[0].Start:spans[0].End], " ") {
		t.Errorf("first chunk should end on whitespace: %q", content[spans[0].Start:spans[0].End])
	}
}

func TestProcessor_Spans_IgnoresEarlyWhitespace(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(0))

	// The only space is at index 3, before the midpoint: use the raw boundary.
	content := "aaa " + strings.Repeat("b", 40)
	spans := p.Spans(content)

	if spans[0].End != 20 {
		t.Errorf("expected raw boundary at 20, got %d", spans[0].End)
	}
}

func TestProcessor_Spans_EndsOnWhitespace(t *testing.T) {
	p := New(WithChunkSize(30), WithOverlap(5))

	content := strings.Repeat("line of text\n", 10)
	spans := p.Spans(content)

	for i, s := range spans[:len(spans)-1] {
		if !strings.ContainsRune(breakChars, rune(content[s.End-1])) {
			t.Errorf("span %d should end on whitespace, ends with %q", i, content[s.End-1])
		}
	}
	assertCoverage(t, content, spans)
}

func TestProcessor_Spans_NeverSplitsRunes(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3))

	content := strings.Repeat("héllo wörld ", 20)
	for _, s := range p.Spans(content) {
		if !utf8.ValidString(content[s.Start:s.End]) {
			t.Errorf("span [%d,%d) splits a rune", s.Start, s.End)
		}
	}
}

func TestProcessor_Spans_LargeOverlapStillProgresses(t *testing.T) {
	// Whitespace just past the midpoint with an overlap wider than that.
	p := New(WithChunkSize(20), WithOverlap(15))

	content := strings.Repeat("abcdefghijk ", 30)
	spans := p.Spans(content)

	for i := 1; i < len(spans); i++ {
		if spans[i].Start <= spans[i-1].Start {
			t.Fatalf("span %d does not advance: %v after %v", i, spans[i], spans[i-1])
		}
	}
	assertCoverage(t, content, spans)
}

func TestProcessor_Process_Properties(t *testing.T) {
	sizes := []struct {
		size, overlap int
	}{
		{50, 10}, {100, 0}, {64, 63}, {200, 20}, {2000, 200},
	}
	content := strings.Repeat("select id, name from users where active = true;\n", 120)

	for _, sz := range sizes {
		p := New(WithChunkSize(sz.size), WithOverlap(sz.overlap))
		doc := &domain.Document{ID: "d", Content: content}

		chunks, err := p.Process(context.Background(), doc, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertChunkInvariants(t, content, chunks, p.Overlap())
	}
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p := New(WithChunkSize(100))

	existingChunks := []domain.Chunk{
		{DocumentID: "other", Content: "should be ignored"},
	}

	doc := &domain.Document{
		ID:      "test-doc",
		Content: "New content to chunk",
	}

	chunks, err := p.Process(context.Background(), doc, existingChunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, chunk := range chunks {
		if chunk.DocumentID == "other" {
			t.Error("existing chunks should be ignored")
		}
	}
}

// assertChunkInvariants checks IDs, counts, overlap and coverage.
func assertChunkInvariants(t *testing.T, content string, chunks []domain.Chunk, overlap int) {
	t.Helper()

	spans := make([]Span, len(chunks))
	for i, c := range chunks {
		if c.ChunkID != i {
			t.Errorf("expected chunk id %d, got %d", i, c.ChunkID)
		}
		if c.ChunkCount != len(chunks) {
			t.Errorf("chunk %d: expected count %d, got %d", i, len(chunks), c.ChunkCount)
		}
		if c.Content != content[c.Start:c.End] {
			t.Errorf("chunk %d content does not match its span", i)
		}
		if i > 0 {
			prev := chunks[i-1]
			if got := prev.End - c.Start; got < 0 || got > overlap {
				t.Errorf("chunk %d overlaps previous by %d, want 0..%d", i, got, overlap)
			}
		}
		spans[i] = Span{Start: c.Start, End: c.End}
	}
	assertCoverage(t, content, spans)
}

// assertCoverage checks every byte of content is covered by some span.
func assertCoverage(t *testing.T, content string, spans []Span) {
	t.Helper()

	if len(spans) == 0 {
		t.Fatal("no spans")
	}
	if spans[0].Start != 0 {
		t.Errorf("first span starts at %d", spans[0].Start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start > spans[i-1].End {
			t.Errorf("gap between span %d and %d", i-1, i)
		}
	}
	if spans[len(spans)-1].End != len(content) {
		t.Errorf("last span ends at %d, content length %d", spans[len(spans)-1].End, len(content))
	}
}
