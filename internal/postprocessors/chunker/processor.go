// Package chunker provides an overlapping, whitespace-aware text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// breakChars are the characters a chunk boundary may snap back to.
const breakChars = " \t\r\n"

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	spans := p.Spans(doc.Content)
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			ChunkID:    i,
			Start:      s.Start,
			End:        s.End,
			Content:    doc.Content[s.Start:s.End],
		})
	}

	// The total is only known once every chunk is built.
	for i := range chunks {
		chunks[i].ChunkCount = len(chunks)
	}

	return chunks, nil
}

// Span is a half-open byte range [Start, End) of the content.
type Span struct {
	Start int
	End   int
}

// Spans computes chunk boundaries for content.
//
// Content no longer than the chunk size yields a single span. Otherwise each
// window of chunkSize bytes ends at the last whitespace inside it, provided
// that break point lies past the middle of the window; the next window starts
// overlap bytes before the previous end. Boundaries never split a UTF-8 rune.
func (p *Processor) Spans(content string) []Span {
	n := len(content)
	if n == 0 {
		return nil
	}
	if n <= p.chunkSize {
		return []Span{{Start: 0, End: n}}
	}

	spans := make([]Span, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			if bp := strings.LastIndexAny(content[start:end], breakChars); bp > p.chunkSize/2 {
				end = start + bp + 1
			}
			end = runeFloor(content, end, start)
		}

		spans = append(spans, Span{Start: start, End: end})
		if end >= n {
			break
		}

		next := runeCeil(content, end-p.overlap, end)
		if next <= start {
			// Overlap would stall progress; continue from the boundary.
			next = end
		}
		start = next
	}

	return spans
}

// runeFloor moves i back to the start of the rune containing it,
// never below lo+1 so a span always has at least one byte.
func runeFloor(s string, i, lo int) int {
	if i >= len(s) {
		return len(s)
	}
	for i > lo+1 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves i forward to the next rune start, never past hi.
func runeCeil(s string, i, hi int) int {
	if i < 0 {
		return 0
	}
	for i < hi && i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
