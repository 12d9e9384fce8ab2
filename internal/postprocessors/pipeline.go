// Package postprocessors turns extracted documents into indexable chunks.
// The default pipeline chunks content and then stamps lexical tokens.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Pipeline runs stages in order. The first stage creates the chunks of a
// document; later stages enrich them and must return the same number of
// chunks, because ChunkCount is stamped when the chunks are created.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline that runs stages in the order given.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc and runs every enrichment stage over the result.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		if i > 0 && len(out) != len(chunks) {
			return nil, fmt.Errorf("stage %s changed the chunk count of %s from %d to %d",
				stage.Name(), doc.RelativePath, len(chunks), len(out))
		}
		chunks = out
	}

	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
