package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// BuilderFunc creates a stage from the index settings rendered as a map
// (chunk_size, overlap).
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps stage names to builders and remembers registration order.
type Registry struct {
	builders map[string]BuilderFunc
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds or replaces a stage builder. A replaced builder keeps its
// original position.
func (r *Registry) Register(name string, builder BuilderFunc) {
	if _, ok := r.builders[name]; !ok {
		r.order = append(r.order, name)
	}
	r.builders[name] = builder
}

// Build creates the named stage.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, name)
	}
	return builder(cfg)
}

// Pipeline builds the named stages, in order, into a pipeline.
func (r *Registry) Pipeline(names []string, cfg map[string]any) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		stage, err := r.Build(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		p.Add(stage)
	}
	return p, nil
}

// Has reports whether a stage is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered stage names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
