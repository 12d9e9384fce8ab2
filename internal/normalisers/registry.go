package normalisers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/normalisers/markdown"
	"github.com/custodia-labs/docindex/internal/normalisers/plaintext"
	"github.com/custodia-labs/docindex/internal/normalisers/structured"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches documents to the highest priority normaliser that
// supports their extension.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry with the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(structured.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise runs the best matching normaliser for the document.
func (r *Registry) Normalise(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	n := r.find(doc.Extension)
	if n == nil {
		return nil
	}
	return n.Normalise(ctx, doc)
}

// SupportedExtensions returns all extensions that can be normalised.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var exts []string
	for _, n := range r.normalisers {
		for _, ext := range n.SupportedExtensions() {
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) find(ext string) driven.Normaliser {
	ext = strings.ToLower(ext)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		for _, supported := range n.SupportedExtensions() {
			if supported == ext {
				return n
			}
		}
	}
	return nil
}
