// Package structured derives titles for JSON and YAML documents.
package structured

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// titleKeys are the top-level keys checked, in order.
var titleKeys = []string{"title", "name", "table", "table_name"}

// Normaliser handles JSON and YAML documents. JSON is parsed as YAML.
type Normaliser struct{}

// New creates a new structured document normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".json", ".yaml", ".yml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise sets the title from a top-level title-like key. Unparseable
// documents keep their current title; they are still indexed as text.
func (n *Normaliser) Normalise(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	var top map[string]any
	if err := yaml.Unmarshal([]byte(doc.Content), &top); err != nil {
		return nil
	}
	for _, key := range titleKeys {
		if s, ok := top[key].(string); ok && strings.TrimSpace(s) != "" {
			doc.Title = strings.TrimSpace(s)
			return nil
		}
	}
	return nil
}
