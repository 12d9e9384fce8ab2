// Package plaintext derives titles for plain text and SQL documents.
package plaintext

import (
	"bufio"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLength bounds a title taken from the first line.
const maxTitleLength = 80

// commentPrefixes are stripped from a leading comment line.
var commentPrefixes = []string{"--", "//", "#"}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".sql"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise sets the title. SQL files use a leading comment line; text
// files use a short first line. Otherwise the file stem is humanised.
func (n *Normaliser) Normalise(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	first := firstLine(doc.Content)
	if strings.EqualFold(doc.Extension, ".sql") {
		if title, ok := stripComment(first); ok && title != "" && utf8.RuneCountInString(title) <= maxTitleLength {
			doc.Title = title
			return nil
		}
	} else if first != "" && utf8.RuneCountInString(first) <= maxTitleLength {
		doc.Title = first
		return nil
	}

	doc.Title = humanise(doc.FileStem)
	return nil
}

func firstLine(content string) string {
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}

func stripComment(line string) (string, bool) {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimLeft(line, p[:1])), true
		}
	}
	return "", false
}

// humanise replaces underscores and dashes in a file stem with spaces.
func humanise(stem string) string {
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	return stem
}
