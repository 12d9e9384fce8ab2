// Package markdown derives titles for Markdown documents.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const frontMatterDelim = "---"

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, higher than plaintext
}

// Normalise sets the title from YAML front matter or the first heading.
// The file stem set during extraction is kept when neither is present.
func (n *Normaliser) Normalise(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	meta, body := splitFrontMatter(doc.Content)
	if title := frontMatterTitle(meta); title != "" {
		doc.Title = title
		return nil
	}
	if title := n.firstHeading([]byte(body)); title != "" {
		doc.Title = title
	}
	return nil
}

// splitFrontMatter separates a leading YAML block delimited by --- lines.
func splitFrontMatter(content string) (meta, body string) {
	normalised := strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(normalised, frontMatterDelim+"\n") {
		return "", content
	}

	rest := normalised[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return "", content
	}

	meta = rest[:end]
	body = rest[end+len(frontMatterDelim)+1:]
	return meta, strings.TrimPrefix(body, "\n")
}

func frontMatterTitle(meta string) string {
	if meta == "" {
		return ""
	}
	var fm struct {
		Title string `yaml:"title"`
	}
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return ""
	}
	return strings.TrimSpace(fm.Title)
}

// firstHeading returns the text of the first ATX or setext heading.
func (n *Normaliser) firstHeading(src []byte) string {
	root := n.md.Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := node.(*ast.Heading); ok {
			title = inlineText(h, src)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

// inlineText concatenates the literal text beneath node.
func inlineText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
