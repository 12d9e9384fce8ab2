// Package filesystem reads indexable documents from a local content root.
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// errClosed is returned by Watch after Close.
var errClosed = errors.New("connector closed")

// Connector reads documents from a directory tree.
type Connector struct {
	root        string
	normalisers driven.NormaliserRegistry

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
	closed   bool
}

// Option configures the connector.
type Option func(*Connector)

// WithNormalisers sets the registry used to derive document titles.
func WithNormalisers(r driven.NormaliserRegistry) Option {
	return func(c *Connector) {
		c.normalisers = r
	}
}

// New creates a connector for the given content root.
func New(root string, opts ...Option) *Connector {
	c := &Connector{root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the content root directory.
func (c *Connector) Root() string {
	return c.root
}

// Files walks the content root.
func (c *Connector) Files(ctx context.Context) ([]domain.SourceFile, error) {
	return Walk(ctx, c.root)
}

// Extract builds the Document for a file and runs the title normalisers.
// A normaliser failure is logged and the stem title is kept.
func (c *Connector) Extract(ctx context.Context, file domain.SourceFile) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := ExtractMetadata(c.root, file.Path)
	if err != nil {
		return nil, err
	}

	if c.normalisers != nil {
		if err := c.normalisers.Normalise(ctx, doc); err != nil {
			logger.Warn("title extraction failed for %s: %v", doc.RelativePath, err)
		}
	}
	return doc, nil
}

// Watch reports changes to indexable files under the root. New
// directories are watched as they appear. The channel closes when ctx is
// cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errClosed
	}

	absRoot, err := checkRoot(c.root)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	rules := loadIgnoreRules(absRoot)
	if err := addTree(watcher, absRoot, absRoot, rules); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watchers = append(c.watchers, watcher)

	changes := make(chan domain.FileChange, 64)
	go c.forward(ctx, watcher, absRoot, rules, changes)
	return changes, nil
}

// forward translates fsnotify events into file changes.
func (c *Connector) forward(ctx context.Context, w *fsnotify.Watcher, absRoot string, rules ignoreRules, out chan<- domain.FileChange) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		case ev, ok := <-w.Events:
			if !ok {
				return
			}

			rel, err := filepath.Rel(absRoot, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			name := filepath.Base(ev.Name)
			if rules.match(name, rel) {
				continue
			}

			if ev.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addTree(w, absRoot, ev.Name, rules); addErr != nil {
						logger.Warn("cannot watch %s: %v", rel, addErr)
					}
					continue
				}
			}
			if !isSupported(name) {
				continue
			}

			change := domain.FileChange{RelativePath: rel}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				change.Removed = true
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
			default:
				continue
			}

			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}
}

// addTree watches dir and every non-ignored directory below it.
func addTree(w *fsnotify.Watcher, absRoot, dir string, rules ignoreRules) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot {
			rel, _ := filepath.Rel(absRoot, path)
			if rules.match(d.Name(), filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		return w.Add(path)
	})
}

// Close stops all watchers. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}
