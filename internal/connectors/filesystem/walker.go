package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// isSupported reports whether a file name has an indexable extension.
func isSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range domain.SupportedExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// checkRoot resolves root to an absolute directory path.
func checkRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrRootNotFound, root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrRootNotFound, absRoot)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", domain.ErrRootNotFound, absRoot)
	}
	return absRoot, nil
}

// Walk traverses the tree rooted at root and returns indexable files
// ordered by relative path. Hidden entries, vendor directories, symlinks
// and paths listed in the ignore file are skipped. Unreadable
// subdirectories are skipped rather than failing the walk.
func Walk(ctx context.Context, root string) ([]domain.SourceFile, error) {
	absRoot, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	rules := loadIgnoreRules(absRoot)

	var files []domain.SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors, keep walking
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == absRoot {
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rules.match(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks and other non-regular files.
		if !d.Type().IsRegular() {
			return nil
		}
		if !isSupported(d.Name()) || rules.match(d.Name(), rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		files = append(files, domain.SourceFile{
			Path:         path,
			RelativePath: rel,
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}
