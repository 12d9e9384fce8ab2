package filesystem

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-root file listing extra paths to skip.
const IgnoreFileName = ".docindexignore"

// defaultIgnores are directory names that are never walked.
var defaultIgnores = []string{
	"node_modules",
	"vendor",
	"__pycache__",
	"dist",
	"build",
	"venv",
}

// ignoreRules decides which paths the walk skips.
type ignoreRules struct {
	patterns []string
}

// loadIgnoreRules combines the defaults with patterns from the root's
// ignore file. A missing ignore file is not an error.
func loadIgnoreRules(root string) ignoreRules {
	rules := ignoreRules{patterns: append([]string(nil), defaultIgnores...)}

	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return rules
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules.patterns = append(rules.patterns, strings.TrimSuffix(filepath.ToSlash(line), "/"))
	}
	return rules
}

// match reports whether a file or directory should be skipped.
// Hidden entries are always skipped.
func (r ignoreRules) match(name, relPath string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range r.patterns {
		// Exact name match (e.g. "node_modules").
		if name == p {
			return true
		}
		// Path prefix match (e.g. "archive/2019").
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
		// Glob match against the relative path or the name.
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
