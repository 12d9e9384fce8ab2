package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// replacementChar substitutes invalid UTF-8 sequences in file content.
const replacementChar = "\uFFFD"

var (
	updateSetPattern = regexp.MustCompile(`\bupdate\b[\s\S]*?\bset\b`)
	tableRefPattern  = regexp.MustCompile("\\b(?:from|join)\\s+([a-z0-9_.\"`\\[\\]]+)")
)

// ExtractMetadata reads the file at path and builds its Document.
// Invalid UTF-8 is replaced with U+FFFD; the content hash covers the raw
// bytes. Category fields are extracted and the title defaults to the
// file stem. Errors are domain.ProcessingError values.
func ExtractMetadata(root, path string) (*domain.Document, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.ProcessingError{Path: path, Kind: domain.ProcessingErrorMetadata, Err: err}
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.ProcessingError{Path: path, Kind: domain.ProcessingErrorMetadata, Err: err}
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, domain.ProcessingError{
			Path: path,
			Kind: domain.ProcessingErrorMetadata,
			Err:  fmt.Errorf("%w: %s is outside %s", domain.ErrInvalidInput, path, root),
		}
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, domain.ProcessingError{Path: rel, Kind: domain.ProcessingErrorRead, Err: err}
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, domain.ProcessingError{Path: rel, Kind: domain.ProcessingErrorRead, Err: err}
	}

	name := filepath.Base(absPath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	hash := domain.HashContent(data)

	doc := &domain.Document{
		ID:           domain.DocumentID(hash, rel),
		Path:         absPath,
		RelativePath: rel,
		FileName:     name,
		FileStem:     stem,
		Extension:    strings.ToLower(ext),
		Size:         info.Size(),
		ModifiedAt:   info.ModTime().UTC(),
		ContentHash:  hash,
		Category:     domain.ClassifyPath(rel),
		Title:        stem,
		Content:      strings.ToValidUTF8(string(data), replacementChar),
	}

	switch doc.Category {
	case domain.CategoryTableContext:
		doc.Table = tableContextFields(rel, stem)
	case domain.CategoryPodQueries:
		doc.Query = queryFields(stem, doc.Content)
	case domain.CategoryUserContext, domain.CategoryGeneral:
		// No extra fields.
	}

	return doc, nil
}

// tableContextFields parses <db>/<schema>/<table> from the path segments
// after the table-context directory, falling back to a dotted stem.
func tableContextFields(relPath, stem string) *domain.TableContext {
	pattern := domain.CategoryPatternFor(domain.CategoryTableContext)
	segments := strings.Split(relPath, "/")

	var dirs []string
	for i, seg := range segments[:len(segments)-1] {
		if strings.Contains(seg, pattern) {
			dirs = segments[i+1 : len(segments)-1]
			break
		}
	}

	if len(dirs) >= 2 {
		return &domain.TableContext{
			Database:  dirs[len(dirs)-2],
			Schema:    dirs[len(dirs)-1],
			TableName: stem,
		}
	}

	// Right-align the dotted parts: table, then schema, then database.
	parts := strings.Split(stem, ".")
	tc := &domain.TableContext{}
	fields := []*string{&tc.TableName, &tc.Schema, &tc.Database}
	for i := 0; i < len(fields) && i < len(parts); i++ {
		*fields[i] = parts[len(parts)-1-i]
	}
	if len(parts) > len(fields) {
		// Extra leading parts belong to the database name.
		tc.Database = strings.Join(parts[:len(parts)-2], ".")
	}
	return tc
}

// queryFields infers the statement type and referenced tables of a query.
func queryFields(stem, content string) *domain.QueryInfo {
	lower := strings.ToLower(content)
	return &domain.QueryInfo{
		Name:             stem,
		Type:             queryType(lower),
		ReferencedTables: referencedTables(lower),
	}
}

// queryType tests statement kinds in a fixed order on lowercased content.
func queryType(lower string) domain.QueryType {
	switch {
	case strings.Contains(lower, "create "):
		return domain.QueryTypeCreate
	case strings.Contains(lower, "insert into"):
		return domain.QueryTypeInsert
	case updateSetPattern.MatchString(lower):
		return domain.QueryTypeUpdate
	case strings.Contains(lower, "select "):
		return domain.QueryTypeSelect
	default:
		return domain.QueryTypeUnknown
	}
}

// referencedTables returns sorted, de-duplicated identifiers that follow
// FROM or JOIN.
func referencedTables(lower string) []string {
	seen := make(map[string]struct{})
	for _, m := range tableRefPattern.FindAllStringSubmatch(lower, -1) {
		name := strings.Trim(m[1], "\"`[]")
		name = strings.NewReplacer("\"", "", "`", "", "[", "", "]", "").Replace(name)
		name = strings.Trim(name, ".")
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	tables := make([]string, 0, len(seen))
	for name := range seen {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}
