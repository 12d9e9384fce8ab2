package domain

import "strings"

// Category classifies a document's role within the content tree.
// The set is closed; use ClassifyPath to derive one from a path.
type Category string

// Available categories.
const (
	// CategoryGeneral is the default for documents matching no pattern.
	CategoryGeneral Category = "general"

	// CategoryTableContext marks warehouse table documentation.
	CategoryTableContext Category = "table_context"

	// CategoryPodQueries marks validated master queries.
	CategoryPodQueries Category = "pod_queries"

	// CategoryUserContext marks user-provided context notes.
	CategoryUserContext Category = "user_context"
)

// categoryPattern maps a path substring to a category.
type categoryPattern struct {
	substring string
	category  Category
}

// categoryPatterns is tested in order; the first match wins.
var categoryPatterns = []categoryPattern{
	{substring: "table-context", category: CategoryTableContext},
	{substring: "pod-level-validated-master-queries", category: CategoryPodQueries},
	{substring: "user-context", category: CategoryUserContext},
}

// ClassifyPath returns the category for a path relative to the content root.
func ClassifyPath(relPath string) Category {
	normalised := strings.ReplaceAll(relPath, "\\", "/")
	for _, p := range categoryPatterns {
		if strings.Contains(normalised, p.substring) {
			return p.category
		}
	}
	return CategoryGeneral
}

// CategoryPatternFor returns the path substring that selects c, or "" for general.
func CategoryPatternFor(c Category) string {
	for _, p := range categoryPatterns {
		if p.category == c {
			return p.substring
		}
	}
	return ""
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryTableContext, CategoryPodQueries, CategoryUserContext:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Description returns a human-readable description of the category.
func (c Category) Description() string {
	switch c {
	case CategoryGeneral:
		return "General documentation"
	case CategoryTableContext:
		return "Table context"
	case CategoryPodQueries:
		return "Validated pod queries"
	case CategoryUserContext:
		return "User context"
	default:
		return unknownDescription
	}
}

// ParseCategory converts a string into a Category.
// Returns ErrInvalidInput for unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidInput
	}
	return c, nil
}

// AllCategories returns all categories in classification order, general last.
func AllCategories() []Category {
	return []Category{
		CategoryTableContext,
		CategoryPodQueries,
		CategoryUserContext,
		CategoryGeneral,
	}
}

// QueryType is the statement kind inferred from a query document.
type QueryType string

// Available query types.
const (
	QueryTypeSelect  QueryType = "SELECT"
	QueryTypeCreate  QueryType = "CREATE"
	QueryTypeInsert  QueryType = "INSERT"
	QueryTypeUpdate  QueryType = "UPDATE"
	QueryTypeUnknown QueryType = "UNKNOWN"
)

// TableContext holds the fields parsed for table_context documents.
type TableContext struct {
	Database  string `json:"database"`
	Schema    string `json:"schema"`
	TableName string `json:"table_name"`
}

// FullName returns the dotted table name, skipping empty parts.
func (t TableContext) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Database, t.Schema, t.TableName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// QueryInfo holds the fields extracted for pod_queries documents.
type QueryInfo struct {
	Name             string    `json:"query_name"`
	Type             QueryType `json:"query_type"`
	ReferencedTables []string  `json:"referenced_tables,omitempty"`
}
