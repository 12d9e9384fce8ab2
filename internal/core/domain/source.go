package domain

// SourceFile is a candidate file found by walking the content root.
type SourceFile struct {
	// Path is the absolute file path.
	Path string

	// RelativePath is the slash-separated path relative to the content root.
	RelativePath string

	// Size is the file size in bytes.
	Size int64
}

// FileChange reports a change to an indexable file under the content root.
// Used by watch mode to trigger re-indexing.
type FileChange struct {
	// RelativePath is the slash-separated path of the changed file.
	RelativePath string

	// Removed is true when the file was deleted or renamed away.
	Removed bool
}
