// Package connectors holds the sources documents are read from. The
// filesystem connector walks a content root, honours .docindexignore and
// watches the tree for changes.
package connectors
