// Package normalisers provides implementations of the Normaliser interface
// for the indexed file formats. Each normaliser knows how to derive a title
// from a specific kind of file without altering its content.
//
// Normalisers are registered with the Registry at startup.
package normalisers
