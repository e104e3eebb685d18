// Package document reads and patches markdown documents.
//
// A document is addressed by a URI: a slash-separated path relative to the
// store root, or a file:// URI. Edits address 0-based, inclusive line
// ranges of the document as it was read.
package document

import "context"

// Store is the document collaborator used by the persistence layer.
type Store interface {
	// Read returns the full current text of the document.
	Read(ctx context.Context, uri string) (string, error)
	// Patch applies line edits captured against the current text.
	Patch(ctx context.Context, uri string, edits []Edit) error
	// Write replaces the whole document.
	Write(ctx context.Context, uri string, content string) error
}

// Canonicalizer is implemented by stores where one document can be named by
// more than one URI.
type Canonicalizer interface {
	Canonical(uri string) string
}

// Canonical returns the canonical URI of a document in store. Stores that do
// not implement Canonicalizer get uri back unchanged.
func Canonical(store Store, uri string) string {
	if c, ok := store.(Canonicalizer); ok {
		return c.Canonical(uri)
	}
	return uri
}
