package document

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps documents in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]string
	// PatchErr, when set, is returned by Patch and Write without writing.
	PatchErr error
	// ReadErr, when set, is returned by Read.
	ReadErr error
}

// NewMemoryStore creates a store seeded with docs.
func NewMemoryStore(docs map[string]string) *MemoryStore {
	m := &MemoryStore{docs: make(map[string]string, len(docs))}
	maps.Copy(m.docs, docs)
	return m
}

// Read returns the document text.
func (m *MemoryStore) Read(_ context.Context, uri string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	content, ok := m.docs[uri]
	if !ok {
		return "", fmt.Errorf("document %q not found", uri)
	}
	return content, nil
}

// Patch applies edits to the stored document.
func (m *MemoryStore) Patch(_ context.Context, uri string, edits []Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PatchErr != nil {
		return m.PatchErr
	}
	content, ok := m.docs[uri]
	if !ok {
		return fmt.Errorf("document %q not found", uri)
	}
	updated, err := ApplyEdits(content, edits)
	if err != nil {
		return err
	}
	m.docs[uri] = updated
	return nil
}

// Write replaces or creates a document.
func (m *MemoryStore) Write(_ context.Context, uri string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PatchErr != nil {
		return m.PatchErr
	}
	m.docs[uri] = content
	return nil
}

// Documents lists the stored URIs in order.
func (m *MemoryStore) Documents(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.docs)), nil
}
