package document

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileStore serves documents from the file system below Root.
type FileStore struct {
	Root string
}

// NewFileStore creates a store rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// Resolve maps a URI to a file system path. Relative URIs must stay inside
// the root.
func (s *FileStore) Resolve(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("empty document uri")
	}
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("invalid document uri %q: %w", uri, err)
		}
		return filepath.Clean(filepath.FromSlash(u.Path)), nil
	}
	if filepath.IsAbs(uri) {
		return filepath.Clean(uri), nil
	}

	rel := filepath.Clean(filepath.FromSlash(uri))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document uri %q escapes the root", uri)
	}
	return filepath.Join(s.Root, rel), nil
}

// URI returns the canonical URI of a path below the root.
func (s *FileStore) URI(path string) (string, error) {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, s.Root)
	}
	return filepath.ToSlash(rel), nil
}

// Canonical returns the one URI used for a document however it was named:
// the slash-separated path relative to the root, or the cleaned absolute
// path for documents outside it. URIs that do not resolve are returned
// unchanged.
func (s *FileStore) Canonical(uri string) string {
	path, err := s.Resolve(uri)
	if err != nil {
		return uri
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return uri
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return uri
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Read returns the document text.
func (s *FileStore) Read(_ context.Context, uri string) (string, error) {
	path, err := s.Resolve(uri)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Patch applies edits to the document and writes it back atomically.
func (s *FileStore) Patch(ctx context.Context, uri string, edits []Edit) error {
	content, err := s.Read(ctx, uri)
	if err != nil {
		return err
	}
	updated, err := ApplyEdits(content, edits)
	if err != nil {
		return err
	}
	return s.Write(ctx, uri, updated)
}

// Write replaces the document. The new content is written to a temporary
// file in the same directory and renamed over the original, keeping its
// permissions.
func (s *FileStore) Write(_ context.Context, uri string, content string) error {
	path, err := s.Resolve(uri)
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Documents lists the URIs of all markdown files below the root, skipping
// hidden directories.
func (s *FileStore) Documents(ctx context.Context) ([]string, error) {
	var uris []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != s.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdown(path) {
			return nil
		}
		uri, err := s.URI(path)
		if err != nil {
			return err
		}
		uris = append(uris, uri)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(uris)
	return uris, nil
}

// IsMarkdown reports whether path has a markdown file extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
