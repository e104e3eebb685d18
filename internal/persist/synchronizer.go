// Package persist writes table edits back into their source documents.
//
// Tables are located by their ordinal position among all tables of a
// document. The document is re-read and re-parsed before every table
// update, so boundaries that moved because of earlier edits are picked up.
// Inserting or deleting a table above an open one between reads changes
// which table an ordinal refers to; nothing guards against that.
package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/mdtables/internal/document"
	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// Synchronizer patches documents through a document.Store.
type Synchronizer struct {
	store  document.Store
	logger *slog.Logger
}

// New creates a Synchronizer.
func New(store document.Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{store: store, logger: logger}
}

// Read returns the current document text.
func (s *Synchronizer) Read(ctx context.Context, uri string) (string, error) {
	content, err := s.store.Read(ctx, uri)
	if err != nil {
		return "", &core.PersistenceError{Op: "read", URI: uri, Err: err}
	}
	return content, nil
}

// Write replaces the whole document.
func (s *Synchronizer) Write(ctx context.Context, uri, content string) error {
	if err := s.store.Write(ctx, uri, content); err != nil {
		return &core.PersistenceError{Op: "write", URI: uri, Err: err}
	}
	return nil
}

// Tables parses the current document and returns its tables together with
// the text they were parsed from.
func (s *Synchronizer) Tables(ctx context.Context, uri string) ([]*markdown.TableDescriptor, string, error) {
	content, err := s.Read(ctx, uri)
	if err != nil {
		return nil, "", err
	}
	tables, err := markdown.ParseTables(content)
	if err != nil {
		return nil, "", &core.PersistenceError{Op: "read", URI: uri, Message: "cannot parse document", Err: err}
	}
	return tables, content, nil
}

// UpdateLines replaces the inclusive line range [startLine, endLine].
func (s *Synchronizer) UpdateLines(ctx context.Context, uri string, startLine, endLine int, text string) error {
	return s.BatchUpdate(ctx, uri, []document.Edit{{StartLine: startLine, EndLine: endLine, Text: text}})
}

// BatchUpdate applies several edits captured against the same snapshot of
// the document. Overlapping edits are rejected before anything is written.
func (s *Synchronizer) BatchUpdate(ctx context.Context, uri string, edits []document.Edit) error {
	if len(edits) == 0 {
		return nil
	}
	sorted, err := document.SortEdits(edits)
	if err != nil {
		return &core.PersistenceError{Op: "update", URI: uri, Err: err}
	}
	content, err := s.Read(ctx, uri)
	if err != nil {
		return err
	}
	if _, err := document.ApplyEdits(content, sorted); err != nil {
		return &core.PersistenceError{Op: "update", URI: uri, Message: "invalid edit", Err: err}
	}
	if err := s.store.Patch(ctx, uri, sorted); err != nil {
		return &core.PersistenceError{Op: "write", URI: uri, Err: err}
	}
	s.logger.Debug("document patched", "uri", uri, "edits", len(edits))
	return nil
}

// UpdateTableByIndex replaces the table at ordinal tableIndex with text and
// returns the boundary the new text occupies.
func (s *Synchronizer) UpdateTableByIndex(ctx context.Context, uri string, tableIndex int, text string) (core.Boundary, error) {
	tables, content, err := s.Tables(ctx, uri)
	if err != nil {
		return core.Boundary{}, err
	}
	if tableIndex < 0 || tableIndex >= len(tables) {
		return core.Boundary{}, &core.PersistenceError{
			Op:      "update",
			URI:     uri,
			Message: fmt.Sprintf("table %d not found", tableIndex),
			Err:     &core.PositionError{Kind: "table", Index: tableIndex, Limit: len(tables)},
		}
	}

	t := tables[tableIndex]
	edit := document.Edit{StartLine: t.StartLine, EndLine: t.EndLine, Text: text}
	if _, err := document.ApplyEdits(content, []document.Edit{edit}); err != nil {
		return core.Boundary{}, &core.PersistenceError{Op: "update", URI: uri, Err: err}
	}
	if err := s.store.Patch(ctx, uri, []document.Edit{edit}); err != nil {
		return core.Boundary{}, &core.PersistenceError{Op: "write", URI: uri, Err: err}
	}

	b := core.Boundary{
		StartLine: t.StartLine,
		EndLine:   t.StartLine + document.LineCount(text) - 1,
		Text:      text,
	}
	s.logger.Debug("table updated", "uri", uri, "table_index", tableIndex,
		"start_line", b.StartLine, "end_line", b.EndLine)
	return b, nil
}
