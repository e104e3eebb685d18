package session

import (
	"context"
	"path/filepath"

	"github.com/leapstack-labs/mdtables/internal/history"
	"github.com/leapstack-labs/mdtables/internal/transport"
)

// History records document snapshots before edits and hands them back for
// undo. *history.Store implements it.
type History interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
	Pop(ctx context.Context, uri string) (*history.Entry, error)
}

// FilePicker chooses files for CSV export and import. An empty path with a
// nil error means the user cancelled.
type FilePicker interface {
	PickSave(ctx context.Context, suggestedName string) (string, error)
	PickOpen(ctx context.Context, suggestedName string) (string, error)
}

// Broadcaster delivers a message to every surface showing a document.
type Broadcaster interface {
	Broadcast(uri string, msg transport.Outbound)
}

// DirPicker picks files by name inside one directory without asking anyone.
type DirPicker struct {
	Dir string
}

// PickSave returns the suggested name inside Dir.
func (p DirPicker) PickSave(_ context.Context, suggestedName string) (string, error) {
	return filepath.Join(p.Dir, filepath.Base(suggestedName)), nil
}

// PickOpen returns the suggested name inside Dir.
func (p DirPicker) PickOpen(_ context.Context, suggestedName string) (string, error) {
	return filepath.Join(p.Dir, filepath.Base(suggestedName)), nil
}

// PathPicker always picks the same file.
type PathPicker struct {
	Path string
}

// PickSave returns Path.
func (p PathPicker) PickSave(context.Context, string) (string, error) { return p.Path, nil }

// PickOpen returns Path.
func (p PathPicker) PickOpen(context.Context, string) (string, error) { return p.Path, nil }
