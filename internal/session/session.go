package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/leapstack-labs/mdtables/internal/history"
	"github.com/leapstack-labs/mdtables/internal/persist"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/table"
)

// errUnchanged is returned by an edit that found nothing to change.
var errUnchanged = errors.New("unchanged")

// Session is one open document.
type Session struct {
	uri    string
	sync   *persist.Synchronizer
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	models      []*table.Model
	lastContent string
}

func newSession(uri string, sync *persist.Synchronizer, opts Options) *Session {
	return &Session{
		uri:    uri,
		sync:   sync,
		opts:   opts,
		logger: opts.Logger.With("uri", uri),
	}
}

// URI returns the document URI.
func (s *Session) URI() string { return s.uri }

// FileInfo describes the document for the surface.
func (s *Session) FileInfo() transport.FileInfo {
	return transport.FileInfo{URI: s.uri, FileName: path.Base(s.uri)}
}

// Snapshots returns a snapshot of every table in document order.
func (s *Session) Snapshots() []core.TableData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots()
}

// TableCount returns the number of tables in the document.
func (s *Session) TableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

// Table returns a copy of the model at ordinal index, for read-only use.
func (s *Session) Table(index int) (*table.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.model(index)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// TableData builds the updateTableData message for the current state.
func (s *Session) TableData(active int) transport.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transport.UpdateTableData(s.snapshots(), active, s.FileInfo())
}

// Reload re-reads the document and rebuilds the models. It does nothing and
// returns false when the document still has the content this session last
// read or wrote.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.sync.Read(ctx, s.uri)
	if err != nil {
		return false, err
	}
	if content == s.lastContent {
		return false, nil
	}
	if err := s.load(ctx); err != nil {
		return false, err
	}
	s.logger.Info("document reloaded", "tables", len(s.models))
	s.broadcast(ctx, nil, 0)
	return true, nil
}

// load replaces all models with freshly parsed ones.
func (s *Session) load(ctx context.Context) error {
	tables, content, err := s.sync.Tables(ctx, s.uri)
	if err != nil {
		return err
	}
	models := make([]*table.Model, len(tables))
	for i, d := range tables {
		models[i] = table.NewModel(d, s.uri, i, table.WithLogger(s.logger))
	}
	s.models = models
	s.lastContent = content
	return nil
}

func (s *Session) snapshots() []core.TableData {
	out := make([]core.TableData, len(s.models))
	for i, m := range s.models {
		out[i] = m.Data()
	}
	return out
}

func (s *Session) model(index int) (*table.Model, error) {
	if index < 0 || index >= len(s.models) {
		return nil, &core.PositionError{Kind: "table", Index: index, Limit: len(s.models)}
	}
	return s.models[index], nil
}

// mutate runs one edit against the table at ordinal index and persists it.
// A position mismatch triggers one reload and retry. Persistence failures
// are never retried and leave the model as it was before the edit.
func (s *Session) mutate(ctx context.Context, index int, description string, apply func(*table.Model) error) (bool, error) {
	changed, err := s.tryMutate(ctx, index, description, apply)
	if err != nil && !core.IsPersistenceError(err) && core.IsPositionError(err) {
		s.logger.Info("position mismatch, reloading document", "table_index", index, "error", err)
		if lerr := s.load(ctx); lerr != nil {
			return false, lerr
		}
		changed, err = s.tryMutate(ctx, index, description, apply)
	}
	return changed, err
}

func (s *Session) tryMutate(ctx context.Context, index int, description string, apply func(*table.Model) error) (bool, error) {
	m, err := s.model(index)
	if err != nil {
		return false, err
	}
	before := m.Checkpoint()
	span := before.Data().Metadata
	oldLines := span.EndLine - span.StartLine + 1

	if err := apply(m); err != nil {
		if errors.Is(err, errUnchanged) {
			return false, nil
		}
		return false, err
	}

	recorded := s.record(ctx, description)

	b, err := s.sync.UpdateTableByIndex(ctx, s.uri, index, m.SerializeToMarkdown())
	if err != nil {
		m.Rollback(before)
		if recorded {
			s.discardRecord(ctx)
		}
		return false, err
	}

	m.SetBoundary(b.StartLine, b.EndLine)
	if delta := b.LineCount() - oldLines; delta != 0 {
		for _, later := range s.models[index+1:] {
			meta := later.Metadata()
			later.SetBoundary(meta.StartLine+delta, meta.EndLine+delta)
		}
	}
	if content, err := s.sync.Read(ctx, s.uri); err == nil {
		s.lastContent = content
	}
	s.logger.Debug("table edited", "table_index", index, "edit", description)
	return true, nil
}

// record stores the current document in the undo history. Failures are
// logged; an edit is never refused because history is unavailable.
func (s *Session) record(ctx context.Context, description string) bool {
	if s.opts.History == nil {
		return false
	}
	content, err := s.sync.Read(ctx, s.uri)
	if err != nil {
		s.logger.Warn("failed to read document for undo history", "error", err)
		return false
	}
	_, err = s.opts.History.Record(ctx, history.Entry{URI: s.uri, Description: description, Content: content})
	if err != nil {
		s.logger.Warn("failed to record undo history", "error", err)
		return false
	}
	return true
}

func (s *Session) discardRecord(ctx context.Context) {
	if _, err := s.opts.History.Pop(ctx, s.uri); err != nil {
		s.logger.Warn("failed to discard undo history", "error", err)
	}
}

// broadcast sends the current snapshots to every surface showing the
// document, or to reply when there is no broadcaster.
func (s *Session) broadcast(ctx context.Context, reply transport.Sender, active int) {
	msg := transport.UpdateTableData(s.snapshots(), active, s.FileInfo())
	if s.opts.Broadcaster != nil {
		s.opts.Broadcaster.Broadcast(s.uri, msg)
		return
	}
	s.send(ctx, reply, msg)
}

func (s *Session) send(ctx context.Context, reply transport.Sender, msg transport.Outbound) {
	if reply == nil {
		return
	}
	if err := transport.SendWithRetry(ctx, reply, msg, s.opts.MaxAttempts, s.logger); err != nil {
		s.logger.Error("failed to send reply", "command", msg.Command, "error", err)
	}
}

// suggestedCSVName derives a CSV file name from the document name.
func (s *Session) suggestedCSVName(index int) string {
	base := strings.TrimSuffix(path.Base(s.uri), path.Ext(s.uri))
	if index > 0 {
		return fmt.Sprintf("%s-%d.csv", base, index+1)
	}
	return base + ".csv"
}
