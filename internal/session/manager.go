// Package session owns the open documents being edited and executes
// surface commands against them.
//
// A Session holds one table model per table of its document, indexed by
// ordinal. Each command runs the sequence mutate, serialize, patch and
// snapshot under the session lock, so concurrent requests for one document
// are applied one at a time in arrival order.
package session

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/leapstack-labs/mdtables/internal/document"
	"github.com/leapstack-labs/mdtables/internal/persist"
	"github.com/leapstack-labs/mdtables/internal/transport"
)

// Options configures a Manager and its sessions.
type Options struct {
	Store       document.Store
	History     History
	Picker      FilePicker
	Broadcaster Broadcaster
	// CSVEncoding is used for exports that do not name an encoding.
	CSVEncoding csvio.Encoding
	// MaxAttempts bounds reply retries.
	MaxAttempts int
	Logger      *slog.Logger
}

// Manager tracks the open sessions, one per document URI.
type Manager struct {
	opts Options
	sync *persist.Synchronizer

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = transport.DefaultMaxAttempts
	}
	if opts.CSVEncoding == "" {
		opts.CSVEncoding = csvio.UTF8
	}
	return &Manager{
		opts:     opts,
		sync:     persist.New(opts.Store, opts.Logger),
		sessions: make(map[string]*Session),
	}
}

// canonical returns the key the session for uri is kept under.
func (m *Manager) canonical(uri string) string {
	return document.Canonical(m.opts.Store, uri)
}

// Open returns the session for uri, loading the document on first use.
func (m *Manager) Open(ctx context.Context, uri string) (*Session, error) {
	uri = m.canonical(uri)
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[uri]; ok {
		return s, nil
	}
	s := newSession(uri, m.sync, m.opts)
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	m.sessions[uri] = s
	m.opts.Logger.Debug("session opened", "uri", uri, "tables", len(s.models))
	return s, nil
}

// Get returns the session for uri if it is open.
func (m *Manager) Get(uri string) (*Session, bool) {
	uri = m.canonical(uri)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uri]
	return s, ok
}

// Close forgets the session for uri.
func (m *Manager) Close(uri string) {
	uri = m.canonical(uri)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[uri]; ok {
		delete(m.sessions, uri)
		m.opts.Logger.Debug("session closed", "uri", uri)
	}
}

// URIs lists the open documents.
func (m *Manager) URIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.sessions))
}

// Reload re-reads an open document after an external change. Documents
// without a session are ignored.
func (m *Manager) Reload(ctx context.Context, uri string) error {
	s, ok := m.Get(uri)
	if !ok {
		return nil
	}
	_, err := s.Reload(ctx)
	return err
}

// TableCount parses uri and returns how many tables it holds, without
// opening a session.
func (m *Manager) TableCount(ctx context.Context, uri string) (int, error) {
	if s, ok := m.Get(uri); ok {
		return s.TableCount(), nil
	}
	tables, _, err := m.sync.Tables(ctx, uri)
	if err != nil {
		return 0, err
	}
	return len(tables), nil
}
