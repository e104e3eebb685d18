// Package table implements the mutable, validated in-memory model of one
// markdown table: cell, row and column editing, sorting, and drag-and-drop
// reordering.
//
// A Model is not safe for concurrent use. Callers serialize access; in
// practice one message is handled at a time per document session.
//
// Every successful mutation leaves the model rectangular: each row has one
// cell per header and there is one alignment per header. Failed operations
// return a *core.PositionError or *core.ValidationError and leave the model
// untouched.
package table

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// Append can be passed as an index to add rows or columns at the end.
const Append = -1

// ListenerID identifies a registered change listener.
type ListenerID int

// Model is the working copy of one table plus its metadata.
type Model struct {
	id        string
	headers   []string
	rows      [][]string
	alignment []core.Alignment
	meta      core.Metadata

	sortState SortState
	drag      dragState

	listeners     map[ListenerID]func(core.TableData)
	nextListener  ListenerID
	dragListeners []DragListener

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used to report listener failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for LastModified.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a model from raw table contents. The inputs are deep-copied
// and normalized to a rectangular shape; the issues found before
// normalization are kept in the metadata.
func New(headers []string, rows [][]string, alignment []core.Alignment, opts ...Option) *Model {
	m := &Model{
		id:        uuid.NewString(),
		listeners: make(map[ListenerID]func(core.TableData)),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		sortState: SortState{ColumnIndex: -1, Direction: None},
	}
	for _, opt := range opts {
		opt(m)
	}

	result := markdown.ValidateShape(headers, rows, alignment)
	m.headers = append([]string{}, headers...)
	m.rows = normalizeRows(rows, len(headers))
	m.alignment = normalizeAlignment(alignment, len(headers))
	m.meta = core.Metadata{
		EndLine:          -1,
		LastModified:     m.now(),
		IsValid:          result.IsValid,
		ValidationIssues: result.Issues,
	}
	m.refreshCounts()
	return m
}

// NewModel creates a model for the table at tableIndex of the document
// identified by sourceURI.
func NewModel(d *markdown.TableDescriptor, sourceURI string, tableIndex int, opts ...Option) *Model {
	m := New(d.Headers, d.Rows, d.Alignment, opts...)
	m.meta.SourceURI = sourceURI
	m.meta.TableIndex = tableIndex
	m.meta.StartLine = d.StartLine
	m.meta.EndLine = d.EndLine
	return m
}

func normalizeRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, width)
		copy(r, row)
		out[i] = r
	}
	return out
}

func normalizeAlignment(alignment []core.Alignment, width int) []core.Alignment {
	out := make([]core.Alignment, width)
	copy(out, alignment)
	return out
}

// ID returns the session-local identifier of the model. It is never
// persisted or used to match tables in a document.
func (m *Model) ID() string { return m.id }

// Metadata returns a copy of the model metadata.
func (m *Model) Metadata() core.Metadata {
	meta := m.meta
	meta.ValidationIssues = slices.Clone(m.meta.ValidationIssues)
	return meta
}

// ColumnCount returns the number of columns.
func (m *Model) ColumnCount() int { return len(m.headers) }

// RowCount returns the number of data rows.
func (m *Model) RowCount() int { return len(m.rows) }

// Headers returns a copy of the header cells.
func (m *Model) Headers() []string { return slices.Clone(m.headers) }

// Rows returns a deep copy of the data rows.
func (m *Model) Rows() [][]string { return core.CopyRows(m.rows) }

// Alignment returns a copy of the column alignments.
func (m *Model) Alignment() []core.Alignment { return slices.Clone(m.alignment) }

// Data returns a deep-copied snapshot of the model.
func (m *Model) Data() core.TableData {
	return core.TableData{
		ID:        m.id,
		Headers:   m.Headers(),
		Rows:      m.Rows(),
		Alignment: m.Alignment(),
		Metadata:  m.Metadata(),
	}
}

// SetBoundary records the current source line range of the table.
func (m *Model) SetBoundary(startLine, endLine int) {
	m.meta.StartLine = startLine
	m.meta.EndLine = endLine
}

// SetTableIndex records the ordinal position of the table in its document.
func (m *Model) SetTableIndex(index int) {
	m.meta.TableIndex = index
}

// Validate checks the structural invariants of the current state.
func (m *Model) Validate() core.ValidationResult {
	return markdown.ValidateShape(m.headers, m.rows, m.alignment)
}

// SerializeToMarkdown renders the table as pipe-table markdown.
func (m *Model) SerializeToMarkdown() string {
	return markdown.Serialize(m.headers, m.rows, m.alignment)
}

// Clone returns an independent deep copy with a fresh id. Listeners and
// drag state are not copied.
func (m *Model) Clone() *Model {
	c := &Model{
		id:        uuid.NewString(),
		headers:   slices.Clone(m.headers),
		rows:      core.CopyRows(m.rows),
		alignment: slices.Clone(m.alignment),
		meta:      m.Metadata(),
		sortState: m.sortState.clone(),
		listeners: make(map[ListenerID]func(core.TableData)),
		logger:    m.logger,
		now:       m.now,
	}
	return c
}

// Restore replaces the contents of the model with a snapshot, typically one
// taken before a mutation that could not be persisted.
func (m *Model) Restore(data core.TableData) {
	m.headers = slices.Clone(data.Headers)
	m.rows = normalizeRows(data.Rows, len(data.Headers))
	m.alignment = normalizeAlignment(data.Alignment, len(data.Headers))
	m.changed()
}

// Checkpoint is a saved copy of a model's contents and sort state.
type Checkpoint struct {
	data core.TableData
	sort SortState
}

// Data returns the saved contents.
func (c Checkpoint) Data() core.TableData { return c.data }

// Checkpoint saves the contents and sort state for a later Rollback.
func (m *Model) Checkpoint() Checkpoint {
	return Checkpoint{data: m.Data(), sort: m.sortState.clone()}
}

// Rollback returns the model to a checkpoint, sort state included.
func (m *Model) Rollback(c Checkpoint) {
	m.sortState = c.sort.clone()
	m.Restore(c.data)
}

// AddChangeListener registers fn to be called with a fresh snapshot after
// every successful mutation.
func (m *Model) AddChangeListener(fn func(core.TableData)) ListenerID {
	m.nextListener++
	m.listeners[m.nextListener] = fn
	return m.nextListener
}

// RemoveChangeListener unregisters a listener. Unknown ids are ignored.
func (m *Model) RemoveChangeListener(id ListenerID) {
	delete(m.listeners, id)
}

// changed refreshes metadata and notifies listeners.
func (m *Model) changed() {
	m.meta.LastModified = m.now()
	result := m.Validate()
	m.meta.IsValid = result.IsValid
	m.meta.ValidationIssues = result.Issues
	m.refreshCounts()

	if len(m.listeners) == 0 {
		return
	}
	ids := make([]ListenerID, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m.callListener(id, m.listeners[id])
	}
}

func (m *Model) callListener(id ListenerID, fn func(core.TableData)) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("change listener panicked", "table_id", m.id, "listener", id, "panic", fmt.Sprint(r))
		}
	}()
	fn(m.Data())
}

func (m *Model) refreshCounts() {
	m.meta.ColumnCount = len(m.headers)
	m.meta.RowCount = len(m.rows)
}

func (m *Model) checkRow(i int) error {
	if i < 0 || i >= len(m.rows) {
		return &core.PositionError{Kind: "row", Index: i, Limit: len(m.rows)}
	}
	return nil
}

func (m *Model) checkColumn(i int) error {
	if i < 0 || i >= len(m.headers) {
		return &core.PositionError{Kind: "column", Index: i, Limit: len(m.headers)}
	}
	return nil
}

// checkInsertRow validates an insertion position and resolves Append.
func (m *Model) checkInsertRow(i int) (int, error) {
	if i == Append {
		return len(m.rows), nil
	}
	if i < 0 || i > len(m.rows) {
		return 0, &core.PositionError{Kind: "row", Index: i, Limit: len(m.rows) + 1}
	}
	return i, nil
}

func (m *Model) checkInsertColumn(i int) (int, error) {
	if i == Append {
		return len(m.headers), nil
	}
	if i < 0 || i > len(m.headers) {
		return 0, &core.PositionError{Kind: "column", Index: i, Limit: len(m.headers) + 1}
	}
	return i, nil
}
