package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/table"
)

// Handle executes one validated message. Failures are reported to reply and
// also returned.
func (s *Session) Handle(ctx context.Context, reply transport.Sender, msg transport.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := msg.Table()
	switch m := msg.(type) {
	case transport.RequestTableData:
		if m.ForceRefresh {
			if err := s.load(ctx); err != nil {
				return s.fail(ctx, reply, err, errorMessage)
			}
		}
		s.send(ctx, reply, transport.UpdateTableData(s.snapshots(), idx, s.FileInfo()))
		return nil

	case transport.Pong:
		return nil

	case transport.UpdateCell:
		row, col, value := *m.Row, *m.Col, *m.Value
		return s.edit(ctx, reply, idx, fmt.Sprintf("Update cell (%d, %d)", row, col),
			func(t *table.Model) error { return t.UpdateCell(row, col, value) },
			func(err error) transport.Outbound { return transport.CellUpdateError(row, col, err) })

	case transport.UpdateHeader:
		col, value := *m.Col, *m.Value
		return s.edit(ctx, reply, idx, fmt.Sprintf("Update header (%d)", col),
			func(t *table.Model) error { return t.UpdateHeader(col, value) },
			func(err error) transport.Outbound { return transport.HeaderUpdateError(col, err) })

	case transport.AddRow:
		at := table.Append
		if m.Index != nil {
			at = *m.Index
		}
		return s.edit(ctx, reply, idx, "Add row",
			func(t *table.Model) error { return t.AddRow(at) }, errorMessage)

	case transport.DeleteRow:
		at := *m.Index
		return s.edit(ctx, reply, idx, fmt.Sprintf("Delete row %d", at),
			func(t *table.Model) error { return t.DeleteRow(at) }, errorMessage)

	case transport.DeleteRows:
		return s.edit(ctx, reply, idx, fmt.Sprintf("Delete %d rows", len(m.Indices)),
			func(t *table.Model) error { return t.DeleteRows(m.Indices) }, errorMessage)

	case transport.AddColumn:
		at := table.Append
		if m.Index != nil {
			at = *m.Index
		}
		return s.edit(ctx, reply, idx, "Add column",
			func(t *table.Model) error { return t.AddColumn(at, m.Header) }, errorMessage)

	case transport.DeleteColumn:
		at := *m.Index
		return s.edit(ctx, reply, idx, fmt.Sprintf("Delete column %d", at),
			func(t *table.Model) error { return t.DeleteColumn(at) }, errorMessage)

	case transport.DeleteColumns:
		return s.edit(ctx, reply, idx, fmt.Sprintf("Delete %d columns", len(m.Indices)),
			func(t *table.Model) error { return t.DeleteColumns(m.Indices) }, errorMessage)

	case transport.Sort:
		col := *m.Column
		dir, _ := table.ParseDirection(m.Direction)
		opts := table.SortOptions{DataType: sortType(m.SortType), CaseInsensitive: m.CaseInsensitive}
		return s.edit(ctx, reply, idx, fmt.Sprintf("Sort by column %d (%s)", col, dir),
			func(t *table.Model) error {
				t.SetViewOnly(false)
				return t.SortByColumnAdvanced(col, dir, opts)
			}, errorMessage)

	case transport.MoveRow:
		from, to := *m.FromIndex, *m.ToIndex
		return s.edit(ctx, reply, idx, fmt.Sprintf("Move row %d to %d", from, to),
			func(t *table.Model) error { return t.MoveRow(from, to) }, errorMessage)

	case transport.MoveColumn:
		from, to := *m.FromIndex, *m.ToIndex
		return s.edit(ctx, reply, idx, fmt.Sprintf("Move column %d to %d", from, to),
			func(t *table.Model) error { return t.MoveColumn(from, to) }, errorMessage)

	case transport.UpdateAlignment:
		col := *m.Col
		a, _ := core.ParseAlignment(m.Alignment)
		return s.edit(ctx, reply, idx, fmt.Sprintf("Update alignment (%d)", col),
			func(t *table.Model) error { return t.SetAlignment(col, a) }, errorMessage)

	case transport.FindReplace:
		return s.findReplace(ctx, reply, idx, m)

	case transport.ExportCSV:
		return s.exportCSV(ctx, reply, idx, m)

	case transport.ImportCSV:
		return s.importCSV(ctx, reply, idx)

	case transport.Undo:
		return s.undo(ctx, reply)
	}

	err := &core.ProtocolError{Command: string(msg.Command()), Message: "unsupported command"}
	s.send(ctx, reply, transport.ValidationError(err))
	return err
}

func errorMessage(err error) transport.Outbound {
	return transport.Error(err.Error())
}

func sortType(name string) table.DataType {
	if name == "auto" {
		return table.TypeAuto
	}
	return table.DataType(name)
}

// edit runs a mutation and broadcasts the result. report turns a failure
// into the message sent back to the requesting surface.
func (s *Session) edit(ctx context.Context, reply transport.Sender, idx int, description string,
	apply func(*table.Model) error, report func(error) transport.Outbound) error {
	changed, err := s.mutate(ctx, idx, description, apply)
	if err != nil {
		return s.fail(ctx, reply, err, report)
	}
	if changed {
		s.broadcast(ctx, reply, idx)
	}
	return nil
}

func (s *Session) fail(ctx context.Context, reply transport.Sender, err error, report func(error) transport.Outbound) error {
	var pe *core.ProtocolError
	if errors.As(err, &pe) {
		s.send(ctx, reply, transport.ValidationError(pe))
		return err
	}
	s.logger.Warn("edit failed", "error", err)
	s.send(ctx, reply, report(err))
	return err
}

func (s *Session) findReplace(ctx context.Context, reply transport.Sender, idx int, m transport.FindReplace) error {
	count := 0
	opts := table.FindOptions{UseRegex: m.UseRegex, CaseInsensitive: m.CaseInsensitive}
	err := s.edit(ctx, reply, idx, fmt.Sprintf("Replace %q", m.Find),
		func(t *table.Model) error {
			n, err := t.FindAndReplace(m.Find, m.Replace, opts)
			if err != nil {
				return err
			}
			if n == 0 {
				return errUnchanged
			}
			count = n
			return nil
		}, errorMessage)
	if err != nil {
		return err
	}
	s.send(ctx, reply, transport.Success(fmt.Sprintf("Replaced %d occurrences", count), map[string]int{"count": count}))
	return nil
}

func (s *Session) exportCSV(ctx context.Context, reply transport.Sender, idx int, m transport.ExportCSV) error {
	if s.opts.Picker == nil {
		return s.fail(ctx, reply, errors.New("no file picker available for export"), errorMessage)
	}

	enc := s.opts.CSVEncoding
	if m.Encoding != "" {
		parsed, err := csvio.ParseEncoding(m.Encoding)
		if err != nil {
			return s.fail(ctx, reply, &core.ProtocolError{Command: string(m.Command()), Field: "encoding", Message: err.Error()}, errorMessage)
		}
		enc = parsed
	}
	name := m.Filename
	if name == "" {
		name = s.suggestedCSVName(idx)
	}

	target, err := s.opts.Picker.PickSave(ctx, name)
	if err != nil {
		return s.fail(ctx, reply, fmt.Errorf("choose export file: %w", err), errorMessage)
	}
	if target == "" {
		s.send(ctx, reply, transport.Status("cancelled", nil))
		return nil
	}

	content := m.CSVContent
	if content == "" {
		t, err := s.model(idx)
		if err != nil {
			return s.fail(ctx, reply, err, errorMessage)
		}
		var sb strings.Builder
		if err := t.WriteCSV(&sb); err != nil {
			return s.fail(ctx, reply, err, errorMessage)
		}
		content = sb.String()
	}

	b, err := csvio.Encode(content, enc)
	if err != nil {
		return s.fail(ctx, reply, err, errorMessage)
	}
	if err := os.WriteFile(target, b, 0o644); err != nil {
		return s.fail(ctx, reply, fmt.Errorf("write %s: %w", target, err), errorMessage)
	}

	s.logger.Info("exported csv", "path", target, "encoding", enc)
	s.send(ctx, reply, transport.Success("Exported to "+target, map[string]string{"path": target, "encoding": string(enc)}))
	return nil
}

func (s *Session) importCSV(ctx context.Context, reply transport.Sender, idx int) error {
	if s.opts.Picker == nil {
		return s.fail(ctx, reply, errors.New("no file picker available for import"), errorMessage)
	}

	source, err := s.opts.Picker.PickOpen(ctx, s.suggestedCSVName(idx))
	if err != nil {
		return s.fail(ctx, reply, fmt.Errorf("choose import file: %w", err), errorMessage)
	}
	if source == "" {
		s.send(ctx, reply, transport.Status("cancelled", nil))
		return nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return s.fail(ctx, reply, fmt.Errorf("read %s: %w", source, err), errorMessage)
	}
	text, enc, err := csvio.Decode(raw)
	if err != nil {
		return s.fail(ctx, reply, err, errorMessage)
	}
	records, err := csvio.ReadRecords(text)
	if err != nil {
		return s.fail(ctx, reply, err, errorMessage)
	}

	err = s.edit(ctx, reply, idx, "Import CSV",
		func(t *table.Model) error { return t.ReplaceFromRecords(records) }, errorMessage)
	if err != nil {
		return err
	}
	s.logger.Info("imported csv", "path", source, "encoding", enc, "records", len(records))
	s.send(ctx, reply, transport.Success(fmt.Sprintf("Imported %d rows from %s", max(len(records)-1, 0), source),
		map[string]string{"path": source, "encoding": string(enc)}))
	return nil
}

func (s *Session) undo(ctx context.Context, reply transport.Sender) error {
	if s.opts.History == nil {
		return s.fail(ctx, reply, errors.New("undo history is not available"), errorMessage)
	}

	e, err := s.opts.History.Pop(ctx, s.uri)
	if err != nil {
		return s.fail(ctx, reply, err, errorMessage)
	}
	if e == nil {
		s.send(ctx, reply, transport.Status("nothingToUndo", nil))
		return nil
	}

	if err := s.sync.Write(ctx, s.uri, e.Content); err != nil {
		if _, rerr := s.opts.History.Record(ctx, *e); rerr != nil {
			s.logger.Warn("failed to restore undo entry", "error", rerr)
		}
		return s.fail(ctx, reply, err, errorMessage)
	}
	if err := s.load(ctx); err != nil {
		return s.fail(ctx, reply, err, errorMessage)
	}

	s.logger.Info("undo", "edit", e.Description)
	s.broadcast(ctx, reply, 0)
	s.send(ctx, reply, transport.Success("Undid: "+e.Description, nil))
	return nil
}
