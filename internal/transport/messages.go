// Package transport defines the message protocol between the table engine
// and a rendering surface: inbound command validation, outbound message
// construction, send retry, and connection liveness.
package transport

import (
	"fmt"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// Command names an inbound message.
type Command string

// Inbound commands.
const (
	// CmdRequestTableData asks for fresh snapshots of every table.
	CmdRequestTableData Command = "requestTableData"
	CmdUpdateCell       Command = "updateCell"
	CmdUpdateHeader     Command = "updateHeader"
	CmdAddRow           Command = "addRow"
	CmdDeleteRow        Command = "deleteRow"
	CmdDeleteRows       Command = "deleteRows"
	CmdAddColumn        Command = "addColumn"
	CmdDeleteColumn     Command = "deleteColumn"
	CmdDeleteColumns    Command = "deleteColumns"
	CmdSort             Command = "sort"
	CmdMoveRow          Command = "moveRow"
	CmdMoveColumn       Command = "moveColumn"
	// CmdExportCSV carries CSV text produced by the surface to be saved.
	CmdExportCSV Command = "exportCSV"
	// CmdImportCSV asks the engine to pick a CSV file and replace the table.
	CmdImportCSV       Command = "importCSV"
	CmdPong            Command = "pong"
	CmdUpdateAlignment Command = "updateAlignment"
	CmdFindReplace     Command = "findReplace"
	CmdUndo            Command = "undo"
)

// Message is a decoded and typed inbound message. The set of
// implementations is closed; handlers dispatch with a type switch.
type Message interface {
	Command() Command
	// Validate checks the command schema and returns a *core.ProtocolError.
	Validate() error
	// Table returns the ordinal of the addressed table.
	Table() int
	isMessage()
}

// Target is embedded in every inbound message. TableIndex defaults to 0.
type Target struct {
	TableIndex *int `json:"tableIndex,omitempty"`
}

// Table returns the addressed table ordinal.
func (t Target) Table() int {
	if t.TableIndex == nil {
		return 0
	}
	return *t.TableIndex
}

func (t Target) isMessage() {}

func (t Target) validate(cmd Command) error {
	if t.TableIndex != nil && *t.TableIndex < 0 {
		return invalid(cmd, "tableIndex", "must be non-negative")
	}
	return nil
}

// RequestTableData asks for snapshots of all tables.
type RequestTableData struct {
	Target
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

// UpdateCell sets one data cell.
type UpdateCell struct {
	Target
	Row   *int    `json:"row"`
	Col   *int    `json:"col"`
	Value *string `json:"value"`
}

// UpdateHeader sets one header cell.
type UpdateHeader struct {
	Target
	Col   *int    `json:"col"`
	Value *string `json:"value"`
}

// AddRow inserts an empty row; without Index it is appended.
type AddRow struct {
	Target
	Index *int `json:"index,omitempty"`
}

// DeleteRow removes one row.
type DeleteRow struct {
	Target
	Index *int `json:"index"`
}

// DeleteRows removes several rows.
type DeleteRows struct {
	Target
	Indices []int `json:"indices"`
}

// AddColumn inserts a column; without Index it is appended.
type AddColumn struct {
	Target
	Index  *int   `json:"index,omitempty"`
	Header string `json:"header,omitempty"`
}

// DeleteColumn removes one column.
type DeleteColumn struct {
	Target
	Index *int `json:"index"`
}

// DeleteColumns removes several columns.
type DeleteColumns struct {
	Target
	Indices []int `json:"indices"`
}

// Sort orders the rows by one column.
type Sort struct {
	Target
	Column          *int   `json:"column"`
	Direction       string `json:"direction"`
	SortType        string `json:"sortType,omitempty"`
	CaseInsensitive bool   `json:"caseInsensitive,omitempty"`
}

// MoveRow moves a row to a new final index.
type MoveRow struct {
	Target
	FromIndex *int `json:"fromIndex"`
	ToIndex   *int `json:"toIndex"`
}

// MoveColumn moves a column to a new final index.
type MoveColumn struct {
	Target
	FromIndex *int `json:"fromIndex"`
	ToIndex   *int `json:"toIndex"`
}

// ExportCSV saves CSV content through the file picker.
type ExportCSV struct {
	Target
	CSVContent string `json:"csvContent"`
	Filename   string `json:"filename,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

// ImportCSV replaces the table with a CSV file chosen through the file picker.
type ImportCSV struct {
	Target
}

// Pong answers a ping.
type Pong struct {
	Target
	Timestamp    *int64 `json:"timestamp"`
	ResponseTime *int64 `json:"responseTime"`
}

// UpdateAlignment sets the alignment of one column.
type UpdateAlignment struct {
	Target
	Col       *int   `json:"col"`
	Alignment string `json:"alignment"`
}

// FindReplace replaces text in every data cell.
type FindReplace struct {
	Target
	Find            string `json:"find"`
	Replace         string `json:"replace"`
	UseRegex        bool   `json:"useRegex,omitempty"`
	CaseInsensitive bool   `json:"caseInsensitive,omitempty"`
}

// Undo restores the document as it was before the last edit.
type Undo struct {
	Target
}

// Command implementations.

func (RequestTableData) Command() Command { return CmdRequestTableData }
func (UpdateCell) Command() Command       { return CmdUpdateCell }
func (UpdateHeader) Command() Command     { return CmdUpdateHeader }
func (AddRow) Command() Command           { return CmdAddRow }
func (DeleteRow) Command() Command        { return CmdDeleteRow }
func (DeleteRows) Command() Command       { return CmdDeleteRows }
func (AddColumn) Command() Command        { return CmdAddColumn }
func (DeleteColumn) Command() Command     { return CmdDeleteColumn }
func (DeleteColumns) Command() Command    { return CmdDeleteColumns }
func (Sort) Command() Command             { return CmdSort }
func (MoveRow) Command() Command          { return CmdMoveRow }
func (MoveColumn) Command() Command       { return CmdMoveColumn }
func (ExportCSV) Command() Command        { return CmdExportCSV }
func (ImportCSV) Command() Command        { return CmdImportCSV }
func (Pong) Command() Command             { return CmdPong }
func (UpdateAlignment) Command() Command  { return CmdUpdateAlignment }
func (FindReplace) Command() Command      { return CmdFindReplace }
func (Undo) Command() Command             { return CmdUndo }

// Validation.

func (m RequestTableData) Validate() error { return m.validate(m.Command()) }
func (m ImportCSV) Validate() error        { return m.validate(m.Command()) }
func (m Undo) Validate() error             { return m.validate(m.Command()) }

func (m UpdateCell) Validate() error {
	return first(
		m.validate(m.Command()),
		index(m.Command(), "row", m.Row, true),
		index(m.Command(), "col", m.Col, true),
		present(m.Command(), "value", m.Value),
	)
}

func (m UpdateHeader) Validate() error {
	return first(
		m.validate(m.Command()),
		index(m.Command(), "col", m.Col, true),
		present(m.Command(), "value", m.Value),
	)
}

func (m AddRow) Validate() error {
	return first(m.validate(m.Command()), index(m.Command(), "index", m.Index, false))
}

func (m DeleteRow) Validate() error {
	return first(m.validate(m.Command()), index(m.Command(), "index", m.Index, true))
}

func (m DeleteRows) Validate() error {
	return first(m.validate(m.Command()), indices(m.Command(), m.Indices))
}

func (m AddColumn) Validate() error {
	return first(m.validate(m.Command()), index(m.Command(), "index", m.Index, false))
}

func (m DeleteColumn) Validate() error {
	return first(m.validate(m.Command()), index(m.Command(), "index", m.Index, true))
}

func (m DeleteColumns) Validate() error {
	return first(m.validate(m.Command()), indices(m.Command(), m.Indices))
}

func (m Sort) Validate() error {
	if err := first(m.validate(m.Command()), index(m.Command(), "column", m.Column, true)); err != nil {
		return err
	}
	switch m.Direction {
	case "asc", "desc":
	case "":
		return missing(m.Command(), "direction")
	default:
		return invalid(m.Command(), "direction", fmt.Sprintf("must be asc or desc, got %q", m.Direction))
	}
	switch m.SortType {
	case "", "auto", "number", "date", "string", "natural":
	default:
		return invalid(m.Command(), "sortType", fmt.Sprintf("unknown sort type %q", m.SortType))
	}
	return nil
}

func (m MoveRow) Validate() error {
	return first(
		m.validate(m.Command()),
		index(m.Command(), "fromIndex", m.FromIndex, true),
		index(m.Command(), "toIndex", m.ToIndex, true),
	)
}

func (m MoveColumn) Validate() error {
	return first(
		m.validate(m.Command()),
		index(m.Command(), "fromIndex", m.FromIndex, true),
		index(m.Command(), "toIndex", m.ToIndex, true),
	)
}

func (m ExportCSV) Validate() error {
	if err := m.validate(m.Command()); err != nil {
		return err
	}
	if m.CSVContent == "" {
		return missing(m.Command(), "csvContent")
	}
	if m.Encoding != "" && !knownEncoding(m.Encoding) {
		return invalid(m.Command(), "encoding", fmt.Sprintf("unknown encoding %q", m.Encoding))
	}
	return nil
}

func (m Pong) Validate() error {
	if err := m.validate(m.Command()); err != nil {
		return err
	}
	if m.Timestamp == nil {
		return missing(m.Command(), "timestamp")
	}
	if m.ResponseTime == nil {
		return missing(m.Command(), "responseTime")
	}
	return nil
}

func (m UpdateAlignment) Validate() error {
	if err := first(m.validate(m.Command()), index(m.Command(), "col", m.Col, true)); err != nil {
		return err
	}
	if _, err := core.ParseAlignment(m.Alignment); err != nil {
		return invalid(m.Command(), "alignment", err.Error())
	}
	return nil
}

func (m FindReplace) Validate() error {
	if err := m.validate(m.Command()); err != nil {
		return err
	}
	if m.Find == "" {
		return missing(m.Command(), "find")
	}
	return nil
}

// Encodings accepted by exportCSV.
var encodings = []string{"utf8", "utf8bom", "sjis", "windows1252"}

func knownEncoding(name string) bool {
	for _, e := range encodings {
		if e == name {
			return true
		}
	}
	return false
}

func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func index(cmd Command, field string, v *int, required bool) error {
	if v == nil {
		if required {
			return missing(cmd, field)
		}
		return nil
	}
	if *v < 0 {
		return invalid(cmd, field, fmt.Sprintf("must be non-negative, got %d", *v))
	}
	return nil
}

func indices(cmd Command, v []int) error {
	if len(v) == 0 {
		return invalid(cmd, "indices", "must be a non-empty array")
	}
	for _, i := range v {
		if i < 0 {
			return invalid(cmd, "indices", fmt.Sprintf("must be non-negative, got %d", i))
		}
	}
	return nil
}

func present[T any](cmd Command, field string, v *T) error {
	if v == nil {
		return missing(cmd, field)
	}
	return nil
}

func missing(cmd Command, field string) error {
	return &core.ProtocolError{Command: string(cmd), Field: field, Message: "is required"}
}

func invalid(cmd Command, field, msg string) error {
	return &core.ProtocolError{Command: string(cmd), Field: field, Message: msg}
}
