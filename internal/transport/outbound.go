package transport

import (
	"time"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// OutboundCommand names a message sent to the surface.
type OutboundCommand string

// Outbound commands.
const (
	OutUpdateTableData   OutboundCommand = "updateTableData"
	OutError             OutboundCommand = "error"
	OutSuccess           OutboundCommand = "success"
	OutStatus            OutboundCommand = "status"
	OutValidationError   OutboundCommand = "validationError"
	OutPing              OutboundCommand = "ping"
	OutCellUpdateError   OutboundCommand = "cellUpdateError"
	OutHeaderUpdateError OutboundCommand = "headerUpdateError"
)

// Outbound is a message sent to the surface.
type Outbound struct {
	Command OutboundCommand `json:"command"`
	Data    any             `json:"data,omitempty"`
}

// FileInfo describes the document the tables belong to.
type FileInfo struct {
	URI      string `json:"uri"`
	FileName string `json:"fileName"`
}

// TableDataPayload carries table snapshots.
type TableDataPayload struct {
	Tables   []core.TableData `json:"tables"`
	Active   int              `json:"activeTableIndex"`
	FileInfo FileInfo         `json:"fileInfo"`
}

// MessagePayload carries a human-readable message and optional data.
type MessagePayload struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// StatusPayload reports a status change.
type StatusPayload struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ValidationErrorPayload reports a rejected inbound message.
type ValidationErrorPayload struct {
	Command string `json:"command,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// PingPayload carries the send time in Unix milliseconds.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// CellErrorPayload reports a failed cell or header edit.
type CellErrorPayload struct {
	Row   *int   `json:"row,omitempty"`
	Col   int    `json:"col"`
	Error string `json:"error"`
}

// UpdateTableData builds an updateTableData message. active is the ordinal
// of the table the edit addressed.
func UpdateTableData(tables []core.TableData, active int, file FileInfo) Outbound {
	return Outbound{Command: OutUpdateTableData, Data: TableDataPayload{Tables: tables, Active: active, FileInfo: file}}
}

// Error builds an error message.
func Error(message string) Outbound {
	return Outbound{Command: OutError, Data: MessagePayload{Message: message}}
}

// Success builds a success message.
func Success(message string, data any) Outbound {
	return Outbound{Command: OutSuccess, Data: MessagePayload{Message: message, Data: data}}
}

// Status builds a status message.
func Status(status string, data any) Outbound {
	return Outbound{Command: OutStatus, Data: StatusPayload{Status: status, Data: data}}
}

// ValidationError builds a validationError message from a protocol error.
func ValidationError(err *core.ProtocolError) Outbound {
	return Outbound{Command: OutValidationError, Data: ValidationErrorPayload{
		Command: err.Command,
		Field:   err.Field,
		Message: err.Message,
	}}
}

// Ping builds a ping message stamped with t.
func Ping(t time.Time) Outbound {
	return Outbound{Command: OutPing, Data: PingPayload{Timestamp: t.UnixMilli()}}
}

// CellUpdateError reports a failed cell edit.
func CellUpdateError(row, col int, err error) Outbound {
	return Outbound{Command: OutCellUpdateError, Data: CellErrorPayload{Row: &row, Col: col, Error: err.Error()}}
}

// HeaderUpdateError reports a failed header edit.
func HeaderUpdateError(col int, err error) Outbound {
	return Outbound{Command: OutHeaderUpdateError, Data: CellErrorPayload{Col: col, Error: err.Error()}}
}
