package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// Envelope is the wire form of every message.
type Envelope struct {
	Command Command         `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func newMessage(cmd Command) (Message, bool) {
	switch cmd {
	case CmdRequestTableData:
		return &RequestTableData{}, true
	case CmdUpdateCell:
		return &UpdateCell{}, true
	case CmdUpdateHeader:
		return &UpdateHeader{}, true
	case CmdAddRow:
		return &AddRow{}, true
	case CmdDeleteRow:
		return &DeleteRow{}, true
	case CmdDeleteRows:
		return &DeleteRows{}, true
	case CmdAddColumn:
		return &AddColumn{}, true
	case CmdDeleteColumn:
		return &DeleteColumn{}, true
	case CmdDeleteColumns:
		return &DeleteColumns{}, true
	case CmdSort:
		return &Sort{}, true
	case CmdMoveRow:
		return &MoveRow{}, true
	case CmdMoveColumn:
		return &MoveColumn{}, true
	case CmdExportCSV:
		return &ExportCSV{}, true
	case CmdImportCSV:
		return &ImportCSV{}, true
	case CmdPong:
		return &Pong{}, true
	case CmdUpdateAlignment:
		return &UpdateAlignment{}, true
	case CmdFindReplace:
		return &FindReplace{}, true
	case CmdUndo:
		return &Undo{}, true
	}
	return nil, false
}

// Decode parses and validates an inbound message. The returned Message is a
// value of one of the message struct types (not a pointer). All failures
// are *core.ProtocolError.
func Decode(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &core.ProtocolError{Message: fmt.Sprintf("malformed message: %v", err)}
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope decodes and validates the data of an already split message.
func DecodeEnvelope(env Envelope) (Message, error) {
	if env.Command == "" {
		return nil, &core.ProtocolError{Field: "command", Message: "is required"}
	}
	ptr, ok := newMessage(env.Command)
	if !ok {
		return nil, &core.ProtocolError{Command: string(env.Command), Message: "unknown command"}
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, ptr); err != nil {
			return nil, &core.ProtocolError{Command: string(env.Command), Message: fmt.Sprintf("malformed data: %v", err)}
		}
	}

	msg := deref(ptr)
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *RequestTableData:
		return *v
	case *UpdateCell:
		return *v
	case *UpdateHeader:
		return *v
	case *AddRow:
		return *v
	case *DeleteRow:
		return *v
	case *DeleteRows:
		return *v
	case *AddColumn:
		return *v
	case *DeleteColumn:
		return *v
	case *DeleteColumns:
		return *v
	case *Sort:
		return *v
	case *MoveRow:
		return *v
	case *MoveColumn:
		return *v
	case *ExportCSV:
		return *v
	case *ImportCSV:
		return *v
	case *Pong:
		return *v
	case *UpdateAlignment:
		return *v
	case *FindReplace:
		return *v
	case *Undo:
		return *v
	}
	return m
}

// Encode renders a command and its data as a wire message.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Command: msg.Command(), Data: data})
}
