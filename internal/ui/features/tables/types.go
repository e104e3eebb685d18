package tables

import "encoding/json"

// CommandSignals is the signal payload posted by the surface.
type CommandSignals struct {
	Message json.RawMessage `json:"message"`
}

// MessageSignals is the signal patch pushed to the surface.
type MessageSignals struct {
	Message any `json:"message"`
}
