package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLastColumn is reported when an edit would leave a table without columns.
var ErrLastColumn = errors.New("cannot delete last column")

// ParseError reports input the table parser cannot process at all.
// Malformed but plausible tables never produce a ParseError; they are
// extracted best-effort or skipped.
type ParseError struct {
	Line    int // 0-based line, -1 when not tied to a line
	Message string
}

func (e *ParseError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line+1, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// ValidationError reports a structural inconsistency or a structural edit
// that would break a table invariant.
type ValidationError struct {
	Issues []string
	Err    error
}

// NewValidationError creates a validation error from one or more issues.
func NewValidationError(issues ...string) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	msg := strings.Join(e.Issues, "; ")
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PositionError reports a row, column or drag index outside current bounds.
type PositionError struct {
	Kind  string // "row", "column", "table" or "drag"
	Index int
	Limit int // number of valid positions
}

func (e *PositionError) Error() string {
	if e.Limit <= 0 {
		return fmt.Sprintf("%s index %d out of range (no %ss)", e.Kind, e.Index, e.Kind)
	}
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

// PersistenceError reports a failure while reading or patching a document.
type PersistenceError struct {
	Op      string // "read", "write" or "update"
	URI     string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.URI)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProtocolError reports a message that failed command-schema validation
// or named an unknown command.
type ProtocolError struct {
	Command string
	Field   string
	Message string
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Command == "":
		return fmt.Sprintf("protocol error: %s", e.Message)
	case e.Field == "":
		return fmt.Sprintf("protocol error in %s: %s", e.Command, e.Message)
	default:
		return fmt.Sprintf("protocol error in %s.%s: %s", e.Command, e.Field, e.Message)
	}
}

// IsPositionError reports whether err is or wraps a PositionError.
func IsPositionError(err error) bool {
	var pe *PositionError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistenceError reports whether err is or wraps a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsProtocolError reports whether err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
