package core

import (
	"fmt"
	"time"
)

// Alignment is the horizontal alignment of a column as encoded in the
// separator row of a pipe table.
type Alignment string

// Alignment values. AlignDefault has no colon markers (---) and displays
// as left aligned.
const (
	AlignDefault Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
)

// ParseAlignment converts a wire value into an Alignment.
// "default" and "" both map to AlignDefault.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "", "default":
		return AlignDefault, nil
	case "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	}
	return AlignDefault, fmt.Errorf("unknown alignment %q", s)
}

// Marker returns the separator-row marker for the alignment.
func (a Alignment) Marker() string {
	switch a {
	case AlignLeft:
		return ":---"
	case AlignCenter:
		return ":---:"
	case AlignRight:
		return "---:"
	default:
		return "---"
	}
}

// Metadata describes where a table lives and its current shape.
type Metadata struct {
	SourceURI        string    `json:"sourceUri"`
	StartLine        int       `json:"startLine"`
	EndLine          int       `json:"endLine"`
	TableIndex       int       `json:"tableIndex"`
	LastModified     time.Time `json:"lastModified"`
	ColumnCount      int       `json:"columnCount"`
	RowCount         int       `json:"rowCount"`
	IsValid          bool      `json:"isValid"`
	ValidationIssues []string  `json:"validationIssues,omitempty"`
}

// TableData is an immutable snapshot of a table model.
// Snapshots are deep copies; mutating one never affects the model.
type TableData struct {
	ID        string      `json:"id"`
	Headers   []string    `json:"headers"`
	Rows      [][]string  `json:"rows"`
	Alignment []Alignment `json:"alignment"`
	Metadata  Metadata    `json:"metadata"`
}

// ValidationResult reports structural consistency of a table.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues,omitempty"`
}

// Boundary is the inclusive, 0-based line range of a table in its source
// document together with the raw text of those lines.
type Boundary struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Text      string `json:"text"`
}

// LineCount returns the number of source lines the boundary covers.
func (b Boundary) LineCount() int {
	return b.EndLine - b.StartLine + 1
}

// CopyRows returns a deep copy of a row matrix.
func CopyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
