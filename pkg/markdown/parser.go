package markdown

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// TableDescriptor is the parser's read-only extraction of one table.
// Lines are 0-based and EndLine is inclusive.
type TableDescriptor struct {
	StartLine int
	EndLine   int
	Headers   []string
	Rows      [][]string
	Alignment []core.Alignment
}

// ColumnCount returns the number of header cells.
func (d *TableDescriptor) ColumnCount() int {
	return len(d.Headers)
}

// ParseTables extracts every pipe table from content in document order.
// The position of a descriptor in the returned slice is its ordinal table index.
//
// Tables with inconsistent column counts are returned as found; use
// ValidateDescriptor to inspect them. A header without a separator row is
// not a table. Only content that cannot be markdown text (invalid UTF-8 or
// NUL bytes) produces a *core.ParseError.
func ParseTables(content string) ([]*TableDescriptor, error) {
	if !utf8.ValidString(content) {
		return nil, &core.ParseError{Line: -1, Message: "content is not valid UTF-8"}
	}
	if i := strings.IndexByte(content, 0); i >= 0 {
		return nil, &core.ParseError{
			Line:    strings.Count(content[:i], "\n"),
			Message: "content contains a NUL byte",
		}
	}

	lines := SplitLines(content)
	masked := codeBlockLines(content)

	var tables []*TableDescriptor
	for i := 0; i+1 < len(lines); {
		if masked[i] || masked[i+1] || !isRowLine(lines[i]) {
			i++
			continue
		}
		headers := splitRow(lines[i])
		if !isSeparatorLine(lines[i+1], len(headers)) {
			i++
			continue
		}

		d := &TableDescriptor{
			StartLine: i,
			EndLine:   i + 1,
			Headers:   headers,
			Alignment: parseSeparator(lines[i+1]),
		}
		for j := i + 2; j < len(lines) && !masked[j] && isRowLine(lines[j]); j++ {
			d.Rows = append(d.Rows, splitRow(lines[j]))
			d.EndLine = j
		}
		if d.EndLine >= len(lines) {
			return nil, &core.ParseError{Line: d.EndLine, Message: "table extends past end of document"}
		}

		tables = append(tables, d)
		i = d.EndLine + 1
	}
	return tables, nil
}

// SplitLines splits content into lines without their terminators.
// A trailing newline does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// FindTableAtLine returns the table whose line range contains line.
func FindTableAtLine(tables []*TableDescriptor, line int) (*TableDescriptor, bool) {
	for _, t := range tables {
		if line >= t.StartLine && line <= t.EndLine {
			return t, true
		}
		if t.StartLine > line {
			break
		}
	}
	return nil, false
}

// TableBoundary parses content and returns the exact source boundary of the
// table at tableIndex.
func TableBoundary(content string, tableIndex int) (core.Boundary, error) {
	tables, err := ParseTables(content)
	if err != nil {
		return core.Boundary{}, err
	}
	if tableIndex < 0 || tableIndex >= len(tables) {
		return core.Boundary{}, &core.PositionError{Kind: "table", Index: tableIndex, Limit: len(tables)}
	}
	t := tables[tableIndex]
	lines := SplitLines(content)
	return core.Boundary{
		StartLine: t.StartLine,
		EndLine:   t.EndLine,
		Text:      strings.Join(lines[t.StartLine:t.EndLine+1], "\n"),
	}, nil
}

// ValidateDescriptor checks the structural consistency of a descriptor.
func ValidateDescriptor(d *TableDescriptor) core.ValidationResult {
	return ValidateShape(d.Headers, d.Rows, d.Alignment)
}

// ValidateShape checks that every row and the alignment list match the
// header count.
func ValidateShape(headers []string, rows [][]string, alignment []core.Alignment) core.ValidationResult {
	var issues []string
	if len(headers) == 0 {
		issues = append(issues, "Table has no headers")
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			issues = append(issues, fmt.Sprintf("Row %d has %d columns, expected %d", i+1, len(row), len(headers)))
		}
	}
	if len(alignment) != len(headers) {
		issues = append(issues, "Alignment array length mismatch")
	}
	return core.ValidationResult{IsValid: len(issues) == 0, Issues: issues}
}

// isRowLine reports whether a line can be part of a table.
func isRowLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && unescapedPipe(trimmed) >= 0
}

// isSeparatorLine reports whether line is a delimiter row. Without any
// pipe it is only accepted under a single-column header, so that setext
// headings and thematic breaks are not mistaken for tables.
func isSeparatorLine(line string, headerCells int) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(trimmed, "-") {
		return false
	}
	if !strings.Contains(trimmed, "|") && headerCells != 1 {
		return false
	}
	for _, cell := range splitRow(trimmed) {
		if !isDelimiterCell(cell) {
			return false
		}
	}
	return true
}

func isDelimiterCell(cell string) bool {
	cell = strings.TrimPrefix(cell, ":")
	cell = strings.TrimSuffix(cell, ":")
	if cell == "" {
		return false
	}
	for _, r := range cell {
		if r != '-' {
			return false
		}
	}
	return true
}

func parseSeparator(line string) []core.Alignment {
	cells := splitRow(line)
	out := make([]core.Alignment, len(cells))
	for i, cell := range cells {
		left := strings.HasPrefix(cell, ":")
		right := strings.HasSuffix(cell, ":")
		switch {
		case left && right:
			out[i] = core.AlignCenter
		case left:
			out[i] = core.AlignLeft
		case right:
			out[i] = core.AlignRight
		default:
			out[i] = core.AlignDefault
		}
	}
	return out
}

// splitRow splits a pipe row into trimmed cells. Outer pipes are optional
// and escaped pipes (\|) stay inside their cell.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	if strings.HasSuffix(s, "|") && !strings.HasSuffix(s, `\|`) {
		s = s[:len(s)-1]
	}

	var cells []string
	for {
		i := unescapedPipe(s)
		if i < 0 {
			cells = append(cells, unescapeCell(s))
			return cells
		}
		cells = append(cells, unescapeCell(s[:i]))
		s = s[i+1:]
	}
}

// unescapedPipe returns the index of the first pipe not preceded by a backslash.
func unescapedPipe(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

func unescapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `\|`, "|")
}
