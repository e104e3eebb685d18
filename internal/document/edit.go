package document

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// ErrOverlappingEdits is returned when two edits of one batch touch the same
// line.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces the inclusive line range [StartLine, EndLine] with Text.
// Text may span several lines; it is written with the line ending of the
// lines it replaces.
type Edit struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Text      string `json:"text"`
}

// SortEdits returns a copy of edits in descending start-line order and
// rejects malformed or overlapping ranges.
func SortEdits(edits []Edit) ([]Edit, error) {
	sorted := slices.Clone(edits)
	for _, e := range sorted {
		if e.StartLine < 0 || e.EndLine < e.StartLine {
			return nil, fmt.Errorf("invalid line range [%d, %d]", e.StartLine, e.EndLine)
		}
	}
	slices.SortFunc(sorted, func(a, b Edit) int { return b.StartLine - a.StartLine })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].EndLine >= sorted[i-1].StartLine {
			return nil, fmt.Errorf("%w: [%d, %d] and [%d, %d]", ErrOverlappingEdits,
				sorted[i].StartLine, sorted[i].EndLine, sorted[i-1].StartLine, sorted[i-1].EndLine)
		}
	}
	return sorted, nil
}

// ApplyEdits applies a batch of edits to content and returns the result.
// All edits refer to the original line numbers. Text outside the edited
// ranges is preserved byte for byte, including the line ending style and
// the presence of a trailing newline.
func ApplyEdits(content string, edits []Edit) (string, error) {
	sorted, err := SortEdits(edits)
	if err != nil {
		return "", err
	}

	doc := splitDocument(content)
	for _, e := range sorted {
		if e.EndLine >= len(doc.lines) {
			return "", &core.PositionError{Kind: "line", Index: e.EndLine, Limit: len(doc.lines)}
		}
	}
	for _, e := range sorted {
		doc.lines = slices.Replace(doc.lines, e.StartLine, e.EndLine+1, doc.replacement(e)...)
	}
	return doc.String(), nil
}

// document holds content split on "\n". Each line keeps its own "\r", so
// documents with mixed line endings round-trip and line numbers match
// markdown.SplitLines.
type document struct {
	lines    []string
	trailing bool
}

func splitDocument(content string) document {
	trailing := strings.HasSuffix(content, "\n")
	body := strings.TrimSuffix(content, "\n")
	return document{lines: strings.Split(body, "\n"), trailing: trailing}
}

func (d document) String() string {
	s := strings.Join(d.lines, "\n")
	if d.trailing {
		s += "\n"
	}
	return s
}

// replacement returns the lines of e.Text ending the way the replaced range
// does. The last new line takes the ending of the last replaced line, which
// matters when that line is the unterminated end of the document.
func (d document) replacement(e Edit) []string {
	crlf := false
	for _, line := range d.lines[e.StartLine : e.EndLine+1] {
		if strings.HasSuffix(line, "\r") {
			crlf = true
			break
		}
	}
	last := e.EndLine == len(d.lines)-1 && !d.trailing
	if !crlf && last && e.StartLine > 0 {
		crlf = strings.HasSuffix(d.lines[e.StartLine-1], "\r")
	}

	text := strings.ReplaceAll(e.Text, "\r\n", "\n")
	out := strings.Split(text, "\n")
	for i := range out {
		if i == len(out)-1 && last {
			if strings.HasSuffix(d.lines[e.EndLine], "\r") {
				out[i] += "\r"
			}
			continue
		}
		if crlf {
			out[i] += "\r"
		}
	}
	return out
}

// LineCount returns the number of lines in content as seen by ApplyEdits.
func LineCount(content string) int {
	return len(splitDocument(content).lines)
}
