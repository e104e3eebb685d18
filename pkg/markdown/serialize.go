package markdown

import (
	"strings"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// Serialize renders a table as pipe-table markdown without a trailing
// newline: header row, separator row and one line per data row.
// Pipes are escaped and real newlines are stored as line-break markers.
func Serialize(headers []string, rows [][]string, alignment []core.Alignment) string {
	if len(headers) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, headers)

	markers := make([]string, len(headers))
	for i := range headers {
		a := core.AlignDefault
		if i < len(alignment) {
			a = alignment[i]
		}
		markers[i] = a.Marker()
	}
	b.WriteByte('\n')
	b.WriteString("| ")
	b.WriteString(strings.Join(markers, " | "))
	b.WriteString(" |")

	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

// SerializeData renders a snapshot.
func SerializeData(data core.TableData) string {
	return Serialize(data.Headers, data.Rows, data.Alignment)
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteByte(' ')
		b.WriteString(escapeCell(cell))
		b.WriteString(" |")
	}
}

func escapeCell(s string) string {
	s = EncodeLineBreaks(s)
	return strings.ReplaceAll(s, "|", `\|`)
}
