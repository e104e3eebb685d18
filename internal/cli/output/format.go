package output

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// FormatHeader returns a markdown heading.
func FormatHeader(level int, title string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + title
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key string, value any) string {
	return fmt.Sprintf("- **%s:** %v", key, value)
}

// FormatTable returns a markdown pipe table.
func FormatTable(headers []string, rows [][]string, alignment []core.Alignment) string {
	return markdown.Serialize(headers, rows, alignment)
}
