package table

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// FindOptions controls FindAndReplace.
type FindOptions struct {
	UseRegex        bool
	CaseInsensitive bool
}

// Statistics summarizes the contents of a table.
type Statistics struct {
	TotalCells       int     `json:"totalCells"`
	EmptyCells       int     `json:"emptyCells"`
	FilledCells      int     `json:"filledCells"`
	FillRate         float64 `json:"fillRate"`
	ColumnWidths     []int   `json:"columnWidths"`
	AverageRowLength float64 `json:"averageRowLength"`
}

// ClearAllCells empties every data cell. Headers and rows are kept.
func (m *Model) ClearAllCells() {
	for _, row := range m.rows {
		clear(row)
	}
	m.changed()
}

// FindAndReplace replaces pattern in every data cell and returns the number
// of replacements made. With UseRegex, replacement may reference groups
// ($1). Listeners are only notified when something changed.
func (m *Model) FindAndReplace(pattern, replacement string, opts FindOptions) (int, error) {
	if pattern == "" {
		return 0, core.NewValidationError("search pattern is empty")
	}

	expr := pattern
	if !opts.UseRegex {
		expr = regexp.QuoteMeta(pattern)
	}
	if opts.CaseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, &core.ValidationError{Issues: []string{fmt.Sprintf("invalid pattern %q", pattern)}, Err: err}
	}

	count := 0
	for _, row := range m.rows {
		for c, cell := range row {
			matches := len(re.FindAllStringIndex(cell, -1))
			if matches == 0 {
				continue
			}
			count += matches
			if opts.UseRegex {
				row[c] = cellValue(re.ReplaceAllString(cell, replacement))
			} else {
				row[c] = cellValue(re.ReplaceAllLiteralString(cell, replacement))
			}
		}
	}
	if count > 0 {
		m.changed()
	}
	return count, nil
}

// Statistics computes cell counts, fill rate, display width per column and
// the average total text length per row.
func (m *Model) Statistics() Statistics {
	stats := Statistics{
		TotalCells:   len(m.rows) * len(m.headers),
		ColumnWidths: make([]int, len(m.headers)),
	}
	for c, h := range m.headers {
		stats.ColumnWidths[c] = runewidth.StringWidth(h)
	}

	totalLength := 0
	for _, row := range m.rows {
		for c, cell := range row {
			if strings.TrimSpace(cell) == "" {
				stats.EmptyCells++
			}
			if w := runewidth.StringWidth(cell); w > stats.ColumnWidths[c] {
				stats.ColumnWidths[c] = w
			}
			totalLength += len([]rune(cell))
		}
	}

	stats.FilledCells = stats.TotalCells - stats.EmptyCells
	if stats.TotalCells > 0 {
		stats.FillRate = float64(stats.FilledCells) / float64(stats.TotalCells)
	}
	if len(m.rows) > 0 {
		stats.AverageRowLength = float64(totalLength) / float64(len(m.rows))
	}
	return stats
}

// IsEmpty reports whether the table has no data rows or only empty cells.
func (m *Model) IsEmpty() bool {
	for _, row := range m.rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

// HasEmptyCells reports whether any data cell is empty.
func (m *Model) HasEmptyCells() bool {
	for _, row := range m.rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				return true
			}
		}
	}
	return false
}

// EmptyCells lists the positions of all empty data cells in row order.
func (m *Model) EmptyCells() []CellPosition {
	var out []CellPosition
	for r, row := range m.rows {
		for c, cell := range row {
			if strings.TrimSpace(cell) == "" {
				out = append(out, CellPosition{Row: r, Col: c})
			}
		}
	}
	return out
}
