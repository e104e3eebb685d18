package table

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// CellUpdate is one entry of a batch cell update.
type CellUpdate struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// CellPosition addresses a data cell.
type CellPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// cellValue converts an inbound value to the form the parser reads back from
// the serialized table: real newlines become line-break markup and
// surrounding whitespace is dropped.
func cellValue(v string) string {
	return strings.TrimSpace(markdown.EncodeLineBreaks(v))
}

func cellValues(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = cellValue(v)
	}
	return out
}

// Cell returns the value of a data cell.
func (m *Model) Cell(row, col int) (string, error) {
	if err := m.checkRow(row); err != nil {
		return "", err
	}
	if err := m.checkColumn(col); err != nil {
		return "", err
	}
	return m.rows[row][col], nil
}

// UpdateCell sets the value of a data cell.
func (m *Model) UpdateCell(row, col int, value string) error {
	if err := m.checkRow(row); err != nil {
		return err
	}
	if err := m.checkColumn(col); err != nil {
		return err
	}
	m.rows[row][col] = cellValue(value)
	m.changed()
	return nil
}

// BatchUpdateCells applies all updates or none: every entry is checked
// before the first one is written.
func (m *Model) BatchUpdateCells(updates []CellUpdate) error {
	if len(updates) == 0 {
		return core.NewValidationError("batch update has no cells")
	}
	for _, u := range updates {
		if err := m.checkRow(u.Row); err != nil {
			return err
		}
		if err := m.checkColumn(u.Col); err != nil {
			return err
		}
	}
	for _, u := range updates {
		m.rows[u.Row][u.Col] = cellValue(u.Value)
	}
	m.changed()
	return nil
}

// UpdateHeader sets the text of a header cell.
func (m *Model) UpdateHeader(col int, value string) error {
	if err := m.checkColumn(col); err != nil {
		return err
	}
	m.headers[col] = cellValue(value)
	m.changed()
	return nil
}

// SetAlignment sets the alignment of a column.
func (m *Model) SetAlignment(col int, a core.Alignment) error {
	if err := m.checkColumn(col); err != nil {
		return err
	}
	switch a {
	case core.AlignDefault, core.AlignLeft, core.AlignCenter, core.AlignRight:
	default:
		return core.NewValidationError(fmt.Sprintf("unknown alignment %q", a))
	}
	m.alignment[col] = a
	m.changed()
	return nil
}
