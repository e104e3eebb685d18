package table

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// AddColumn inserts a column at index (or at the end for Append). An empty
// header becomes "Column N".
func (m *Model) AddColumn(index int, header string) error {
	at, err := m.checkInsertColumn(index)
	if err != nil {
		return err
	}
	header = cellValue(header)
	if header == "" {
		header = fmt.Sprintf("Column %d", len(m.headers)+1)
	}
	m.headers = slices.Insert(m.headers, at, header)
	m.alignment = slices.Insert(m.alignment, at, core.AlignDefault)
	for i, row := range m.rows {
		m.rows[i] = slices.Insert(row, at, "")
	}
	m.shiftSortColumns(at, 1)
	m.changed()
	return nil
}

// DeleteColumn removes a column. The last remaining column cannot be deleted.
func (m *Model) DeleteColumn(index int) error {
	if err := m.checkColumn(index); err != nil {
		return err
	}
	if len(m.headers) == 1 {
		return &core.ValidationError{Err: core.ErrLastColumn}
	}
	m.removeColumns([]int{index})
	m.changed()
	return nil
}

// DeleteColumns removes several columns at once. The set may not cover
// every column.
func (m *Model) DeleteColumns(indices []int) error {
	if len(indices) == 0 {
		return core.NewValidationError("no column indices given")
	}
	unique := uniqueSorted(indices)
	for _, i := range unique {
		if err := m.checkColumn(i); err != nil {
			return err
		}
	}
	if len(unique) >= len(m.headers) {
		return &core.ValidationError{Err: core.ErrLastColumn}
	}
	m.removeColumns(unique)
	m.changed()
	return nil
}

// removeColumns deletes ascending, unique, in-range column indices.
func (m *Model) removeColumns(sorted []int) {
	for j := len(sorted) - 1; j >= 0; j-- {
		c := sorted[j]
		m.headers = slices.Delete(m.headers, c, c+1)
		m.alignment = slices.Delete(m.alignment, c, c+1)
		for i, row := range m.rows {
			m.rows[i] = slices.Delete(row, c, c+1)
		}
		m.dropSortColumn(c)
	}
}

// UpdateColumn replaces every data cell of a column.
func (m *Model) UpdateColumn(index int, values []string) error {
	if err := m.checkColumn(index); err != nil {
		return err
	}
	if len(values) != len(m.rows) {
		return core.NewValidationError(fmt.Sprintf("column has %d values, expected %d", len(values), len(m.rows)))
	}
	for i, row := range m.rows {
		row[index] = cellValue(values[i])
	}
	m.changed()
	return nil
}

// ClearColumn empties every data cell of a column. The header is kept.
func (m *Model) ClearColumn(index int) error {
	if err := m.checkColumn(index); err != nil {
		return err
	}
	for _, row := range m.rows {
		row[index] = ""
	}
	m.changed()
	return nil
}

// DuplicateColumn inserts a copy of a column directly to its right. The
// copy's header gets a " Copy" suffix.
func (m *Model) DuplicateColumn(index int) error {
	if err := m.checkColumn(index); err != nil {
		return err
	}
	at := index + 1
	m.headers = slices.Insert(m.headers, at, m.headers[index]+" Copy")
	m.alignment = slices.Insert(m.alignment, at, m.alignment[index])
	for i, row := range m.rows {
		m.rows[i] = slices.Insert(row, at, row[index])
	}
	m.shiftSortColumns(at, 1)
	m.changed()
	return nil
}

// MoveColumn moves a column so that it ends up at index to.
// Moving a column onto itself changes nothing.
func (m *Model) MoveColumn(from, to int) error {
	if err := m.checkColumn(from); err != nil {
		return err
	}
	if err := m.checkColumn(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	m.headers = moveElement(m.headers, from, to)
	m.alignment = moveElement(m.alignment, from, to)
	for i, row := range m.rows {
		m.rows[i] = moveElement(row, from, to)
	}
	m.ClearSortState()
	m.changed()
	return nil
}
