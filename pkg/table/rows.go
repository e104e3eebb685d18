package table

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// AddRow inserts an empty row at index, or appends it when index is Append.
func (m *Model) AddRow(index int) error {
	return m.InsertRows(index, 1)
}

// InsertRows inserts count empty rows at index (or at the end for Append).
func (m *Model) InsertRows(index, count int) error {
	if count < 1 {
		return core.NewValidationError(fmt.Sprintf("row count must be positive, got %d", count))
	}
	at, err := m.checkInsertRow(index)
	if err != nil {
		return err
	}
	fresh := make([][]string, count)
	for i := range fresh {
		fresh[i] = make([]string, len(m.headers))
	}
	m.rows = slices.Insert(m.rows, at, fresh...)
	m.changed()
	return nil
}

// DeleteRow removes the row at index.
func (m *Model) DeleteRow(index int) error {
	if err := m.checkRow(index); err != nil {
		return err
	}
	m.rows = slices.Delete(m.rows, index, index+1)
	m.changed()
	return nil
}

// DeleteRows removes several rows at once. Duplicate indices are ignored.
// Unlike columns, all rows may be removed.
func (m *Model) DeleteRows(indices []int) error {
	if len(indices) == 0 {
		return core.NewValidationError("no row indices given")
	}
	unique := uniqueSorted(indices)
	for _, i := range unique {
		if err := m.checkRow(i); err != nil {
			return err
		}
	}
	for j := len(unique) - 1; j >= 0; j-- {
		i := unique[j]
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	m.changed()
	return nil
}

// UpdateRow replaces every cell of a row.
func (m *Model) UpdateRow(index int, values []string) error {
	if err := m.checkRow(index); err != nil {
		return err
	}
	if len(values) != len(m.headers) {
		return core.NewValidationError(fmt.Sprintf("row has %d values, expected %d", len(values), len(m.headers)))
	}
	m.rows[index] = cellValues(values)
	m.changed()
	return nil
}

// ClearRow empties every cell of a row.
func (m *Model) ClearRow(index int) error {
	if err := m.checkRow(index); err != nil {
		return err
	}
	clear(m.rows[index])
	m.changed()
	return nil
}

// DuplicateRow inserts a copy of the row directly below it.
func (m *Model) DuplicateRow(index int) error {
	if err := m.checkRow(index); err != nil {
		return err
	}
	m.rows = slices.Insert(m.rows, index+1, slices.Clone(m.rows[index]))
	m.changed()
	return nil
}

// MoveRow moves a row so that it ends up at index to.
// Moving a row onto itself changes nothing.
func (m *Model) MoveRow(from, to int) error {
	if err := m.checkRow(from); err != nil {
		return err
	}
	if err := m.checkRow(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	m.rows = moveElement(m.rows, from, to)
	m.changed()
	return nil
}

// moveElement removes the element at from and reinserts it so that it ends
// up at index to.
func moveElement[T any](s []T, from, to int) []T {
	item := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, item)
}

func uniqueSorted(indices []int) []int {
	out := slices.Clone(indices)
	slices.Sort(out)
	return slices.Compact(out)
}
