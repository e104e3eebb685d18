package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

func names(m *Model) []string {
	out := make([]string, 0, m.RowCount())
	for _, row := range m.Rows() {
		out = append(out, row[0])
	}
	return out
}

func TestModel_AddRow(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.AddRow(Append))
	require.NoError(t, m.AddRow(0))
	assert.Equal(t, []string{"", "John", "Jane", "Bob", ""}, names(m))
	assertRectangular(t, m)

	err := m.AddRow(7)
	assert.True(t, core.IsPositionError(err))
	assert.Equal(t, 5, m.RowCount())
}

func TestModel_InsertRows(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.InsertRows(1, 2))
	assert.Equal(t, []string{"John", "", "", "Jane", "Bob"}, names(m))
	assert.True(t, core.IsValidationError(m.InsertRows(0, 0)))
}

func TestModel_DeleteRows(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.DeleteRows([]int{2, 0, 2}))
	assert.Equal(t, []string{"Jane"}, names(m))

	assert.True(t, core.IsPositionError(m.DeleteRows([]int{0, 1})))
	assert.Equal(t, 1, m.RowCount())

	require.NoError(t, m.DeleteRow(0))
	assert.Equal(t, 0, m.RowCount())
	assert.Equal(t, "| Name | Age | City |\n| :--- | ---: | --- |", m.SerializeToMarkdown())
}

func TestModel_UpdateClearDuplicateRow(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.UpdateRow(0, []string{"Ann", "40", "Rome"}))
	assert.True(t, core.IsValidationError(m.UpdateRow(0, []string{"short"})))
	require.NoError(t, m.DuplicateRow(0))
	require.NoError(t, m.ClearRow(2))

	assert.Equal(t, [][]string{
		{"Ann", "40", "Rome"},
		{"Ann", "40", "Rome"},
		{"", "", ""},
		{"Bob", "35", "Chicago"},
	}, m.Rows())
}

func TestModel_MoveRow(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.MoveRow(0, 2))
	assert.Equal(t, []string{"Jane", "Bob", "John"}, names(m))

	require.NoError(t, m.MoveRow(2, 0))
	assert.Equal(t, []string{"John", "Jane", "Bob"}, names(m))

	assert.True(t, core.IsPositionError(m.MoveRow(0, 3)))
}

func TestModel_MoveRowOntoItselfIsNoop(t *testing.T) {
	m := sampleModel(t)
	calls := 0
	m.AddChangeListener(func(core.TableData) { calls++ })

	require.NoError(t, m.MoveRow(1, 1))
	assert.Equal(t, []string{"John", "Jane", "Bob"}, names(m))
	assert.Equal(t, 0, calls)
}
