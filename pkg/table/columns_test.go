package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

func TestModel_AddColumn(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.AddColumn(1, "Email"))
	require.NoError(t, m.AddColumn(Append, ""))

	assert.Equal(t, []string{"Name", "Email", "Age", "City", "Column 5"}, m.Headers())
	assert.Equal(t, []string{"John", "", "25", "NYC", ""}, m.Rows()[0])
	assert.Equal(t, core.AlignDefault, m.Alignment()[1])
	assertRectangular(t, m)

	assert.True(t, core.IsPositionError(m.AddColumn(9, "x")))
}

func TestModel_MoveColumn(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.MoveColumn(0, 2))

	assert.Equal(t, []string{"Age", "City", "Name"}, m.Headers())
	assert.Equal(t, []string{"25", "NYC", "John"}, m.Rows()[0])
	assert.Equal(t, []core.Alignment{core.AlignRight, core.AlignDefault, core.AlignLeft}, m.Alignment())
	assertRectangular(t, m)
}

func TestModel_DeleteLastColumnFails(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.DeleteColumn(0))
	require.NoError(t, m.DeleteColumn(0))
	before := m.Data()

	err := m.DeleteColumn(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLastColumn))
	assert.Contains(t, err.Error(), "cannot delete last column")

	assert.Equal(t, before.Headers, m.Headers())
	assert.Equal(t, before.Rows, m.Rows())
	assert.Equal(t, []string{"City"}, m.Headers())
}

func TestModel_DeleteColumns(t *testing.T) {
	m := sampleModel(t)

	err := m.DeleteColumns([]int{0, 1, 2})
	assert.ErrorIs(t, err, core.ErrLastColumn)
	assert.Equal(t, 3, m.ColumnCount())

	assert.True(t, core.IsPositionError(m.DeleteColumns([]int{0, 5})))
	assert.Equal(t, 3, m.ColumnCount())

	require.NoError(t, m.DeleteColumns([]int{2, 0}))
	assert.Equal(t, []string{"Age"}, m.Headers())
	assert.Equal(t, [][]string{{"25"}, {"30"}, {"35"}}, m.Rows())
	assertRectangular(t, m)
}

func TestModel_ColumnHelpers(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.DuplicateColumn(0))
	assert.Equal(t, []string{"Name", "Name Copy", "Age", "City"}, m.Headers())
	assert.Equal(t, []string{"John", "John", "25", "NYC"}, m.Rows()[0])

	require.NoError(t, m.UpdateColumn(1, []string{"j", "ja", "b"}))
	assert.Equal(t, "ja", m.Rows()[1][1])
	assert.True(t, core.IsValidationError(m.UpdateColumn(1, []string{"x"})))

	require.NoError(t, m.ClearColumn(1))
	for _, row := range m.Rows() {
		assert.Empty(t, row[1])
	}
	assert.Equal(t, "Name Copy", m.Headers()[1])
}

func TestModel_ColumnEditsTrackSortState(t *testing.T) {
	m := sampleModel(t)
	require.NoError(t, m.SortByColumn(1, Asc))

	require.NoError(t, m.AddColumn(0, "Id"))
	assert.Equal(t, 2, m.SortState().ColumnIndex)

	require.NoError(t, m.DeleteColumn(0))
	assert.Equal(t, 1, m.SortState().ColumnIndex)

	require.NoError(t, m.DeleteColumn(1))
	assert.Equal(t, -1, m.SortState().ColumnIndex)
	assert.Equal(t, None, m.SortState().Direction)
}
