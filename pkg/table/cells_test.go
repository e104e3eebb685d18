package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

func TestModel_UpdateCellAndHeader(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.UpdateCell(1, 2, "Los Angeles"))
	require.NoError(t, m.UpdateHeader(0, "Full Name"))

	v, err := m.Cell(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Los Angeles", v)
	assert.Equal(t, "Full Name", m.Headers()[0])
}

func TestModel_BatchUpdateCellsIsAtomic(t *testing.T) {
	m := sampleModel(t)
	before := m.Rows()

	err := m.BatchUpdateCells([]CellUpdate{
		{Row: 0, Col: 0, Value: "A"},
		{Row: 1, Col: 1, Value: "B"},
		{Row: 9, Col: 0, Value: "C"},
	})
	require.Error(t, err)
	assert.True(t, core.IsPositionError(err))
	assert.Equal(t, before, m.Rows())

	require.NoError(t, m.BatchUpdateCells([]CellUpdate{
		{Row: 0, Col: 0, Value: "A"},
		{Row: 1, Col: 1, Value: "B"},
	}))
	assert.Equal(t, "A", m.Rows()[0][0])
	assert.Equal(t, "B", m.Rows()[1][1])

	assert.True(t, core.IsValidationError(m.BatchUpdateCells(nil)))
}

func TestModel_SetAlignment(t *testing.T) {
	m := sampleModel(t)

	require.NoError(t, m.SetAlignment(2, core.AlignCenter))
	assert.Equal(t, core.AlignCenter, m.Alignment()[2])
	assert.Contains(t, m.SerializeToMarkdown(), "| :--- | ---: | :---: |")

	err := m.SetAlignment(0, core.Alignment("justify"))
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, core.AlignLeft, m.Alignment()[0])
}

func TestModel_InboundValuesMatchSerializedForm(t *testing.T) {
	m := sampleModel(t)
	require.NoError(t, m.UpdateCell(0, 0, "two\nlines"))
	require.NoError(t, m.UpdateCell(0, 2, "  padded  "))
	require.NoError(t, m.UpdateHeader(1, " Years\r\nold "))
	require.NoError(t, m.BatchUpdateCells([]CellUpdate{{Row: 1, Col: 0, Value: "\tJane "}}))
	require.NoError(t, m.UpdateRow(2, []string{" Bob", "35 ", "a\nb\nc"}))
	require.NoError(t, m.UpdateColumn(1, []string{" 1", "2 ", "\n3"}))
	require.NoError(t, m.AddColumn(Append, "  Note\n"))
	_, err := m.FindAndReplace("LA", " L\nA ", FindOptions{})
	require.NoError(t, err)

	assert.Equal(t, "two<br>lines", m.Rows()[0][0])
	assert.Equal(t, "padded", m.Rows()[0][2])
	assert.Equal(t, "Years<br>old", m.Headers()[1])
	assert.Equal(t, "Note<br>", m.Headers()[3])
	assert.Equal(t, "L<br>A", m.Rows()[1][2])

	tables, err := markdown.ParseTables(m.SerializeToMarkdown())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, m.Headers(), tables[0].Headers)
	assert.Equal(t, m.Rows(), tables[0].Rows)
}
