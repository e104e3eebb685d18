package markdown

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

const twoTables = `# Report

| Name | Age | City |
| --- | :---: | ---: |
| John | 25 | NYC |
| Jane | 30 | LA |

Some prose between tables.

| Key | Value |
|:----|-------|
| a | 1 |
Footer text
`

func TestParseTables(t *testing.T) {
	tables, err := ParseTables(twoTables)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	first := tables[0]
	assert.Equal(t, 2, first.StartLine)
	assert.Equal(t, 5, first.EndLine)
	assert.Equal(t, []string{"Name", "Age", "City"}, first.Headers)
	assert.Equal(t, [][]string{{"John", "25", "NYC"}, {"Jane", "30", "LA"}}, first.Rows)
	assert.Equal(t, []core.Alignment{core.AlignDefault, core.AlignCenter, core.AlignRight}, first.Alignment)

	second := tables[1]
	assert.Equal(t, 9, second.StartLine)
	assert.Equal(t, 11, second.EndLine)
	assert.Equal(t, []string{"Key", "Value"}, second.Headers)
	assert.Equal(t, []core.Alignment{core.AlignLeft, core.AlignDefault}, second.Alignment)
}

func TestParseTables_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCount int
		check     func(t *testing.T, tables []*TableDescriptor)
	}{
		{
			name:      "empty document",
			content:   "",
			wantCount: 0,
		},
		{
			name:      "header without separator is omitted",
			content:   "| a | b |\n| 1 | 2 |\n",
			wantCount: 0,
		},
		{
			name:      "setext heading is not a table",
			content:   "Title\n---\n\ntext\n",
			wantCount: 0,
		},
		{
			name:      "table without data rows",
			content:   "| a | b |\n|---|---|\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Empty(t, tables[0].Rows)
				assert.Equal(t, 1, tables[0].EndLine)
			},
		},
		{
			name:      "no outer pipes",
			content:   "a | b\n--- | ---\n1 | 2\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Equal(t, []string{"a", "b"}, tables[0].Headers)
				assert.Equal(t, [][]string{{"1", "2"}}, tables[0].Rows)
			},
		},
		{
			name:      "escaped pipe stays in cell",
			content:   "| expr | note |\n|---|---|\n| a \\| b | x |\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Equal(t, [][]string{{"a | b", "x"}}, tables[0].Rows)
			},
		},
		{
			name:      "ragged rows are kept best effort",
			content:   "| a | b | c |\n|---|---|---|\n| 1 | 2 |\n| 1 | 2 | 3 | 4 |\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				res := ValidateDescriptor(tables[0])
				assert.False(t, res.IsValid)
				assert.Contains(t, res.Issues, "Row 1 has 2 columns, expected 3")
				assert.Contains(t, res.Issues, "Row 2 has 4 columns, expected 3")
			},
		},
		{
			name:      "table inside fenced code is ignored",
			content:   "```\n| a | b |\n|---|---|\n| 1 | 2 |\n```\n\n| x |\n|---|\n| y |\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Equal(t, 6, tables[0].StartLine)
				assert.Equal(t, []string{"x"}, tables[0].Headers)
			},
		},
		{
			name:      "crlf line endings",
			content:   "| a | b |\r\n|---|---|\r\n| 1 | 2 |\r\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Equal(t, [][]string{{"1", "2"}}, tables[0].Rows)
			},
		},
		{
			name:      "blank line ends table",
			content:   "| a |\n|---|\n| 1 |\n\n| 2 |\n",
			wantCount: 1,
			check: func(t *testing.T, tables []*TableDescriptor) {
				assert.Equal(t, 2, tables[0].EndLine)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := ParseTables(tt.content)
			require.NoError(t, err)
			require.Len(t, tables, tt.wantCount)
			if tt.check != nil {
				tt.check(t, tables)
			}
		})
	}
}

func TestParseTables_InvalidInput(t *testing.T) {
	_, err := ParseTables("| a |\n|---|\n| \x00 |\n")
	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)

	_, err = ParseTables(string([]byte{0xff, 0xfe, '|'}))
	require.ErrorAs(t, err, &pe)
	assert.True(t, core.IsParseError(fmt.Errorf("load: %w", err)))
	assert.False(t, core.IsPositionError(err))
}

func TestFindTableAtLine(t *testing.T) {
	tables, err := ParseTables(twoTables)
	require.NoError(t, err)

	got, ok := FindTableAtLine(tables, 4)
	require.True(t, ok)
	assert.Equal(t, 2, got.StartLine)

	got, ok = FindTableAtLine(tables, 11)
	require.True(t, ok)
	assert.Equal(t, 9, got.StartLine)

	_, ok = FindTableAtLine(tables, 7)
	assert.False(t, ok)
}

func TestTableBoundary(t *testing.T) {
	b, err := TableBoundary(twoTables, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, b.StartLine)
	assert.Equal(t, 11, b.EndLine)
	assert.Equal(t, "| Key | Value |\n|:----|-------|\n| a | 1 |", b.Text)
	assert.Equal(t, 3, b.LineCount())

	_, err = TableBoundary(twoTables, 2)
	assert.True(t, core.IsPositionError(err))
}

func TestValidateShape(t *testing.T) {
	res := ValidateShape(nil, nil, nil)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Table has no headers"}, res.Issues)

	res = ValidateShape([]string{"a", "b"}, [][]string{{"1", "2"}}, []core.Alignment{core.AlignLeft})
	assert.Equal(t, []string{"Alignment array length mismatch"}, res.Issues)

	res = ValidateShape([]string{"a"}, [][]string{{"1"}}, []core.Alignment{core.AlignDefault})
	assert.True(t, res.IsValid)
}

func TestParseTables_LargeTable(t *testing.T) {
	const cols, rows = 200, 2000

	var b strings.Builder
	header := make([]string, cols)
	sep := make([]string, cols)
	for c := range header {
		header[c] = fmt.Sprintf("H%d", c)
		sep[c] = "---"
	}
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	row := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := range row {
			row[c] = fmt.Sprintf("%d-%d", r, c)
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	start := time.Now()
	tables, err := ParseTables(b.String())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Len(t, tables[0].Headers, cols)
	assert.Len(t, tables[0].Rows, rows)
	assert.Less(t, elapsed, time.Second)
}
