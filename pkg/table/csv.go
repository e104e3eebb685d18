package table

import (
	"encoding/csv"
	"io"
	"slices"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// CSVRecords returns the header row followed by the data rows, with
// line-break markers decoded to real newlines.
func (m *Model) CSVRecords() [][]string {
	records := make([][]string, 0, len(m.rows)+1)
	records = append(records, decodeRecord(m.headers))
	for _, row := range m.rows {
		records = append(records, decodeRecord(row))
	}
	return records
}

// WriteCSV writes the table as CSV.
func (m *Model) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(m.CSVRecords()); err != nil {
		return err
	}
	return cw.Error()
}

// ReplaceFromRecords replaces the whole table with CSV records. The first
// record becomes the header row; short records are padded. Newlines are
// stored as line-break markers and all alignments are reset.
func (m *Model) ReplaceFromRecords(records [][]string) error {
	if len(records) == 0 {
		return core.NewValidationError("CSV contains no records")
	}
	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}
	if width == 0 {
		return core.NewValidationError("CSV contains no columns")
	}

	headers := make([]string, width)
	copy(headers, encodeRecord(records[0]))
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, width)
		copy(row, encodeRecord(rec))
		rows = append(rows, row)
	}

	m.headers = headers
	m.rows = rows
	m.alignment = make([]core.Alignment, width)
	m.ClearSortState()
	m.changed()
	return nil
}

func decodeRecord(cells []string) []string {
	out := slices.Clone(cells)
	for i, c := range out {
		out[i] = markdown.DecodeLineBreaks(c)
	}
	return out
}

func encodeRecord(cells []string) []string {
	return cellValues(cells)
}
