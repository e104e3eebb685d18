package table

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/leapstack-labs/mdtables/pkg/markdown"
)

// Direction is a sort direction.
type Direction string

// Sort directions. None means the column is not sorted.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
	None Direction = "none"
)

// ParseDirection converts a wire value into a column sort direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), nil
	}
	return None, fmt.Errorf("invalid sort direction %q", s)
}

// DataType selects how cell values are compared.
type DataType string

// Data types. TypeAuto infers number, date or string from the column.
const (
	TypeAuto    DataType = ""
	TypeNumber  DataType = "number"
	TypeDate    DataType = "date"
	TypeString  DataType = "string"
	TypeNatural DataType = "natural"
)

// inferSampleSize bounds how many non-empty values type inference inspects.
const inferSampleSize = 20

// SortOptions refines a column sort.
type SortOptions struct {
	DataType        DataType `json:"dataType,omitempty"`
	CaseInsensitive bool     `json:"caseInsensitive,omitempty"`
}

// SortKey is one key of a multi-column sort.
type SortKey struct {
	Column    int         `json:"column"`
	Direction Direction   `json:"direction"`
	Options   SortOptions `json:"options"`
}

// SortState tracks the column sort currently applied to the rows.
// ColumnIndex is -1 when the rows are not in a tracked sort order.
type SortState struct {
	ColumnIndex int       `json:"columnIndex"`
	Direction   Direction `json:"direction"`
	Keys        []SortKey `json:"keys,omitempty"`
	// ViewOnly marks a sort that has not been written to the source yet.
	ViewOnly bool `json:"viewOnly"`
}

func (s SortState) clone() SortState {
	s.Keys = slices.Clone(s.Keys)
	return s
}

// SortIndicator describes how one column takes part in the current sort.
type SortIndicator struct {
	Column    int       `json:"column"`
	Direction Direction `json:"direction"`
	IsPrimary bool      `json:"isPrimary"`
	Priority  int       `json:"priority"`
}

// SortState returns the tracked sort state.
func (m *Model) SortState() SortState {
	return m.sortState.clone()
}

// SortIndicators returns one indicator per sorted column, primary first.
func (m *Model) SortIndicators() []SortIndicator {
	out := make([]SortIndicator, 0, len(m.sortState.Keys))
	for i, k := range m.sortState.Keys {
		out = append(out, SortIndicator{
			Column:    k.Column,
			Direction: k.Direction,
			IsPrimary: i == 0,
			Priority:  i + 1,
		})
	}
	return out
}

// ClearSortState forgets the tracked sort. Row order is not restored.
func (m *Model) ClearSortState() {
	viewOnly := m.sortState.ViewOnly
	m.sortState = SortState{ColumnIndex: -1, Direction: None, ViewOnly: viewOnly}
}

// SetViewOnly flags whether the current sort is only applied to the view.
func (m *Model) SetViewOnly(viewOnly bool) {
	m.sortState.ViewOnly = viewOnly
}

// SortByColumn sorts rows by one column, inferring its data type.
func (m *Model) SortByColumn(col int, dir Direction) error {
	return m.SortByColumnAdvanced(col, dir, SortOptions{})
}

// SortByColumnAdvanced sorts rows by one column with explicit options.
func (m *Model) SortByColumnAdvanced(col int, dir Direction, opts SortOptions) error {
	return m.SortByMultipleColumns([]SortKey{{Column: col, Direction: dir, Options: opts}})
}

// SortNatural sorts a column comparing digit runs numerically, so that
// "Item2" sorts before "Item10".
func (m *Model) SortNatural(col int, dir Direction) error {
	return m.SortByColumnAdvanced(col, dir, SortOptions{DataType: TypeNatural})
}

// SortByMultipleColumns performs a stable sort on several keys. The first
// key is primary; ties are broken by the following keys in order.
func (m *Model) SortByMultipleColumns(keys []SortKey) error {
	if len(keys) == 0 {
		return core.NewValidationError("no sort keys given")
	}
	comparers := make([]*columnComparer, len(keys))
	for i, k := range keys {
		if err := m.checkColumn(k.Column); err != nil {
			return err
		}
		if k.Direction != Asc && k.Direction != Desc {
			return core.NewValidationError(fmt.Sprintf("invalid sort direction %q", k.Direction))
		}
		switch k.Options.DataType {
		case TypeAuto, TypeNumber, TypeDate, TypeString, TypeNatural:
		default:
			return core.NewValidationError(fmt.Sprintf("unknown data type %q", k.Options.DataType))
		}
		comparers[i] = m.newComparer(k)
	}

	slices.SortStableFunc(m.rows, func(a, b []string) int {
		for _, c := range comparers {
			if r := c.compare(a, b); r != 0 {
				return r
			}
		}
		return 0
	})

	m.sortState = SortState{
		ColumnIndex: keys[0].Column,
		Direction:   keys[0].Direction,
		Keys:        slices.Clone(keys),
		ViewOnly:    m.sortState.ViewOnly,
	}
	m.changed()
	return nil
}

// SortByCustomFunction sorts rows with an arbitrary comparator. The
// comparator must not modify the rows. The tracked sort state is cleared
// because it cannot describe the resulting order.
func (m *Model) SortByCustomFunction(less func(a, b []string) int) error {
	if less == nil {
		return core.NewValidationError("comparator is nil")
	}
	slices.SortStableFunc(m.rows, less)
	m.ClearSortState()
	m.changed()
	return nil
}

// ShuffleRows applies a uniform random permutation and clears the sort state.
func (m *Model) ShuffleRows() {
	rand.Shuffle(len(m.rows), func(i, j int) {
		m.rows[i], m.rows[j] = m.rows[j], m.rows[i]
	})
	m.ClearSortState()
	m.changed()
}

// ReverseRows reverses the row order. The sort state is left as it was.
func (m *Model) ReverseRows() {
	slices.Reverse(m.rows)
	m.changed()
}

// shiftSortColumns keeps tracked sort keys pointing at the same columns
// after delta columns were inserted at index at.
func (m *Model) shiftSortColumns(at, delta int) {
	for i := range m.sortState.Keys {
		if m.sortState.Keys[i].Column >= at {
			m.sortState.Keys[i].Column += delta
		}
	}
	if m.sortState.ColumnIndex >= at {
		m.sortState.ColumnIndex += delta
	}
}

// dropSortColumn forgets the sort state when a sorted column is deleted and
// otherwise shifts keys to the left.
func (m *Model) dropSortColumn(col int) {
	for _, k := range m.sortState.Keys {
		if k.Column == col {
			m.ClearSortState()
			return
		}
	}
	m.shiftSortColumns(col+1, -1)
}

type columnComparer struct {
	col      int
	dir      Direction
	kind     DataType
	fold     bool
	collator *collate.Collator
}

func (m *Model) newComparer(k SortKey) *columnComparer {
	c := &columnComparer{
		col:  k.Column,
		dir:  k.Direction,
		kind: k.Options.DataType,
		fold: k.Options.CaseInsensitive,
	}
	if c.kind == TypeAuto {
		c.kind = m.inferColumnType(k.Column)
	}
	if c.fold {
		c.collator = collate.New(language.Und, collate.IgnoreCase)
	} else {
		c.collator = collate.New(language.Und)
	}
	return c
}

// compare orders two rows. Empty values and values that do not parse as the
// column's type are placed after all others regardless of direction.
func (c *columnComparer) compare(a, b []string) int {
	av := markdown.NormalizeForCompare(a[c.col])
	bv := markdown.NormalizeForCompare(b[c.col])

	if av == "" || bv == "" {
		return emptyLast(av == "", bv == "")
	}

	var r int
	switch c.kind {
	case TypeNumber:
		x, okx := parseNumber(av)
		y, oky := parseNumber(bv)
		if !okx || !oky {
			if okx != oky {
				return emptyLast(!okx, !oky)
			}
			r = c.compareStrings(av, bv)
			break
		}
		r = cmp.Compare(x, y)
	case TypeDate:
		x, okx := parseDate(av)
		y, oky := parseDate(bv)
		if !okx || !oky {
			if okx != oky {
				return emptyLast(!okx, !oky)
			}
			r = c.compareStrings(av, bv)
			break
		}
		r = x.Compare(y)
	case TypeNatural:
		if c.fold {
			av, bv = strings.ToLower(av), strings.ToLower(bv)
		}
		r = naturalCompare(av, bv)
	default:
		r = c.compareStrings(av, bv)
	}

	if c.dir == Desc {
		return -r
	}
	return r
}

func (c *columnComparer) compareStrings(a, b string) int {
	if r := c.collator.CompareString(a, b); r != 0 {
		return r
	}
	if c.fold {
		return 0
	}
	// The collator may treat distinct strings as equal; keep the order total.
	return strings.Compare(a, b)
}

func emptyLast(aEmpty, bEmpty bool) int {
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return 1
	default:
		return -1
	}
}

// inferColumnType samples non-empty values of a column.
func (m *Model) inferColumnType(col int) DataType {
	numbers, dates, sampled := 0, 0, 0
	for _, row := range m.rows {
		v := markdown.NormalizeForCompare(row[col])
		if v == "" {
			continue
		}
		sampled++
		if _, ok := parseNumber(v); ok {
			numbers++
		} else if _, ok := parseDate(v); ok {
			dates++
		}
		if sampled == inferSampleSize {
			break
		}
	}
	switch {
	case sampled == 0:
		return TypeString
	case numbers == sampled:
		return TypeNumber
	case dates == sampled:
		return TypeDate
	default:
		return TypeString
	}
}

var numberCleaner = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "¥", "", "%", "")

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(numberCleaner.Replace(s))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// naturalCompare compares strings as alternating runs of digits and
// non-digits. Digit runs compare by numeric value, other runs byte-wise.
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, ra := nextRun(a)
		cb, rb := nextRun(b)

		var r int
		if isDigit(ca[0]) && isDigit(cb[0]) {
			r = compareDigits(ca, cb)
		} else {
			r = strings.Compare(ca, cb)
		}
		if r != 0 {
			return r
		}
		a, b = ra, rb
	}
	return cmp.Compare(len(a), len(b))
}

func nextRun(s string) (run, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func compareDigits(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if r := cmp.Compare(len(ta), len(tb)); r != 0 {
		return r
	}
	if r := strings.Compare(ta, tb); r != 0 {
		return r
	}
	return cmp.Compare(len(a), len(b))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
