package table

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// DragType says whether a row or a column is being dragged.
type DragType string

// Drag types.
const (
	DragRow    DragType = "row"
	DragColumn DragType = "column"
)

// DragDropState is a snapshot of the drag-and-drop state machine.
// DropZones are insertion positions 0..N; dropping at j moves the dragged
// item in front of the item currently at j.
type DragDropState struct {
	IsDragging  bool            `json:"isDragging"`
	DragType    DragType        `json:"dragType,omitempty"`
	DragIndex   int             `json:"dragIndex"`
	DropZones   []int           `json:"dropZones,omitempty"`
	PreviewData *core.TableData `json:"previewData,omitempty"`
}

// DragListener receives drag-and-drop notifications. Nil callbacks are skipped.
type DragListener struct {
	OnDragOver     func(index int, valid bool)
	OnDragPreview  func(preview core.TableData)
	OnDragComplete func(dragType DragType, from, to int)
	OnDragCancel   func()
}

type dragState struct {
	active    bool
	kind      DragType
	index     int
	positions int // number of items of the dragged kind
	preview   *core.TableData
}

// AddDragListener registers a drag-and-drop listener.
func (m *Model) AddDragListener(l DragListener) {
	m.dragListeners = append(m.dragListeners, l)
}

// StartRowDrag starts dragging the row at index.
func (m *Model) StartRowDrag(index int) error {
	if err := m.checkRow(index); err != nil {
		return &core.PositionError{Kind: "drag", Index: index, Limit: len(m.rows)}
	}
	m.drag = dragState{active: true, kind: DragRow, index: index, positions: len(m.rows)}
	return nil
}

// StartColumnDrag starts dragging the column at index.
func (m *Model) StartColumnDrag(index int) error {
	if err := m.checkColumn(index); err != nil {
		return &core.PositionError{Kind: "drag", Index: index, Limit: len(m.headers)}
	}
	m.drag = dragState{active: true, kind: DragColumn, index: index, positions: len(m.headers)}
	return nil
}

// DragState returns the current drag state.
func (m *Model) DragState() DragDropState {
	if !m.drag.active {
		return DragDropState{DragIndex: -1}
	}
	s := DragDropState{
		IsDragging: true,
		DragType:   m.drag.kind,
		DragIndex:  m.drag.index,
		DropZones:  m.dropZones(),
	}
	if m.drag.preview != nil {
		p := *m.drag.preview
		p.Rows = core.CopyRows(p.Rows)
		p.Headers = slices.Clone(p.Headers)
		p.Alignment = slices.Clone(p.Alignment)
		s.PreviewData = &p
	}
	return s
}

// IsValidDropZone reports whether dropping at position j would move the
// dragged item. Positions j and j+1 of the dragged index i are no-ops.
func (m *Model) IsValidDropZone(j int) bool {
	if !m.drag.active {
		return false
	}
	i := m.drag.index
	return j >= 0 && j <= m.drag.positions && j != i && j != i+1
}

func (m *Model) dropZones() []int {
	zones := make([]int, 0, m.drag.positions)
	for j := 0; j <= m.drag.positions; j++ {
		if m.IsValidDropZone(j) {
			zones = append(zones, j)
		}
	}
	return zones
}

// UpdateDragPosition records the hover position j, computes a preview of the
// drop and notifies listeners. The model itself is not changed.
func (m *Model) UpdateDragPosition(j int) bool {
	if !m.drag.active {
		return false
	}
	valid := m.IsValidDropZone(j)

	var preview core.TableData
	if valid {
		c := m.Clone()
		c.id = m.id
		_ = c.move(m.drag.kind, m.drag.index, dropTarget(m.drag.index, j))
		preview = c.Data()
	} else {
		preview = m.Data()
	}
	m.drag.preview = &preview

	for _, l := range m.dragListeners {
		if l.OnDragOver != nil {
			m.safeDragCall("drag over", func() { l.OnDragOver(j, valid) })
		}
		if l.OnDragPreview != nil {
			m.safeDragCall("drag preview", func() { l.OnDragPreview(preview) })
		}
	}
	return valid
}

// CompleteDragDrop drops the dragged item at position j. It returns false
// and leaves the model unchanged if no drag is active or j is not a valid
// drop zone. The drag ends either way.
func (m *Model) CompleteDragDrop(j int) bool {
	if !m.drag.active {
		return false
	}
	d := m.drag
	valid := m.IsValidDropZone(j)
	m.drag = dragState{}
	if !valid {
		return false
	}

	to := dropTarget(d.index, j)
	if err := m.move(d.kind, d.index, to); err != nil {
		m.logger.Error("drag drop move failed", "table_id", m.id, "error", err)
		return false
	}
	for _, l := range m.dragListeners {
		if l.OnDragComplete != nil {
			m.safeDragCall("drag complete", func() { l.OnDragComplete(d.kind, d.index, to) })
		}
	}
	return true
}

// CancelDragDrop ends the drag without changing the model.
func (m *Model) CancelDragDrop() {
	wasActive := m.drag.active
	m.drag = dragState{}
	if !wasActive {
		return
	}
	for _, l := range m.dragListeners {
		if l.OnDragCancel != nil {
			m.safeDragCall("drag cancel", l.OnDragCancel)
		}
	}
}

// dropTarget converts an insertion position into the final index of the
// moved item.
func dropTarget(from, position int) int {
	if position > from {
		return position - 1
	}
	return position
}

func (m *Model) move(kind DragType, from, to int) error {
	switch kind {
	case DragRow:
		return m.MoveRow(from, to)
	case DragColumn:
		return m.MoveColumn(from, to)
	}
	return fmt.Errorf("unknown drag type %q", kind)
}

func (m *Model) safeDragCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("drag listener panicked", "table_id", m.id, "callback", name, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
