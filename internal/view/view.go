// Package view computes what the screen shows from the listing, the
// selection and the search query. Nothing here mutates its inputs, and the
// list and grid layouts share one ordered sequence.
package view

import (
	"fmt"

	"fileflow/internal/filter"
	"fileflow/pkg/types"
)

// Selection is the part of the selection model the projection reads.
type Selection interface {
	Contains(id types.EntryID) bool
	Count() int
}

// Item is one visible entry.
type Item struct {
	Entry      types.FileEntry
	Selected   bool
	Pending    bool
	DropTarget bool
	Cursor     bool
}

// Actions tells which selection-dependent actions are enabled.
type Actions struct {
	Rename bool
	Delete bool
}

// RenderModel is the projection consumed by the renderer.
type RenderModel struct {
	Mode  types.ViewMode
	Query string
	Items []Item

	// Total is the size of the listing before filtering.
	Total   int
	Visible int
	// Selected counts every selected entry, including ones the query hides.
	Selected        int
	SelectedVisible int
	Actions         Actions

	cursor int
}

// Project filters entries by query and annotates them with the selection.
func Project(entries []types.FileEntry, sel Selection, query string, mode types.ViewMode) RenderModel {
	visible := filter.Apply(entries, query)
	m := RenderModel{
		Mode:     mode,
		Query:    query,
		Items:    make([]Item, len(visible)),
		Total:    len(entries),
		Visible:  len(visible),
		Selected: sel.Count(),
		cursor:   -1,
	}
	for i, e := range visible {
		selected := sel.Contains(e.ID)
		m.Items[i] = Item{Entry: e, Selected: selected}
		if selected {
			m.SelectedVisible++
		}
	}
	m.Actions = Actions{
		Rename: m.Selected == 1,
		Delete: m.Selected >= 1,
	}
	return m
}

// Rows splits the items into rows of columns cells, in order. List mode
// always yields one item per row.
func (m RenderModel) Rows(columns int) [][]Item {
	if m.Mode == types.ViewList || columns < 1 {
		columns = 1
	}
	rows := make([][]Item, 0, (len(m.Items)+columns-1)/columns)
	for start := 0; start < len(m.Items); start += columns {
		end := start + columns
		if end > len(m.Items) {
			end = len(m.Items)
		}
		rows = append(rows, m.Items[start:end])
	}
	return rows
}

// IDs returns the visible identifiers in order.
func (m RenderModel) IDs() []types.EntryID {
	ids := make([]types.EntryID, len(m.Items))
	for i, it := range m.Items {
		ids[i] = it.Entry.ID
	}
	return ids
}

// Index returns the position of id among the visible items, or -1.
func (m RenderModel) Index(id types.EntryID) int {
	for i, it := range m.Items {
		if it.Entry.ID == id {
			return i
		}
	}
	return -1
}

// WithPending marks the items for which busy returns true.
func (m RenderModel) WithPending(busy func(types.EntryID) bool) RenderModel {
	m.Items = m.copyItems()
	for i := range m.Items {
		m.Items[i].Pending = busy(m.Items[i].Entry.ID)
	}
	return m
}

// WithDropTarget highlights the drop candidate id.
func (m RenderModel) WithDropTarget(id types.EntryID) RenderModel {
	m.Items = m.copyItems()
	for i := range m.Items {
		m.Items[i].DropTarget = m.Items[i].Entry.ID == id
	}
	return m
}

// WithCursor places the cursor on item i, clamped to the visible range.
func (m RenderModel) WithCursor(i int) RenderModel {
	m.Items = m.copyItems()
	if len(m.Items) == 0 {
		m.cursor = -1
		return m
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m.Items) {
		i = len(m.Items) - 1
	}
	for j := range m.Items {
		m.Items[j].Cursor = j == i
	}
	m.cursor = i
	return m
}

// Cursor returns the cursor position, or -1 when there is none.
func (m RenderModel) Cursor() int {
	return m.cursor
}

// Status returns the status bar summary, e.g. "12 items | 3 selected".
func (m RenderModel) Status() string {
	s := items(m.Total)
	if m.Query != "" {
		s = fmt.Sprintf("%d of %s", m.Visible, s)
	}
	if m.Selected > 0 {
		s += fmt.Sprintf(" | %d selected", m.Selected)
		if hidden := m.Selected - m.SelectedVisible; hidden > 0 {
			s += fmt.Sprintf(" (%d hidden)", hidden)
		}
	}
	return s
}

func (m RenderModel) copyItems() []Item {
	return append([]Item(nil), m.Items...)
}

func items(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
