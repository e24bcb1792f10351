// Package selection tracks which entries are marked as targets for the next
// action. It only stores identifiers and never owns entry data.
package selection

import (
	"sort"

	"fileflow/pkg/types"
)

// Lookup answers whether an identifier is currently listed.
// *store.Store satisfies it.
type Lookup interface {
	Has(id types.EntryID) bool
}

// Model is the Selection Model. Input devices are not its concern: click,
// ctrl+click and keyboard gestures all map onto SelectOnly and Toggle.
type Model struct {
	lookup Lookup
	ids    map[types.EntryID]struct{}
	anchor types.EntryID
}

// New creates an empty selection bound to lookup.
func New(lookup Lookup) *Model {
	return &Model{
		lookup: lookup,
		ids:    make(map[types.EntryID]struct{}),
	}
}

// SelectOnly replaces the selection with {id}. Unknown ids are ignored.
func (m *Model) SelectOnly(id types.EntryID) {
	if !m.lookup.Has(id) {
		return
	}
	m.ids = map[types.EntryID]struct{}{id: {}}
	m.anchor = id
}

// Toggle adds id if absent and removes it if present. Unknown ids are never
// added.
func (m *Model) Toggle(id types.EntryID) {
	if _, ok := m.ids[id]; ok {
		delete(m.ids, id)
		m.anchor = id
		return
	}
	if !m.lookup.Has(id) {
		return
	}
	m.ids[id] = struct{}{}
	m.anchor = id
}

// Clear empties the selection.
func (m *Model) Clear() {
	m.ids = make(map[types.EntryID]struct{})
	m.anchor = ""
}

// Prune removes every selected id that is not in existing.
func (m *Model) Prune(existing []types.EntryID) {
	keep := make(map[types.EntryID]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}
	for id := range m.ids {
		if _, ok := keep[id]; !ok {
			delete(m.ids, id)
		}
	}
	if _, ok := keep[m.anchor]; !ok {
		m.anchor = ""
	}
}

// SelectAll selects every listed id in ids.
func (m *Model) SelectAll(ids []types.EntryID) {
	for _, id := range ids {
		if m.lookup.Has(id) {
			m.ids[id] = struct{}{}
		}
	}
}

// ExtendRange adds every id between the anchor and to (inclusive) in the
// given visible order. Without an anchor in order it behaves like
// SelectOnly(to). The anchor does not move.
func (m *Model) ExtendRange(order []types.EntryID, to types.EntryID) {
	from, end := -1, -1
	for i, id := range order {
		if id == m.anchor {
			from = i
		}
		if id == to {
			end = i
		}
	}
	if end < 0 {
		return
	}
	if from < 0 {
		m.SelectOnly(to)
		return
	}
	if from > end {
		from, end = end, from
	}
	for _, id := range order[from : end+1] {
		if m.lookup.Has(id) {
			m.ids[id] = struct{}{}
		}
	}
}

// ContextSelect is the context-menu gesture: an unselected target becomes
// the only selection, a selected one keeps the current multi-selection.
func (m *Model) ContextSelect(id types.EntryID) {
	if m.Contains(id) {
		return
	}
	m.SelectOnly(id)
}

// Count returns the number of selected entries.
func (m *Model) Count() int {
	return len(m.ids)
}

// IsSingle reports whether exactly one entry is selected. Rename requires it.
func (m *Model) IsSingle() bool {
	return len(m.ids) == 1
}

// IsNonEmpty reports whether anything is selected. Delete requires it.
func (m *Model) IsNonEmpty() bool {
	return len(m.ids) > 0
}

// Contains reports whether id is selected.
func (m *Model) Contains(id types.EntryID) bool {
	_, ok := m.ids[id]
	return ok
}

// Sole returns the selected id when exactly one is selected.
func (m *Model) Sole() (types.EntryID, bool) {
	if len(m.ids) != 1 {
		return "", false
	}
	for id := range m.ids {
		return id, true
	}
	return "", false
}

// Anchor returns the id the next range extends from.
func (m *Model) Anchor() types.EntryID {
	return m.anchor
}

// IDs returns the selected ids in sorted order.
func (m *Model) IDs() []types.EntryID {
	ids := make([]types.EntryID, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ordered returns the selected ids in the order they appear in order.
func (m *Model) Ordered(order []types.EntryID) []types.EntryID {
	out := make([]types.EntryID, 0, len(m.ids))
	for _, id := range order {
		if m.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
