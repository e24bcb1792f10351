// Package store holds the listing of the folder currently on screen. It is
// the single owner of entry data; every other component refers to entries
// by identifier only.
package store

import (
	"fmt"

	"fileflow/pkg/types"
)

// Store is the FileEntry Store for one visible folder.
// It is not safe for concurrent use; it is only touched from the event loop.
type Store struct {
	trail   []types.FileEntry // folders from the top level down to the current one
	entries []types.FileEntry
	index   map[types.EntryID]int
}

// New creates an empty store showing the root folder.
func New() *Store {
	return &Store{index: make(map[types.EntryID]int)}
}

// Load replaces the listing. trail holds the ancestor folders of the
// listed folder, outermost first; an empty trail means the root.
// Entries must be direct children of the listed folder with unique ids and
// names.
func (s *Store) Load(trail []types.FileEntry, entries []types.FileEntry) error {
	dir := types.RootID
	if len(trail) > 0 {
		dir = trail[len(trail)-1].ID
	}

	index := make(map[types.EntryID]int, len(entries))
	names := make(map[string]types.EntryID, len(entries))
	for i, e := range entries {
		if e.ID == types.RootID {
			return fmt.Errorf("entry %q has no identifier", e.Name)
		}
		if _, dup := index[e.ID]; dup {
			return fmt.Errorf("duplicate entry identifier %s", e.ID)
		}
		if e.ParentID != dir {
			return fmt.Errorf("entry %s belongs to %q, not the listed folder %q", e.ID, e.ParentID, dir)
		}
		if other, dup := names[e.Name]; dup {
			return fmt.Errorf("entries %s and %s share the name %q", other, e.ID, e.Name)
		}
		index[e.ID] = i
		names[e.Name] = e.ID
	}
	for _, f := range trail {
		if _, clash := index[f.ID]; clash {
			return fmt.Errorf("folder %s is its own ancestor", f.ID)
		}
	}

	s.trail = append([]types.FileEntry(nil), trail...)
	s.entries = append([]types.FileEntry(nil), entries...)
	s.index = index
	return nil
}

// Dir returns the identifier of the listed folder.
func (s *Store) Dir() types.EntryID {
	if len(s.trail) == 0 {
		return types.RootID
	}
	return s.trail[len(s.trail)-1].ID
}

// Trail returns the ancestor folders of the listing, outermost first.
func (s *Store) Trail() []types.FileEntry {
	return append([]types.FileEntry(nil), s.trail...)
}

// Parent returns the folder above the listed one. ok is false at the root.
func (s *Store) Parent() (id types.EntryID, ok bool) {
	switch len(s.trail) {
	case 0:
		return types.RootID, false
	case 1:
		return types.RootID, true
	default:
		return s.trail[len(s.trail)-2].ID, true
	}
}

// Entries returns a copy of the listing in order.
func (s *Store) Entries() []types.FileEntry {
	return append([]types.FileEntry(nil), s.entries...)
}

// Len returns the number of listed entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Has reports whether id is in the listing.
func (s *Store) Has(id types.EntryID) bool {
	_, ok := s.index[id]
	return ok
}

// Get returns the listed entry with the given id.
func (s *Store) Get(id types.EntryID) (types.FileEntry, bool) {
	i, ok := s.index[id]
	if !ok {
		return types.FileEntry{}, false
	}
	return s.entries[i], true
}

// IDs returns the listed identifiers in order.
func (s *Store) IDs() []types.EntryID {
	return types.IDs(s.entries)
}

// IsFolder reports whether id is a known folder: a listed folder, a folder
// on the trail, or the root.
func (s *Store) IsFolder(id types.EntryID) bool {
	if id == types.RootID {
		return true
	}
	if e, ok := s.Get(id); ok {
		return e.IsFolder()
	}
	for _, f := range s.trail {
		if f.ID == id {
			return true
		}
	}
	return false
}

// NameTaken reports whether a listed entry other than except has name.
func (s *Store) NameTaken(name string, except types.EntryID) bool {
	for _, e := range s.entries {
		if e.Name == name && e.ID != except {
			return true
		}
	}
	return false
}

// IsAncestor reports whether folder is an ancestor of (or equal to) id as
// far as the store knows. Only trail folders and listed entries can be
// resolved; unknown parents end the walk.
func (s *Store) IsAncestor(folder, id types.EntryID) bool {
	parents := make(map[types.EntryID]types.EntryID, len(s.trail)+len(s.entries))
	var prev types.EntryID = types.RootID
	for _, f := range s.trail {
		parents[f.ID] = prev
		prev = f.ID
	}
	for _, e := range s.entries {
		parents[e.ID] = e.ParentID
	}

	seen := make(map[types.EntryID]bool)
	for cur := id; ; {
		if cur == folder {
			return true
		}
		if cur == types.RootID || seen[cur] {
			return false
		}
		seen[cur] = true
		next, ok := parents[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// Rename sets the name of a listed entry.
func (s *Store) Rename(id types.EntryID, name string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("entry %s is not listed", id)
	}
	if s.NameTaken(name, id) {
		return fmt.Errorf("name %q is already used in this folder", name)
	}
	s.entries[i].Name = name
	return nil
}

// Reparent records that id now lives in dest. When dest is not the listed
// folder the entry leaves the listing and left is true.
func (s *Store) Reparent(id, dest types.EntryID) (left bool, err error) {
	i, ok := s.index[id]
	if !ok {
		return false, fmt.Errorf("entry %s is not listed", id)
	}
	if s.IsAncestor(id, dest) {
		return false, fmt.Errorf("moving %s into %s would create a cycle", id, dest)
	}
	if dest != s.Dir() {
		s.Remove(id)
		return true, nil
	}
	s.entries[i].ParentID = dest
	return false, nil
}

// Remove drops entries from the listing and returns how many were removed.
func (s *Store) Remove(ids ...types.EntryID) int {
	drop := make(map[types.EntryID]bool, len(ids))
	for _, id := range ids {
		if s.Has(id) {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.reindex()
	return len(drop)
}

// Append adds a new child of the listed folder at the end of the listing.
func (s *Store) Append(e types.FileEntry) error {
	if e.ID == types.RootID {
		return fmt.Errorf("entry %q has no identifier", e.Name)
	}
	if s.Has(e.ID) {
		return fmt.Errorf("entry %s is already listed", e.ID)
	}
	if e.ParentID != s.Dir() {
		return fmt.Errorf("entry %s belongs to %q, not the listed folder %q", e.ID, e.ParentID, s.Dir())
	}
	if s.NameTaken(e.Name, "") {
		return fmt.Errorf("name %q is already used in this folder", e.Name)
	}
	s.entries = append(s.entries, e)
	s.index[e.ID] = len(s.entries) - 1
	return nil
}

func (s *Store) reindex() {
	s.index = make(map[types.EntryID]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.ID] = i
	}
}
