package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"fileflow/internal/mutation"
	"fileflow/pkg/types"

	"gopkg.in/yaml.v3"
)

// Snapshot is the complete UI state in serializable form.
type Snapshot struct {
	Mode     string             `json:"mode" yaml:"mode"`
	View     types.ViewMode     `json:"view" yaml:"view"`
	Query    string             `json:"query,omitempty" yaml:"query,omitempty"`
	Trail    []string           `json:"trail" yaml:"trail"`
	Dir      types.EntryID      `json:"dir" yaml:"dir"`
	Entries  []types.FileEntry  `json:"entries" yaml:"entries"`
	Visible  []types.EntryID    `json:"visible" yaml:"visible"`
	Selected []types.EntryID    `json:"selected" yaml:"selected"`
	Anchor   types.EntryID      `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Cursor   int                `json:"cursor" yaml:"cursor"`
	Drag     DragSnapshot       `json:"drag" yaml:"drag"`
	Pending  []mutation.Pending `json:"pending" yaml:"pending"`
	Status   string             `json:"status" yaml:"status"`
	Message  string             `json:"message,omitempty" yaml:"message,omitempty"`
}

type DragSnapshot struct {
	State     string        `json:"state" yaml:"state"`
	Source    types.EntryID `json:"source,omitempty" yaml:"source,omitempty"`
	Candidate types.EntryID `json:"candidate,omitempty" yaml:"candidate,omitempty"`
}

// Snapshot captures the current state.
func (m *Model) Snapshot() Snapshot {
	rm := m.Render()
	s := Snapshot{
		Mode:     m.mode.String(),
		View:     m.viewMode,
		Query:    m.query,
		Trail:    []string{},
		Dir:      m.store.Dir(),
		Entries:  m.store.Entries(),
		Visible:  rm.IDs(),
		Selected: m.Selected(),
		Anchor:   m.selection.Anchor(),
		Cursor:   m.cursor,
		Drag:     DragSnapshot{State: m.drag.State().String()},
		Pending:  m.coordinator.Pending(),
		Status:   rm.Status(),
		Message:  m.statusBar.Text(),
	}
	for _, f := range m.store.Trail() {
		s.Trail = append(s.Trail, f.Name)
	}
	if id, ok := m.drag.Source(); ok {
		s.Drag.Source = id
	}
	if id, ok := m.drag.Candidate(); ok {
		s.Drag.Candidate = id
	}
	return s
}

// Encode writes the snapshot as "json" or "yaml".
func (s Snapshot) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
