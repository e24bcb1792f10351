package tui

import (
	"context"
	"time"

	"fileflow/internal/mutation"
	"fileflow/internal/tui/messages"
	"fileflow/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
)

// load lists the last folder of trail off the event loop. It supersedes
// any listing still in flight.
func (m *Model) load(trail []types.FileEntry, focus types.EntryID) tea.Cmd {
	m.loading = true
	return tea.Batch(m.list(trail, focus), m.syncSpinner())
}

func (m *Model) list(trail []types.FileEntry, focus types.EntryID) tea.Cmd {
	m.listSeq++
	seq := m.listSeq
	trail = append([]types.FileEntry(nil), trail...)
	dir := types.RootID
	if len(trail) > 0 {
		dir = trail[len(trail)-1].ID
	}
	s, parent, timeout := m.storage, m.ctx, m.timeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		start := time.Now()
		entries, err := s.ListDirectory(ctx, dir)
		return messages.ListingMsg{
			Seq:      seq,
			Trail:    trail,
			Entries:  entries,
			Focus:    focus,
			Duration: time.Since(start),
			Err:      err,
		}
	}
}

// reload lists the folder on screen again, keeping the cursor on the same
// entry when it still exists.
func (m *Model) reload() tea.Cmd {
	var focus types.EntryID
	if id, ok := m.cursorEntry(); ok {
		focus = id
	}
	return m.load(m.store.Trail(), focus)
}

// run executes a mutation request off the event loop.
func (m *Model) run(req *mutation.Request) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return messages.SettledMsg{Settlement: req.Run(ctx)}
	}
}

// waitForChange delivers the next watcher change.
func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return messages.ChangeMsg{Change: change}
	}
}

// syncSpinner starts the status bar spinner when something is in flight
// and stops it otherwise.
func (m *Model) syncSpinner() tea.Cmd {
	return m.statusBar.SetLoading(m.Loading())
}

// Refresh lists the starting folder synchronously. It is meant for
// callers that want a populated model without running a program.
func (m *Model) Refresh() error {
	msg, _ := m.list(m.startTrail, "")().(messages.ListingMsg)
	m.handleListing(msg)
	return msg.Err
}
