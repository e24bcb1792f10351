package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"fileflow/internal/drag"
	"fileflow/internal/errors"
	"fileflow/internal/filter"
	"fileflow/internal/storage"
	"fileflow/internal/storage/fsstore"
	"fileflow/internal/tui/components"
	"fileflow/internal/tui/messages"
	"fileflow/internal/tui/views"
	"fileflow/pkg/testutils"
	"fileflow/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive runs cmd and feeds the messages it produces back into the model
// the way the program loop would, until nothing is left to run.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case messages.ListingMsg, messages.SettledMsg, messages.ErrorMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

var namedKeys = map[string]tea.KeyType{
	"enter":      tea.KeyEnter,
	"esc":        tea.KeyEsc,
	"tab":        tea.KeyTab,
	"space":      tea.KeySpace,
	"backspace":  tea.KeyBackspace,
	"down":       tea.KeyDown,
	"up":         tea.KeyUp,
	"shift+down": tea.KeyShiftDown,
	"ctrl+a":     tea.KeyCtrlA,
	"ctrl+r":     tea.KeyCtrlR,
	"delete":     tea.KeyDelete,
	"f2":         tea.KeyF2,
}

// press sends keys one by one and returns the command of the last one.
func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		if kt, ok := namedKeys[k]; ok {
			msg = tea.KeyMsg{Type: kt}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func mouse(m *Model, action tea.MouseAction, x, y int, mods ...string) tea.Cmd {
	msg := tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
	for _, mod := range mods {
		switch mod {
		case "ctrl":
			msg.Ctrl = true
		case "shift":
			msg.Shift = true
		}
	}
	if action == tea.MouseActionRelease {
		msg.Button = tea.MouseButtonNone
	}
	_, cmd := m.Update(msg)
	return cmd
}

// row returns the screen line of the i-th listing row.
func row(i int) int {
	return views.HeaderLines + i
}

func newTestModel(t *testing.T, opts ...func(*Options)) *Model {
	t.Helper()
	ignore, err := filter.NewIgnore([]string{"*.tmp"}, false)
	require.NoError(t, err)
	o := Options{
		Storage: testutils.MemoryStore(t, testutils.DefaultFiles),
		Ignore:  ignore,
	}
	for _, opt := range opts {
		opt(&o)
	}
	m := New(o)
	t.Cleanup(m.Close)
	drive(t, m, m.Init())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func names(m *Model) []string {
	var out []string
	for _, it := range m.Render().Items {
		out = append(out, it.Entry.Name)
	}
	return out
}

func idOf(t *testing.T, m *Model, name string) types.EntryID {
	t.Helper()
	for _, e := range m.Entries() {
		if e.Name == name {
			return e.ID
		}
	}
	t.Fatalf("no entry named %q", name)
	return ""
}

func TestModelInitialization(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, types.Normal, m.Mode())
	assert.Equal(t, types.ViewList, m.ViewMode())
	assert.Equal(t, []string{"archive", "docs", "a.txt", "b.txt", "c.txt"}, names(m), "hidden and ignored entries are left out")
	assert.Equal(t, 0, m.Cursor())
	assert.False(t, m.HasParent())
	assert.False(t, m.Loading())
	assert.Equal(t, "5 items", m.Render().Status())
}

func TestKeyboardSelection(t *testing.T) {
	m := newTestModel(t)

	press(m, "j", "j", "space")
	assert.Equal(t, []types.EntryID{idOf(t, m, "a.txt")}, m.Selected())
	assert.True(t, m.Render().Actions.Rename)

	press(m, "shift+down", "shift+down")
	assert.Len(t, m.Selected(), 3, "range runs from the anchor to the cursor")
	assert.False(t, m.Render().Actions.Rename)
	assert.True(t, m.Render().Actions.Delete)

	press(m, "space")
	assert.Len(t, m.Selected(), 2)

	press(m, "ctrl+a")
	assert.Len(t, m.Selected(), 5)
	assert.Equal(t, "5 items | 5 selected", m.Render().Status())

	press(m, "esc")
	assert.Empty(t, m.Selected())
}

func TestRename(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := newTestModel(t)
		a := idOf(t, m, "a.txt")

		press(m, "j", "j", "r")
		require.Equal(t, types.Prompt, m.Mode())
		assert.Equal(t, "a.txt", m.input.Value(), "prompt starts with the current name")

		m.input.SetValue("alpha.txt")
		cmd := press(m, "enter")
		assert.Equal(t, types.Normal, m.Mode())
		assert.True(t, m.coordinator.IsPending(a))
		assert.True(t, m.Loading())
		assert.Contains(t, names(m), "a.txt", "nothing changes before the server confirms")

		drive(t, m, cmd)
		assert.Contains(t, names(m), "alpha.txt")
		assert.NotContains(t, names(m), "a.txt")
		assert.Equal(t, a, idOf(t, m, "alpha.txt"))
		assert.Equal(t, `Renamed to "alpha.txt"`, m.StatusMessage())
		assert.False(t, m.Loading())
	})

	t.Run("name taken on the server", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "j", "j", "r")
		m.input.SetValue("b.txt")
		drive(t, m, press(m, "enter"))

		assert.Contains(t, names(m), "a.txt")
		assert.Contains(t, m.StatusMessage(), `Could not rename "a.txt"`)
	})

	t.Run("needs exactly one selected", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "ctrl+a", "r")
		assert.Equal(t, types.Normal, m.Mode())
		assert.Contains(t, m.StatusMessage(), errors.ErrNotSingleSelection.Error())
	})

	t.Run("second rename while in flight", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "j", "j", "r")
		m.input.SetValue("one.txt")
		first := press(m, "enter")

		press(m, "r")
		m.input.SetValue("two.txt")
		assert.Nil(t, press(m, "enter"))
		assert.Contains(t, m.StatusMessage(), errors.ErrPendingMutation.Error())

		drive(t, m, first)
		assert.Contains(t, names(m), "one.txt")
	})

	t.Run("escape cancels", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "j", "j", "f2")
		require.Equal(t, types.Prompt, m.Mode())
		assert.Nil(t, press(m, "esc"))
		assert.Equal(t, types.Normal, m.Mode())
		assert.Contains(t, names(m), "a.txt")
	})
}

func TestDeleteWithConfirmation(t *testing.T) {
	m := newTestModel(t)

	press(m, "j", "j", "space", "j", "space", "d")
	require.Equal(t, types.Confirm, m.Mode())
	assert.Contains(t, testutils.StripANSI(m.InputLine()), "Delete 2 items?")

	press(m, "n")
	assert.Equal(t, types.Normal, m.Mode())
	assert.Len(t, names(m), 5)

	press(m, "delete")
	require.Equal(t, types.Confirm, m.Mode())
	drive(t, m, press(m, "y"))

	assert.Equal(t, []string{"archive", "docs", "c.txt"}, names(m))
	assert.Empty(t, m.Selected())
	assert.Equal(t, "Deleted 2 items", m.StatusMessage())
}

func TestDeleteNeedsSelection(t *testing.T) {
	m := newTestModel(t, func(o *Options) {
		o.Storage = testutils.MemoryStore(t, map[string]string{})
	})

	press(m, "d")
	assert.Equal(t, types.Normal, m.Mode())
	assert.Contains(t, m.StatusMessage(), errors.ErrEmptySelection.Error())
}

func TestCreateFolder(t *testing.T) {
	m := newTestModel(t)

	press(m, "n")
	require.Equal(t, types.Prompt, m.Mode())
	m.input.SetValue("  reports ")
	drive(t, m, press(m, "enter"))

	assert.Contains(t, names(m), "reports")
	assert.Equal(t, `Created folder "reports"`, m.StatusMessage())
	assert.Equal(t, "reports", m.Render().Items[m.Cursor()].Entry.Name, "cursor lands on the new folder")

	press(m, "n")
	m.input.SetValue("..")
	assert.Nil(t, press(m, "enter"))
	assert.Contains(t, m.StatusMessage(), "Cannot create folder")
}

func TestKeyboardDrag(t *testing.T) {
	t.Run("drop on a folder moves the entry", func(t *testing.T) {
		m := newTestModel(t)
		docs := idOf(t, m, "docs")

		press(m, "j", "j", "m")
		require.Equal(t, types.Drag, m.Mode())
		assert.Equal(t, drag.Dragging, m.DragState())

		press(m, "k")
		assert.Equal(t, drag.Hovering, m.DragState())
		assert.True(t, m.Render().Items[1].DropTarget)

		drive(t, m, press(m, "enter"))
		assert.Equal(t, types.Normal, m.Mode())
		assert.Equal(t, drag.Idle, m.DragState())
		assert.NotContains(t, names(m), "a.txt")
		assert.Equal(t, "Moved 1 item", m.StatusMessage())

		drive(t, m, press(m, "enter"))
		assert.Equal(t, docs, m.store.Dir())
		assert.Contains(t, names(m), "a.txt")
	})

	t.Run("files are not drop targets", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "j", "j", "m", "j")
		assert.Equal(t, drag.Dragging, m.DragState(), "no candidate over a file")

		assert.Nil(t, press(m, "enter"))
		assert.Equal(t, drag.Idle, m.DragState())
		assert.Contains(t, m.StatusMessage(), errors.ErrInvalidTarget.Error())
		assert.Contains(t, names(m), "a.txt")
	})

	t.Run("escape cancels", func(t *testing.T) {
		m := newTestModel(t)

		press(m, "j", "j", "m", "k", "esc")
		assert.Equal(t, types.Normal, m.Mode())
		assert.Equal(t, drag.Idle, m.DragState())
		assert.Len(t, names(m), 5)
	})

	t.Run("drop on the parent row", func(t *testing.T) {
		m := newTestModel(t)
		docs := idOf(t, m, "docs")

		drive(t, m, press(m, "j", "enter"))
		require.Equal(t, []string{"q1.pdf"}, names(m))
		require.True(t, m.HasParent())

		press(m, "m", "k")
		assert.Equal(t, parentRow, m.Cursor())
		assert.True(t, m.ParentDropTarget())

		drive(t, m, press(m, "enter"))
		assert.Empty(t, names(m))

		drive(t, m, press(m, "h"))
		assert.Contains(t, names(m), "q1.pdf")
		assert.Equal(t, docs, m.Render().Items[m.Cursor()].Entry.ID, "cursor returns to the folder just left")
	})
}

func TestMouse(t *testing.T) {
	t.Run("click gestures", func(t *testing.T) {
		m := newTestModel(t)
		a, b, c := idOf(t, m, "a.txt"), idOf(t, m, "b.txt"), idOf(t, m, "c.txt")

		mouse(m, tea.MouseActionPress, 5, row(2))
		mouse(m, tea.MouseActionRelease, 5, row(2))
		assert.Equal(t, []types.EntryID{a}, m.Selected())
		assert.Equal(t, 2, m.Cursor())

		mouse(m, tea.MouseActionPress, 5, row(3), "ctrl")
		mouse(m, tea.MouseActionRelease, 5, row(3))
		assert.Equal(t, []types.EntryID{a, b}, m.Selected())

		mouse(m, tea.MouseActionPress, 5, row(4), "shift")
		mouse(m, tea.MouseActionRelease, 5, row(4))
		assert.Equal(t, []types.EntryID{a, b, c}, m.Selected())

		mouse(m, tea.MouseActionPress, 5, row(20))
		mouse(m, tea.MouseActionRelease, 5, row(20))
		assert.Empty(t, m.Selected(), "clicking empty space clears the selection")
	})

	t.Run("press drag release", func(t *testing.T) {
		m := newTestModel(t)

		mouse(m, tea.MouseActionPress, 5, row(2))
		mouse(m, tea.MouseActionMotion, 5, row(1))
		assert.Equal(t, types.Drag, m.Mode())
		assert.Equal(t, drag.Hovering, m.DragState())

		mouse(m, tea.MouseActionMotion, 5, row(3))
		assert.Equal(t, drag.Dragging, m.DragState())

		mouse(m, tea.MouseActionMotion, 5, row(1))
		drive(t, m, mouse(m, tea.MouseActionRelease, 5, row(1)))
		assert.Equal(t, types.Normal, m.Mode())
		assert.NotContains(t, names(m), "a.txt")
	})

	t.Run("release over nothing cancels", func(t *testing.T) {
		m := newTestModel(t)

		mouse(m, tea.MouseActionPress, 5, row(2))
		mouse(m, tea.MouseActionMotion, 5, row(20))
		assert.Nil(t, mouse(m, tea.MouseActionRelease, 5, row(20)))
		assert.Equal(t, drag.Idle, m.DragState())
		assert.Equal(t, types.Normal, m.Mode())
		assert.Empty(t, m.StatusMessage())
	})
}

func TestGridView(t *testing.T) {
	m := newTestModel(t)

	press(m, "tab")
	assert.Equal(t, types.ViewGrid, m.ViewMode())
	assert.Equal(t, []string{"archive", "docs", "a.txt", "b.txt", "c.txt"}, names(m), "both layouts share one order")

	press(m, "down")
	assert.Equal(t, 4, m.Cursor(), "down moves a whole row")
	press(m, "right")
	assert.Equal(t, 4, m.Cursor())
	press(m, "left")
	assert.Equal(t, 3, m.Cursor())

	mouse(m, tea.MouseActionPress, components.CellWidth+2, row(0))
	mouse(m, tea.MouseActionRelease, components.CellWidth+2, row(0))
	assert.Equal(t, []types.EntryID{idOf(t, m, "docs")}, m.Selected())

	press(m, "tab")
	assert.Equal(t, types.ViewList, m.ViewMode())
	assert.Equal(t, []types.EntryID{idOf(t, m, "docs")}, m.Selected(), "selection survives a layout switch")
}

func TestSearch(t *testing.T) {
	m := newTestModel(t)

	press(m, "/", "A")
	assert.Equal(t, types.Search, m.Mode())
	assert.Equal(t, "A", m.Query())
	assert.Equal(t, []string{"archive", "a.txt"}, names(m))
	assert.Equal(t, "2 of 5 items", m.Render().Status())

	press(m, "enter")
	assert.Equal(t, types.Normal, m.Mode())
	assert.Equal(t, "A", m.Query(), "enter keeps the filter")

	press(m, "ctrl+a")
	assert.Len(t, m.Selected(), 2, "select all takes the visible entries")
	press(m, "esc")
	assert.Empty(t, m.Selected())
	assert.Equal(t, "A", m.Query())
	press(m, "esc")
	assert.Empty(t, m.Query())
	assert.Len(t, names(m), 5)
}

func TestLateSettlementAfterNavigation(t *testing.T) {
	m := newTestModel(t)

	press(m, "j", "j", "r")
	m.input.SetValue("z.txt")
	held := press(m, "enter")

	drive(t, m, press(m, "k", "enter"))
	require.Equal(t, []string{"q1.pdf"}, names(m))

	drive(t, m, held)
	assert.Equal(t, []string{"q1.pdf"}, names(m), "the docs listing is untouched")
	assert.False(t, m.Loading())
}

func TestSupersededListingIsDropped(t *testing.T) {
	m := newTestModel(t)

	stale := press(m, "ctrl+r")
	require.True(t, m.Loading())
	drive(t, m, press(m, "j", "enter"))
	require.Len(t, m.Trail(), 1)
	require.Equal(t, []string{"q1.pdf"}, names(m))

	// The refresh of the top level answers after the folder was opened.
	drive(t, m, stale)
	require.Len(t, m.Trail(), 1)
	assert.Equal(t, "docs", m.Trail()[0].Name)
	assert.Equal(t, []string{"q1.pdf"}, names(m))
	assert.False(t, m.Loading())
}

func TestArchiveSelection(t *testing.T) {
	m := newTestModel(t)
	target := filepath.Join(t.TempDir(), "picked.zip")

	press(m, "j", "j", "space", "j", "space", "z")
	require.Equal(t, types.Prompt, m.Mode())
	assert.Equal(t, DefaultArchiveName, m.input.Value())
	m.input.SetValue(target)
	drive(t, m, press(m, "enter"))

	assert.Equal(t, "Archived 2 items to "+target, m.StatusMessage())
	assert.FileExists(t, target)
	assert.Len(t, names(m), 5, "archiving leaves the listing alone")
	assert.False(t, m.Loading())
}

func TestArchiveNotSupported(t *testing.T) {
	m := newTestModel(t, func(o *Options) {
		o.Storage = listOnly{o.Storage}
	})

	press(m, "j", "j", "z")
	m.input.SetValue(filepath.Join(t.TempDir(), "x.zip"))
	assert.Nil(t, press(m, "enter"))
	assert.Contains(t, m.StatusMessage(), errors.ErrNotSupported.Error())
}

// listOnly hides every optional capability of the wrapped storage.
type listOnly struct {
	storage.Storage
}

func TestWatcherChangeRefreshes(t *testing.T) {
	var watched []types.EntryID
	m := newTestModel(t, func(o *Options) {
		o.Watch = func(folder types.EntryID) error {
			watched = append(watched, folder)
			return nil
		}
	})
	require.Equal(t, []types.EntryID{types.RootID}, watched)

	fs := m.storage.(*fsstore.Store).Filesystem()
	require.NoError(t, util.WriteFile(fs, "/d.txt", []byte("delta"), 0o644))

	_, cmd := m.Update(messages.ChangeMsg{})
	drive(t, m, cmd)
	assert.Contains(t, names(m), "d.txt")

	drive(t, m, press(m, "ctrl+r"))
	assert.Equal(t, []types.EntryID{types.RootID}, watched, "refreshing the same folder keeps the watch")

	docs := idOf(t, m, "docs")
	drive(t, m, press(m, "g", "j", "enter"))
	assert.Equal(t, []types.EntryID{types.RootID, docs}, watched)
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) ListDirectory(context.Context, types.EntryID) ([]types.FileEntry, error) {
	return nil, errors.NewRequestError("list", "", 503, errors.New("service unavailable"))
}

func TestListingFailure(t *testing.T) {
	m := New(Options{Storage: failingStorage{}})
	t.Cleanup(m.Close)

	err := m.Refresh()
	require.Error(t, err)
	assert.True(t, errors.IsRequestFailure(err))
	assert.Contains(t, m.StatusMessage(), "Could not list folder")
	assert.Empty(t, m.Entries())
}

func TestSnapshot(t *testing.T) {
	m := newTestModel(t)
	press(m, "j", "j", "space", "m", "k")

	s := m.Snapshot()
	assert.Equal(t, "DRAG", s.Mode)
	assert.Equal(t, types.ViewList, s.View)
	assert.Empty(t, s.Trail)
	assert.Len(t, s.Entries, 5)
	assert.Equal(t, []types.EntryID{idOf(t, m, "a.txt")}, s.Selected)
	assert.Equal(t, "hovering", s.Drag.State)
	assert.Equal(t, idOf(t, m, "docs"), s.Drag.Candidate)

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "list", decoded["view"])
	assert.Equal(t, "5 items | 1 selected", decoded["status"])

	buf.Reset()
	require.NoError(t, s.Encode(&buf, "yaml"))
	assert.Contains(t, buf.String(), "mode: DRAG")
	assert.Error(t, s.Encode(&buf, "xml"))
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	press(m, "j", "j", "space")

	out := testutils.StripANSI(m.View())
	assert.Contains(t, out, "fileflow /")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "docs/")
	assert.Contains(t, out, "5 items | 1 selected")
	assert.Contains(t, out, "text/plain")
}
