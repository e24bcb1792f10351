package tui

import (
	"context"
	"fmt"
	"time"

	"fileflow/internal/drag"
	"fileflow/internal/filter"
	"fileflow/internal/metrics"
	"fileflow/internal/mutation"
	"fileflow/internal/selection"
	"fileflow/internal/storage"
	"fileflow/internal/store"
	"fileflow/internal/tui/components"
	"fileflow/internal/tui/styles"
	"fileflow/internal/tui/views"
	"fileflow/internal/view"
	"fileflow/internal/watch"
	"fileflow/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// parentRow is the cursor position of the ".." row.
const parentRow = -1

const defaultWidth = 80

// DefaultArchiveName is offered when zipping the selection.
const DefaultArchiveName = "archive.zip"

// Options configures a Model. Only Storage is required.
type Options struct {
	Storage     storage.Storage
	Ignore      *filter.Ignore
	ViewMode    types.ViewMode
	GridColumns int
	Timeout     time.Duration
	Concurrency int
	Recorder    *metrics.Recorder
	// Trail is the folder opened first; empty means the top level.
	Trail []types.FileEntry
	// Changes triggers a refresh of the listing when it delivers.
	Changes <-chan watch.Change
	// Watch is told which folder is on screen.
	Watch func(folder types.EntryID) error
}

type promptKind int

const (
	promptNone promptKind = iota
	promptRename
	promptNewFolder
	promptArchive
)

type Model struct {
	storage     storage.Storage
	store       *store.Store
	selection   *selection.Model
	drag        *drag.Controller
	coordinator *mutation.Coordinator
	ignore      *filter.Ignore
	recorder    *metrics.Recorder

	keys      types.KeyMap
	help      help.Model
	input     textinput.Model
	statusBar *components.StatusBar

	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	changes <-chan watch.Change
	watchFn func(types.EntryID) error
	watched *types.EntryID

	// Core state
	mode       types.Mode
	viewMode   types.ViewMode
	columns    int
	query      string
	cursor     int
	offset     int
	width      int
	height     int
	showHelp   bool
	loading    bool
	listSeq    uint64
	startTrail []types.FileEntry

	// Prompt state
	prompt   promptKind
	renaming types.EntryID

	// Mouse press that may turn into a drag
	press   types.EntryID
	pressed bool
}

// New builds the browser model. Nothing is listed until Init runs.
func New(opts Options) *Model {
	st := store.New()
	sel := selection.New(st)
	columns := opts.GridColumns
	if columns < 1 {
		columns = 4
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = mutation.DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := help.New()
	h.Styles.ShortKey = styles.Theme.Help.Bold(true)
	h.Styles.ShortDesc = styles.Theme.Help
	h.Styles.FullKey = styles.Theme.Help.Bold(true)
	h.Styles.FullDesc = styles.Theme.Help

	return &Model{
		storage:   opts.Storage,
		store:     st,
		selection: sel,
		drag:      drag.New(st),
		coordinator: mutation.New(opts.Storage, st, sel,
			mutation.WithTimeout(timeout),
			mutation.WithConcurrency(opts.Concurrency),
			mutation.WithRecorder(opts.Recorder)),
		ignore:     opts.Ignore,
		recorder:   opts.Recorder,
		keys:       types.DefaultKeyMap(),
		help:       h,
		input:      textinput.New(),
		statusBar:  components.NewStatusBar(),
		ctx:        ctx,
		cancel:     cancel,
		timeout:    timeout,
		changes:    opts.Changes,
		watchFn:    opts.Watch,
		mode:       types.Normal,
		viewMode:   opts.ViewMode,
		columns:    columns,
		startTrail: append([]types.FileEntry(nil), opts.Trail...),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(m.startTrail, ""), m.waitForChange())
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

// Close cancels requests still in flight.
func (m *Model) Close() {
	m.cancel()
}

// Render returns the projection with cursor, pending and drop marks.
func (m *Model) Render() view.RenderModel {
	rm := view.Project(m.store.Entries(), m.selection, m.query, m.viewMode).
		WithPending(m.coordinator.IsPending)
	if id, ok := m.drag.Candidate(); ok {
		rm = rm.WithDropTarget(id)
	}
	if m.cursor >= 0 {
		rm = rm.WithCursor(m.cursor)
	}
	return rm
}

func (m *Model) Trail() []types.FileEntry {
	return m.store.Trail()
}

func (m *Model) Mode() types.Mode {
	return m.mode
}

func (m *Model) ShowHelp() bool {
	return m.showHelp
}

func (m *Model) HasParent() bool {
	_, ok := m.store.Parent()
	return ok
}

func (m *Model) ParentFocused() bool {
	return m.HasParent() && m.cursor == parentRow
}

func (m *Model) ParentDropTarget() bool {
	parent, ok := m.store.Parent()
	return ok && m.drag.IsDropTarget(parent)
}

func (m *Model) InputLine() string {
	switch m.mode {
	case types.Search, types.Prompt:
		return m.input.View()
	case types.Confirm:
		n := m.selection.Count()
		noun := "items"
		if n == 1 {
			noun = "item"
		}
		return styles.Theme.Error.Render(fmt.Sprintf("Delete %d %s? [y/N]", n, noun))
	case types.Drag:
		name := "entry"
		if id, ok := m.drag.Source(); ok {
			if e, ok := m.store.Get(id); ok {
				name = fmt.Sprintf("%q", e.Name)
			}
		}
		return styles.Theme.Title.Render(fmt.Sprintf("Moving %s: pick a folder and press enter, esc cancels", name))
	}
	if m.query != "" {
		return styles.Theme.Muted.Render("/ " + m.query)
	}
	return ""
}

func (m *Model) StatusLine() string {
	m.statusBar.SetSummary(m.Render().Status())
	return m.statusBar.View()
}

func (m *Model) HelpView() string {
	return m.help.View(m.keys)
}

func (m *Model) Width() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

func (m *Model) Offset() int {
	return m.offset
}

// BodyHeight is the number of listing rows that fit on screen.
func (m *Model) BodyHeight() int {
	if m.height <= 0 {
		return 20
	}
	h := m.height - views.HeaderLines - 1 - lipgloss.Height(m.HelpView())
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) GridColumns() int {
	return m.columns
}

// Cursor returns the cursor position among the visible entries, or -1
// when the ".." row has it.
func (m *Model) Cursor() int {
	return m.cursor
}

// Selected returns the selected ids in listing order.
func (m *Model) Selected() []types.EntryID {
	return m.selection.Ordered(m.store.IDs())
}

// Entries returns the current listing.
func (m *Model) Entries() []types.FileEntry {
	return m.store.Entries()
}

// Query returns the search text.
func (m *Model) Query() string {
	return m.query
}

// ViewMode returns the layout in use.
func (m *Model) ViewMode() types.ViewMode {
	return m.viewMode
}

// StatusMessage returns the last message shown in the status bar.
func (m *Model) StatusMessage() string {
	return m.statusBar.Text()
}

// DragState returns the state of the drag controller.
func (m *Model) DragState() drag.State {
	return m.drag.State()
}

// Loading reports whether a listing or a mutation is in flight.
func (m *Model) Loading() bool {
	return m.loading || len(m.coordinator.Pending()) > 0
}
