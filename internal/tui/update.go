package tui

import (
	"fmt"
	"strings"

	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/mutation"
	"fileflow/internal/tui/components"
	"fileflow/internal/tui/messages"
	"fileflow/internal/tui/views"
	"fileflow/pkg/types"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case messages.ListingMsg:
		m.handleListing(msg)
		return m, m.syncSpinner()

	case messages.SettledMsg:
		return m, m.handleSettled(msg.Settlement)

	case messages.ChangeMsg:
		log.LogWithFields(log.F("directory", msg.Change.Dir), log.F("paths", len(msg.Change.Paths))).
			Debug("Listing changed on disk")
		if m.loading {
			return m, m.waitForChange()
		}
		return m, tea.Batch(m.reload(), m.waitForChange())

	case messages.ErrorMsg:
		m.statusBar.SetError(describe(msg.Err))
		return m, nil

	case spinner.TickMsg:
		return m, m.statusBar.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case types.Search:
		return m.handleSearchKeys(msg)
	case types.Prompt:
		return m.handlePromptKeys(msg)
	case types.Confirm:
		return m.handleConfirmKeys(msg)
	case types.Drag:
		return m.handleDragKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

func (m *Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.ensureVisible()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-m.step())
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.step())
	case key.Matches(msg, m.keys.Left):
		if m.viewMode == types.ViewGrid {
			m.moveCursor(-1)
		}
	case key.Matches(msg, m.keys.Right):
		if m.viewMode == types.ViewGrid {
			m.moveCursor(1)
		}
	case key.Matches(msg, m.keys.GotoTop):
		m.cursor = m.firstRow()
		m.ensureVisible()
	case key.Matches(msg, m.keys.GotoBottom):
		m.cursor = len(m.Render().Items) - 1
		m.clampCursor()
	case key.Matches(msg, m.keys.Open):
		return m, m.open()
	case key.Matches(msg, m.keys.GoBack):
		return m, m.goUp()
	case key.Matches(msg, m.keys.Search):
		m.mode = types.Search
		m.openInput("/ ", m.query)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.ToggleView):
		m.viewMode = m.viewMode.Toggle()
		m.ensureVisible()

	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.cursorEntry(); ok {
			m.selection.Toggle(id)
		}
	case key.Matches(msg, m.keys.SelectRange):
		switch msg.String() {
		case "shift+down":
			m.moveCursor(m.step())
		case "shift+up":
			m.moveCursor(-m.step())
		}
		if id, ok := m.cursorEntry(); ok {
			m.selection.ExtendRange(m.Render().IDs(), id)
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.selection.SelectAll(m.Render().IDs())
	case key.Matches(msg, m.keys.Clear):
		if m.selection.IsNonEmpty() {
			m.selection.Clear()
		} else if m.query != "" {
			m.query = ""
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Rename):
		return m, m.startRename()
	case key.Matches(msg, m.keys.Delete):
		m.startDelete()
	case key.Matches(msg, m.keys.NewFolder):
		m.prompt = promptNewFolder
		m.mode = types.Prompt
		m.openInput("New folder: ", "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Drag):
		m.startDrag()
	case key.Matches(msg, m.keys.Archive):
		return m, m.startArchive()
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.query = ""
		m.closeInput()
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		m.cursor = 0
		m.clampCursor()
	}
	return m, cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		value := m.input.Value()
		kind, id := m.prompt, m.renaming
		m.closeInput()
		return m, m.submitPrompt(kind, id, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = types.Normal
	if s := msg.String(); s != "y" && s != "Y" {
		m.statusBar.SetText("Delete cancelled")
		return m, nil
	}
	req, err := m.coordinator.DeleteMany(m.Selected())
	if err != nil {
		m.reject("Cannot delete", err)
		return m, nil
	}
	return m, m.issue(req, fmt.Sprintf("Deleting %d…", len(req.Pending().IDs)))
}

func (m *Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.drag.Cancel()
		m.mode = types.Normal
		m.statusBar.SetText("Move cancelled")
	case key.Matches(msg, m.keys.Accept):
		target, ok := m.cursorTarget()
		if !ok {
			m.drag.Cancel()
			m.mode = types.Normal
			return m, nil
		}
		return m, m.drop(target)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-m.step())
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.step())
	case key.Matches(msg, m.keys.Left):
		if m.viewMode == types.ViewGrid {
			m.moveCursor(-1)
		}
	case key.Matches(msg, m.keys.Right):
		if m.viewMode == types.ViewGrid {
			m.moveCursor(1)
		}
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// handleMouse maps clicks onto the selection gestures and a held left
// button onto the drag controller.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != types.Normal && !(m.mode == types.Drag && m.pressed) {
		return m, nil
	}
	h := m.hit(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCursor(-m.step())
		case tea.MouseButtonWheelDown:
			m.moveCursor(m.step())
		case tea.MouseButtonLeft:
			m.click(h, msg.Ctrl, msg.Shift)
		case tea.MouseButtonRight:
			if h.ok && !h.parent {
				m.cursor = h.index
				m.selection.ContextSelect(h.id)
				m.statusBar.SetText("r rename · d delete · m move")
			}
		}

	case tea.MouseActionMotion:
		if !m.pressed {
			return m, nil
		}
		if !m.drag.Active() {
			if err := m.drag.Begin(m.press); err != nil {
				m.pressed = false
				return m, nil
			}
			m.mode = types.Drag
		}
		if target, ok := h.target(m); ok && m.drag.Hover(target) {
			return m, nil
		}
		m.drag.Leave()

	case tea.MouseActionRelease:
		m.pressed = false
		if !m.drag.Active() {
			return m, nil
		}
		target, ok := h.target(m)
		if !ok {
			m.drag.Cancel()
			m.mode = types.Normal
			return m, nil
		}
		return m, m.drop(target)
	}
	return m, nil
}

func (m *Model) click(h hit, ctrl, shift bool) {
	if !h.ok {
		if !ctrl && !shift {
			m.selection.Clear()
		}
		return
	}
	if h.parent {
		m.cursor = parentRow
		return
	}
	m.cursor = h.index
	switch {
	case ctrl:
		m.selection.Toggle(h.id)
	case shift:
		m.selection.ExtendRange(m.Render().IDs(), h.id)
	default:
		m.selection.SelectOnly(h.id)
		m.press, m.pressed = h.id, true
	}
}

// hit is what a screen position points at.
type hit struct {
	ok     bool
	parent bool
	index  int
	id     types.EntryID
}

// target returns the folder id a drop at the hit position would use.
func (h hit) target(m *Model) (types.EntryID, bool) {
	switch {
	case !h.ok:
		return "", false
	case h.parent:
		return m.store.Parent()
	default:
		return h.id, true
	}
}

func (m *Model) hit(x, y int) hit {
	if y < views.HeaderLines || y >= views.HeaderLines+m.BodyHeight() {
		return hit{}
	}
	line := y - views.HeaderLines + m.offset
	if m.HasParent() {
		if line == 0 {
			return hit{ok: true, parent: true, index: parentRow}
		}
		line--
	}
	index := line
	if m.viewMode == types.ViewGrid {
		col := x / components.CellWidth
		if col >= m.columns {
			return hit{}
		}
		index = line*m.columns + col
	}
	ids := m.Render().IDs()
	if index < 0 || index >= len(ids) {
		return hit{}
	}
	return hit{ok: true, index: index, id: ids[index]}
}

func (m *Model) handleListing(msg messages.ListingMsg) {
	if msg.Seq != m.listSeq {
		log.LogWithFields(log.F("seq", msg.Seq), log.F("latest", m.listSeq)).Debug("Dropped superseded listing")
		return
	}
	m.loading = false
	m.recorder.RecordListing(msg.Duration, msg.Err == nil)
	if msg.Err != nil {
		log.LogWithError(msg.Err).Warn("Listing failed")
		m.statusBar.SetError("Could not list folder: " + describe(msg.Err))
		return
	}

	dir := types.RootID
	if len(msg.Trail) > 0 {
		dir = msg.Trail[len(msg.Trail)-1].ID
	}
	navigated := dir != m.store.Dir()
	if navigated {
		m.drag.Cancel()
		m.pressed = false
		if m.mode == types.Drag {
			m.mode = types.Normal
		}
		m.query = ""
		m.cursor, m.offset = 0, 0
	}

	entries := m.ignore.Listing(msg.Entries)
	if err := m.coordinator.Load(msg.Trail, entries); err != nil {
		log.LogWithError(err).Error("Rejected listing")
		m.statusBar.SetError("Could not list folder: " + describe(err))
		return
	}
	if m.watchFn != nil && (m.watched == nil || *m.watched != dir) {
		if err := m.watchFn(dir); err != nil {
			log.LogWithFields(log.F("folder", string(dir))).WithError(err).Warn("Cannot watch folder")
		}
		m.watched = &dir
	}

	if msg.Focus != "" {
		if i := m.Render().Index(msg.Focus); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()
}

func (m *Model) handleSettled(s *mutation.Settlement) tea.Cmd {
	rep := m.coordinator.Apply(s)
	if rep.Stale {
		return nil
	}
	if rep.OK() {
		m.statusBar.SetText(rep.Summary())
	} else {
		m.statusBar.SetError(rep.Summary())
	}
	if rep.Created != nil {
		if i := m.Render().Index(rep.Created.ID); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()

	cmds := []tea.Cmd{m.syncSpinner()}
	if rep.NeedsRefresh {
		cmds = append(cmds, m.reload())
	}
	return tea.Batch(cmds...)
}

func (m *Model) startRename() tea.Cmd {
	m.adoptCursor()
	id, ok := m.selection.Sole()
	if !ok {
		m.reject("Cannot rename", errors.NewValidationError("", errors.ErrNotSingleSelection))
		return nil
	}
	e, ok := m.store.Get(id)
	if !ok {
		return nil
	}
	m.prompt, m.renaming = promptRename, id
	m.mode = types.Prompt
	m.openInput("Rename: ", e.Name)
	return textinput.Blink
}

func (m *Model) startDelete() {
	m.adoptCursor()
	if !m.selection.IsNonEmpty() {
		m.reject("Cannot delete", errors.NewValidationError("", errors.ErrEmptySelection))
		return
	}
	m.mode = types.Confirm
}

func (m *Model) startArchive() tea.Cmd {
	m.adoptCursor()
	if !m.selection.IsNonEmpty() {
		m.reject("Cannot archive", errors.NewValidationError("", errors.ErrEmptySelection))
		return nil
	}
	m.prompt = promptArchive
	m.mode = types.Prompt
	m.openInput("Save zip as: ", DefaultArchiveName)
	return textinput.Blink
}

func (m *Model) startDrag() {
	id, ok := m.cursorEntry()
	if !ok {
		return
	}
	if err := m.drag.Begin(id); err != nil {
		m.reject("Cannot move", err)
		return
	}
	m.mode = types.Drag
}

func (m *Model) submitPrompt(kind promptKind, id types.EntryID, value string) tea.Cmd {
	switch kind {
	case promptRename:
		req, err := m.coordinator.Rename(id, value)
		if err != nil {
			m.reject("Cannot rename", err)
			return nil
		}
		return m.issue(req, fmt.Sprintf("Renaming to %q…", req.Pending().NewName))
	case promptNewFolder:
		req, err := m.coordinator.CreateFolder(value)
		if err != nil {
			m.reject("Cannot create folder", err)
			return nil
		}
		return m.issue(req, fmt.Sprintf("Creating %q…", req.Pending().Name))
	case promptArchive:
		req, err := m.coordinator.Archive(m.Selected(), value)
		if err != nil {
			m.reject("Cannot archive", err)
			return nil
		}
		return m.issue(req, fmt.Sprintf("Archiving %d…", len(req.Pending().IDs)))
	}
	return nil
}

// drop ends a drag on target and issues the move it commits to.
func (m *Model) drop(target types.EntryID) tea.Cmd {
	var req *mutation.Request
	err := m.drag.Drop(target, func(source, dest types.EntryID) error {
		r, err := m.coordinator.Move(source, dest)
		req = r
		return err
	})
	m.mode = types.Normal
	if err != nil {
		m.reject("Cannot move", err)
		return nil
	}
	if req == nil {
		return nil
	}
	return m.issue(req, "Moving…")
}

func (m *Model) issue(req *mutation.Request, text string) tea.Cmd {
	m.statusBar.SetText(text)
	return tea.Batch(m.run(req), m.syncSpinner())
}

func (m *Model) reject(prefix string, err error) {
	log.LogWithError(err).Debug(prefix)
	m.statusBar.SetError(prefix + ": " + describe(err))
}

func (m *Model) open() tea.Cmd {
	if m.cursor == parentRow {
		return m.goUp()
	}
	rm := m.Render()
	i := rm.Cursor()
	if i < 0 {
		return nil
	}
	e := rm.Items[i].Entry
	if !e.IsFolder() {
		info := fmt.Sprintf("%s: %s", e.Name, humanize.Bytes(uint64(e.Size)))
		if e.ContentType != "" {
			info += ", " + e.ContentType
		}
		m.statusBar.SetText(info)
		return nil
	}
	return m.load(append(m.store.Trail(), e), "")
}

func (m *Model) goUp() tea.Cmd {
	trail := m.store.Trail()
	if len(trail) == 0 {
		return nil
	}
	return m.load(trail[:len(trail)-1], trail[len(trail)-1].ID)
}

// adoptCursor selects the entry under the cursor when nothing is selected,
// so keyboard actions work without an explicit selection.
func (m *Model) adoptCursor() {
	if m.selection.IsNonEmpty() {
		return
	}
	if id, ok := m.cursorEntry(); ok {
		m.selection.ContextSelect(id)
	}
}

func (m *Model) openInput(prompt, value string) {
	m.input = textinput.New()
	m.input.Prompt = prompt
	m.input.CharLimit = 255
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.input.Blur()
	m.mode = types.Normal
	m.prompt, m.renaming = promptNone, ""
}

// cursorEntry returns the entry under the cursor.
func (m *Model) cursorEntry() (types.EntryID, bool) {
	rm := m.Render()
	i := rm.Cursor()
	if i < 0 || m.cursor == parentRow {
		return "", false
	}
	return rm.Items[i].Entry.ID, true
}

// cursorTarget is cursorEntry extended with the ".." row.
func (m *Model) cursorTarget() (types.EntryID, bool) {
	if m.cursor == parentRow {
		return m.store.Parent()
	}
	return m.cursorEntry()
}

func (m *Model) step() int {
	if m.viewMode == types.ViewGrid {
		return m.columns
	}
	return 1
}

func (m *Model) firstRow() int {
	if m.HasParent() {
		return parentRow
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	if m.cursor == parentRow && delta > 0 {
		m.cursor = 0
	} else {
		m.cursor += delta
	}
	m.clampCursor()

	if m.drag.Active() {
		if target, ok := m.cursorTarget(); ok && m.drag.Hover(target) {
			return
		}
		m.drag.Leave()
	}
}

func (m *Model) clampCursor() {
	n := len(m.Render().Items)
	if m.cursor > n-1 {
		m.cursor = n - 1
	}
	if m.cursor < m.firstRow() {
		m.cursor = m.firstRow()
	}
	m.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen.
func (m *Model) ensureVisible() {
	line := 0
	if m.cursor != parentRow {
		line = m.cursor
		if m.viewMode == types.ViewGrid {
			line /= m.columns
		}
		if m.HasParent() {
			line++
		}
	}
	h := m.BodyHeight()
	if line < m.offset {
		m.offset = line
	}
	if line >= m.offset+h {
		m.offset = line - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// describe turns an error into status bar text. Validation errors show
// their reason only; entry ids mean nothing on screen.
func describe(err error) string {
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		if reason := ve.Unwrap(); reason != nil {
			return reason.Error()
		}
	}
	return strings.TrimSpace(err.Error())
}
