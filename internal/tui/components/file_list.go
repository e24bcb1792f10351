package components

import (
	"fmt"
	"strings"

	"fileflow/internal/tui/styles"
	"fileflow/internal/view"
	"fileflow/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const (
	sizeWidth = 9
	timeWidth = 15
	typeWidth = 18
	// minNameWidth keeps names readable on narrow terminals.
	minNameWidth = 16
)

// ParentRow is the ".." entry shown below the top level. Dropping on it
// moves the dragged entry one folder up.
type ParentRow struct {
	Focused    bool
	DropTarget bool
}

// FileList renders the list layout: one entry per line with its details.
type FileList struct {
	items  []view.Item
	parent *ParentRow
	width  int
}

func NewFileList(width int) *FileList {
	return &FileList{width: width}
}

func (fl *FileList) SetItems(items []view.Item) {
	fl.items = items
}

// SetParent shows the ".." row above the entries; nil hides it.
func (fl *FileList) SetParent(p *ParentRow) {
	fl.parent = p
}

func (fl *FileList) nameWidth() int {
	w := fl.width - 4 - sizeWidth - timeWidth - typeWidth - 3
	if w < minNameWidth {
		return minNameWidth
	}
	return w
}

// Header returns the column titles.
func (fl *FileList) Header() string {
	line := fmt.Sprintf("    %s %*s %-*s %s",
		runewidth.FillRight("Name", fl.nameWidth()),
		sizeWidth, "Size",
		timeWidth, "Modified",
		"Type")
	return styles.Theme.Header.Render(line)
}

// Lines returns one rendered line per row, the parent row first.
func (fl *FileList) Lines() []string {
	lines := make([]string, 0, len(fl.items)+1)
	if fl.parent != nil {
		lines = append(lines, renderParent(*fl.parent, fl.nameWidth()+4))
	}
	for _, it := range fl.items {
		lines = append(lines, fl.renderItem(it))
	}
	return lines
}

func (fl *FileList) View() string {
	if len(fl.items) == 0 && fl.parent == nil {
		return styles.Theme.Muted.Render("No files found")
	}
	return strings.Join(fl.Lines(), "\n")
}

func (fl *FileList) renderItem(it view.Item) string {
	e := it.Entry
	name := e.Name
	if e.IsFolder() {
		name += "/"
	}
	name = runewidth.FillRight(runewidth.Truncate(name, fl.nameWidth(), "…"), fl.nameWidth())

	size := "-"
	if !e.IsFolder() {
		size = humanize.Bytes(uint64(e.Size))
	}
	modified := ""
	if !e.ModTime.IsZero() {
		modified = humanize.Time(e.ModTime)
	}
	line := fmt.Sprintf("%s %s %*s %-*s %s",
		marker(it),
		nameStyle(it).Render(name),
		sizeWidth, size,
		timeWidth, runewidth.Truncate(modified, timeWidth, "…"),
		runewidth.Truncate(kindLabel(e), typeWidth, "…"))
	if it.Cursor {
		return styles.Theme.Cursor.Render(line)
	}
	return line
}

// marker is the three-cell prefix showing selection and pending state.
func marker(it view.Item) string {
	sel := " "
	if it.Selected {
		sel = "●"
	}
	busy := " "
	if it.Pending {
		busy = "…"
	}
	return " " + sel + busy
}

func nameStyle(it view.Item) lipgloss.Style {
	switch {
	case it.DropTarget:
		return styles.Theme.DropTarget
	case it.Pending:
		return styles.Theme.Pending
	case it.Selected:
		return styles.Theme.Selected
	case it.Entry.IsFolder():
		return styles.Theme.Folder
	default:
		return styles.Theme.File
	}
}

func kindLabel(e types.FileEntry) string {
	if e.IsFolder() {
		return "folder"
	}
	if e.ContentType == "" {
		return "file"
	}
	mt, _, _ := strings.Cut(e.ContentType, ";")
	return mt
}

func renderParent(p ParentRow, width int) string {
	label := runewidth.FillRight("    ..", width)
	switch {
	case p.DropTarget:
		label = styles.Theme.DropTarget.Render(label)
	case p.Focused:
		label = styles.Theme.Cursor.Render(label)
	default:
		label = styles.Theme.Folder.Render(label)
	}
	return label
}
