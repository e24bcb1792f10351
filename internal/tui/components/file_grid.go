package components

import (
	"strings"

	"fileflow/internal/tui/styles"
	"fileflow/internal/view"

	"github.com/mattn/go-runewidth"
)

// CellWidth is the width of one grid cell, separator included.
const CellWidth = 24

// FileGrid renders the grid layout: rows of fixed-width cells holding the
// same ordered items as the list.
type FileGrid struct {
	rows   [][]view.Item
	parent *ParentRow
}

func NewFileGrid() *FileGrid {
	return &FileGrid{}
}

func (fg *FileGrid) SetRows(rows [][]view.Item) {
	fg.rows = rows
}

func (fg *FileGrid) SetParent(p *ParentRow) {
	fg.parent = p
}

func (fg *FileGrid) Lines() []string {
	lines := make([]string, 0, len(fg.rows)+1)
	if fg.parent != nil {
		lines = append(lines, renderParent(*fg.parent, CellWidth-1))
	}
	for _, row := range fg.rows {
		var sb strings.Builder
		for _, it := range row {
			sb.WriteString(renderCell(it))
			sb.WriteString(" ")
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}

func (fg *FileGrid) View() string {
	if len(fg.rows) == 0 && fg.parent == nil {
		return styles.Theme.Muted.Render("No files found")
	}
	return strings.Join(fg.Lines(), "\n")
}

func renderCell(it view.Item) string {
	name := it.Entry.Name
	if it.Entry.IsFolder() {
		name += "/"
	}
	w := CellWidth - 1 - 3
	cell := marker(it) + nameStyle(it).Render(runewidth.FillRight(runewidth.Truncate(name, w, "…"), w))
	if it.Cursor {
		return styles.Theme.Cursor.Render(cell)
	}
	return cell
}
