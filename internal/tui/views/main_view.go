package views

import (
	"strings"

	"fileflow/internal/tui/common"
	"fileflow/internal/tui/components"
	"fileflow/internal/tui/styles"
	"fileflow/pkg/types"
)

// HeaderLines is the number of lines above the first listing row: the
// title, the input line and the column header.
const HeaderLines = 3

// RenderMainView lays out the whole screen.
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(renderTitle(m))
	sb.WriteString("\n")
	sb.WriteString(m.InputLine())
	sb.WriteString("\n")

	header, lines := renderBody(m)
	sb.WriteString(header)
	sb.WriteString("\n")

	browser := components.NewFileBrowser(m.Width(), m.BodyHeight())
	browser.SetLines(lines, m.Offset())
	sb.WriteString(browser.View())
	sb.WriteString("\n")

	sb.WriteString(m.StatusLine())
	sb.WriteString("\n")
	sb.WriteString(m.HelpView())
	return sb.String()
}

// BodyLines returns the rendered listing rows without scrolling. Row i of
// the result is the row a mouse event on screen line HeaderLines+i-offset
// refers to.
func BodyLines(m common.ModelReader) []string {
	_, lines := renderBody(m)
	return lines
}

func renderBody(m common.ModelReader) (string, []string) {
	rm := m.Render()
	var parent *components.ParentRow
	if m.HasParent() {
		parent = &components.ParentRow{Focused: m.ParentFocused(), DropTarget: m.ParentDropTarget()}
	}

	if rm.Mode == types.ViewGrid {
		grid := components.NewFileGrid()
		grid.SetRows(rm.Rows(m.GridColumns()))
		grid.SetParent(parent)
		return "", withPlaceholder(grid.Lines(), rm.Total, rm.Visible)
	}

	list := components.NewFileList(m.Width())
	list.SetItems(rm.Items)
	list.SetParent(parent)
	return list.Header(), withPlaceholder(list.Lines(), rm.Total, rm.Visible)
}

func withPlaceholder(lines []string, total, visible int) []string {
	switch {
	case total == 0:
		return append(lines, styles.Theme.Muted.Render("    (empty folder)"))
	case visible == 0:
		return append(lines, styles.Theme.Muted.Render("    (no matches)"))
	}
	return lines
}

func renderTitle(m common.ModelReader) string {
	names := []string{""}
	for _, f := range m.Trail() {
		names = append(names, f.Name)
	}
	path := strings.Join(names, "/")
	if path == "" {
		path = "/"
	}
	title := styles.Theme.Title.Render("fileflow") + " " + styles.Theme.Trail.Render(path)
	mode := m.Render().Mode.String()
	if m.Mode() != types.Normal {
		mode = m.Mode().String() + " · " + mode
	}
	return title + "  " + styles.Theme.Muted.Render("["+mode+"]")
}
