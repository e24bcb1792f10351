package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

// FileBrowser scrolls the rendered rows of a listing.
type FileBrowser struct {
	viewport viewport.Model
}

func NewFileBrowser(width, height int) *FileBrowser {
	return &FileBrowser{viewport: viewport.New(width, height)}
}

// SetLines replaces the content and scrolls so that line offset is the
// first one shown.
func (fb *FileBrowser) SetLines(lines []string, offset int) {
	fb.viewport.SetContent(strings.Join(lines, "\n"))
	fb.viewport.SetYOffset(offset)
}

func (fb *FileBrowser) View() string {
	return fb.viewport.View()
}
