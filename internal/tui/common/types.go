package common

import (
	"fileflow/internal/view"
	"fileflow/pkg/types"
)

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	Render() view.RenderModel
	Trail() []types.FileEntry
	Mode() types.Mode
	ShowHelp() bool

	// Parent row state; the row is shown only below the top level.
	HasParent() bool
	ParentFocused() bool
	ParentDropTarget() bool

	// InputLine is the search box, prompt or confirmation question.
	InputLine() string
	StatusLine() string
	HelpView() string

	Width() int
	Offset() int
	BodyHeight() int
	GridColumns() int
}
