package types

// Mode represents the current input mode of the TUI
type Mode int

const (
	// Normal is the default mode for navigation and selection
	Normal Mode = iota
	// Search is the mode for typing into the search box
	Search
	// Prompt is the mode for the rename and new-folder prompts
	Prompt
	// Confirm is the delete confirmation mode
	Confirm
	// Drag is active while a keyboard drag is in progress
	Drag
)

func (m Mode) String() string {
	switch m {
	case Search:
		return "SEARCH"
	case Prompt:
		return "PROMPT"
	case Confirm:
		return "CONFIRM"
	case Drag:
		return "DRAG"
	default:
		return "NORMAL"
	}
}
