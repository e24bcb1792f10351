package types

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the browser.
// It lives in pkg/types so the model and the help view share it.
type KeyMap struct {
	// General
	Help    key.Binding
	Quit    key.Binding
	Refresh key.Binding

	// Navigation
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding // previous column in grid view
	Right      key.Binding // next column in grid view
	GotoTop    key.Binding
	GotoBottom key.Binding
	Open       key.Binding // enter a folder, or drop while dragging
	GoBack     key.Binding
	Search     key.Binding
	ToggleView key.Binding

	// Selection
	Toggle      key.Binding
	SelectRange key.Binding
	SelectAll   key.Binding
	Clear       key.Binding

	// Actions
	Rename    key.Binding
	Delete    key.Binding
	NewFolder key.Binding
	Drag      key.Binding
	Archive   key.Binding

	// Prompts
	Accept key.Binding
	Cancel key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),

		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
		Right:      key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
		GotoTop:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		GotoBottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Open:       key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		GoBack:     key.NewBinding(key.WithKeys("h", "backspace"), key.WithHelp("h", "up a folder")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ToggleView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "list/grid")),

		Toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		SelectRange: key.NewBinding(key.WithKeys("V", "shift+down", "shift+up"), key.WithHelp("V", "extend range")),
		SelectAll:   key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select all")),
		Clear:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),

		Rename:    key.NewBinding(key.WithKeys("r", "f2"), key.WithHelp("r", "rename")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		NewFolder: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new folder")),
		Drag:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move (drag)")),
		Archive:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zip selection")),

		Accept: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "accept")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Rename, k.Delete, k.NewFolder, k.Drag, k.Search, k.ToggleView, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.GotoTop, k.GotoBottom},
		{k.Open, k.GoBack, k.Search, k.ToggleView, k.Refresh},
		{k.Toggle, k.SelectRange, k.SelectAll, k.Clear},
		{k.Rename, k.Delete, k.NewFolder, k.Drag, k.Archive},
		{k.Help, k.Quit},
	}
}
