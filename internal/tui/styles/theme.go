package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the core UI styles
var Theme = build(DefaultPalette)

type theme struct {
	Title      lipgloss.Style
	Trail      lipgloss.Style
	Header     lipgloss.Style
	File       lipgloss.Style
	Folder     lipgloss.Style
	Selected   lipgloss.Style
	Cursor     lipgloss.Style
	Pending    lipgloss.Style
	DropTarget lipgloss.Style
	Muted      lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
}

func build(p Palette) theme {
	return theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.Primary)),
		Trail: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Folder)),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Underline(true),
		File: lipgloss.NewStyle(),
		Folder: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Folder)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Selected)).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Reverse(true),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Italic(true),
		DropTarget: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Primary)).
			Underline(true).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Error)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Success)),
	}
}
