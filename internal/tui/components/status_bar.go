package components

import (
	"fileflow/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows the listing summary, the last message and a spinner
// while requests are in flight.
type StatusBar struct {
	summary string
	text    string
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Theme.Help

	return &StatusBar{
		style:   styles.Theme.Help,
		spinner: s,
	}
}

// SetLoading starts or stops the spinner. The returned command drives the
// animation and is nil unless the spinner just started.
func (s *StatusBar) SetLoading(loading bool) tea.Cmd {
	started := loading && !s.loading
	s.loading = loading
	if started {
		return s.spinner.Tick
	}
	return nil
}

func (s *StatusBar) Loading() bool {
	return s.loading
}

func (s *StatusBar) SetSummary(summary string) {
	s.summary = summary
}

// SetText sets an informational message.
func (s *StatusBar) SetText(text string) {
	s.text = text
	s.style = styles.Theme.Success
}

// SetError sets an error message.
func (s *StatusBar) SetError(text string) {
	s.text = text
	s.style = styles.Theme.Error
}

func (s *StatusBar) Text() string {
	return s.text
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); ok && s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (s *StatusBar) View() string {
	line := styles.Theme.Help.Render(s.summary)
	if s.loading {
		line = s.spinner.View() + " " + line
	}
	if s.text != "" {
		line += styles.Theme.Help.Render("  ·  ") + s.style.Render(s.text)
	}
	return line
}
