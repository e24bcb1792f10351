package styles

// Palette holds the configurable colors. Values are anything lipgloss.Color
// accepts: hex strings or ANSI numbers.
type Palette struct {
	Primary  string
	Selected string
	Muted    string
	Error    string
	Success  string
	Folder   string
}

var DefaultPalette = Palette{
	Primary:  "#7B61FF",
	Selected: "#73F59F",
	Muted:    "#666666",
	Error:    "#FF5F5F",
	Success:  "#5FD787",
	Folder:   "#81A1C1",
}

// Apply rebuilds Theme from p. Empty colors keep their defaults.
func Apply(p Palette) {
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&p.Primary, DefaultPalette.Primary)
	fill(&p.Selected, DefaultPalette.Selected)
	fill(&p.Muted, DefaultPalette.Muted)
	fill(&p.Error, DefaultPalette.Error)
	fill(&p.Success, DefaultPalette.Success)
	fill(&p.Folder, DefaultPalette.Folder)
	Theme = build(p)
}
