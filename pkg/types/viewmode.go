package types

import "fmt"

// ViewMode selects how the listing is laid out. Both modes present the
// same ordered sequence.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewGrid
)

func (v ViewMode) String() string {
	if v == ViewGrid {
		return "grid"
	}
	return "list"
}

// Toggle returns the other view mode.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewGrid {
		return ViewList
	}
	return ViewGrid
}

// ParseViewMode parses "list" or "grid".
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "", "list":
		return ViewList, nil
	case "grid":
		return ViewGrid, nil
	}
	return ViewList, fmt.Errorf("unknown view mode %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (v ViewMode) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *ViewMode) UnmarshalText(text []byte) error {
	mode, err := ParseViewMode(string(text))
	if err != nil {
		return err
	}
	*v = mode
	return nil
}
