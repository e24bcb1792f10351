package filter

import (
	"strings"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/gobwas/glob"
)

// Ignore drops entries from listings before they reach the store.
type Ignore struct {
	patterns   []glob.Glob
	showHidden bool
}

// NewIgnore compiles the glob patterns. Hidden entries (leading dot) are
// dropped unless showHidden is set.
func NewIgnore(patterns []string, showHidden bool) (*Ignore, error) {
	ig := &Ignore{showHidden: showHidden}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ignore pattern %q", p)
		}
		ig.patterns = append(ig.patterns, g)
	}
	return ig, nil
}

// Skip reports whether name is ignored.
func (ig *Ignore) Skip(name string) bool {
	if ig == nil {
		return false
	}
	if !ig.showHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, g := range ig.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Listing returns entries without the ignored ones, in order.
func (ig *Ignore) Listing(entries []types.FileEntry) []types.FileEntry {
	if ig == nil {
		return entries
	}
	out := make([]types.FileEntry, 0, len(entries))
	for _, e := range entries {
		if !ig.Skip(e.Name) {
			out = append(out, e)
		}
	}
	return out
}
