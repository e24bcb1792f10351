// Package filter narrows a listing to the entries matching a search query.
package filter

import (
	"strings"

	"fileflow/pkg/types"

	"golang.org/x/text/cases"
)

// Apply returns the entries matching query, in order. Plain words match
// names by substring under Unicode case folding; the predicates understood
// by ParseQuery narrow further. An empty query returns entries unchanged.
func Apply(entries []types.FileEntry, query string) []types.FileEntry {
	if query == "" {
		return entries
	}
	return ParseQuery(query).Apply(entries)
}

// Apply returns the entries satisfying every criterion, in order.
func (c Criteria) Apply(entries []types.FileEntry) []types.FileEntry {
	if c.Empty() {
		return entries
	}
	// A Caser keeps state between calls and must not be shared.
	fold := cases.Fold()
	needle := fold.String(c.Text)
	out := make([]types.FileEntry, 0, len(entries))
	for _, e := range entries {
		if needle != "" && !strings.Contains(fold.String(e.Name), needle) {
			continue
		}
		if c.matchAttributes(e) {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether name matches query under the same rules as Apply
// for a file with no known type, size or time. Only the text part of query
// is consulted.
func Matches(name, query string) bool {
	text := ParseQuery(query).Text
	if text == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(text))
}
