package filter

import (
	"testing"

	"fileflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(names ...string) []types.FileEntry {
	out := make([]types.FileEntry, len(names))
	for i, n := range names {
		out[i] = types.FileEntry{ID: types.EntryID(n), Name: n}
	}
	return out
}

func names(es []types.FileEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

func TestApply(t *testing.T) {
	all := entries("Report.PDF", "notes.txt", "report-draft.md", "Straße.txt", "photo.jpg")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query is identity", "", names(all)},
		{"case insensitive", "REPORT", []string{"Report.PDF", "report-draft.md"}},
		{"substring", ".txt", []string{"notes.txt", "Straße.txt"}},
		{"unicode folding", "STRASSE", []string{"Straße.txt"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(all, tt.query)))
		})
	}
}

func TestApplyIsOrderedSubsequence(t *testing.T) {
	all := entries("b1", "a1", "c", "b2", "a2")
	for _, q := range []string{"", "a", "b", "1", "2", "x"} {
		got := Apply(all, q)
		// Every result appears in the input, in the same relative order
		i := 0
		for _, g := range got {
			for i < len(all) && all[i].ID != g.ID {
				i++
			}
			require.Less(t, i, len(all), "query %q produced an out-of-order entry", q)
			i++
		}
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Hello", ""))
	assert.True(t, Matches("Hello", "hell"))
	assert.False(t, Matches("Hello", "world"))
}

func TestIgnore(t *testing.T) {
	ig, err := NewIgnore([]string{"*.tmp", "node_modules"}, false)
	require.NoError(t, err)

	got := ig.Listing(entries("a.txt", "b.tmp", ".hidden", "node_modules", "c"))
	assert.Equal(t, []string{"a.txt", "c"}, names(got))

	ig, err = NewIgnore(nil, true)
	require.NoError(t, err)
	assert.False(t, ig.Skip(".hidden"))

	var none *Ignore
	assert.Len(t, none.Listing(entries("a", ".b")), 2)

	_, err = NewIgnore([]string{"[unclosed"}, false)
	assert.Error(t, err)
}
