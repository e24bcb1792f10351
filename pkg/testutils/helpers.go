package testutils

import (
	"strings"
	"testing"

	"fileflow/internal/storage/fsstore"

	"github.com/charmbracelet/x/ansi"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// DefaultFiles is a small tree used across package tests. Names ending in
// "/" are folders.
var DefaultFiles = map[string]string{
	"a.txt":       "alpha",
	"b.txt":       "bravo",
	"c.txt":       "charlie",
	"docs/":       "",
	"docs/q1.pdf": "%PDF-1.4\n",
	"archive/":    "",
	".hidden":     "secret",
	"scratch.tmp": "tmp",
}

// MemoryStore serves files from an in-memory filesystem.
func MemoryStore(t *testing.T, files map[string]string) *fsstore.Store {
	t.Helper()
	bfs := memfs.New()
	for name, content := range files {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, bfs.MkdirAll("/"+strings.TrimSuffix(name, "/"), 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(bfs, "/"+name, []byte(content), 0o644))
	}
	return fsstore.New(bfs)
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	return ansi.Strip(str)
}
