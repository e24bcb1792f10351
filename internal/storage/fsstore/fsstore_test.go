package fsstore

import (
	"context"
	"os"
	"testing"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	bfs := memfs.New()
	require.NoError(t, util.WriteFile(bfs, "/notes.txt", []byte("hello world\n"), 0o644))
	require.NoError(t, util.WriteFile(bfs, "/docs/report.pdf", []byte("%PDF-1.4\n%fake\n"), 0o644))
	require.NoError(t, util.WriteFile(bfs, "/docs/2024/q1.txt", []byte("q1\n"), 0o644))
	require.NoError(t, bfs.MkdirAll("/archive", 0o755))
	return New(bfs)
}

func byName(t *testing.T, entries []types.FileEntry, name string) types.FileEntry {
	t.Helper()
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no entry named %q", name)
	return types.FileEntry{}
}

func names(entries []types.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestListDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "docs", "notes.txt"}, names(root), "folders first")

	notes := byName(t, root, "notes.txt")
	assert.Equal(t, types.KindFile, notes.Kind)
	assert.Equal(t, int64(12), notes.Size)
	assert.Equal(t, "text/plain; charset=utf-8", notes.ContentType)
	assert.Equal(t, types.RootID, notes.ParentID)

	docs := byName(t, root, "docs")
	assert.True(t, docs.IsFolder())

	inside, err := s.ListDirectory(ctx, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024", "report.pdf"}, names(inside))
	assert.Equal(t, "application/pdf", byName(t, inside, "report.pdf").ContentType)
	for _, e := range inside {
		assert.Equal(t, docs.ID, e.ParentID)
	}

	// Ids are stable across listings
	again, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, byName(t, again, "docs").ID)

	_, err = s.ListDirectory(ctx, "not-an-id")
	assert.True(t, errors.IsRequestFailure(err))
}

func TestRenameKeepsIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	docs := byName(t, root, "docs")
	inside, err := s.ListDirectory(ctx, docs.ID)
	require.NoError(t, err)
	report := byName(t, inside, "report.pdf")

	require.NoError(t, s.Rename(ctx, docs.ID, "papers"))

	p, err := s.Path(docs.ID)
	require.NoError(t, err)
	assert.Equal(t, "papers", p)
	p, err = s.Path(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "papers/report.pdf", p, "descendants follow the rename")

	root, err = s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, byName(t, root, "papers").ID)

	err = s.Rename(ctx, docs.ID, "notes.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	assert.Error(t, s.Rename(ctx, docs.ID, "a/b"))
	assert.Error(t, s.Rename(ctx, types.RootID, "x"))
}

func TestMove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	notes := byName(t, root, "notes.txt")
	archive := byName(t, root, "archive")
	docs := byName(t, root, "docs")

	require.NoError(t, s.Move(ctx, notes.ID, archive.ID))
	inArchive, err := s.ListDirectory(ctx, archive.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, names(inArchive))
	assert.Equal(t, notes.ID, inArchive[0].ID)

	// Back to the top level
	require.NoError(t, s.Move(ctx, notes.ID, types.RootID))
	root, err = s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	assert.Contains(t, names(root), "notes.txt")

	inside, err := s.ListDirectory(ctx, docs.ID)
	require.NoError(t, err)
	sub := byName(t, inside, "2024")
	err = s.Move(ctx, docs.ID, sub.ID)
	assert.Error(t, err, "a folder cannot move into its own subtree")

	err = s.Move(ctx, notes.ID, byName(t, inside, "report.pdf").ID)
	assert.Error(t, err, "files are not destinations")
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	docs := byName(t, root, "docs")
	inside, err := s.ListDirectory(ctx, docs.ID)
	require.NoError(t, err)
	report := byName(t, inside, "report.pdf")

	require.NoError(t, s.Delete(ctx, docs.ID))
	root, err = s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "notes.txt"}, names(root))

	_, err = s.Path(report.ID)
	assert.Error(t, err, "descendant ids are forgotten")
	assert.Error(t, s.Delete(ctx, docs.ID))
}

func TestCreateFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.ListDirectory(ctx, types.RootID)
	require.NoError(t, err)
	archive := byName(t, root, "archive")

	e, err := s.CreateFolder(ctx, "2023", archive.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.IsFolder())
	assert.Equal(t, archive.ID, e.ParentID)

	listed, err := s.ListDirectory(ctx, archive.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, e.ID, listed[0].ID)

	_, err = s.CreateFolder(ctx, "2023", archive.ID)
	assert.True(t, errors.Is(err, os.ErrExist))
	_, err = s.CreateFolder(ctx, "", types.RootID)
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ListDirectory(ctx, types.RootID)
	assert.True(t, errors.Is(err, context.Canceled))
}
