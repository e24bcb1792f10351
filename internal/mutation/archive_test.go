package mutation

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archivingStorage writes the archived ids as the archive body.
type archivingStorage struct {
	*fakeStorage
	err error
}

func (a *archivingStorage) Archive(_ context.Context, ids []types.EntryID, w io.Writer) error {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	if err := a.record("archive:"+strings.Join(names, ","), ""); err != nil {
		return err
	}
	if a.err != nil {
		_, _ = io.WriteString(w, "partial")
		return a.err
	}
	_, err := io.WriteString(w, strings.Join(names, ","))
	return err
}

func newArchiveFixture(t *testing.T) (*fixture, *archivingStorage) {
	t.Helper()
	fx := newFixture(t, abc())
	as := &archivingStorage{fakeStorage: fx.fake}
	fx.coord = New(as, fx.store, fx.sel)
	return fx, as
}

func TestArchive(t *testing.T) {
	fx, _ := newArchiveFixture(t)
	target := filepath.Join(t.TempDir(), "out.zip")

	req, err := fx.coord.Archive([]types.EntryID{"a", "b", "a"}, target)
	require.NoError(t, err)
	assert.Equal(t, []types.EntryID{"a", "b"}, req.Pending().IDs)
	assert.True(t, fx.coord.IsPending("a"))
	assert.NoFileExists(t, target)

	// Archived entries cannot be removed underneath the archive
	fx.sel.SelectOnly("b")
	_, err = fx.coord.DeleteMany([]types.EntryID{"b"})
	requireValidation(t, err, errors.ErrPendingMutation)

	rep := fx.settle(t, req)
	require.True(t, rep.OK(), rep.Summary())
	assert.Equal(t, "Archived 2 items to "+target, rep.Summary())
	assert.Equal(t, []types.EntryID{"a", "b", "c"}, fx.store.IDs())
	assert.False(t, fx.coord.IsPending("a"))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(data))
}

func TestArchiveFailureLeavesNoFile(t *testing.T) {
	fx, as := newArchiveFixture(t)
	as.err = errors.NewRequestError("archive", "", http.StatusForbidden, nil)
	dir := t.TempDir()
	target := filepath.Join(dir, "out.zip")

	req, err := fx.coord.Archive([]types.EntryID{"c"}, target)
	require.NoError(t, err)
	rep := fx.settle(t, req)

	require.False(t, rep.OK())
	assert.Equal(t, `Could not archive "out.zip": server returned 403 Forbidden`, rep.Summary())
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files, "the partial archive is removed")
}

func TestArchiveValidation(t *testing.T) {
	t.Run("not supported", func(t *testing.T) {
		fx := newFixture(t, abc())
		_, err := fx.coord.Archive([]types.EntryID{"a"}, "out.zip")
		requireValidation(t, err, errors.ErrNotSupported)
	})

	tests := []struct {
		name   string
		ids    []types.EntryID
		target string
		reason error
	}{
		{"nothing selected", nil, "out.zip", errors.ErrEmptySelection},
		{"no target", []types.EntryID{"a"}, "  ", errors.ErrEmptyName},
		{"unknown entry", []types.EntryID{"a", "zzz"}, "out.zip", errors.ErrUnknownEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, as := newArchiveFixture(t)
			_, err := fx.coord.Archive(tt.ids, tt.target)
			requireValidation(t, err, tt.reason)
			assert.Empty(t, as.Calls())
		})
	}

	t.Run("pending entry", func(t *testing.T) {
		fx, _ := newArchiveFixture(t)
		fx.sel.SelectOnly("a")
		_, err := fx.coord.Rename("a", "x")
		require.NoError(t, err)
		_, err = fx.coord.Archive([]types.EntryID{"a"}, "out.zip")
		requireValidation(t, err, errors.ErrPendingMutation)
	})
}
