package drag

import (
	"testing"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListing map[types.EntryID]types.FileEntry

func (f fakeListing) Get(id types.EntryID) (types.FileEntry, bool) {
	e, ok := f[id]
	return e, ok
}

func (f fakeListing) IsFolder(id types.EntryID) bool {
	if id == types.RootID {
		return true
	}
	e, ok := f[id]
	return ok && e.IsFolder()
}

func listing() fakeListing {
	return fakeListing{
		"a":    {ID: "a", Name: "a.txt"},
		"b":    {ID: "b", Name: "b", Kind: types.KindFolder},
		"c":    {ID: "c", Name: "c", Kind: types.KindFolder},
		"file": {ID: "file", Name: "file.txt"},
	}
}

type recorder struct {
	calls [][2]types.EntryID
}

func (r *recorder) commit(source, dest types.EntryID) error {
	r.calls = append(r.calls, [2]types.EntryID{source, dest})
	return nil
}

func TestLifecycle(t *testing.T) {
	c := New(listing())
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.Begin("a"))
	assert.Equal(t, Dragging, c.State())
	src, ok := c.Source()
	assert.True(t, ok)
	assert.Equal(t, types.EntryID("a"), src)

	assert.True(t, c.Hover("b"))
	assert.Equal(t, Hovering, c.State())
	assert.True(t, c.IsDropTarget("b"))

	assert.False(t, c.Hover("file"), "files are never drop targets")
	assert.Equal(t, Dragging, c.State())
	_, ok = c.Candidate()
	assert.False(t, ok)

	assert.True(t, c.Hover("c"))
	c.Leave()
	assert.Equal(t, Dragging, c.State())

	rec := &recorder{}
	require.NoError(t, c.Drop("b", rec.commit))
	assert.Equal(t, [][2]types.EntryID{{"a", "b"}}, rec.calls)
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Active())
}

func TestBeginRejected(t *testing.T) {
	c := New(listing())
	err := c.Begin("missing")
	assert.True(t, errors.Is(err, errors.ErrUnknownEntry))
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.Begin("a"))
	err = c.Begin("b")
	assert.True(t, errors.Is(err, errors.ErrDragActive))
	src, _ := c.Source()
	assert.Equal(t, types.EntryID("a"), src)
}

func TestNoSelfCommit(t *testing.T) {
	c := New(listing())
	rec := &recorder{}

	require.NoError(t, c.Begin("b"))
	assert.False(t, c.Hover("b"), "a folder is not a target for itself")

	err := c.Drop("b", rec.commit)
	assert.True(t, errors.IsValidation(err))
	assert.True(t, errors.Is(err, errors.ErrSelfMove))
	assert.Empty(t, rec.calls)
	assert.Equal(t, Idle, c.State())
}

func TestDropOnFile(t *testing.T) {
	c := New(listing())
	rec := &recorder{}

	require.NoError(t, c.Begin("a"))
	err := c.Drop("file", rec.commit)
	assert.True(t, errors.Is(err, errors.ErrInvalidTarget))
	assert.Empty(t, rec.calls)
	assert.Equal(t, Idle, c.State())
}

func TestDropWithoutDrag(t *testing.T) {
	c := New(listing())
	rec := &recorder{}
	assert.NoError(t, c.Drop("b", rec.commit))
	assert.Empty(t, rec.calls)
	assert.False(t, c.Hover("b"))
}

func TestCancel(t *testing.T) {
	c := New(listing())
	require.NoError(t, c.Begin("a"))
	c.Hover("b")
	c.Cancel()
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.IsDropTarget("b"))
}

func TestCommitErrorStillResets(t *testing.T) {
	c := New(listing())
	require.NoError(t, c.Begin("a"))
	boom := errors.New("boom")
	err := c.Drop("c", func(_, _ types.EntryID) error {
		assert.Equal(t, Committing, c.State())
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, Idle, c.State())
}

func TestDropOnRoot(t *testing.T) {
	c := New(listing())
	rec := &recorder{}
	require.NoError(t, c.Begin("a"))
	require.NoError(t, c.Drop(types.RootID, rec.commit))
	assert.Equal(t, [][2]types.EntryID{{"a", types.RootID}}, rec.calls)
}
