// Package storage defines the collaborator that owns the file collection.
// Implementations live in the httpstore and fsstore subpackages.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"fileflow/internal/errors"
	"fileflow/pkg/types"
)

// Storage is the remote file collection. Every method may block on I/O and
// must honor ctx. A non-nil error means the operation did not happen.
type Storage interface {
	Rename(ctx context.Context, id types.EntryID, newName string) error
	Delete(ctx context.Context, id types.EntryID) error
	// Move reparents id under dest; types.RootID is the top level.
	Move(ctx context.Context, id, dest types.EntryID) error
	// CreateFolder returns the new entry when the backend reports it, or
	// nil when the caller has to list the parent to see it.
	CreateFolder(ctx context.Context, name string, parent types.EntryID) (*types.FileEntry, error)
	ListDirectory(ctx context.Context, folder types.EntryID) ([]types.FileEntry, error)
}

// Archiver is implemented by storages that can pack entries into a zip
// archive. Folders are packed with their contents.
type Archiver interface {
	Archive(ctx context.Context, ids []types.EntryID, w io.Writer) error
}

// Resolve walks a slash separated path of folder names from the root and
// returns the trail of folders it passes through. "" and "/" resolve to the
// root with an empty trail.
func Resolve(ctx context.Context, s Storage, p string) ([]types.FileEntry, error) {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil, nil
	}

	var trail []types.FileEntry
	parent := types.RootID
	for _, name := range strings.Split(p, "/") {
		entries, err := s.ListDirectory(ctx, parent)
		if err != nil {
			return nil, err
		}
		found := false
		for _, e := range entries {
			if e.Name == name && e.IsFolder() {
				trail = append(trail, e)
				parent = e.ID
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Newf("no folder named %q under %q", name, path.Join(names(trail)...))
		}
	}
	return trail, nil
}

// Lookup resolves a path to an entry: the last element is matched among the
// children of the resolved parent and may be a file. It returns the trail of
// the parent folder as well.
func Lookup(ctx context.Context, s Storage, p string) ([]types.FileEntry, types.FileEntry, error) {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil, types.FileEntry{}, errors.New("the root folder has no entry")
	}
	dir, base := path.Split(p)
	trail, err := Resolve(ctx, s, dir)
	if err != nil {
		return nil, types.FileEntry{}, err
	}
	parent := types.RootID
	if len(trail) > 0 {
		parent = trail[len(trail)-1].ID
	}
	entries, err := s.ListDirectory(ctx, parent)
	if err != nil {
		return nil, types.FileEntry{}, err
	}
	for _, e := range entries {
		if e.Name == base {
			return trail, e, nil
		}
	}
	return nil, types.FileEntry{}, errors.Newf("no entry named %q", p)
}

func names(trail []types.FileEntry) []string {
	out := make([]string, len(trail))
	for i, f := range trail {
		out[i] = f.Name
	}
	return out
}
