// Package fsstore serves a go-billy filesystem as a file collection. Entry
// identifiers are random UUIDs assigned the first time a path is listed and
// kept across renames and moves for the lifetime of the Store.
package fsstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/storage"
	"fileflow/pkg/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// Store implements storage.Storage on a billy filesystem.
type Store struct {
	bfs billy.Filesystem

	mu     sync.Mutex
	byID   map[types.EntryID]string
	byPath map[string]types.EntryID
}

var _ storage.Storage = (*Store)(nil)

// New serves bfs.
func New(bfs billy.Filesystem) *Store {
	return &Store{
		bfs:    bfs,
		byID:   make(map[types.EntryID]string),
		byPath: make(map[string]types.EntryID),
	}
}

// NewLocal serves the directory root of the host filesystem.
func NewLocal(root string) *Store {
	return New(osfs.New(root))
}

// NewMemory serves an empty in-memory filesystem.
func NewMemory() *Store {
	return New(memfs.New())
}

// Filesystem returns the served filesystem.
func (s *Store) Filesystem() billy.Filesystem {
	return s.bfs
}

// ListDirectory implements storage.Storage. Folders come first, then files,
// each ordered by name.
func (s *Store) ListDirectory(ctx context.Context, folder types.EntryID) ([]types.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewRequestError("list", string(folder), 0, err)
	}
	dir, err := s.pathOf(folder)
	if err != nil {
		return nil, errors.NewRequestError("list", string(folder), 0, err)
	}
	infos, err := s.bfs.ReadDir(fsPath(dir))
	if err != nil {
		return nil, errors.NewRequestError("list", string(folder), 0, err)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].IsDir() != infos[j].IsDir() {
			return infos[i].IsDir()
		}
		return strings.ToLower(infos[i].Name()) < strings.ToLower(infos[j].Name())
	})

	entries := make([]types.FileEntry, 0, len(infos))
	for _, info := range infos {
		child := path.Join(dir, info.Name())
		entries = append(entries, s.entry(child, folder, info))
	}
	return entries, nil
}

// Rename implements storage.Storage.
func (s *Store) Rename(ctx context.Context, id types.EntryID, newName string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewRequestError("rename", string(id), 0, err)
	}
	src, err := s.entryPath(id)
	if err != nil {
		return errors.NewRequestError("rename", string(id), 0, err)
	}
	if strings.ContainsAny(newName, "/\\") || newName == "" || newName == "." || newName == ".." {
		return errors.NewRequestError("rename", string(id), 0, fmt.Errorf("invalid name %q", newName))
	}
	dst := path.Join(path.Dir(src), newName)
	if err := s.relocate(src, dst); err != nil {
		return errors.NewRequestError("rename", string(id), 0, err)
	}
	log.LogWithFields(log.F("from", src), log.F("to", dst)).Debug("renamed entry")
	return nil
}

// Delete implements storage.Storage. Folders are removed with their
// contents.
func (s *Store) Delete(ctx context.Context, id types.EntryID) error {
	if err := ctx.Err(); err != nil {
		return errors.NewRequestError("delete", string(id), 0, err)
	}
	p, err := s.entryPath(id)
	if err != nil {
		return errors.NewRequestError("delete", string(id), 0, err)
	}
	if _, err := s.bfs.Lstat(fsPath(p)); err != nil {
		return errors.NewRequestError("delete", string(id), 0, err)
	}
	if err := util.RemoveAll(s.bfs, fsPath(p)); err != nil {
		return errors.NewRequestError("delete", string(id), 0, err)
	}
	s.forget(p)
	log.LogWithFields(log.F("path", p)).Debug("deleted entry")
	return nil
}

// Move implements storage.Storage.
func (s *Store) Move(ctx context.Context, id, dest types.EntryID) error {
	if err := ctx.Err(); err != nil {
		return errors.NewRequestError("move", string(id), 0, err)
	}
	src, err := s.entryPath(id)
	if err != nil {
		return errors.NewRequestError("move", string(id), 0, err)
	}
	dir, err := s.pathOf(dest)
	if err != nil {
		return errors.NewRequestError("move", string(id), 0, err)
	}
	if dir != "" {
		info, err := s.bfs.Stat(fsPath(dir))
		if err != nil {
			return errors.NewRequestError("move", string(id), 0, err)
		}
		if !info.IsDir() {
			return errors.NewRequestError("move", string(id), 0, fmt.Errorf("%s is not a folder", dir))
		}
	}
	if dir == src || strings.HasPrefix(dir, src+"/") {
		return errors.NewRequestError("move", string(id), 0, fmt.Errorf("cannot move %s into itself", src))
	}
	dst := path.Join(dir, path.Base(src))
	if err := s.relocate(src, dst); err != nil {
		return errors.NewRequestError("move", string(id), 0, err)
	}
	log.LogWithFields(log.F("from", src), log.F("to", dst)).Debug("moved entry")
	return nil
}

// CreateFolder implements storage.Storage. It always returns the entry.
func (s *Store) CreateFolder(ctx context.Context, name string, parent types.EntryID) (*types.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewRequestError("create_folder", name, 0, err)
	}
	if strings.ContainsAny(name, "/\\") || name == "" || name == "." || name == ".." {
		return nil, errors.NewRequestError("create_folder", name, 0, fmt.Errorf("invalid name %q", name))
	}
	dir, err := s.pathOf(parent)
	if err != nil {
		return nil, errors.NewRequestError("create_folder", name, 0, err)
	}
	target := path.Join(dir, name)
	if _, err := s.bfs.Lstat(fsPath(target)); err == nil {
		return nil, errors.NewRequestError("create_folder", name, 0, fmt.Errorf("%q: %w", name, os.ErrExist))
	}
	if err := s.bfs.MkdirAll(fsPath(target), 0o755); err != nil {
		return nil, errors.NewRequestError("create_folder", name, 0, err)
	}
	info, err := s.bfs.Stat(fsPath(target))
	if err != nil {
		return nil, errors.NewRequestError("create_folder", name, 0, err)
	}
	e := s.entry(target, parent, info)
	return &e, nil
}

// Path returns the slash separated path of id relative to the root.
func (s *Store) Path(id types.EntryID) (string, error) {
	return s.pathOf(id)
}

// relocate renames src to dst on disk and in the id index.
func (s *Store) relocate(src, dst string) error {
	if src == dst {
		return nil
	}
	if _, err := s.bfs.Lstat(fsPath(dst)); err == nil {
		return fmt.Errorf("%q: %w", dst, os.ErrExist)
	}
	if err := s.bfs.Rename(fsPath(src), fsPath(dst)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for p, id := range s.byPath {
		if p != src && !strings.HasPrefix(p, src+"/") {
			continue
		}
		moved := dst + strings.TrimPrefix(p, src)
		delete(s.byPath, p)
		s.byPath[moved] = id
		s.byID[id] = moved
	}
	return nil
}

// forget drops p and everything below it from the index.
func (s *Store) forget(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for q, id := range s.byPath {
		if q == p || strings.HasPrefix(q, p+"/") {
			delete(s.byPath, q)
			delete(s.byID, id)
		}
	}
}

func (s *Store) entry(p string, parent types.EntryID, info fs.FileInfo) types.FileEntry {
	e := types.FileEntry{
		ID:       s.idFor(p),
		Name:     info.Name(),
		Kind:     types.KindFile,
		ParentID: parent,
		ModTime:  info.ModTime(),
	}
	if info.IsDir() {
		e.Kind = types.KindFolder
		return e
	}
	e.Size = info.Size()
	e.ContentType = s.detect(p)
	return e
}

// detect sniffs the content type from the head of the file.
func (s *Store) detect(p string) string {
	f, err := s.bfs.Open(fsPath(p))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mt.String()
}

func (s *Store) idFor(p string) types.EntryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPath[p]; ok {
		return id
	}
	id := types.EntryID(uuid.NewString())
	s.byPath[p] = id
	s.byID[id] = p
	return id
}

// pathOf resolves a folder id; the root resolves to "".
func (s *Store) pathOf(id types.EntryID) (string, error) {
	if id == types.RootID {
		return "", nil
	}
	return s.entryPath(id)
}

// entryPath resolves an entry id that must not be the root.
func (s *Store) entryPath(id types.EntryID) (string, error) {
	if id == types.RootID {
		return "", fmt.Errorf("the root folder cannot be changed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return "", fmt.Errorf("unknown entry %s: %w", id, os.ErrNotExist)
	}
	return p, nil
}

// fsPath maps an index path to a billy path.
func fsPath(p string) string {
	return "/" + p
}
