package fsstore

import (
	"context"
	"io"
	"path"

	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/storage"
	"fileflow/pkg/types"

	"github.com/klauspost/compress/zip"
)

var _ storage.Archiver = (*Store)(nil)

// Archive implements storage.Archiver. Each entry is stored under its own
// name; folders are walked and stored with their relative paths.
func (s *Store) Archive(ctx context.Context, ids []types.EntryID, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.NewRequestError("archive", string(id), 0, err)
		}
		p, err := s.entryPath(id)
		if err != nil {
			return errors.NewRequestError("archive", string(id), 0, err)
		}
		if err := s.pack(ctx, zw, p, path.Base(p)); err != nil {
			return errors.NewRequestError("archive", string(id), 0, err)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.NewRequestError("archive", "", 0, err)
	}
	log.LogWithFields(log.F("entries", len(ids))).Debug("archived entries")
	return nil
}

// pack writes p to zw as name, recursing into folders.
func (s *Store) pack(ctx context.Context, zw *zip.Writer, p, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := s.bfs.Lstat(fsPath(p))
	if err != nil {
		return err
	}
	if info.IsDir() {
		if _, err := zw.Create(name + "/"); err != nil {
			return err
		}
		children, err := s.bfs.ReadDir(fsPath(p))
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := s.pack(ctx, zw, path.Join(p, child.Name()), path.Join(name, child.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	src, err := s.bfs.Open(fsPath(p))
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	_, err = io.Copy(dst, src)
	return err
}
