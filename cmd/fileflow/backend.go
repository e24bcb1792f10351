package main

import (
	"context"
	"os"
	"path"

	"fileflow/internal/config"
	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/storage"
	"fileflow/internal/storage/fsstore"
	"fileflow/internal/storage/httpstore"

	"github.com/go-git/go-billy/v5/util"
)

// passwordEnv holds the password used with --user on the http backend.
const passwordEnv = "FILEFLOW_PASSWORD"

// backend is an opened storage. local is set for filesystem backends so
// the browser can watch the folder on screen.
type backend struct {
	storage.Storage
	local *fsstore.Store
	root  string
}

// demoFiles seed the memory backend.
var demoFiles = map[string]string{
	"/readme.txt":               "fileflow demo collection\n",
	"/notes.md":                 "# Notes\n\n- try tab for the grid\n",
	"/photos/beach.png":         "\x89PNG\r\n\x1a\n",
	"/photos/2024/summit.png":   "\x89PNG\r\n\x1a\n",
	"/documents/report.pdf":     "%PDF-1.4\n",
	"/documents/budget.csv":     "item,amount\nrent,1200\n",
	"/documents/drafts/todo.md": "- finish the report\n",
	"/archive/old.zip":          "PK\x03\x04",
}

// openBackend builds the storage named in the configuration. user logs in
// to the http backend when set.
func openBackend(ctx context.Context, cfg *config.Config, user string) (*backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		s := fsstore.NewLocal(cfg.Storage.Root)
		log.LogWithFields(log.F("root", cfg.Storage.Root)).Debug("Opened local backend")
		return &backend{Storage: s, local: s, root: cfg.Storage.Root}, nil

	case config.BackendHTTP:
		c, err := httpstore.New(httpstore.Config{
			BaseURL:   cfg.Storage.Server,
			Timeout:   cfg.Storage.Timeout,
			AuthToken: cfg.Storage.Token,
		})
		if err != nil {
			return nil, err
		}
		if user != "" {
			ctx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
			defer cancel()
			if err := c.Login(ctx, user, os.Getenv(passwordEnv)); err != nil {
				return nil, errors.Wrap(err, "login failed")
			}
		}
		log.LogWithFields(log.F("server", cfg.Storage.Server)).Debug("Opened http backend")
		return &backend{Storage: c}, nil

	case config.BackendMemory:
		s := fsstore.NewMemory()
		if err := seed(s); err != nil {
			return nil, err
		}
		return &backend{Storage: s}, nil
	}
	return nil, errors.Newf("unknown backend %q", cfg.Storage.Backend)
}

func seed(s *fsstore.Store) error {
	fs := s.Filesystem()
	for p, content := range demoFiles {
		if err := fs.MkdirAll(path.Dir(p), 0o755); err != nil {
			return err
		}
		if err := util.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
