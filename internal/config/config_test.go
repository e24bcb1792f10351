package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fileflow/internal/config"
	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
storage:
  backend: http
  server: "https://files.example.com"
  token: "secret"
  timeout: 5s
  concurrency: 8
view:
  mode: grid
  grid_columns: 6
  ignore: ["*.tmp", ".DS_Store"]
theme:
  name: dark
log:
  level: debug
`
	invalidSyntaxYAML = `
storage:
  backend: "http
 view: [
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, config.BackendHTTP, cfg.Storage.Backend)
		assert.Equal(t, "https://files.example.com", cfg.Storage.Server)
		assert.Equal(t, "secret", cfg.Storage.Token)
		assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
		assert.Equal(t, 8, cfg.Storage.Concurrency)
		assert.Equal(t, types.ViewGrid, cfg.ViewMode())
		assert.Equal(t, 6, cfg.View.GridColumns)
		assert.Equal(t, []string{"*.tmp", ".DS_Store"}, cfg.View.Ignore)
		assert.Equal(t, "dark", cfg.Theme.Name)
		assert.Equal(t, "105", cfg.Theme.Primary)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
		assert.Equal(t, 30*time.Second, cfg.Storage.Timeout)
		assert.Equal(t, 4, cfg.Storage.Concurrency)
		assert.Equal(t, types.ViewList, cfg.ViewMode())
		assert.Equal(t, "default", cfg.Theme.Name)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, "view:\n  mode: grid\n"))
		require.NoError(t, err)
		assert.Equal(t, types.ViewGrid, cfg.ViewMode())
		assert.Equal(t, 4, cfg.View.GridColumns)
		assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing config file")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, "storage:\n  backend: ftp\n"))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		param  string
	}{
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"bad server scheme", func(c *config.Config) {
			c.Storage.Backend = config.BackendHTTP
			c.Storage.Server = "ftp://host"
		}, "storage.server"},
		{"missing local root", func(c *config.Config) {
			c.Storage.Backend = config.BackendLocal
			c.Storage.Root = "/nonexistent/fileflow/root"
		}, "storage.root"},
		{"zero timeout", func(c *config.Config) { c.Storage.Timeout = 0 }, "storage.timeout"},
		{"zero concurrency", func(c *config.Config) { c.Storage.Concurrency = 0 }, "storage.concurrency"},
		{"bad view mode", func(c *config.Config) { c.View.Mode = "tiles" }, "view.mode"},
		{"zero grid columns", func(c *config.Config) { c.View.GridColumns = 0 }, "view.grid_columns"},
		{"bad glob", func(c *config.Config) { c.View.Ignore = []string{"[unterminated"} }, "view.ignore"},
		{"bad log level", func(c *config.Config) { c.Log.Level = "trace2" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var ce *errors.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.param, ce.Param())
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, config.New().Validate())
	})

	t.Run("local root is a directory", func(t *testing.T) {
		cfg := config.New()
		cfg.Storage.Backend = config.BackendLocal
		cfg.Storage.Root = t.TempDir()
		assert.NoError(t, cfg.Validate())
	})
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.New()
	cfg.View.Mode = "grid"
	cfg.Storage.Timeout = 12 * time.Second

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.ViewGrid, loaded.ViewMode())
	assert.Equal(t, 12*time.Second, loaded.Storage.Timeout)
}

func TestThemes(t *testing.T) {
	for _, name := range config.ListThemes() {
		theme := config.GetTheme(name)
		assert.NotEmpty(t, theme["primary"], name)
	}
	assert.Equal(t, config.GetTheme("default"), config.GetTheme("unknown"))

	cfg := config.New()
	cfg.ApplyTheme("light")
	assert.Equal(t, "light", cfg.Theme.Name)
	assert.Equal(t, "135", cfg.Theme.Primary)
}
