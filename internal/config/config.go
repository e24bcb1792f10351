package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in storage.backend.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendHTTP   = "http"
)

// Config represents the application configuration structure.
type Config struct {
	Storage struct {
		Backend     string        `yaml:"backend"`     // memory, local or http
		Server      string        `yaml:"server"`      // Base URL of the FileFlow server
		Token       string        `yaml:"token"`       // Bearer token for the server
		Root        string        `yaml:"root"`        // Directory served by the local backend
		Timeout     time.Duration `yaml:"timeout"`     // Per-request timeout
		Concurrency int           `yaml:"concurrency"` // Parallel deletes per batch
	} `yaml:"storage"`
	View struct {
		Mode        string   `yaml:"mode"`         // list or grid
		GridColumns int      `yaml:"grid_columns"` // Cells per grid row
		ShowHidden  bool     `yaml:"show_hidden"`  // Show dot files
		Ignore      []string `yaml:"ignore"`       // Glob patterns hidden from listings
	} `yaml:"view"`
	Theme struct {
		Name     string `yaml:"name"`     // Theme name (default, dark, light, etc.)
		Primary  string `yaml:"primary"`  // Primary color for titles and borders
		Selected string `yaml:"selected"` // Selected entry color
		Muted    string `yaml:"muted"`    // Secondary text color
		Error    string `yaml:"error"`    // Error message color
		Success  string `yaml:"success"`  // Success message color
		Folder   string `yaml:"folder"`   // Folder name color
	} `yaml:"theme"`
	Log struct {
		Level string `yaml:"level"` // debug, info, warn, error
		File  string `yaml:"file"`  // Log file; empty discards logs inside the TUI
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"` // Listen address for /metrics; empty disables
	} `yaml:"metrics"`
}

// DefaultPath returns ~/.config/fileflow/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fileflow", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Decoding over the defaults keeps them for keys the file omits.
	// Theme colors are cleared so a named theme is not masked by the
	// default palette.
	cfg.Theme.Primary, cfg.Theme.Selected, cfg.Theme.Muted = "", "", ""
	cfg.Theme.Error, cfg.Theme.Success, cfg.Theme.Folder = "", "", ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.fillTheme()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Storage.Backend = BackendMemory
	cfg.Storage.Server = "http://localhost:5000"
	cfg.Storage.Root = "."
	cfg.Storage.Timeout = 30 * time.Second
	cfg.Storage.Concurrency = 4

	cfg.View.Mode = types.ViewList.String()
	cfg.View.GridColumns = 4
	cfg.View.ShowHidden = false
	cfg.View.Ignore = []string{}

	cfg.ApplyTheme("default")

	cfg.Log.Level = "info"
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendLocal:
	case BackendHTTP:
		u, err := url.Parse(c.Storage.Server)
		if err != nil {
			return errors.NewConfigError("invalid server URL", "storage.server", errors.InvalidConfig, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.NewConfigError("server URL must be http or https", "storage.server", errors.InvalidConfig, nil)
		}
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown backend %q", c.Storage.Backend), "storage.backend", errors.InvalidConfig, nil)
	}

	if c.Storage.Backend == BackendLocal {
		info, err := os.Stat(c.Storage.Root)
		if err != nil {
			return errors.NewConfigError("cannot access root directory", "storage.root", errors.InvalidConfig, err)
		}
		if !info.IsDir() {
			return errors.NewConfigError("root is not a directory", "storage.root", errors.InvalidConfig, nil)
		}
	}

	if c.Storage.Timeout <= 0 {
		return errors.NewConfigError("timeout must be positive", "storage.timeout", errors.InvalidConfig, nil)
	}
	if c.Storage.Concurrency < 1 {
		return errors.NewConfigError("concurrency must be >= 1", "storage.concurrency", errors.InvalidConfig, nil)
	}

	if _, err := types.ParseViewMode(c.View.Mode); err != nil {
		return errors.NewConfigError("invalid view mode", "view.mode", errors.InvalidConfig, err)
	}
	if c.View.GridColumns < 1 {
		return errors.NewConfigError("grid columns must be >= 1", "view.grid_columns", errors.InvalidConfig, nil)
	}
	for i, pattern := range c.View.Ignore {
		if pattern == "" {
			return errors.NewConfigError(fmt.Sprintf("ignore pattern %d is empty", i), "view.ignore", errors.InvalidConfig, nil)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return errors.NewConfigError(fmt.Sprintf("ignore pattern %q", pattern), "view.ignore", errors.InvalidConfig, err)
		}
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown log level %q", c.Log.Level), "log.level", errors.InvalidConfig, nil)
	}

	return nil
}

// ViewMode returns the configured view mode, defaulting to list.
func (c *Config) ViewMode() types.ViewMode {
	mode, err := types.ParseViewMode(c.View.Mode)
	if err != nil {
		return types.ViewList
	}
	return mode
}

// GetTheme returns a predefined theme by name.
// If the theme doesn't exist, returns the default theme.
func GetTheme(name string) map[string]string {
	themes := map[string]map[string]string{
		"default": {
			"primary":  "#7B61FF",
			"selected": "#73F59F",
			"muted":    "#666666",
			"error":    "#FF5F5F",
			"success":  "#5FD787",
			"folder":   "#81A1C1",
		},
		"dark": {
			"primary":  "105",
			"selected": "78",
			"muted":    "241",
			"error":    "160",
			"success":  "78",
			"folder":   "33",
		},
		"light": {
			"primary":  "135",
			"selected": "28",
			"muted":    "245",
			"error":    "160",
			"success":  "28",
			"folder":   "25",
		},
		"monochrome": {
			"primary":  "255",
			"selected": "255",
			"muted":    "245",
			"error":    "252",
			"success":  "252",
			"folder":   "250",
		},
	}

	if theme, exists := themes[name]; exists {
		return theme
	}
	return themes["default"]
}

// ApplyTheme sets the theme colors from a predefined theme name.
func (c *Config) ApplyTheme(name string) {
	theme := GetTheme(name)
	if name == "" {
		name = "default"
	}

	c.Theme.Name = name
	c.Theme.Primary = theme["primary"]
	c.Theme.Selected = theme["selected"]
	c.Theme.Muted = theme["muted"]
	c.Theme.Error = theme["error"]
	c.Theme.Success = theme["success"]
	c.Theme.Folder = theme["folder"]
}

// fillTheme sets every color left empty from the named theme.
func (c *Config) fillTheme() {
	theme := GetTheme(c.Theme.Name)
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = theme[key]
		}
	}
	fill(&c.Theme.Primary, "primary")
	fill(&c.Theme.Selected, "selected")
	fill(&c.Theme.Muted, "muted")
	fill(&c.Theme.Error, "error")
	fill(&c.Theme.Success, "success")
	fill(&c.Theme.Folder, "folder")
}

// ListThemes returns a list of available theme names.
func ListThemes() []string {
	return []string{"default", "dark", "light", "monochrome"}
}
