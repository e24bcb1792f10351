package main

import (
	"os"

	"fileflow/internal/config"
	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/tui/styles"

	"github.com/spf13/cobra"
)

// app holds what every subcommand shares: the loaded configuration and the
// flags that override it.
type app struct {
	cfgFile     string
	debug       bool
	backend     string
	server      string
	root        string
	view        string
	metricsAddr string

	cfg *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fileflow",
		Short: "Browse and organize a remote file collection",
		Long: `fileflow is a terminal file browser for a FileFlow server, a local
directory or an in-memory demo collection. Select, rename, delete, create
folders and drag entries between folders with the keyboard or the mouse.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/fileflow/config.yaml)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.backend, "backend", "", "storage backend: memory, local or http")
	flags.StringVar(&a.server, "server", "", "FileFlow server URL for the http backend")
	flags.StringVar(&a.root, "root", "", "directory served by the local backend")
	flags.StringVar(&a.view, "view", "", "initial view mode: list or grid")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(NewBrowseCmd(a))
	rootCmd.AddCommand(NewLsCmd(a))
	rootCmd.AddCommand(NewMkdirCmd(a))
	rootCmd.AddCommand(NewRenameCmd(a))
	rootCmd.AddCommand(NewRmCmd(a))
	rootCmd.AddCommand(NewMvCmd(a))
	rootCmd.AddCommand(NewArchiveCmd(a))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// load reads the config file and applies the flags set on the command line.
func (a *app) load(cmd *cobra.Command) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		a.cfg.Storage.Backend = a.backend
	}
	if flags.Changed("server") {
		a.cfg.Storage.Server = a.server
	}
	if flags.Changed("root") {
		a.cfg.Storage.Root = a.root
	}
	if flags.Changed("view") {
		a.cfg.View.Mode = a.view
	}
	if flags.Changed("metrics-addr") {
		a.cfg.Metrics.Addr = a.metricsAddr
	}
	if a.debug {
		a.cfg.Log.Level = "debug"
	}
	if err := a.cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid flags")
	}

	opts := []log.Option{log.WithOutput(os.Stderr), log.WithLevel(a.cfg.Log.Level)}
	if a.cfg.Log.File != "" {
		opts = append(opts, log.WithFile(a.cfg.Log.File))
	}
	log.Configure(opts...)

	styles.Apply(styles.Palette{
		Primary:  a.cfg.Theme.Primary,
		Selected: a.cfg.Theme.Selected,
		Muted:    a.cfg.Theme.Muted,
		Error:    a.cfg.Theme.Error,
		Success:  a.cfg.Theme.Success,
		Folder:   a.cfg.Theme.Folder,
	})
	return nil
}
