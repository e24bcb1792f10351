package main

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"fileflow/internal/errors"
	"fileflow/internal/filter"
	"fileflow/internal/log"
	"fileflow/internal/metrics"
	"fileflow/internal/storage"
	"fileflow/internal/tui"
	"fileflow/internal/watch"
	"fileflow/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// NewBrowseCmd creates the interactive browser command
func NewBrowseCmd(a *app) *cobra.Command {
	var (
		user      string
		dumpState string
	)

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Open the interactive file browser",
		Long: `Open the terminal file browser at path, a slash separated list of folder
names from the top of the collection. With --dump-state the first listing is
loaded and the resulting UI state is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			b, err := openBackend(ctx, a.cfg, user)
			if err != nil {
				return err
			}

			opts, err := a.browserOptions(ctx, b, args)
			if err != nil {
				return err
			}

			if dumpState != "" {
				m := tui.New(opts)
				defer m.Close()
				if err := m.Refresh(); err != nil {
					return err
				}
				return m.Snapshot().Encode(cmd.OutOrStdout(), dumpState)
			}

			// The screen belongs to the TUI; logs go to the configured file
			// or nowhere.
			if a.cfg.Log.File == "" {
				log.SetOutput(io.Discard)
			}

			if a.cfg.Metrics.Addr != "" {
				reg := prometheus.NewRegistry()
				opts.Recorder = metrics.New(reg)
				stop := serveMetrics(a.cfg.Metrics.Addr, reg)
				defer stop()
			}

			if b.local != nil {
				w, err := watch.New()
				if err != nil {
					log.LogWithError(err).Warn("Live refresh disabled")
				} else if err := w.Start(); err != nil {
					log.LogWithError(err).Warn("Live refresh disabled")
				} else {
					defer w.Stop()
					opts.Changes = w.Changes()
					opts.Watch = func(folder types.EntryID) error {
						rel, err := b.local.Path(folder)
						if err != nil {
							return err
						}
						return w.Watch(filepath.Join(b.root, filepath.FromSlash(rel)))
					}
				}
			}

			m := tui.New(opts)
			defer m.Close()
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "error running browser")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "log in to the http backend as this user (password from $"+passwordEnv+")")
	cmd.Flags().StringVar(&dumpState, "dump-state", "", "print the initial UI state as json or yaml and exit")

	return cmd
}

// browserOptions builds the model options shared by the interactive and
// the --dump-state paths.
func (a *app) browserOptions(ctx context.Context, b *backend, args []string) (tui.Options, error) {
	ignore, err := filter.NewIgnore(a.cfg.View.Ignore, a.cfg.View.ShowHidden)
	if err != nil {
		return tui.Options{}, err
	}

	opts := tui.Options{
		Storage:     b.Storage,
		Ignore:      ignore,
		ViewMode:    a.cfg.ViewMode(),
		GridColumns: a.cfg.View.GridColumns,
		Timeout:     a.cfg.Storage.Timeout,
		Concurrency: a.cfg.Storage.Concurrency,
	}
	if len(args) > 0 {
		ctx, cancel := context.WithTimeout(ctx, a.cfg.Storage.Timeout)
		defer cancel()
		trail, err := storage.Resolve(ctx, b, args[0])
		if err != nil {
			return tui.Options{}, err
		}
		opts.Trail = trail
	}
	return opts, nil
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogWithFields(log.F("addr", addr)).WithError(err).Error("Metrics server stopped")
		}
	}()
	log.LogWithFields(log.F("addr", addr)).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
