package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"fileflow/internal/errors"
	"fileflow/internal/filter"
	"fileflow/internal/mutation"
	"fileflow/internal/selection"
	"fileflow/internal/storage"
	"fileflow/internal/store"
	"fileflow/internal/tui"
	"fileflow/internal/tui/components"
	"fileflow/internal/view"
	"fileflow/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// session is one listed folder with a coordinator in front of it, the
// same arrangement the browser uses for a single screen.
type session struct {
	store       *store.Store
	selection   *selection.Model
	coordinator *mutation.Coordinator
}

// openSession lists the last folder of trail.
func (a *app) openSession(ctx context.Context, s storage.Storage, trail []types.FileEntry) (*session, error) {
	dir := types.RootID
	if len(trail) > 0 {
		dir = trail[len(trail)-1].ID
	}
	lctx, cancel := context.WithTimeout(ctx, a.cfg.Storage.Timeout)
	defer cancel()
	entries, err := s.ListDirectory(lctx, dir)
	if err != nil {
		return nil, err
	}

	st := store.New()
	sel := selection.New(st)
	coord := mutation.New(s, st, sel,
		mutation.WithTimeout(a.cfg.Storage.Timeout),
		mutation.WithConcurrency(a.cfg.Storage.Concurrency))
	if err := coord.Load(trail, entries); err != nil {
		return nil, err
	}
	return &session{store: st, selection: sel, coordinator: coord}, nil
}

// settle runs req to completion and applies its outcome.
func (s *session) settle(ctx context.Context, req *mutation.Request, out io.Writer) error {
	rep := s.coordinator.Apply(req.Run(ctx))
	if !rep.OK() {
		return errors.New(rep.Summary())
	}
	fmt.Fprintln(out, successText(rep.Summary()))
	return nil
}

// describe drops the entry identifier from validation errors; users name
// entries by path.
func describe(err error) error {
	var v *errors.ValidationError
	if errors.As(err, &v) {
		return v.Unwrap()
	}
	return err
}

func (a *app) open(cmd *cobra.Command) (context.Context, *backend, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := openBackend(ctx, a.cfg, "")
	return ctx, b, err
}

// NewLsCmd creates the ls command
func NewLsCmd(a *app) *cobra.Command {
	var (
		output string
		all    bool
		search searchFlags
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := search.criteria()
			if err != nil {
				return err
			}
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}
			p := ""
			if len(args) > 0 {
				p = args[0]
			}
			trail, err := storage.Resolve(ctx, b, p)
			if err != nil {
				return err
			}
			sess, err := a.openSession(ctx, b.Storage, trail)
			if err != nil {
				return err
			}

			entries := sess.store.Entries()
			if !all {
				ignore, err := filter.NewIgnore(a.cfg.View.Ignore, a.cfg.View.ShowHidden)
				if err != nil {
					return err
				}
				entries = ignore.Listing(entries)
			}
			entries = crit.Apply(entries)

			w := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "yaml":
				return yaml.NewEncoder(w).Encode(entries)
			case "", "text":
				rm := view.Project(entries, sess.selection, "", types.ViewList)
				list := components.NewFileList(100)
				list.SetItems(rm.Items)
				if len(rm.Items) == 0 {
					fmt.Fprintln(w, mutedText("(empty folder)"))
					return nil
				}
				fmt.Fprintln(w, list.Header())
				fmt.Fprintln(w, list.View())
				return nil
			}
			return errors.Newf("unknown output format %q", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden and ignored entries")
	search.register(cmd)

	return cmd
}

// searchFlags narrow a listing the way the browser's search box does.
type searchFlags struct {
	name    string
	types   []string
	minSize string
	maxSize string
	after   string
	before  string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "only names containing this text")
	flags.StringSliceVar(&f.types, "type", nil, "only content types starting with this prefix, e.g. image/")
	flags.StringVar(&f.minSize, "min-size", "", "only files at least this large, e.g. 10MB")
	flags.StringVar(&f.maxSize, "max-size", "", "only files at most this large")
	flags.StringVar(&f.after, "after", "", "only entries modified on or after this day (YYYY-MM-DD)")
	flags.StringVar(&f.before, "before", "", "only entries modified on or before this day (YYYY-MM-DD)")
}

func (f *searchFlags) criteria() (filter.Criteria, error) {
	c := filter.Criteria{Text: f.name}
	for _, t := range f.types {
		c.Types = append(c.Types, strings.ToLower(t))
	}
	var err error
	if f.minSize != "" {
		if c.MinSize, err = humanize.ParseBytes(f.minSize); err != nil {
			return c, errors.Wrap(err, "invalid --min-size")
		}
	}
	if f.maxSize != "" {
		if c.MaxSize, err = humanize.ParseBytes(f.maxSize); err != nil {
			return c, errors.Wrap(err, "invalid --max-size")
		}
	}
	if f.after != "" {
		if c.After, err = time.Parse(filter.DateLayout, f.after); err != nil {
			return c, errors.Wrap(err, "invalid --after")
		}
	}
	if f.before != "" {
		if c.Before, err = time.Parse(filter.DateLayout, f.before); err != nil {
			return c, errors.Wrap(err, "invalid --before")
		}
	}
	return c, c.Validate()
}

// NewMkdirCmd creates the mkdir command
func NewMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}
			dir, name := path.Split(strings.TrimRight(args[0], "/"))
			trail, err := storage.Resolve(ctx, b, dir)
			if err != nil {
				return err
			}
			sess, err := a.openSession(ctx, b.Storage, trail)
			if err != nil {
				return err
			}
			req, err := sess.coordinator.CreateFolder(name)
			if err != nil {
				return describe(err)
			}
			return sess.settle(ctx, req, cmd.OutOrStdout())
		},
	}
}

// NewRenameCmd creates the rename command
func NewRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}
			trail, entry, err := storage.Lookup(ctx, b, args[0])
			if err != nil {
				return err
			}
			sess, err := a.openSession(ctx, b.Storage, trail)
			if err != nil {
				return err
			}
			sess.selection.SelectOnly(entry.ID)
			req, err := sess.coordinator.Rename(entry.ID, args[1])
			if err != nil {
				return describe(err)
			}
			return sess.settle(ctx, req, cmd.OutOrStdout())
		},
	}
}

// NewRmCmd creates the rm command
func NewRmCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files and folders",
		Long: `Delete files and folders. All paths must be in the same folder; they are
deleted in parallel and each one succeeds or fails on its own.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}

			sess, err := a.openSelection(ctx, b, args)
			if err != nil {
				return err
			}
			ids := sess.selection.IDs()

			if !yes && !confirm(cmd, fmt.Sprintf("Delete %d items? [y/N] ", len(ids))) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedText("Cancelled"))
				return nil
			}

			req, err := sess.coordinator.DeleteMany(sess.selection.Ordered(sess.store.IDs()))
			if err != nil {
				return describe(err)
			}
			return sess.settle(ctx, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// openSelection opens the folder holding every path and selects them.
func (a *app) openSelection(ctx context.Context, b *backend, paths []string) (*session, error) {
	var (
		trail  []types.FileEntry
		parent types.EntryID
		ids    []types.EntryID
	)
	for i, p := range paths {
		t, entry, err := storage.Lookup(ctx, b, p)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			trail, parent = t, entry.ParentID
		} else if entry.ParentID != parent {
			return nil, errors.Newf("%s is not in the same folder as %s", p, paths[0])
		}
		ids = append(ids, entry.ID)
	}

	sess, err := a.openSession(ctx, b.Storage, trail)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !sess.selection.Contains(id) {
			sess.selection.Toggle(id)
		}
	}
	return sess, nil
}

// NewArchiveCmd creates the archive command
func NewArchiveCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "archive <path>...",
		Short: "Download files and folders as a zip archive",
		Long: `Pack files and folders into a zip archive on the local disk. All paths
must be in the same folder; folders are packed with their contents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}
			sess, err := a.openSelection(ctx, b, args)
			if err != nil {
				return err
			}
			req, err := sess.coordinator.Archive(sess.selection.Ordered(sess.store.IDs()), output)
			if err != nil {
				return describe(err)
			}
			return sess.settle(ctx, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", tui.DefaultArchiveName, "zip file to write")

	return cmd
}

// NewMvCmd creates the mv command
func NewMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <folder>",
		Short: "Move an entry into a folder",
		Long: `Move an entry into a folder. The folder must sit next to the entry or be
one of its ancestors ("/" is the top level), the same targets the browser
offers while dragging.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, b, err := a.open(cmd)
			if err != nil {
				return err
			}
			trail, entry, err := storage.Lookup(ctx, b, args[0])
			if err != nil {
				return err
			}
			destTrail, err := storage.Resolve(ctx, b, args[1])
			if err != nil {
				return err
			}
			dest := types.RootID
			if len(destTrail) > 0 {
				dest = destTrail[len(destTrail)-1].ID
			}

			sess, err := a.openSession(ctx, b.Storage, trail)
			if err != nil {
				return err
			}
			req, err := sess.coordinator.Move(entry.ID, dest)
			if err != nil {
				return describe(err)
			}
			return sess.settle(ctx, req, cmd.OutOrStdout())
		},
	}
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
