// Package mutation turns user intents into storage requests and reconciles
// the listing with their outcomes.
//
// Intents are validated synchronously on the event loop and return a
// *Request. Request.Run does the I/O and can run anywhere; the resulting
// *Settlement goes back to the event loop through Coordinator.Apply, which
// is the only place the store and the selection change after a mutation.
// Nothing is applied before the storage service confirms it.
package mutation

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/selection"
	"fileflow/internal/storage"
	"fileflow/internal/store"
	"fileflow/pkg/types"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// Recorder receives mutation metrics. *metrics.Recorder implements it.
type Recorder interface {
	ObserveIntent(op, result string)
	ObserveSettlement(op, outcome string, duration time.Duration)
	SetPending(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveIntent(string, string)                    {}
func (nopRecorder) ObserveSettlement(string, string, time.Duration) {}
func (nopRecorder) SetPending(int)                                  {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithConcurrency limits how many deletes of one batch run at once.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRecorder reports metrics to r.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator is the Mutation Coordinator. It must only be used from one
// goroutine, except for Request.Run.
type Coordinator struct {
	storage   storage.Storage
	store     *store.Store
	selection *selection.Model

	timeout     time.Duration
	concurrency int
	recorder    Recorder
	now         func() time.Time

	seq      uint64
	inflight map[uint64]*Pending
	busy     map[string]uint64
}

// New creates a coordinator over the given store and selection.
func New(s storage.Storage, st *store.Store, sel *selection.Model, opts ...Option) *Coordinator {
	c := &Coordinator{
		storage:     s,
		store:       st,
		selection:   sel,
		timeout:     DefaultTimeout,
		concurrency: 4,
		recorder:    nopRecorder{},
		now:         time.Now,
		inflight:    make(map[uint64]*Pending),
		busy:        make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rename asks to rename the sole selected entry. Name collisions are left
// to the storage service.
func (c *Coordinator) Rename(id types.EntryID, newName string) (*Request, error) {
	sole, ok := c.selection.Sole()
	if !ok || sole != id {
		return nil, c.reject(OpRename, id, errors.ErrNotSingleSelection)
	}
	entry, ok := c.store.Get(id)
	if !ok {
		return nil, c.reject(OpRename, id, errors.ErrUnknownEntry)
	}
	name := strings.TrimSpace(newName)
	if err := checkName(name); err != nil {
		return nil, c.reject(OpRename, id, err)
	}
	if name == entry.Name {
		return nil, c.reject(OpRename, id, errors.ErrUnchangedName)
	}
	if c.IsPending(id) {
		return nil, c.reject(OpRename, id, errors.ErrPendingMutation)
	}

	p := Pending{Op: OpRename, IDs: []types.EntryID{id}, NewName: name}
	return c.issue(p, []string{idKey(id)}, func(ctx context.Context) ([]Result, *types.FileEntry) {
		_, err := call(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.storage.Rename(ctx, id, name)
		})
		return []Result{{ID: id, Err: asRequestError(OpRename, id, err)}}, nil
	}), nil
}

// DeleteMany asks to delete every id, one request each. Outcomes are
// independent; the request settles when all have answered.
func (c *Coordinator) DeleteMany(ids []types.EntryID) (*Request, error) {
	if !c.selection.IsNonEmpty() || len(ids) == 0 {
		return nil, c.reject(OpDelete, "", errors.ErrEmptySelection)
	}

	seen := make(map[types.EntryID]bool, len(ids))
	targets := make([]types.EntryID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !c.store.Has(id) {
			return nil, c.reject(OpDelete, id, errors.ErrUnknownEntry)
		}
		if c.IsPending(id) {
			return nil, c.reject(OpDelete, id, errors.ErrPendingMutation)
		}
		targets = append(targets, id)
	}

	keys := make([]string, len(targets))
	for i, id := range targets {
		keys[i] = idKey(id)
	}
	limit := c.concurrency
	p := Pending{Op: OpDelete, IDs: targets}
	return c.issue(p, keys, func(ctx context.Context) ([]Result, *types.FileEntry) {
		results := make([]Result, len(targets))
		var g errgroup.Group
		g.SetLimit(limit)
		for i, id := range targets {
			g.Go(func() error {
				_, err := call(ctx, func(ctx context.Context) (struct{}, error) {
					return struct{}{}, c.storage.Delete(ctx, id)
				})
				results[i] = Result{ID: id, Err: asRequestError(OpDelete, id, err)}
				return nil
			})
		}
		_ = g.Wait()
		return results, nil
	}), nil
}

// Move asks to move id into dest, which must be a known folder: a listed
// one, one on the trail, or the root.
func (c *Coordinator) Move(id, dest types.EntryID) (*Request, error) {
	entry, ok := c.store.Get(id)
	if !ok {
		return nil, c.reject(OpMove, id, errors.ErrUnknownEntry)
	}
	if id == dest {
		return nil, c.reject(OpMove, id, errors.ErrSelfMove)
	}
	if !c.store.IsFolder(dest) {
		return nil, c.reject(OpMove, dest, errors.ErrInvalidTarget)
	}
	if entry.ParentID == dest {
		return nil, c.reject(OpMove, id, errors.ErrAlreadyThere)
	}
	if c.store.IsAncestor(id, dest) {
		return nil, c.reject(OpMove, id, errors.ErrCycle)
	}
	if c.IsPending(id) {
		return nil, c.reject(OpMove, id, errors.ErrPendingMutation)
	}
	if c.IsPending(dest) {
		return nil, c.reject(OpMove, dest, errors.ErrPendingMutation)
	}

	p := Pending{Op: OpMove, IDs: []types.EntryID{id}, Dest: dest}
	return c.issue(p, []string{idKey(id)}, func(ctx context.Context) ([]Result, *types.FileEntry) {
		_, err := call(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.storage.Move(ctx, id, dest)
		})
		return []Result{{ID: id, Err: asRequestError(OpMove, id, err)}}, nil
	}), nil
}

// CreateFolder asks to create a folder named name in the listed folder.
func (c *Coordinator) CreateFolder(name string) (*Request, error) {
	name = strings.TrimSpace(name)
	if err := checkName(name); err != nil {
		return nil, c.reject(OpCreateFolder, "", err)
	}
	parent := c.store.Dir()
	key := folderKey(parent, name)
	if _, busy := c.busy[key]; busy {
		return nil, c.reject(OpCreateFolder, "", errors.ErrPendingMutation)
	}

	p := Pending{Op: OpCreateFolder, Parent: parent, Name: name}
	return c.issue(p, []string{key}, func(ctx context.Context) ([]Result, *types.FileEntry) {
		created, err := call(ctx, func(ctx context.Context) (*types.FileEntry, error) {
			return c.storage.CreateFolder(ctx, name, parent)
		})
		if err != nil {
			return []Result{{Err: asRequestError(OpCreateFolder, "", err)}}, nil
		}
		var id types.EntryID
		if created != nil {
			id = created.ID
		}
		return []Result{{ID: id}}, created
	}), nil
}

// Archive asks to pack ids into a zip file at target on the local disk.
// The file only appears once the archive is complete. The entries stay
// pending until then so they cannot be deleted or moved underneath it.
func (c *Coordinator) Archive(ids []types.EntryID, target string) (*Request, error) {
	if len(ids) == 0 {
		return nil, c.reject(OpArchive, "", errors.ErrEmptySelection)
	}
	archiver, ok := c.storage.(storage.Archiver)
	if !ok {
		return nil, c.reject(OpArchive, "", errors.ErrNotSupported)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, c.reject(OpArchive, "", errors.ErrEmptyName)
	}

	seen := make(map[types.EntryID]bool, len(ids))
	targets := make([]types.EntryID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !c.store.Has(id) {
			return nil, c.reject(OpArchive, id, errors.ErrUnknownEntry)
		}
		if c.IsPending(id) {
			return nil, c.reject(OpArchive, id, errors.ErrPendingMutation)
		}
		targets = append(targets, id)
	}

	keys := make([]string, len(targets))
	for i, id := range targets {
		keys[i] = idKey(id)
	}
	p := Pending{Op: OpArchive, IDs: targets, Target: target}
	return c.issue(p, keys, func(ctx context.Context) ([]Result, *types.FileEntry) {
		_, err := call(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, writeArchive(ctx, archiver, targets, target)
		})
		return []Result{{Err: asRequestError(OpArchive, "", err)}}, nil
	}), nil
}

// writeArchive writes to a temporary file next to target and renames it
// into place on success.
func writeArchive(ctx context.Context, a storage.Archiver, ids []types.EntryID, target string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".fileflow-*.zip")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = a.Archive(ctx, ids, tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Apply reconciles the store and the selection with a settlement. Entries
// that left the listing while the request was in flight are not touched.
func (c *Coordinator) Apply(s *Settlement) Report {
	p, ok := c.inflight[s.seq]
	if !ok {
		return Report{Op: s.Op, Stale: true}
	}
	delete(c.inflight, s.seq)
	for _, k := range p.keys {
		delete(c.busy, k)
	}
	c.recorder.SetPending(len(c.inflight))

	rep := Report{Op: p.Op, Pending: *p}
	switch p.Op {
	case OpRename:
		c.applyRename(p, s, &rep)
	case OpDelete:
		c.applyDelete(s, &rep)
	case OpMove:
		c.applyMove(p, s, &rep)
	case OpCreateFolder:
		c.applyCreate(p, s, &rep)
	case OpArchive:
		c.applyArchive(p, s, &rep)
	}
	c.selection.Prune(c.store.IDs())

	outcome := "success"
	if !rep.OK() {
		outcome = "failure"
		log.LogWithFields(log.F("op", p.Op.String()), log.F("failed", len(rep.Failed))).
			WithError(rep.Err()).Warn("mutation failed")
	} else {
		log.LogWithFields(log.F("op", p.Op.String()), log.F("ids", len(p.IDs))).Debug("mutation settled")
	}
	c.recorder.ObserveSettlement(p.Op.String(), outcome, s.Duration)
	return rep
}

func (c *Coordinator) applyRename(p *Pending, s *Settlement, rep *Report) {
	r := s.Results[0]
	if r.Err != nil {
		rep.Failed = append(rep.Failed, c.failure(r))
		return
	}
	if !c.store.Has(r.ID) {
		rep.Ignored = append(rep.Ignored, r.ID)
		return
	}
	if err := c.store.Rename(r.ID, p.NewName); err != nil {
		rep.NeedsRefresh = true
	}
	rep.Succeeded = append(rep.Succeeded, r.ID)
}

func (c *Coordinator) applyDelete(s *Settlement, rep *Report) {
	var removed []types.EntryID
	for _, r := range s.Results {
		switch {
		case r.Err != nil:
			rep.Failed = append(rep.Failed, c.failure(r))
		case c.store.Has(r.ID):
			removed = append(removed, r.ID)
			rep.Succeeded = append(rep.Succeeded, r.ID)
		default:
			rep.Ignored = append(rep.Ignored, r.ID)
		}
	}
	c.store.Remove(removed...)
}

func (c *Coordinator) applyMove(p *Pending, s *Settlement, rep *Report) {
	r := s.Results[0]
	if r.Err != nil {
		rep.Failed = append(rep.Failed, c.failure(r))
		return
	}
	if !c.store.Has(r.ID) {
		rep.Ignored = append(rep.Ignored, r.ID)
		return
	}
	if _, err := c.store.Reparent(r.ID, p.Dest); err != nil {
		rep.NeedsRefresh = true
	}
	rep.Succeeded = append(rep.Succeeded, r.ID)
}

func (c *Coordinator) applyCreate(p *Pending, s *Settlement, rep *Report) {
	r := s.Results[0]
	if r.Err != nil {
		rep.Failed = append(rep.Failed, Failure{Name: p.Name, Err: r.Err})
		return
	}
	rep.Created = s.Created
	if c.store.Dir() != p.Parent {
		return
	}
	if s.Created == nil {
		rep.NeedsRefresh = true
		return
	}
	rep.Succeeded = append(rep.Succeeded, s.Created.ID)
	if c.store.Has(s.Created.ID) {
		return
	}
	if err := c.store.Append(*s.Created); err != nil {
		rep.NeedsRefresh = true
	}
}

func (c *Coordinator) applyArchive(p *Pending, s *Settlement, rep *Report) {
	r := s.Results[0]
	if r.Err != nil {
		rep.Failed = append(rep.Failed, Failure{Name: filepath.Base(p.Target), Err: r.Err})
		return
	}
	rep.Succeeded = append(rep.Succeeded, p.IDs...)
}

// Load replaces the listing and prunes the selection. Pending requests stay
// pending; their settlements are ignored if their entries are gone.
func (c *Coordinator) Load(trail, entries []types.FileEntry) error {
	if err := c.store.Load(trail, entries); err != nil {
		return err
	}
	c.selection.Prune(c.store.IDs())
	return nil
}

// IsPending reports whether id has a request in flight.
func (c *Coordinator) IsPending(id types.EntryID) bool {
	_, ok := c.busy[idKey(id)]
	return ok
}

// Pending returns the in-flight requests in issue order.
func (c *Coordinator) Pending() []Pending {
	out := make([]Pending, 0, len(c.inflight))
	for _, p := range c.inflight {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (c *Coordinator) issue(p Pending, keys []string, exec func(context.Context) ([]Result, *types.FileEntry)) *Request {
	c.seq++
	p.seq = c.seq
	p.keys = keys
	p.Issued = c.now()
	c.inflight[p.seq] = &p
	for _, k := range keys {
		c.busy[k] = p.seq
	}
	c.recorder.ObserveIntent(p.Op.String(), "accepted")
	c.recorder.SetPending(len(c.inflight))
	return &Request{pending: p, timeout: c.timeout, now: c.now, exec: exec}
}

func (c *Coordinator) reject(op Op, id types.EntryID, reason error) error {
	c.recorder.ObserveIntent(op.String(), "rejected")
	return errors.NewValidationError(string(id), reason)
}

func (c *Coordinator) failure(r Result) Failure {
	f := Failure{ID: r.ID, Name: string(r.ID), Err: r.Err}
	if e, ok := c.store.Get(r.ID); ok {
		f.Name = e.Name
	}
	return f
}

func checkName(name string) error {
	if name == "" {
		return errors.ErrEmptyName
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return errors.ErrInvalidName
	}
	return nil
}
