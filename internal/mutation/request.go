package mutation

import (
	"context"
	"time"

	"fileflow/internal/errors"
	"fileflow/pkg/types"
)

// Request is an accepted intent. Its ids are already marked pending; Run
// performs the storage I/O and may be called from any goroutine, once.
type Request struct {
	pending Pending
	timeout time.Duration
	now     func() time.Time
	exec    func(ctx context.Context) ([]Result, *types.FileEntry)
}

// Pending describes what the request will do.
func (r *Request) Pending() Pending {
	return r.pending
}

// Run issues the request and waits for every response or the timeout,
// whichever comes first. It never touches coordinator state.
func (r *Request) Run(ctx context.Context) *Settlement {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := r.now()
	results, created := r.exec(ctx)
	return &Settlement{
		seq:      r.pending.seq,
		Op:       r.pending.Op,
		Results:  results,
		Created:  created,
		Duration: r.now().Sub(start),
	}
}

// Result is the outcome for one identifier.
type Result struct {
	ID  types.EntryID
	Err error
}

// Settlement carries the storage outcome of a Request back to the event
// loop, where Coordinator.Apply reconciles it.
type Settlement struct {
	seq      uint64
	Op       Op
	Results  []Result
	Created  *types.FileEntry
	Duration time.Duration
}

// Failed reports whether any identifier failed.
func (s *Settlement) Failed() bool {
	for _, r := range s.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// call runs fn and returns when it finishes or ctx is done. A storage
// implementation that ignores ctx still settles on time; its goroutine
// finishes in the background.
func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()
	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// asRequestError makes every storage failure a *errors.RequestError.
func asRequestError(op Op, id types.EntryID, err error) error {
	if err == nil || errors.IsRequestFailure(err) {
		return err
	}
	return errors.NewRequestError(op.String(), string(id), 0, err)
}
