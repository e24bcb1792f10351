package mutation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fileflow/internal/errors"
	"fileflow/pkg/types"
)

// Failure is a request that did not succeed for one entry.
type Failure struct {
	ID   types.EntryID
	Name string
	Err  error
}

// Report is what applying a settlement changed locally.
type Report struct {
	Op        Op
	Pending   Pending
	Succeeded []types.EntryID
	Failed    []Failure
	// Ignored lists successes for entries no longer in the listing.
	Ignored []types.EntryID
	Created *types.FileEntry
	// NeedsRefresh is set when the storage service confirmed a change the
	// local listing cannot reproduce, e.g. a folder created without an
	// entry in the response.
	NeedsRefresh bool
	// Stale is set for a settlement that was already applied.
	Stale bool
}

// OK reports whether nothing failed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the per-entry failures, or returns nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// Summary returns a one-line message for the status bar.
func (r Report) Summary() string {
	if r.Stale {
		return ""
	}
	if r.OK() {
		switch r.Op {
		case OpRename:
			return fmt.Sprintf("Renamed to %q", r.Pending.NewName)
		case OpDelete:
			return "Deleted " + items(len(r.Succeeded))
		case OpMove:
			return "Moved " + items(len(r.Succeeded))
		case OpCreateFolder:
			return fmt.Sprintf("Created folder %q", r.Pending.Name)
		case OpArchive:
			return fmt.Sprintf("Archived %s to %s", items(len(r.Succeeded)), r.Pending.Target)
		}
		return ""
	}

	if r.Op == OpDelete && len(r.Pending.IDs) > 1 {
		failed := make([]string, len(r.Failed))
		for i, f := range r.Failed {
			failed[i] = fmt.Sprintf("%s (%s)", f.Name, reason(f.Err))
		}
		return fmt.Sprintf("Deleted %d of %d; failed: %s",
			len(r.Succeeded), len(r.Pending.IDs), strings.Join(failed, ", "))
	}

	f := r.Failed[0]
	switch r.Op {
	case OpCreateFolder:
		return fmt.Sprintf("Could not create folder %q: %s", r.Pending.Name, reason(f.Err))
	default:
		return fmt.Sprintf("Could not %s %q: %s", r.Op, f.Name, reason(f.Err))
	}
}

func items(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

// reason strips the operation prefix a RequestError carries.
func reason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var reqErr *errors.RequestError
	if errors.As(err, &reqErr) {
		if inner := reqErr.Unwrap(); inner != nil {
			return inner.Error()
		}
		if s := reqErr.Status(); s != 0 {
			return fmt.Sprintf("server returned %d %s", s, http.StatusText(s))
		}
	}
	return err.Error()
}
