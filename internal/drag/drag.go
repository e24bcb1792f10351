// Package drag implements the drag-and-drop gesture that moves one entry
// into a folder. The controller validates every hover event itself; it
// never trusts the input layer to have filtered targets.
package drag

import (
	"fileflow/internal/errors"
	"fileflow/pkg/types"
)

// State of the gesture.
type State int

const (
	Idle State = iota
	Dragging
	Hovering
	Committing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	case Committing:
		return "committing"
	default:
		return "idle"
	}
}

// Lookup resolves listed entries. *store.Store satisfies it.
type Lookup interface {
	Get(id types.EntryID) (types.FileEntry, bool)
	IsFolder(id types.EntryID) bool
}

// CommitFunc issues the move of source into dest.
type CommitFunc func(source, dest types.EntryID) error

// Controller is the Drag Transfer Controller. At most one drag is active.
type Controller struct {
	lookup    Lookup
	state     State
	source    types.EntryID
	candidate types.EntryID
}

// New returns an idle controller.
func New(lookup Lookup) *Controller {
	return &Controller{lookup: lookup}
}

// Begin starts dragging source. It fails when a drag is already active or
// source is not listed.
func (c *Controller) Begin(source types.EntryID) error {
	if c.state != Idle {
		return errors.NewValidationError(string(source), errors.ErrDragActive)
	}
	if _, ok := c.lookup.Get(source); !ok {
		return errors.NewValidationError(string(source), errors.ErrUnknownEntry)
	}
	c.state = Dragging
	c.source = source
	c.candidate = ""
	return nil
}

// Hover moves the pointer over target and reports whether target is a
// valid drop destination to highlight.
func (c *Controller) Hover(target types.EntryID) bool {
	if c.state != Dragging && c.state != Hovering {
		return false
	}
	if !c.valid(target) {
		c.state = Dragging
		c.candidate = ""
		return false
	}
	c.state = Hovering
	c.candidate = target
	return true
}

// Leave clears the current destination candidate.
func (c *Controller) Leave() {
	if c.state == Hovering {
		c.state = Dragging
		c.candidate = ""
	}
}

// Cancel abandons the gesture without mutating anything.
func (c *Controller) Cancel() {
	c.reset()
}

// Drop ends the gesture on target. commit is invoked only when target is a
// folder other than the source. The controller is idle afterwards whatever
// the outcome. Dropping with no active drag is silent; a release over
// nothing is a Cancel.
func (c *Controller) Drop(target types.EntryID, commit CommitFunc) error {
	if c.state != Dragging && c.state != Hovering {
		return nil
	}
	defer c.reset()

	source := c.source
	if target == source {
		return errors.NewValidationError(string(source), errors.ErrSelfMove)
	}
	if !c.lookup.IsFolder(target) {
		return errors.NewValidationError(string(target), errors.ErrInvalidTarget)
	}
	c.state = Committing
	return commit(source, target)
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Active reports whether a drag is in progress.
func (c *Controller) Active() bool {
	return c.state != Idle
}

// Source returns the dragged entry.
func (c *Controller) Source() (types.EntryID, bool) {
	return c.source, c.state != Idle
}

// Candidate returns the highlighted destination, if any.
func (c *Controller) Candidate() (types.EntryID, bool) {
	return c.candidate, c.state == Hovering
}

// IsDropTarget reports whether id is the highlighted destination.
func (c *Controller) IsDropTarget(id types.EntryID) bool {
	return c.state == Hovering && c.candidate == id
}

func (c *Controller) valid(target types.EntryID) bool {
	return target != c.source && c.lookup.IsFolder(target)
}

func (c *Controller) reset() {
	c.state = Idle
	c.source = ""
	c.candidate = ""
}
