package filter

import (
	"strings"
	"time"

	"fileflow/internal/errors"
	"fileflow/pkg/types"

	"github.com/dustin/go-humanize"
)

// DateLayout is the calendar date format of the after: and before:
// predicates.
const DateLayout = "2006-01-02"

// Criteria is a parsed search. Zero fields do not constrain.
type Criteria struct {
	// Text is matched against names.
	Text string
	// Types are content type prefixes such as "image/" or "text/plain";
	// an entry matches when any of them prefixes its content type.
	Types []string
	// MinSize and MaxSize bound the size in bytes, inclusive. Zero means
	// unbounded.
	MinSize uint64
	MaxSize uint64
	// After and Before bound the modification day, inclusive.
	After  time.Time
	Before time.Time
}

// Empty reports whether c matches everything.
func (c Criteria) Empty() bool {
	return c.Text == "" && len(c.Types) == 0 && c.MinSize == 0 && c.MaxSize == 0 &&
		c.After.IsZero() && c.Before.IsZero()
}

// ParseQuery splits a search box query into criteria. The predicates are
//
//	type:image/     content type prefix, may repeat
//	size>1MB        at least this size
//	size<10MB       at most this size
//	after:2024-01-31
//	before:2024-12-31
//
// Words that are not well-formed predicates are name text. A query without
// any predicate is used as name text verbatim.
func ParseQuery(query string) Criteria {
	var (
		c     Criteria
		words []string
		found bool
	)
	for _, word := range strings.Fields(query) {
		if c.parsePredicate(word) {
			found = true
			continue
		}
		words = append(words, word)
	}
	if !found {
		c.Text = query
		return c
	}
	c.Text = strings.Join(words, " ")
	return c
}

func (c *Criteria) parsePredicate(word string) bool {
	lower := strings.ToLower(word)
	switch {
	case strings.HasPrefix(lower, "type:") && len(lower) > len("type:"):
		c.Types = append(c.Types, lower[len("type:"):])
		return true
	case strings.HasPrefix(lower, "size>"):
		n, err := humanize.ParseBytes(word[len("size>"):])
		if err != nil {
			return false
		}
		c.MinSize = n
		return true
	case strings.HasPrefix(lower, "size<"):
		n, err := humanize.ParseBytes(word[len("size<"):])
		if err != nil {
			return false
		}
		c.MaxSize = n
		return true
	case strings.HasPrefix(lower, "after:"):
		d, err := time.Parse(DateLayout, word[len("after:"):])
		if err != nil {
			return false
		}
		c.After = d
		return true
	case strings.HasPrefix(lower, "before:"):
		d, err := time.Parse(DateLayout, word[len("before:"):])
		if err != nil {
			return false
		}
		c.Before = d
		return true
	}
	return false
}

// Validate rejects criteria that can match nothing.
func (c Criteria) Validate() error {
	if c.MaxSize != 0 && c.MinSize > c.MaxSize {
		return errors.Newf("minimum size %s is above maximum size %s",
			humanize.IBytes(c.MinSize), humanize.IBytes(c.MaxSize))
	}
	if !c.After.IsZero() && !c.Before.IsZero() && c.Before.Before(c.After) {
		return errors.Newf("%s is before %s",
			c.Before.Format(DateLayout), c.After.Format(DateLayout))
	}
	return nil
}

// matchAttributes checks everything but the name. Folders carry no content
// type or size, so a type or size predicate excludes them.
func (c Criteria) matchAttributes(e types.FileEntry) bool {
	if len(c.Types) > 0 || c.MinSize > 0 || c.MaxSize > 0 {
		if e.IsFolder() {
			return false
		}
	}
	if len(c.Types) > 0 {
		ct := strings.ToLower(e.ContentType)
		ok := false
		for _, t := range c.Types {
			if strings.HasPrefix(ct, t) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if c.MinSize > 0 && (e.Size < 0 || uint64(e.Size) < c.MinSize) {
		return false
	}
	if c.MaxSize > 0 && e.Size >= 0 && uint64(e.Size) > c.MaxSize {
		return false
	}
	if !c.After.IsZero() || !c.Before.IsZero() {
		if e.ModTime.IsZero() {
			return false
		}
		day := dayOf(e.ModTime)
		if !c.After.IsZero() && day.Before(c.After) {
			return false
		}
		if !c.Before.IsZero() && day.After(c.Before) {
			return false
		}
	}
	return true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
