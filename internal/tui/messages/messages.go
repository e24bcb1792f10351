package messages

import (
	"time"

	"fileflow/internal/mutation"
	"fileflow/internal/watch"
	"fileflow/pkg/types"
)

type ErrorMsg struct {
	Err error
}

// ListingMsg carries a directory listing. Focus names the entry the cursor
// should land on, typically the folder just left. Seq orders listings so
// that only the answer to the latest request is shown.
type ListingMsg struct {
	Seq      uint64
	Trail    []types.FileEntry
	Entries  []types.FileEntry
	Focus    types.EntryID
	Duration time.Duration
	Err      error
}

// SettledMsg delivers the outcome of a mutation request.
type SettledMsg struct {
	Settlement *mutation.Settlement
}

type ChangeMsg struct {
	Change watch.Change
}
