package types

import (
	"fmt"
	"strings"
	"time"
)

// EntryID identifies a file or folder. It is stable across renames and moves.
type EntryID string

// RootID is the parent of top-level entries.
const RootID EntryID = ""

// IsRoot reports whether id refers to the root folder.
func (id EntryID) IsRoot() bool {
	return id == RootID
}

// Kind distinguishes files from folders.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

// String returns the text form used on the wire and in config files.
func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "file", "":
		*k = KindFile
	case "folder", "dir", "directory":
		*k = KindFolder
	default:
		return fmt.Errorf("unknown entry kind %q", string(text))
	}
	return nil
}

// FileEntry is one record of a directory listing.
type FileEntry struct {
	ID          EntryID   `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Kind        Kind      `json:"kind" yaml:"kind"`
	ParentID    EntryID   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Size        int64     `json:"size" yaml:"size"`
	ModTime     time.Time `json:"mod_time" yaml:"mod_time"`
	ContentType string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

// IsFolder reports whether the entry is a folder
func (e FileEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// String returns a human-readable representation
func (e FileEntry) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s (%s)", e.Kind, e.Name, e.ID))
	if e.Kind == KindFile {
		sb.WriteString(fmt.Sprintf(" %d bytes", e.Size))
	}
	return sb.String()
}

// IDs returns the identifiers of entries in order.
func IDs(entries []FileEntry) []EntryID {
	ids := make([]EntryID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
