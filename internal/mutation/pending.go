package mutation

import (
	"fmt"
	"time"

	"fileflow/pkg/types"
)

// Op names a mutation kind.
type Op int

const (
	OpRename Op = iota
	OpDelete
	OpMove
	OpCreateFolder
	OpArchive
)

func (o Op) String() string {
	switch o {
	case OpRename:
		return "rename"
	case OpDelete:
		return "delete"
	case OpMove:
		return "move"
	case OpCreateFolder:
		return "create_folder"
	case OpArchive:
		return "archive"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Pending is one request waiting for the storage service, with the
// post-state it will produce on success.
type Pending struct {
	Op  Op              `json:"op" yaml:"op"`
	IDs []types.EntryID `json:"ids,omitempty" yaml:"ids,omitempty"`
	// NewName is the target name of a rename.
	NewName string `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	// Dest is the destination folder of a move.
	Dest types.EntryID `json:"dest,omitempty" yaml:"dest,omitempty"`
	// Parent and Name describe a folder being created.
	Parent types.EntryID `json:"parent,omitempty" yaml:"parent,omitempty"`
	Name   string        `json:"name,omitempty" yaml:"name,omitempty"`
	// Target is the local file an archive is written to.
	Target string    `json:"target,omitempty" yaml:"target,omitempty"`
	Issued time.Time `json:"issued" yaml:"issued"`

	seq  uint64
	keys []string
}

func idKey(id types.EntryID) string {
	return "id:" + string(id)
}

func folderKey(parent types.EntryID, name string) string {
	return "mkdir:" + string(parent) + "/" + name
}
