package httpstore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"fileflow/pkg/types"
)

// wireID is an entry identifier as the server sends it: usually a JSON
// number, sometimes a string, null for the root.
type wireID types.EntryID

func (id wireID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireTime accepts RFC 3339 and the zone-less ISO form the server emits.
type wireTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		// null or a non-string leaves the zero time
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = wireTime(parsed.UTC())
			return nil
		}
	}
	return nil
}

// fileRecord is one element of a listing response.
type fileRecord struct {
	ID         wireID   `json:"id"`
	Filename   string   `json:"filename"`
	IsFolder   bool     `json:"is_folder"`
	ParentID   wireID   `json:"parent_folder_id"`
	ModifiedAt wireTime `json:"modified_at"`
	Filesize   int64    `json:"filesize"`
	Mimetype   *string  `json:"mimetype"`
}

func (r fileRecord) entry() types.FileEntry {
	e := types.FileEntry{
		ID:       types.EntryID(r.ID),
		Name:     r.Filename,
		Kind:     types.KindFile,
		ParentID: types.EntryID(r.ParentID),
		Size:     r.Filesize,
		ModTime:  time.Time(r.ModifiedAt),
	}
	if r.IsFolder {
		e.Kind = types.KindFolder
		e.Size = 0
	}
	if r.Mimetype != nil {
		e.ContentType = *r.Mimetype
	}
	return e
}

// decodeListing accepts a bare array or an object with a "files" array.
func decodeListing(data []byte) ([]fileRecord, error) {
	trimmed := bytes.TrimSpace(data)
	var records []fileRecord
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Files []fileRecord `json:"files"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Files, nil
	}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// searchRequest is the body of POST /api/search. Only the text query is
// sent; the other criteria are applied locally.
type searchRequest struct {
	Query string `json:"query"`
}

type archiveRequest struct {
	FileIDs []wireID `json:"file_ids"`
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

type moveRequest struct {
	DestinationFolderID wireID `json:"destination_folder_id"`
}

// statusResponse covers the success flag and the error fields the server
// uses in its JSON bodies.
type statusResponse struct {
	Success     *bool  `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (r statusResponse) text() string {
	for _, s := range []string{r.Error, r.Description, r.Message} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
