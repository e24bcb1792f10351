// Package httpstore talks to a FileFlow server over its HTTP API.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"fileflow/internal/errors"
	"fileflow/internal/log"
	"fileflow/internal/storage"
	"fileflow/pkg/types"
)

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	// HTTPClient replaces the default client; its Jar is kept if set.
	HTTPClient *http.Client
}

// Client implements storage.Storage against a FileFlow server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu        sync.RWMutex
	authToken string
}

var (
	_ storage.Storage  = (*Client)(nil)
	_ storage.Archiver = (*Client)(nil)
)

// New creates a new client. Session cookies set by the server are kept in
// a cookie jar for the lifetime of the client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server URL %q", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("server URL %q must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		authToken:  cfg.AuthToken,
	}, nil
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// applyAuth adds the auth header to a request if a token is set.
func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// Login posts the login form. The session cookie ends up in the jar. The
// server answers a bad login by showing the form again, so landing back on
// /login is a failure.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := c.do(ctx, "login", "", http.MethodPost, "/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.Request != nil && strings.TrimSuffix(resp.Request.URL.Path, "/") == "/login" {
		return errors.NewRequestError("login", username, 0, errors.New("invalid username or password"))
	}
	return nil
}

// Rename implements storage.Storage.
func (c *Client) Rename(ctx context.Context, id types.EntryID, newName string) error {
	body, err := json.Marshal(renameRequest{NewName: newName})
	if err != nil {
		return err
	}
	return c.expectSuccess(ctx, "rename", id, http.MethodPost, "/rename_file/"+url.PathEscape(string(id)), body)
}

// Delete implements storage.Storage. Any 2xx status is a success.
func (c *Client) Delete(ctx context.Context, id types.EntryID) error {
	resp, err := c.do(ctx, "delete", id, http.MethodDelete, "/delete_file/"+url.PathEscape(string(id)), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	return nil
}

// Move implements storage.Storage. types.RootID is sent as null.
func (c *Client) Move(ctx context.Context, id, dest types.EntryID) error {
	body, err := json.Marshal(moveRequest{DestinationFolderID: wireID(dest)})
	if err != nil {
		return err
	}
	return c.expectSuccess(ctx, "move", id, http.MethodPost, "/move_file/"+url.PathEscape(string(id)), body)
}

// CreateFolder implements storage.Storage. The server may answer with the
// new entry as JSON or with a redirect to an HTML page; the latter returns
// a nil entry.
func (c *Client) CreateFolder(ctx context.Context, name string, parent types.EntryID) (*types.FileEntry, error) {
	form := url.Values{"folder_name": {name}}
	if parent != types.RootID {
		form.Set("parent_folder_id", string(parent))
	}
	resp, err := c.do(ctx, "create_folder", "", http.MethodPost, "/create_folder", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isJSON(resp) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.NewRequestError("create_folder", name, 0, err)
	}

	var status statusResponse
	if err := json.Unmarshal(data, &status); err == nil && status.Success != nil && !*status.Success {
		return nil, errors.NewRequestError("create_folder", name, resp.StatusCode, errors.New(orDefault(status.text(), "server reported failure")))
	}
	var payload struct {
		fileRecord
		Folder *fileRecord `json:"folder"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil
	}
	record := payload.fileRecord
	if payload.Folder != nil {
		record = *payload.Folder
	}
	if record.ID == "" {
		return nil, nil
	}
	record.IsFolder = true
	e := record.entry()
	if e.Name == "" {
		e.Name = name
	}
	return &e, nil
}

// ListDirectory implements storage.Storage. The server has no per-folder
// listing; an empty search returns every entry of the user and the
// requested level is picked out of it.
func (c *Client) ListDirectory(ctx context.Context, folder types.EntryID) ([]types.FileEntry, error) {
	body, err := json.Marshal(searchRequest{})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, "list", folder, http.MethodPost, "/api/search", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.NewRequestError("list", string(folder), 0, err)
	}
	records, err := decodeListing(data)
	if err != nil {
		return nil, errors.NewRequestError("list", string(folder), resp.StatusCode, errors.Wrap(err, "malformed listing"))
	}

	entries := make([]types.FileEntry, 0, len(records))
	for _, r := range records {
		e := r.entry()
		if e.ParentID != folder {
			continue
		}
		entries = append(entries, e)
	}
	log.LogWithFields(log.F("folder", string(folder)), log.F("entries", len(entries))).Debug("listed folder")
	return entries, nil
}

// Archive implements storage.Archiver. The server answers with the zip
// file itself.
func (c *Client) Archive(ctx context.Context, ids []types.EntryID, w io.Writer) error {
	req := archiveRequest{FileIDs: make([]wireID, len(ids))}
	for i, id := range ids {
		req.FileIDs[i] = wireID(id)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "archive", "", http.MethodPost, "/archive", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if isJSON(resp) {
		return errors.NewRequestError("archive", "", resp.StatusCode, errors.New("server answered without an archive"))
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.NewRequestError("archive", "", 0, err)
	}
	return nil
}

// expectSuccess issues a JSON request whose response carries a success
// flag. A 2xx response that is not JSON, or is JSON without the flag,
// counts as success; a JSON body that cannot be decoded does not.
func (c *Client) expectSuccess(ctx context.Context, op string, id types.EntryID, method, path string, body []byte) error {
	resp, err := c.do(ctx, op, id, method, path, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isJSON(resp) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil
	}
	var status statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&status); err != nil {
		return errors.NewRequestError(op, string(id), resp.StatusCode, errors.Wrap(err, "malformed response"))
	}
	if status.Success != nil && !*status.Success {
		return errors.NewRequestError(op, string(id), resp.StatusCode, errors.New(orDefault(status.text(), "server reported failure")))
	}
	return nil
}

// do sends a request and turns transport failures and non-2xx statuses into
// *errors.RequestError. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op string, id types.EntryID, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, errors.NewRequestError(op, string(id), 0, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	c.applyAuth(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogWithFields(log.F("op", op), log.F("id", string(id))).WithError(err).Debug("request failed")
		return nil, errors.NewRequestError(op, string(id), 0, err)
	}
	log.LogWithFields(
		log.F("op", op),
		log.F("method", method),
		log.F("status", resp.StatusCode),
		log.F("duration", time.Since(start)),
	).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errors.NewRequestError(op, string(id), resp.StatusCode, errorBody(resp))
	}
	return resp, nil
}

// errorBody extracts a message from a JSON error body, or returns nil.
func errorBody(resp *http.Response) error {
	if !isJSON(resp) {
		return nil
	}
	var status statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&status); err != nil {
		return nil
	}
	if text := status.text(); text != "" {
		return fmt.Errorf("%s (status %d)", text, resp.StatusCode)
	}
	return nil
}

func isJSON(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
