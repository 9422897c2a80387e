// ABOUTME: Memory vault client mapping abstract operations to remote calls.
// ABOUTME: Discovery degrades to empty results; mutations propagate wrapped failures.

package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Remote call names under the vault namespace.
const (
	methodListFiles  = "vault.listFiles"
	methodQuery      = "vault.query"
	methodUpload     = "vault.upload"
	methodDeleteFile = "vault.deleteFile"
	methodProfile    = "profile.get"
)

// defaultSearchLimit caps search results when the caller passes no limit.
const defaultSearchLimit = 10

// ErrNotFound is returned by Read when no entry matches the path.
var ErrNotFound = errors.New("vault entry not found")

// OperationError wraps a failed vault operation with its name and
// target path for diagnostics.
type OperationError struct {
	Op   string
	Path string
	Err  error
}

func (e *OperationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vault %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Caller issues named remote calls on an established session. The
// protocol client satisfies this.
type Caller interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Entry describes one vault entry as the remote reports it.
type Entry struct {
	Path        string  `json:"fileName"`
	Description string  `json:"description,omitempty"`
	Content     string  `json:"content,omitempty"` // present on query results
	Score       float64 `json:"score,omitempty"`   // search ranking, remote-owned
}

// Profile is the remote account profile for the configured credentials.
type Profile struct {
	UserID string         `json:"userId"`
	Email  string         `json:"email,omitempty"`
	Plan   string         `json:"plan,omitempty"`
	Extra  map[string]any `json:"-"`
}

// Client performs vault operations over an established session.
type Client struct {
	rpc    Caller
	logger *slog.Logger
}

// New creates a vault client on top of a remote caller.
func New(rpc Caller, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{rpc: rpc, logger: logger.With("component", "vault")}
}

// listResult is the vault.listFiles response payload.
type listResult struct {
	Files []Entry `json:"files"`
}

// queryResult is the vault.query response payload.
type queryResult struct {
	Results []Entry `json:"results"`
}

// List returns every entry descriptor in the vault. Degraded on
// failure: an error yields an empty list and a warning, never an error,
// so discovery callers treat "failed" and "empty" identically.
func (c *Client) List(ctx context.Context) []Entry {
	raw, err := c.rpc.Call(ctx, methodListFiles, map[string]any{})
	if err != nil {
		c.logger.Warn("list degraded to empty result", "error", err)
		return nil
	}
	var result listResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("list degraded to empty result", "error", err)
		return nil
	}
	return result.Files
}

// Search runs a free-text query against the vault. Ranking and
// matching semantics are owned by the remote. Degraded on failure, like
// List.
func (c *Client) Search(ctx context.Context, query string, limit int) []Entry {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	raw, err := c.rpc.Call(ctx, methodQuery, map[string]any{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		c.logger.Warn("search degraded to empty result", "query", query, "error", err)
		return nil
	}
	var result queryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("search degraded to empty result", "query", query, "error", err)
		return nil
	}
	return result.Results
}

// Read fetches one entry's content by path, implemented as a
// single-result search. Best-effort: the remote's query semantics are
// not documented as key-exact, so a path that ranks below another
// entry's metadata can mismatch; a mismatched echo is logged. Returns
// ErrNotFound (wrapped) when nothing matches.
func (c *Client) Read(ctx context.Context, path string) ([]byte, error) {
	raw, err := c.rpc.Call(ctx, methodQuery, map[string]any{
		"query": path,
		"limit": 1,
	})
	if err != nil {
		return nil, &OperationError{Op: "read", Path: path, Err: err}
	}

	var result queryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &OperationError{Op: "read", Path: path, Err: err}
	}
	if len(result.Results) == 0 {
		return nil, &OperationError{Op: "read", Path: path, Err: ErrNotFound}
	}

	entry := result.Results[0]
	if entry.Path != "" && entry.Path != path {
		c.logger.Warn("read returned a different path than requested",
			"requested", path,
			"returned", entry.Path)
	}

	if decoded, ok := decodeDataURI(entry.Content); ok {
		return decoded, nil
	}
	return []byte(entry.Content), nil
}

// Write stores content at path, base64-encoded into a data URI.
// Overwriting an existing path is permitted; last write wins.
func (c *Client) Write(ctx context.Context, path string, content any, description string) error {
	uri, err := encodeDataURI(content)
	if err != nil {
		return &OperationError{Op: "write", Path: path, Err: err}
	}

	_, err = c.rpc.Call(ctx, methodUpload, map[string]any{
		"fileUri":     uri,
		"fileName":    path,
		"description": description,
	})
	if err != nil {
		return &OperationError{Op: "write", Path: path, Err: err}
	}

	c.logger.Debug("entry written", "path", path)
	return nil
}

// Delete removes the entry at path. No client-side existence check;
// the remote decides whether a missing path is an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.rpc.Call(ctx, methodDeleteFile, map[string]any{"path": path})
	if err != nil {
		return &OperationError{Op: "delete", Path: path, Err: err}
	}
	c.logger.Debug("entry deleted", "path", path)
	return nil
}

// GetProfile fetches the account profile for the session's credentials.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	raw, err := c.rpc.Call(ctx, methodProfile, map[string]any{})
	if err != nil {
		return nil, &OperationError{Op: "profile", Err: err}
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &OperationError{Op: "profile", Err: err}
	}
	// Preserve fields we don't model for callers that want them.
	var extra map[string]any
	if err := json.Unmarshal(raw, &extra); err == nil {
		delete(extra, "userId")
		delete(extra, "email")
		delete(extra, "plan")
		p.Extra = extra
	}
	return &p, nil
}
