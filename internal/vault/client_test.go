// ABOUTME: Tests for the vault client against an in-memory fake caller.
// ABOUTME: Verifies call mapping, round-trip laws, and degraded discovery.

package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller simulates the remote vault: an in-memory path->entry map
// behind the same call names the real service exposes.
type fakeCaller struct {
	entries map[string]Entry
	order   []string // insertion order for stable listings
	calls   []string // method names, for mapping assertions
	failAll error    // when set, every call fails with this error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{entries: make(map[string]Entry)}
}

func (f *fakeCaller) Call(_ context.Context, method string, params any) (json.RawMessage, error) {
	f.calls = append(f.calls, method)
	if f.failAll != nil {
		return nil, f.failAll
	}

	args := map[string]any{}
	if params != nil {
		raw, _ := json.Marshal(params)
		_ = json.Unmarshal(raw, &args)
	}

	switch method {
	case methodListFiles:
		var files []Entry
		for _, path := range f.order {
			if e, ok := f.entries[path]; ok {
				files = append(files, Entry{Path: e.Path, Description: e.Description})
			}
		}
		return json.Marshal(listResult{Files: files})

	case methodQuery:
		query, _ := args["query"].(string)
		limit := int(args["limit"].(float64))
		var results []Entry
		for _, path := range f.order {
			e, ok := f.entries[path]
			if !ok {
				continue
			}
			if strings.Contains(e.Path, query) || strings.Contains(e.Description, query) {
				results = append(results, e)
				if len(results) >= limit {
					break
				}
			}
		}
		return json.Marshal(queryResult{Results: results})

	case methodUpload:
		path, _ := args["fileName"].(string)
		uri, _ := args["fileUri"].(string)
		desc, _ := args["description"].(string)
		if path == "" {
			return nil, errors.New("fileName is required")
		}
		if _, exists := f.entries[path]; !exists {
			f.order = append(f.order, path)
		}
		f.entries[path] = Entry{Path: path, Description: desc, Content: uri}
		return json.Marshal(map[string]any{"stored": true})

	case methodDeleteFile:
		path, _ := args["path"].(string)
		if _, ok := f.entries[path]; !ok {
			return nil, fmt.Errorf("no such entry %q", path)
		}
		delete(f.entries, path)
		return json.Marshal(map[string]any{"deleted": true})

	case methodProfile:
		return json.Marshal(map[string]any{
			"userId": "user-1",
			"plan":   "pro",
			"quota":  map[string]any{"used": 3},
		})
	}
	return nil, fmt.Errorf("unknown method %q", method)
}

func newTestVault(t *testing.T) (*Client, *fakeCaller) {
	t.Helper()
	caller := newFakeCaller()
	return New(caller, nil), caller
}

// Round-trip law: write followed by read yields the written content.
func TestWriteReadRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, "greeting", "hello", "a greeting"))

	got, err := v.Read(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestWrite_StructuredContent(t *testing.T) {
	v, caller := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, "profile", map[string]any{"name": "Acme"}, ""))

	// Structured content is serialized to JSON inside the data URI.
	stored := caller.entries["profile"].Content
	assert.True(t, strings.HasPrefix(stored, "data:application/json;base64,"), "got %q", stored)

	got, err := v.Read(ctx, "profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme"}`, string(got))
}

func TestWrite_StringUsesTextMIME(t *testing.T) {
	v, caller := newTestVault(t)

	require.NoError(t, v.Write(context.Background(), "note", "plain words", ""))
	assert.True(t, strings.HasPrefix(caller.entries["note"].Content, "data:text/plain;base64,"))
}

func TestWrite_Overwrite(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, "k", "first", ""))
	require.NoError(t, v.Write(ctx, "k", "second", ""))

	got, err := v.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestRead_NotFound(t *testing.T) {
	v, _ := newTestVault(t)

	_, err := v.Read(context.Background(), "missing")

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "read", opErr.Op)
	assert.Equal(t, "missing", opErr.Path)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRead_BestEffortTopHit(t *testing.T) {
	v, caller := newTestVault(t)
	ctx := context.Background()

	// Two entries match the query substring; the single-result search
	// returns whichever the remote ranks first. Documented limitation,
	// not a bug: read is best-effort without key-exact remote lookup.
	require.NoError(t, v.Write(ctx, "ctx/alpha-archive", "stale", "superset of ctx/alpha"))
	require.NoError(t, v.Write(ctx, "ctx/alpha", "fresh", ""))
	caller.order = []string{"ctx/alpha", "ctx/alpha-archive"}

	got, err := v.Read(ctx, "ctx/alpha")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestDelete_ThenReadFails(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, "doomed", "bye", ""))
	require.NoError(t, v.Delete(ctx, "doomed"))

	_, err := v.Read(ctx, "doomed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_PropagatesRemoteFailure(t *testing.T) {
	v, _ := newTestVault(t)

	err := v.Delete(context.Background(), "never-existed")

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "delete", opErr.Op)
}

// Monotonic growth law: N distinct writes yield at least N listings.
func TestList_GrowsWithWrites(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	assert.Empty(t, v.List(ctx))

	paths := []string{"a", "b", "c"}
	for _, p := range paths {
		require.NoError(t, v.Write(ctx, p, "content of "+p, ""))
	}

	entries := v.List(ctx)
	require.Len(t, entries, len(paths))
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Path] = true
	}
	for _, p := range paths {
		assert.True(t, seen[p], "missing %s", p)
	}
}

func TestListAndSearch_DegradeOnFailure(t *testing.T) {
	caller := newFakeCaller()
	caller.failAll = errors.New("connection reset")
	v := New(caller, nil)
	ctx := context.Background()

	// Discovery failures degrade to empty, never error.
	assert.Empty(t, v.List(ctx))
	assert.Empty(t, v.Search(ctx, "anything", 5))
}

func TestSearch_DefaultLimit(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	for i := 0; i < defaultSearchLimit+5; i++ {
		require.NoError(t, v.Write(ctx, fmt.Sprintf("item-%02d", i), "common text", "shared"))
	}

	results := v.Search(ctx, "shared", 0)
	assert.Len(t, results, defaultSearchLimit)
}

func TestGetProfile(t *testing.T) {
	v, _ := newTestVault(t)

	p, err := v.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "pro", p.Plan)
	assert.Contains(t, p.Extra, "quota")
}

func TestCallMapping(t *testing.T) {
	v, caller := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, "p", "c", ""))
	_, _ = v.Read(ctx, "p")
	v.List(ctx)
	v.Search(ctx, "q", 3)
	require.NoError(t, v.Delete(ctx, "p"))

	assert.Equal(t, []string{
		"vault.upload",
		"vault.query",
		"vault.listFiles",
		"vault.query",
		"vault.deleteFile",
	}, caller.calls)
}

func TestDataURI_RoundTrip(t *testing.T) {
	uri, err := encodeDataURI("héllo wörld")
	require.NoError(t, err)

	raw, ok := decodeDataURI(uri)
	require.True(t, ok)
	assert.Equal(t, "héllo wörld", string(raw))
}

func TestDecodeDataURI_PassThrough(t *testing.T) {
	// Non-URI content is the caller's literal payload.
	_, ok := decodeDataURI("just some text")
	assert.False(t, ok)

	_, ok = decodeDataURI("data:text/plain,unencoded")
	assert.False(t, ok)
}
