// ABOUTME: Tests for the frame decoder covering both response formats.
// ABOUTME: Verifies format invariance, multi-line events, and malformed-body handling.

package frame

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelope = `{"jsonrpc":"2.0","id":"1","result":{"ok":true}}`

func TestDecode_PlainDocument(t *testing.T) {
	doc, err := Decode([]byte(envelope), "application/json")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

func TestDecode_EventStream(t *testing.T) {
	body := "event: message\ndata: " + envelope + "\n\n"
	doc, err := Decode([]byte(body), "text/event-stream")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

// Format-invariance law: the same payload decodes identically from a
// bare document and from a stream carrying it.
func TestDecode_FormatInvariance(t *testing.T) {
	plain, err := Decode([]byte(envelope), "application/json")
	require.NoError(t, err)

	streamed, err := Decode([]byte("data: "+envelope+"\n\n"), "text/event-stream")
	require.NoError(t, err)

	assert.JSONEq(t, string(plain), string(streamed))
}

func TestDecode_MultiLineDataEvent(t *testing.T) {
	// A document split across data lines must be reassembled before
	// parsing. Split mid-object so no single line parses on its own.
	body := "data: {\"jsonrpc\":\"2.0\",\"id\":\"7\",\ndata: \"result\":{\"value\":42}}\n\n"
	doc, err := Decode([]byte(body), "text/event-stream")
	require.NoError(t, err)

	var env struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(doc, &env))
	assert.Equal(t, "7", env.ID)
	assert.JSONEq(t, `{"value":42}`, string(env.Result))
}

func TestDecode_SkipsUnparsableEvents(t *testing.T) {
	// A keepalive comment event followed by the real payload.
	body := ": ping\n\ndata: not-json\n\ndata: " + envelope + "\n\n"
	doc, err := Decode([]byte(body), "text/event-stream")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

func TestDecode_StreamWithoutTrailingBlankLine(t *testing.T) {
	doc, err := Decode([]byte("data: "+envelope), "text/event-stream")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

func TestDecode_StreamHeaderButPlainBody(t *testing.T) {
	// Misleading Content-Type: declared stream, actual bare document.
	doc, err := Decode([]byte(envelope), "text/event-stream")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

func TestDecode_DetectsStreamWithoutHeader(t *testing.T) {
	body := "data: " + envelope + "\n\n"
	doc, err := Decode([]byte(body), "application/json")
	require.NoError(t, err)
	assert.JSONEq(t, envelope, string(doc))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		ct   string
	}{
		{"empty body", "", "application/json"},
		{"whitespace only", "   \n\t", "application/json"},
		{"plain text", "internal server error", "text/plain"},
		{"truncated json", `{"jsonrpc":"2.0","id"`, "application/json"},
		{"stream with no parsable event", "data: oops\n\ndata: still bad\n\n", "text/event-stream"},
		{"bare scalar", `42`, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body), tt.ct)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}
