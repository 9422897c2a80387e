// ABOUTME: Tests for CLI argument handling
// ABOUTME: Bad arguments must fail before a session is ever opened

package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadArgumentsNeverDial(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unexpected request", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := &app{
		cfg: &Config{
			Vault: VaultConfig{Endpoint: srv.URL, APIKey: "k", UserID: "u"},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := a.cmdContext([]string{"bogus", "name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context subcommand")

	err = a.cmdContext([]string{"update", "name", "notakeyvalue"})
	require.Error(t, err)

	err = a.cmdContext([]string{"update", "name"})
	require.Error(t, err)

	err = a.cmdConversation([]string{"bogus", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown conversation subcommand")

	err = a.cmdConversation([]string{"store", "/does/not/exist.json"})
	require.Error(t, err)

	assert.Zero(t, hits.Load(), "argument errors must not open a session")
}

func TestParseKeyValues(t *testing.T) {
	updates, err := parseKeyValues([]string{"stage=closing", "budget=90", "active=true", "note=plain text"})
	require.NoError(t, err)

	// JSON-parsable values keep their type; the rest stay strings.
	assert.Equal(t, "closing", updates["stage"])
	assert.Equal(t, float64(90), updates["budget"])
	assert.Equal(t, true, updates["active"])
	assert.Equal(t, "plain text", updates["note"])

	_, err = parseKeyValues([]string{"missingequals"})
	assert.Error(t, err)

	_, err = parseKeyValues([]string{"=value"})
	assert.Error(t, err)
}
