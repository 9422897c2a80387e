// ABOUTME: Tests for the SQLite archive
// ABOUTME: Covers snapshot upserts, conversation round trips, and ordering

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tactolearn/memvault/internal/memory"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deep", "archive.db")

	a, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSaveSnapshot_AndGetRecord(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	export := &memory.Export{
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Entries: map[string]memory.ExportedEntry{
			"notes/deal": {Description: "the lease deal", Content: "offer at 90"},
		},
	}
	if err := a.SaveSnapshot(ctx, export); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := a.GetRecord(ctx, "notes/deal")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.Content != "offer at 90" {
		t.Errorf("Content mismatch: got %q", got.Content)
	}
	if got.Description != "the lease deal" {
		t.Errorf("Description mismatch: got %q", got.Description)
	}
	if !got.ExportedAt.Equal(export.ExportedAt) {
		t.Errorf("ExportedAt mismatch: got %v, want %v", got.ExportedAt, export.ExportedAt)
	}
}

func TestSaveSnapshot_UpsertsByPath(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	first := &memory.Export{
		ExportedAt: time.Now().UTC(),
		Entries:    map[string]memory.ExportedEntry{"p": {Content: "v1"}},
	}
	second := &memory.Export{
		ExportedAt: time.Now().UTC(),
		Entries:    map[string]memory.ExportedEntry{"p": {Content: "v2"}},
	}
	if err := a.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("first SaveSnapshot failed: %v", err)
	}
	if err := a.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}

	records, err := a.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if records[0].Content != "v2" {
		t.Errorf("expected latest content, got %q", records[0].Content)
	}
}

func TestGetRecord_Missing(t *testing.T) {
	a := newTestArchive(t)
	if _, err := a.GetRecord(context.Background(), "absent"); err == nil {
		t.Error("expected error for missing record")
	}
}

func TestSaveConversation_RoundTrip(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	conv := &memory.Conversation{
		ID:        "conv-1",
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Messages: []memory.Message{
			{Role: "user", Content: "initial offer"},
			{Role: "assistant", Content: "counteroffer"},
		},
		Summary:    memory.Summary{MessageCount: 2, Keywords: []string{"initial", "offer"}, Excerpt: "initial offer"},
		Outcome:    "agreement",
		Strategies: []string{"anchoring", "mirroring"},
	}
	if err := a.SaveConversation(ctx, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := a.GetConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "counteroffer" {
		t.Errorf("messages mismatch: %+v", got.Messages)
	}
	if got.Outcome != "agreement" {
		t.Errorf("Outcome mismatch: got %q", got.Outcome)
	}
	if len(got.Strategies) != 2 {
		t.Errorf("Strategies mismatch: %v", got.Strategies)
	}
	if got.Summary.MessageCount != 2 {
		t.Errorf("Summary mismatch: %+v", got.Summary)
	}
}

func TestListConversationIDs_NewestFirst(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		conv := &memory.Conversation{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Messages:  []memory.Message{{Role: "user", Content: "hi"}},
		}
		if err := a.SaveConversation(ctx, conv); err != nil {
			t.Fatalf("SaveConversation(%s) failed: %v", id, err)
		}
	}

	ids, err := a.ListConversationIDs(ctx)
	if err != nil {
		t.Fatalf("ListConversationIDs failed: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", ids, want)
		}
	}
}
