// ABOUTME: Manager wires the vault into higher-level memory records.
// ABOUTME: Owns record types, path layout, and per-context write serialization.

package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tactolearn/memvault/internal/vault"
)

// Vault path prefixes for client-composed records.
const (
	contextPrefix      = "contexts/"
	conversationPrefix = "conversations/"
)

// Vault is what the manager needs from the vault client.
type Vault interface {
	List(ctx context.Context) []vault.Entry
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, content any, description string) error
}

// Context is a named, mergeable record with an append-only change
// history. Created on first update if absent; never deleted
// automatically.
type Context struct {
	Name    string         `json:"name"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
	Data    map[string]any `json:"data"`
	History []HistoryEntry `json:"history"`
}

// HistoryEntry records one applied update.
type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Changes   map[string]any `json:"changes"`
}

// Message is one turn of a stored conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an immutable stored transcript with its derived
// summary. There is deliberately no update operation: conversations
// are append-only historical records.
type Conversation struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Messages   []Message `json:"messages"`
	Summary    Summary   `json:"summary"`
	Outcome    string    `json:"outcome,omitempty"`
	Strategies []string  `json:"strategies,omitempty"`
}

// Manager composes context and conversation records from primitive
// vault operations.
type Manager struct {
	vault  Vault
	logger *slog.Logger

	// locks serializes read-modify-write cycles per context name.
	// Without it, concurrent updaters on the same name lose writes.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager over a vault client.
func NewManager(v Vault, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		vault:  v,
		logger: logger.With("component", "memory"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockContext acquires the per-name mutex and returns its unlock.
// Mutexes are created on demand and kept for the manager's lifetime;
// context names are few and long-lived, so the map does not grow
// unboundedly in practice.
func (m *Manager) lockContext(name string) func() {
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
