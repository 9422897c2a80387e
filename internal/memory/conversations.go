// ABOUTME: Immutable conversation records with derived summaries.
// ABOUTME: Created once at store time; no update path exists by design.

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationMeta carries optional metadata stored alongside a
// transcript, mirroring what negotiation sessions record about their
// outcome.
type ConversationMeta struct {
	Outcome    string
	Strategies []string
}

// StoreConversation computes a summary and writes an immutable
// conversation record. An empty id gets a generated one. There is no
// update counterpart: re-storing the same id overwrites the whole
// record (last write wins), it never merges.
func (m *Manager) StoreConversation(ctx context.Context, id string, msgs []Message, meta ConversationMeta) (*Conversation, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("conversation requires at least one message")
	}
	if id == "" {
		id = uuid.New().String()
	}

	record := &Conversation{
		ID:         id,
		Timestamp:  time.Now().UTC(),
		Messages:   msgs,
		Summary:    summarize(msgs),
		Outcome:    meta.Outcome,
		Strategies: meta.Strategies,
	}

	desc := fmt.Sprintf("conversation %s, %d messages", id, len(msgs))
	if err := m.vault.Write(ctx, conversationPrefix+id, record, desc); err != nil {
		return nil, err
	}

	m.logger.Info("conversation stored",
		"id", id,
		"messages", len(msgs),
		"keywords", len(record.Summary.Keywords))
	return record, nil
}

// GetConversation reads a stored conversation by id.
func (m *Manager) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	raw, err := m.vault.Read(ctx, conversationPrefix+id)
	if err != nil {
		return nil, err
	}
	var record Conversation
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding conversation %q: %w", id, err)
	}
	return &record, nil
}
