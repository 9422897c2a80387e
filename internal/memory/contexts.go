// ABOUTME: Context record operations: create, read, and merge-update.
// ABOUTME: Update is a serialized read-modify-write with create-on-miss.

package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tactolearn/memvault/internal/vault"
)

// CreateContext writes a new context record with the given initial data
// and an empty history.
func (m *Manager) CreateContext(ctx context.Context, name string, initial map[string]any) (*Context, error) {
	if name == "" {
		return nil, fmt.Errorf("context name is required")
	}
	if initial == nil {
		initial = map[string]any{}
	}

	now := time.Now().UTC()
	record := &Context{
		Name:    name,
		Created: now,
		Updated: now,
		Data:    initial,
		History: []HistoryEntry{},
	}

	if err := m.writeContext(ctx, record); err != nil {
		return nil, err
	}
	m.logger.Info("context created", "name", name, "keys", len(initial))
	return record, nil
}

// GetContext reads a context record by name.
func (m *Manager) GetContext(ctx context.Context, name string) (*Context, error) {
	raw, err := m.vault.Read(ctx, contextPrefix+name)
	if err != nil {
		return nil, err
	}
	var record Context
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding context %q: %w", name, err)
	}
	return &record, nil
}

// UpdateContext shallow-merges updates into the named context's data
// and appends one history entry. A missing context is created with
// updates as its initial data and an empty history (create-on-miss).
//
// The read-modify-write cycle is serialized per context name within
// this process. Cross-process updaters are uncoordinated: the remote
// offers no versioning, so their writes race last-write-wins.
func (m *Manager) UpdateContext(ctx context.Context, name string, updates map[string]any) (*Context, error) {
	if name == "" {
		return nil, fmt.Errorf("context name is required")
	}
	unlock := m.lockContext(name)
	defer unlock()

	record, err := m.GetContext(ctx, name)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return m.CreateContext(ctx, name, updates)
		}
		return nil, err
	}

	if record.Data == nil {
		record.Data = map[string]any{}
	}
	for k, v := range updates {
		record.Data[k] = v
	}
	record.Updated = time.Now().UTC()
	record.History = append(record.History, HistoryEntry{
		Timestamp: record.Updated,
		Changes:   updates,
	})

	if err := m.writeContext(ctx, record); err != nil {
		return nil, err
	}
	m.logger.Debug("context updated",
		"name", name,
		"changes", len(updates),
		"history_len", len(record.History))
	return record, nil
}

// writeContext persists the full context record back to the vault.
func (m *Manager) writeContext(ctx context.Context, record *Context) error {
	desc := fmt.Sprintf("context %s, updated %s", record.Name, record.Updated.Format(time.RFC3339))
	return m.vault.Write(ctx, contextPrefix+record.Name, record, desc)
}
