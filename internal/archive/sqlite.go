// ABOUTME: SQLite-backed archive using modernc.org/sqlite with WAL mode
// ABOUTME: Schema is created automatically; records upsert by key

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tactolearn/memvault/internal/memory"
)

// Archive is a local SQLite store for vault snapshots and conversations.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// Record is one archived vault entry.
type Record struct {
	Path        string
	Description string
	Content     string
	ExportedAt  time.Time
	ArchivedAt  time.Time
}

// Open creates or opens the archive database at the given path.
// Parent directories are created if needed.
func Open(path string) (*Archive, error) {
	logger := slog.Default().With("component", "archive")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	a := &Archive{db: db, logger: logger}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("archive opened", "path", path)
	return a, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			path        TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL,
			exported_at TEXT NOT NULL,
			archived_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_exported ON records(exported_at);

		CREATE TABLE IF NOT EXISTS conversations (
			id            TEXT PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			outcome       TEXT NOT NULL DEFAULT '',
			messages_json TEXT NOT NULL,
			summary_json  TEXT NOT NULL,
			strategies_json TEXT NOT NULL DEFAULT '[]',
			archived_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_timestamp ON conversations(timestamp);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// SaveSnapshot upserts every entry of a vault export into the archive.
func (a *Archive) SaveSnapshot(ctx context.Context, export *memory.Export) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	exported := export.ExportedAt.UTC().Format(time.RFC3339)
	for path, entry := range export.Entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (path, description, content, exported_at, archived_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				description = excluded.description,
				content     = excluded.content,
				exported_at = excluded.exported_at,
				archived_at = excluded.archived_at`,
			path, entry.Description, entry.Content, exported, now)
		if err != nil {
			return fmt.Errorf("archiving record %q: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	a.logger.Info("snapshot archived", "records", len(export.Entries))
	return nil
}

// GetRecord reads one archived record by path.
func (a *Archive) GetRecord(ctx context.Context, path string) (*Record, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT path, description, content, exported_at, archived_at
		FROM records WHERE path = ?`, path)

	var r Record
	var exported, archived string
	if err := row.Scan(&r.Path, &r.Description, &r.Content, &exported, &archived); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("record %q not found in archive", path)
		}
		return nil, fmt.Errorf("reading record %q: %w", path, err)
	}
	r.ExportedAt, _ = time.Parse(time.RFC3339, exported)
	r.ArchivedAt, _ = time.Parse(time.RFC3339, archived)
	return &r, nil
}

// ListRecords returns all archived records ordered by path.
func (a *Archive) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT path, description, content, exported_at, archived_at
		FROM records ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var exported, archived string
		if err := rows.Scan(&r.Path, &r.Description, &r.Content, &exported, &archived); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.ExportedAt, _ = time.Parse(time.RFC3339, exported)
		r.ArchivedAt, _ = time.Parse(time.RFC3339, archived)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveConversation upserts a conversation transcript into the archive.
func (a *Archive) SaveConversation(ctx context.Context, conv *memory.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}
	summary, err := json.Marshal(conv.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	strategies := conv.Strategies
	if strategies == nil {
		strategies = []string{}
	}
	strategiesJSON, err := json.Marshal(strategies)
	if err != nil {
		return fmt.Errorf("encoding strategies: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO conversations (id, timestamp, outcome, messages_json, summary_json, strategies_json, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp       = excluded.timestamp,
			outcome         = excluded.outcome,
			messages_json   = excluded.messages_json,
			summary_json    = excluded.summary_json,
			strategies_json = excluded.strategies_json,
			archived_at     = excluded.archived_at`,
		conv.ID,
		conv.Timestamp.UTC().Format(time.RFC3339),
		conv.Outcome,
		string(messages),
		string(summary),
		string(strategiesJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("archiving conversation %q: %w", conv.ID, err)
	}

	a.logger.Debug("conversation archived", "id", conv.ID, "messages", len(conv.Messages))
	return nil
}

// GetConversation reads one archived conversation by id.
func (a *Archive) GetConversation(ctx context.Context, id string) (*memory.Conversation, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, timestamp, outcome, messages_json, summary_json, strategies_json
		FROM conversations WHERE id = ?`, id)

	var conv memory.Conversation
	var ts, messages, summary, strategies string
	if err := row.Scan(&conv.ID, &ts, &conv.Outcome, &messages, &summary, &strategies); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation %q not found in archive", id)
		}
		return nil, fmt.Errorf("reading conversation %q: %w", id, err)
	}

	conv.Timestamp, _ = time.Parse(time.RFC3339, ts)
	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages for %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(summary), &conv.Summary); err != nil {
		return nil, fmt.Errorf("decoding summary for %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(strategies), &conv.Strategies); err != nil {
		return nil, fmt.Errorf("decoding strategies for %q: %w", id, err)
	}
	return &conv, nil
}

// ListConversationIDs returns archived conversation ids, newest first.
func (a *Archive) ListConversationIDs(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id FROM conversations ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
