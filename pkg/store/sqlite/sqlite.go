// Package sqlite provides a SQLite-backed conversation store driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	messages   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations (user_id, updated_at DESC);
`

// Driver implements store.Driver using SQLite via github.com/mattn/go-sqlite3.
// The message list is stored as a JSON column; every upsert rewrites the
// whole document, matching the partitioned-document-store contract.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create-if-absent schema; safe to run on every open
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Get retrieves a conversation by its id.
func (d *Driver) Get(ctx context.Context, id string) (*conversation.Conversation, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT id, user_id, messages FROM conversations WHERE id = ?", id)

	return scanConversation(row, id)
}

// ListByUser returns all conversations owned by the user, newest first.
func (d *Driver) ListByUser(ctx context.Context, userID string) ([]*conversation.Conversation, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, user_id, messages FROM conversations WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations for user %s: %w", userID, err)
	}
	defer rows.Close()

	convs := make([]*conversation.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows, "")
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	return convs, nil
}

// Upsert creates or fully replaces the document keyed by its id.
func (d *Driver) Upsert(ctx context.Context, conv *conversation.Conversation) (*conversation.Conversation, error) {
	if conv == nil {
		return nil, errors.New("cannot store nil conversation")
	}
	if conv.UserID == "" {
		return nil, store.ErrMissingUserID
	}

	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return nil, fmt.Errorf("encoding messages: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, messages, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		conv.ID, conv.UserID, string(messages), time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("upserting conversation %s: %w", conv.ID, err)
	}

	return conv, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner, id string) (*conversation.Conversation, error) {
	conv := &conversation.Conversation{}
	var messages string

	if err := row.Scan(&conv.ID, &conv.UserID, &messages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages for conversation %s: %w", conv.ID, err)
	}

	return conv, nil
}

// Ensure Driver implements store.Driver
var _ store.Driver = (*Driver)(nil)
