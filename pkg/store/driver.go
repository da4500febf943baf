// Package store
package store

import (
	"context"

	"github.com/raglinehq/ragline/pkg/conversation"
)

// Driver defines the interface for persisting and retrieving conversation
// documents in a storage backend. Documents are keyed by conversation id and
// partitioned by user id.
type Driver interface {
	// Get retrieves a conversation by its id. The lookup does not require the
	// partition key; backends scan across partitions when necessary.
	// Returns NotFoundError when no document exists under the id.
	Get(ctx context.Context, id string) (*conversation.Conversation, error)

	// ListByUser returns all conversations owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*conversation.Conversation, error)

	// Upsert creates or fully replaces the document keyed by its id.
	// Returns ErrMissingUserID when the document has no user id.
	Upsert(ctx context.Context, conv *conversation.Conversation) (*conversation.Conversation, error)

	// Close closes the store and releases any resources.
	Close() error
}
