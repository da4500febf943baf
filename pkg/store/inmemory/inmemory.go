package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/store"
)

// Driver implements store.Driver using an in-memory map. It is used by
// tests and by zero-config serve runs.
type Driver struct {
	// mu is a read write sync mutex for locking the document map
	mu sync.RWMutex

	// docs maps conversation id to its stored document
	docs map[string]*entry

	// seq increases on every upsert and provides newest-first ordering
	seq uint64
}

type entry struct {
	conv *conversation.Conversation
	seq  uint64
}

// NewDriver creates a new in-memory store driver.
func NewDriver() *Driver {
	return &Driver{
		docs: make(map[string]*entry),
	}
}

// Get retrieves a conversation by its id.
func (d *Driver) Get(_ context.Context, id string) (*conversation.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.docs[id]
	if !ok {
		return nil, store.NotFoundError{ID: id}
	}

	return cloneConversation(e.conv), nil
}

// ListByUser returns all conversations owned by the user, newest first.
func (d *Driver) ListByUser(_ context.Context, userID string) ([]*conversation.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matched := make([]*entry, 0)
	for _, e := range d.docs {
		if e.conv.UserID == userID {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})

	convs := make([]*conversation.Conversation, len(matched))
	for i, e := range matched {
		convs[i] = cloneConversation(e.conv)
	}

	return convs, nil
}

// Upsert creates or replaces the document keyed by its id.
func (d *Driver) Upsert(_ context.Context, conv *conversation.Conversation) (*conversation.Conversation, error) {
	if conv == nil {
		return nil, errors.New("cannot store nil conversation")
	}
	if conv.UserID == "" {
		return nil, store.ErrMissingUserID
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.docs[conv.ID] = &entry{
		conv: cloneConversation(conv),
		seq:  d.seq,
	}

	return conv, nil
}

// Count returns the number of documents in the in-memory store.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

// cloneConversation copies the document so callers cannot mutate stored state.
func cloneConversation(conv *conversation.Conversation) *conversation.Conversation {
	clone := &conversation.Conversation{
		ID:       conv.ID,
		UserID:   conv.UserID,
		Messages: make([]conversation.Message, len(conv.Messages)),
	}
	copy(clone.Messages, conv.Messages)
	return clone
}

// Ensure Driver implements store.Driver
var _ store.Driver = (*Driver)(nil)
