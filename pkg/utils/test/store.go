package testutils

import (
	"context"
	"errors"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/store"
)

// MockStoreDriver is a test store driver that records calls and returns
// configurable results.
type MockStoreDriver struct {
	// Conversations is the backing map keyed by conversation ID.
	Conversations map[string]*conversation.Conversation

	// Upserted accumulates every conversation passed to Upsert.
	Upserted []*conversation.Conversation

	// FailGet causes Get to return an error.
	FailGet bool

	// FailList causes ListByUser to return an error.
	FailList bool

	// FailUpsert causes Upsert to return an error.
	FailUpsert bool
}

// NewMockStoreDriver creates a new mock store driver.
func NewMockStoreDriver() *MockStoreDriver {
	return &MockStoreDriver{
		Conversations: make(map[string]*conversation.Conversation),
	}
}

func (m *MockStoreDriver) Get(_ context.Context, id string) (*conversation.Conversation, error) {
	if m.FailGet {
		return nil, errors.New("mock get failure")
	}

	conv, ok := m.Conversations[id]
	if !ok {
		return nil, store.NotFoundError{ID: id}
	}
	return conv, nil
}

func (m *MockStoreDriver) ListByUser(_ context.Context, userID string) ([]*conversation.Conversation, error) {
	if m.FailList {
		return nil, errors.New("mock list failure")
	}

	var convs []*conversation.Conversation
	for _, conv := range m.Conversations {
		if conv.UserID == userID {
			convs = append(convs, conv)
		}
	}
	return convs, nil
}

func (m *MockStoreDriver) Upsert(_ context.Context, conv *conversation.Conversation) (*conversation.Conversation, error) {
	if m.FailUpsert {
		return nil, errors.New("mock upsert failure")
	}
	if conv.UserID == "" {
		return nil, store.ErrMissingUserID
	}

	m.Conversations[conv.ID] = conv
	m.Upserted = append(m.Upserted, conv)
	return conv, nil
}

func (m *MockStoreDriver) Close() error {
	return nil
}

// Ensure MockStoreDriver implements store.Driver
var _ store.Driver = (*MockStoreDriver)(nil)
