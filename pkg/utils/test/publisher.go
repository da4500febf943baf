package testutils

import (
	"context"
	"errors"

	"github.com/raglinehq/ragline/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records published
// events.
type MockPublisher struct {
	// Events accumulates every published event.
	Events []*eventstream.TurnPersistedEvent

	// FailPublish causes PublishTurn to return an error.
	FailPublish bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishTurn(_ context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}
	if m.FailPublish {
		return errors.New("mock publish failure")
	}

	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Ensure MockPublisher implements eventstream.Publisher
var _ eventstream.Publisher = (*MockPublisher)(nil)
