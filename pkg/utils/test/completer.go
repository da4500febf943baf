package testutils

import (
	"context"
	"errors"

	"github.com/raglinehq/ragline/pkg/llm"
)

// MockCompleter is a test completer that returns a canned response and
// records the message lists it was called with.
type MockCompleter struct {
	// Response is returned by every Complete call.
	Response string

	// Calls accumulates the message list of every Complete call.
	Calls [][]llm.Message

	// FailComplete causes Complete to return an error.
	FailComplete bool
}

// NewMockCompleter creates a new mock completer.
func NewMockCompleter(response string) *MockCompleter {
	return &MockCompleter{Response: response}
}

func (m *MockCompleter) Complete(_ context.Context, messages []llm.Message, _ float64, _ int) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.FailComplete {
		return "", errors.New("mock completion failure")
	}
	return m.Response, nil
}

func (m *MockCompleter) Close() error {
	return nil
}

// Ensure MockCompleter implements llm.Completer
var _ llm.Completer = (*MockCompleter)(nil)
