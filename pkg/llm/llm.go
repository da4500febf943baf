// Package llm defines the chat-completion types shared between the
// orchestrator and completion providers.
package llm

import "context"

const (
	// DefaultTemperature controls completion randomness when callers pass
	// no explicit value.
	DefaultTemperature = 0.7

	// DefaultMaxTokens bounds the completion length when callers pass no
	// explicit value.
	DefaultMaxTokens = 800
)

// Message is one entry in the sequence sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse is the standard error body returned by the HTTP surface.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Completer generates a completion for an ordered message sequence.
//
// Implementations degrade provider failures into a human-readable apology
// string with a nil error; callers never branch on completion failure.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)

	// Close releases any resources held by the completer.
	Close() error
}
