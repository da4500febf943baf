// Package conversation defines the persisted conversation document model.
package conversation

import "time"

const (
	// RoleSystem marks per-request synthesized instructions. System messages
	// are never persisted and never replayed to the model from history.
	RoleSystem = "system"

	// RoleUser marks a message authored by the requesting user.
	RoleUser = "user"

	// RoleAssistant marks a model-generated reply.
	RoleAssistant = "assistant"
)

// Message is a single entry in a conversation. Ordering is append-order;
// messages are never edited or reordered after the fact.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Conversation is the full document persisted per conversation id. Every
// turn rewrites the whole document; there is no delta update.
type Conversation struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Messages []Message `json:"messages"`
}

// AppendTurn appends one user/assistant exchange. Both messages carry the
// same timestamp, matching the single capture point per turn.
func (c *Conversation) AppendTurn(prompt, response string, at time.Time) {
	ts := at.UTC().Format(time.RFC3339)
	c.Messages = append(c.Messages,
		Message{Role: RoleUser, Content: prompt, Timestamp: ts},
		Message{Role: RoleAssistant, Content: response, Timestamp: ts},
	)
}

// History returns the messages to replay to the model: everything except
// system messages, in original order.
func (c *Conversation) History() []Message {
	history := make([]Message, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem {
			continue
		}
		history = append(history, msg)
	}
	return history
}
