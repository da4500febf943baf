package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnPersisted is emitted after a conversation turn is persisted.
	EventTypeTurnPersisted = "ragline.turn.persisted"
)

// TurnPersistedEvent is a transport-neutral event payload for a persisted
// conversation turn.
type TurnPersistedEvent struct {
	SchemaVersion   int       `json:"schema_version"`
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	EmittedAt       time.Time `json:"emitted_at"`
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id"`
	MessageCount    int       `json:"message_count"`
	ContextDegraded bool      `json:"context_degraded"`
}
