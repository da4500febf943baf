// Package chat implements the conversation orchestrator: it resolves the
// target conversation, gathers retrieval context, invokes completion, and
// persists the resulting turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/eventstream"
	"github.com/raglinehq/ragline/pkg/llm"
	"github.com/raglinehq/ragline/pkg/retrieval"
	"github.com/raglinehq/ragline/pkg/store"
	"github.com/raglinehq/ragline/pkg/utils"
)

// ErrMissingUserID is returned when a chat request carries no user id.
var ErrMissingUserID = errors.New("user_id is required")

// systemPromptTemplate is the instruction prefix for every completion. The
// %s slot receives the assembled retrieval context.
const systemPromptTemplate = `You are a helpful assistant answering questions based on the provided context.
If the answer is not found in the context, say "I don't have enough information to answer that question."

Context:
%s`

// Result is the outcome of one handled chat turn. ConversationID is always
// the effective id, which may differ from the requested one.
type Result struct {
	Response        string
	ConversationID  string
	ContextDegraded bool
}

// Orchestrator handles chat turns end to end. All collaborators are
// injected at construction; there is no shared mutable state between
// requests.
type Orchestrator struct {
	store     store.Driver
	retriever retrieval.Retriever
	completer llm.Completer
	publisher eventstream.Publisher
	logger    *zap.Logger
	topK      int
}

// NewOrchestrator creates a new chat orchestrator.
func NewOrchestrator(
	storer store.Driver,
	retriever retrieval.Retriever,
	completer llm.Completer,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if storer == nil {
		return nil, errors.New("store driver is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if publisher == nil {
		return nil, errors.New("event publisher is required")
	}

	return &Orchestrator{
		store:     storer,
		retriever: retriever,
		completer: completer,
		publisher: publisher,
		logger:    logger,
		topK:      retrieval.DefaultTopK,
	}, nil
}

// SetTopK overrides how many context chunks are retrieved per turn.
// Non-positive values are ignored.
func (o *Orchestrator) SetTopK(k int) {
	if k > 0 {
		o.topK = k
	}
}

// HandleChat runs one chat turn: resolve the conversation, retrieve
// context, complete, append the turn, and persist. Persistence failures are
// hard errors; retrieval and history-load failures degrade.
func (o *Orchestrator) HandleChat(ctx context.Context, prompt, userID, conversationID string) (*Result, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	conv := o.resolveConversation(ctx, userID, conversationID)

	results, degraded := o.retrieveContext(ctx, prompt)

	messages := buildMessages(conv, results, prompt)

	response, err := o.completer.Complete(ctx, messages, llm.DefaultTemperature, llm.DefaultMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating completion: %w", err)
	}

	conv.AppendTurn(prompt, response, time.Now())

	stored, err := o.store.Upsert(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("saving conversation: %w", err)
	}

	o.publishTurn(ctx, stored, degraded)

	o.logger.Debug("handled chat turn",
		zap.String("conversation_id", stored.ID),
		zap.String("prompt", utils.Truncate(prompt, 80)),
		zap.Int("messages", len(stored.Messages)),
		zap.Bool("context_degraded", degraded),
	)

	return &Result{
		Response:        response,
		ConversationID:  stored.ID,
		ContextDegraded: degraded,
	}, nil
}

// resolveConversation decides which conversation this turn belongs to. A
// missing id starts a fresh conversation; an id owned by another user is
// silently forked under a fresh id; a load failure degrades to no prior
// history.
func (o *Orchestrator) resolveConversation(ctx context.Context, userID, conversationID string) *conversation.Conversation {
	if conversationID == "" {
		return &conversation.Conversation{
			ID:     uuid.NewString(),
			UserID: userID,
		}
	}

	existing, err := o.store.Get(ctx, conversationID)
	if err != nil {
		if !store.IsNotFound(err) {
			o.logger.Warn("loading conversation failed, starting fresh",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}

		// Keep the requested id so client-chosen ids survive first use.
		return &conversation.Conversation{
			ID:     conversationID,
			UserID: userID,
		}
	}

	if existing.UserID != userID {
		return &conversation.Conversation{
			ID:     uuid.NewString(),
			UserID: userID,
		}
	}

	return existing
}

// retrieveContext fetches document chunks for the prompt. Retrieval is best
// effort: any failure degrades to an empty result set.
func (o *Orchestrator) retrieveContext(ctx context.Context, prompt string) ([]retrieval.SearchResult, bool) {
	results, err := o.retriever.Search(ctx, prompt, o.topK)
	if err != nil {
		o.logger.Warn("retrieval failed, continuing without context", zap.Error(err))
		return nil, true
	}

	return results, false
}

// buildMessages assembles the completion input: the system instruction with
// retrieval context, prior non-system history, then the new user prompt.
func buildMessages(conv *conversation.Conversation, results []retrieval.SearchResult, prompt string) []llm.Message {
	chunks := make([]string, len(results))
	for i, result := range results {
		chunks[i] = result.Chunk
	}

	messages := []llm.Message{
		{
			Role:    conversation.RoleSystem,
			Content: fmt.Sprintf(systemPromptTemplate, strings.Join(chunks, "\n\n")),
		},
	}

	for _, msg := range conv.History() {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	return append(messages, llm.Message{Role: conversation.RoleUser, Content: prompt})
}

// publishTurn emits a turn-persisted event. Publishing is best effort and
// never affects the response.
func (o *Orchestrator) publishTurn(ctx context.Context, conv *conversation.Conversation, degraded bool) {
	event := &eventstream.TurnPersistedEvent{
		SchemaVersion:   eventstream.SchemaVersionV1,
		EventType:       eventstream.EventTypeTurnPersisted,
		EventID:         uuid.NewString(),
		EmittedAt:       time.Now().UTC(),
		UserID:          conv.UserID,
		ConversationID:  conv.ID,
		MessageCount:    len(conv.Messages),
		ContextDegraded: degraded,
	}

	if err := o.publisher.PublishTurn(ctx, event); err != nil {
		o.logger.Warn("publishing turn event failed", zap.Error(err))
	}
}
