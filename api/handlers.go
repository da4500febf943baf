package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/llm"
)

// ChatRequest is the body for POST /api/openai.
type ChatRequest struct {
	Prompt         string `json:"prompt"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the body returned for a handled chat turn.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// ConversationsResponse wraps the conversation listing for one user.
type ConversationsResponse struct {
	Conversations []*conversation.Conversation `json:"conversations"`
}

// MessageResponse is the fixed liveness payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// handleHealth returns a fixed liveness payload.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "ragline backend is running"})
}

// handleChat runs one chat turn through the orchestrator.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Detail: "invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Detail: "user_id is required",
		})
	}

	result, err := s.orchestrator.HandleChat(c.Context(), req.Prompt, req.UserID, req.ConversationID)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{
			Detail: err.Error(),
		})
	}

	return c.JSON(ChatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
	})
}

// handleListConversations returns all conversations for a user, newest
// first. Store failures degrade to an empty list; listing never fails the
// request once the user id is present.
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Detail: "user_id is required",
		})
	}

	convs, err := s.storer.ListByUser(c.Context(), userID)
	if err != nil {
		s.logger.Warn("listing conversations failed, returning empty list",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		convs = nil
	}

	if convs == nil {
		convs = []*conversation.Conversation{}
	}

	return c.JSON(ConversationsResponse{Conversations: convs})
}
