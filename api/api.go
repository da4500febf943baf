package api

import (
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/api/mcp"
	"github.com/raglinehq/ragline/pkg/chat"
	"github.com/raglinehq/ragline/pkg/store"
)

// Server is the HTTP API server for the ragline chat backend.
type Server struct {
	config       Config
	orchestrator *chat.Orchestrator
	storer       store.Driver
	logger       *zap.Logger
	app          *fiber.App
}

// NewServer creates a new API server. The orchestrator and storer are
// injected so they can be shared with other components. The MCP server is
// optional; when present it is mounted at /mcp.
func NewServer(
	config Config,
	orchestrator *chat.Orchestrator,
	storer store.Driver,
	mcpServer *mcp.Server,
	logger *zap.Logger,
) (*Server, error) {
	if orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if storer == nil {
		return nil, errors.New("store driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:       config,
		orchestrator: orchestrator,
		storer:       storer,
		logger:       logger,
		app:          app,
	}

	app.Get("/", s.handleHealth)
	app.Get("/health", s.handleHealth)
	app.Post("/api/openai", s.handleChat)
	app.Get("/api/conversations", s.handleListConversations)

	if mcpServer != nil && mcpServer.Handler() != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
