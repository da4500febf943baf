// Package servecmder provides the serve command for running the chat API server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/api"
	"github.com/raglinehq/ragline/api/mcp"
	"github.com/raglinehq/ragline/pkg/chat"
	"github.com/raglinehq/ragline/pkg/config"
	azureembed "github.com/raglinehq/ragline/pkg/embeddings/azure"
	"github.com/raglinehq/ragline/pkg/eventstream"
	kafkastream "github.com/raglinehq/ragline/pkg/eventstream/kafka"
	"github.com/raglinehq/ragline/pkg/eventstream/nop"
	azurellm "github.com/raglinehq/ragline/pkg/llm/azure"
	"github.com/raglinehq/ragline/pkg/logger"
	"github.com/raglinehq/ragline/pkg/retrieval"
	"github.com/raglinehq/ragline/pkg/retrieval/azsearch"
	nopretrieval "github.com/raglinehq/ragline/pkg/retrieval/nop"
	qdrantretrieval "github.com/raglinehq/ragline/pkg/retrieval/qdrant"
	"github.com/raglinehq/ragline/pkg/store"
	"github.com/raglinehq/ragline/pkg/store/cosmos"
	"github.com/raglinehq/ragline/pkg/store/inmemory"
	"github.com/raglinehq/ragline/pkg/store/postgres"
	"github.com/raglinehq/ragline/pkg/store/sqlite"
)

type serveCommander struct {
	listen         string
	storeProvider  string
	sqlitePath     string
	postgresURL    string
	searchProvider string
	topK           uint
	mcpEnabled     bool
	eventsEnabled  bool
	debug          bool
	configDir      string

	v      *viper.Viper
	logger *zap.Logger
}

// serveFlagKeys names the registry flags the serve command exposes.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStoreProvider,
	config.FlagSQLite,
	config.FlagPostgresURL,
	config.FlagSearchProvider,
	config.FlagTopK,
	config.FlagMCP,
	config.FlagEventsEnabled,
}

const serveLongDesc string = `Run the ragline chat API server.

The server exposes the chat endpoint, the conversation listing, and a
liveness probe. Configuration comes from flags, RAGLINE_* environment
variables, and .ragline/config.toml, in that order of precedence.

Examples:
  ragline serve
  ragline serve --listen :9000 --store-provider sqlite --sqlite ragline.db
  ragline serve --search-provider qdrant --mcp`

const serveShortDesc string = "Run the ragline chat API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(cmder.v, cmd, config.Flags, serveFlagKeys)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreProvider, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresURL, &cmder.postgresURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagSearchProvider, &cmder.searchProvider)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMCP, &cmder.mcpEnabled)
	config.AddBoolFlag(cmd, config.Flags, config.FlagEventsEnabled, &cmder.eventsEnabled)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug || c.v.GetBool("api.debug"))
	defer func() { _ = c.logger.Sync() }()

	ctx := context.Background()

	storer, err := c.newStoreDriver(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	retriever, err := c.newRetriever()
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}
	defer retriever.Close()

	completer, err := azurellm.NewCompleter(azurellm.CompleterConfig{
		Endpoint:   c.v.GetString("openai.endpoint"),
		APIKey:     c.v.GetString("openai.key"),
		Deployment: c.v.GetString("openai.model"),
		APIVersion: c.v.GetString("openai.api_version"),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating completer: %w", err)
	}
	defer completer.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	orchestrator, err := chat.NewOrchestrator(storer, retriever, completer, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}
	orchestrator.SetTopK(int(c.v.GetUint("search.top_k")))

	mcpServer, err := mcp.NewServer(mcp.Config{
		Retriever: retriever,
		Noop:      !c.v.GetBool("api.mcp"),
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	listen := c.v.GetString("api.listen")
	server, err := api.NewServer(api.Config{ListenAddr: listen}, orchestrator, storer, mcpServer, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *serveCommander) newStoreDriver(ctx context.Context) (store.Driver, error) {
	provider := c.v.GetString("store.provider")

	switch provider {
	case "cosmos":
		driver, err := cosmos.NewDriver(ctx, cosmos.Config{
			Endpoint:  c.v.GetString("store.endpoint"),
			Key:       c.v.GetString("store.key"),
			Database:  c.v.GetString("store.database"),
			Container: c.v.GetString("store.container"),
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating cosmos store: %w", err)
		}
		c.logger.Info("using cosmos store",
			zap.String("endpoint", c.v.GetString("store.endpoint")),
			zap.String("database", c.v.GetString("store.database")),
		)
		return driver, nil

	case "sqlite":
		path := c.v.GetString("store.sqlite_path")
		if path == "" {
			path = ":memory:"
		}
		driver, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		c.logger.Info("using sqlite store", zap.String("path", path))
		return driver, nil

	case "postgres":
		driver, err := postgres.NewDriver(ctx, c.v.GetString("store.postgres_url"))
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		c.logger.Info("using postgres store")
		return driver, nil

	case "inmemory":
		c.logger.Info("using in-memory store")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown store provider: %q (available: cosmos, sqlite, postgres, inmemory)", provider)
	}
}

// newRetriever builds the configured retrieval backend. The "none" provider
// serves without document context and needs no embedder.
func (c *serveCommander) newRetriever() (retrieval.Retriever, error) {
	provider := c.v.GetString("search.provider")

	if provider == "none" {
		c.logger.Info("retrieval disabled, serving without document context")
		return nopretrieval.NewRetriever(), nil
	}

	embedder, err := azureembed.NewEmbedder(azureembed.EmbedderConfig{
		Endpoint:   c.v.GetString("openai.endpoint"),
		APIKey:     c.v.GetString("openai.key"),
		Deployment: c.v.GetString("openai.embedding_deployment"),
		APIVersion: c.v.GetString("openai.api_version"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	switch provider {
	case "azsearch":
		return azsearch.NewRetriever(azsearch.Config{
			Endpoint:    c.v.GetString("search.endpoint"),
			APIKey:      c.v.GetString("search.key"),
			Index:       c.v.GetString("search.index"),
			VectorField: c.v.GetString("search.vector_field"),
		}, embedder, c.logger)

	case "qdrant":
		host, port, err := splitQdrantEndpoint(c.v.GetString("search.endpoint"))
		if err != nil {
			return nil, err
		}
		return qdrantretrieval.NewRetriever(qdrantretrieval.Config{
			Host:       host,
			Port:       port,
			APIKey:     c.v.GetString("search.key"),
			Collection: c.v.GetString("search.index"),
		}, embedder, c.logger)

	default:
		return nil, fmt.Errorf("unknown search provider: %q (available: azsearch, qdrant, none)", provider)
	}
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafkastream.NewPublisher(kafkastream.Config{
		Brokers: c.v.GetStringSlice("events.brokers"),
		Topic:   c.v.GetString("events.topic"),
	}, c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.Info("publishing turn events",
		zap.Strings("brokers", c.v.GetStringSlice("events.brokers")),
		zap.String("topic", c.v.GetString("events.topic")),
	)
	return publisher, nil
}

// splitQdrantEndpoint parses a host or host:port qdrant endpoint.
func splitQdrantEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, errors.New("search.endpoint is required for the qdrant provider")
	}

	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// No port in the endpoint, use the driver default.
		return endpoint, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, nil
}
