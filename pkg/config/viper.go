package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/raglinehq/ragline/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the RAGLINE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (RAGLINE_API_LISTEN, RAGLINE_STORE_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: RAGLINE_API_LISTEN, RAGLINE_STORE_ENDPOINT, etc.
	v.SetEnvPrefix("RAGLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Store
	v.SetDefault("store.provider", d.Store.Provider)
	v.SetDefault("store.endpoint", d.Store.Endpoint)
	v.SetDefault("store.key", d.Store.Key)
	v.SetDefault("store.database", d.Store.Database)
	v.SetDefault("store.container", d.Store.Container)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_url", d.Store.PostgresURL)

	// OpenAI
	v.SetDefault("openai.endpoint", d.OpenAI.Endpoint)
	v.SetDefault("openai.key", d.OpenAI.Key)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.api_version", d.OpenAI.APIVersion)
	v.SetDefault("openai.embedding_deployment", d.OpenAI.EmbeddingDeployment)

	// Search
	v.SetDefault("search.provider", d.Search.Provider)
	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.key", d.Search.Key)
	v.SetDefault("search.index", d.Search.Index)
	v.SetDefault("search.vector_field", d.Search.VectorField)
	v.SetDefault("search.top_k", d.Search.TopK)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.debug", d.API.Debug)
	v.SetDefault("api.mcp", d.API.MCP)

	// Events
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.user_id", d.Client.UserID)
}
