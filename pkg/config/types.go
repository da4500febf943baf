package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent ragline configuration stored as
// config.toml in the .ragline/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Store   StoreConfig  `toml:"store"`
	OpenAI  OpenAIConfig `toml:"openai"`
	Search  SearchConfig `toml:"search"`
	API     APIConfig    `toml:"api"`
	Events  EventsConfig `toml:"events"`
	Client  ClientConfig `toml:"client"`
}

// StoreConfig holds conversation store settings. Provider selects the
// backend; the remaining fields apply to whichever backend is active.
type StoreConfig struct {
	Provider    string `toml:"provider,omitempty"`
	Endpoint    string `toml:"endpoint,omitempty"`
	Key         string `toml:"key,omitempty"`
	Database    string `toml:"database,omitempty"`
	Container   string `toml:"container,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresURL string `toml:"postgres_url,omitempty"`
}

// OpenAIConfig holds the completion and embedding provider settings.
type OpenAIConfig struct {
	Endpoint            string `toml:"endpoint,omitempty"`
	Key                 string `toml:"key,omitempty"`
	Model               string `toml:"model,omitempty"`
	APIVersion          string `toml:"api_version,omitempty"`
	EmbeddingDeployment string `toml:"embedding_deployment,omitempty"`
}

// SearchConfig holds retrieval settings for the document index.
type SearchConfig struct {
	Provider    string `toml:"provider,omitempty"`
	Endpoint    string `toml:"endpoint,omitempty"`
	Key         string `toml:"key,omitempty"`
	Index       string `toml:"index,omitempty"`
	VectorField string `toml:"vector_field,omitempty"`
	TopK        uint   `toml:"top_k,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
	Debug  bool   `toml:"debug,omitempty"`
	MCP    bool   `toml:"mcp,omitempty"`
}

// EventsConfig holds turn-event publishing settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. ragline chat). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	UserID    string `toml:"user_id,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"store.provider": {
		get: func(c *Config) string { return c.Store.Provider },
		set: func(c *Config, v string) error { c.Store.Provider = v; return nil },
	},
	"store.endpoint": {
		get: func(c *Config) string { return c.Store.Endpoint },
		set: func(c *Config, v string) error { c.Store.Endpoint = v; return nil },
	},
	"store.key": {
		get: func(c *Config) string { return c.Store.Key },
		set: func(c *Config, v string) error { c.Store.Key = v; return nil },
	},
	"store.database": {
		get: func(c *Config) string { return c.Store.Database },
		set: func(c *Config, v string) error { c.Store.Database = v; return nil },
	},
	"store.container": {
		get: func(c *Config) string { return c.Store.Container },
		set: func(c *Config, v string) error { c.Store.Container = v; return nil },
	},
	"store.sqlite_path": {
		get: func(c *Config) string { return c.Store.SQLitePath },
		set: func(c *Config, v string) error { c.Store.SQLitePath = v; return nil },
	},
	"store.postgres_url": {
		get: func(c *Config) string { return c.Store.PostgresURL },
		set: func(c *Config, v string) error { c.Store.PostgresURL = v; return nil },
	},
	"openai.endpoint": {
		get: func(c *Config) string { return c.OpenAI.Endpoint },
		set: func(c *Config, v string) error { c.OpenAI.Endpoint = v; return nil },
	},
	"openai.key": {
		get: func(c *Config) string { return c.OpenAI.Key },
		set: func(c *Config, v string) error { c.OpenAI.Key = v; return nil },
	},
	"openai.model": {
		get: func(c *Config) string { return c.OpenAI.Model },
		set: func(c *Config, v string) error { c.OpenAI.Model = v; return nil },
	},
	"openai.api_version": {
		get: func(c *Config) string { return c.OpenAI.APIVersion },
		set: func(c *Config, v string) error { c.OpenAI.APIVersion = v; return nil },
	},
	"openai.embedding_deployment": {
		get: func(c *Config) string { return c.OpenAI.EmbeddingDeployment },
		set: func(c *Config, v string) error { c.OpenAI.EmbeddingDeployment = v; return nil },
	},
	"search.provider": {
		get: func(c *Config) string { return c.Search.Provider },
		set: func(c *Config, v string) error { c.Search.Provider = v; return nil },
	},
	"search.endpoint": {
		get: func(c *Config) string { return c.Search.Endpoint },
		set: func(c *Config, v string) error { c.Search.Endpoint = v; return nil },
	},
	"search.key": {
		get: func(c *Config) string { return c.Search.Key },
		set: func(c *Config, v string) error { c.Search.Key = v; return nil },
	},
	"search.index": {
		get: func(c *Config) string { return c.Search.Index },
		set: func(c *Config, v string) error { c.Search.Index = v; return nil },
	},
	"search.vector_field": {
		get: func(c *Config) string { return c.Search.VectorField },
		set: func(c *Config, v string) error { c.Search.VectorField = v; return nil },
	},
	"search.top_k": {
		get: func(c *Config) string {
			if c.Search.TopK == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Search.TopK), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.top_k: %w", err)
			}
			c.Search.TopK = uint(n)
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.debug: %w", err)
			}
			c.API.Debug = b
			return nil
		},
	},
	"api.mcp": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.MCP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.mcp: %w", err)
			}
			c.API.MCP = b
			return nil
		},
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.Events.Brokers = nil
				return nil
			}
			c.Events.Brokers = strings.Split(v, ",")
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.user_id": {
		get: func(c *Config) string { return c.Client.UserID },
		set: func(c *Config, v string) error { c.Client.UserID = v; return nil },
	},
}
