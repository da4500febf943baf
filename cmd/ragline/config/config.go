// Package configcmder provides the config command for managing persistent
// ragline configuration stored in the .ragline/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent ragline configuration.

Configuration is stored as config.toml in the .ragline/ directory and
provides default values for command flags. CLI flags and RAGLINE_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  store.provider, store.endpoint, store.key, store.database,
  store.container, store.sqlite_path, store.postgres_url,
  openai.endpoint, openai.key, openai.model, openai.api_version,
  openai.embedding_deployment,
  search.provider, search.endpoint, search.key, search.index,
  search.vector_field, search.top_k,
  api.listen, api.debug, api.mcp,
  events.enabled, events.brokers, events.topic,
  client.api_target, client.user_id

Use subcommands to get, set, or list configuration values:
  ragline config set <key> <value>    Set a configuration value
  ragline config get <key>            Get a configuration value
  ragline config list                 List all configuration values

Examples:
  ragline config set store.provider sqlite
  ragline config set search.top_k 5
  ragline config get openai.model
  ragline config list`

const configShortDesc string = "Manage persistent ragline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
