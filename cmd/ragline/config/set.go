package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raglinehq/ragline/pkg/cliui"
	"github.com/raglinehq/ragline/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .ragline/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  store.provider, store.endpoint, store.key, store.database,
  store.container, store.sqlite_path, store.postgres_url,
  openai.endpoint, openai.key, openai.model, openai.api_version,
  openai.embedding_deployment,
  search.provider, search.endpoint, search.key, search.index,
  search.vector_field, search.top_k,
  api.listen, api.debug, api.mcp,
  events.enabled, events.brokers, events.topic,
  client.api_target, client.user_id

Examples:
  ragline config set store.provider sqlite
  ragline config set search.endpoint https://myservice.search.windows.net
  ragline config set search.top_k 5
  ragline config set events.brokers broker1:9092,broker2:9092`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	err = cfger.SetConfigValue(key, value)
	if err != nil {
		return err
	}

	fmt.Printf("  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
