// Package initcmder provides the init command for initializing a local
// .ragline directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raglinehq/ragline/pkg/config"
)

const (
	dirName = ".ragline"
)

const initLongDesc string = `Initialize a new .ragline/ directory in the current working directory.

Creates a local .ragline/ directory that takes precedence over the default
~/.ragline/ directory for configuration and chat session state.

This is useful for maintaining separate ragline state per project or
directory. Pass --preset to also write a starter config.toml:

  azure    Cosmos DB store with Azure AI Search retrieval
  local    SQLite store with Qdrant retrieval
  memory   In-memory store, retrieval disabled

Examples:
  ragline init
  ragline init --preset local`

const initShortDesc string = "Initialize a local .ragline/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Write a starter config.toml (azure, local, memory)")
	_ = cmd.RegisterFlagCompletionFunc("preset", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	alreadyExists := err == nil && info.IsDir()
	if alreadyExists && preset == "" {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if !alreadyExists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .ragline directory: %w", err)
		}
		fmt.Printf("Initialized .ragline directory: %s\n", dir)
	}

	if preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote %s preset config: %s\n", preset, filepath.Join(dir, "config.toml"))
	return nil
}
