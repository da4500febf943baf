// Package raglinecmder assembles the ragline root command and its
// subcommands.
package raglinecmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/raglinehq/ragline/cmd/ragline/chat"
	configcmder "github.com/raglinehq/ragline/cmd/ragline/config"
	conversationscmder "github.com/raglinehq/ragline/cmd/ragline/conversations"
	initcmder "github.com/raglinehq/ragline/cmd/ragline/init"
	servecmder "github.com/raglinehq/ragline/cmd/ragline/serve"
	versioncmder "github.com/raglinehq/ragline/cmd/version"
)

const raglineLongDesc string = `Ragline is a retrieval-augmented chat backend.

Run the server using:
  ragline serve        Run the chat API server

Talk to a running server using:
  ragline chat         Interactive chat session
  ragline conversations  List your stored conversations`

const raglineShortDesc string = "Ragline - retrieval-augmented chat"

func NewRaglineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragline",
		Short: raglineShortDesc,
		Long:  raglineLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ragline/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
