// Package conversationscmder lists a user's stored conversations from a
// running ragline server.
package conversationscmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raglinehq/ragline/api"
	"github.com/raglinehq/ragline/pkg/cliui"
	"github.com/raglinehq/ragline/pkg/config"
	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/llm"
	"github.com/raglinehq/ragline/pkg/utils"
)

const listRequestTimeout = 30 * time.Second

type conversationsCommander struct {
	apiTarget string
	userID    string
	configDir string

	v      *viper.Viper
	client *http.Client
	out    io.Writer
}

var conversationsFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagUserID,
}

const conversationsLongDesc string = `List your stored conversations, newest first.

Each entry shows the conversation id, message count, and the opening
prompt. Pass a conversation id to "ragline chat" via the saved session
to continue one.

Examples:
  ragline conversations --user-id alice
  ragline conversations -t http://ragline.internal:8000 -u alice`

const conversationsShortDesc string = "List your stored conversations"

func NewConversationsCmd() *cobra.Command {
	cmder := &conversationsCommander{
		out: os.Stdout,
	}

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: conversationsShortDesc,
		Long:  conversationsLongDesc,
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

			config.BindRegisteredFlags(cmder.v, cmd, config.Flags, conversationsFlagKeys)
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &cmder.userID)

	return cmd
}

func (c *conversationsCommander) run() error {
	c.client = &http.Client{Timeout: listRequestTimeout}

	target := strings.TrimRight(c.v.GetString("client.api_target"), "/")
	userID := c.v.GetString("client.user_id")
	if userID == "" {
		return errors.New("user id is required: set --user-id or client.user_id in config")
	}

	convs, err := c.fetchConversations(target, userID)
	if err != nil {
		return err
	}

	if len(convs) == 0 {
		fmt.Fprintln(c.out, cliui.DimStyle.Render("No conversations yet."))
		return nil
	}

	for _, conv := range convs {
		c.printConversation(conv)
	}

	return nil
}

func (c *conversationsCommander) fetchConversations(target, userID string) ([]*conversation.Conversation, error) {
	endpoint := target + "/api/conversations?user_id=" + url.QueryEscape(userID)

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("reaching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp llm.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var body api.ConversationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return body.Conversations, nil
}

func (c *conversationsCommander) printConversation(conv *conversation.Conversation) {
	opening := ""
	for _, msg := range conv.Messages {
		if msg.Role == conversation.RoleUser {
			opening = utils.Truncate(msg.Content, 60)
			break
		}
	}

	fmt.Fprintf(c.out, "%s  %s\n",
		cliui.KeyStyle.Render(conv.ID),
		cliui.DimStyle.Render(fmt.Sprintf("%d messages", len(conv.Messages))),
	)
	if opening != "" {
		fmt.Fprintf(c.out, "    %s\n", cliui.ValueStyle.Render(opening))
	}
}
