// Package chatcmder provides an interactive chat session against a running
// ragline server. The session's conversation id is saved under .ragline/ so
// a later invocation resumes the same conversation.
package chatcmder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raglinehq/ragline/api"
	"github.com/raglinehq/ragline/pkg/cliui"
	"github.com/raglinehq/ragline/pkg/config"
	"github.com/raglinehq/ragline/pkg/dotdir"
	"github.com/raglinehq/ragline/pkg/llm"
)

// chatRequestTimeout bounds a single turn end to end, completion included.
const chatRequestTimeout = 5 * time.Minute

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Render("you>")
	assistantLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render("ragline>")
	exitInstruction = cliui.DimStyle.Render("Type /exit or press Ctrl+D to leave. /new starts a fresh conversation.")
)

type chatCommander struct {
	apiTarget string
	userID    string
	fresh     bool
	configDir string

	v       *viper.Viper
	client  *http.Client
	manager *dotdir.Manager
	in      io.Reader
	out     io.Writer
}

var chatFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagUserID,
}

const chatLongDesc string = `Start an interactive chat session against a ragline server.

Each reply is grounded in documents retrieved for your prompt. The
conversation id is stored in .ragline/session.json so quitting and
reopening the session continues where you left off. Use --new to start
over.

Examples:
  ragline chat --user-id alice
  ragline chat --api-target http://ragline.internal:8000 --new`

const chatShortDesc string = "Interactive chat session against a ragline server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{
		manager: dotdir.NewManager(),
		in:      os.Stdin,
		out:     os.Stdout,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
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

			config.BindRegisteredFlags(cmder.v, cmd, config.Flags, chatFlagKeys)
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &cmder.userID)
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a fresh conversation instead of resuming")

	return cmd
}

func (c *chatCommander) run() error {
	c.client = &http.Client{Timeout: chatRequestTimeout}

	target := strings.TrimRight(c.v.GetString("client.api_target"), "/")
	userID := c.v.GetString("client.user_id")
	if userID == "" {
		return errors.New("user id is required: set --user-id or client.user_id in config")
	}

	conversationID := ""
	if !c.fresh {
		state, err := c.manager.LoadSessionState(c.configDir)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if state != nil && state.UserID == userID {
			conversationID = state.ConversationID
		}
	}

	fmt.Fprintf(c.out, "Chatting as %s against %s\n", cliui.NameStyle.Render(userID), cliui.ValueStyle.Render(target))
	if conversationID != "" {
		fmt.Fprintf(c.out, "Resuming conversation %s\n", cliui.DimStyle.Render(conversationID))
	}
	fmt.Fprintln(c.out, exitInstruction)
	fmt.Fprintln(c.out)

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprintf(c.out, "%s ", userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}

		prompt := strings.TrimSpace(scanner.Text())
		switch {
		case prompt == "":
			continue
		case prompt == "/exit" || prompt == "/quit":
			return c.saveSession(userID, conversationID)
		case prompt == "/new":
			conversationID = ""
			fmt.Fprintln(c.out, cliui.DimStyle.Render("Started a fresh conversation."))
			continue
		}

		resp, err := c.sendTurn(target, prompt, userID, conversationID)
		if err != nil {
			fmt.Fprintf(c.out, "%s %s\n\n", cliui.FailMark, err)
			continue
		}
		conversationID = resp.ConversationID

		rendered, err := cliui.RenderMarkdown(resp.Response)
		if err != nil {
			rendered = resp.Response + "\n"
		}
		fmt.Fprintf(c.out, "%s\n%s\n", assistantLabel, rendered)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return c.saveSession(userID, conversationID)
}

// sendTurn POSTs one prompt to the chat endpoint and decodes the reply.
func (c *chatCommander) sendTurn(target, prompt, userID, conversationID string) (*api.ChatResponse, error) {
	payload, err := json.Marshal(api.ChatRequest{
		Prompt:         prompt,
		UserID:         userID,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.client.Post(target+"/api/openai", "application/json", bytes.NewReader(payload))
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

	var chatResp api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &chatResp, nil
}

func (c *chatCommander) saveSession(userID, conversationID string) error {
	if conversationID == "" {
		return nil
	}

	err := c.manager.SaveSession(&dotdir.SessionState{
		UserID:         userID,
		ConversationID: conversationID,
	}, c.configDir)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
