// Package azure implements pkg/llm's Completer client for Azure OpenAI
// chat-completion deployments.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/llm"
)

const (
	// DefaultAPIVersion is the Azure OpenAI REST API version used when the
	// config leaves it empty.
	DefaultAPIVersion = "2024-02-01"
)

// Completer wraps an Azure OpenAI chat-completion deployment.
type Completer struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
}

// CompleterConfig holds configuration for the Azure completer.
type CompleterConfig struct {
	// Endpoint is the Azure OpenAI resource endpoint
	// (e.g. "https://myresource.openai.azure.com").
	Endpoint string

	// APIKey authenticates requests via the api-key header.
	APIKey string

	// Deployment is the chat model deployment name (e.g. "gpt-4o").
	Deployment string

	// APIVersion is the REST API version.
	// Defaults to DefaultAPIVersion if empty.
	APIVersion string
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	N           int           `json:"n"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// NewCompleter creates a new completer using an Azure OpenAI chat deployment.
func NewCompleter(cfg CompleterConfig, logger *zap.Logger) (*Completer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	if cfg.Deployment == "" {
		return nil, errors.New("chat deployment name is required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Completer{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}, nil
}

// Complete generates a completion for the message sequence. Provider
// failures are degraded into an apology string carrying the error text, so
// callers receive a usable response either way.
func (c *Completer) Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error) {
	if temperature <= 0 {
		temperature = llm.DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	response, err := c.complete(ctx, messages, temperature, maxTokens)
	if err != nil {
		c.logger.Error("completion failed", zap.Error(err))
		return fmt.Sprintf("I'm sorry, but I encountered an error generating a response. Error: %v", err), nil
	}

	return response, nil
}

func (c *Completer) complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("azure openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close releases resources held by the completer.
func (c *Completer) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Completer implements llm.Completer
var _ llm.Completer = (*Completer)(nil)
