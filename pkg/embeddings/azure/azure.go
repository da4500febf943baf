// Package azure implements pkg/embeddings' Embedder client for Azure OpenAI
// embedding deployments.
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

	"github.com/raglinehq/ragline/pkg/embeddings"
)

const (
	// DefaultAPIVersion is the Azure OpenAI REST API version used when the
	// config leaves it empty.
	DefaultAPIVersion = "2024-02-01"
)

// Embedder wraps an Azure OpenAI embedding deployment.
type Embedder struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the Azure embedder.
type EmbedderConfig struct {
	// Endpoint is the Azure OpenAI resource endpoint
	// (e.g. "https://myresource.openai.azure.com").
	Endpoint string

	// APIKey authenticates requests via the api-key header.
	APIKey string

	// Deployment is the embedding deployment name
	// (e.g. "text-embedding-ada-002").
	Deployment string

	// APIVersion is the REST API version.
	// Defaults to DefaultAPIVersion if empty.
	APIVersion string
}

// embedRequest is the request body for the embeddings API.
type embedRequest struct {
	Input string `json:"input"`
}

// embedResponse is the response from the embeddings API.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewEmbedder creates a new embedder using an Azure OpenAI embedding deployment.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	if cfg.Deployment == "" {
		return nil, errors.New("embedding deployment name is required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Embedder{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		e.endpoint, e.deployment, e.apiVersion)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(embedResp.Data) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	return embedResp.Data[0].Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Embedder implements embeddings.Embedder
var _ embeddings.Embedder = (*Embedder)(nil)
