// Package azsearch provides an Azure AI Search retrieval driver speaking
// the vectorized-query REST API.
package azsearch

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

	"github.com/raglinehq/ragline/pkg/embeddings"
	"github.com/raglinehq/ragline/pkg/retrieval"
)

const (
	// DefaultVectorField is the index field holding document embeddings.
	DefaultVectorField = "text_vector"

	// apiVersion is the Azure AI Search REST API version this driver speaks.
	apiVersion = "2023-11-01"

	// selectFields is the fixed projected field set for every query.
	selectFields = "title,chunk,parent_id"
)

// Retriever implements retrieval.Retriever against Azure AI Search.
type Retriever struct {
	endpoint    string
	apiKey      string
	index       string
	vectorField string
	embedder    embeddings.Embedder
	httpClient  *http.Client
	logger      *zap.Logger
}

// Config holds configuration for the Azure AI Search retriever.
type Config struct {
	// Endpoint is the search service endpoint
	// (e.g. "https://mysearch.search.windows.net").
	Endpoint string

	// APIKey authenticates requests via the api-key header.
	APIKey string

	// Index is the index name to query.
	Index string

	// VectorField is the embedding field queried for nearest neighbors.
	// Defaults to DefaultVectorField if empty.
	VectorField string
}

// NewRetriever creates a new Azure AI Search retriever. Query embeddings are
// produced by the injected embedder.
func NewRetriever(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*Retriever, error) {
	if c.Endpoint == "" {
		return nil, errors.New("search endpoint is required")
	}
	if c.Index == "" {
		return nil, errors.New("search index name is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	vectorField := c.VectorField
	if vectorField == "" {
		vectorField = DefaultVectorField
	}

	return &Retriever{
		endpoint:    strings.TrimRight(c.Endpoint, "/"),
		apiKey:      c.APIKey,
		index:       c.Index,
		vectorField: vectorField,
		embedder:    embedder,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

// Search embeds the query text and issues a vector-only nearest-neighbor
// query against the configured field, projecting title, chunk, parent_id.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	reqBody := searchRequest{
		Count:  false,
		Select: selectFields,
		Top:    topK,
		VectorQueries: []vectorQuery{
			{
				Kind:   "vector",
				Vector: queryEmbedding,
				Fields: r.vectorField,
				K:      topK,
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", r.endpoint, r.index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]retrieval.SearchResult, len(searchResp.Value))
	for i, doc := range searchResp.Value {
		results[i] = retrieval.SearchResult{
			Title:    doc.Title,
			Chunk:    doc.Chunk,
			ParentID: doc.ParentID,
		}
	}

	r.logger.Debug("vector search completed",
		zap.String("index", r.index),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Close releases resources held by the retriever.
func (r *Retriever) Close() error {
	return r.embedder.Close()
}

// Ensure Retriever implements retrieval.Retriever
var _ retrieval.Retriever = (*Retriever)(nil)
