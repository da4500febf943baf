// Package qdrant provides a retrieval driver backed by a Qdrant vector
// database over gRPC. It is an alternative to the hosted Azure AI Search
// driver for self-hosted deployments.
package qdrant

import (
	"context"
	"errors"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/embeddings"
	"github.com/raglinehq/ragline/pkg/retrieval"
)

// DefaultPort is the Qdrant gRPC port.
const DefaultPort = 6334

// Retriever implements retrieval.Retriever against a Qdrant collection.
// Payloads are expected to carry title, chunk, and parent_id fields.
type Retriever struct {
	client     *qdrantclient.Client
	collection string
	embedder   embeddings.Embedder
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant retriever.
type Config struct {
	// Host is the Qdrant server hostname.
	Host string

	// Port is the gRPC port. Defaults to DefaultPort if zero.
	Port int

	// APIKey authenticates requests when the server requires it.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool

	// Collection is the collection name to query.
	Collection string
}

// NewRetriever creates a new Qdrant retriever. Query embeddings are produced
// by the injected embedder.
func NewRetriever(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*Retriever, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}
	if c.Collection == "" {
		return nil, errors.New("qdrant collection name is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Retriever{
		client:     client,
		collection: c.Collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Search embeds the query text and runs a nearest-neighbor query against the
// collection, reading title, chunk, and parent_id from point payloads.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := r.client.Query(ctx, &qdrantclient.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrantclient.NewQuery(queryEmbedding...),
		Limit:          qdrantclient.PtrOf(uint64(topK)),
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %q: %w", r.collection, err)
	}

	results := make([]retrieval.SearchResult, len(points))
	for i, point := range points {
		results[i] = retrieval.SearchResult{
			Title:    point.Payload["title"].GetStringValue(),
			Chunk:    point.Payload["chunk"].GetStringValue(),
			ParentID: point.Payload["parent_id"].GetStringValue(),
		}
	}

	r.logger.Debug("vector search completed",
		zap.String("collection", r.collection),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Close shuts down the gRPC connection and the embedder.
func (r *Retriever) Close() error {
	if err := r.client.Close(); err != nil {
		return err
	}
	return r.embedder.Close()
}

// Ensure Retriever implements retrieval.Retriever
var _ retrieval.Retriever = (*Retriever)(nil)
