// Package retrieval provides interfaces and implementations for querying a
// hosted nearest-neighbor document index.
package retrieval

import "context"

// DefaultTopK is the number of results requested when callers pass no
// explicit value.
const DefaultTopK = 3

// SearchResult is one retrieved document chunk with its metadata. Results
// are transient: they only feed the per-request context string and are
// never persisted.
type SearchResult struct {
	Title    string `json:"title"`
	Chunk    string `json:"chunk"`
	ParentID string `json:"parent_id"`
}

// Retriever finds the document chunks most relevant to a query text.
type Retriever interface {
	// Search embeds the query and returns the topK nearest chunks in index
	// order. No query-side text matching is performed.
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)

	// Close releases any resources held by the retriever.
	Close() error
}
