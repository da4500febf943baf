// Package nop provides a retriever that returns no results. It backs
// deployments with retrieval disabled: every prompt is answered without
// document context.
package nop

import (
	"context"

	"github.com/raglinehq/ragline/pkg/retrieval"
)

// Retriever is a no-op retrieval.Retriever.
type Retriever struct{}

// NewRetriever creates a new no-op retriever.
func NewRetriever() *Retriever {
	return &Retriever{}
}

// Search always returns an empty result set.
func (r *Retriever) Search(_ context.Context, _ string, _ int) ([]retrieval.SearchResult, error) {
	return nil, nil
}

// Close is a no-op.
func (r *Retriever) Close() error {
	return nil
}

// Ensure Retriever implements retrieval.Retriever
var _ retrieval.Retriever = (*Retriever)(nil)
