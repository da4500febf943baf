package testutils

import (
	"context"
	"errors"

	"github.com/raglinehq/ragline/pkg/retrieval"
)

// MockRetriever is a test retriever that returns canned search results.
type MockRetriever struct {
	// Results is returned by every Search call.
	Results []retrieval.SearchResult

	// Queries accumulates every query passed to Search.
	Queries []string

	// TopKs accumulates every topK passed to Search.
	TopKs []int

	// FailSearch causes Search to return an error.
	FailSearch bool
}

// NewMockRetriever creates a new mock retriever.
func NewMockRetriever() *MockRetriever {
	return &MockRetriever{}
}

func (m *MockRetriever) Search(_ context.Context, query string, topK int) ([]retrieval.SearchResult, error) {
	m.Queries = append(m.Queries, query)
	m.TopKs = append(m.TopKs, topK)
	if m.FailSearch {
		return nil, errors.New("mock search failure")
	}
	return m.Results, nil
}

func (m *MockRetriever) Close() error {
	return nil
}

// Ensure MockRetriever implements retrieval.Retriever
var _ retrieval.Retriever = (*MockRetriever)(nil)
