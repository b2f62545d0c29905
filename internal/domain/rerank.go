package domain

import "context"

// RankedDocument is one entry of a rerank response: the index of the input
// document and its model-assigned relevance.
type RankedDocument struct {
	Index     int
	Relevance float64
}

// Reranker reorders candidate documents by relevance to a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}
