package retrieval

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// mockSearcher implements PointSearcher for tests.
type mockSearcher struct {
	searchKNNFn  func(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error)
	searchTextFn func(ctx context.Context, collection, query string, topK int) ([]domain.ScoredPoint, error)
	queryAllFn   func(ctx context.Context, collection string) ([]domain.Point, error)
	countFn      func(ctx context.Context, collection string) (int, error)
}

func (m *mockSearcher) SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, collection, vector, k)
	}
	return nil, nil
}

func (m *mockSearcher) SearchText(ctx context.Context, collection, query string, topK int) ([]domain.ScoredPoint, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, collection, query, topK)
	}
	return nil, nil
}

func (m *mockSearcher) QueryAll(ctx context.Context, collection string) ([]domain.Point, error) {
	if m.queryAllFn != nil {
		return m.queryAllFn(ctx, collection)
	}
	return nil, nil
}

func (m *mockSearcher) Count(ctx context.Context, collection string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection)
	}
	return 0, nil
}

// mockEmbedder records the input and returns a fixed vector.
type mockEmbedder struct {
	lastInput string
	err       error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastInput = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

// mockReranker implements domain.Reranker for tests.
type mockReranker struct {
	rerankFn func(ctx context.Context, query string, documents []string, topN int) ([]domain.RankedDocument, error)
}

func (m *mockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.RankedDocument, error) {
	if m.rerankFn != nil {
		return m.rerankFn(ctx, query, documents, topN)
	}
	return nil, nil
}

func newTestService(t *testing.T, reranker domain.Reranker) (*Service, *mockSearcher, *mockEmbedder) {
	t.Helper()
	ms := &mockSearcher{}
	me := &mockEmbedder{}
	return New(ms, me, reranker, zap.NewNop()), ms, me
}

func hit(content, source string, score float64) domain.ScoredPoint {
	return domain.ScoredPoint{
		Point: domain.Point{
			ID: content,
			Payload: map[string]any{
				"content": content,
				"source":  source,
				"title":   "t",
				"type":    "text",
			},
		},
		Score: score,
	}
}
