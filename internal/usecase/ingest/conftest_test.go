package ingest

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

const testDim = 3

// mockCollections implements CollectionProvisioner for tests.
type mockCollections struct {
	getOrCreateFn func(ctx context.Context, name string, dimension int) (domcol.Collection, error)
	calls         int
}

func (m *mockCollections) GetOrCreate(ctx context.Context, name string, dimension int) (domcol.Collection, error) {
	m.calls++
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, name, dimension)
	}
	return domcol.Reconstruct(name, dimension, 1), nil
}

// mockPoints implements PointWriter with an in-memory map by default.
type mockPoints struct {
	existsFn func(ctx context.Context, collection, id string) (bool, error)
	upsertFn func(ctx context.Context, collection string, p domain.Point) error

	stored map[string]domain.Point
}

func (m *mockPoints) Exists(ctx context.Context, collection, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, collection, id)
	}
	_, ok := m.stored[id]
	return ok, nil
}

func (m *mockPoints) Upsert(ctx context.Context, collection string, p domain.Point) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, p)
	}
	if m.stored == nil {
		m.stored = make(map[string]domain.Point)
	}
	m.stored[p.ID] = p
	return nil
}

// mockBatchEmbedder returns a fixed-size vector per input and records them.
type mockBatchEmbedder struct {
	inputs []string
	err    error
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.inputs = append(m.inputs, texts...)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{0.1, 0.2, 0.3}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}

func newTestService(t *testing.T) (*Service, *mockCollections, *mockPoints, *mockBatchEmbedder) {
	t.Helper()
	cols := &mockCollections{}
	points := &mockPoints{}
	embed := &mockBatchEmbedder{}
	svc := New(cols, points, embed, testDim, zap.NewNop())
	return svc, cols, points, embed
}
