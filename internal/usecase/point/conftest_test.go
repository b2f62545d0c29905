package point

import (
	"context"
	"testing"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

const testDim = 3

// mockRepo implements Repository for tests.
type mockRepo struct {
	insertFn      func(ctx context.Context, collection string, p domain.Point) error
	upsertFn      func(ctx context.Context, collection string, p domain.Point) error
	upsertMultiFn func(ctx context.Context, collection string, points []domain.Point) error
	updateFn      func(ctx context.Context, collection string, p domain.Point) error
	getFn         func(ctx context.Context, collection, id string) (domain.Point, error)
	existsFn      func(ctx context.Context, collection, id string) (bool, error)
	deleteFn      func(ctx context.Context, collection, id string) error
	deleteAllFn   func(ctx context.Context, collection string) (int, error)
	queryAllFn    func(ctx context.Context, collection string) ([]domain.Point, error)
	countFn       func(ctx context.Context, collection string) (int, error)
	searchKNNFn   func(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error)
}

func (m *mockRepo) Insert(ctx context.Context, collection string, p domain.Point) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, collection, p)
	}
	return nil
}

func (m *mockRepo) Upsert(ctx context.Context, collection string, p domain.Point) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, p)
	}
	return nil
}

func (m *mockRepo) UpsertMulti(ctx context.Context, collection string, points []domain.Point) error {
	if m.upsertMultiFn != nil {
		return m.upsertMultiFn(ctx, collection, points)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, collection string, p domain.Point) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, collection, p)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, collection, id string) (domain.Point, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id)
	}
	return domain.Point{}, domain.ErrPointNotFound
}

func (m *mockRepo) Exists(ctx context.Context, collection, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, collection, id)
	}
	return false, nil
}

func (m *mockRepo) Delete(ctx context.Context, collection, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, id)
	}
	return nil
}

func (m *mockRepo) DeleteAll(ctx context.Context, collection string) (int, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockRepo) QueryAll(ctx context.Context, collection string) ([]domain.Point, error) {
	if m.queryAllFn != nil {
		return m.queryAllFn(ctx, collection)
	}
	return nil, nil
}

func (m *mockRepo) Count(ctx context.Context, collection string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockRepo) SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, collection, vector, k)
	}
	return nil, nil
}

// mockCollections implements CollectionGetter for tests.
type mockCollections struct {
	getFn func(ctx context.Context, name string) (domcol.Collection, error)
}

func (m *mockCollections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, testDim, 1), nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockCollections) {
	t.Helper()
	repo := &mockRepo{}
	cols := &mockCollections{}
	return New(repo, cols), repo, cols
}

func testPoint(id string) domain.Point {
	return domain.Point{
		ID:        id,
		Embedding: []float32{0.1, 0.2, 0.3},
		Payload:   map[string]any{"content": "text", "source": "manual.pdf"},
	}
}

func scored(id string, score float64, payload map[string]any) domain.ScoredPoint {
	return domain.ScoredPoint{
		Point: domain.Point{ID: id, Embedding: []float32{0.1, 0.2, 0.3}, Payload: payload},
		Score: score,
	}
}
