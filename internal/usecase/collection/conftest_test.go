package collection

import (
	"context"
	"testing"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	createFn func(ctx context.Context, col domcol.Collection) (bool, error)
	getFn    func(ctx context.Context, name string) (domcol.Collection, error)
	listFn   func(ctx context.Context) ([]domcol.Collection, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockRepo) Create(ctx context.Context, col domcol.Collection) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, col)
	}
	return true, nil
}

func (m *mockRepo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Collection{}, domain.ErrCollectionNotFound
}

func (m *mockRepo) List(ctx context.Context) ([]domcol.Collection, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

// mockPurger implements PointPurger for tests.
type mockPurger struct {
	deleteAllFn func(ctx context.Context, collection string) (int, error)
}

func (m *mockPurger) DeleteAll(ctx context.Context, collection string) (int, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collection)
	}
	return 0, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockPurger) {
	t.Helper()
	repo := &mockRepo{}
	purger := &mockPurger{}
	return New(repo, purger), repo, purger
}
