package point

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// Repository defines the storage contract for points.
//
//nolint:interfacebloat // point storage spans document and search operations
type Repository interface {
	Insert(ctx context.Context, collection string, p domain.Point) error
	Upsert(ctx context.Context, collection string, p domain.Point) error
	UpsertMulti(ctx context.Context, collection string, points []domain.Point) error
	Update(ctx context.Context, collection string, p domain.Point) error
	Get(ctx context.Context, collection, id string) (domain.Point, error)
	Exists(ctx context.Context, collection, id string) (bool, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) (int, error)
	QueryAll(ctx context.Context, collection string) ([]domain.Point, error)
	Count(ctx context.Context, collection string) (int, error)
	SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error)
}

// CollectionGetter resolves collection descriptors for dimension checks.
type CollectionGetter interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
