package collection

import (
	"context"

	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// Repository defines the storage contract for collection descriptors.
type Repository interface {
	// Create registers the collection, returning false when another writer
	// already holds the name.
	Create(ctx context.Context, col domcol.Collection) (bool, error)
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// PointPurger removes all points of a collection when it is deleted.
type PointPurger interface {
	DeleteAll(ctx context.Context, collection string) (int, error)
}
