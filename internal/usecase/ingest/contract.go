package ingest

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// CollectionProvisioner ensures the target collection exists before writes.
type CollectionProvisioner interface {
	GetOrCreate(ctx context.Context, name string, dimension int) (domcol.Collection, error)
}

// PointWriter stores chunk points and answers idempotency probes.
type PointWriter interface {
	Exists(ctx context.Context, collection, id string) (bool, error)
	Upsert(ctx context.Context, collection string, p domain.Point) error
}
