package retrieval

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// PointSearcher is the search surface of the point repository this service
// consumes (ISP).
type PointSearcher interface {
	SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error)
	SearchText(ctx context.Context, collection, query string, topK int) ([]domain.ScoredPoint, error)
	QueryAll(ctx context.Context, collection string) ([]domain.Point, error)
	Count(ctx context.Context, collection string) (int, error)
}
