// Package point implements point write and query operations, enforcing the
// collection dimension invariant at the boundary.
package point

import (
	"context"
	"fmt"

	"github.com/vimo-cloud/ragstore/internal/domain"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
)

// Service handles point operations for a collection.
type Service struct {
	repo        Repository
	collections CollectionGetter
}

// New creates a point service.
func New(repo Repository, collections CollectionGetter) *Service {
	return &Service{repo: repo, collections: collections}
}

// resolveCollection fails with the collection sentinel before an operation
// touches a missing collection. Every operation except getOrCreate requires
// the collection to exist.
func (s *Service) resolveCollection(ctx context.Context, collection string) error {
	if _, err := s.collections.Get(ctx, collection); err != nil {
		return fmt.Errorf("resolve collection: %w", err)
	}
	return nil
}

// checkDimension verifies the collection exists and the embedding length
// matches its fixed dimension.
func (s *Service) checkDimension(ctx context.Context, collection string, embedding []float32) error {
	col, err := s.collections.Get(ctx, collection)
	if err != nil {
		return fmt.Errorf("resolve collection: %w", err)
	}
	if len(embedding) != col.Dimension() {
		return fmt.Errorf(
			"embedding has %d dimensions, collection %s expects %d: %w",
			len(embedding), collection, col.Dimension(), domain.ErrDimensionMismatch,
		)
	}
	return nil
}

func validatePoint(p domain.Point) error {
	if p.ID == "" {
		return fmt.Errorf("point id is required")
	}
	if len(p.Embedding) == 0 {
		return fmt.Errorf("point embedding is required")
	}
	return nil
}

// Insert adds a new point. A taken id fails with ErrDuplicateID.
func (s *Service) Insert(ctx context.Context, collection string, p domain.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	if err := s.checkDimension(ctx, collection, p.Embedding); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, collection, p); err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	return nil
}

// Upsert adds or replaces a point.
func (s *Service) Upsert(ctx context.Context, collection string, p domain.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	if err := s.checkDimension(ctx, collection, p.Embedding); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, collection, p); err != nil {
		return fmt.Errorf("upsert point: %w", err)
	}
	return nil
}

// UpsertMulti adds or replaces a batch of points.
func (s *Service) UpsertMulti(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if err := validatePoint(p); err != nil {
			return err
		}
		if err := s.checkDimension(ctx, collection, p.Embedding); err != nil {
			return err
		}
	}
	if err := s.repo.UpsertMulti(ctx, collection, points); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Update replaces an existing point. Updating an absent id is a silent
// no-op.
func (s *Service) Update(ctx context.Context, collection string, p domain.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	if err := s.checkDimension(ctx, collection, p.Embedding); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, collection, p); err != nil {
		return fmt.Errorf("update point: %w", err)
	}
	return nil
}

// Get returns a point by id.
func (s *Service) Get(ctx context.Context, collection, id string) (domain.Point, error) {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return domain.Point{}, err
	}
	p, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return domain.Point{}, fmt.Errorf("get point: %w", err)
	}
	return p, nil
}

// Exists reports whether a point with the given id is stored.
func (s *Service) Exists(ctx context.Context, collection, id string) (bool, error) {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return false, err
	}
	ok, err := s.repo.Exists(ctx, collection, id)
	if err != nil {
		return false, fmt.Errorf("check point: %w", err)
	}
	return ok, nil
}

// Delete removes a point by id.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// DeleteAll removes every point in a collection and returns the count.
func (s *Service) DeleteAll(ctx context.Context, collection string) (int, error) {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteAll(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("delete all points: %w", err)
	}
	return n, nil
}

// QueryAll returns every point in a collection ordered by id.
func (s *Service) QueryAll(ctx context.Context, collection string) ([]domain.Point, error) {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return nil, err
	}
	points, err := s.repo.QueryAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("query all points: %w", err)
	}
	return points, nil
}

// Count returns the number of points in a collection.
func (s *Service) Count(ctx context.Context, collection string) (int, error) {
	if err := s.resolveCollection(ctx, collection); err != nil {
		return 0, err
	}
	n, err := s.repo.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}

// Query runs a similarity search and returns up to limit points ordered by
// similarity descending. A filter, when given, is validated up front and
// applied before the limit cutoff, so filtered queries consider the whole
// collection rather than just the top-limit neighbours.
func (s *Service) Query(
	ctx context.Context, collection string, vector []float32, limit int, expr filter.Expression,
) ([]domain.ScoredPoint, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if expr != nil {
		if err := expr.Validate(); err != nil {
			return nil, fmt.Errorf("validate filter: %w", err)
		}
	}
	if err := s.checkDimension(ctx, collection, vector); err != nil {
		return nil, err
	}

	k := limit
	if expr != nil {
		// Over-fetch so the filter sees every candidate before the cutoff.
		total, err := s.repo.Count(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("count for filtered query: %w", err)
		}
		if total == 0 {
			return nil, nil
		}
		k = total
	}

	hits, err := s.repo.SearchKNN(ctx, collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	if expr == nil {
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits, nil
	}

	filtered := make([]domain.ScoredPoint, 0, limit)
	for _, hit := range hits {
		ok, err := expr.Matches(hit.Payload)
		if err != nil {
			return nil, fmt.Errorf("evaluate filter: %w", err)
		}
		if !ok {
			continue
		}
		filtered = append(filtered, hit)
		if len(filtered) == limit {
			break
		}
	}
	return filtered, nil
}
