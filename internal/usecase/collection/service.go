// Package collection implements collection lifecycle operations.
package collection

import (
	"context"
	"fmt"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// Service handles collection lifecycle operations.
type Service struct {
	repo   Repository
	points PointPurger
}

// New creates a collection service.
func New(repo Repository, points PointPurger) *Service {
	return &Service{repo: repo, points: points}
}

// GetOrCreate returns the collection with the given name, creating it when
// absent. Concurrent callers converge on a single winner; every caller gets
// the winner's record, and a caller whose requested dimension disagrees with
// the stored one gets ErrDimensionMismatch.
func (s *Service) GetOrCreate(ctx context.Context, name string, dimension int) (domcol.Collection, error) {
	col, err := domcol.New(name, dimension)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w", err)
	}

	created, err := s.repo.Create(ctx, col)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	if created {
		return col, nil
	}

	// Lost the creation race or the collection predates this call: the
	// stored record wins.
	existing, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	if existing.Dimension() != dimension {
		return domcol.Collection{}, fmt.Errorf(
			"collection %s has dimension %d, requested %d: %w",
			name, existing.Dimension(), dimension, domain.ErrDimensionMismatch,
		)
	}
	return existing, nil
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection, its index, and all of its points.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if _, err := s.points.DeleteAll(ctx, name); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}
