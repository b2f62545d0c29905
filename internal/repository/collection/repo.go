// Package collection persists collection descriptors and manages their
// search indexes.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/vimo-cloud/ragstore/internal/db"
	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the collection registry over string descriptors keyed by
// collection name. Descriptor creation uses SET NX so concurrent creators
// race safely: exactly one wins and the rest observe the winner's record.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// descriptor is the stored JSON form of a collection.
type descriptor struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	CreatedAt int64  `json:"created_at"`
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Create registers a collection and builds its index. Returns false without
// error when the descriptor already exists; the caller re-reads the winner
// and checks dimensions. On FT.CREATE failure the descriptor is rolled back.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) (bool, error) {
	data, err := json.Marshal(descriptor{
		Name:      col.Name(),
		Dimension: col.Dimension(),
		CreatedAt: col.CreatedAt(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal descriptor: %w", err)
	}

	created, err := r.store.SetNX(ctx, DescriptorKey(col.Name()), data)
	if err != nil {
		return false, fmt.Errorf("setnx collection %s: %w", col.Name(), err)
	}
	if !created {
		return false, nil
	}

	indexDef, err := buildIndex(col.Name(), col.Dimension(), r.hnsw)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, indexDef); err != nil && !errors.Is(err, db.ErrIndexExists) {
		cleanupErr := r.store.Del(ctx, DescriptorKey(col.Name()))
		return false, errors.Join(fmt.Errorf("create index %s: %w", indexDef.Name, err), cleanupErr)
	}

	return true, nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	data, err := r.store.Get(ctx, DescriptorKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcol.Collection{}, domain.ErrCollectionNotFound
		}
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}

	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return domcol.Collection{}, fmt.Errorf("parse descriptor %s: %w", name, err)
	}

	return domcol.Reconstruct(d.Name, d.Dimension, d.CreatedAt), nil
}

// List returns all collections sorted by creation time.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, DescriptorKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}

	collections := make([]domcol.Collection, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and read
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var d descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse descriptor %s: %w", key, err)
		}
		collections = append(collections, domcol.Reconstruct(d.Name, d.Dimension, d.CreatedAt))
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].CreatedAt() < collections[j].CreatedAt()
	})

	return collections, nil
}

// Delete removes a collection descriptor and drops its index. On
// FT.DROPINDEX failure the descriptor is restored.
func (r *Repo) Delete(ctx context.Context, name string) error {
	backup, err := r.store.Get(ctx, DescriptorKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrCollectionNotFound
		}
		return fmt.Errorf("get collection %s: %w", name, err)
	}

	if err := r.store.Del(ctx, DescriptorKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}

	if err := r.store.DropIndex(ctx, IndexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		cleanupErr := r.store.Set(ctx, DescriptorKey(name), backup)
		return errors.Join(fmt.Errorf("drop index: %w", err), cleanupErr)
	}

	return nil
}

func buildIndex(name string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(IndexName(name)).
		Prefix(PointPrefix(name)).
		Text("$.payload.content", "content").
		Text("$.payload.title", "title").
		VectorHNSW("$.embedding", "embedding", dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}

// Redis key patterns: ragstore:collection:{name}, ragstore:{name}:idx,
// ragstore:{name}:{id}

// DescriptorKey returns the key holding a collection's descriptor.
func DescriptorKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

// IndexName returns the FT index name for a collection.
func IndexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

// PointPrefix returns the key prefix under which a collection's points live.
func PointPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}
