// Package point persists vector points as JSON documents and serves both
// exact-key access and index-backed search over them.
package point

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vimo-cloud/ragstore/internal/db"
	"github.com/vimo-cloud/ragstore/internal/domain"
)

// store is the consumer interface for points (ISP).
//
//nolint:interfacebloat // point repo spans document and search operations
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetNX(ctx context.Context, key, path string, data []byte) (bool, error)
	JSONSetXX(ctx context.Context, key, path string, data []byte) (bool, error)
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, paths ...string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements point storage for the usecase layer.
type Repo struct {
	store store
}

// New creates a point repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// pointDoc is the stored JSON form of a point.
type pointDoc struct {
	Embedding []float32      `json:"embedding"`
	Payload   map[string]any `json:"payload"`
}

// Insert stores a new point. Fails with ErrDuplicateID when the id is
// already taken.
func (r *Repo) Insert(ctx context.Context, collection string, p domain.Point) error {
	data, err := marshalPoint(p)
	if err != nil {
		return err
	}

	created, err := r.store.JSONSetNX(ctx, pointKey(collection, p.ID), "$", data)
	if err != nil {
		return fmt.Errorf("json.set nx %s: %w", p.ID, err)
	}
	if !created {
		return fmt.Errorf("point %s: %w", p.ID, domain.ErrDuplicateID)
	}
	return nil
}

// Upsert stores a point, overwriting any existing document with the same id.
func (r *Repo) Upsert(ctx context.Context, collection string, p domain.Point) error {
	data, err := marshalPoint(p)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, pointKey(collection, p.ID), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", p.ID, err)
	}
	return nil
}

// UpsertMulti stores a batch of points in one pipelined round trip.
func (r *Repo) UpsertMulti(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	items := make([]db.JSONSetItem, 0, len(points))
	for _, p := range points {
		data, err := marshalPoint(p)
		if err != nil {
			return err
		}
		items = append(items, db.JSONSetItem{Key: pointKey(collection, p.ID), Path: "$", Data: data})
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set multi: %w", err)
	}
	return nil
}

// Update overwrites an existing point. Updating an absent id is a no-op.
func (r *Repo) Update(ctx context.Context, collection string, p domain.Point) error {
	data, err := marshalPoint(p)
	if err != nil {
		return err
	}
	if _, err := r.store.JSONSetXX(ctx, pointKey(collection, p.ID), "$", data); err != nil {
		return fmt.Errorf("json.set xx %s: %w", p.ID, err)
	}
	return nil
}

// Get returns a point by id.
func (r *Repo) Get(ctx context.Context, collection, id string) (domain.Point, error) {
	raw, err := r.store.JSONGet(ctx, pointKey(collection, id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Point{}, domain.ErrPointNotFound
		}
		return domain.Point{}, fmt.Errorf("json.get %s: %w", id, err)
	}
	return parseWrappedPoint(id, raw)
}

// Exists reports whether a point with the given id is stored.
func (r *Repo) Exists(ctx context.Context, collection, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, pointKey(collection, id))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", id, err)
	}
	return ok, nil
}

// Delete removes a point by id.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	key := pointKey(collection, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrPointNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every point in a collection and returns how many were
// deleted.
func (r *Repo) DeleteAll(ctx context.Context, collection string) (int, error) {
	keys, err := r.store.Scan(ctx, pointPrefix(collection)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan points: %w", err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return 0, fmt.Errorf("del %s: %w", key, err)
		}
	}
	return len(keys), nil
}

// QueryAll returns every point in a collection ordered by id.
func (r *Repo) QueryAll(ctx context.Context, collection string) ([]domain.Point, error) {
	keys, err := r.store.Scan(ctx, pointPrefix(collection)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan points: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	docs, err := r.store.JSONGetMulti(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("json.get multi: %w", err)
	}

	points := make([]domain.Point, 0, len(docs))
	for i, raw := range docs {
		if raw == nil {
			continue // deleted between scan and read
		}
		p, err := parseWrappedPoint(extractID(keys[i], collection), raw)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// Count returns the number of indexed points in a collection.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(collection), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", collection, err)
	}
	return n, nil
}

// SearchKNN returns the k nearest points by cosine similarity.
func (r *Repo) SearchKNN(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPoint, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__embedding_score", "$"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search %s: %w", collection, err)
	}
	return parseScoredEntries(result, collection)
}

// SearchText returns up to topK points ranked by full-text relevance over
// the content field.
func (r *Repo) SearchText(ctx context.Context, collection, query string, topK int) ([]domain.ScoredPoint, error) {
	result, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    indexName(collection),
		Query:        query,
		TextField:    "content",
		TopK:         topK,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("text search %s: %w", collection, err)
	}
	return parseScoredEntries(result, collection)
}

func parseScoredEntries(result *db.SearchResult, collection string) ([]domain.ScoredPoint, error) {
	if result == nil || len(result.Entries) == 0 {
		return nil, nil
	}

	points := make([]domain.ScoredPoint, 0, len(result.Entries))
	for _, entry := range result.Entries {
		raw := entry.Fields["$"]
		if raw == "" {
			continue
		}
		var doc pointDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("parse point %s: %w", entry.Key, err)
		}
		points = append(points, domain.ScoredPoint{
			Point: domain.Point{
				ID:        extractID(entry.Key, collection),
				Embedding: doc.Embedding,
				Payload:   doc.Payload,
			},
			Score: entry.Score,
		})
	}
	return points, nil
}

func marshalPoint(p domain.Point) ([]byte, error) {
	data, err := json.Marshal(pointDoc{Embedding: p.Embedding, Payload: p.Payload})
	if err != nil {
		return nil, fmt.Errorf("marshal point %s: %w", p.ID, err)
	}
	return data, nil
}

// parseWrappedPoint unwraps the array JSON.GET returns for a "$" path.
func parseWrappedPoint(id string, raw []byte) (domain.Point, error) {
	var docs []pointDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domain.Point{}, fmt.Errorf("parse point %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domain.Point{}, domain.ErrPointNotFound
	}
	return domain.Point{ID: id, Embedding: docs[0].Embedding, Payload: docs[0].Payload}, nil
}

func pointKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, collection, id)
}

func pointPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func extractID(key, collection string) string {
	return strings.TrimPrefix(key, pointPrefix(collection))
}
