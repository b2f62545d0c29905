package chat

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
)

// Retriever supplies document context and past conversation turns.
type Retriever interface {
	Search(
		ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
	) ([]record.Record, error)
	History(ctx context.Context, collection, sessionID string) ([]domain.Message, error)
}

// PointStore persists and clears conversation turns.
type PointStore interface {
	Upsert(ctx context.Context, collection string, p domain.Point) error
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) (int, error)
	QueryAll(ctx context.Context, collection string) ([]domain.Point, error)
}

// CollectionProvisioner ensures the chat-history collection exists.
type CollectionProvisioner interface {
	GetOrCreate(ctx context.Context, name string, dimension int) (domcol.Collection, error)
}

// HistoryTrimmer bounds a full conversation to a language token budget. It
// receives [system, history..., user] and may drop anything between the two
// endpoints.
type HistoryTrimmer interface {
	Trim(messages []domain.Message, language string) ([]domain.Message, error)
}
