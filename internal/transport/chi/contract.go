package chi

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
	chatuc "github.com/vimo-cloud/ragstore/internal/usecase/chat"
	healthuc "github.com/vimo-cloud/ragstore/internal/usecase/health"
	ingestuc "github.com/vimo-cloud/ragstore/internal/usecase/ingest"
	retrievaluc "github.com/vimo-cloud/ragstore/internal/usecase/retrieval"
)

// CollectionService manages collection lifecycle.
type CollectionService interface {
	GetOrCreate(ctx context.Context, name string, dimension int) (domcol.Collection, error)
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// PointService manages points within a collection.
type PointService interface {
	Insert(ctx context.Context, collection string, p domain.Point) error
	Upsert(ctx context.Context, collection string, p domain.Point) error
	UpsertMulti(ctx context.Context, collection string, points []domain.Point) error
	Update(ctx context.Context, collection string, p domain.Point) error
	Get(ctx context.Context, collection, id string) (domain.Point, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) (int, error)
	QueryAll(ctx context.Context, collection string) ([]domain.Point, error)
	Count(ctx context.Context, collection string) (int, error)
	Query(
		ctx context.Context, collection string, vector []float32, limit int, expr filter.Expression,
	) ([]domain.ScoredPoint, error)
}

// SearchService runs retrieval queries.
type SearchService interface {
	Search(
		ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
	) ([]record.Record, error)
	KeywordSearch(ctx context.Context, collection, query string, topK int) ([]record.Record, error)
	HybridSearch(
		ctx context.Context, collection, query string, p retrievaluc.HybridParams,
	) ([]record.Record, error)
	History(ctx context.Context, collection, sessionID string) ([]domain.Message, error)
}

// IngestService chunks, embeds, and stores documents.
type IngestService interface {
	Ingest(ctx context.Context, collection string, doc ingestuc.Document) (ingestuc.Result, error)
}

// ChatService streams grounded answers and manages session history.
type ChatService interface {
	Answer(ctx context.Context, req chatuc.Request, emit func(delta string) error) (string, error)
	ClearSessions(ctx context.Context, sessionID string) (int, error)
}

// HealthService probes component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
