package chi

import (
	"context"
	"net/http"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
	chatuc "github.com/vimo-cloud/ragstore/internal/usecase/chat"
	healthuc "github.com/vimo-cloud/ragstore/internal/usecase/health"
	ingestuc "github.com/vimo-cloud/ragstore/internal/usecase/ingest"
	retrievaluc "github.com/vimo-cloud/ragstore/internal/usecase/retrieval"
)

type mockCollections struct {
	getOrCreateFn func(ctx context.Context, name string, dimension int) (domcol.Collection, error)
	getFn         func(ctx context.Context, name string) (domcol.Collection, error)
	listFn        func(ctx context.Context) ([]domcol.Collection, error)
	deleteFn      func(ctx context.Context, name string) error
}

func (m *mockCollections) GetOrCreate(ctx context.Context, name string, dim int) (domcol.Collection, error) {
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, name, dim)
	}
	return domcol.Reconstruct(name, dim, 1700000000000), nil
}

func (m *mockCollections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, 3, 1700000000000), nil
}

func (m *mockCollections) List(ctx context.Context) ([]domcol.Collection, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCollections) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

type mockPoints struct {
	insertFn      func(ctx context.Context, collection string, p domain.Point) error
	upsertFn      func(ctx context.Context, collection string, p domain.Point) error
	upsertMultiFn func(ctx context.Context, collection string, points []domain.Point) error
	updateFn      func(ctx context.Context, collection string, p domain.Point) error
	getFn         func(ctx context.Context, collection, id string) (domain.Point, error)
	deleteFn      func(ctx context.Context, collection, id string) error
	deleteAllFn   func(ctx context.Context, collection string) (int, error)
	queryAllFn    func(ctx context.Context, collection string) ([]domain.Point, error)
	countFn       func(ctx context.Context, collection string) (int, error)
	queryFn       func(
		ctx context.Context, collection string, vector []float32, limit int, expr filter.Expression,
	) ([]domain.ScoredPoint, error)
}

func (m *mockPoints) Insert(ctx context.Context, collection string, p domain.Point) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, collection, p)
	}
	return nil
}

func (m *mockPoints) Upsert(ctx context.Context, collection string, p domain.Point) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, p)
	}
	return nil
}

func (m *mockPoints) UpsertMulti(ctx context.Context, collection string, points []domain.Point) error {
	if m.upsertMultiFn != nil {
		return m.upsertMultiFn(ctx, collection, points)
	}
	return nil
}

func (m *mockPoints) Update(ctx context.Context, collection string, p domain.Point) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, collection, p)
	}
	return nil
}

func (m *mockPoints) Get(ctx context.Context, collection, id string) (domain.Point, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id)
	}
	return domain.Point{ID: id}, nil
}

func (m *mockPoints) Delete(ctx context.Context, collection, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, id)
	}
	return nil
}

func (m *mockPoints) DeleteAll(ctx context.Context, collection string) (int, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockPoints) QueryAll(ctx context.Context, collection string) ([]domain.Point, error) {
	if m.queryAllFn != nil {
		return m.queryAllFn(ctx, collection)
	}
	return nil, nil
}

func (m *mockPoints) Count(ctx context.Context, collection string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockPoints) Query(
	ctx context.Context, collection string, vector []float32, limit int, expr filter.Expression,
) ([]domain.ScoredPoint, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, collection, vector, limit, expr)
	}
	return nil, nil
}

type mockSearch struct {
	searchFn func(
		ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
	) ([]record.Record, error)
	keywordFn func(ctx context.Context, collection, query string, topK int) ([]record.Record, error)
	hybridFn  func(
		ctx context.Context, collection, query string, p retrievaluc.HybridParams,
	) ([]record.Record, error)
	historyFn func(ctx context.Context, collection, sessionID string) ([]domain.Message, error)
}

func (m *mockSearch) Search(
	ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
) ([]record.Record, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, collection, query, topK, threshold, expr)
	}
	return nil, nil
}

func (m *mockSearch) KeywordSearch(
	ctx context.Context, collection, query string, topK int,
) ([]record.Record, error) {
	if m.keywordFn != nil {
		return m.keywordFn(ctx, collection, query, topK)
	}
	return nil, nil
}

func (m *mockSearch) HybridSearch(
	ctx context.Context, collection, query string, p retrievaluc.HybridParams,
) ([]record.Record, error) {
	if m.hybridFn != nil {
		return m.hybridFn(ctx, collection, query, p)
	}
	return nil, nil
}

func (m *mockSearch) History(ctx context.Context, collection, sessionID string) ([]domain.Message, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, collection, sessionID)
	}
	return nil, nil
}

type mockIngest struct {
	ingestFn func(ctx context.Context, collection string, doc ingestuc.Document) (ingestuc.Result, error)
}

func (m *mockIngest) Ingest(
	ctx context.Context, collection string, doc ingestuc.Document,
) (ingestuc.Result, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, collection, doc)
	}
	return ingestuc.Result{}, nil
}

type mockChat struct {
	answerFn func(ctx context.Context, req chatuc.Request, emit func(delta string) error) (string, error)
	clearFn  func(ctx context.Context, sessionID string) (int, error)
}

func (m *mockChat) Answer(
	ctx context.Context, req chatuc.Request, emit func(delta string) error,
) (string, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, req, emit)
	}
	return "", nil
}

func (m *mockChat) ClearSessions(ctx context.Context, sessionID string) (int, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx, sessionID)
	}
	return 0, nil
}

type mockHealth struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	if m.checkFn != nil {
		return m.checkFn(ctx)
	}
	return healthuc.Report{Status: healthuc.Healthy}
}

// testEnv bundles the server with its mocks for per-test overrides.
type testEnv struct {
	server      *Server
	handler     http.Handler
	collections *mockCollections
	points      *mockPoints
	search      *mockSearch
	ingest      *mockIngest
	chat        *mockChat
	health      *mockHealth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		collections: &mockCollections{},
		points:      &mockPoints{},
		search:      &mockSearch{},
		ingest:      &mockIngest{},
		chat:        &mockChat{},
		health:      &mockHealth{},
	}
	env.server = NewServer(
		env.collections, env.points, env.search, env.ingest, env.chat, env.health, zap.NewNop(),
	)

	r := chirouter.NewRouter()
	env.server.Register(r)
	env.handler = r

	return env
}
