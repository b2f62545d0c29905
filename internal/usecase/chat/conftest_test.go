package chat

import (
	"context"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
)

const testDim = 3

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	searchFn func(
		ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
	) ([]record.Record, error)
	historyFn func(ctx context.Context, collection, sessionID string) ([]domain.Message, error)
}

func (m *mockRetriever) Search(
	ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
) ([]record.Record, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, collection, query, topK, threshold, expr)
	}
	return nil, nil
}

func (m *mockRetriever) History(ctx context.Context, collection, sessionID string) ([]domain.Message, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, collection, sessionID)
	}
	return nil, nil
}

// mockPointStore keeps points in memory.
type mockPointStore struct {
	upsertFn func(ctx context.Context, collection string, p domain.Point) error

	stored []domain.Point
}

func (m *mockPointStore) Upsert(ctx context.Context, collection string, p domain.Point) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, p)
	}
	m.stored = append(m.stored, p)
	return nil
}

func (m *mockPointStore) Delete(_ context.Context, _ string, id string) error {
	for i, p := range m.stored {
		if p.ID == id {
			m.stored = append(m.stored[:i], m.stored[i+1:]...)
			return nil
		}
	}
	return domain.ErrPointNotFound
}

func (m *mockPointStore) DeleteAll(context.Context, string) (int, error) {
	n := len(m.stored)
	m.stored = nil
	return n, nil
}

func (m *mockPointStore) QueryAll(context.Context, string) ([]domain.Point, error) {
	return m.stored, nil
}

// mockChatCollections implements CollectionProvisioner.
type mockChatCollections struct {
	calls int
}

func (m *mockChatCollections) GetOrCreate(_ context.Context, name string, dimension int) (domcol.Collection, error) {
	m.calls++
	return domcol.Reconstruct(name, dimension, 1), nil
}

// mockStream replays fixed deltas, then an optional error, then io.EOF.
type mockStream struct {
	deltas []string
	err    error
	next   int
	closed bool
}

func (m *mockStream) Recv() (string, error) {
	if m.next < len(m.deltas) {
		d := m.deltas[m.next]
		m.next++
		return d, nil
	}
	if m.err != nil {
		return "", m.err
	}
	return "", io.EOF
}

func (m *mockStream) Close() error {
	m.closed = true
	return nil
}

// mockCompleter records the request and hands out a prepared stream.
type mockCompleter struct {
	stream       *mockStream
	openErr      error
	lastModel    string
	lastMessages []domain.Message
}

func (m *mockCompleter) StreamCompletion(
	_ context.Context, model string, messages []domain.Message,
) (domain.CompletionStream, error) {
	m.lastModel = model
	m.lastMessages = messages
	if m.openErr != nil {
		return nil, m.openErr
	}
	if m.stream == nil {
		m.stream = &mockStream{}
	}
	return m.stream, nil
}

// mockTurnEmbedder returns a fixed vector.
type mockTurnEmbedder struct {
	err error
}

func (m *mockTurnEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

// passTrimmer returns the conversation unchanged.
type passTrimmer struct {
	trimFn func(messages []domain.Message, language string) ([]domain.Message, error)
}

func (p *passTrimmer) Trim(messages []domain.Message, language string) ([]domain.Message, error) {
	if p.trimFn != nil {
		return p.trimFn(messages, language)
	}
	return messages, nil
}

type testEnv struct {
	svc       *Service
	retriever *mockRetriever
	points    *mockPointStore
	completer *mockCompleter
	trimmer   *passTrimmer
	embed     *mockTurnEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		retriever: &mockRetriever{},
		points:    &mockPointStore{},
		completer: &mockCompleter{},
		trimmer:   &passTrimmer{},
		embed:     &mockTurnEmbedder{},
	}
	env.svc = New(
		env.retriever,
		env.points,
		&mockChatCollections{},
		env.completer,
		env.embed,
		env.trimmer,
		testDim,
		"gpt-4o-mini",
		zap.NewNop(),
	)
	return env
}
