// Package retrieval implements semantic, keyword, and hybrid search over a
// point collection, plus chat history reconstruction.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
)

// Service runs retrieval queries against a collection.
type Service struct {
	points   PointSearcher
	embed    domain.Embedder
	reranker domain.Reranker // nil disables re-ranking
	logger   *zap.Logger

	rerankFailures prometheus.Counter
}

// HybridParams bounds one hybrid search. KeywordTopK falls back to
// SemanticTopK when unset; TopN caps the fused list (and the rerank
// shortlist), 0 meaning no cap; Filter may be nil.
type HybridParams struct {
	SemanticTopK int
	KeywordTopK  int
	Threshold    float64
	Alpha        float64
	Rerank       bool
	TopN         int
	Filter       filter.Expression
}

// New creates a retrieval service. reranker may be nil.
func New(points PointSearcher, embed domain.Embedder, reranker domain.Reranker, logger *zap.Logger) *Service {
	return &Service{points: points, embed: embed, reranker: reranker, logger: logger}
}

// WithRerankFailureCounter wires the degraded-rerank metric.
func (s *Service) WithRerankFailureCounter(c prometheus.Counter) *Service {
	s.rerankFailures = c
	return s
}

// Search embeds the query and returns semantic hits with similarity at or
// above threshold, ordered by similarity descending. Queries are lower-cased
// before embedding so retrieval matches how documents were ingested. A
// non-nil filter is validated up front and applied before the topK cutoff.
func (s *Service) Search(
	ctx context.Context, collection, query string, topK int, threshold float64, expr filter.Expression,
) ([]record.Record, error) {
	if expr != nil {
		if err := expr.Validate(); err != nil {
			return nil, fmt.Errorf("validate filter: %w", err)
		}
	}

	emb, err := s.embed.Embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	k := topK
	if expr != nil {
		// Over-fetch so the filter sees every candidate before the cutoff.
		total, err := s.points.Count(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("count for filtered search: %w", err)
		}
		if total == 0 {
			return nil, nil
		}
		k = total
	}

	hits, err := s.points.SearchKNN(ctx, collection, emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	records := make([]record.Record, 0, topK)
	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		if expr != nil {
			ok, err := expr.Matches(hit.Payload)
			if err != nil {
				return nil, fmt.Errorf("evaluate filter: %w", err)
			}
			if !ok {
				continue
			}
		}
		records = append(records, toRecord(hit, record.Semantic))
		if len(records) == topK {
			break
		}
	}
	return records, nil
}

// KeywordSearch returns full-text hits ordered by text rank descending.
func (s *Service) KeywordSearch(
	ctx context.Context, collection, query string, topK int,
) ([]record.Record, error) {
	return s.keywordLeg(ctx, collection, query, topK, nil)
}

// keywordLeg runs the text search and applies the payload filter of a hybrid
// call, so a filtered hybrid search never mixes in records the caller
// excluded.
func (s *Service) keywordLeg(
	ctx context.Context, collection, query string, topK int, expr filter.Expression,
) ([]record.Record, error) {
	hits, err := s.points.SearchText(ctx, collection, query, topK)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	records := make([]record.Record, 0, len(hits))
	for _, hit := range hits {
		if expr != nil {
			ok, err := expr.Matches(hit.Payload)
			if err != nil {
				return nil, fmt.Errorf("evaluate filter: %w", err)
			}
			if !ok {
				continue
			}
		}
		records = append(records, toRecord(hit, record.Keyword))
	}
	return records, nil
}

// HybridSearch runs both legs with their own depths, drops semantic hits
// below the threshold, fuses by weighted score, caps the fused list at TopN,
// and optionally re-ranks that shortlist. A rerank failure degrades to the
// fused order rather than failing the search.
func (s *Service) HybridSearch(
	ctx context.Context, collection, query string, p HybridParams,
) ([]record.Record, error) {
	keywordTopK := p.KeywordTopK
	if keywordTopK <= 0 {
		keywordTopK = p.SemanticTopK
	}

	semantic, err := s.Search(ctx, collection, query, p.SemanticTopK, p.Threshold, p.Filter)
	if err != nil {
		return nil, err
	}

	keyword, err := s.keywordLeg(ctx, collection, query, keywordTopK, p.Filter)
	if err != nil {
		return nil, err
	}

	fused := Fuse(semantic, keyword, p.Alpha)
	if p.TopN > 0 && len(fused) > p.TopN {
		fused = fused[:p.TopN]
	}

	if !p.Rerank || s.reranker == nil || len(fused) == 0 {
		return fused, nil
	}
	return s.rerank(ctx, query, fused), nil
}

// rerank reorders records by model relevance, falling back to the given
// order on any failure.
func (s *Service) rerank(ctx context.Context, query string, records []record.Record) []record.Record {
	docs := make([]string, 0, len(records))
	for _, r := range records {
		docs = append(docs, r.Content)
	}

	ranked, err := s.reranker.Rerank(ctx, query, docs, len(docs))
	if err != nil {
		s.logger.Warn("Rerank failed, returning fused order", zap.Error(err))
		if s.rerankFailures != nil {
			s.rerankFailures.Inc()
		}
		return records
	}

	out := make([]record.Record, 0, len(ranked))
	for _, rd := range ranked {
		if rd.Index < 0 || rd.Index >= len(records) {
			continue
		}
		r := records[rd.Index]
		r.Score = rd.Relevance
		out = append(out, r)
	}
	if len(out) == 0 {
		return records
	}
	return out
}

// History returns the messages of a session in chronological order.
func (s *Service) History(ctx context.Context, collection, sessionID string) ([]domain.Message, error) {
	points, err := s.points.QueryAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	type stamped struct {
		msg domain.Message
		ts  string
	}
	var rows []stamped
	for _, p := range points {
		if p.PayloadString("session_id") != sessionID {
			continue
		}
		rows = append(rows, stamped{
			msg: domain.Message{
				Role:    p.PayloadString("role"),
				Content: p.PayloadString("content"),
			},
			ts: p.PayloadString("timestamp"),
		})
	}

	// RFC3339 timestamps order lexicographically.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts < rows[j].ts })

	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.msg)
	}
	return messages, nil
}

func toRecord(hit domain.ScoredPoint, st record.SearchType) record.Record {
	return record.Record{
		Content:    hit.PayloadString("content"),
		Title:      hit.PayloadString("title"),
		Source:     hit.PayloadString("source"),
		Type:       hit.PayloadString("type"),
		Score:      hit.Score,
		SearchType: st,
	}
}
