package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vimo-cloud/ragstore/internal/domain/filter"
	"github.com/vimo-cloud/ragstore/internal/domain/record"
	"github.com/vimo-cloud/ragstore/internal/metrics"
	ingestuc "github.com/vimo-cloud/ragstore/internal/usecase/ingest"
	retrievaluc "github.com/vimo-cloud/ragstore/internal/usecase/retrieval"
)

const (
	defaultSearchTopK      = 5
	defaultSearchThreshold = 0.5
	defaultSearchAlpha     = 0.7
)

type searchRequest struct {
	Query       string         `json:"query"`
	Mode        string         `json:"mode,omitempty"`
	TopK        int            `json:"top_k,omitempty"`
	KeywordTopK int            `json:"keyword_top_k,omitempty"`
	Threshold   *float64       `json:"threshold,omitempty"`
	Alpha       *float64       `json:"alpha,omitempty"`
	Rerank      *bool          `json:"rerank,omitempty"`
	TopN        int            `json:"top_n,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchResponse struct {
	Items []record.Record `json:"items"`
	Total int             `json:"total"`
}

// handleSearch serves POST /collections/{collection}/search. Mode selects
// the retrieval leg: semantic (default), keyword, or hybrid. Unset top_k,
// threshold, and alpha fall back to the server's configured defaults.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.searchTopK
	}
	threshold := s.searchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	alpha := s.searchAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	rerank := true
	if req.Rerank != nil {
		rerank = *req.Rerank
	}
	if threshold < 0 || threshold > 1 {
		writeError(w, http.StatusBadRequest, "validation_failed", "threshold must be in [0, 1]")
		return
	}
	if alpha < 0 || alpha > 1 {
		writeError(w, http.StatusBadRequest, "validation_failed", "alpha must be in [0, 1]")
		return
	}

	var expr filter.Expression
	if req.Filter != nil {
		parsed, err := filter.Parse(req.Filter)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		expr = parsed
	}

	collection := chi.URLParam(r, "collection")
	start := time.Now()

	var (
		mode    string
		records []record.Record
		err     error
	)
	switch req.Mode {
	case "", "semantic":
		mode = "semantic"
		records, err = s.search.Search(r.Context(), collection, req.Query, topK, threshold, expr)
	case "keyword":
		mode = "keyword"
		records, err = s.search.KeywordSearch(r.Context(), collection, req.Query, topK)
	case "hybrid":
		mode = "hybrid"
		records, err = s.search.HybridSearch(r.Context(), collection, req.Query, retrievaluc.HybridParams{
			SemanticTopK: topK,
			KeywordTopK:  req.KeywordTopK,
			Threshold:    threshold,
			Alpha:        alpha,
			Rerank:       rerank,
			TopN:         req.TopN,
			Filter:       expr,
		})
	default:
		writeError(w, http.StatusBadRequest, "validation_failed",
			"mode must be semantic, keyword, or hybrid")
		return
	}

	metrics.SearchRequestDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(mode, "error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.SearchRequestsTotal.WithLabelValues(mode, "ok").Inc()

	if records == nil {
		records = []record.Record{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Items: records, Total: len(records)})
}

type ingestRequest struct {
	Source   string   `json:"source"`
	Sections []string `json:"sections"`
	Tables   []string `json:"tables,omitempty"`
}

// handleIngest serves POST /collections/{collection}/ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "source is required")
		return
	}

	result, err := s.ingest.Ingest(r.Context(), chi.URLParam(r, "collection"), ingestuc.Document{
		Source:   req.Source,
		Sections: req.Sections,
		Tables:   req.Tables,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
