// Package chi exposes the store over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
	healthuc "github.com/vimo-cloud/ragstore/internal/usecase/health"
	"github.com/vimo-cloud/ragstore/internal/version"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusMapping maps a domain sentinel to an HTTP status and error code.
type statusMapping struct {
	sentinel error
	status   int
	code     string
}

// Server routes HTTP requests to the use case services.
type Server struct {
	collections CollectionService
	points      PointService
	search      SearchService
	ingest      IngestService
	chat        ChatService
	health      HealthService
	logger      *zap.Logger

	chatCollection  string
	searchTopK      int
	searchThreshold float64
	searchAlpha     float64
	mappings        []statusMapping
}

// NewServer creates an HTTP API server.
func NewServer(
	collections CollectionService,
	points PointService,
	search SearchService,
	ingest IngestService,
	chat ChatService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	return &Server{
		collections:     collections,
		points:          points,
		search:          search,
		ingest:          ingest,
		chat:            chat,
		health:          health,
		logger:          logger,
		chatCollection:  "chat_history",
		searchTopK:      defaultSearchTopK,
		searchThreshold: defaultSearchThreshold,
		searchAlpha:     defaultSearchAlpha,
		mappings: []statusMapping{
			{domain.ErrCollectionNotFound, http.StatusNotFound, "collection_not_found"},
			{domain.ErrPointNotFound, http.StatusNotFound, "point_not_found"},
			{domain.ErrAlreadyExists, http.StatusConflict, "already_exists"},
			{domain.ErrDuplicateID, http.StatusConflict, "duplicate_id"},
			{domain.ErrDimensionMismatch, http.StatusBadRequest, "dimension_mismatch"},
			{domain.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
			{domain.ErrEmbeddingFailed, http.StatusBadGateway, "embedding_provider_error"},
			{domain.ErrCompletionFailed, http.StatusBadGateway, "completion_provider_error"},
			{domain.ErrRerankFailed, http.StatusBadGateway, "rerank_provider_error"},
		},
	}
}

// WithChatCollection overrides the collection read by the history endpoint
// and cleared by the sessions endpoint.
func (s *Server) WithChatCollection(name string) *Server {
	if name != "" {
		s.chatCollection = name
	}
	return s
}

// WithSearchDefaults overrides the values used by the search endpoint when a
// request leaves top_k, threshold, or alpha unset.
func (s *Server) WithSearchDefaults(topK int, threshold, alpha float64) *Server {
	if topK > 0 {
		s.searchTopK = topK
	}
	if threshold >= 0 && threshold <= 1 {
		s.searchThreshold = threshold
	}
	if alpha >= 0 && alpha <= 1 {
		s.searchAlpha = alpha
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/collections", func(r chi.Router) {
			r.Post("/", s.handleCreateCollection)
			r.Get("/", s.handleListCollections)

			r.Route("/{collection}", func(r chi.Router) {
				r.Get("/", s.handleGetCollection)
				r.Delete("/", s.handleDeleteCollection)

				r.Route("/points", func(r chi.Router) {
					r.Post("/", s.handleInsertPoint)
					r.Post("/batch", s.handleUpsertBatch)
					r.Get("/", s.handleListPoints)
					r.Get("/count", s.handleCountPoints)
					r.Delete("/", s.handleDeleteAllPoints)
					r.Put("/{id}", s.handleUpsertPoint)
					r.Patch("/{id}", s.handleUpdatePoint)
					r.Get("/{id}", s.handleGetPoint)
					r.Delete("/{id}", s.handleDeletePoint)
				})

				r.Post("/query", s.handleQuery)
				r.Post("/search", s.handleSearch)
				r.Post("/ingest", s.handleIngest)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/stream", s.handleChatStream)
			r.Get("/history", s.handleChatHistory)
			r.Delete("/sessions", s.handleClearSessions)
		})
	})
}

// handleHealth serves GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleVersion serves GET /version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// handleDomainError translates a sentinel into an HTTP response. The client
// sees the sentinel message only; wrap details stay in the log.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("Request failed", zap.Error(err))

	for _, m := range s.mappings {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}

	s.logger.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return false
	}
	return true
}
