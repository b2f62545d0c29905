package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vimo-cloud/ragstore/internal/domain"
	"github.com/vimo-cloud/ragstore/internal/domain/filter"
)

const maxBatchSize = 100

type pointRequest struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Payload   map[string]any `json:"payload"`
}

type pointResponse struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (p pointRequest) toDomain() domain.Point {
	return domain.Point{ID: p.ID, Embedding: p.Embedding, Payload: p.Payload}
}

func pointToResponse(p domain.Point, withEmbedding bool) pointResponse {
	resp := pointResponse{ID: p.ID, Payload: p.Payload}
	if withEmbedding {
		resp.Embedding = p.Embedding
	}
	return resp
}

// handleInsertPoint serves POST /collections/{collection}/points.
// A duplicate id is a 409.
func (s *Server) handleInsertPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "point id is required")
		return
	}

	collection := chi.URLParam(r, "collection")
	if err := s.points.Insert(r.Context(), collection, req.toDomain()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pointToResponse(req.toDomain(), false))
}

// handleUpsertPoint serves PUT /collections/{collection}/points/{id}.
// The path id is authoritative; any id in the body is ignored.
func (s *Server) handleUpsertPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	collection := chi.URLParam(r, "collection")
	if err := s.points.Upsert(r.Context(), collection, req.toDomain()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pointToResponse(req.toDomain(), false))
}

// handleUpsertBatch serves POST /collections/{collection}/points/batch.
// The batch is all-or-nothing: it is dimension-checked up front and a
// mid-batch storage error aborts the remainder.
func (s *Server) handleUpsertBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points []pointRequest `json:"points"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Points) == 0 || len(req.Points) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("points count must be between 1 and %d", maxBatchSize))
		return
	}

	points := make([]domain.Point, len(req.Points))
	for i, p := range req.Points {
		if p.ID == "" {
			writeError(w, http.StatusBadRequest, "validation_failed",
				fmt.Sprintf("points[%d]: id is required", i))
			return
		}
		points[i] = p.toDomain()
	}

	collection := chi.URLParam(r, "collection")
	if err := s.points.UpsertMulti(r.Context(), collection, points); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserted": len(points)})
}

// handleUpdatePoint serves PATCH /collections/{collection}/points/{id}.
// Updating an absent point is a no-op, mirroring the store semantics.
func (s *Server) handleUpdatePoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	collection := chi.URLParam(r, "collection")
	if err := s.points.Update(r.Context(), collection, req.toDomain()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPoint serves GET /collections/{collection}/points/{id}.
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.points.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pointToResponse(p, true))
}

// handleDeletePoint serves DELETE /collections/{collection}/points/{id}.
func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	err := s.points.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllPoints serves DELETE /collections/{collection}/points.
func (s *Server) handleDeleteAllPoints(w http.ResponseWriter, r *http.Request) {
	n, err := s.points.DeleteAll(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// handleListPoints serves GET /collections/{collection}/points.
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.points.QueryAll(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]pointResponse, len(points))
	for i, p := range points {
		items[i] = pointToResponse(p, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// handleCountPoints serves GET /collections/{collection}/points/count.
func (s *Server) handleCountPoints(w http.ResponseWriter, r *http.Request) {
	n, err := s.points.Count(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

type queryRequest struct {
	Vector []float32      `json:"vector"`
	Limit  int            `json:"limit"`
	Filter map[string]any `json:"filter,omitempty"`
}

type scoredPointResponse struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

// handleQuery serves POST /collections/{collection}/query, a raw-vector
// similarity search with an optional payload filter.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Vector) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "vector is required")
		return
	}
	if req.Limit <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "limit must be positive")
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
	hits, err := s.points.Query(r.Context(), collection, req.Vector, req.Limit, expr)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]scoredPointResponse, len(hits))
	for i, h := range hits {
		items[i] = scoredPointResponse{ID: h.ID, Score: h.Score, Payload: h.Payload}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}
