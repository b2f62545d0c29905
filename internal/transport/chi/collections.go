package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domcol "github.com/vimo-cloud/ragstore/internal/domain/collection"
)

type createCollectionRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

type collectionResponse struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}

type collectionListResponse struct {
	Items []collectionResponse `json:"items"`
	Total int                  `json:"total"`
}

func collectionToResponse(c domcol.Collection) collectionResponse {
	return collectionResponse{
		Name:      c.Name(),
		Dimension: c.Dimension(),
		CreatedAt: time.UnixMilli(c.CreatedAt()).UTC(),
	}
}

// handleCreateCollection serves POST /api/v1/collections. Creation is
// idempotent: an existing collection with the same dimension is returned
// as-is, a differing dimension is a 400.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "collection name is required")
		return
	}
	if req.Dimension <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "dimension must be positive")
		return
	}

	col, err := s.collections.GetOrCreate(r.Context(), req.Name, req.Dimension)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, collectionToResponse(col))
}

// handleListCollections serves GET /api/v1/collections.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToResponse(c)
	}
	writeJSON(w, http.StatusOK, collectionListResponse{Items: items, Total: len(items)})
}

// handleGetCollection serves GET /api/v1/collections/{collection}.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	col, err := s.collections.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := struct {
		collectionResponse
		PointCount *int `json:"point_count,omitempty"`
	}{collectionResponse: collectionToResponse(col)}

	// Best effort; the descriptor is still useful when counting fails.
	if count, err := s.points.Count(r.Context(), name); err == nil {
		resp.PointCount = &count
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteCollection serves DELETE /api/v1/collections/{collection}.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), chi.URLParam(r, "collection")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
