package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	chatuc "github.com/vimo-cloud/ragstore/internal/usecase/chat"
)

// doneSentinel terminates the event stream so clients can tell a complete
// answer from a dropped connection.
const doneSentinel = "[DONE]"

type chatStreamRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Language  string `json:"language,omitempty"`
	Model     string `json:"model,omitempty"`
}

// handleChatStream serves POST /api/v1/chat/stream as server-sent events:
// one data frame per answer fragment, an error event on failure, and the
// done sentinel after a complete answer.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatStreamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "session_id is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// httptest recorders don't implement Flusher; events are still written.
	flusher, _ := w.(http.Flusher)

	emit := func(delta string) error {
		payload, err := json.Marshal(map[string]string{"delta": delta})
		if err != nil {
			return fmt.Errorf("encode delta: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	_, err := s.chat.Answer(r.Context(), chatuc.Request{
		Query:     req.Query,
		SessionID: req.SessionID,
		Language:  req.Language,
		Model:     req.Model,
	}, emit)
	if err != nil {
		// Headers are already committed, so the failure travels in-band.
		s.logger.Warn("Chat stream failed", zap.Error(err))
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", "stream failed")
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", doneSentinel)
	if flusher != nil {
		flusher.Flush()
	}
}

// handleChatHistory serves GET /api/v1/chat/history?session_id=...
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "session_id is required")
		return
	}

	messages, err := s.search.History(r.Context(), s.chatCollection, sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": messages, "total": len(messages)})
}

// handleClearSessions serves DELETE /api/v1/chat/sessions. Without a
// session_id parameter every session is cleared.
func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	n, err := s.chat.ClearSessions(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
