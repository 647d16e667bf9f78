package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soyeahso/maitred/internal/version"
)

// ChatRequest is the body of POST /chat and of WebSocket messages.
type ChatRequest struct {
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ResetRequest is the body of POST /session/reset.
type ResetRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/session/reset", s.handleReset)
	r.Get("/ws", s.handleWS)

	return r
}

// logRequests logs each request through the structured logger rather than
// chi's stdlib one.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "userId is required"})
		return
	}

	resp, err := s.orch.Handle(r.Context(), req.UserID, req.Message, req.SessionID)
	if err != nil {
		s.log.Error().Err(err).Msg("chat request failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "userId is required"})
		return
	}

	fresh, err := s.orch.Reset(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		s.log.Error().Err(err).Msg("session reset failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"sessionId": fresh})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
