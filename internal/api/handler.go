// Package api provides the local HTTP endpoints served next to the browser
// view.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/tutor-chat/internal/webview"
	"github.com/go-chi/chi/v5"
)

const pingTimeout = 2 * time.Second

// StateSource supplies the mirrored view state.
type StateSource interface {
	Snapshot() webview.Snapshot
}

// Sessions reads and forgets the persisted session id.
type Sessions interface {
	SessionID(ctx context.Context) (string, error)
	Reset(ctx context.Context) error
}

// Pinger checks the local store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves view state, session and health endpoints.
type Handler struct {
	state    StateSource
	sessions Sessions
	db       Pinger
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(state StateSource, sessions Sessions, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{state: state, sessions: sessions, db: db, logger: logger}
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.ResetSession)
	})
}

// GetState returns the message log and presentation flags.
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.state.Snapshot())
}

// GetSession returns the session id, creating one if none is stored.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.SessionID(r.Context())
	if err != nil {
		h.logger.Error("Failed to resolve session id", "error", err)
		Error(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"student_id": id})
}

// ResetSession forgets the stored session id.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Reset(r.Context()); err != nil {
		h.logger.Error("Failed to reset session id", "error", err)
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	h.logger.Info("Session id reset via API")
	w.WriteHeader(http.StatusNoContent)
}

// Health reports whether the local store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := map[string]any{
		"status": "ok",
		"checks": map[string]string{"store": "ok"},
	}
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"] = map[string]string{"store": "unreachable"}
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, status)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
