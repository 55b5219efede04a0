package system

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/service/session"
	"github.com/tellie-app/tellie-backend/pkg/utils"
)

// Handler serves the liveness and debugging endpoints.
type Handler struct {
	cfg      *config.Config
	sessions *session.Store
}

// New creates the system handler.
func New(cfg *config.Config, sessions *session.Store) *Handler {
	return &Handler{cfg: cfg, sessions: sessions}
}

// RegisterRoutes registers health and debug endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/debug/sessions", h.handleListSessions)
	r.Delete("/debug/sessions", h.handleClearSessions)
}

func configuredLabel(configured bool) string {
	if configured {
		return "configured"
	}
	return "not configured"
}

// handleHealth reports liveness, per-provider configuration state and
// the active session count.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"message":   "Tellie Backend is running!",
		"services": map[string]string{
			"openai":     configuredLabel(h.cfg.OpenAI.Configured()),
			"elevenlabs": configuredLabel(h.cfg.ElevenLabs.Configured()),
			"livekit":    configuredLabel(h.cfg.LiveKit.Configured()),
		},
		"activeSessions": h.sessions.Count(r.Context()),
	})
}

// handleListSessions lists session summaries. Debugging surface only.
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := h.sessions.List(r.Context())

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"totalSessions": len(summaries),
		"sessions":      summaries,
	})
}

// handleClearSessions drops every session and reports the prior count.
func (h *Handler) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	count := h.sessions.Clear(r.Context())

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":   fmt.Sprintf("Cleared %d sessions", count),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
