package livekit

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tellie-app/tellie-backend/internal/service/token"
	"github.com/tellie-app/tellie-backend/pkg/utils"
)

// Handler issues LiveKit room tokens for realtime story sessions.
type Handler struct {
	tokens *token.Service
}

// New creates the token handler.
func New(tokens *token.Service) *Handler {
	return &Handler{tokens: tokens}
}

// RegisterRoutes registers the token endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-livekit-token", h.handleGenerateToken)
}

func (h *Handler) handleGenerateToken(w http.ResponseWriter, _ *http.Request) {
	roomToken, err := h.tokens.GenerateRoomToken()
	if err != nil {
		log.Printf("[livekit] failed to generate token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.RespondJSON(w, http.StatusOK, roomToken)
}
