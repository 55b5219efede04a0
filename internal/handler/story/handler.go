package story

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/tellie-app/tellie-backend/internal/config"
	storyModel "github.com/tellie-app/tellie-backend/internal/model/story"
	"github.com/tellie-app/tellie-backend/internal/service/pipeline"
	"github.com/tellie-app/tellie-backend/internal/service/session"
	"github.com/tellie-app/tellie-backend/pkg/utils"
)

// Handler exposes the story pipeline and session endpoints.
type Handler struct {
	pipeline *pipeline.Service
	sessions *session.Store
	media    config.MediaConfig
}

// New creates the story handler.
func New(pipelineSvc *pipeline.Service, sessions *session.Store, media config.MediaConfig) *Handler {
	return &Handler{
		pipeline: pipelineSvc,
		sessions: sessions,
		media:    media,
	}
}

// RegisterRoutes registers the story endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/process-story-audio", h.handleProcessStoryAudio)
	r.Post("/story-setup", h.handleStorySetup)
	r.Post("/story-session", h.handleUpsertSession)
	r.Get("/story-session/{sessionID}", h.handleGetSession)
	r.Post("/generate-story", h.handleGenerateStory)
	r.Post("/generate-audio", h.handleGenerateAudio)
}

// handleProcessStoryAudio runs the full audio turn: the upload is
// spooled to a scratch file, fed through the pipeline, and the scratch
// file is removed on every exit path.
func (h *Handler) handleProcessStoryAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.media.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "audio file exceeds the 10MB limit")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audioPath, err := h.spoolUpload(file)
	if err != nil {
		log.Printf("[story] failed to store uploaded audio: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to process audio")
		return
	}
	defer func() {
		if err := os.Remove(audioPath); err != nil {
			log.Printf("[story] failed to remove uploaded audio %s: %v", audioPath, err)
		}
	}()

	turn := h.pipeline.ProcessAudioTurn(r.Context(), audioPath, r.FormValue("session_id"))

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"transcription": turn.Transcription,
		"ai_response":   turn.AIResponse,
		"audio_url":     turn.AudioURL,
		"session_id":    turn.SessionID,
	})
}

// spoolUpload copies the uploaded stream into the scratch directory and
// returns the file path. The caller owns the file's removal.
func (h *Handler) spoolUpload(file io.Reader) (string, error) {
	if err := os.MkdirAll(h.media.UploadDir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(h.media.UploadDir, "upload-*")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// handleStorySetup accepts and validates a setup payload. The setup is
// attached to a session via /story-session, not here.
func (h *Handler) handleStorySetup(w http.ResponseWriter, r *http.Request) {
	var setup storyModel.Setup
	if err := json.NewDecoder(r.Body).Decode(&setup); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	names := make([]string, 0, len(setup.Characters))
	for _, c := range setup.Characters {
		names = append(names, c.Name)
	}
	log.Printf("[story] setup received: characters=%v promptLen=%d hasImage=%t",
		names, len(setup.Prompt), setup.ImagePath != "")

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Story setup complete",
	})
}

// handleUpsertSession creates or updates a session and returns its
// bounded summary, never the raw context.
func (h *Handler) handleUpsertSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID  string            `json:"sessionId"`
		StorySetup *storyModel.Setup `json:"storySetup"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	summary, err := h.sessions.Upsert(r.Context(), payload.SessionID, payload.StorySetup)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": summary,
	})
}

// handleGetSession returns the full session, context included.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("[story] failed to load session %s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to retrieve session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": sess,
	})
}

// handleGenerateStory runs a text-only turn.
func (h *Handler) handleGenerateStory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt    string `json:"prompt"`
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Prompt == "" {
		utils.RespondError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	turn := h.pipeline.ProcessTextTurn(r.Context(), payload.Prompt, payload.SessionID)

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"story":      turn.Story,
		"session_id": turn.SessionID,
	})
}

// handleGenerateAudio synthesizes audio without touching sessions.
func (h *Handler) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text      string `json:"text"`
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	audioURL, sessionID := h.pipeline.SynthesizeOnly(r.Context(), payload.Text, payload.SessionID)

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"audio_url":  audioURL,
		"session_id": sessionID,
	})
}
