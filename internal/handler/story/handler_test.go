package story

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tellie-app/tellie-backend/internal/config"
	storyModel "github.com/tellie-app/tellie-backend/internal/model/story"
	"github.com/tellie-app/tellie-backend/internal/service/ai"
	"github.com/tellie-app/tellie-backend/internal/service/fallback"
	"github.com/tellie-app/tellie-backend/internal/service/pipeline"
	"github.com/tellie-app/tellie-backend/internal/service/session"
	"github.com/tellie-app/tellie-backend/internal/service/speech"
	"github.com/tellie-app/tellie-backend/internal/service/transcribe"
)

// setupRouter builds the story routes with every provider unconfigured,
// so all turns resolve through the mock fallbacks without network.
func setupRouter(t *testing.T) (*chi.Mux, *session.Store, string) {
	t.Helper()

	store := session.NewStore()
	aiSvc, err := ai.NewService(context.Background(), store, config.OpenAIConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uploadDir := t.TempDir()
	pipe := pipeline.NewService(
		transcribe.NewService(config.OpenAIConfig{}),
		aiSvc,
		speech.NewService(config.ElevenLabsConfig{}, t.TempDir()),
		store,
	)

	handler := New(pipe, store, config.MediaConfig{
		AudioDir:       "audio",
		UploadDir:      uploadDir,
		MaxUploadBytes: 10 << 20,
	})

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store, uploadDir
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func audioUpload(t *testing.T, sessionID string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "turn.webm")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake audio bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			t.Fatalf("failed to write session field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestProcessStoryAudioPureMockPath(t *testing.T) {
	r, _, uploadDir := setupRouter(t)

	body, contentType := audioUpload(t, "")
	req := httptest.NewRequest(http.MethodPost, "/process-story-audio", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"transcription", "ai_response", "audio_url", "session_id"} {
		if result[field] == "" {
			t.Errorf("expected non-empty %s in %v", field, result)
		}
	}
	if result["transcription"] != fallback.Transcription() {
		t.Errorf("expected mock transcription, got %q", result["transcription"])
	}
	if result["audio_url"] != fallback.AudioURL() {
		t.Errorf("expected mock audio url, got %q", result["audio_url"])
	}

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("uploaded scratch file should be removed, found %d entries", len(entries))
	}
}

func TestProcessStoryAudioAppendsToExistingSession(t *testing.T) {
	r, store, _ := setupRouter(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "s1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, contentType := audioUpload(t, "s1")
	req := httptest.NewRequest(http.MethodPost, "/process-story-audio", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	sess, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.TotalInteractions != 1 || len(sess.StoryContext) != 1 {
		t.Fatalf("expected one recorded turn, got %+v", sess)
	}
	if sess.StoryContext[0].AudioURL == "" {
		t.Error("audio turns should record the audio url")
	}
}

func TestProcessStoryAudioWithoutFile(t *testing.T) {
	r, _, _ := setupRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-story-audio", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGenerateStoryMockPath(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/generate-story", map[string]string{"prompt": "tell me about a dragon"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	found := false
	for _, canned := range fallback.StoryResponses() {
		if result["story"] == canned {
			found = true
		}
	}
	if !found {
		t.Errorf("expected one of the canned stories, got %q", result["story"])
	}
	if !strings.HasPrefix(result["session_id"], "session-") {
		t.Errorf("expected generated session id, got %q", result["session_id"])
	}
}

func TestGenerateStoryRequiresPrompt(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/generate-story", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGenerateAudioRequiresText(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/generate-audio", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGenerateAudioMockPath(t *testing.T) {
	r, store, _ := setupRouter(t)

	resp := postJSON(t, r, "/generate-audio", map[string]string{"text": "read this", "sessionId": "s1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["audio_url"] != fallback.AudioURL() {
		t.Errorf("expected mock audio url, got %q", result["audio_url"])
	}
	if result["session_id"] != "s1" {
		t.Errorf("expected caller session id, got %q", result["session_id"])
	}
	if store.Count(context.Background()) != 0 {
		t.Error("generate-audio must not create sessions")
	}
}

func TestStorySessionRequiresID(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/story-session", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStorySessionRoundTrip(t *testing.T) {
	r, store, _ := setupRouter(t)

	setup := storyModel.Setup{
		Characters: []storyModel.Character{{Name: "Spark"}},
		Prompt:     "a dragon who learns to share",
	}
	resp := postJSON(t, r, "/story-session", map[string]any{
		"sessionId":  "s1",
		"storySetup": setup,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var upsert struct {
		Success bool               `json:"success"`
		Session storyModel.Summary `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &upsert); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !upsert.Success || upsert.Session.ID != "s1" || !upsert.Session.HasSetup {
		t.Errorf("unexpected upsert response: %+v", upsert)
	}

	store.AppendTurn(context.Background(), "s1", storyModel.Turn{UserInput: "hello", AIResponse: "hi"})

	getReq := httptest.NewRequest(http.MethodGet, "/story-session/s1", nil)
	getResp := httptest.NewRecorder()
	r.ServeHTTP(getResp, getReq)

	if getResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.Code)
	}

	var detail struct {
		Success bool               `json:"success"`
		Session storyModel.Session `json:"session"`
	}
	if err := json.Unmarshal(getResp.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if detail.Session.Setup == nil || detail.Session.Setup.Prompt != "a dragon who learns to share" {
		t.Errorf("expected recorded setup, got %+v", detail.Session.Setup)
	}
	if len(detail.Session.StoryContext) != 1 || detail.Session.StoryContext[0].UserInput != "hello" {
		t.Errorf("expected recorded context, got %+v", detail.Session.StoryContext)
	}
}

func TestGetUnknownSessionReturns404(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/story-session/never-seen", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStorySetupAccepted(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/story-setup", map[string]any{
		"characters": []map[string]string{{"name": "Spark"}},
		"prompt":     "a dragon story",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success || result.Message != "Story setup complete" {
		t.Errorf("unexpected setup response: %+v", result)
	}
}
