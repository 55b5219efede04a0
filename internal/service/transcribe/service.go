package transcribe

import (
	"context"
	"log"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/service/fallback"
)

// Service turns uploaded audio into text via Whisper. A single request
// is issued per call, never retried; every failure degrades to a canned
// sentence so the pipeline always moves forward.
type Service struct {
	client *openai.Client
	cfg    config.OpenAIConfig
}

// NewService builds the transcription client. Without a credential the
// service constructs in mock-only mode.
func NewService(cfg config.OpenAIConfig) *Service {
	svc := &Service{cfg: cfg}

	if cfg.Configured() {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		svc.client = openai.NewClientWithConfig(clientCfg)
	}

	return svc
}

// Configured reports whether real transcription is available.
func (s *Service) Configured() bool {
	return s != nil && s.client != nil
}

// Transcribe converts the stored audio file to text. It never returns
// an error: an unconfigured provider yields the fixed mock sentence and
// a failed call yields the recovery sentence.
func (s *Service) Transcribe(ctx context.Context, audioPath string) string {
	if !s.Configured() {
		log.Printf("[transcribe] warning: using mock transcription - OpenAI API key not configured")
		return fallback.Transcription()
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: "en",
	})
	if err != nil {
		log.Printf("[transcribe] warning: transcription failed, using fallback: %v", err)
		return fallback.TranscriptionRecovery()
	}

	return resp.Text
}
