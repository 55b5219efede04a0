package speech

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/service/fallback"
)

const dirPermissions = 0o755

// Service synthesizes story text into an mp3 under the audio directory
// and returns its relative URL. The provider stream is written to disk
// and the write must complete before the URL is returned; any failure
// along the way removes the partial file and degrades to the mock URL.
type Service struct {
	cfg      config.ElevenLabsConfig
	audioDir string
}

// NewService builds the synthesis client for the given audio directory.
func NewService(cfg config.ElevenLabsConfig, audioDir string) *Service {
	return &Service{cfg: cfg, audioDir: audioDir}
}

// Configured reports whether real synthesis is available.
func (s *Service) Configured() bool {
	return s != nil && s.cfg.Configured()
}

// Synthesize converts text to speech for the session. It never returns
// an error: unconfigured or failed synthesis yields the mock URL.
func (s *Service) Synthesize(ctx context.Context, text, sessionID string) string {
	if !s.Configured() {
		log.Printf("[speech] warning: using mock audio URL - ElevenLabs API key not configured")
		return fallback.AudioURL()
	}

	if err := os.MkdirAll(s.audioDir, dirPermissions); err != nil {
		log.Printf("[speech] warning: failed to create audio directory, using mock audio URL: %v", err)
		return fallback.AudioURL()
	}

	fileName := audioFileName(sessionID)
	path := filepath.Join(s.audioDir, fileName)

	file, err := os.Create(path)
	if err != nil {
		log.Printf("[speech] warning: failed to create audio file, using mock audio URL: %v", err)
		return fallback.AudioURL()
	}

	client := elevenlabs.NewClient(ctx, s.cfg.APIKey, s.cfg.Timeout)
	err = client.TextToSpeechStream(file, s.cfg.VoiceID, elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
			Style:           s.cfg.Style,
			SpeakerBoost:    s.cfg.SpeakerBoost,
		},
	})
	if err != nil {
		file.Close()
		os.Remove(path)
		log.Printf("[speech] warning: synthesis failed, using mock audio URL: %v", err)
		return fallback.AudioURL()
	}

	// The URL is only valid once the bytes are fully on disk.
	if err := file.Close(); err != nil {
		os.Remove(path)
		log.Printf("[speech] warning: failed to finish audio file, using mock audio URL: %v", err)
		return fallback.AudioURL()
	}

	log.Printf("[speech] audio generated: %s", path)
	return "/audio/" + fileName
}

// audioFileName derives a collision-free name from the session id and
// the current time. Session ids are caller supplied and feed the file
// name, so anything outside a safe character set is stripped.
func audioFileName(sessionID string) string {
	return fmt.Sprintf("story_%s_%d.mp3", sanitizeID(sessionID), time.Now().UnixMilli())
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, id)
}
