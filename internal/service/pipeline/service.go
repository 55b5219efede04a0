// Package pipeline composes transcription, story generation and speech
// synthesis into the end-to-end story turn flows.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tellie-app/tellie-backend/internal/model/story"
	"github.com/tellie-app/tellie-backend/internal/service/ai"
	"github.com/tellie-app/tellie-backend/internal/service/session"
)

// Transcriber converts stored audio to text, degrading internally.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) string
}

// Storyteller produces story continuations, degrading internally.
type Storyteller interface {
	ContinueStory(ctx context.Context, sessionID, userInput string) ai.Result
	TellStory(ctx context.Context, sessionID, promptText string) ai.Result
}

// Synthesizer renders text to an audio URL, degrading internally.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, sessionID string) string
}

// Service orchestrates the story turn flows. Every stage absorbs its
// own provider failures, so the flows themselves cannot fail; only the
// HTTP layer above deals in errors.
type Service struct {
	transcriber Transcriber
	storyteller Storyteller
	synthesizer Synthesizer
	sessions    *session.Store
}

// NewService wires the pipeline from its stages and the session store.
func NewService(transcriber Transcriber, storyteller Storyteller, synthesizer Synthesizer, sessions *session.Store) *Service {
	return &Service{
		transcriber: transcriber,
		storyteller: storyteller,
		synthesizer: synthesizer,
		sessions:    sessions,
	}
}

// AudioTurn is the outcome of one full audio turn.
type AudioTurn struct {
	Transcription string
	AIResponse    string
	AudioURL      string
	SessionID     string
	Source        ai.Source
}

// TextTurn is the outcome of one text-only turn.
type TextTurn struct {
	Story     string
	SessionID string
	Source    ai.Source
}

// NewSessionID derives a fresh session id from the current time, used
// whenever the caller does not supply one.
func NewSessionID() string {
	return fmt.Sprintf("session-%d", time.Now().UnixMilli())
}

// ProcessAudioTurn runs transcribe → generate (context-aware) →
// synthesize, then appends the turn to the session if it exists. The
// caller owns the uploaded file and its cleanup.
func (s *Service) ProcessAudioTurn(ctx context.Context, audioPath, sessionID string) AudioTurn {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	log.Printf("[pipeline] processing audio for session: %s", sessionID)

	transcription := s.transcriber.Transcribe(ctx, audioPath)
	result := s.storyteller.ContinueStory(ctx, sessionID, transcription)
	audioURL := s.synthesizer.Synthesize(ctx, result.Story, sessionID)

	s.sessions.AppendTurn(ctx, sessionID, story.Turn{
		UserInput:  transcription,
		AIResponse: result.Story,
		AudioURL:   audioURL,
	})

	log.Printf("[pipeline] audio turn complete for session=%s source=%s", sessionID, result.Source)
	return AudioTurn{
		Transcription: transcription,
		AIResponse:    result.Story,
		AudioURL:      audioURL,
		SessionID:     sessionID,
		Source:        result.Source,
	}
}

// ProcessTextTurn runs the stateless generation path and appends the
// turn (without audio) to the session if it exists.
func (s *Service) ProcessTextTurn(ctx context.Context, promptText, sessionID string) TextTurn {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	log.Printf("[pipeline] generating story for session: %s", sessionID)

	result := s.storyteller.TellStory(ctx, sessionID, promptText)

	s.sessions.AppendTurn(ctx, sessionID, story.Turn{
		UserInput:  promptText,
		AIResponse: result.Story,
	})

	return TextTurn{Story: result.Story, SessionID: sessionID, Source: result.Source}
}

// SynthesizeOnly renders text to audio without touching session state.
func (s *Service) SynthesizeOnly(ctx context.Context, text, sessionID string) (audioURL, resolvedSessionID string) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	log.Printf("[pipeline] generating audio for session: %s", sessionID)

	return s.synthesizer.Synthesize(ctx, text, sessionID), sessionID
}
