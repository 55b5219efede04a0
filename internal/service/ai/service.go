package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/model/story"
	"github.com/tellie-app/tellie-backend/internal/service/fallback"
	"github.com/tellie-app/tellie-backend/internal/service/session"
)

// Source identifies which generation strategy produced a result.
type Source string

const (
	SourceContextual Source = "contextual"
	SourceStateless  Source = "stateless"
	SourceMock       Source = "mock"
)

// Result carries the generated story text and the strategy that
// satisfied the request, so degraded paths stay observable.
type Result struct {
	Story  string
	Source Source
}

// Service generates story continuations through an eino chain. A
// service built without credentials degrades every call to the mock
// response instead of failing.
type Service struct {
	sessions *session.Store
	cfg      config.OpenAIConfig
	chain    compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the generation chain. When the credential is
// absent the service still constructs, in mock-only mode.
func NewService(ctx context.Context, sessions *session.Store, cfg config.OpenAIConfig) (*Service, error) {
	svc := &Service{sessions: sessions, cfg: cfg}

	if !cfg.Configured() {
		return svc, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// Configured reports whether real generation is available.
func (s *Service) Configured() bool {
	return s != nil && s.chain != nil
}

// ContinueStory answers one audio-turn input. Strategies are tried in
// order: context-aware, then stateless, then the mock response. Each
// strategy issues at most one generation call; no strategy error ever
// reaches the caller.
func (s *Service) ContinueStory(ctx context.Context, sessionID, userInput string) Result {
	if !s.Configured() {
		log.Printf("[ai] warning: using mock story response - OpenAI API key not configured")
		return Result{Story: fallback.StoryResponse(), Source: SourceMock}
	}

	text, err := s.invoke(ctx, buildSystemPrompt(sessionID, true), s.sessionHistory(ctx, sessionID), userInput)
	if err == nil {
		log.Printf("[ai] generated contextual response for session=%s, length=%d", sessionID, len(text))
		return Result{Story: text, Source: SourceContextual}
	}
	log.Printf("[ai] contextual generation failed for session=%s, falling back to stateless: %v", sessionID, err)

	text, err = s.invoke(ctx, buildSystemPrompt(sessionID, false), nil, userInput)
	if err == nil {
		return Result{Story: text, Source: SourceStateless}
	}
	log.Printf("[ai] warning: stateless generation failed for session=%s, using mock story response: %v", sessionID, err)

	return Result{Story: fallback.StoryResponse(), Source: SourceMock}
}

// TellStory answers a text-only prompt with the stateless strategy,
// degrading to the mock response on any failure.
func (s *Service) TellStory(ctx context.Context, sessionID, promptText string) Result {
	if !s.Configured() {
		log.Printf("[ai] warning: using mock story response - OpenAI API key not configured")
		return Result{Story: fallback.StoryResponse(), Source: SourceMock}
	}

	text, err := s.invoke(ctx, buildSystemPrompt(sessionID, false), nil, promptText)
	if err == nil {
		log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(text))
		return Result{Story: text, Source: SourceStateless}
	}
	log.Printf("[ai] warning: generation failed for session=%s, using mock story response: %v", sessionID, err)

	return Result{Story: fallback.StoryResponse(), Source: SourceMock}
}

func (s *Service) invoke(ctx context.Context, system string, history []*schema.Message, query string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  system,
		"history": history,
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}
	return response.Content, nil
}

// sessionHistory assembles the context-aware instruction sequence from
// the stored session: an optional setup instruction followed by the
// most recent turn pairs in chronological order. An unknown session
// yields an empty history.
func (s *Service) sessionHistory(ctx context.Context, sessionID string) []*schema.Message {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil
	}
	return buildHistory(sess)
}

// contextWindow bounds how many prior turns are replayed to the model,
// keeping the request inside token limits.
const contextWindow = 5

func buildHistory(sess story.Session) []*schema.Message {
	var history []*schema.Message

	if sess.Setup != nil {
		history = append(history, schema.SystemMessage(buildSetupPrompt(sess.Setup)))
	}

	turns := sess.StoryContext
	if len(turns) > contextWindow {
		turns = turns[len(turns)-contextWindow:]
	}
	for _, turn := range turns {
		history = append(history, schema.UserMessage(turn.UserInput))
		history = append(history, schema.AssistantMessage(turn.AIResponse, nil))
	}

	return history
}
