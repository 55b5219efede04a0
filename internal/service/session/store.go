package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tellie-app/tellie-backend/internal/model/story"
)

var (
	ErrSessionIDRequired = errors.New("session id is required")
	ErrSessionNotFound   = errors.New("session not found")
)

// Store keeps story sessions in memory for the lifetime of the process.
// It is the sole owner of session state; all accessors return copies.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*story.Session
}

// NewStore bootstraps an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*story.Session),
	}
}

// Upsert creates the session if absent and, when a setup is supplied,
// replaces the stored setup wholesale. It returns the bounded summary
// view rather than the raw context.
func (s *Store) Upsert(_ context.Context, id string, setup *story.Setup) (story.Summary, error) {
	if id == "" {
		return story.Summary{}, ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &story.Session{
			ID:           id,
			CreatedAt:    time.Now().UTC(),
			StoryContext: make([]story.Turn, 0, 8),
		}
		s.sessions[id] = sess
	}

	if setup != nil {
		sess.Setup = setup
	}

	return sess.Summarize(), nil
}

// Get returns a copy of the full session, context included.
func (s *Store) Get(_ context.Context, id string) (story.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return story.Session{}, ErrSessionNotFound
	}

	return copySession(sess), nil
}

// AppendTurn records a completed turn and bumps the interaction count.
// Sessions are looked up optimistically by the pipelines, so an unknown
// id is a no-op; the return value reports whether the turn was stored.
func (s *Store) AppendTurn(_ context.Context, id string, turn story.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}

	turn.ID = uuid.NewString()
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	sess.StoryContext = append(sess.StoryContext, turn)
	sess.TotalInteractions++
	return true
}

// List returns a summary for every active session. Debugging surface.
func (s *Store) List(_ context.Context) []story.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]story.Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, sess.Summarize())
	}
	return summaries
}

// Clear drops every session and returns how many were removed.
func (s *Store) Clear(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.sessions)
	s.sessions = make(map[string]*story.Session)
	return count
}

// Count reports the number of active sessions.
func (s *Store) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(sess *story.Session) story.Session {
	copied := *sess
	copied.StoryContext = make([]story.Turn, len(sess.StoryContext))
	copy(copied.StoryContext, sess.StoryContext)
	if sess.Setup != nil {
		setup := *sess.Setup
		setup.Characters = append([]story.Character(nil), sess.Setup.Characters...)
		copied.Setup = &setup
	}
	return copied
}
