package story

import "time"

// Session captures one ongoing story and its accumulated context.
// Instances are owned by the session store; callers receive copies.
type Session struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"createdAt"`
	Setup             *Setup    `json:"setup"`
	StoryContext      []Turn    `json:"storyContext"`
	TotalInteractions int       `json:"totalInteractions"`
}

// Turn records one completed user/AI exchange. The context slice is
// append-only; insertion order is chronological.
type Turn struct {
	ID         string    `json:"id"`
	UserInput  string    `json:"userInput"`
	AIResponse string    `json:"aiResponse"`
	AudioURL   string    `json:"audioUrl,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Setup is the caller-supplied story configuration. It is replaced
// wholesale whenever a new setup arrives.
type Setup struct {
	Characters []Character `json:"characters"`
	Prompt     string      `json:"prompt"`
	ImagePath  string      `json:"imagePath,omitempty"`
}

// Character describes one figure in the story setup.
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Summary is the bounded session view returned by upsert and list,
// keeping the full context out of response bodies.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Interactions int       `json:"interactions"`
	HasSetup     bool      `json:"hasSetup"`
}

// Summarize builds the bounded view of a session.
func (s Session) Summarize() Summary {
	return Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		Interactions: s.TotalInteractions,
		HasSetup:     s.Setup != nil,
	}
}
