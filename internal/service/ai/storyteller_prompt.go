package ai

import (
	"fmt"
	"strings"

	"github.com/tellie-app/tellie-backend/internal/model/story"
)

// The persona instructions are advisory: the model is asked to stay
// safe, short and engaging, but nothing downstream enforces it.

const storytellerPersona = `You are a creative storyteller for children aged 6-10.
Create engaging, safe, and educational interactive stories.
Keep responses under 150 words and always maintain a positive, encouraging tone.
Never include scary, violent, or inappropriate content.
Always end with a question or choice to keep the child engaged.
Make the story magical and full of wonder.`

const continuityClause = `Maintain story continuity and remember previous interactions.`

// buildSystemPrompt renders the storyteller persona, parameterized by
// session id. The contextual variant adds the continuity clause.
func buildSystemPrompt(sessionID string, contextual bool) string {
	var builder strings.Builder
	builder.WriteString(storytellerPersona)
	if contextual {
		builder.WriteString("\n")
		builder.WriteString(continuityClause)
	}
	builder.WriteString(fmt.Sprintf("\nSession ID: %s", sessionID))
	return builder.String()
}

// buildSetupPrompt turns a stored story setup into a system instruction
// describing the cast and the direction the story should take.
func buildSetupPrompt(setup *story.Setup) string {
	characters := "None specified"
	if len(setup.Characters) > 0 {
		names := make([]string, 0, len(setup.Characters))
		for _, c := range setup.Characters {
			names = append(names, c.Name)
		}
		characters = strings.Join(names, ", ")
	}

	promptText := setup.Prompt
	if promptText == "" {
		promptText = "Free-form story"
	}

	return fmt.Sprintf("Story Setup: Characters: %s.\nStory Prompt: %s.\nUse this setup to guide the story direction.", characters, promptText)
}
