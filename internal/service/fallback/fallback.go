// Package fallback supplies the canned outputs substituted when an
// upstream provider is unconfigured or fails, so the pipeline always
// completes.
package fallback

import "math/rand"

// Transcription is returned when the transcription provider is not
// configured at all.
func Transcription() string {
	return "Once upon a time, there was a brave knight who went on an adventure..."
}

// TranscriptionRecovery is returned when a real transcription call
// fails mid-flight.
func TranscriptionRecovery() string {
	return "I heard you say something wonderful! Let me continue our story..."
}

var storyResponses = []string{
	"What an exciting beginning! The brave knight looked around the magical forest and saw sparkling lights dancing between the trees. 'I wonder what adventures await me here,' the knight thought. Suddenly, a friendly fairy appeared with a warm smile. 'Welcome, brave knight! I've been waiting for someone just like you to help save our enchanted garden.' What do you think the knight should do next?",

	"That's a wonderful idea! The knight decided to help the fairy right away. Together, they walked deeper into the forest where they discovered a beautiful garden that had lost all its colors. 'The mean storm took away our rainbow flowers,' explained the fairy sadly. But the knight had an idea - they could search for the magical rainbow seeds that were scattered by the wind. Should we look by the sparkling stream or near the wise old oak tree?",

	"Great choice! Near the wise old oak tree, they found the first rainbow seed glowing softly in the grass. As soon as the knight picked it up, a tiny bit of red color returned to one flower! 'We need to find six more seeds to bring back all the colors,' said the fairy excitedly. The knight felt proud to be helping. Where should our brave heroes search next for the remaining rainbow seeds?",
}

// StoryResponse picks one of the fixed story continuations.
func StoryResponse() string {
	return storyResponses[rand.Intn(len(storyResponses))]
}

// StoryResponses exposes the full canned set so callers can recognize
// a degraded response.
func StoryResponses() []string {
	return append([]string(nil), storyResponses...)
}

// AudioURL points at a publicly hosted sample clip usable for testing.
func AudioURL() string {
	return "https://www.soundjay.com/misc/sounds/bell-ringing-05.wav"
}
