package chat

import (
	"botgpt/internal/llm"
	"botgpt/internal/store"
)

// contextWindowSize bounds how many prior messages are handed to the
// model per turn. A trailing window keeps per-request token cost capped;
// there is no relevance ranking or summarization of dropped history.
const contextWindowSize = 10

// buildWindow maps the trailing window of a conversation's ordered
// history onto role/content turns for the inference gateway. The caller
// passes prior history only; the current user message travels separately
// so it is never submitted twice.
func buildWindow(history []store.Message) []llm.Turn {
	recent := history
	if len(recent) > contextWindowSize {
		recent = recent[len(recent)-contextWindowSize:]
	}

	turns := make([]llm.Turn, 0, len(recent))
	for _, msg := range recent {
		turns = append(turns, llm.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

const titleMaxLen = 30

// deriveTitle builds a conversation title from the first user message:
// a bounded prefix, ellipsis-suffixed iff it was truncated.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleMaxLen]) + "..."
}
