package chat

import "strings"

const (
	thinkingOpen  = "<thinking>"
	thinkingClose = "</thinking>"
)

// SplitThinking separates the model's reasoning preamble from its
// answer. The protocol asks for a <thinking>...</thinking> block with
// nothing before the opening tag; when the markers are absent or
// misplaced the whole response is the answer. Thinking is advisory,
// its absence is not an error.
func SplitThinking(response string) (thinking, answer string) {
	trimmed := strings.TrimSpace(response)

	open := strings.Index(trimmed, thinkingOpen)
	if open != 0 {
		return "", trimmed
	}

	rest := trimmed[len(thinkingOpen):]
	closeIdx := strings.Index(rest, thinkingClose)
	if closeIdx < 0 {
		return "", trimmed
	}

	thinking = strings.TrimSpace(rest[:closeIdx])
	answer = strings.TrimSpace(rest[closeIdx+len(thinkingClose):])
	return thinking, answer
}
