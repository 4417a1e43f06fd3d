package chat

import (
	"fmt"
	"strings"
)

const synthesisSystem = "You are a careful assistant answering questions about the user's documents. " +
	"First reason inside a <thinking>...</thinking> block, starting your response with the opening tag " +
	"and nothing before it. Immediately after the closing tag, write the final answer."

// buildRAGPrompt renders the retrieval context, citation instructions
// and the question into a single user prompt.
func buildRAGPrompt(context string, entries []ContextEntry, question string) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the sources below.\n\n")
	b.WriteString("Sources:\n")
	b.WriteString(context)
	b.WriteString("\nCite sources inline using the bracketed numbers, e.g. ")
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%d] %s", e.Citation, e.DocumentName)
	}
	b.WriteString(".\nIf the sources do not contain the answer, say so instead of guessing.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)

	return b.String()
}

// renderHistory flattens prior turns into a transcript block that
// precedes the prompt. Empty history renders nothing.
func renderHistory(history []Turn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, t := range history {
		role := "User"
		if t.Role == RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Text)
	}
	b.WriteString("\n")

	return b.String()
}
