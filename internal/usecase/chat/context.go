package chat

import (
	"fmt"
	"strings"

	"github.com/docubrain/ragdex/internal/domain"
)

// ContextEntry is one citable passage in an assembled context block.
type ContextEntry struct {
	Citation     int
	DocumentName string
	Score        float64
	Text         string
}

// AssembleContext renders ranked candidates into a numbered context
// block under a character budget. Assembly walks candidates in rank
// order and stops at the first entry that would overflow the budget;
// entries are never truncated mid-way. Citations are assigned 1..N in
// inclusion order.
func AssembleContext(candidates []domain.Candidate, budget int) (string, []ContextEntry) {
	var b strings.Builder
	entries := make([]ContextEntry, 0, len(candidates))

	for _, c := range candidates {
		entry := ContextEntry{
			Citation:     len(entries) + 1,
			DocumentName: c.DocumentName,
			Score:        c.Relevance(),
			Text:         c.Text,
		}
		rendered := renderEntry(entry)
		if b.Len()+len(rendered) > budget {
			break
		}
		b.WriteString(rendered)
		entries = append(entries, entry)
	}

	return b.String(), entries
}

func renderEntry(e ContextEntry) string {
	return fmt.Sprintf("[%d] Source: %s (%.2f)\nContent:\n%s\n---\n",
		e.Citation, e.DocumentName, e.Score, e.Text)
}
