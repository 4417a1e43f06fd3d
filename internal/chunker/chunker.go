package chunker

import "strings"

// Chunker splits document text into fixed-size overlapping windows.
// Sizes are in runes so multi-byte text never splits mid-character.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Invalid overlap (negative or >= size) is
// treated as zero.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts text into windows of the configured size, each window
// starting size-overlap runes after the previous one. Every rune of
// the input lands in at least one window. Windows that trim to empty
// are dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	out := make([]string, 0, (len(runes)+step-1)/step)
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
