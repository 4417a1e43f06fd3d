package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Document is the per-user record of an ingested source file.
type Document struct {
	Name        string
	ContentHash string
	ChunkCount  int
}

// Chunk is a contiguous slice of document text with its embedding vector.
type Chunk struct {
	ID           string
	DocumentName string
	Ordinal      int
	Text         string
	Vector       []float32
}

// ChunkID derives a stable chunk identifier from the document content
// hash and the chunk's position. Re-ingesting identical content yields
// identical IDs.
func ChunkID(contentHash string, ordinal int) string {
	return fmt.Sprintf("%s:%d", contentHash, ordinal)
}

// ContentHash fingerprints extracted document text for dedup. The text
// is normalized first so whitespace-only differences hash equal.
func ContentHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Candidate is a retrieved chunk with its distance to a query vector.
// Lower distance means more similar.
type Candidate struct {
	ChunkID      string
	DocumentName string
	Text         string
	Distance     float64
}

// Relevance maps distance to a (0,1] score, 1 at distance zero.
func (c Candidate) Relevance() float64 {
	return 1.0 / (1.0 + c.Distance)
}
