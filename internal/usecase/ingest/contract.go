package ingest

import (
	"context"

	"github.com/docubrain/ragdex/internal/domain"
)

// IndexWriter is the storage contract for ingestion.
type IndexWriter interface {
	HasDocument(userID, contentHash string) (bool, error)
	AddDocument(userID string, doc domain.Document, chunks []domain.Chunk) (bool, error)
	Stats(userID string) (docs, chunks int, err error)
}

// Chunker splits document text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ParseFunc extracts plain text from raw document bytes.
type ParseFunc func(name string, data []byte) (string, error)
