package retrieval

import (
	"context"

	"github.com/docubrain/ragdex/internal/domain"
)

// Searcher runs nearest-neighbor search over a user's index.
type Searcher interface {
	Search(userID string, query []float32, k int) ([]domain.Candidate, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// QueryDecomposer expands a query into sub-queries for multi-query retrieval.
type QueryDecomposer interface {
	Decompose(ctx context.Context, query string) []string
}
