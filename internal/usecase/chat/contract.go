package chat

import (
	"context"

	"github.com/docubrain/ragdex/internal/domain"
)

// Retriever returns fused top candidates for a user's query.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string) ([]domain.Candidate, error)
}
