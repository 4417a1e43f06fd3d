package health

import "context"

// EmbeddingChecker verifies embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks embedding-cache connectivity.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// IndexStats reads index counters for the default-corpus check.
type IndexStats interface {
	Stats(userID string) (docs, chunks int, err error)
}
