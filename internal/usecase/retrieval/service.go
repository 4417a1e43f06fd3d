package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
)

// Config holds retrieval fan-out parameters.
type Config struct {
	DefaultUserID string // shared corpus merged into every retrieval; empty = disabled
	PerQueryK     int
	FinalK        int
}

// Service runs multi-query retrieval: decompose, search per sub-query,
// fuse by minimum distance.
type Service struct {
	embedder   Embedder
	indexes    Searcher
	decomposer QueryDecomposer
	cfg        Config
	logger     *zap.Logger
}

// New creates a retrieval service.
func New(embedder Embedder, indexes Searcher, decomposer QueryDecomposer, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		embedder:   embedder,
		indexes:    indexes,
		decomposer: decomposer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Retrieve returns the fused top candidates for the query across the
// user's index and the shared default index. Candidates are deduped by
// chunk ID keeping the best (lowest) distance, sorted ascending; ties
// keep first-seen order.
func (s *Service) Retrieve(ctx context.Context, userID, query string) ([]domain.Candidate, error) {
	subQueries := s.decomposer.Decompose(ctx, query)

	best := make(map[string]int) // chunk ID -> position in fused
	fused := make([]domain.Candidate, 0, s.cfg.PerQueryK*len(subQueries))

	for _, sub := range subQueries {
		embRes, err := s.embedder.Embed(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("embed sub-query: %w", err)
		}

		candidates, err := s.searchAll(userID, embRes.Embedding)
		if err != nil {
			return nil, err
		}

		for _, c := range candidates {
			if pos, ok := best[c.ChunkID]; ok {
				if c.Distance < fused[pos].Distance {
					fused[pos] = c
				}
				continue
			}
			best[c.ChunkID] = len(fused)
			fused = append(fused, c)
		}
	}

	sort.SliceStable(fused, func(a, b int) bool {
		return fused[a].Distance < fused[b].Distance
	})
	if len(fused) > s.cfg.FinalK {
		fused = fused[:s.cfg.FinalK]
	}

	s.logger.Debug("Retrieval complete",
		zap.String("user_id", userID),
		zap.Int("sub_queries", len(subQueries)),
		zap.Int("candidates", len(fused)))

	return fused, nil
}

// searchAll queries the user's own index plus the shared default index.
func (s *Service) searchAll(userID string, vector []float32) ([]domain.Candidate, error) {
	candidates, err := s.indexes.Search(userID, vector, s.cfg.PerQueryK)
	if err != nil {
		return nil, fmt.Errorf("search user index: %w", err)
	}

	if s.cfg.DefaultUserID != "" && s.cfg.DefaultUserID != userID {
		shared, err := s.indexes.Search(s.cfg.DefaultUserID, vector, s.cfg.PerQueryK)
		if err != nil {
			return nil, fmt.Errorf("search default index: %w", err)
		}
		candidates = append(candidates, shared...)
	}

	return candidates, nil
}
