package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
	"github.com/docubrain/ragdex/internal/metrics"
)

// Status is the outcome of one document ingestion.
type Status string

// Ingestion status constants.
const (
	StatusAdded   Status = "added"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result reports the outcome of ingesting one document.
type Result struct {
	Status     Status
	Message    string
	ChunkCount int
}

// Service runs the parse, dedup, chunk, embed, index pipeline.
// Ingestion is all-or-nothing per document: any step failing leaves
// the index untouched.
type Service struct {
	parse    ParseFunc
	chunker  Chunker
	embedder Embedder
	indexes  IndexWriter
	jobs     *Jobs
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(parse ParseFunc, chunker Chunker, embedder Embedder, indexes IndexWriter, logger *zap.Logger) *Service {
	return &Service{
		parse:    parse,
		chunker:  chunker,
		embedder: embedder,
		indexes:  indexes,
		jobs:     NewJobs(),
		logger:   logger,
	}
}

// AddDocument ingests one document into the user's index. Identical
// content (by normalized text hash) is skipped without re-embedding.
func (s *Service) AddDocument(ctx context.Context, userID, name string, content []byte) (Result, error) {
	text, err := s.parse(name, content)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return Result{Status: StatusFailed, Message: err.Error()}, err
	}

	hash := domain.ContentHash(text)

	has, err := s.indexes.HasDocument(userID, hash)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return Result{Status: StatusFailed, Message: err.Error()}, fmt.Errorf("check duplicate: %w", err)
	}
	if has {
		metrics.IngestDocumentsTotal.WithLabelValues("skipped").Inc()
		return Result{Status: StatusSkipped, Message: "document already indexed"}, nil
	}

	parts := s.chunker.Split(text)
	if len(parts) == 0 {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		err := fmt.Errorf("%w: document %s produced no chunks", domain.ErrParse, name)
		return Result{Status: StatusFailed, Message: err.Error()}, err
	}

	embRes, err := domain.EmbedAll(ctx, s.embedder, parts)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return Result{Status: StatusFailed, Message: err.Error()}, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			ID:           domain.ChunkID(hash, i),
			DocumentName: name,
			Ordinal:      i,
			Text:         part,
			Vector:       embRes.Embeddings[i],
		}
	}
	doc := domain.Document{Name: name, ContentHash: hash, ChunkCount: len(chunks)}

	added, err := s.indexes.AddDocument(userID, doc, chunks)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return Result{Status: StatusFailed, Message: err.Error()}, fmt.Errorf("index document: %w", err)
	}
	if !added {
		// A concurrent ingest of the same content won the race.
		metrics.IngestDocumentsTotal.WithLabelValues("skipped").Inc()
		return Result{Status: StatusSkipped, Message: "document already indexed"}, nil
	}

	metrics.IngestDocumentsTotal.WithLabelValues("added").Inc()
	metrics.IngestChunksTotal.Add(float64(len(chunks)))

	s.logger.Info("Document ingested",
		zap.String("user_id", userID),
		zap.String("document", name),
		zap.Int("chunks", len(chunks)))

	return Result{Status: StatusAdded, Message: "document indexed", ChunkCount: len(chunks)}, nil
}

// Stats reports document and chunk counts for a user's index.
func (s *Service) Stats(userID string) (docs, chunks int, err error) {
	return s.indexes.Stats(userID)
}
