// Package ingest turns raw documents into stored knowledge chunks. It is
// shared by the HTTP ingestion endpoint and the bulk-seeding CLI.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/npnhat/vanthu/internal/chunker"
	"github.com/npnhat/vanthu/internal/knowledge"
)

// Chunking strategies.
const (
	// StrategySemantic splits at embedding-similarity breakpoints. Default.
	StrategySemantic = "semantic"

	// StrategyCascade splits on a separator cascade without embedding
	// calls. Meant for bulk seeding from large plain-text sources.
	StrategyCascade = "cascade"
)

var (
	// ErrNothingIngestible means no chunk survived cleaning and filtering.
	// Callers must surface this, not treat it as an empty success.
	ErrNothingIngestible = errors.New("nothing ingestible in document")

	// ErrUnknownStrategy marks an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")
)

// Chunker is the semantic chunking dependency. Implemented by
// chunker.Semantic.
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]string, error)
}

// Store persists chunks. Implemented by knowledge.Store.
type Store interface {
	Add(ctx context.Context, content, category, sourceDocument string) (knowledge.Chunk, error)
}

// Report summarizes one ingestion run.
type Report struct {
	ChunksStored int               `json:"chunks_stored"`
	Chunks       []knowledge.Chunk `json:"chunks"`
}

// Service runs document ingestion.
type Service struct {
	semantic Chunker
	cascade  chunker.Cascade
	store    Store
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(semantic Chunker, cascade chunker.Cascade, store Store, logger *slog.Logger) (*Service, error) {
	if semantic == nil {
		return nil, fmt.Errorf("semantic chunker is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{semantic: semantic, cascade: cascade, store: store, logger: logger}, nil
}

// Ingest chunks content with the named strategy and stores every chunk.
// An empty strategy means semantic.
//
// Chunks are stored sequentially; a storage failure aborts the run and
// reports how many chunks made it in, so the caller can retry or clean up
// by source document.
func (s *Service) Ingest(ctx context.Context, content, category, sourceDocument, strategy string) (Report, error) {
	chunks, err := s.chunk(ctx, content, strategy)
	if err != nil {
		return Report{}, err
	}
	if len(chunks) == 0 {
		return Report{}, ErrNothingIngestible
	}

	report := Report{Chunks: make([]knowledge.Chunk, 0, len(chunks))}
	for i, text := range chunks {
		stored, err := s.store.Add(ctx, text, category, sourceDocument)
		if err != nil {
			return report, fmt.Errorf("storing chunk %d of %d: %w", i+1, len(chunks), err)
		}
		report.Chunks = append(report.Chunks, stored)
		report.ChunksStored++
	}

	s.logger.Info("document ingested",
		"source", sourceDocument,
		"strategy", normalizeStrategy(strategy),
		"chunks", report.ChunksStored,
	)
	return report, nil
}

func (s *Service) chunk(ctx context.Context, content, strategy string) ([]string, error) {
	switch normalizeStrategy(strategy) {
	case StrategySemantic:
		chunks, err := s.semantic.Chunk(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("semantic chunking: %w", err)
		}
		return chunks, nil
	case StrategyCascade:
		return s.cascade.Chunk(content), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func normalizeStrategy(strategy string) string {
	if strategy == "" {
		return StrategySemantic
	}
	return strategy
}
