// Package chunker splits raw documents into passages suitable for embedding
// and storage.
//
// Two strategies are provided:
//
//   - Semantic: sentence segmentation plus embedding-similarity breakpoints,
//     bounded by a word cap. Higher quality, costs one batch embedding call
//     per document.
//   - Cascade: a separator cascade (blank line, newline, space, character)
//     with merge-up to a size cap. No embedding dependency; used for bulk
//     seeding where throughput matters more than coherence.
package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"
)

// Embedder produces similarity embeddings for sentence batches.
// Implementations must fail loudly rather than return zero vectors.
type Embedder interface {
	// EmbedSimilarityBatch embeds texts in order (task type
	// SEMANTIC_SIMILARITY), one vector per input text.
	EmbedSimilarityBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds semantic chunking parameters. The zero value is invalid;
// populate every field (internal/config carries the defaults).
type Config struct {
	// BreakThreshold is the adjacent-sentence similarity below which a new
	// chunk starts. Pure similarity splitting can produce arbitrarily long
	// chunks on topically uniform documents, hence MaxWords.
	BreakThreshold float64

	// MaxWords caps a chunk's word count.
	MaxWords int

	// MinSentenceLen discards sentences shorter than this many characters
	// (headers, artifacts). Counted in runes, not bytes.
	MinSentenceLen int

	// BatchSize is the per-request ceiling for batch embedding calls.
	BatchSize int
}

func (cfg Config) validate() error {
	if cfg.BreakThreshold <= 0 || cfg.BreakThreshold > 1 {
		return fmt.Errorf("break threshold must be in (0, 1], got %v", cfg.BreakThreshold)
	}
	if cfg.MaxWords < 1 {
		return fmt.Errorf("max words must be positive, got %d", cfg.MaxWords)
	}
	if cfg.MinSentenceLen < 0 {
		return fmt.Errorf("min sentence length must not be negative, got %d", cfg.MinSentenceLen)
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	return nil
}

// Semantic chunks documents at embedding-similarity breakpoints.
type Semantic struct {
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

// NewSemantic creates a semantic chunker.
func NewSemantic(embedder Embedder, cfg Config, logger *slog.Logger) (*Semantic, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Semantic{embedder: embedder, cfg: cfg, logger: logger}, nil
}

// Chunk splits text into topically coherent passages.
//
// Returns an empty slice when no sentence survives cleaning and the minimum
// length filter; the caller must treat that as nothing ingestible rather
// than silently succeeding.
func (s *Semantic) Chunk(ctx context.Context, text string) ([]string, error) {
	sentences := s.surviving(text)

	switch len(sentences) {
	case 0:
		return nil, nil
	case 1:
		return sentences, nil
	}

	embeddings, err := s.embedAll(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embedding %d sentences: %w", len(sentences), err)
	}

	chunks := s.assemble(sentences, embeddings)
	s.logger.Debug("document chunked", "sentences", len(sentences), "chunks", len(chunks))
	return chunks, nil
}

// surviving segments, cleans, and length-filters sentences.
func (s *Semantic) surviving(text string) []string {
	var out []string
	for _, raw := range splitSentences(text) {
		cleaned := cleanSentence(raw)
		if utf8.RuneCountInString(cleaned) < s.cfg.MinSentenceLen {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// embedAll embeds sentences in configured batch sizes, preserving order.
// One request covers the whole document when it fits the batch limit.
func (s *Semantic) embedAll(ctx context.Context, sentences []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(sentences))

	for start := 0; start < len(sentences); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(sentences))

		batch, err := s.embedder.EmbedSimilarityBatch(ctx, sentences[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d sentences", len(batch), end-start)
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// assemble walks the sentences accumulating chunks. A new chunk starts when
// the similarity to the next sentence drops below the break threshold, or
// when appending it would push the chunk past the word cap.
func (s *Semantic) assemble(sentences []string, embeddings [][]float32) []string {
	var chunks []string
	current := []string{sentences[0]}
	currentWords := wordCount(sentences[0])

	for i := 1; i < len(sentences); i++ {
		next := sentences[i]
		nextWords := wordCount(next)

		sim := cosineSimilarity(embeddings[i-1], embeddings[i])
		if sim < s.cfg.BreakThreshold || currentWords+nextWords > s.cfg.MaxWords {
			chunks = appendChunk(chunks, current)
			current = []string{next}
			currentWords = nextWords
			continue
		}

		current = append(current, next)
		currentWords += nextWords
	}

	return appendChunk(chunks, current)
}

// appendChunk joins sentences with single spaces and drops empty results.
func appendChunk(chunks []string, sentences []string) []string {
	joined := strings.TrimSpace(strings.Join(sentences, " "))
	if joined == "" {
		return chunks
	}
	return append(chunks, joined)
}

// cosineSimilarity computes dot(a, b) / (|a| * |b|), or 0 when either
// vector has zero norm.
func cosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
