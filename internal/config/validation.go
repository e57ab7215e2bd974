package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates a model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidThreshold indicates a similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidChunking indicates a chunking parameter is out of range.
	ErrInvalidChunking = errors.New("invalid chunking parameter")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidTimeout indicates an external-call timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidPostgres indicates the PostgreSQL settings are incomplete.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")
)

// MaxTopK bounds retrieval fan-out; larger values blow the context window.
const MaxTopK = 20

// Validate checks the configuration for out-of-range values.
// The Gemini API key is deliberately not validated here: offline commands
// (migrations, keyword listing) must work without one, and the gemini client
// checks for it at construction.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ChatModel == "" {
		return fmt.Errorf("%w: chat_model is empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidModelName)
	}
	if c.EmbedderDimension <= 0 {
		return fmt.Errorf("%w: embedder_dimension must be positive, got %d",
			ErrInvalidModelName, c.EmbedderDimension)
	}

	// Cosine similarity lives in [-1, 1]; thresholds outside (0, 1] either
	// activate on everything or on nothing.
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in (0, 1], got %v",
			ErrInvalidThreshold, c.SimilarityThreshold)
	}
	if c.SemanticBreakThreshold <= 0 || c.SemanticBreakThreshold > 1 {
		return fmt.Errorf("%w: semantic_break_threshold must be in (0, 1], got %v",
			ErrInvalidThreshold, c.SemanticBreakThreshold)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: top_k must be in [1, %d], got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}

	if c.MaxChunkWords < 1 {
		return fmt.Errorf("%w: max_chunk_words must be positive, got %d",
			ErrInvalidChunking, c.MaxChunkWords)
	}
	if c.MinSentenceLen < 0 {
		return fmt.Errorf("%w: min_sentence_len must not be negative, got %d",
			ErrInvalidChunking, c.MinSentenceLen)
	}
	if c.EmbedBatchSize < 1 {
		return fmt.Errorf("%w: embed_batch_size must be positive, got %d",
			ErrInvalidChunking, c.EmbedBatchSize)
	}

	if c.EmbedTimeout <= 0 || c.GenerateTimeout <= 0 || c.SearchTimeout <= 0 {
		return fmt.Errorf("%w: embed_timeout, generate_timeout and search_timeout must be positive",
			ErrInvalidTimeout)
	}
	if c.RetryMaxAttempts < 0 {
		return fmt.Errorf("%w: retry_max_attempts must not be negative, got %d",
			ErrInvalidTimeout, c.RetryMaxAttempts)
	}

	if c.PostgresHost == "" || c.PostgresDBName == "" {
		return fmt.Errorf("%w: postgres_host and postgres_dbname are required", ErrInvalidPostgres)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: postgres_port must be in [1, 65535], got %d",
			ErrInvalidPostgres, c.PostgresPort)
	}

	return nil
}
