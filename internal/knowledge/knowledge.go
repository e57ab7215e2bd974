// Package knowledge persists content chunks with vector embeddings in
// PostgreSQL + pgvector and answers nearest-neighbor similarity queries.
//
// A chunk is a bounded, semantically coherent text passage. Chunks enter the
// store through document ingestion (internal/chunker) or manual authoring,
// are re-embedded on every content update, and are deleted individually.
//
// Similarity convention: cosine similarity, higher = closer. Queries compute
// 1 - (embedding <=> query) so the stored vectors and the router's threshold
// share one scale.
package knowledge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is assigned when a chunk is stored without a category.
const DefaultCategory = "Uncategorized"

// Sentinel errors for chunk operations.
var (
	// ErrNotFound indicates no chunk exists with the given ID.
	ErrNotFound = errors.New("chunk not found")

	// ErrEmptyContent indicates the chunk content is empty after sanitization.
	ErrEmptyContent = errors.New("chunk content is empty")
)

// Chunk is a stored knowledge passage.
type Chunk struct {
	ID             uuid.UUID `json:"id"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	SourceDocument string    `json:"source_document"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Match is a chunk returned from a similarity query.
type Match struct {
	Chunk
	Similarity float64 `json:"similarity_score"`
}

// Page is one page of a chunk listing.
type Page struct {
	Items      []Chunk `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}

// Embedder generates vector embeddings for chunk content and queries.
// Implementations must return an error on failure, never a zero vector;
// callers rely on errors to trigger fallback behavior.
type Embedder interface {
	// EmbedDocument embeds text for indexing (task type RETRIEVAL_DOCUMENT).
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search query (task type RETRIEVAL_QUERY).
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
