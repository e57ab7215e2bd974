// Package keyword manages anchor keywords: curated trigger phrases that
// deterministically force retrieval grounding for a chat prompt, independent
// of embedding-service health.
//
// The package has two halves:
//
//   - Store: PostgreSQL CRUD on the anchor_keywords table. Keywords are
//     normalized (textnorm.Normalize) at write time and unique after
//     normalization.
//   - Cache: the process-wide in-memory set the query router reads on every
//     request. Readers are lock-free; Load replaces the whole set atomically.
//
// Every Store mutation path must be followed by a synchronous Cache.Load so
// the next routed query observes the change.
package keyword

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for keyword operations.
var (
	// ErrNotFound indicates no keyword exists with the given ID.
	ErrNotFound = errors.New("keyword not found")

	// ErrDuplicate indicates the normalized keyword already exists.
	ErrDuplicate = errors.New("keyword already exists")

	// ErrEmptyKeyword indicates the keyword is empty after normalization.
	ErrEmptyKeyword = errors.New("keyword is empty")
)

// Keyword is a stored anchor keyword. The Keyword field holds the normalized
// form (lowercase, diacritics stripped).
type Keyword struct {
	ID        uuid.UUID `json:"id"`
	Keyword   string    `json:"keyword"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
