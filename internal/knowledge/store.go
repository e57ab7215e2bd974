package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const chunkCols = `id, content, category, source_document, created_at, updated_at`

// DefaultSearchTimeout bounds vector search queries when no timeout is
// configured, preventing a slow index scan from blocking a chat request.
const DefaultSearchTimeout = 10 * time.Second

// MaxPageSize caps List page sizes to prevent unbounded result sets.
const MaxPageSize = 200

// Store manages knowledge chunks with vector search.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db            querier
	embedder      Embedder
	logger        *slog.Logger
	searchTimeout time.Duration
}

// NewStore creates a chunk Store. searchTimeout bounds similarity queries;
// pass 0 for DefaultSearchTimeout.
func NewStore(db querier, embedder Embedder, logger *slog.Logger, searchTimeout time.Duration) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if searchTimeout <= 0 {
		searchTimeout = DefaultSearchTimeout
	}
	return &Store{db: db, embedder: embedder, logger: logger, searchTimeout: searchTimeout}, nil
}

// Add sanitizes, embeds (RETRIEVAL_DOCUMENT) and inserts a chunk.
// An empty category defaults to DefaultCategory.
func (s *Store) Add(ctx context.Context, content, category, sourceDocument string) (Chunk, error) {
	content = sanitizeContent(content)
	if content == "" {
		return Chunk{}, ErrEmptyContent
	}
	if category == "" {
		category = DefaultCategory
	}

	vec, err := s.embedder.EmbedDocument(ctx, content)
	if err != nil {
		return Chunk{}, fmt.Errorf("embedding chunk: %w", err)
	}

	chunk := Chunk{
		ID:             uuid.New(),
		Content:        content,
		Category:       category,
		SourceDocument: sourceDocument,
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO knowledge_chunks (id, content, category, source_document, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		chunk.ID, chunk.Content, chunk.Category, chunk.SourceDocument, pgvector.NewVector(vec))
	if err := row.Scan(&chunk.CreatedAt, &chunk.UpdatedAt); err != nil {
		return Chunk{}, fmt.Errorf("inserting chunk: %w", err)
	}

	s.logger.Debug("chunk added", "id", chunk.ID, "category", chunk.Category,
		"source", chunk.SourceDocument, "content_length", len(chunk.Content))
	return chunk, nil
}

// Update replaces a chunk's content (re-embedding it), category and source.
// Returns ErrNotFound when no chunk matches id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, content, category, sourceDocument string) (Chunk, error) {
	content = sanitizeContent(content)
	if content == "" {
		return Chunk{}, ErrEmptyContent
	}
	if category == "" {
		category = DefaultCategory
	}

	vec, err := s.embedder.EmbedDocument(ctx, content)
	if err != nil {
		return Chunk{}, fmt.Errorf("re-embedding chunk: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`UPDATE knowledge_chunks
		 SET content = $2, category = $3, source_document = $4, embedding = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+chunkCols,
		id, content, category, sourceDocument, pgvector.NewVector(vec))

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chunk{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Chunk{}, fmt.Errorf("updating chunk: %w", err)
	}

	s.logger.Debug("chunk updated", "id", chunk.ID)
	return chunk, nil
}

// Delete removes a chunk by ID. Returns ErrNotFound when no row matches.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM knowledge_chunks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting chunk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.logger.Debug("chunk deleted", "id", id)
	return nil
}

// TopMatch embeds query (RETRIEVAL_QUERY) and returns the single nearest
// chunk with its cosine similarity, or nil when the store is empty.
func (s *Store) TopMatch(ctx context.Context, query string) (*Match, error) {
	matches, err := s.TopK(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// TopK embeds query (RETRIEVAL_QUERY) and returns the k nearest chunks
// ordered by descending similarity.
func (s *Store) TopK(ctx context.Context, query string, k int) ([]Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	rows, err := s.db.Query(queryCtx,
		`SELECT `+chunkCols+`, 1 - (embedding <=> $1) AS similarity
		 FROM knowledge_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vec), k)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("similarity search timeout: %w", err)
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Content, &m.Category, &m.SourceDocument,
			&m.CreatedAt, &m.UpdatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// List returns one page of chunks ordered by creation time, newest first.
// page is 1-based; pageSize is clamped to [1, MaxPageSize].
func (s *Store) List(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_chunks`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("counting chunks: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+chunkCols+`
		 FROM knowledge_chunks
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	items := make([]Chunk, 0, pageSize)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scanning chunk: %w", err)
		}
		items = append(items, chunk)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterating chunks: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      int(total),
	}, nil
}

func scanChunk(row pgx.Row) (Chunk, error) {
	var c Chunk
	if err := row.Scan(&c.ID, &c.Content, &c.Category, &c.SourceDocument,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Chunk{}, err
	}
	return c, nil
}
