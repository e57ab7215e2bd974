package keyword

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/npnhat/vanthu/internal/textnorm"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

const keywordCols = `id, keyword, type, created_at`

// Store provides CRUD on the anchor_keywords table.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger *slog.Logger
}

// NewStore creates a keyword Store.
func NewStore(db querier, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// Create inserts a new anchor keyword. The raw keyword is normalized before
// persistence; an empty result after normalization is rejected. A duplicate
// normalized keyword returns ErrDuplicate.
func (s *Store) Create(ctx context.Context, rawKeyword, keywordType string) (Keyword, error) {
	normalized := textnorm.Normalize(rawKeyword)
	if normalized == "" {
		return Keyword{}, ErrEmptyKeyword
	}

	kw := Keyword{ID: uuid.New(), Keyword: normalized, Type: keywordType}

	row := s.db.QueryRow(ctx,
		`INSERT INTO anchor_keywords (id, keyword, type) VALUES ($1, $2, $3) RETURNING created_at`,
		kw.ID, kw.Keyword, kw.Type)
	if err := row.Scan(&kw.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Keyword{}, fmt.Errorf("%w: %q", ErrDuplicate, normalized)
		}
		return Keyword{}, fmt.Errorf("inserting keyword: %w", err)
	}

	s.logger.Debug("keyword created", "id", kw.ID, "keyword", kw.Keyword)
	return kw, nil
}

// Update replaces the keyword text and type for an existing row, normalizing
// the new text. Returns ErrNotFound when no row matches id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, rawKeyword, keywordType string) (Keyword, error) {
	normalized := textnorm.Normalize(rawKeyword)
	if normalized == "" {
		return Keyword{}, ErrEmptyKeyword
	}

	row := s.db.QueryRow(ctx,
		`UPDATE anchor_keywords SET keyword = $2, type = $3 WHERE id = $1 RETURNING `+keywordCols,
		id, normalized, keywordType)

	kw, err := scanKeyword(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Keyword{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if isUniqueViolation(err) {
			return Keyword{}, fmt.Errorf("%w: %q", ErrDuplicate, normalized)
		}
		return Keyword{}, fmt.Errorf("updating keyword: %w", err)
	}

	s.logger.Debug("keyword updated", "id", kw.ID, "keyword", kw.Keyword)
	return kw, nil
}

// Delete removes a keyword by ID. Returns ErrNotFound when no row matches.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM anchor_keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting keyword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.logger.Debug("keyword deleted", "id", id)
	return nil
}

// List returns all anchor keywords ordered by creation time, newest first.
func (s *Store) List(ctx context.Context) ([]Keyword, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+keywordCols+` FROM anchor_keywords ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keywords: %w", err)
	}

	return keywords, nil
}

func scanKeyword(row pgx.Row) (Keyword, error) {
	var kw Keyword
	if err := row.Scan(&kw.ID, &kw.Keyword, &kw.Type, &kw.CreatedAt); err != nil {
		return Keyword{}, err
	}
	return kw, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
