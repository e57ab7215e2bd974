// Package testutil provides shared test infrastructure: a disposable
// PostgreSQL container with the pgvector extension and the project schema
// applied, plus a deterministic embedder for storage tests.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/npnhat/vanthu/db"
)

// Dimension matches the vector columns in db/migrations.
const Dimension = 768

// TestDB wraps a PostgreSQL test container with a ready connection pool.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a pgvector-enabled PostgreSQL container, applies the
// embedded migrations, and returns a connected pool. The returned cleanup
// must be called to terminate the container.
func SetupTestDB(t *testing.T) (*TestDB, func()) {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("vanthu_test"),
		postgres.WithUsername("vanthu_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := db.Migrate(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
		t.Fatalf("Failed to ping database: %v", err)
	}

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(context.Background())
	}

	return &TestDB{Container: pgContainer, Pool: pool, ConnStr: connStr}, cleanup
}

// HashEmbedder produces deterministic unit vectors from text content, so
// storage tests get stable, comparable embeddings without the Gemini API.
// Identical texts embed identically; different texts almost surely differ.
type HashEmbedder struct{}

// Embed returns a deterministic unit vector for text.
func (HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, Dimension)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	var norm float64
	for i := range vec {
		// xorshift keeps the stream deterministic per seed.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float32(int64(seed%2000)-1000) / 1000
		vec[i] = v
		norm += float64(v) * float64(v)
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// EmbedDocument implements knowledge.Embedder.
func (e HashEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return e.Embed(text), nil
}

// EmbedQuery implements knowledge.Embedder.
func (e HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.Embed(text), nil
}

// EmbedSimilarityBatch implements chunker.Embedder.
func (e HashEmbedder) EmbedSimilarityBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.Embed(t)
	}
	return out, nil
}
