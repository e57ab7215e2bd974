// Package app wires configuration, storage, the Gemini client, and the
// routing/chat pipeline into one initialized application. Both the serve
// and ingest commands go through Setup so they share the same construction
// order and failure behavior.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/npnhat/vanthu/db"
	"github.com/npnhat/vanthu/internal/chat"
	"github.com/npnhat/vanthu/internal/chunker"
	"github.com/npnhat/vanthu/internal/config"
	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/ingest"
	"github.com/npnhat/vanthu/internal/keyword"
	"github.com/npnhat/vanthu/internal/knowledge"
	"github.com/npnhat/vanthu/internal/log"
	"github.com/npnhat/vanthu/internal/router"
)

// App holds the initialized application components.
type App struct {
	Config *config.Config
	Logger log.Logger

	Pool   *pgxpool.Pool
	Gemini *gemini.Client

	Keywords  *keyword.Store
	Cache     *keyword.Cache
	Knowledge *knowledge.Store
	Ingest    *ingest.Service
	Router    *router.Router
	Assembler *chat.Assembler
}

// Setup validates the config, runs migrations, connects the pool, and
// builds the full pipeline. The keyword cache is loaded before returning,
// so a returned App is ready to serve routing traffic.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	a, err := build(ctx, cfg, logger, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, logger log.Logger, pool *pgxpool.Pool) (*App, error) {
	ai, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:          cfg.GeminiAPIKey,
		ChatModel:       cfg.ChatModel,
		EmbedderModel:   cfg.EmbedderModel,
		Dimension:       cfg.EmbedderDimension,
		Temperature:     cfg.Temperature,
		EmbedTimeout:    cfg.EmbedTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
		Retry: gemini.RetryConfig{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialInterval: gemini.DefaultRetryConfig().InitialInterval,
			MaxInterval:     gemini.DefaultRetryConfig().MaxInterval,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	keywords, err := keyword.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating keyword store: %w", err)
	}

	cache, err := keyword.NewCache(keywords, logger)
	if err != nil {
		return nil, fmt.Errorf("creating keyword cache: %w", err)
	}
	// Blocking initial load. Routing must not start with an empty set when
	// keywords exist, so a failure here aborts startup.
	if err := cache.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading keyword cache: %w", err)
	}

	store, err := knowledge.NewStore(pool, ai, logger, cfg.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}

	semantic, err := chunker.NewSemantic(ai, chunker.Config{
		BreakThreshold: cfg.SemanticBreakThreshold,
		MaxWords:       cfg.MaxChunkWords,
		MinSentenceLen: cfg.MinSentenceLen,
		BatchSize:      cfg.EmbedBatchSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating semantic chunker: %w", err)
	}

	ingestSvc, err := ingest.NewService(semantic, chunker.Cascade{MinFragmentLen: cfg.MinSentenceLen}, store, logger)
	if err != nil {
		return nil, fmt.Errorf("creating ingest service: %w", err)
	}

	rt, err := router.New(cache, store, cfg.SimilarityThreshold, logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	assembler, err := chat.NewAssembler(rt, store, ai, cfg.TopK, logger)
	if err != nil {
		return nil, fmt.Errorf("creating assembler: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Gemini:    ai,
		Keywords:  keywords,
		Cache:     cache,
		Knowledge: store,
		Ingest:    ingestSvc,
		Router:    rt,
		Assembler: assembler,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
