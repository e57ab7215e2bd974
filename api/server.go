// Package api exposes the assistant over HTTP REST.
//
// Endpoints:
//
//	GET  /health                  liveness probe
//	GET  /ready                   readiness probe (pings the database)
//	POST /api/route-query         routing decision only, no generation
//	POST /api/chat                full chat turn
//	GET  /api/keywords            list anchor keywords
//	POST /api/keywords            create anchor keyword
//	PUT  /api/keywords/{id}       update anchor keyword
//	DELETE /api/keywords/{id}     delete anchor keyword
//	GET  /api/knowledge           list knowledge chunks (paged)
//	POST /api/knowledge           create one chunk directly
//	PUT  /api/knowledge/{id}      update chunk (re-embeds)
//	DELETE /api/knowledge/{id}    delete chunk
//	POST /api/knowledge/ingest    chunk and store a whole document
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - route.go: routing endpoint
//   - chat.go: chat endpoint
//   - keyword.go: anchor keyword CRUD
//   - knowledge.go: knowledge CRUD and ingestion
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/npnhat/vanthu/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// turns wait on the model, so this runs long.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum wait for the next keep-alive request.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the assistant's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health    *HealthHandler
	route     *RouteHandler
	chat      *ChatHandler
	keyword   *KeywordHandler
	knowledge *KnowledgeHandler
}

// Deps bundles the collaborators the handlers need.
type Deps struct {
	Pool      *pgxpool.Pool
	Router    QueryRouter
	Chat      Responder
	Keywords  KeywordStore
	Cache     CacheReloader
	Knowledge KnowledgeStore
	Ingest    Ingestor
	Logger    log.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		logger:    deps.Logger,
		health:    NewHealthHandler(deps.Pool, deps.Logger),
		route:     NewRouteHandler(deps.Router, deps.Logger),
		chat:      NewChatHandler(deps.Chat, deps.Logger),
		keyword:   NewKeywordHandler(deps.Keywords, deps.Cache, deps.Logger),
		knowledge: NewKnowledgeHandler(deps.Knowledge, deps.Ingest, deps.Logger),
	}

	s.health.RegisterRoutes(mux)
	s.route.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.keyword.RegisterRoutes(mux)
	s.knowledge.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
