package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npnhat/vanthu/internal/log"
	"github.com/npnhat/vanthu/internal/router"
)

// MaxPromptLength bounds the prompt accepted by the routing and chat
// endpoints.
const MaxPromptLength = 10000

// QueryRouter decides the handling branch for a query.
type QueryRouter interface {
	Route(ctx context.Context, query string) router.Decision
}

// RouteHandler exposes the routing decision without generating a reply, so
// clients and operators can inspect how a query would be handled.
type RouteHandler struct {
	router QueryRouter
	logger log.Logger
}

// NewRouteHandler creates a route handler.
func NewRouteHandler(r QueryRouter, logger log.Logger) *RouteHandler {
	return &RouteHandler{router: r, logger: logger}
}

// RegisterRoutes registers routing routes on the given mux.
func (h *RouteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/route-query", h.route)
}

// RouteRequest is the request body for POST /api/route-query.
type RouteRequest struct {
	Prompt string `json:"prompt"`
}

func (h *RouteHandler) route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "prompt is required")
		return
	}
	if len(req.Prompt) > MaxPromptLength {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "prompt too long")
		return
	}

	decision := h.router.Route(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, decision)
}
