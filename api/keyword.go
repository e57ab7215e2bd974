package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/npnhat/vanthu/internal/keyword"
	"github.com/npnhat/vanthu/internal/log"
)

// MaxKeywordLength bounds keyword and type fields.
const MaxKeywordLength = 200

// KeywordStore is the persistence surface for anchor keywords. Implemented
// by keyword.Store.
type KeywordStore interface {
	Create(ctx context.Context, kw, kwType string) (keyword.Keyword, error)
	Update(ctx context.Context, id uuid.UUID, kw, kwType string) (keyword.Keyword, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]keyword.Keyword, error)
}

// CacheReloader refreshes the in-memory keyword set. Implemented by
// keyword.Cache.
type CacheReloader interface {
	Load(ctx context.Context) error
}

// KeywordHandler handles anchor keyword CRUD.
//
// Every mutation reloads the cache before responding, so the next routed
// query observes the write. A failed reload is logged but does not fail
// the mutation: the row is committed and the cache catches up on the next
// successful reload.
type KeywordHandler struct {
	store  KeywordStore
	cache  CacheReloader
	logger log.Logger
}

// NewKeywordHandler creates a keyword handler.
func NewKeywordHandler(store KeywordStore, cache CacheReloader, logger log.Logger) *KeywordHandler {
	return &KeywordHandler{store: store, cache: cache, logger: logger}
}

// RegisterRoutes registers keyword routes on the given mux.
func (h *KeywordHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/keywords", h.list)
	mux.HandleFunc("POST /api/keywords", h.create)
	mux.HandleFunc("PUT /api/keywords/{id}", h.update)
	mux.HandleFunc("DELETE /api/keywords/{id}", h.delete)
}

// KeywordRequest is the request body for keyword create and update.
type KeywordRequest struct {
	Keyword string `json:"keyword"`
	Type    string `json:"type"`
}

func (h *KeywordHandler) list(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list keywords", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to list keywords")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keywords": keywords,
		"total":    len(keywords),
	})
}

func (h *KeywordHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	kw, err := h.store.Create(r.Context(), req.Keyword, req.Type)
	if err != nil {
		h.writeStoreError(w, err, "failed to create keyword")
		return
	}

	h.reload(r.Context())
	writeJSON(w, http.StatusCreated, kw)
}

func (h *KeywordHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	kw, err := h.store.Update(r.Context(), id, req.Keyword, req.Type)
	if err != nil {
		h.writeStoreError(w, err, "failed to update keyword")
		return
	}

	h.reload(r.Context())
	writeJSON(w, http.StatusOK, kw)
}

func (h *KeywordHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "failed to delete keyword")
		return
	}

	h.reload(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *KeywordHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (KeywordRequest, bool) {
	var req KeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return req, false
	}
	if len(req.Keyword) > MaxKeywordLength || len(req.Type) > MaxKeywordLength {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "keyword or type too long")
		return req, false
	}
	return req, true
}

func (h *KeywordHandler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, keyword.ErrEmptyKeyword):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "keyword is required")
	case errors.Is(err, keyword.ErrDuplicate):
		writeError(w, http.StatusConflict, codeDuplicate, "keyword already exists")
	case errors.Is(err, keyword.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "keyword not found")
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, fallback)
	}
}

// reload refreshes the cache after a committed mutation. Load logs its own
// failure and keeps the previous set.
func (h *KeywordHandler) reload(ctx context.Context) {
	_ = h.cache.Load(ctx)
}

// parseID extracts and validates the {id} path value.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
