package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/ingest"
	"github.com/npnhat/vanthu/internal/knowledge"
	"github.com/npnhat/vanthu/internal/log"
)

// Knowledge validation constants.
const (
	MaxContentLength  = 100000
	MaxCategoryLength = 200
	MaxSourceLength   = 500
	DefaultPageSize   = 20
)

// KnowledgeStore is the persistence surface for knowledge chunks.
// Implemented by knowledge.Store.
type KnowledgeStore interface {
	Add(ctx context.Context, content, category, sourceDocument string) (knowledge.Chunk, error)
	Update(ctx context.Context, id uuid.UUID, content, category, sourceDocument string) (knowledge.Chunk, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, pageSize int) (knowledge.Page, error)
}

// Ingestor chunks and stores whole documents. Implemented by
// ingest.Service.
type Ingestor interface {
	Ingest(ctx context.Context, content, category, sourceDocument, strategy string) (ingest.Report, error)
}

// KnowledgeHandler handles knowledge CRUD and document ingestion.
type KnowledgeHandler struct {
	store    KnowledgeStore
	ingestor Ingestor
	logger   log.Logger
}

// NewKnowledgeHandler creates a knowledge handler.
func NewKnowledgeHandler(store KnowledgeStore, ingestor Ingestor, logger log.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{store: store, ingestor: ingestor, logger: logger}
}

// RegisterRoutes registers knowledge routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/knowledge", h.list)
	mux.HandleFunc("POST /api/knowledge", h.create)
	mux.HandleFunc("PUT /api/knowledge/{id}", h.update)
	mux.HandleFunc("DELETE /api/knowledge/{id}", h.delete)
	mux.HandleFunc("POST /api/knowledge/ingest", h.ingest)
}

// ChunkRequest is the request body for chunk create and update.
type ChunkRequest struct {
	Content        string `json:"content"`
	Category       string `json:"category"`
	SourceDocument string `json:"source_document"`
}

// IngestRequest is the request body for POST /api/knowledge/ingest.
type IngestRequest struct {
	ChunkRequest

	// Strategy selects the chunker: "semantic" (default) or "cascade".
	Strategy string `json:"strategy"`
}

func (h *KnowledgeHandler) list(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1, 1, 1000000)
	pageSize := parseIntParam(r, "page_size", DefaultPageSize, 1, knowledge.MaxPageSize)

	result, err := h.store.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list knowledge", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to list knowledge")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *KnowledgeHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChunkRequest(w, r)
	if !ok {
		return
	}

	chunk, err := h.store.Add(r.Context(), req.Content, req.Category, req.SourceDocument)
	if err != nil {
		h.writeStoreError(w, err, "failed to create chunk")
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

func (h *KnowledgeHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeChunkRequest(w, r)
	if !ok {
		return
	}

	chunk, err := h.store.Update(r.Context(), id, req.Content, req.Category, req.SourceDocument)
	if err != nil {
		h.writeStoreError(w, err, "failed to update chunk")
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (h *KnowledgeHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "failed to delete chunk")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KnowledgeHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	if !h.validChunkFields(w, req.ChunkRequest) {
		return
	}

	report, err := h.ingestor.Ingest(r.Context(), req.Content, req.Category, req.SourceDocument, req.Strategy)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrNothingIngestible):
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "nothing ingestible in document")
		case errors.Is(err, ingest.ErrUnknownStrategy):
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "unknown chunking strategy")
		case errors.Is(err, gemini.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, codeAIUnavailable, "ai service unavailable")
		default:
			h.logger.Error("ingestion failed", "error", err, "source", req.SourceDocument)
			writeError(w, http.StatusInternalServerError, codeInternal, "ingestion failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (h *KnowledgeHandler) decodeChunkRequest(w http.ResponseWriter, r *http.Request) (ChunkRequest, bool) {
	var req ChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return req, false
	}
	return req, h.validChunkFields(w, req)
}

func (h *KnowledgeHandler) validChunkFields(w http.ResponseWriter, req ChunkRequest) bool {
	if len(req.Content) > MaxContentLength {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "content too long")
		return false
	}
	if len(req.Category) > MaxCategoryLength {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "category too long")
		return false
	}
	if len(req.SourceDocument) > MaxSourceLength {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "source_document too long")
		return false
	}
	return true
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func (h *KnowledgeHandler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, knowledge.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "content is required")
	case errors.Is(err, knowledge.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "chunk not found")
	case errors.Is(err, gemini.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeAIUnavailable, "ai service unavailable")
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, fallback)
	}
}
