package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/npnhat/vanthu/internal/chat"
	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/log"
)

// MaxHistoryTurns bounds the caller-supplied conversation history.
const MaxHistoryTurns = 100

// Responder runs one chat turn. Implemented by chat.Assembler.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []gemini.Message) (chat.Result, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	responder Responder
	logger    log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(responder Responder, logger log.Logger) *ChatHandler {
	return &ChatHandler{responder: responder, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.chat)
}

// ChatRequest is the request body for POST /api/chat. History is echoed
// back extended by two turns; the server keeps no session state.
type ChatRequest struct {
	Prompt  string           `json:"prompt"`
	History []gemini.Message `json:"history"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
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
	if len(req.History) > MaxHistoryTurns {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "history too long")
		return
	}
	for _, m := range req.History {
		if m.Role != gemini.RoleUser && m.Role != gemini.RoleModel {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "history roles must be user or model")
			return
		}
	}

	result, err := h.responder.Respond(r.Context(), req.Prompt, req.History)
	if err != nil {
		if errors.Is(err, chat.ErrAIUnavailable) {
			writeError(w, http.StatusServiceUnavailable, codeAIUnavailable, "ai service unavailable")
			return
		}
		h.logger.Error("chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "chat turn failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
