package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npnhat/vanthu/internal/chat"
	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/router"
)

func TestChatTurn(t *testing.T) {
	ts := newTestServer()
	ts.responder.result = chat.Result{
		Reply: "Quy trình gồm ba bước.",
		History: []gemini.Message{
			{Role: gemini.RoleUser, Text: "thủ tục nghỉ phép"},
			{Role: gemini.RoleModel, Text: "Quy trình gồm ba bước."},
		},
		Decision: router.Decision{Branch: router.ActivateRAG, Reason: router.ReasonAnchorKeyword},
	}

	w := ts.do(t, http.MethodPost, "/api/chat", `{"prompt": "thủ tục nghỉ phép"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got chat.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Quy trình gồm ba bước.", got.Reply)
	assert.Len(t, got.History, 2)
	assert.Equal(t, router.ReasonAnchorKeyword, got.Decision.Reason)
}

func TestChatAIUnavailable(t *testing.T) {
	ts := newTestServer()
	ts.responder.err = fmt.Errorf("%w: quota exhausted", chat.ErrAIUnavailable)

	w := ts.do(t, http.MethodPost, "/api/chat", `{"prompt": "câu hỏi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), codeAIUnavailable)
}

func TestChatInternalError(t *testing.T) {
	ts := newTestServer()
	ts.responder.err = fmt.Errorf("something else broke")

	w := ts.do(t, http.MethodPost, "/api/chat", `{"prompt": "câu hỏi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), codeInternal)
}

func TestChatBadRequest(t *testing.T) {
	longHistory := `[` + strings.TrimSuffix(strings.Repeat(`{"role":"user","text":"x"},`, MaxHistoryTurns+1), ",") + `]`

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing prompt", body: `{}`},
		{name: "blank prompt", body: `{"prompt": "  "}`},
		{name: "bad history role", body: `{"prompt": "hi", "history": [{"role": "system", "text": "x"}]}`},
		{name: "history too long", body: `{"prompt": "hi", "history": ` + longHistory + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			w := ts.do(t, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
