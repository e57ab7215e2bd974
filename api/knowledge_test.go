package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/ingest"
	"github.com/npnhat/vanthu/internal/knowledge"
)

func TestKnowledgeCreate(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, http.MethodPost, "/api/knowledge",
		`{"content": "Quy trình nghỉ phép gồm ba bước.", "category": "HR", "source_document": "quy_che.txt"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got knowledge.Chunk
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "HR", got.Category)
	assert.Equal(t, "quy_che.txt", got.SourceDocument)
}

func TestKnowledgeList(t *testing.T) {
	ts := newTestServer()
	ts.knowledge.page = knowledge.Page{
		Items:      []knowledge.Chunk{{ID: uuid.New(), Content: "đoạn một"}},
		TotalPages: 3,
		Total:      41,
	}

	w := ts.do(t, http.MethodGet, "/api/knowledge?page=2&page_size=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got knowledge.Page
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 20, got.PageSize)
	assert.Equal(t, 41, got.Total)
}

func TestKnowledgeListClampsPaging(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, http.MethodGet, "/api/knowledge?page=-5&page_size=99999", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got knowledge.Page
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, knowledge.MaxPageSize, got.PageSize)
}

func TestKnowledgeUpdateNotFound(t *testing.T) {
	ts := newTestServer()
	ts.knowledge.err = knowledge.ErrNotFound

	w := ts.do(t, http.MethodPut, "/api/knowledge/"+uuid.NewString(), `{"content": "mới"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), codeNotFound)
}

func TestKnowledgeDelete(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, http.MethodDelete, "/api/knowledge/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestKnowledgeEmptyContent(t *testing.T) {
	ts := newTestServer()
	ts.knowledge.err = knowledge.ErrEmptyContent

	w := ts.do(t, http.MethodPost, "/api/knowledge", `{"content": " "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKnowledgeIngest(t *testing.T) {
	ts := newTestServer()
	ts.ingestor.report = ingest.Report{ChunksStored: 3}

	w := ts.do(t, http.MethodPost, "/api/knowledge/ingest",
		`{"content": "Tài liệu dài.", "category": "HR", "source_document": "quy_che.txt", "strategy": "cascade"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "cascade", ts.ingestor.got.strategy)
	assert.Equal(t, "quy_che.txt", ts.ingestor.got.source)

	var got ingest.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 3, got.ChunksStored)
}

func TestKnowledgeCreateEmbeddingOutage(t *testing.T) {
	ts := newTestServer()
	ts.knowledge.err = fmt.Errorf("embedding chunk: %w", gemini.ErrUnavailable)

	w := ts.do(t, http.MethodPost, "/api/knowledge", `{"content": "Quy trình nghỉ phép."}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), codeAIUnavailable)
}

func TestKnowledgeIngestErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "nothing ingestible", err: ingest.ErrNothingIngestible, wantStatus: http.StatusBadRequest},
		{name: "unknown strategy", err: ingest.ErrUnknownStrategy, wantStatus: http.StatusBadRequest},
		{name: "embedding outage", err: fmt.Errorf("storing chunk 1 of 3: embedding chunk: %w", gemini.ErrUnavailable), wantStatus: http.StatusServiceUnavailable},
		{name: "storage failure", err: fmt.Errorf("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.ingestor.err = tt.err

			w := ts.do(t, http.MethodPost, "/api/knowledge/ingest", `{"content": "doc"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
