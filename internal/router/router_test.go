package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/npnhat/vanthu/internal/knowledge"
	"github.com/npnhat/vanthu/internal/log"
)

type fakeMatcher struct {
	keywords []string
}

func (f *fakeMatcher) ContainsAny(normalized string) bool {
	for _, kw := range f.keywords {
		if kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

type fakeSearcher struct {
	match  *knowledge.Match
	err    error
	called bool
}

func (f *fakeSearcher) TopMatch(_ context.Context, _ string) (*knowledge.Match, error) {
	f.called = true
	return f.match, f.err
}

func matchWithScore(score float64) *knowledge.Match {
	return &knowledge.Match{
		Chunk:      knowledge.Chunk{Content: "quy trinh nghi phep gom ba buoc"},
		Similarity: score,
	}
}

func newRouter(t *testing.T, m KeywordMatcher, s Searcher) *Router {
	t.Helper()
	r, err := New(m, s, 0.75, log.NewNop())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return r
}

func TestRouteAnchorKeywordSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{match: matchWithScore(0.99)}
	r := newRouter(t, &fakeMatcher{keywords: []string{"nghi phep"}}, searcher)

	d := r.Route(context.Background(), "Thủ tục xin NGHỈ PHÉP như thế nào?")

	if d.Branch != ActivateRAG {
		t.Errorf("branch = %q, want %q", d.Branch, ActivateRAG)
	}
	if d.Reason != ReasonAnchorKeyword {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonAnchorKeyword)
	}
	if d.Score != nil {
		t.Error("anchor decisions must not carry a score")
	}
	if searcher.called {
		t.Error("anchor hit must skip the vector search")
	}
}

func TestRouteSemanticAboveThreshold(t *testing.T) {
	searcher := &fakeSearcher{match: matchWithScore(0.82)}
	r := newRouter(t, &fakeMatcher{}, searcher)

	d := r.Route(context.Background(), "làm sao để đăng ký công tác")

	if d.Branch != ActivateRAG || d.Reason != ReasonSemanticScore {
		t.Errorf("decision = %+v, want RAG via semantic score", d)
	}
	if d.Score == nil || *d.Score != 0.82 {
		t.Errorf("score = %v, want 0.82", d.Score)
	}
}

func TestRouteSemanticAtThreshold(t *testing.T) {
	r := newRouter(t, &fakeMatcher{}, &fakeSearcher{match: matchWithScore(0.75)})

	d := r.Route(context.Background(), "câu hỏi sát ngưỡng")
	if d.Branch != ActivateRAG || d.Reason != ReasonSemanticScore {
		t.Errorf("decision = %+v, want RAG at exact threshold", d)
	}
}

func TestRouteLowSimilarity(t *testing.T) {
	r := newRouter(t, &fakeMatcher{}, &fakeSearcher{match: matchWithScore(0.41)})

	d := r.Route(context.Background(), "thời tiết hôm nay thế nào")

	if d.Branch != DirectFallback || d.Reason != ReasonLowSimilarity {
		t.Errorf("decision = %+v, want fallback via low similarity", d)
	}
	if d.Score == nil || *d.Score != 0.41 {
		t.Errorf("score = %v, want 0.41 so callers can log the near miss", d.Score)
	}
}

func TestRouteEmptyStore(t *testing.T) {
	r := newRouter(t, &fakeMatcher{}, &fakeSearcher{match: nil})

	d := r.Route(context.Background(), "bất kỳ câu hỏi nào")

	if d.Branch != DirectFallback || d.Reason != ReasonNoVectors {
		t.Errorf("decision = %+v, want fallback with no vectors", d)
	}
	if d.Score != nil {
		t.Error("no search result means no score")
	}
}

func TestRouteSearchFailureFallsBack(t *testing.T) {
	r := newRouter(t, &fakeMatcher{}, &fakeSearcher{err: errors.New("connection refused")})

	d := r.Route(context.Background(), "câu hỏi bình thường")

	if d.Branch != DirectFallback || d.Reason != ReasonErrorRouting {
		t.Errorf("decision = %+v, want fallback via routing error", d)
	}
}

func TestNewValidation(t *testing.T) {
	matcher := &fakeMatcher{}
	searcher := &fakeSearcher{}

	tests := []struct {
		name      string
		keywords  KeywordMatcher
		searcher  Searcher
		threshold float64
	}{
		{name: "nil matcher", keywords: nil, searcher: searcher, threshold: 0.75},
		{name: "nil searcher", keywords: matcher, searcher: nil, threshold: 0.75},
		{name: "zero threshold", keywords: matcher, searcher: searcher, threshold: 0},
		{name: "threshold above one", keywords: matcher, searcher: searcher, threshold: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.keywords, tt.searcher, tt.threshold, log.NewNop()); err == nil {
				t.Error("New() should reject invalid arguments")
			}
		})
	}
}
