// Package router decides, per user query, whether a chat turn should be
// grounded on the internal knowledge base or fall back to the general model.
//
// The decision runs in-process on the chat path. It is deliberately
// infallible: any failure while routing degrades to the fallback branch so
// a broken keyword cache or vector search never blocks a conversation.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/npnhat/vanthu/internal/knowledge"
	"github.com/npnhat/vanthu/internal/textnorm"
)

// Branch names the two downstream handling paths.
type Branch string

const (
	// ActivateRAG grounds the answer on retrieved knowledge chunks.
	ActivateRAG Branch = "activate_rag"

	// DirectFallback answers from the general model, optionally with web
	// search, without internal context.
	DirectFallback Branch = "direct_fallback"
)

// Reasons attached to a Decision. Stable strings; they appear in API
// responses and logs.
const (
	ReasonAnchorKeyword = "anchor_keyword_match"
	ReasonSemanticScore = "semantic_score_match"
	ReasonLowSimilarity = "low_similarity_score"
	ReasonNoVectors     = "no_similar_vectors_found"
	ReasonErrorRouting  = "error_during_routing"
)

// Decision is the routing outcome for one query.
type Decision struct {
	Branch Branch `json:"decision"`
	Reason string `json:"reason"`

	// Score is the best similarity found, present only when a vector
	// search actually ran and returned a match.
	Score *float64 `json:"score,omitempty"`
}

// KeywordMatcher reports whether a normalized text contains any anchor
// keyword. Implemented by keyword.Cache.
type KeywordMatcher interface {
	ContainsAny(normalized string) bool
}

// Searcher returns the closest knowledge chunk by cosine similarity, or nil
// when the store is empty. Implemented by knowledge.Store.
type Searcher interface {
	TopMatch(ctx context.Context, query string) (*knowledge.Match, error)
}

// Router applies the two-stage anchor-then-semantic decision.
type Router struct {
	keywords  KeywordMatcher
	searcher  Searcher
	threshold float64
	logger    *slog.Logger
}

// New creates a Router. Threshold is the minimum cosine similarity for the
// semantic stage to choose the RAG branch.
func New(keywords KeywordMatcher, searcher Searcher, threshold float64, logger *slog.Logger) (*Router, error) {
	if keywords == nil {
		return nil, fmt.Errorf("keyword matcher is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{keywords: keywords, searcher: searcher, threshold: threshold, logger: logger}, nil
}

// Route decides the branch for query. It never returns an error: routing
// failures are folded into a fallback decision with reason
// "error_during_routing".
//
// Stage one checks the in-memory anchor keyword set against the normalized
// query; a hit skips the vector search entirely. Stage two embeds the query
// and compares the top chunk's similarity against the threshold.
func (r *Router) Route(ctx context.Context, query string) Decision {
	normalized := textnorm.Normalize(query)

	if r.keywords.ContainsAny(normalized) {
		r.logger.Debug("routed by anchor keyword")
		return Decision{Branch: ActivateRAG, Reason: ReasonAnchorKeyword}
	}

	match, err := r.searcher.TopMatch(ctx, query)
	if err != nil {
		r.logger.Error("vector search failed during routing", "error", err)
		return Decision{Branch: DirectFallback, Reason: ReasonErrorRouting}
	}
	if match == nil {
		return Decision{Branch: DirectFallback, Reason: ReasonNoVectors}
	}

	score := match.Similarity
	if score >= r.threshold {
		r.logger.Debug("routed by similarity", "score", score)
		return Decision{Branch: ActivateRAG, Reason: ReasonSemanticScore, Score: &score}
	}
	return Decision{Branch: DirectFallback, Reason: ReasonLowSimilarity, Score: &score}
}
