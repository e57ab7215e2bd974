// Package gemini wraps the Gemini API behind the two operations the rest of
// the service needs: task-typed embeddings and chat generation. All calls go
// through a shared rate limiter and retry loop.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrUnavailable marks Gemini API calls that still failed after the retry
// loop gave up. Callers that cannot degrade map it to a 503.
var ErrUnavailable = errors.New("gemini unavailable")

// Embedding task types. The model produces different vector spaces per task;
// documents and queries must use the retrieval pair so their distances are
// comparable, while chunking uses the symmetric similarity space.
const (
	taskRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery     = "RETRIEVAL_QUERY"
	taskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of conversation history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	// SystemInstruction sets the model persona and answering rules.
	SystemInstruction string

	// History holds prior turns, oldest first. The final user prompt goes
	// in Prompt, not here.
	History []Message

	// Prompt is the current user message, possibly wrapped with retrieved
	// context by the caller.
	Prompt string

	// UseSearch attaches the Google Search tool so the model can ground
	// general answers on the web.
	UseSearch bool
}

// Config holds client parameters. internal/config carries the defaults.
type Config struct {
	APIKey        string
	ChatModel     string
	EmbedderModel string

	// Dimension is the embedding output dimensionality. Must match the
	// vector column width in the database.
	Dimension int32

	Temperature float32

	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	Retry RetryConfig
}

func (cfg Config) validate() error {
	if cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if cfg.ChatModel == "" || cfg.EmbedderModel == "" {
		return fmt.Errorf("chat and embedder model names are required")
	}
	if cfg.Dimension < 1 {
		return fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.EmbedTimeout <= 0 || cfg.GenerateTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Client is the shared Gemini API client.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	api     *genai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Client against the Gemini API backend.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid gemini config: %w", err)
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{
		api: api,
		cfg: cfg,
		// 10 req/s with a burst of 30 stays under the free-tier ceiling
		// while batch ingestion is running.
		limiter: rate.NewLimiter(10, 30),
		logger:  logger,
	}, nil
}

// EmbedDocument embeds text for storage, using the retrieval-document task.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embedOne(ctx, text, taskRetrievalDocument)
}

// EmbedQuery embeds a user query for search, using the retrieval-query task.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embedOne(ctx, text, taskRetrievalQuery)
}

func (c *Client) embedOne(ctx context.Context, text, taskType string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedSimilarityBatch embeds texts in order with the semantic-similarity
// task, one vector per input. Satisfies chunker.Embedder.
func (c *Client) EmbedSimilarityBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, taskSemanticSimilarity)
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dim := c.cfg.Dimension
	config := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dim,
	}

	var resp *genai.EmbedContentResponse
	err := c.withRetry(ctx, "embed", c.cfg.EmbedTimeout, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.Models.EmbedContent(ctx, c.cfg.EmbedderModel, contents, config)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d texts (%s): %v", ErrUnavailable, len(texts), taskType, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Generate produces one model reply for the request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	var resp *genai.GenerateContentResponse
	err := c.withRetry(ctx, "generate", c.cfg.GenerateTimeout, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.Models.GenerateContent(ctx, c.cfg.ChatModel, contents, config)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("%w: generating reply: %v", ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	return text, nil
}
