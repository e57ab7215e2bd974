// Package chat assembles grounded or fallback replies for the e-office
// assistant. It routes the prompt, retrieves context on the grounded branch,
// builds the system instruction, and calls the generative model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/npnhat/vanthu/internal/gemini"
	"github.com/npnhat/vanthu/internal/knowledge"
	"github.com/npnhat/vanthu/internal/router"
)

// ErrAIUnavailable marks failures of the embedding or generative service.
// The HTTP layer maps it to 503 so operators can tell model-provider
// problems apart from routing or storage problems.
var ErrAIUnavailable = errors.New("ai service unavailable")

// contextHeader and contextFooter delimit retrieved passages inside the
// grounded system instruction. The closing directive below tells the model
// never to reveal them.
const (
	contextHeader = "=== TÀI LIỆU NỘI BỘ ==="
	contextFooter = "=== HẾT TÀI LIỆU ==="
)

const persona = `Bạn là trợ lý ảo của hệ thống văn thư điện tử, hỗ trợ cán bộ và nhân viên
tra cứu quy trình, thủ tục hành chính nội bộ. Trả lời ngắn gọn, chính xác,
bằng tiếng Việt trang trọng.`

const groundedRules = `Ưu tiên trả lời dựa trên tài liệu nội bộ ở trên khi tài liệu liên quan đến
câu hỏi. Nếu tài liệu không đủ hoặc không liên quan, hãy dùng kiến thức
chung hoặc tìm kiếm trên web. Tuyệt đối không nhắc đến việc bạn được cung
cấp tài liệu hay trích dẫn các dấu phân cách ở trên.`

const fallbackRules = `Hãy trả lời bằng kiến thức chung của bạn. Bạn được phép tìm kiếm trên web
khi cần thông tin mới hoặc thông tin bạn không chắc chắn.`

// Router decides the handling branch for a prompt. Implemented by
// router.Router.
type Router interface {
	Route(ctx context.Context, query string) router.Decision
}

// Retriever returns the k closest knowledge chunks. Implemented by
// knowledge.Store.
type Retriever interface {
	TopK(ctx context.Context, query string, k int) ([]knowledge.Match, error)
}

// Generator produces one model reply. Implemented by gemini.Client.
type Generator interface {
	Generate(ctx context.Context, req gemini.GenerateRequest) (string, error)
}

// Result is one completed chat turn.
type Result struct {
	Reply string `json:"reply"`

	// History is the caller's history extended by the user prompt and the
	// model reply, in that order.
	History []gemini.Message `json:"history"`

	// Decision records how the prompt was routed, for observability.
	Decision router.Decision `json:"routing"`
}

// Assembler builds replies per routed prompt.
//
// Assembler is safe for concurrent use by multiple goroutines.
type Assembler struct {
	router    Router
	retriever Retriever
	generator Generator
	topK      int
	logger    *slog.Logger
}

// NewAssembler creates an Assembler. topK is the number of chunks retrieved
// on the grounded branch.
func NewAssembler(r Router, retriever Retriever, generator Generator, topK int, logger *slog.Logger) (*Assembler, error) {
	if r == nil || retriever == nil || generator == nil {
		return nil, fmt.Errorf("router, retriever, and generator are required")
	}
	if topK < 1 {
		return nil, fmt.Errorf("top-k must be positive, got %d", topK)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{router: r, retriever: retriever, generator: generator, topK: topK, logger: logger}, nil
}

// Respond routes the prompt, generates a reply on the chosen branch, and
// returns the reply with the extended history.
//
// The caller's history slice is never mutated; the returned history is a
// fresh slice. Failures of the embedding or generative service wrap
// ErrAIUnavailable.
func (a *Assembler) Respond(ctx context.Context, prompt string, history []gemini.Message) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, fmt.Errorf("prompt is required")
	}

	decision := a.router.Route(ctx, prompt)

	req := gemini.GenerateRequest{
		History: copyHistory(history),
		Prompt:  prompt,
	}

	if decision.Branch == router.ActivateRAG {
		instruction, ok, err := a.groundedInstruction(ctx, prompt)
		if err != nil {
			return Result{}, err
		}
		if ok {
			req.SystemInstruction = instruction
		}
	}
	if req.SystemInstruction == "" {
		// Fallback branch, or a grounded branch whose retrieval came back
		// empty (anchor keyword hit with an empty store).
		req.SystemInstruction = persona + "\n\n" + fallbackRules
		req.UseSearch = true
	}

	reply, err := a.generator.Generate(ctx, req)
	if err != nil {
		a.logger.Error("generation failed", "error", err, "branch", decision.Branch)
		return Result{}, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	updated := make([]gemini.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		gemini.Message{Role: gemini.RoleUser, Text: prompt},
		gemini.Message{Role: gemini.RoleModel, Text: reply},
	)

	a.logger.Info("chat turn completed",
		"branch", decision.Branch,
		"reason", decision.Reason,
		"history_len", len(updated),
	)

	return Result{Reply: reply, History: updated, Decision: decision}, nil
}

// groundedInstruction retrieves top-K chunks and builds the grounded system
// instruction. ok is false when retrieval returned nothing usable.
func (a *Assembler) groundedInstruction(ctx context.Context, prompt string) (string, bool, error) {
	matches, err := a.retriever.TopK(ctx, prompt, a.topK)
	if err != nil {
		a.logger.Error("context retrieval failed", "error", err)
		return "", false, fmt.Errorf("%w: retrieving context: %v", ErrAIUnavailable, err)
	}
	if len(matches) == 0 {
		a.logger.Warn("grounded branch chosen but no chunks retrieved")
		return "", false, nil
	}

	passages := make([]string, len(matches))
	for i, m := range matches {
		passages[i] = m.Content
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(contextHeader)
	b.WriteString("\n")
	b.WriteString(strings.Join(passages, "\n---\n"))
	b.WriteString("\n")
	b.WriteString(contextFooter)
	b.WriteString("\n\n")
	b.WriteString(groundedRules)
	return b.String(), true, nil
}

// copyHistory clones the caller's history so the outbound call can never
// alias or mutate it.
func copyHistory(history []gemini.Message) []gemini.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]gemini.Message, len(history))
	copy(out, history)
	return out
}
