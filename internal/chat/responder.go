package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/mediscan/internal/common"
)

const (
	// CannotFind is the reply when the answer is not in the document.
	CannotFind = "I cannot find that information in the uploaded document."
	// ConfigWarning is the reply when the chat model credential is missing or rejected.
	ConfigWarning = "⚠️ Chat API key is not configured. Please set CHAT_API_KEY."
	errorPrefix   = "Error: "
)

const systemPrompt = `You are MediScan AI, a helpful medical assistant. Answer the user's question based ONLY on the provided prescription context.
If the answer is not in the context, politely say "` + CannotFind + `"`

// Responder answers questions about an uploaded document.
type Responder interface {
	Respond(ctx context.Context, docContext, question string, history []Turn) string
}

// ResponderConfig configures the chat model client.
type ResponderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// ModelResponder reaches an OpenAI-compatible chat endpoint.
type ModelResponder struct {
	cfg    ResponderConfig
	api    *oai.Client
	logger *slog.Logger
}

func NewModelResponder(cfg ResponderConfig, logger *slog.Logger) *ModelResponder {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiCfg := oai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &ModelResponder{cfg: cfg, api: oai.NewClientWithConfig(apiCfg), logger: logger}
}

// Respond never fails: credential problems become ConfigWarning and any
// other failure becomes "Error: <msg>".
func (r *ModelResponder) Respond(ctx context.Context, docContext, question string, history []Turn) string {
	answer, err := r.Answer(ctx, docContext, question, history)
	if err == nil {
		return answer
	}
	if errors.Is(err, common.ErrNotConfigured) {
		return ConfigWarning
	}
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Cause != nil {
		return errorPrefix + ae.Cause.Error()
	}
	return errorPrefix + err.Error()
}

// Answer asks the model and reports failures as ResponderError.
func (r *ModelResponder) Answer(ctx context.Context, docContext, question string, history []Turn) (string, error) {
	reqID := common.RequestIDFromContext(ctx)
	if strings.TrimSpace(docContext) == "" {
		return CannotFind, nil
	}
	if r.cfg.APIKey == "" {
		return "", common.ResponderError("chat model", common.ErrNotConfigured)
	}

	start := time.Now()
	r.logger.Info("chat.respond.start", "req_id", reqID, "session_id", common.SessionIDFromContext(ctx), "model", r.cfg.Model, "history", len(history))

	resp, err := r.api.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    buildMessages(docContext, question, history),
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		var apiErr *oai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
			r.logger.Warn("chat.respond.unauthorized", "req_id", reqID, "status", apiErr.HTTPStatusCode)
			return "", common.ResponderError("chat model", errors.Join(common.ErrNotConfigured, err))
		}
		r.logger.Error("chat.respond.error", "req_id", reqID, "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.ResponderError("chat model", err)
	}
	if len(resp.Choices) == 0 {
		return "", common.ResponderError("chat model", errors.New("no choices returned"))
	}
	answer := resp.Choices[0].Message.Content
	r.logger.Info("chat.respond.ok", "req_id", reqID, "chars", len(answer), "elapsed_ms", time.Since(start).Milliseconds())
	return answer, nil
}

func buildMessages(docContext, question string, history []Turn) []oai.ChatCompletionMessage {
	msgs := make([]oai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, t := range history {
		role := oai.ChatMessageRoleUser
		switch t.Role {
		case RoleAssistant:
			role = oai.ChatMessageRoleAssistant
		case RoleSystem:
			role = oai.ChatMessageRoleSystem
		}
		msgs = append(msgs, oai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, oai.ChatCompletionMessage{
		Role:    oai.ChatMessageRoleUser,
		Content: fmt.Sprintf("CONTEXT:\n%s\n\nUSER QUESTION:\n%s\n\nProvide a clear, concise, and helpful answer.", docContext, question),
	})
	return msgs
}
