package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/llm"
)

// HTTPModel calls an external biomedical NER service (e.g. a scispaCy
// en_ner_bc5cdr_md sidecar) that accepts {"text": ...} and answers
// {"entities": [{"text","label","start","end"}]}.
type HTTPModel struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewHTTPModel(url string, timeout time.Duration, logger *slog.Logger) *HTTPModel {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPModel{url: url, client: &http.Client{Timeout: timeout}, logger: logger}
}

func (m *HTTPModel) Recognize(ctx context.Context, text string) ([]Span, error) {
	raw, status, err := llm.SendJSON(ctx, m.client, m.url, map[string]string{"text": text}, nil, m.logger)
	if err != nil {
		return nil, fmt.Errorf("ner request (status %d): %w", status, err)
	}
	var resp struct {
		Entities []Span `json:"entities"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}
	return resp.Entities, nil
}
