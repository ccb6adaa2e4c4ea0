package openai

import (
	"log/slog"
	"net/http"
	"time"

	oai "github.com/sashabaranov/go-openai"
)

// Config for the vision record extractor.
type Config struct {
	APIKey    string        // empty means not configured; every call fails fast
	BaseURL   string        // default https://api.openai.com/v1
	Model     string        // e.g., "gpt-4o-2024-08-06"
	MaxTokens int           // default 1000
	Timeout   time.Duration // http client timeout
	// Partial accepts records that miss required fields instead of failing.
	Partial bool
}

type Client struct {
	cfg    Config
	api    *oai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-2024-08-06"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiCfg := oai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:    cfg,
		api:    oai.NewClientWithConfig(apiCfg),
		logger: logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}
