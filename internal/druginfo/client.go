package druginfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/mediscan/internal/common"
)

const (
	// Fallback is returned whenever the label database cannot supply a purpose.
	Fallback = "No detailed information available from FDA database."

	defaultBaseURL = "https://api.fda.gov"
	defaultTimeout = 10 * time.Second
	maxInfoRunes   = 400
)

// Looker is what the pipeline needs from a drug-information source.
type Looker interface {
	Lookup(ctx context.Context, name string) string
}

type Config struct {
	BaseURL string        // default https://api.fda.gov
	Timeout time.Duration // default 10s
}

// Client queries the OpenFDA drug label endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	observe func(outcome string, d time.Duration)
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// OnObserve registers a hook called after every lookup with its outcome
// ("ok", "empty" or "error") and latency.
func (c *Client) OnObserve(fn func(outcome string, d time.Duration)) {
	c.observe = fn
}

// Lookup returns the label purpose for name, or Fallback. It never fails.
func (c *Client) Lookup(ctx context.Context, name string) string {
	start := time.Now()
	info, err := c.fetch(ctx, name)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		lerr := common.LookupError(fmt.Sprintf("label lookup for %q", name), err)
		c.logger.Warn("druginfo.lookup.failed", "medicine", name, "error", lerr, "elapsed_ms", elapsed.Milliseconds())
		info = Fallback
	case info == "":
		outcome = "empty"
		c.logger.Info("druginfo.lookup.no_purpose", "medicine", name, "elapsed_ms", elapsed.Milliseconds())
		info = Fallback
	default:
		c.logger.Info("druginfo.lookup.ok", "medicine", name, "bytes", len(info), "elapsed_ms", elapsed.Milliseconds())
	}
	if c.observe != nil {
		c.observe(outcome, elapsed)
	}
	return info
}

type labelResponse struct {
	Results []struct {
		Purpose             []string `json:"purpose"`
		IndicationsAndUsage []string `json:"indications_and_usage"`
	} `json:"results"`
}

func (c *Client) fetch(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty medicine name")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/drug/label.json?" + SearchQuery(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openfda http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("openfda response body close error", "error", err)
		}
	}(resp.Body)

	// OpenFDA answers 404 when nothing matches.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openfda status %d", resp.StatusCode)
	}

	var lr labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("decode openfda response: %w", err)
	}
	if len(lr.Results) == 0 {
		return "", fmt.Errorf("no label results")
	}
	entries := lr.Results[0].Purpose
	if len(entries) == 0 {
		entries = lr.Results[0].IndicationsAndUsage
	}
	if len(entries) == 0 {
		return "", nil
	}
	return Summarize(entries), nil
}

// SearchQuery builds the exact brand-or-generic phrase match for name.
func SearchQuery(name string) string {
	v := url.Values{}
	v.Set("search", fmt.Sprintf(`openfda.brand_name:"%s" openfda.generic_name:"%s"`, name, name))
	v.Set("limit", "1")
	return v.Encode()
}

// Summarize joins label entries with spaces, keeps the first 400 characters
// and appends an ellipsis.
func Summarize(entries []string) string {
	s := strings.Join(entries, " ")
	if utf8.RuneCountInString(s) > maxInfoRunes {
		s = string([]rune(s)[:maxInfoRunes])
	}
	return s + "..."
}
