// Package research queries a SearXNG instance for market information.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/docintel/internal/common"
)

// Hit is one search result.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Config for the SearXNG client.
type Config struct {
	BaseURL           string
	MaxResults        int
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client searches one SearXNG instance. Queries are paced by a limiter shared
// by all callers.
type Client struct {
	base    string
	max     int
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient returns common.ErrNotConfigured when no base URL is set.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("searxng url: %w", common.ErrNotConfigured)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		base:    base,
		max:     cfg.MaxResults,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// FromConfig builds a client from the research section, or returns nil when
// no instance is configured.
func FromConfig(cfg common.ResearchConfig, logger *slog.Logger) *Client {
	c, err := NewClient(Config{
		BaseURL:           cfg.SearxngURL,
		MaxResults:        cfg.MaxResults,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.Timeout,
	}, logger)
	if err != nil {
		return nil
	}
	return c
}

// Search runs one German, general-category query restricted to the last
// year. max <= 0 uses the configured maximum.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Hit, error) {
	if max <= 0 {
		max = c.max
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", "general")
	q.Set("language", "de")
	q.Set("time_range", "year")

	raw, _, err := getJSON(ctx, c.http, c.base+"/search?"+q.Encode(), c.logger)
	if err != nil {
		c.logger.Warn("research.search.failed", "query", query, "error", err)
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	var body struct {
		Results []Hit `json:"results"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	if len(body.Results) > max {
		body.Results = body.Results[:max]
	}
	c.logger.Info("research.search.ok", "query", query, "hits", len(body.Results))
	return body.Results, nil
}
