package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientConfig holds the call discipline applied around a provider.
type ClientConfig struct {
	Timeout           time.Duration // full-document calls, default 120s
	LightTimeout      time.Duration // validation calls, default 30s
	MaxAttempts       int           // default 2
	Backoff           time.Duration // first retry delay, doubled per attempt; default 500ms
	RequestsPerSecond float64       // 0 = unlimited
	Burst             int
}

// Observer receives one notification per provider attempt.
type Observer interface {
	ObserveLLMCall(outcome string, elapsed time.Duration)
}

// Client wraps a provider that is built lazily on first use and then shared.
// It is safe for concurrent use.
type Client struct {
	cfg      ClientConfig
	build    func() (Completer, error)
	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger

	once     sync.Once
	provider Completer
	buildErr error
}

type ClientOption func(*Client)

func WithObserver(o Observer) ClientOption { return func(c *Client) { c.observer = o } }

func NewClient(cfg ClientConfig, build func() (Completer, error), logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.LightTimeout <= 0 {
		cfg.LightTimeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	c := &Client{
		cfg:     cfg,
		build:   build,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Provider returns the shared provider, building it on first call. A build
// error is remembered and returned on every later call.
func (c *Client) Provider() (Completer, error) {
	c.once.Do(func() {
		if c.build == nil {
			c.buildErr = ErrNotConfigured
			return
		}
		c.provider, c.buildErr = c.build()
		if c.buildErr == nil && c.provider == nil {
			c.buildErr = ErrNotConfigured
		}
		if c.buildErr != nil {
			c.logger.Error("llm.client.init_failed", "error", c.buildErr)
		}
	})
	return c.provider, c.buildErr
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	p, err := c.Provider()
	if err != nil {
		return "", err
	}
	timeout := c.cfg.Timeout
	if req.Light {
		timeout = c.cfg.LightTimeout
	}
	return c.do(ctx, "complete", timeout, func(ctx context.Context) (string, error) {
		return p.Complete(ctx, req)
	})
}

// CompleteImage sends a page image to a vision-capable provider.
func (c *Client) CompleteImage(ctx context.Context, prompt string, png []byte) (string, error) {
	p, err := c.Provider()
	if err != nil {
		return "", err
	}
	vp, ok := p.(VisionCompleter)
	if !ok {
		return "", fmt.Errorf("llm: provider %T does not accept images", p)
	}
	return c.do(ctx, "complete_image", c.cfg.Timeout, func(ctx context.Context) (string, error) {
		return vp.CompleteImage(ctx, prompt, png)
	})
}

func (c *Client) do(ctx context.Context, op string, timeout time.Duration, call func(context.Context) (string, error)) (string, error) {
	rid := uuid.New().String()
	log := c.logger.With("req_id", rid, "op", op)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.cfg.Backoff << (attempt - 2)
			log.Warn("llm.complete.retry", "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm: rate limiter: %w", err)
		}

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := call(callCtx)
		cancel()
		elapsed := time.Since(start)

		if err == nil && out == "" {
			err = errors.New("empty response")
		}
		if err == nil {
			c.observe("ok", elapsed)
			log.Debug("llm.complete.ok", "attempt", attempt, "chars", len(out), "elapsed_ms", elapsed.Milliseconds())
			return out, nil
		}

		c.observe("error", elapsed)
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, ErrNotConfigured) {
			break
		}
	}
	log.Error("llm.complete.failed", "attempts", c.cfg.MaxAttempts, "error", lastErr)
	return "", fmt.Errorf("llm %s: %w", op, lastErr)
}

func (c *Client) observe(outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveLLMCall(outcome, elapsed)
	}
}
