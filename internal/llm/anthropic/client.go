package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/docintel/internal/llm"
)

// Config for the Anthropic provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Client implements llm.Completer with the Messages API.
type Client struct {
	cfg    Config
	client sdk.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, llm.ErrNotConfigured
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{cfg: cfg, client: sdk.NewClient(opts...), logger: logger}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = sdk.Float(min(c.cfg.Temperature, 1))
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic: no text content in response")
	}
	c.logger.Debug("llm.anthropic.ok",
		"model", c.cfg.Model,
		"stop_reason", string(msg.StopReason),
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(b.String()), nil
}
