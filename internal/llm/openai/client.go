package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v3"

	"github.com/joseph-ayodele/docintel/internal/llm"
)

// Client implements llm.Completer and llm.VisionCompleter with chat completions.
type Client struct {
	cfg    Config
	text   oai.Client
	vision oai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, llm.ErrNotConfigured
	}
	if cfg.IsAzure() && (cfg.Endpoint == "" || cfg.APIVersion == "") {
		return nil, fmt.Errorf("azure endpoint and api version required: %w", llm.ErrNotConfigured)
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	return &Client{
		cfg:    cfg,
		text:   oai.NewClient(cfg.Options(cfg.Model)...),
		vision: oai.NewClient(cfg.Options(cfg.VisionModel)...),
		logger: logger,
	}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	var msgs []oai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, oai.SystemMessage(req.System))
	}
	msgs = append(msgs, oai.UserMessage(req.Prompt))
	return c.send(ctx, c.text, c.cfg.Model, msgs)
}

func (c *Client) CompleteImage(ctx context.Context, prompt string, png []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	parts := []oai.ChatCompletionContentPartUnionParam{
		oai.TextContentPart(prompt),
		oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}
	return c.send(ctx, c.vision, c.cfg.VisionModel, []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)})
}

func (c *Client) send(ctx context.Context, client oai.Client, model string, msgs []oai.ChatCompletionMessageParamUnion) (string, error) {
	start := time.Now()
	params := oai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = oai.Float(c.cfg.Temperature)
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			c.logger.Error("llm.openai.api_error", "model", model, "status", apiErr.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Debug("llm.openai.ok",
		"model", model,
		"finish_reason", completion.Choices[0].FinishReason,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
