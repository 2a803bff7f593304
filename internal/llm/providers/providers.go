// Package providers builds the configured LLM provider.
package providers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/llm/anthropic"
	"github.com/joseph-ayodele/docintel/internal/llm/openai"
)

// New returns a constructor for llm.NewClient, so the provider itself is only
// built on the first call.
func New(cfg common.LLMConfig, logger *slog.Logger) func() (llm.Completer, error) {
	return func() (llm.Completer, error) {
		switch strings.ToLower(cfg.Provider) {
		case "azure", "openai", "":
			c, err := openai.NewClient(openai.Config{
				APIKey:      cfg.APIKey,
				Endpoint:    cfg.Endpoint,
				Model:       cfg.Model,
				VisionModel: cfg.VisionModel,
				APIVersion:  cfg.APIVersion,
				Azure:       strings.EqualFold(cfg.Provider, "azure"),
				Temperature: cfg.Temperature,
			}, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		case "anthropic":
			c, err := anthropic.NewClient(anthropic.Config{
				APIKey:      cfg.APIKey,
				BaseURL:     cfg.Endpoint,
				Model:       cfg.Model,
				MaxTokens:   cfg.MaxTokens,
				Temperature: cfg.Temperature,
			}, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewClient wires the configured provider into an llm.Client.
func NewClient(cfg common.LLMConfig, logger *slog.Logger, opts ...llm.ClientOption) *llm.Client {
	return llm.NewClient(llm.ClientConfig{
		Timeout:           cfg.Timeout,
		LightTimeout:      cfg.LightTimeout,
		MaxAttempts:       cfg.MaxAttempts,
		Backoff:           cfg.Backoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, New(cfg, logger), logger, opts...)
}
