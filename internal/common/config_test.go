package common

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "SEARXNG_URL", "TESSDATA_PREFIX",
		"DOCINTEL_LLM_API_KEY", "DOCINTEL_LLM_ENDPOINT", "DOCINTEL_LLM_PROVIDER",
	} {
		t.Setenv(k, "")
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "azure", cfg.LLM.Provider)
	assert.Equal(t, "o4-mini", cfg.LLM.Model)
	assert.Equal(t, "2024-12-01-preview", cfg.LLM.APIVersion)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Second, cfg.LLM.LightTimeout)
	assert.Equal(t, 2, cfg.LLM.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.Backoff)
	assert.Equal(t, "deu+eng", cfg.OCR.Language)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 3000, cfg.Prompt.Floor)
	assert.Equal(t, 8000, cfg.Prompt.ComparisonPerDoc)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.Equal(t, 10, cfg.Research.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.Research.Timeout)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.True(t, cfg.Store.Enabled)
	assert.Empty(t, cfg.LLM.APIKey)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	clearProviderEnv(t)
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: text
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 45s
batch:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docintel.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 300, cfg.OCR.DPI)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	clearProviderEnv(t)
	chdirTemp(t)

	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
}

func TestLoadWellKnownEnv(t *testing.T) {
	clearProviderEnv(t)
	chdirTemp(t)
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("SEARXNG_URL", "http://localhost:8888")
	t.Setenv("DOCINTEL_BATCH_CONCURRENCY", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "az-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://example.openai.azure.com", cfg.LLM.Endpoint)
	assert.Equal(t, "http://localhost:8888", cfg.Research.SearxngURL)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	require.NoError(t, cfg.ValidateLLM())
}

func TestValidateRejectsBadValues(t *testing.T) {
	clearProviderEnv(t)
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	cfg.LLM.Provider = "mistral"
	cfg.Batch.Concurrency = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "batch.concurrency")
}

func TestValidateLLM(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LLMConfig
		wantErr bool
	}{
		{"azure complete", LLMConfig{Provider: "azure", APIKey: "k", Model: "o4-mini", Endpoint: "https://x.openai.azure.com", APIVersion: "v"}, false},
		{"azure missing endpoint", LLMConfig{Provider: "azure", APIKey: "k", Model: "o4-mini", APIVersion: "v"}, true},
		{"azure bad endpoint", LLMConfig{Provider: "azure", APIKey: "k", Model: "o4-mini", Endpoint: "not a url", APIVersion: "v"}, true},
		{"missing key", LLMConfig{Provider: "openai", Model: "gpt-4o"}, true},
		{"anthropic", LLMConfig{Provider: "anthropic", APIKey: "k", Model: "claude-haiku-4-5"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LLM: tt.cfg}
			err := cfg.ValidateLLM()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNotConfigured))
				assert.Equal(t, CodeLLMNotConfigured, CodeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithBatchID(WithRequestID(t.Context(), "r1"), "b1")
	assert.Equal(t, "r1", RequestIDFromContext(ctx))
	assert.Equal(t, "b1", BatchIDFromContext(ctx))
	assert.NotNil(t, LoggerFromContext(ctx, nil))

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	LoggerFromContext(ctx, base).Info("probe")
	assert.Contains(t, buf.String(), `"batch_id":"b1"`)
	assert.Contains(t, buf.String(), `"req_id":"r1"`)

	buf.Reset()
	other := slog.New(slog.NewJSONHandler(&buf, nil)).With("from", "ctx")
	LoggerFromContext(WithLogger(ctx, other), base).Info("probe")
	assert.Contains(t, buf.String(), `"from":"ctx"`)
}
