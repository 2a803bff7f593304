package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Store    StoreConfig    `mapstructure:"store"`
	Research ResearchConfig `mapstructure:"research"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Output   OutputConfig   `mapstructure:"output"`
}

// LogConfig controls the root slog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

// LLMConfig holds LLM endpoint configuration.
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // azure | openai | anthropic
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	Model             string        `mapstructure:"model"` // deployment name for azure
	VisionModel       string        `mapstructure:"vision_model"`
	APIVersion        string        `mapstructure:"api_version"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int64         `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	LightTimeout      time.Duration `mapstructure:"light_timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	Backoff           time.Duration `mapstructure:"backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// OCRConfig holds text-acquisition configuration.
type OCRConfig struct {
	Pdftotext     string `mapstructure:"pdftotext"`
	Pdftoppm      string `mapstructure:"pdftoppm"`
	Tesseract     string `mapstructure:"tesseract"`
	Antiword      string `mapstructure:"antiword"`
	Language      string `mapstructure:"language"`
	DPI           int    `mapstructure:"dpi"`
	MaxPages      int    `mapstructure:"max_pages"`
	TessdataDir   string `mapstructure:"tessdata_dir"`
	PSM           int    `mapstructure:"psm"`
	OEM           int    `mapstructure:"oem"`
	TSVConfidence bool   `mapstructure:"tsv_confidence"`
	Vision        bool   `mapstructure:"vision"` // secondary high-accuracy engine
}

// PromptConfig holds per-task truncation caps in characters.
type PromptConfig struct {
	Floor             int `mapstructure:"floor"`
	ContractTruncate  int `mapstructure:"contract_truncate"` // 0 = recommended
	ProductsTruncate  int `mapstructure:"products_truncate"`
	InvoiceTruncate   int `mapstructure:"invoice_truncate"`
	TenderTruncate    int `mapstructure:"tender_truncate"`
	SpecTruncate      int `mapstructure:"spec_truncate"`
	CertTruncate      int `mapstructure:"cert_truncate"`
	ComparisonPerDoc  int `mapstructure:"comparison_per_doc"`
	CooperationPerDoc int `mapstructure:"cooperation_per_doc"`
}

// BatchConfig controls per-batch processing.
type BatchConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
	QueueSize       int           `mapstructure:"queue_size"`
}

// StoreConfig configures the process-lifetime run ledger and text cache.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ResearchConfig configures SearXNG market research.
type ResearchConfig struct {
	SearxngURL        string        `mapstructure:"searxng_url"`
	MaxResults        int           `mapstructure:"max_results"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// OutputConfig configures where exports are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from an optional YAML file, DOCINTEL_* environment
// variables and the well-known provider variables. An empty path searches the
// working directory for docintel.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("docintel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DOCINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	bindings := map[string][]string{
		"llm.api_key":          {"DOCINTEL_LLM_API_KEY", "AZURE_OPENAI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"},
		"llm.endpoint":         {"DOCINTEL_LLM_ENDPOINT", "AZURE_OPENAI_ENDPOINT"},
		"ocr.tessdata_dir":     {"DOCINTEL_OCR_TESSDATA_DIR", "TESSDATA_PREFIX"},
		"research.searxng_url": {"DOCINTEL_RESEARCH_SEARXNG_URL", "SEARXNG_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "unmarshal config", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("llm.provider", "azure")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "o4-mini")
	v.SetDefault("llm.vision_model", "")
	v.SetDefault("llm.api_version", "2024-12-01-preview")
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.light_timeout", 30*time.Second)
	v.SetDefault("llm.max_attempts", 2)
	v.SetDefault("llm.backoff", 500*time.Millisecond)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.antiword", "antiword")
	v.SetDefault("ocr.language", "deu+eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.oem", 0)
	v.SetDefault("ocr.tsv_confidence", false)
	v.SetDefault("ocr.vision", false)

	v.SetDefault("prompt.floor", 3000)
	v.SetDefault("prompt.contract_truncate", 0)
	v.SetDefault("prompt.products_truncate", 15000)
	v.SetDefault("prompt.invoice_truncate", 15000)
	v.SetDefault("prompt.tender_truncate", 20000)
	v.SetDefault("prompt.spec_truncate", 20000)
	v.SetDefault("prompt.cert_truncate", 12000)
	v.SetDefault("prompt.comparison_per_doc", 8000)
	v.SetDefault("prompt.cooperation_per_doc", 12000)

	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.document_timeout", 5*time.Minute)
	v.SetDefault("batch.queue_size", 64)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.dsn", "file:docintel?mode=memory&cache=shared")

	v.SetDefault("research.searxng_url", "")
	v.SetDefault("research.max_results", 10)
	v.SetDefault("research.requests_per_second", 1.0)
	v.SetDefault("research.timeout", 30*time.Second)

	v.SetDefault("metrics.textfile", "")
	v.SetDefault("output.dir", "results")
}

// Validate checks structural settings that every command depends on.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	v.Field("log.format", c.Log.Format, OneOf("json", "text"))
	v.Field("llm.provider", c.LLM.Provider, OneOf("azure", "openai", "anthropic"))
	v.Field("llm.max_attempts", c.LLM.MaxAttempts, Positive)
	v.Field("ocr.dpi", c.OCR.DPI, Positive)
	v.Field("batch.concurrency", c.Batch.Concurrency, Positive)
	v.Field("prompt.floor", c.Prompt.Floor, NonNegative)
	v.Field("output.dir", c.Output.Dir, Required)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// ValidateLLM is the one-time check run before a batch starts; a batch never
// attempts per-document LLM calls without credentials.
func (c *Config) ValidateLLM() error {
	v := NewValidator()
	v.Field("llm.api_key", c.LLM.APIKey, Required)
	v.Field("llm.model", c.LLM.Model, Required)
	if c.LLM.Provider == "azure" {
		v.Field("llm.endpoint", c.LLM.Endpoint, Required, URL)
		v.Field("llm.api_version", c.LLM.APIVersion, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeLLMNotConfigured, v.ErrorMessage(), ErrNotConfigured)
	}
	return nil
}
