package openai

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go/v3/option"
)

// Config for the OpenAI / Azure OpenAI provider.
type Config struct {
	APIKey      string
	Endpoint    string // Azure resource endpoint or an OpenAI-compatible base URL
	Model       string // model, or deployment name on Azure
	VisionModel string // defaults to Model
	APIVersion  string // Azure only
	Azure       bool   // forced Azure mode; also inferred from the endpoint host
	Temperature float64
	HTTPClient  *http.Client
}

// IsAzure reports whether requests go to an Azure OpenAI deployment.
func (c Config) IsAzure() bool {
	if c.Azure {
		return true
	}
	return strings.Contains(c.Endpoint, "openai.azure.com") || strings.Contains(c.Endpoint, "cognitiveservices.azure.com")
}

// Options builds the request options for one model (deployment on Azure).
func (c Config) Options(model string) []option.RequestOption {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	if c.IsAzure() {
		base := strings.TrimRight(c.Endpoint, "/") + "/openai/deployments/" + url.PathEscape(model) + "/"
		return []option.RequestOption{
			option.WithBaseURL(base),
			option.WithHTTPClient(client),
			option.WithQueryAdd("api-version", c.APIVersion),
			option.WithHeader("Api-Key", c.APIKey),
		}
	}

	base := c.Endpoint
	if base == "" {
		base = "https://api.openai.com/v1/"
	}
	return []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(base, "/") + "/"),
		option.WithHTTPClient(client),
		option.WithAPIKey(c.APIKey),
	}
}
