package llm

import (
	"context"

	"github.com/joseph-ayodele/docintel/internal/common"
)

// ErrNotConfigured is returned when the provider has no usable credentials.
var ErrNotConfigured = common.ErrNotConfigured

// Request is one prompt/response exchange. Light marks short validation
// calls that run under the shorter timeout.
type Request struct {
	System string
	Prompt string
	Light  bool
}

// Completer is the opaque LLM capability: given a prompt it returns free
// text that should contain JSON.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// VisionCompleter is implemented by providers that accept page images.
type VisionCompleter interface {
	CompleteImage(ctx context.Context, prompt string, png []byte) (string, error)
}
