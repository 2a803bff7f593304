package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// VisionPrompt is sent with every page image.
const VisionPrompt = "Convert the document to markdown."

// ImageCompleter is the slice of a vision-capable LLM client the engine needs.
type ImageCompleter interface {
	CompleteImage(ctx context.Context, prompt string, png []byte) (string, error)
}

// VisionEngine is the optional high-accuracy engine: a vision LLM transcribes
// the page to markdown, which is then flattened to text.
type VisionEngine struct {
	client ImageCompleter
	logger *slog.Logger
}

func NewVisionEngine(client ImageCompleter, logger *slog.Logger) *VisionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionEngine{client: client, logger: logger}
}

func (v *VisionEngine) Name() string { return "vision" }

func (v *VisionEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("vision: read image: %w", err)
	}
	md, err := v.client.CompleteImage(ctx, VisionPrompt, img)
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	txt := MarkdownToText([]byte(strings.TrimSpace(md)))
	v.logger.Debug("ocr.vision.done",
		"image", imagePath,
		"chars", len(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return txt, nil
}
