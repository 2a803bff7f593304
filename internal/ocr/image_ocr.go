package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// TesseractConfig configures the primary OCR engine.
type TesseractConfig struct {
	Binary        string // if empty -> "tesseract"
	Lang          string // default "deu+eng"
	TessdataDir   string
	PSM           int // e.g., 6 is good for uniform block of text
	OEM           int // 1 = LSTM; leave 0 to use default
	TSVConfidence bool
}

// TesseractEngine is the lightweight default engine.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg TesseractConfig, runner Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "deu+eng"
	}
	return &TesseractEngine{cfg: cfg, runner: runner, logger: logger}
}

func (t *TesseractEngine) Name() string { return "tesseract" }

func (t *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.args(imagePath)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %s", stderrOr(errb, err))
	}
	txt := reBoxNoise.ReplaceAllString(string(out), "")

	if t.cfg.TSVConfidence {
		if conf, err := t.confidence(ctx, imagePath); err != nil {
			t.logger.Warn("ocr.tesseract.confidence_failed", "image", imagePath, "error", err)
		} else {
			t.logger.Debug("ocr.tesseract.confidence", "image", imagePath, "confidence", conf)
		}
	}
	return txt, nil
}

func (t *TesseractEngine) args(imagePath string, extra ...string) []string {
	args := []string{imagePath, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return append(args, extra...)
}

// confidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (t *TesseractEngine) confidence(ctx context.Context, imagePath string) (float64, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.args(imagePath, "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %s", stderrOr(errb, err))
	}
	return meanTSVConfidence(string(out)), nil
}
