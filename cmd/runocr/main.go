package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file.pdf|file.docx|file.doc>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.Load(os.Getenv("DOCINTEL_CONFIG"))
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	doc, err := acquire.FromFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	runner := ocr.NewExecRunner(logger)
	engine := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Binary:        cfg.OCR.Tesseract,
		Lang:          cfg.OCR.Language,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		TSVConfidence: cfg.OCR.TSVConfidence,
	}, runner, logger)
	a := acquire.New(acquire.Config{
		DPI:      cfg.OCR.DPI,
		MaxPages: cfg.OCR.MaxPages,
		Antiword: cfg.OCR.Antiword,
	}, ocr.PDFTools{Runner: runner, Pdftotext: cfg.OCR.Pdftotext, Pdftoppm: cfg.OCR.Pdftoppm, Logger: logger}, engine, logger)

	res := a.Acquire(ctx, doc)
	info := acquire.LengthInfo(res.Text)
	logger.Info("text extraction done",
		"file", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"chars", info.Chars,
		"short", info.IsShort,
		"recommended_truncate", info.RecommendedTruncate,
		"warnings", res.Warnings,
		"duration_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(res.Text)
}
