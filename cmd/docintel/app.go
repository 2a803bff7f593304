package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/ingest"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/llm/providers"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/ocr"
	"github.com/joseph-ayodele/docintel/internal/pipeline"
	"github.com/joseph-ayodele/docintel/internal/research"
	"github.com/joseph-ayodele/docintel/internal/store"
	"github.com/joseph-ayodele/docintel/internal/tasks"
)

// app holds everything one command invocation needs.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	llm       *llm.Client
	metrics   *metrics.Metrics
	db        *store.DB
	acquirer  *acquire.Acquirer
	tasks     *tasks.Runner
	processor *pipeline.Processor
	exporter  *export.Service
}

func newApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) *app {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	a.llm = providers.NewClient(cfg.LLM, logger, llm.WithObserver(a.metrics))

	if cfg.Store.Enabled {
		db, err := store.Open(ctx, cfg.Store.DSN, logger)
		if err != nil {
			logger.Warn("store.unavailable", "error", err)
		} else {
			a.db = db
		}
	}

	runner := ocr.NewExecRunner(logger)
	pdf := ocr.PDFTools{Runner: runner, Pdftotext: cfg.OCR.Pdftotext, Pdftoppm: cfg.OCR.Pdftoppm, Logger: logger}
	primary := ocr.Lazy("tesseract", func() (ocr.Engine, error) {
		return ocr.NewTesseractEngine(ocr.TesseractConfig{
			Binary:        cfg.OCR.Tesseract,
			Lang:          cfg.OCR.Language,
			TessdataDir:   cfg.OCR.TessdataDir,
			PSM:           cfg.OCR.PSM,
			OEM:           cfg.OCR.OEM,
			TSVConfidence: cfg.OCR.TSVConfidence,
		}, runner, logger), nil
	})
	opts := []acquire.Option{acquire.WithPageObserver(a.metrics)}
	if a.db != nil {
		opts = append(opts, acquire.WithCache(a.db.TextCache()))
	}
	if cfg.OCR.Vision {
		opts = append(opts, acquire.WithSecondary(ocr.Lazy("vision", func() (ocr.Engine, error) {
			p, err := a.llm.Provider()
			if err != nil {
				return nil, err
			}
			if _, ok := p.(llm.VisionCompleter); !ok {
				return nil, fmt.Errorf("provider %s does not accept images", cfg.LLM.Provider)
			}
			return ocr.NewVisionEngine(a.llm, logger), nil
		})))
	}
	a.acquirer = acquire.New(acquire.Config{
		DPI:      cfg.OCR.DPI,
		MaxPages: cfg.OCR.MaxPages,
		Antiword: cfg.OCR.Antiword,
	}, pdf, primary, logger, opts...)

	var taskOpts []tasks.Option
	if rc := research.FromConfig(cfg.Research, logger); rc != nil {
		taskOpts = append(taskOpts, tasks.WithSearcher(rc))
	}
	a.tasks = tasks.New(a.llm, cfg.Prompt, logger, taskOpts...)

	procOpts := []pipeline.Option{
		pipeline.WithLLMCheck(cfg.ValidateLLM),
		pipeline.WithConcurrency(cfg.Batch.Concurrency),
		pipeline.WithDocumentTimeout(cfg.Batch.DocumentTimeout),
		pipeline.WithRecorder(a.metrics),
	}
	if a.db != nil {
		procOpts = append(procOpts, pipeline.WithLedger(a.db.Ledger()))
	}
	a.processor = pipeline.NewProcessor(a.acquirer, logger, procOpts...)
	a.exporter = export.NewService(cfg.Output.Dir, logger)
	return a
}

// Close writes the metrics textfile and closes the store.
func (a *app) Close() {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("metrics.textfile_failed", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("store.close_failed", "error", err)
		}
	}
}

// loadDocuments expands directories and reads files. Unreadable files are
// kept as empty documents so they show up as failed in the batch report.
func (a *app) loadDocuments(paths []string) ([]acquire.Document, error) {
	if len(paths) == 0 {
		return nil, common.NewAppError(common.CodeInputInvalid, "no input files", common.ErrInvalidInput)
	}
	var docs []acquire.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			results, stats, err := ingest.CollectDirectory(p, nil, true)
			if err != nil {
				return nil, common.NewAppError(common.CodeInputInvalid, "read directory "+p, err)
			}
			for _, r := range results {
				if r.Duplicate {
					a.logger.Info("ingest.duplicate", "file", r.Path, "same_as", r.DuplicateOf)
				}
			}
			a.logger.Info("ingest.directory", "root", p, "matched", stats.Matched, "duplicates", stats.Duplicates, "failed", stats.Failed)
			docs = append(docs, ingest.Documents(results, true)...)
			continue
		}
		doc, err := acquire.FromFile(p)
		if err != nil {
			a.logger.Warn("ingest.file_unreadable", "file", p, "error", err)
			doc = acquire.Document{Name: filepath.Base(p)}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// texts acquires every document in order for the multi-document tasks.
func (a *app) texts(ctx context.Context, docs []acquire.Document) []tasks.Document {
	out := make([]tasks.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, tasks.Document{Name: d.Name, Text: a.acquirer.Text(ctx, d)})
	}
	return out
}

func printSummary(w io.Writer, b *pipeline.Batch) {
	fmt.Fprintf(w, "batch %s (%s): %d documents, %d succeeded, %d failed\n",
		b.ID, b.Task, b.Summary.Total, b.Summary.Succeeded, b.Summary.Failed)
	for _, r := range b.Results {
		if r.Error != "" {
			fmt.Fprintf(w, "  %-40s %-18s %s\n", r.FileName, r.State, r.Error)
		} else {
			fmt.Fprintf(w, "  %-40s %s\n", r.FileName, r.State)
		}
	}
}

func printFiles(w io.Writer, paths ...string) {
	for _, p := range paths {
		if p != "" {
			fmt.Fprintf(w, "wrote %s\n", p)
		}
	}
}
