package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/ingest"
	"github.com/joseph-ayodele/docintel/internal/pipeline"
	"github.com/joseph-ayodele/docintel/internal/tasks"
)

var (
	watchTask     string
	watchDebounce time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Watch inbox directories and process every new document as its own batch",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()

		task, analyze, err := watchAnalyze(a, watchTask)
		if err != nil {
			return err
		}
		handle := func(ctx context.Context, job pipeline.Job) error {
			ctx = common.WithRequestID(ctx, job.TraceID)
			doc, err := acquire.FromFile(job.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", job.Path, err)
			}
			b := pipeline.NewBatch(task)
			if err := a.processor.Run(ctx, b, []acquire.Document{doc}, analyze); err != nil {
				return err
			}
			prefix := strings.TrimSuffix(filepath.Base(job.Path), filepath.Ext(job.Path)) + "_" + string(task)
			if _, err := a.exporter.JSON(prefix, resultsJSON(b)); err != nil {
				return err
			}
			a.processor.MarkExported(ctx, b)
			return nil
		}

		q := pipeline.NewQueue(handle, logger,
			pipeline.WithWorkers(cfg.Batch.Concurrency),
			pipeline.WithQueueSize(cfg.Batch.QueueSize),
			pipeline.WithJobTimeout(cfg.Batch.DocumentTimeout),
		)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			q.Shutdown(ctx)
		}()

		events, errs, err := ingest.Watch(cmd.Context(), ingest.WatchConfig{
			Roots:       args,
			InitialScan: watchExisting,
			SkipHidden:  true,
			Debounce:    watchDebounce,
			Logger:      logger,
		})
		if err != nil {
			return common.NewAppError(common.CodeInputInvalid, "watch", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s for %s documents\n", strings.Join(args, ", "), task)

		for {
			select {
			case path, ok := <-events:
				if !ok {
					return nil
				}
				if err := q.Enqueue(cmd.Context(), pipeline.Job{Path: path, TraceID: uuid.NewString()}); err != nil {
					logger.Warn("watch.enqueue_failed", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if ok {
					logger.Warn("watch.error", "error", err)
				}
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}

func watchAnalyze(a *app, name string) (constants.TaskKind, pipeline.Analyze, error) {
	switch name {
	case "products":
		return constants.TaskProducts, func(ctx context.Context, _ string, text string) tasks.Result {
			return a.tasks.ExtractClientAndProducts(ctx, text)
		}, nil
	case "analyze":
		return constants.TaskContractAnalysis, func(ctx context.Context, _ string, text string) tasks.Result {
			return a.tasks.AnalyzeContract(ctx, text, acquire.LengthInfo(text).RecommendedTruncate)
		}, nil
	case "invoices":
		return constants.TaskInvoice, func(ctx context.Context, _ string, text string) tasks.Result {
			return a.tasks.ExtractInvoice(ctx, text)
		}, nil
	case "tender":
		return constants.TaskTender, func(ctx context.Context, _ string, text string) tasks.Result {
			return a.tasks.ExtractTenderFields(ctx, text, nil)
		}, nil
	}
	return "", nil, common.NewAppError(common.CodeInputInvalid, fmt.Sprintf("unknown watch task %q", name), common.ErrInvalidInput)
}

func init() {
	watchCmd.Flags().StringVar(&watchTask, "task", "products", "task per document: products|analyze|invoices|tender")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "wait for writes to settle before processing")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "process files already in the directories")
}
