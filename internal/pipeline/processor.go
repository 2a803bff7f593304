package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/tasks"
)

// Extractor turns a document into text. It never fails.
type Extractor interface {
	Acquire(ctx context.Context, doc acquire.Document) acquire.Result
}

// Analyze runs the batch task on one document's readable text.
type Analyze func(ctx context.Context, name, text string) tasks.Result

// Ledger persists batches and transitions.
type Ledger interface {
	StartBatch(ctx context.Context, id, task string, documents int) error
	RecordState(ctx context.Context, batchID, file string, state constants.DocumentState, detail string) error
	FinishBatch(ctx context.Context, id string, succeeded, failed int) error
}

// Recorder receives batch metrics.
type Recorder interface {
	ObserveTransition(state constants.DocumentState)
	ObserveDocument(task string, state constants.DocumentState, elapsed time.Duration)
	ObserveBatch(task string)
	DocumentStarted()
	DocumentFinished()
}

// Processor coordinates text acquisition then the LLM task for every document of a batch.
type Processor struct {
	extractor   Extractor
	check       func() error
	ledger      Ledger
	recorder    Recorder
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

type Option func(*Processor)

// WithLLMCheck sets the configuration check run once before every batch.
func WithLLMCheck(check func() error) Option { return func(p *Processor) { p.check = check } }

func WithLedger(l Ledger) Option { return func(p *Processor) { p.ledger = l } }

func WithRecorder(r Recorder) Option { return func(p *Processor) { p.recorder = r } }

func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithDocumentTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewProcessor(extractor Extractor, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{extractor: extractor, concurrency: 1, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes docs into b. A failing document never aborts the batch; the
// only returned errors are the up-front LLM check and context cancellation,
// in which case documents not yet started are recorded as failed.
func (p *Processor) Run(ctx context.Context, b *Batch, docs []acquire.Document, analyze Analyze) error {
	if p.check != nil {
		if err := p.check(); err != nil {
			p.logger.Error("batch.llm_not_configured", "batch_id", b.ID, "error", err)
			return err
		}
	}
	ctx = common.WithBatchID(ctx, b.ID)
	logger := common.LoggerFromContext(ctx, p.logger)
	logger.Info("batch.start", "task", string(b.Task), "documents", len(docs), "concurrency", p.concurrency)

	if p.ledger != nil {
		if err := p.ledger.StartBatch(ctx, b.ID, string(b.Task), len(docs)); err != nil {
			logger.Warn("batch.ledger.start_failed", "error", err)
		}
	}

	b.Results = make([]*DocumentResult, len(docs))
	for i, doc := range docs {
		b.Results[i] = newDocumentResult(doc.Name)
		p.record(ctx, b, b.Results[i], "")
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, doc := range docs {
		res := b.Results[i]
		g.Go(func() error {
			p.process(ctx, b, res, doc, analyze)
			return nil
		})
	}
	_ = g.Wait()

	b.summarize()
	if p.ledger != nil {
		if err := p.ledger.FinishBatch(context.WithoutCancel(ctx), b.ID, b.Summary.Succeeded, b.Summary.Failed); err != nil {
			logger.Warn("batch.ledger.finish_failed", "error", err)
		}
	}
	if p.recorder != nil {
		p.recorder.ObserveBatch(string(b.Task))
	}
	logger.Info("batch.done",
		"succeeded", b.Summary.Succeeded,
		"failed", b.Summary.Failed,
		"elapsed_ms", b.Summary.Elapsed.Milliseconds(),
	)
	return ctx.Err()
}

func (p *Processor) process(ctx context.Context, b *Batch, res *DocumentResult, doc acquire.Document, analyze Analyze) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, p.logger).With("file", doc.Name)
	defer func() {
		res.Elapsed = time.Since(start)
		if p.recorder != nil {
			p.recorder.ObserveDocument(string(b.Task), res.State, res.Elapsed)
		}
		logger.Info("batch.document.done", "state", string(res.State), "elapsed_ms", res.Elapsed.Milliseconds())
	}()

	if err := ctx.Err(); err != nil {
		p.fail(ctx, b, res, constants.StateExtractionFailed, "skipped: "+err.Error())
		return
	}
	if p.recorder != nil {
		p.recorder.DocumentStarted()
		defer p.recorder.DocumentFinished()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ar := p.extractor.Acquire(ctx, doc)
	res.Text, res.Method, res.Pages, res.Hash, res.Warnings = ar.Text, ar.Method, ar.Pages, ar.Hash, ar.Warnings
	p.advance(ctx, b, res, constants.StateTextExtracted, ar.Method)
	if !constants.HasReadableText(ar.Text) {
		reason := tasks.ErrNoText.Error()
		if constants.IsAcquisitionError(ar.Text) {
			reason = ar.Text
		}
		p.fail(ctx, b, res, constants.StateExtractionFailed, reason)
		return
	}

	tr := analyze(ctx, doc.Name, ar.Text)
	res.Data = tr.Data
	res.Warnings = append(res.Warnings, tr.Warnings...)
	p.advance(ctx, b, res, constants.StateAIExtracted, "")
	if tr.Failed() {
		p.fail(ctx, b, res, constants.StateValidationFailed, tr.Err.Error())
		return
	}
	p.advance(ctx, b, res, constants.StateNormalized, "")
}

func (p *Processor) fail(ctx context.Context, b *Batch, res *DocumentResult, state constants.DocumentState, reason string) {
	res.Error = reason
	p.advance(ctx, b, res, state, reason)
}

func (p *Processor) advance(ctx context.Context, b *Batch, res *DocumentResult, to constants.DocumentState, detail string) {
	if err := res.transition(to); err != nil {
		common.LoggerFromContext(ctx, p.logger).Error("batch.document.bad_transition", "error", err)
		return
	}
	p.record(ctx, b, res, detail)
}

func (p *Processor) record(ctx context.Context, b *Batch, res *DocumentResult, detail string) {
	logger := common.LoggerFromContext(ctx, p.logger)
	logger.Debug("batch.document.state", "file", res.FileName, "state", string(res.State))
	if p.recorder != nil {
		p.recorder.ObserveTransition(res.State)
	}
	if p.ledger == nil {
		return
	}
	// the ledger outlives a cancelled batch context
	if err := p.ledger.RecordState(context.WithoutCancel(ctx), b.ID, res.FileName, res.State, detail); err != nil {
		logger.Warn("batch.ledger.record_failed", "file", res.FileName, "error", err)
	}
}

// MarkExported moves every normalized document to Exported. Call it only
// after the export succeeded.
func (p *Processor) MarkExported(ctx context.Context, b *Batch) int {
	ctx = common.WithBatchID(ctx, b.ID)
	n := 0
	for _, r := range b.Results {
		if r.State != constants.StateNormalized {
			continue
		}
		p.advance(ctx, b, r, constants.StateExported, "")
		n++
	}
	b.summarize()
	return n
}

// IsCancelled reports whether err came from batch cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
