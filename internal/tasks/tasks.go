// Package tasks runs the LLM extraction tasks. Every task returns a complete,
// schema-shaped object; failures are carried inside the result instead of
// being returned as errors.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/research"
	"github.com/joseph-ayodele/docintel/internal/schema"
)

// ErrNoText is reported when a task is given no readable text.
var ErrNoText = errors.New("no readable text")

// Searcher is the web search used by the market research task.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]research.Hit, error)
}

// Result is the outcome of one task. Data is always complete for the task
// schema; when Err is set it is the fallback object carrying the error.
type Result struct {
	Task     constants.TaskKind
	Data     map[string]any
	Err      error
	Raw      string
	Warnings []string
	Elapsed  time.Duration
}

// Failed reports whether the task fell back.
func (r Result) Failed() bool { return r.Err != nil }

// Document is a named text handed to multi-document tasks.
type Document struct {
	Name string
	Text string
}

// Runner executes tasks against one LLM client.
type Runner struct {
	llm    llm.Completer
	limits common.PromptConfig
	search Searcher
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSearcher enables web research for the market task.
func WithSearcher(s Searcher) Option {
	return func(r *Runner) { r.search = s }
}

// New returns a Runner. Zero truncation limits fall back to the package defaults.
func New(c llm.Completer, limits common.PromptConfig, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{llm: c, limits: withDefaultLimits(limits), logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func withDefaultLimits(l common.PromptConfig) common.PromptConfig {
	def := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&l.Floor, constants.TruncateFloor)
	def(&l.ContractTruncate, constants.RecommendedTruncate)
	def(&l.ProductsTruncate, constants.DefaultProductsTruncate)
	def(&l.InvoiceTruncate, constants.DefaultInvoiceTruncate)
	def(&l.TenderTruncate, constants.DefaultTenderTruncate)
	def(&l.SpecTruncate, constants.DefaultSpecTruncate)
	def(&l.CertTruncate, constants.DefaultCertTruncate)
	def(&l.ComparisonPerDoc, constants.ComparisonPerDocLimit)
	def(&l.CooperationPerDoc, constants.CooperationPerDocLimit)
	return l
}

// run sends one prompt and turns the reply into a normalized object.
func (r *Runner) run(ctx context.Context, task constants.TaskKind, s *schema.Schema, req llm.Request) Result {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, r.logger).With("task", string(task))

	res := Result{Task: task}
	raw, err := r.llm.Complete(ctx, req)
	res.Raw = raw
	if err != nil {
		return r.fail(logger, res, s, fmt.Errorf("llm call: %w", err), start)
	}
	obj, err := llm.ParseObject(raw)
	if err != nil {
		return r.fail(logger, res, s, err, start)
	}
	res.Data = schema.Normalize(obj, s)
	if err := schema.Validate(s, res.Data); err != nil {
		logger.Warn("task.schema_mismatch", "error", err)
		res.Warnings = append(res.Warnings, err.Error())
	}
	res.Elapsed = time.Since(start)
	logger.Info("task.done", "elapsed_ms", res.Elapsed.Milliseconds(), "raw_bytes", len(raw))
	return res
}

func (r *Runner) fail(logger *slog.Logger, res Result, s *schema.Schema, err error, start time.Time) Result {
	res.Err = err
	res.Data = schema.Fallback(s, fmt.Sprintf("Error running %s: %v", s.Name, err))
	res.Elapsed = time.Since(start)
	logger.Warn("task.failed", "error", err, "elapsed_ms", res.Elapsed.Milliseconds())
	return res
}

// noText short-circuits tasks given unreadable input.
func noText(task constants.TaskKind, s *schema.Schema, text string) (Result, bool) {
	if constants.HasReadableText(text) {
		return Result{}, false
	}
	err := ErrNoText
	if constants.IsAcquisitionError(text) {
		err = fmt.Errorf("%w: %s", ErrNoText, text)
	}
	return Result{Task: task, Err: err, Data: schema.Fallback(s, err.Error())}, true
}
