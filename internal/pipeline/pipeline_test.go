package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/store"
	"github.com/joseph-ayodele/docintel/internal/tasks"
)

type fakeExtractor struct {
	mu    sync.Mutex
	texts map[string]string
	calls []string
}

func (f *fakeExtractor) Acquire(_ context.Context, doc acquire.Document) acquire.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, doc.Name)
	text, ok := f.texts[doc.Name]
	if !ok {
		text = "Vertrag über 10 Stück"
	}
	return acquire.Result{Text: text, Method: acquire.MethodPDFText, Pages: 1}
}

func docs(names ...string) []acquire.Document {
	out := make([]acquire.Document, len(names))
	for i, n := range names {
		out[i] = acquire.Document{Name: n, Data: []byte("%PDF")}
	}
	return out
}

func okAnalyze(_ context.Context, name, _ string) tasks.Result {
	return tasks.Result{Task: constants.TaskProducts, Data: map[string]any{"client_name": name}}
}

func TestRunMixedBatch(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"scan.pdf":  constants.OCRNoTextMarker,
		"blank.pdf": "   ",
	}}
	p := NewProcessor(ex, nil)
	b := NewBatch(constants.TaskProducts)

	var analyzed []string
	analyze := func(ctx context.Context, name, text string) tasks.Result {
		analyzed = append(analyzed, name)
		if name == "bad.pdf" {
			return tasks.Result{Err: errors.New("llm call: boom"), Data: map[string]any{"error": "Error running products: boom"}}
		}
		return okAnalyze(ctx, name, text)
	}
	require.NoError(t, p.Run(context.Background(), b, docs("a.pdf", "scan.pdf", "bad.pdf", "blank.pdf"), analyze))

	assert.Equal(t, []string{"a.pdf", "bad.pdf"}, analyzed)
	require.Len(t, b.Results, 4)

	a, scan, bad, blank := b.Results[0], b.Results[1], b.Results[2], b.Results[3]
	assert.Equal(t, constants.StateNormalized, a.State)
	assert.Equal(t, []constants.DocumentState{
		constants.StateUploaded, constants.StateTextExtracted, constants.StateAIExtracted, constants.StateNormalized,
	}, a.History)
	assert.Equal(t, "a.pdf", a.Data["client_name"])

	assert.Equal(t, constants.StateExtractionFailed, scan.State)
	assert.Equal(t, constants.OCRNoTextMarker, scan.Error)
	assert.Nil(t, scan.Data)

	assert.Equal(t, constants.StateValidationFailed, bad.State)
	assert.Equal(t, "llm call: boom", bad.Error)
	assert.NotEmpty(t, bad.Data["error"])

	assert.Equal(t, constants.StateExtractionFailed, blank.State)
	assert.Equal(t, tasks.ErrNoText.Error(), blank.Error)

	assert.Equal(t, 4, b.Summary.Total)
	assert.Equal(t, 1, b.Summary.Succeeded)
	assert.Equal(t, 3, b.Summary.Failed)
	assert.Equal(t, 2, b.Summary.ByState[constants.StateExtractionFailed])

	files := b.FileResults()
	require.Len(t, files, 4)
	assert.True(t, files[0].Success)
	assert.False(t, files[1].Success)
	assert.Equal(t, constants.OCRNoTextMarker, files[1].Error)
}

func TestRunChecksLLMOnce(t *testing.T) {
	ex := &fakeExtractor{}
	checks := 0
	p := NewProcessor(ex, nil, WithLLMCheck(func() error {
		checks++
		return common.NewAppError(common.CodeLLMNotConfigured, "llm.api_key is required", common.ErrNotConfigured)
	}))
	b := NewBatch(constants.TaskInvoice)
	err := p.Run(context.Background(), b, docs("a.pdf", "b.pdf"), okAnalyze)

	require.Error(t, err)
	assert.Equal(t, common.CodeLLMNotConfigured, common.CodeOf(err))
	assert.Equal(t, 1, checks)
	assert.Empty(t, ex.calls)
	assert.Empty(t, b.Results)
}

func TestRunBoundedConcurrency(t *testing.T) {
	ex := &fakeExtractor{}
	p := NewProcessor(ex, nil, WithConcurrency(3))
	b := NewBatch(constants.TaskProducts)

	var inFlight, peak atomic.Int32
	analyze := func(ctx context.Context, name, text string) tasks.Result {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return okAnalyze(ctx, name, text)
	}
	require.NoError(t, p.Run(context.Background(), b, docs("1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf", "7.pdf"), analyze))

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, 7, b.Summary.Succeeded)
	for _, r := range b.Results {
		assert.True(t, r.State.Terminal())
	}
}

func TestRunCancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProcessor(&fakeExtractor{}, nil)
	b := NewBatch(constants.TaskProducts)

	analyze := func(c context.Context, name, text string) tasks.Result {
		cancel()
		return okAnalyze(c, name, text)
	}
	err := p.Run(ctx, b, docs("a.pdf", "b.pdf", "c.pdf"), analyze)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))

	assert.Equal(t, constants.StateNormalized, b.Results[0].State)
	for _, r := range b.Results[1:] {
		assert.Equal(t, constants.StateExtractionFailed, r.State)
		assert.Contains(t, r.Error, "skipped")
	}
	assert.Equal(t, 3, b.Summary.Total)
}

func TestRunWritesLedgerAndMetrics(t *testing.T) {
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	m := metrics.New()

	ex := &fakeExtractor{texts: map[string]string{"b.pdf": ""}}
	p := NewProcessor(ex, nil, WithLedger(db.Ledger()), WithRecorder(m))
	b := NewBatch(constants.TaskContractAnalysis)
	require.NoError(t, p.Run(context.Background(), b, docs("a.pdf", "b.pdf"), okAnalyze))
	assert.Equal(t, 1, p.MarkExported(context.Background(), b))

	s, err := db.Ledger().BatchSummary(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Documents)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.States[constants.StateExported])
	assert.Equal(t, 1, s.States[constants.StateExtractionFailed])

	h, err := db.Ledger().History(context.Background(), b.ID, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, b.Results[0].History, h)
	assert.Equal(t, constants.StateExported, b.Results[0].State)
	assert.Equal(t, 1, b.Summary.ByState[constants.StateExported])
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to constants.DocumentState
		ok       bool
	}{
		{constants.StateUploaded, constants.StateTextExtracted, true},
		{constants.StateTextExtracted, constants.StateExtractionFailed, true},
		{constants.StateAIExtracted, constants.StateValidationFailed, true},
		{constants.StateNormalized, constants.StateExported, true},
		{constants.StateUploaded, constants.StateNormalized, false},
		{constants.StateExtractionFailed, constants.StateAIExtracted, false},
		{constants.StateValidationFailed, constants.StateExported, false},
		{constants.StateExported, constants.StateNormalized, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	d := newDocumentResult("x.pdf")
	assert.Error(t, d.transition(constants.StateNormalized))
	assert.Equal(t, constants.StateUploaded, d.State)
}

func TestQueueProcessesAndDrains(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewQueue(func(ctx context.Context, job Job) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		mu.Lock()
		seen = append(seen, job.Path)
		mu.Unlock()
		if job.Path == "bad.pdf" {
			return errors.New("boom")
		}
		return nil
	}, nil, WithWorkers(2), WithQueueSize(1), WithJobTimeout(time.Minute))

	for _, p := range []string{"a.pdf", "bad.pdf", "c.pdf", "d.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.ElementsMatch(t, []string{"a.pdf", "bad.pdf", "c.pdf", "d.pdf"}, seen)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "late.pdf"}), ErrQueueClosed)
	q.Shutdown(ctx)
}
