// Package pipeline runs a batch of documents through acquisition and one
// LLM task, tracking every document through its state machine.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/export"
)

var transitions = map[constants.DocumentState][]constants.DocumentState{
	constants.StateUploaded:      {constants.StateTextExtracted, constants.StateExtractionFailed},
	constants.StateTextExtracted: {constants.StateAIExtracted, constants.StateExtractionFailed},
	constants.StateAIExtracted:   {constants.StateNormalized, constants.StateValidationFailed},
	constants.StateNormalized:    {constants.StateExported},
}

// CanTransition reports whether from -> to is a legal document transition.
func CanTransition(from, to constants.DocumentState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DocumentResult is one document's entry in a batch. Failed documents keep
// their entry and error reason.
type DocumentResult struct {
	FileName string
	State    constants.DocumentState
	History  []constants.DocumentState
	Text     string
	Method   string
	Pages    int
	Hash     string
	Warnings []string
	Data     map[string]any
	Error    string
	Elapsed  time.Duration
}

func newDocumentResult(name string) *DocumentResult {
	return &DocumentResult{
		FileName: name,
		State:    constants.StateUploaded,
		History:  []constants.DocumentState{constants.StateUploaded},
	}
}

func (d *DocumentResult) transition(to constants.DocumentState) error {
	if !CanTransition(d.State, to) {
		return fmt.Errorf("document %s: illegal transition %s -> %s", d.FileName, d.State, to)
	}
	d.State = to
	d.History = append(d.History, to)
	return nil
}

// Succeeded reports whether the document produced a normalized result.
func (d *DocumentResult) Succeeded() bool { return d.State.Succeeded() }

// Summary is computed once every document is terminal.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	ByState   map[constants.DocumentState]int
	Elapsed   time.Duration
}

// Batch is the request-scoped accumulator for one run.
type Batch struct {
	ID        string
	Task      constants.TaskKind
	CreatedAt time.Time
	Results   []*DocumentResult
	Summary   Summary
}

func NewBatch(task constants.TaskKind) *Batch {
	return &Batch{ID: uuid.NewString(), Task: task, CreatedAt: time.Now()}
}

// Succeeded returns the documents with normalized results, in input order.
func (b *Batch) Succeeded() []*DocumentResult {
	var out []*DocumentResult
	for _, r := range b.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// FileResults converts the batch for the exporters.
func (b *Batch) FileResults() []export.FileResult {
	out := make([]export.FileResult, 0, len(b.Results))
	for _, r := range b.Results {
		out = append(out, export.FileResult{
			FileName: r.FileName,
			Success:  r.Succeeded(),
			Data:     r.Data,
			Error:    r.Error,
		})
	}
	return out
}

func (b *Batch) summarize() {
	s := Summary{Total: len(b.Results), ByState: map[constants.DocumentState]int{}, Elapsed: time.Since(b.CreatedAt)}
	for _, r := range b.Results {
		s.ByState[r.State]++
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	b.Summary = s
}
