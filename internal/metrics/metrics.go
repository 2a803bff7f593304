// Package metrics provides Prometheus metrics for batch runs
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/docintel/constants"
)

// Metrics holds all Prometheus metrics for docintel on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Document metrics
	DocumentsTotal      *prometheus.CounterVec
	TransitionsTotal    *prometheus.CounterVec
	DocumentDuration    *prometheus.HistogramVec
	BatchesTotal        *prometheus.CounterVec
	DocumentsInProgress prometheus.Gauge

	// LLM metrics
	LLMCallsTotal   *prometheus.CounterVec
	LLMCallDuration prometheus.Histogram

	// OCR metrics
	OCRPagesTotal *prometheus.CounterVec
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.DocumentsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_documents_total",
			Help: "Documents by task and final state",
		},
		[]string{"task", "state"},
	)

	m.TransitionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_document_transitions_total",
			Help: "Per-document state transitions",
		},
		[]string{"state"},
	)

	m.DocumentDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docintel_document_duration_seconds",
			Help:    "Time from upload to final state",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task"},
	)

	m.BatchesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_batches_total",
			Help: "Finished batches by task",
		},
		[]string{"task"},
	)

	m.DocumentsInProgress = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docintel_documents_in_progress",
			Help: "Documents currently being processed",
		},
	)

	m.LLMCallsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_llm_calls_total",
			Help: "LLM provider attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.LLMCallDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docintel_llm_call_duration_seconds",
			Help:    "Duration of LLM provider attempts",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.OCRPagesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_ocr_pages_total",
			Help: "OCR page attempts by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)

	return m
}

// ObserveLLMCall records one provider attempt.
func (m *Metrics) ObserveLLMCall(outcome string, elapsed time.Duration) {
	m.LLMCallsTotal.WithLabelValues(outcome).Inc()
	m.LLMCallDuration.Observe(elapsed.Seconds())
}

// ObserveOCRPage records one OCR page attempt.
func (m *Metrics) ObserveOCRPage(engine, outcome string) {
	m.OCRPagesTotal.WithLabelValues(engine, outcome).Inc()
}

// ObserveTransition counts a per-document state change.
func (m *Metrics) ObserveTransition(state constants.DocumentState) {
	m.TransitionsTotal.WithLabelValues(string(state)).Inc()
}

// ObserveDocument records a document reaching its final state.
func (m *Metrics) ObserveDocument(task string, state constants.DocumentState, elapsed time.Duration) {
	m.DocumentsTotal.WithLabelValues(task, string(state)).Inc()
	m.DocumentDuration.WithLabelValues(task).Observe(elapsed.Seconds())
}

func (m *Metrics) DocumentStarted()  { m.DocumentsInProgress.Inc() }
func (m *Metrics) DocumentFinished() { m.DocumentsInProgress.Dec() }

// ObserveBatch counts a finished batch.
func (m *Metrics) ObserveBatch(task string) {
	m.BatchesTotal.WithLabelValues(task).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("metrics textfile %s: %w", path, err)
	}
	return nil
}
