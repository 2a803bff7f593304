package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/pipeline"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

func TestPickMatcher(t *testing.T) {
	m, err := pickMatcher("")
	require.NoError(t, err)
	assert.IsType(t, validate.ExactMatcher{}, m)

	m, err = pickMatcher("Normalized")
	require.NoError(t, err)
	assert.IsType(t, validate.NormalizedMatcher{}, m)

	_, err = pickMatcher("fuzzy")
	assert.Error(t, err)
}

func TestPick(t *testing.T) {
	data := map[string]any{"Auftraggeber": "Stadt Köln", "Land": constants.NichtAngegeben}
	assert.Equal(t, "flag", pick("flag", data, "Auftraggeber"))
	assert.Equal(t, "Stadt Köln", pick("", data, "Auftraggeber"))
	assert.Equal(t, "", pick("", data, "Land"))
	assert.Equal(t, "", pick("", data, "Projekttitel"))
}

func TestWatchAnalyzeUnknownTask(t *testing.T) {
	_, _, err := watchAnalyze(&app{}, "poems")
	assert.Equal(t, common.CodeInputInvalid, common.CodeOf(err))

	task, analyze, err := watchAnalyze(&app{}, "invoices")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskInvoice, task)
	assert.NotNil(t, analyze)
}

func TestResultsJSON(t *testing.T) {
	b := pipeline.NewBatch(constants.TaskContractAnalysis)
	b.Results = []*pipeline.DocumentResult{
		{FileName: "a.pdf", State: constants.StateNormalized, Method: "pdf-text", Data: map[string]any{"summary": "ok"}},
		{FileName: "b.pdf", State: constants.StateExtractionFailed, Error: "no readable text"},
	}
	out := resultsJSON(b)
	require.Len(t, out, 2)
	assert.Equal(t, "success", out[0].Status)
	assert.Equal(t, "failed", out[1].Status)
	assert.Equal(t, "EXTRACTION_FAILED", out[1].State)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"extract", "products", "invoices", "analyze", "compare", "review", "tender", "watch"} {
		assert.True(t, names[n], n)
	}
}
