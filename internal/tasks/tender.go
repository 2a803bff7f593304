package tasks

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
	"github.com/joseph-ayodele/docintel/internal/schema"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

// ExtractTenderFields fills the given tender list labels from one tender
// document. An empty field list uses DefaultTenderFields.
func (r *Runner) ExtractTenderFields(ctx context.Context, text string, fields []string) Result {
	if len(fields) == 0 {
		fields = DefaultTenderFields
	}
	s := TenderSchema(fields)
	if res, skip := noText(constants.TaskTender, s, text); skip {
		return res
	}
	p := prompt.Builder{
		Role: "Du bist ein Experte für öffentliche Ausschreibungen. Lies die folgenden Ausschreibungsunterlagen und fülle die interne Tenderliste aus.",
		Instructions: []string{
			"Verwende exakt die vorgegebenen Feldnamen als JSON-Schlüssel: " + strings.Join(s.Keys(), ", ") + ".",
			"Antworte auf Deutsch, knapp und sachlich. Fristen und Daten im Format TT.MM.JJJJ.",
			`Wenn eine Information nicht im Text steht, verwende "` + constants.NichtAngegeben + `".`,
		},
		Schema:      s,
		SourceLabel: "Ausschreibungstext",
		Text:        text,
		Limit:       r.limits.TenderTruncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskTender, s, llm.Request{Prompt: p})
}

// tenderNarrative are tender fields that collect text from every document.
var tenderNarrative = map[string]bool{"Leistungsumfang": true, "Besonderheiten": true}

// ExtractTenderPackage runs ExtractTenderFields on every document of one
// tender and merges the answers: the first document naming a value wins and
// later documents only fill gaps. The merged result fails only when every
// document failed.
func (r *Runner) ExtractTenderPackage(ctx context.Context, docs []Document, fields []string) (Result, []Result) {
	if len(fields) == 0 {
		fields = DefaultTenderFields
	}
	s := TenderSchema(fields)
	per := make([]Result, 0, len(docs))
	var sources []validate.Source
	var lastErr error
	for _, d := range docs {
		res := r.ExtractTenderFields(ctx, d.Text, fields)
		per = append(per, res)
		if res.Failed() {
			lastErr = res.Err
			continue
		}
		sources = append(sources, validate.Source{Name: d.Name, Fields: res.Data})
	}
	if len(sources) == 0 {
		if lastErr == nil {
			lastErr = ErrNoText
		}
		return Result{Task: constants.TaskTender, Err: lastErr, Data: schema.Fallback(s, lastErr.Error())}, per
	}
	narrative := map[string]bool{}
	for _, k := range s.Keys() {
		narrative[k] = tenderNarrative[k]
	}
	merged := validate.MergeFields(constants.NichtAngegeben, narrative, sources...)
	return Result{Task: constants.TaskTender, Data: schema.Normalize(merged, s)}, per
}
