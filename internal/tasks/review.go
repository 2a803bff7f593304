package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
	"github.com/joseph-ayodele/docintel/internal/schema"
)

// DocumentSeparator joins several supplier agreements into one text.
const DocumentSeparator = "\n\n--- Document Separator ---\n\n"

// ReviewOptions select the optional sections of a cooperation review.
type ReviewOptions struct {
	Risks           bool
	Deviations      bool
	Recommendations bool
}

// AllSections enables every optional section.
var AllSections = ReviewOptions{Risks: true, Deviations: true, Recommendations: true}

// CompareContracts reviews one or more supplier cooperation agreements
// against the standard contract. Disabled sections are returned empty.
func (r *Runner) CompareContracts(ctx context.Context, supplier []Document, standard Document, opts ReviewOptions) Result {
	var parts []string
	for _, d := range supplier {
		if constants.HasReadableText(d.Text) {
			parts = append(parts, prompt.Truncate(d.Text, r.limits.CooperationPerDoc, r.limits.Floor))
		}
	}
	if len(parts) == 0 || !constants.HasReadableText(standard.Text) {
		err := fmt.Errorf("%w: standard contract and at least one supplier agreement are required", ErrNoText)
		return Result{Task: constants.TaskCooperation, Err: err, Data: schema.Fallback(CooperationReview, err.Error())}
	}

	instructions := []string{
		"Summarize the supplier agreement: contract type, parties, duration, an overall status and a short description.",
		"List the key clauses with a direct quote and their importance.",
	}
	instructions = append(instructions, sectionRule(opts.Deviations, "deviations",
		"List every deviation of the supplier agreement from the standard contract with the wording of both."))
	instructions = append(instructions, sectionRule(opts.Risks, "risks",
		"Assess the legal, financial, operational and compliance risks with the affected section and a quote."))
	instructions = append(instructions, sectionRule(opts.Recommendations, "recommendations",
		"Recommend concrete negotiation actions with priority and rationale."))

	p := prompt.Builder{
		Role:         "You are a contract lawyer reviewing supplier cooperation agreements against the company's standard contract.",
		Instructions: instructions,
		Schema:       CooperationReview,
		Sections: []prompt.Section{
			{Label: "STANDARD CONTRACT", Name: standard.Name, Text: standard.Text, Limit: r.limits.CooperationPerDoc},
			{Label: "SUPPLIER AGREEMENT", Name: supplierNames(supplier), Text: strings.Join(parts, DocumentSeparator)},
		},
		Floor: r.limits.Floor,
	}.Build()

	res := r.run(ctx, constants.TaskCooperation, CooperationReview, llm.Request{Prompt: p})
	if !opts.Deviations {
		res.Data["deviations"] = []any{}
	}
	if !opts.Risks {
		res.Data["risks"] = []any{}
	}
	if !opts.Recommendations {
		res.Data["recommendations"] = []any{}
	}
	return res
}

func sectionRule(enabled bool, key, rule string) string {
	if enabled {
		return rule
	}
	return fmt.Sprintf("Do not analyze %s; return an empty list for %q.", key, key)
}

func supplierNames(docs []Document) string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
