package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
	"github.com/joseph-ayodele/docintel/internal/schema"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

// ExtractSpecification reads the parameter table of a technical specification.
func (r *Runner) ExtractSpecification(ctx context.Context, text string) Result {
	if res, skip := noText(constants.TaskSpecification, Specification, text); skip {
		return res
	}
	p := prompt.Builder{
		Role: "Du bist Prüfingenieur. Extrahiere alle spezifizierten Parameter aus der folgenden technischen Spezifikation.",
		Instructions: []string{
			"Jeder Parameter mit Einheit, Untergrenze (min), Obergrenze (max), Nennwert (nominal) und Toleranz als reine Zahlen.",
			"Schreibe \"10 ± 0,5 mm\" als nominal 10 und tolerance 0.5; \"≤ 12\" als max 12; \"± 5 %\" als tolerance_percent 5.",
		},
		Schema:      Specification,
		SourceLabel: "Spezifikation",
		Text:        text,
		Limit:       r.limits.SpecTruncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskSpecification, Specification, llm.Request{Prompt: p})
}

// ExtractMeasurements reads the measured values of a factory certificate.
func (r *Runner) ExtractMeasurements(ctx context.Context, text string) Result {
	if res, skip := noText(constants.TaskMeasurements, Measurements, text); skip {
		return res
	}
	p := prompt.Builder{
		Role: "Du bist Prüfingenieur. Extrahiere alle Messwerte aus dem folgenden Werkszeugnis bzw. Prüfbericht.",
		Instructions: []string{
			"measured_value ist eine reine Zahl; bei mehreren Einzelwerten den Mittelwert, sonst null.",
		},
		Schema:      Measurements,
		SourceLabel: "Werkszeugnis",
		Text:        text,
		Limit:       r.limits.CertTruncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskMeasurements, Measurements, llm.Request{Prompt: p})
}

// CompareDocuments lets the model tell specifications from certificates and
// compare them in one pass. Statuses in the reply are recomputed from the
// numbers before the result is returned.
func (r *Runner) CompareDocuments(ctx context.Context, docs []Document) Result {
	var sections []prompt.Section
	for _, d := range docs {
		if constants.HasReadableText(d.Text) {
			sections = append(sections, prompt.Section{Name: d.Name, Text: d.Text, Limit: r.limits.ComparisonPerDoc})
		}
	}
	if len(sections) < 2 {
		err := fmt.Errorf("%w: need at least 2 readable documents, got %d", ErrNoText, len(sections))
		return Result{Task: constants.TaskComparison, Err: err, Data: schema.Fallback(Comparison, err.Error())}
	}
	p := prompt.Builder{
		Role: "You are analyzing multiple technical documents. Identify which documents are specifications and which are certificates or test reports, " +
			"extract all parameters from the specifications (min, max, nominal, tolerances) and all measured values from the certificates, " +
			"then compare every measured value against its specification.",
		Instructions: []string{
			"Status definitions: OK = measured value within the specification; OUT = measured value outside it; " +
				"MISSING = parameter specified but no measurement found; NO_SPEC = measurement found without a specification.",
			"Match parameters by name and unit.",
		},
		Schema:   Comparison,
		Sections: sections,
	}.Build()
	res := r.run(ctx, constants.TaskComparison, Comparison, llm.Request{Prompt: p})
	if !res.Failed() {
		r.rederive(ctx, res.Data)
	}
	return res
}

// rederive overwrites status and deviation of every comparison row with the
// locally computed values; the model's status is kept as model_status.
func (r *Runner) rederive(ctx context.Context, data map[string]any) {
	logger := common.LoggerFromContext(ctx, r.logger)
	for _, row := range schema.Entries(data, "comparisons") {
		claimed := constants.ComparisonStatus(strings.ToUpper(schema.Str(row, "status")))
		spec := &validate.Spec{
			Parameter:        schema.Str(row, "parameter"),
			Unit:             schema.Str(row, "unit"),
			Min:              numPtr(row, "spec_min"),
			Max:              numPtr(row, "spec_max"),
			Nominal:          numPtr(row, "spec_nominal"),
			Tolerance:        numPtr(row, "spec_tolerance"),
			TolerancePercent: numPtr(row, "spec_tolerance_percent"),
		}
		if spec.Min == nil && spec.Max == nil && spec.Nominal == nil && claimed == constants.StatusNoSpec {
			spec = nil
		}
		status, dev := validate.DeriveStatus(spec, numPtr(row, "measured_value"))
		if status != claimed {
			logger.Warn("comparison.status_corrected",
				"parameter", schema.Str(row, "parameter"), "model", string(claimed), "derived", string(status))
		}
		row["model_status"] = string(claimed)
		row["status"] = string(status)
		row["deviation"] = dev
	}
}

func numPtr(m map[string]any, key string) *float64 {
	if v, ok := schema.Num(m, key); ok {
		return &v
	}
	return nil
}

// CompareExtracted is the deterministic comparison: every specification and
// certificate is extracted on its own and the rows are matched locally with m.
func (r *Runner) CompareExtracted(ctx context.Context, specs, certs []Document, m validate.Matcher) ([]validate.Row, []Result) {
	var (
		all     []Result
		specOut []validate.Spec
		measOut []validate.Measurement
	)
	for _, d := range specs {
		res := r.ExtractSpecification(ctx, d.Text)
		all = append(all, res)
		if res.Failed() {
			continue
		}
		for _, p := range schema.Entries(res.Data, "parameters") {
			specOut = append(specOut, validate.Spec{
				Parameter:        schema.Str(p, "parameter"),
				Unit:             schema.Str(p, "unit"),
				Min:              numPtr(p, "min"),
				Max:              numPtr(p, "max"),
				Nominal:          numPtr(p, "nominal"),
				Tolerance:        numPtr(p, "tolerance"),
				TolerancePercent: numPtr(p, "tolerance_percent"),
				Source:           d.Name,
			})
		}
	}
	for _, d := range certs {
		res := r.ExtractMeasurements(ctx, d.Text)
		all = append(all, res)
		if res.Failed() {
			continue
		}
		for _, p := range schema.Entries(res.Data, "measurements") {
			measOut = append(measOut, validate.Measurement{
				Parameter: schema.Str(p, "parameter"),
				Unit:      schema.Str(p, "unit"),
				Value:     numPtr(p, "measured_value"),
				Source:    d.Name,
			})
		}
	}
	return validate.Compare(specOut, measOut, m), all
}

// ComparisonRows converts the comparison entries of a CompareDocuments result.
func ComparisonRows(data map[string]any) []validate.Row {
	var rows []validate.Row
	for _, c := range schema.Entries(data, "comparisons") {
		rows = append(rows, validate.Row{
			Parameter:    schema.Str(c, "parameter"),
			Unit:         schema.Str(c, "unit"),
			SpecMin:      numPtr(c, "spec_min"),
			SpecMax:      numPtr(c, "spec_max"),
			SpecNominal:  numPtr(c, "spec_nominal"),
			Measured:     numPtr(c, "measured_value"),
			MeasuredFrom: schema.Str(c, "measured_from"),
			Status:       constants.ComparisonStatus(schema.Str(c, "status")),
			Deviation:    schema.Str(c, "deviation"),
		})
	}
	return rows
}
