package tasks

import (
	"context"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
)

// AnalyzeContract summarizes one contract with its products, key clauses and
// risk areas. truncate <= 0 uses the configured contract cap.
func (r *Runner) AnalyzeContract(ctx context.Context, text string, truncate int) Result {
	if res, skip := noText(constants.TaskContractAnalysis, ContractAnalysis, text); skip {
		return res
	}
	if truncate <= 0 {
		truncate = r.limits.ContractTruncate
	}
	p := prompt.Builder{
		Role:        "You are a legal assistant. Analyze the following contract and provide the information in a structured JSON format.",
		Schema:      ContractAnalysis,
		SourceLabel: "Contract text",
		Text:        text,
		Limit:       truncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskContractAnalysis, ContractAnalysis, llm.Request{Prompt: p})
}

// ExtractClientAndProducts lists the client, contract type and every
// requested product of one contract.
func (r *Runner) ExtractClientAndProducts(ctx context.Context, text string) Result {
	if res, skip := noText(constants.TaskProducts, Products, text); skip {
		return res
	}
	p := prompt.Builder{
		Role: "Analyze the following contract text and extract the client (the company or organization requesting materials or services), " +
			"every product or material requested with its quantity and unit, the contract type and the total estimated value.",
		Instructions: []string{
			"If a product appears several times, add every occurrence as its own entry in the products list.",
		},
		Schema:      Products,
		SourceLabel: "Contract text",
		Text:        text,
		Limit:       r.limits.ProductsTruncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskProducts, Products, llm.Request{Prompt: p})
}
