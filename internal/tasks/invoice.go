package tasks

import (
	"context"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
)

// ExtractInvoice reads header fields and line items from one invoice.
func (r *Runner) ExtractInvoice(ctx context.Context, text string) Result {
	if res, skip := noText(constants.TaskInvoice, Invoice, text); skip {
		return res
	}
	p := prompt.Builder{
		Role: "You are an accounts payable assistant. Extract the invoice header and every line item from the invoice below.",
		Instructions: []string{
			"Amounts and quantities are plain numbers without currency symbols or thousands separators.",
			"Dates use YYYY-MM-DD when the day, month and year are unambiguous, otherwise copy them as written.",
			"The supplier is the party issuing the invoice; the customer is the party being billed.",
		},
		Schema:      Invoice,
		SourceLabel: "Invoice text",
		Text:        text,
		Limit:       r.limits.InvoiceTruncate,
		Floor:       r.limits.Floor,
	}.Build()
	return r.run(ctx, constants.TaskInvoice, Invoice, llm.Request{Prompt: p})
}
