package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
	"github.com/joseph-ayodele/docintel/internal/schema"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

// ProductsOf flattens a products result into the indexed list used for grouping.
func ProductsOf(source string, data map[string]any) []validate.Product {
	client := schema.Str(data, "client_name")
	ctype := schema.Str(data, "contract_type")
	var out []validate.Product
	for _, p := range schema.Entries(data, "products") {
		out = append(out, validate.Product{
			Name:         schema.Str(p, "product_name"),
			Quantity:     schema.Str(p, "quantity"),
			Unit:         schema.Str(p, "unit"),
			Client:       client,
			ContractType: ctype,
			Description:  schema.Str(p, "description"),
			Source:       source,
		})
	}
	return out
}

// GroupSimilarProducts asks the model which products are the same article
// ordered by different clients. Only groups that span at least two distinct
// clients, recomputed from products, survive; the accepted groups replace
// the model's list in Data.
func (r *Runner) GroupSimilarProducts(ctx context.Context, products []validate.Product) (Result, []validate.Group) {
	if len(products) < 2 {
		return Result{Task: constants.TaskGrouping, Data: schema.Normalize(map[string]any{}, Grouping)}, nil
	}
	var b strings.Builder
	for i, p := range products {
		fmt.Fprintf(&b, "[%d] %s | %s | client: %s | %s\n", i,
			p.Name, strings.TrimSpace(p.Quantity+" "+p.Unit), p.Client, p.Description)
	}
	text := prompt.Builder{
		Role: "You are a procurement analyst. The numbered list below contains products extracted from contracts of different clients. " +
			"Group the products that refer to the same article even when names, languages or spellings differ.",
		Instructions: []string{
			"Only create a group when it contains products of at least two different clients.",
			"product_ids are the numbers in square brackets. Give every group a short canonical_name.",
		},
		Schema:      Grouping,
		SourceLabel: "Products",
		Text:        b.String(),
	}.Build()

	res := r.run(ctx, constants.TaskGrouping, Grouping, llm.Request{Prompt: text})
	if res.Failed() {
		return res, nil
	}
	var proposed []validate.Group
	for _, g := range schema.Entries(res.Data, "groups") {
		proposed = append(proposed, validate.Group{
			CanonicalName: schema.Str(g, "canonical_name"),
			ProductIDs:    indices(g["product_ids"]),
		})
	}
	accepted := validate.ValidateGroups(proposed, products)
	if dropped := len(proposed) - len(accepted); dropped > 0 {
		common.LoggerFromContext(ctx, r.logger).Info("grouping.dropped", "proposed", len(proposed), "dropped", dropped)
	}
	groups := make([]any, 0, len(accepted))
	for _, g := range accepted {
		ids := make([]any, len(g.ProductIDs))
		for i, id := range g.ProductIDs {
			ids[i] = float64(id)
		}
		clients := make([]any, len(g.Clients))
		for i, c := range g.Clients {
			clients[i] = c
		}
		groups = append(groups, map[string]any{"canonical_name": g.CanonicalName, "product_ids": ids, "clients": clients})
	}
	res.Data["groups"] = groups
	return res, accepted
}

func indices(v any) []int {
	list, _ := v.([]any)
	out := make([]int, 0, len(list))
	for _, item := range list {
		f, ok := schema.ToNumber(item)
		if !ok || f != math.Trunc(f) {
			continue
		}
		out = append(out, int(f))
	}
	return out
}
