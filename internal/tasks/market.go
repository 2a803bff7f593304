package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
	"github.com/joseph-ayodele/docintel/internal/prompt"
	"github.com/joseph-ayodele/docintel/internal/research"
	"github.com/joseph-ayodele/docintel/internal/schema"
)

// marketPrompt is Market without the locally collected sources.
var marketPrompt = &schema.Schema{Name: Market.Name, Sentinel: Market.Sentinel, Fields: Market.Fields[:4]}

// AnalyzeMarketSituation researches competitors, the last tender and the
// chances for a tender on the web and lets the model condense the findings.
func (r *Runner) AnalyzeMarketSituation(ctx context.Context, customer, project, country string) Result {
	customer, project, country = strings.TrimSpace(customer), strings.TrimSpace(project), strings.TrimSpace(country)
	if customer == "" && project == "" {
		return Result{Task: constants.TaskMarket, Data: marketAll(constants.NichtErmittelt, nil)}
	}
	logger := common.LoggerFromContext(ctx, r.logger)

	var queries []string
	if customer != "" {
		queries = append(queries,
			strings.TrimSpace(customer+" Ausschreibung Wettbewerber Bieter "+country),
			strings.TrimSpace(customer+" letzte Ausschreibung Tender Auftrag "+country))
	}
	if project != "" {
		queries = append(queries, strings.TrimSpace(project+" Anbieter Markt "+country))
	}
	if len(queries) > constants.MaxMarketQueries {
		queries = queries[:constants.MaxMarketQueries]
	}

	var hits []research.Hit
	if r.search != nil {
		for _, q := range queries {
			found, err := r.search.Search(ctx, q, constants.DefaultMarketMaxResults)
			if err != nil {
				logger.Warn("market.search_failed", "query", q, "error", err)
				continue
			}
			hits = append(hits, found...)
		}
	}
	sources := make([]any, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, map[string]any{"title": h.Title, "url": h.URL})
	}
	if len(hits) == 0 {
		return Result{Task: constants.TaskMarket, Data: marketAll(NoResearch, sources)}
	}

	var findings []string
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = "Unbekannt"
		}
		findings = append(findings, "Quelle: "+title+"\n"+prompt.Truncate(h.Content, constants.MarketSnippetLimit, 0))
	}
	p := prompt.Builder{
		Role: "Analysiere die Web-Recherche-Ergebnisse zur Marktsituation für diese Ausschreibung.\n\n" +
			"Kunde: " + customer + "\nProjekt: " + project + "\nLand: " + country,
		Instructions: []string{
			`Verwende "` + constants.NichtErmittelt + `", wenn die Information nicht in den Suchergebnissen vorhanden ist.`,
		},
		Schema:      marketPrompt,
		SourceLabel: "Web-Recherche Ergebnisse (gekürzt)",
		Text:        strings.Join(findings, "\n\n"),
	}.Build()

	res := r.run(ctx, constants.TaskMarket, Market, llm.Request{Prompt: p, Light: true})
	if res.Failed() {
		msg := res.Err.Error()
		if len([]rune(msg)) > 50 {
			msg = string([]rune(msg)[:50])
		}
		res.Data[KeyLastTender] = fmt.Sprintf("Fehler: %s", msg)
	}
	res.Data[KeySources] = sources
	return res
}

func marketAll(value string, sources []any) map[string]any {
	if sources == nil {
		sources = []any{}
	}
	return map[string]any{
		KeyCompetitors: value,
		KeyLastTender:  value,
		KeySplit:       value,
		KeyChances:     value,
		KeySources:     sources,
	}
}
