package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/schema"
	"github.com/joseph-ayodele/docintel/internal/tasks"
)

var (
	templateFile   string
	marketResearch bool
	customer       string
	project        string
	country        string
)

var tenderCmd = &cobra.Command{
	Use:   "tender <file|dir>...",
	Short: "Fill the tender list from all documents of one tender, optionally with market research",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		ctx := cmd.Context()

		var tpl *export.Template
		fields := tasks.DefaultTenderFields
		if templateFile != "" {
			data, err := os.ReadFile(templateFile)
			if err != nil {
				return common.NewAppError(common.CodeTemplateInvalid, "read template", err)
			}
			if tpl, err = export.ParseTemplate(data); err != nil {
				return err
			}
			fields = tpl.Keys()
		}

		docs, err := a.loadDocuments(args)
		if err != nil {
			return err
		}
		res, per := a.tasks.ExtractTenderPackage(ctx, a.texts(ctx, docs), fields)
		for i, r := range per {
			if r.Failed() {
				a.logger.Warn("tender.document_failed", "file", docs[i].Name, "error", r.Err)
			}
		}

		values := map[string]any{}
		for k, v := range res.Data {
			values[k] = v
		}
		tables := []export.Table{export.FieldTable("Tender", fields, res.Data)}
		payload := map[string]any{"tender": res.Data}

		if marketResearch {
			market := a.tasks.AnalyzeMarketSituation(ctx,
				pick(customer, res.Data, "Auftraggeber"),
				pick(project, res.Data, "Projekttitel"),
				pick(country, res.Data, "Land"))
			for _, k := range tasks.Market.Keys() {
				values[k] = market.Data[k]
			}
			tables = append(tables, export.FieldTable("Marktsituation", tasks.Market.Keys(), market.Data))
			payload["market"] = market.Data
		}

		var written []string
		if tpl != nil {
			b, err := export.FillTemplate(tpl, values)
			if err != nil {
				return err
			}
			p, err := a.exporter.Bytes(a.exporter.Stamped("Tenderliste", ".xlsx"), b)
			if err != nil {
				return err
			}
			written = append(written, p)
		} else {
			p, err := a.exporter.XLSX(a.exporter.Stamped("Tenderliste", ".xlsx"), tables...)
			if err != nil {
				return err
			}
			written = append(written, p)
		}
		p, err := a.exporter.JSON("tender_results", payload)
		if err != nil {
			return err
		}
		printFiles(cmd.OutOrStdout(), append(written, p)...)
		return nil
	},
}

// pick prefers the flag value, then an extracted field that is not a sentinel.
func pick(flag string, data map[string]any, key string) string {
	if flag != "" {
		return flag
	}
	if v := schema.Str(data, key); !constants.IsSentinel(v) {
		return v
	}
	return ""
}

func init() {
	tenderCmd.Flags().StringVar(&templateFile, "template", "", "XLSX form template; labels ending in ':' define the fields")
	tenderCmd.Flags().BoolVar(&marketResearch, "market", false, "research the market situation on the web")
	tenderCmd.Flags().StringVar(&customer, "customer", "", "customer for market research (default: extracted Auftraggeber)")
	tenderCmd.Flags().StringVar(&project, "project", "", "project for market research (default: extracted Projekttitel)")
	tenderCmd.Flags().StringVar(&country, "country", "", "country for market research (default: extracted Land)")
}
