package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/tasks"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

var (
	specFiles []string
	certFiles []string
	matcher   string
)

var compareCmd = &cobra.Command{
	Use:   "compare [file|dir]...",
	Short: "Compare certificates against specifications",
	Long: "Without --spec/--cert all documents go to the model in one pass and it decides which are specifications.\n" +
		"With --spec and --cert every document is extracted on its own and parameters are matched locally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		ctx := cmd.Context()

		var rows []validate.Row
		var payload any
		if len(specFiles) > 0 || len(certFiles) > 0 {
			m, err := pickMatcher(matcher)
			if err != nil {
				return err
			}
			specDocs, err := a.loadDocuments(specFiles)
			if err != nil {
				return err
			}
			certDocs, err := a.loadDocuments(certFiles)
			if err != nil {
				return err
			}
			var per []tasks.Result
			rows, per = a.tasks.CompareExtracted(ctx, a.texts(ctx, specDocs), a.texts(ctx, certDocs), m)
			for _, r := range per {
				if r.Failed() {
					a.logger.Warn("compare.extraction_failed", "task", string(r.Task), "error", r.Err)
				}
			}
			payload = map[string]any{"mode": "deterministic", "matcher": matcher, "rows": rows}
		} else {
			docs, err := a.loadDocuments(args)
			if err != nil {
				return err
			}
			res := a.tasks.CompareDocuments(ctx, a.texts(ctx, docs))
			if res.Failed() {
				a.logger.Warn("compare.failed", "error", res.Err)
			}
			rows = tasks.ComparisonRows(res.Data)
			payload = res.Data
		}

		table := export.ComparisonTable(rows)
		csvPath, err := a.exporter.CSV(a.exporter.Stamped("comparison", ".csv"), table, export.Semicolon)
		if err != nil {
			return err
		}
		xlsxPath, err := a.exporter.XLSX(a.exporter.Stamped("comparison", ".xlsx"), table)
		if err != nil {
			return err
		}
		jsonPath, err := a.exporter.JSON("comparison_results", payload)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		printFiles(w, csvPath, xlsxPath, jsonPath)
		counts := validate.Counts(rows)
		var parts []string
		for _, s := range []constants.ComparisonStatus{constants.StatusOK, constants.StatusOut, constants.StatusMissing, constants.StatusNoSpec, constants.StatusNoBounds} {
			parts = append(parts, fmt.Sprintf("%s=%d", s, counts[s]))
		}
		fmt.Fprintf(w, "%d rows: %s\n", len(rows), strings.Join(parts, " "))
		return nil
	},
}

func pickMatcher(name string) (validate.Matcher, error) {
	switch strings.ToLower(name) {
	case "", "exact":
		return validate.ExactMatcher{}, nil
	case "normalized":
		return validate.NormalizedMatcher{}, nil
	}
	return nil, fmt.Errorf("unknown matcher %q (exact|normalized)", name)
}

var (
	standardFile       string
	skipRisks          bool
	skipDeviations     bool
	skipRecommendation bool
)

var reviewCmd = &cobra.Command{
	Use:   "review --standard <file> <supplier-file>...",
	Short: "Review supplier cooperation agreements against the standard contract",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		ctx := cmd.Context()

		std, err := a.loadDocuments([]string{standardFile})
		if err != nil {
			return err
		}
		supplier, err := a.loadDocuments(args)
		if err != nil {
			return err
		}
		opts := tasks.ReviewOptions{Risks: !skipRisks, Deviations: !skipDeviations, Recommendations: !skipRecommendation}
		res := a.tasks.CompareContracts(ctx, a.texts(ctx, supplier), a.texts(ctx, std[:1])[0], opts)
		if res.Failed() {
			a.logger.Warn("review.failed", "error", res.Err)
		}

		xlsxPath, err := a.exporter.XLSX(a.exporter.Stamped("cooperation_review", ".xlsx"), export.ReviewTables(res.Data)...)
		if err != nil {
			return err
		}
		csvPath, err := a.exporter.CSV(a.exporter.Stamped("cooperation_review", ".csv"), export.ReviewTable(res.Data), export.Semicolon)
		if err != nil {
			return err
		}
		jsonPath, err := a.exporter.JSON("cooperation_review", res.Data)
		if err != nil {
			return err
		}
		printFiles(cmd.OutOrStdout(), xlsxPath, csvPath, jsonPath)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&specFiles, "spec", nil, "specification files (deterministic mode)")
	compareCmd.Flags().StringSliceVar(&certFiles, "cert", nil, "certificate files (deterministic mode)")
	compareCmd.Flags().StringVar(&matcher, "matcher", "exact", "parameter matching in deterministic mode: exact|normalized")

	reviewCmd.Flags().StringVar(&standardFile, "standard", "", "standard contract to compare against")
	reviewCmd.Flags().BoolVar(&skipRisks, "no-risks", false, "skip the risk section")
	reviewCmd.Flags().BoolVar(&skipDeviations, "no-deviations", false, "skip the deviation section")
	reviewCmd.Flags().BoolVar(&skipRecommendation, "no-recommendations", false, "skip the recommendation section")
	_ = reviewCmd.MarkFlagRequired("standard")
}
