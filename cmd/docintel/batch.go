package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/acquire"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/pipeline"
	"github.com/joseph-ayodele/docintel/internal/tasks"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

var (
	groupProducts bool
	writeXLSX     bool
	truncateChars int
)

var productsCmd = &cobra.Command{
	Use:   "products <file|dir>...",
	Short: "Extract client and products from contracts, optionally grouping similar products across clients",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		return runBatch(cmd, a, constants.TaskProducts, args,
			func(ctx context.Context, _ string, text string) tasks.Result {
				return a.tasks.ExtractClientAndProducts(ctx, text)
			},
			func(b *pipeline.Batch) ([]string, error) {
				files := b.FileResults()
				tables := []export.Table{export.ProductsTable(files)}
				csvPath, err := a.exporter.CSV(a.exporter.Stamped("Product_Request", ".csv"), tables[0], export.Semicolon)
				if err != nil {
					return nil, err
				}
				written := []string{csvPath}
				if groupProducts {
					t := groupTable(cmd.Context(), a, b)
					tables = append(tables, t)
					p, err := a.exporter.CSV(a.exporter.Stamped("Consolidated_Products", ".csv"), t, export.Semicolon)
					if err != nil {
						return written, err
					}
					written = append(written, p)
				}
				if writeXLSX {
					p, err := a.exporter.XLSX(a.exporter.Stamped("Product_Request", ".xlsx"), tables...)
					if err != nil {
						return written, err
					}
					written = append(written, p)
				}
				return written, nil
			})
	},
}

// groupTable runs cross-document grouping on the successful documents only.
func groupTable(ctx context.Context, a *app, b *pipeline.Batch) export.Table {
	var products []validate.Product
	for _, r := range b.Succeeded() {
		products = append(products, tasks.ProductsOf(r.FileName, r.Data)...)
	}
	res, groups := a.tasks.GroupSimilarProducts(ctx, products)
	if res.Failed() {
		a.logger.Warn("grouping.failed", "error", res.Err)
	}
	a.logger.Info("grouping.done", "products", len(products), "groups", len(groups))
	return export.ConsolidatedTable(validate.ConsolidatedRows(groups, products))
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>...",
	Short: "Summarize contracts: parties, dates, products and services, key clauses, risk areas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		return runBatch(cmd, a, constants.TaskContractAnalysis, args,
			func(ctx context.Context, _ string, text string) tasks.Result {
				limit := truncateChars
				if limit <= 0 {
					limit = acquire.LengthInfo(text).RecommendedTruncate
				}
				return a.tasks.AnalyzeContract(ctx, text, limit)
			},
			func(b *pipeline.Batch) ([]string, error) {
				files := b.FileResults()
				csvPath, err := a.exporter.CSV(a.exporter.Stamped("detailed_analysis", ".csv"), export.AnalysisTable(files), export.Semicolon)
				if err != nil {
					return nil, err
				}
				jsonPath, err := a.exporter.JSON("bulk_analysis_results", resultsJSON(b))
				if err != nil {
					return []string{csvPath}, err
				}
				return []string{csvPath, jsonPath}, nil
			})
	},
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices <file|dir>...",
	Short: "Extract invoice headers and line items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()
		return runBatch(cmd, a, constants.TaskInvoice, args,
			func(ctx context.Context, _ string, text string) tasks.Result {
				return a.tasks.ExtractInvoice(ctx, text)
			},
			func(b *pipeline.Batch) ([]string, error) {
				table := export.InvoiceTable(b.FileResults())
				csvPath, err := a.exporter.CSV(a.exporter.Stamped("invoices", ".csv"), table, export.Comma)
				if err != nil {
					return nil, err
				}
				written := []string{csvPath}
				if writeXLSX {
					p, err := a.exporter.XLSX(a.exporter.Stamped("invoices", ".xlsx"), table)
					if err != nil {
						return written, err
					}
					written = append(written, p)
				}
				return written, nil
			})
	},
}

func init() {
	productsCmd.Flags().BoolVar(&groupProducts, "group", false, "group similar products ordered by at least two clients")
	productsCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "also write an XLSX workbook")
	invoicesCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "also write an XLSX workbook")
	analyzeCmd.Flags().IntVar(&truncateChars, "truncate", 0, "characters of text sent per document (0 = recommended)")
}

// runBatch loads inputs, runs the batch and exports. Documents reach
// Exported only when every export file was written.
func runBatch(cmd *cobra.Command, a *app, task constants.TaskKind, args []string, analyze pipeline.Analyze, exportFn func(*pipeline.Batch) ([]string, error)) error {
	docs, err := a.loadDocuments(args)
	if err != nil {
		return err
	}
	b := pipeline.NewBatch(task)
	runErr := a.processor.Run(cmd.Context(), b, docs, analyze)
	if runErr != nil && !pipeline.IsCancelled(runErr) {
		return runErr
	}

	written, err := exportFn(b)
	printFiles(cmd.OutOrStdout(), written...)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	a.processor.MarkExported(cmd.Context(), b)
	printSummary(cmd.OutOrStdout(), b)
	return runErr
}

type resultEntry struct {
	FileName string         `json:"file_name"`
	Status   string         `json:"status"`
	State    string         `json:"state"`
	Method   string         `json:"text_method,omitempty"`
	Error    string         `json:"error,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func resultsJSON(b *pipeline.Batch) []resultEntry {
	out := make([]resultEntry, 0, len(b.Results))
	for _, r := range b.Results {
		status := "failed"
		if r.Succeeded() {
			status = "success"
		}
		out = append(out, resultEntry{
			FileName: r.FileName,
			Status:   status,
			State:    string(r.State),
			Method:   r.Method,
			Error:    r.Error,
			Data:     r.Data,
		})
	}
	return out
}
