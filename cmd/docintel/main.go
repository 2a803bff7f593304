package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/internal/common"
)

var (
	cfgPath     string
	outDir      string
	concurrency int

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "docintel",
	Short:         "Document intelligence pipeline",
	Long:          "Extracts text from PDF/DOCX business documents, runs structured LLM extraction tasks and exports normalized CSV, XLSX and JSON results.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("out") {
			c.Output.Dir = outDir
		}
		if cmd.Flags().Changed("concurrency") {
			c.Batch.Concurrency = concurrency
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger = common.NewLogger(cfg.Log, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./docintel.yaml)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory (default from config)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 1, "documents processed in parallel")

	rootCmd.AddCommand(extractCmd, productsCmd, analyzeCmd, invoicesCmd, compareCmd, reviewCmd, tenderCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code := common.CodeOf(err)
		if code == "" {
			code = "ERROR"
		}
		fmt.Fprintf(os.Stderr, "docintel: %s: %v\n", code, err)
		os.Exit(1)
	}
}
