package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/internal/acquire"
)

var saveText bool

var extractCmd = &cobra.Command{
	Use:   "extract <file|dir>...",
	Short: "Extract text only (native text layer, OCR fallback) and report length info",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg, logger)
		defer a.Close()

		docs, err := a.loadDocuments(args)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, d := range docs {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			res := a.acquirer.Acquire(cmd.Context(), d)
			info := acquire.LengthInfo(res.Text)
			fmt.Fprintf(w, "%s\tmethod=%s pages=%d chars=%d short=%t recommended_truncate=%d cached=%t\n",
				d.Name, res.Method, res.Pages, info.Chars, info.IsShort, info.RecommendedTruncate, res.Cached)
			for _, warn := range res.Warnings {
				fmt.Fprintf(w, "\twarning: %s\n", warn)
			}
			if saveText {
				name := strings.TrimSuffix(d.Name, filepath.Ext(d.Name)) + ".txt"
				path, err := a.exporter.Bytes(name, []byte(res.Text))
				if err != nil {
					return err
				}
				printFiles(w, path)
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&saveText, "save", false, "write the extracted text next to the other outputs")
}
