package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/keywords"
	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	batchFile   string
	batchLimit  int
	batchColumn string
	batchSheet  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run every keyword in a keywords file",
	Long:  "Loads keywords from a text, CSV or XLSX file and runs them one after another, pausing between keywords. A failing keyword is logged and the batch continues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path := batchFile
		if path == "" {
			path = cfg.Outreach.KeywordsFile
		}
		kws, err := keywords.Load(ctx, path, keywords.Options{Column: batchColumn, SheetName: batchSheet})
		if err != nil {
			return eris.Wrap(err, "load keywords")
		}
		if batchLimit > 0 && len(kws) > batchLimit {
			kws = kws[:batchLimit]
		}
		if len(kws) == 0 {
			return eris.Errorf("no keywords in %s", path)
		}

		env, err := initOutreach(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("starting batch", zap.String("file", path), zap.Int("keywords", len(kws)))
		summary, err := env.Orchestrator.RunBatch(ctx, kws, env.Sink)
		formatSummary(cmd.OutOrStdout(), summary)
		return err
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "keywords file (default from outreach.keywords_file)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of keywords to run (0 = per-run cap only)")
	batchCmd.Flags().StringVar(&batchColumn, "column", "", "CSV/XLSX column holding the keywords (default: first column)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	rootCmd.AddCommand(batchCmd)
}

// formatSummary writes a batch summary table to out.
func formatSummary(out io.Writer, s model.BatchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Keywords:\t%d\n", s.Keywords)
	_, _ = fmt.Fprintf(w, "Succeeded:\t%d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Rows saved:\t%d\n", s.Rows)
	_ = w.Flush()
}
