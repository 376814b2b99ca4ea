package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/scorer"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run <keyword>",
	Short: "Run one keyword and save the leads that pass the filter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initOutreach(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		keyword := strings.Join(args, " ")

		if runDryRun {
			result, err := env.Orchestrator.Run(ctx, keyword)
			if err != nil {
				return eris.Wrapf(err, "run %q", keyword)
			}
			rows := scorer.ExtractRows(result, scorer.ThresholdsFrom(cfg.Scoring), time.Now().UTC())
			formatRows(cmd.OutOrStdout(), rows)
			return nil
		}

		saved, err := env.Orchestrator.RunKeyword(ctx, keyword, env.Sink)
		if err != nil {
			return eris.Wrapf(err, "run %q", keyword)
		}

		zap.L().Info("keyword complete", zap.String("keyword", keyword), zap.Int("saved_leads", saved))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d lead(s) saved for %q\n", saved, keyword)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print accepted rows instead of writing them")
	rootCmd.AddCommand(runCmd)
}
