package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent keyword runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		keyword, _ := cmd.Flags().GetString("keyword")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		runs, err := st.ListRuns(ctx, store.RunFilter{Keyword: keyword, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if asJSON {
			return writeJSONTo(cmd.OutOrStdout(), runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List saved leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		keyword, _ := cmd.Flags().GetString("keyword")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		rows, err := st.ListRows(ctx, store.RowFilter{Keyword: keyword, MinLeadScore: minScore, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if asJSON {
			return writeJSONTo(cmd.OutOrStdout(), rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		formatRows(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	runsCmd.Flags().String("keyword", "", "filter by keyword")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsCmd.Flags().Bool("json", false, "print JSON instead of a table")

	leadsCmd.Flags().String("keyword", "", "filter by keyword")
	leadsCmd.Flags().Float64("min-score", 0, "minimum lead score")
	leadsCmd.Flags().Int("limit", 100, "max number of leads to display")
	leadsCmd.Flags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(leadsCmd)
}

// openStore opens the configured store for read commands.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if st == nil {
		return nil, eris.New("no store configured (store.driver is none)")
	}
	return st, nil
}

// formatRunsList writes a table of runs to out.
func formatRunsList(out io.Writer, runs []model.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKEYWORD\tSTARTED\tDURATION\tDOMAINS\tLEADS\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t-------\t-------\t--------\t-------\t-----\t----\t-----")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			truncate(r.Keyword, 30),
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Duration.Round(time.Second).String(),
			r.Domains,
			r.Leads,
			r.Rows,
			truncate(r.Error, 40),
		)
	}
	_ = w.Flush()
}

// formatRows writes a table of output rows to out.
func formatRows(out io.Writer, rows []model.OutputRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEYWORD\tDOMAIN\tAUTHORITY\tRANK\tEMAIL\tEMAIL_SCORE\tLEAD_SCORE")
	_, _ = fmt.Fprintln(w, "-------\t------\t---------\t----\t-----\t-----------\t----------")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\t%.2f\t%.1f\n",
			truncate(r.Keyword, 30),
			r.Domain,
			r.AuthorityScore,
			r.Rank,
			r.Email,
			r.EmailScore,
			r.LeadScore,
		)
	}
	_ = w.Flush()
}

func writeJSONTo(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncateID returns the first 8 characters of a UUID.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
