package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/provider"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report provider availability and configuration errors",
	Long:  "Lists every registered provider with its capabilities and whether it has credentials, then reports the conditions under which no run could produce leads.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("check"); err != nil {
			return err
		}

		env, err := buildEnv(cfg, sharedMetrics())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		formatProviders(out, env.Registry)
		_, _ = fmt.Fprintln(out)

		if err := env.Orchestrator.CheckConfig(); err != nil {
			return err
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, "configuration OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// formatProviders writes one line per registered adapter.
func formatProviders(out io.Writer, reg *provider.Registry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tCAPABILITIES\tAVAILABLE")
	_, _ = fmt.Fprintln(w, "--------\t------------\t---------")

	for _, name := range reg.List() {
		a := reg.Get(name)
		avail := "yes"
		if av, ok := a.(interface{ Available() bool }); ok && !av.Available() {
			avail = "no"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(capabilities(a), ","), avail)
	}
	_ = w.Flush()
}

func capabilities(a provider.Named) []string {
	var caps []string
	if _, ok := a.(provider.Searcher); ok {
		caps = append(caps, "search")
	}
	if _, ok := a.(provider.AuthorityProvider); ok {
		caps = append(caps, "authority")
	}
	if _, ok := a.(provider.EmailDiscoverer); ok {
		caps = append(caps, "discovery")
	}
	if _, ok := a.(provider.EmailValidator); ok {
		caps = append(caps, "validation")
	}
	return caps
}
