package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/provider"
	"github.com/sells-group/outreach-cli/internal/provider/mocks"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "batch", "serve", "check", "runs", "leads"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "outreach-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Args(t *testing.T) {
	assert.Error(t, runCmd.Args(runCmd, nil))
	assert.NoError(t, runCmd.Args(runCmd, []string{"seo", "tools"}))

	flag := runCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestBatchCommand_Flags(t *testing.T) {
	for _, name := range []string{"file", "limit", "column", "sheet"} {
		assert.NotNil(t, batchCmd.Flags().Lookup(name), "batch should have --%s flag", name)
	}
	assert.Equal(t, "0", batchCmd.Flags().Lookup("limit").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsAndLeadsCommand_Flags(t *testing.T) {
	for _, name := range []string{"keyword", "limit", "json"} {
		assert.NotNil(t, runsCmd.Flags().Lookup(name), "runs should have --%s flag", name)
		assert.NotNil(t, leadsCmd.Flags().Lookup(name), "leads should have --%s flag", name)
	}
	assert.NotNil(t, leadsCmd.Flags().Lookup("min-score"))
}

func TestFormatRunsList(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Keyword:   "seo tools",
			StartedAt: start,
			Duration:  95 * time.Second,
			Domains:   12,
			Leads:     12,
			Rows:      4,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Keyword:   "ppc",
			StartedAt: start.Add(time.Hour),
			Error:     "search \"ppc\": serp: fetch failed after 3 attempt(s) (status 503)",
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "KEYWORD")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "seo tools")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "...")
}

func TestFormatRows(t *testing.T) {
	rows := []model.OutputRow{
		{Keyword: "seo", Domain: "a.com", AuthorityScore: 80, Rank: 1, Email: "jane@a.com", EmailScore: 1, LeadScore: 90},
	}

	var buf bytes.Buffer
	formatRows(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "LEAD_SCORE")
	assert.Contains(t, out, "a.com")
	assert.Contains(t, out, "jane@a.com")
	assert.Contains(t, out, "80.0")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "90.0")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, model.BatchSummary{Keywords: 3, Succeeded: 2, Failed: 1, Rows: 7, Skipped: 4})

	out := buf.String()
	assert.Regexp(t, `Keywords:\s+3`, out)
	assert.Regexp(t, `Failed:\s+1`, out)
	assert.Regexp(t, `Skipped:\s+4`, out)
	assert.Regexp(t, `Rows saved:\s+7`, out)
}

func TestFormatProviders(t *testing.T) {
	disc := &mocks.MockEmailDiscoverer{}
	disc.On("Name").Return("hunter")
	disc.On("Available").Return(false)

	auth := &mocks.MockAuthorityProvider{}
	auth.On("Name").Return("openpagerank")
	auth.On("Available").Return(true)

	reg := provider.NewRegistry()
	reg.Register(disc)
	reg.Register(auth)

	var buf bytes.Buffer
	formatProviders(&buf, reg)

	out := buf.String()
	assert.Regexp(t, `hunter\s+discovery\s+no`, out)
	assert.Regexp(t, `openpagerank\s+authority\s+yes`, out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcd1234", truncateID("abcd1234-ffff"))
	assert.Equal(t, "abc", truncateID("abc"))
}
