package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "outreach.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Equal(t, 5, cfg.Monitoring.MinRuns)
	assert.Equal(t, "uk", cfg.SERP.Country)
	assert.Equal(t, "en", cfg.SERP.Language)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, []string{"/scrape-contacts", "/contacts"}, cfg.Contacts.Endpoints)
	assert.Equal(t, "next_endpoint", cfg.Contacts.NotFound)
	assert.Equal(t, "fail", cfg.Hunter.NotFound)
	assert.Equal(t, "https://bulkapi.zerobounce.net/v2", cfg.ZeroBounce.BatchBaseURL)
	assert.Equal(t, 20, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 1500, cfg.Fetch.BaseDelayMs)
	assert.Equal(t, 2500, cfg.Fetch.RateLimitDelayMs)
	assert.Equal(t, 3000, cfg.Fetch.AuthCooldownMs)
	assert.Contains(t, cfg.Fetch.QuotaPatterns, "usage limit")
	assert.Equal(t, 5, cfg.Enrich.ContentHeavyHits)
	assert.Equal(t, time.Hour, cfg.Enrich.QuotaCooldown)
	assert.True(t, cfg.Validation.Required)
	assert.Equal(t, 50, cfg.Validation.BatchSize)
	assert.Equal(t, 4000, cfg.Validation.BatchDelayMs)
	assert.InDelta(t, 30.0, cfg.Scoring.MinLeadScore, 0.001)
	assert.InDelta(t, 0.5, cfg.Scoring.MinEmailScore, 0.001)
	assert.InDelta(t, 1.0, cfg.Scoring.Weights.Valid, 0.001)
	assert.InDelta(t, 0.5, cfg.Scoring.Weights.CatchAll, 0.001)
	assert.InDelta(t, 0.0, cfg.Scoring.Weights.Unknown, 0.001)
	assert.Equal(t, 20, cfg.Outreach.MaxDomains)
	assert.Equal(t, 500, cfg.Outreach.DomainDelayMs)
	assert.Equal(t, 2500, cfg.Outreach.KeywordDelayMs)
	assert.Equal(t, 50, cfg.Outreach.MaxKeywordsPerRun)
	assert.Contains(t, cfg.Outreach.BlockedHosts, "youtube.com")
	assert.Equal(t, "keywords.txt", cfg.Outreach.KeywordsFile)
	assert.Equal(t, "Leads", cfg.Sheet.SheetName)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
log:
  level: debug
  format: console
server:
  port: 9090
hunter:
  api_key: hk
  rate_limit: 2
enrich:
  quota_cooldown: 30m
outreach:
  blocked_hosts: [example.org]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/outreach", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hk", cfg.Hunter.APIKey)
	assert.InDelta(t, 2.0, cfg.Hunter.RateLimit, 0.001)
	assert.Equal(t, 30*time.Minute, cfg.Enrich.QuotaCooldown)
	assert.Equal(t, []string{"example.org"}, cfg.Outreach.BlockedHosts)
	// Defaults still apply for unset values
	assert.Equal(t, 50, cfg.Validation.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OUTREACH_STORE_DRIVER", "postgres")
	t.Setenv("OUTREACH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("OUTREACH_SERVER_PORT", "3000")
	t.Setenv("OUTREACH_HUNTER_API_KEY", "hunter-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "hunter-key", cfg.Hunter.APIKey)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RAPIDAPI_KEY", "rapid")
	t.Setenv("API_ZERO_KEY", "zero")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "rapid", cfg.SERP.APIKey)
	assert.Equal(t, "rapid", cfg.Contacts.APIKey)
	assert.Equal(t, "zero", cfg.ZeroBounce.APIKey)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("serp: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.SERP.APIKey = "serp-key"
	cfg.ZeroBounce.APIKey = "zb-key"
	cfg.Validation.Required = true
	cfg.Fetch.TimeoutSecs = 20
	cfg.Outreach.MaxDomains = 20
	cfg.Scoring.MinLeadScore = 30
	cfg.Scoring.MinEmailScore = 0.5
	cfg.Scoring.Weights = StatusWeights{Valid: 1, CatchAll: 0.5}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "outreach.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("run"))
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateRun_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.SERP.APIKey = ""
	cfg.ZeroBounce.APIKey = ""

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "serp.api_key is required")
	assert.Contains(t, err.Error(), "zerobounce.api_key is required")
}

func TestValidateRun_ValidationOptional(t *testing.T) {
	cfg := validDefaults()
	cfg.ZeroBounce.APIKey = ""
	cfg.Validation.Required = false

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateCheck_NoKeysNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.SERP.APIKey = ""
	cfg.ZeroBounce.APIKey = ""

	assert.NoError(t, cfg.Validate("check"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateScoringBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Scoring.MinLeadScore = 101
	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_lead_score")

	cfg.Scoring.MinLeadScore = 30
	cfg.Scoring.MinEmailScore = -0.1
	err = cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_email_score")

	cfg.Scoring.MinEmailScore = 0.5
	cfg.Scoring.Weights.CatchAll = 1.5
	err = cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.weights")

	cfg.Scoring.Weights.CatchAll = 0.5
	assert.NoError(t, cfg.Validate("check"))
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "mysql"
	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("check"))
}

func TestValidateMonitoring(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitoring = MonitoringConfig{Enabled: true, LookbackWindowHours: 0, FailureRateThreshold: 2}

	err := cfg.Validate("check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring.lookback_window_hours")
	assert.Contains(t, err.Error(), "monitoring.failure_rate_threshold")

	cfg.Monitoring.Enabled = false
	assert.NoError(t, cfg.Validate("check"))
}
