// Package config loads the outreach configuration from config.yaml and
// OUTREACH_* environment variables and sets up the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SERP          SERPConfig       `yaml:"serp" mapstructure:"serp"`
	Hunter        ProviderConfig   `yaml:"hunter" mapstructure:"hunter"`
	Contacts      ContactsConfig   `yaml:"contacts" mapstructure:"contacts"`
	OpenPageRank  ProviderConfig   `yaml:"openpagerank" mapstructure:"openpagerank"`
	ZeroBounce    ZeroBounceConfig `yaml:"zerobounce" mapstructure:"zerobounce"`
	Fetch         FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Enrich        EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Validation    ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Scoring       ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Outreach      OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Store         StoreConfig      `yaml:"store" mapstructure:"store"`
	Sheet         SheetConfig      `yaml:"sheet" mapstructure:"sheet"`
	Server        ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring    MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log           LogConfig        `yaml:"log" mapstructure:"log"`
	ProvidersFile string           `yaml:"providers_file" mapstructure:"providers_file"`
}

// ProviderConfig holds the credentials and call policy for one vendor API.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// RateLimit is requests per second; 0 disables the limiter.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
	// MaxAttempts overrides fetch.max_attempts when positive.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// NotFound is "fail" or "next_endpoint".
	NotFound string `yaml:"not_found" mapstructure:"not_found"`
}

// SERPConfig configures the SERP scraper (search, authority fallback and
// website scan discovery).
type SERPConfig struct {
	ProviderConfig `yaml:",inline" mapstructure:",squash"`
	Host           string `yaml:"host" mapstructure:"host"`
	Country        string `yaml:"country" mapstructure:"country"`
	Language       string `yaml:"language" mapstructure:"language"`
}

// ContactsConfig configures the website contacts scraper.
type ContactsConfig struct {
	ProviderConfig `yaml:",inline" mapstructure:",squash"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Endpoints      []string `yaml:"endpoints" mapstructure:"endpoints"`
}

// ZeroBounceConfig configures email validation.
type ZeroBounceConfig struct {
	ProviderConfig `yaml:",inline" mapstructure:",squash"`
	BatchBaseURL   string `yaml:"batch_base_url" mapstructure:"batch_base_url"`
}

// FetchConfig is the shared retry policy for every provider call.
type FetchConfig struct {
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs      int      `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	RateLimitDelayMs int      `yaml:"rate_limit_delay_ms" mapstructure:"rate_limit_delay_ms"`
	AuthCooldownMs   int      `yaml:"auth_cooldown_ms" mapstructure:"auth_cooldown_ms"`
	QuotaPatterns    []string `yaml:"quota_patterns" mapstructure:"quota_patterns"`
}

// EnrichConfig tunes the discovery chain.
type EnrichConfig struct {
	ContentHeavyHits int           `yaml:"content_heavy_hits" mapstructure:"content_heavy_hits"`
	ContentMarkers   []string      `yaml:"content_markers" mapstructure:"content_markers"`
	QuotaCooldown    time.Duration `yaml:"quota_cooldown" mapstructure:"quota_cooldown"`
}

// ValidationConfig tunes batch validation.
type ValidationConfig struct {
	// Required makes a missing validation key a configuration error.
	Required     bool `yaml:"required" mapstructure:"required"`
	BatchSize    int  `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDelayMs int  `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
}

// ScoringConfig holds the lead filter thresholds and the email status weights.
type ScoringConfig struct {
	MinLeadScore  float64       `yaml:"min_lead_score" mapstructure:"min_lead_score"`
	MinEmailScore float64       `yaml:"min_email_score" mapstructure:"min_email_score"`
	Weights       StatusWeights `yaml:"weights" mapstructure:"weights"`
}

// StatusWeights scale an email's confidence by its validation status.
type StatusWeights struct {
	Valid    float64 `yaml:"valid" mapstructure:"valid"`
	CatchAll float64 `yaml:"catch_all" mapstructure:"catch_all"`
	Unknown  float64 `yaml:"unknown" mapstructure:"unknown"`
	Invalid  float64 `yaml:"invalid" mapstructure:"invalid"`
}

// OutreachConfig tunes the per-keyword and batch runs.
type OutreachConfig struct {
	MaxDomains        int      `yaml:"max_domains" mapstructure:"max_domains"`
	DomainDelayMs     int      `yaml:"domain_delay_ms" mapstructure:"domain_delay_ms"`
	KeywordDelayMs    int      `yaml:"keyword_delay_ms" mapstructure:"keyword_delay_ms"`
	MaxKeywordsPerRun int      `yaml:"max_keywords_per_run" mapstructure:"max_keywords_per_run"`
	BlockedHosts      []string `yaml:"blocked_hosts" mapstructure:"blocked_hosts"`
	KeywordsFile      string   `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// StoreConfig configures the lead sink database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SheetConfig configures the spreadsheet sink. An empty Path disables it.
type SheetConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures the run health checker started by serve.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	// MinRuns is how many finished runs the window needs before rates alert.
	MinRuns int `yaml:"min_runs" mapstructure:"min_runs"`
	// EmptyRateThreshold alerts when too many successful runs save no rows.
	EmptyRateThreshold float64 `yaml:"empty_rate_threshold" mapstructure:"empty_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultBlockedHosts are social and marketplace hosts never treated as leads.
var DefaultBlockedHosts = []string{
	"youtube.com", "amazon.com", "facebook.com", "instagram.com", "pinterest.com",
	"reddit.com", "quora.com", "linkedin.com", "x.com", "twitter.com",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy variable names from earlier deployments.
	_ = v.BindEnv("serp.api_key", "OUTREACH_SERP_API_KEY", "RAPIDAPI_KEY")
	_ = v.BindEnv("contacts.api_key", "OUTREACH_CONTACTS_API_KEY", "RAPIDAPI_KEY")
	_ = v.BindEnv("zerobounce.api_key", "OUTREACH_ZEROBOUNCE_API_KEY", "API_ZERO_KEY")

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys need a default so AutomaticEnv can override them on Unmarshal.
	for _, p := range []string{"serp", "hunter", "contacts", "openpagerank", "zerobounce"} {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".rate_limit", 0)
		v.SetDefault(p+".burst", 1)
		v.SetDefault(p+".max_attempts", 0)
		v.SetDefault(p+".not_found", "fail")
	}
	v.SetDefault("serp.base_url", "https://serp-data-scraper.p.rapidapi.com")
	v.SetDefault("serp.host", "serp-data-scraper.p.rapidapi.com")
	v.SetDefault("serp.country", "uk")
	v.SetDefault("serp.language", "en")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("contacts.base_url", "https://website-contacts-scraper.p.rapidapi.com")
	v.SetDefault("contacts.host", "website-contacts-scraper.p.rapidapi.com")
	v.SetDefault("contacts.endpoints", []string{"/scrape-contacts", "/contacts"})
	v.SetDefault("contacts.not_found", "next_endpoint")
	v.SetDefault("openpagerank.base_url", "https://openpagerank.com/api/v1.0")
	v.SetDefault("zerobounce.base_url", "https://api.zerobounce.net/v2")
	v.SetDefault("zerobounce.batch_base_url", "https://bulkapi.zerobounce.net/v2")

	v.SetDefault("fetch.user_agent", "outreach-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.base_delay_ms", 1500)
	v.SetDefault("fetch.rate_limit_delay_ms", 2500)
	v.SetDefault("fetch.auth_cooldown_ms", 3000)
	v.SetDefault("fetch.quota_patterns", []string{"quota", "usage limit", "credits", "exceeded your", "plan limit", "billing"})

	v.SetDefault("enrich.content_heavy_hits", 5)
	v.SetDefault("enrich.content_markers", []string{"blog", "article", "news", "post"})
	v.SetDefault("enrich.quota_cooldown", "1h")

	v.SetDefault("validation.required", true)
	v.SetDefault("validation.batch_size", 50)
	v.SetDefault("validation.batch_delay_ms", 4000)

	v.SetDefault("scoring.min_lead_score", 30)
	v.SetDefault("scoring.min_email_score", 0.5)
	v.SetDefault("scoring.weights.valid", 1.0)
	v.SetDefault("scoring.weights.catch_all", 0.5)
	v.SetDefault("scoring.weights.unknown", 0.0)
	v.SetDefault("scoring.weights.invalid", 0.0)

	v.SetDefault("outreach.max_domains", 20)
	v.SetDefault("outreach.domain_delay_ms", 500)
	v.SetDefault("outreach.keyword_delay_ms", 2500)
	v.SetDefault("outreach.max_keywords_per_run", 50)
	v.SetDefault("outreach.blocked_hosts", DefaultBlockedHosts)
	v.SetDefault("outreach.keywords_file", "keywords.txt")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("sheet.path", "")
	v.SetDefault("sheet.sheet_name", "Leads")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.min_runs", 5)
	v.SetDefault("monitoring.empty_rate_threshold", 0.8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("providers_file", "")
}

// Validate checks the configuration for the given mode: "run", "batch",
// "serve" or "check".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run", "batch", "serve":
		if c.SERP.APIKey == "" {
			errs = append(errs, "serp.api_key is required")
		}
		if c.Validation.Required && c.ZeroBounce.APIKey == "" {
			errs = append(errs, "zerobounce.api_key is required (set validation.required=false to skip validation)")
		}
	case "check":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if c.Scoring.MinLeadScore < 0 || c.Scoring.MinLeadScore > 100 {
		errs = append(errs, "scoring.min_lead_score must be between 0 and 100")
	}
	if c.Scoring.MinEmailScore < 0 || c.Scoring.MinEmailScore > 1 {
		errs = append(errs, "scoring.min_email_score must be between 0 and 1")
	}
	w := c.Scoring.Weights
	for _, v := range []float64{w.Valid, w.CatchAll, w.Unknown, w.Invalid} {
		if v < 0 || v > 1 {
			errs = append(errs, "scoring.weights values must be between 0 and 1")
			break
		}
	}
	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if c.Outreach.MaxDomains <= 0 {
		errs = append(errs, "outreach.max_domains must be > 0")
	}
	if c.Monitoring.Enabled {
		if c.Monitoring.LookbackWindowHours <= 0 {
			errs = append(errs, "monitoring.lookback_window_hours must be > 0")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "none":
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or none")
	}

	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
