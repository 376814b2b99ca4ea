package main

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/provider"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/validate"
	"github.com/sells-group/outreach-cli/pkg/contacts"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/openpagerank"
	"github.com/sells-group/outreach-cli/pkg/serp"
	"github.com/sells-group/outreach-cli/pkg/zerobounce"
)

var (
	metricsOnce sync.Once
	appMetrics  *metrics.Metrics
)

// sharedMetrics registers the collectors with the default registry once per
// process. The serve command exposes the same registry on /metrics.
func sharedMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		appMetrics = metrics.New(prometheus.DefaultRegisterer)
	})
	return appMetrics
}

// outreachEnv holds the wired orchestrator and sinks needed by the run,
// batch and serve commands.
type outreachEnv struct {
	Registry     *provider.Registry
	Chain        *provider.Resolved
	Orchestrator *outreach.Orchestrator
	Store        store.Store // nil when store.driver is none
	Sink         *store.Fanout
	Metrics      *metrics.Metrics
}

// Close releases the sinks.
func (e *outreachEnv) Close() {
	if e.Sink == nil {
		return
	}
	if err := e.Sink.Close(); err != nil {
		zap.L().Warn("close sinks", zap.Error(err))
	}
}

// initOutreach validates the configuration for mode, builds the provider
// chain and opens the sinks. Callers should defer env.Close().
func initOutreach(ctx context.Context, mode string) (*outreachEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env, err := buildEnv(cfg, sharedMetrics())
	if err != nil {
		return nil, err
	}
	if err := env.Orchestrator.CheckConfig(); err != nil {
		return nil, err
	}

	st, sink, err := buildSinks(ctx, cfg, env.Metrics)
	if err != nil {
		return nil, err
	}
	env.Store = st
	env.Sink = sink
	if sink.Len() == 0 {
		zap.L().Warn("no lead sink configured, accepted rows will be dropped",
			zap.String("store_driver", cfg.Store.Driver),
		)
	}
	return env, nil
}

// buildEnv wires the fetcher, vendor clients, adapters, provider chain and
// orchestrator. It opens no connections.
func buildEnv(c *config.Config, m *metrics.Metrics) (*outreachEnv, error) {
	reg := buildRegistry(c, buildFetcher(c, m))

	chainCfg := provider.DefaultChainConfig()
	if c.ProvidersFile != "" {
		loaded, err := provider.LoadChainConfig(c.ProvidersFile)
		if err != nil {
			return nil, err
		}
		chainCfg = loaded
	}
	chain, err := chainCfg.Resolve(reg)
	if err != nil {
		return nil, eris.Wrap(err, "resolve provider chain")
	}

	enricher := enrich.New(chain.Authority, chain.Discovery, enrich.Options{
		ContentHeavyHits: c.Enrich.ContentHeavyHits,
		ContentMarkers:   c.Enrich.ContentMarkers,
		QuotaCooldown:    c.Enrich.QuotaCooldown,
		Metrics:          m,
	})
	validator := validate.New(chain.Validation, validate.Options{
		BatchSize:  c.Validation.BatchSize,
		BatchDelay: millis(c.Validation.BatchDelayMs),
		Metrics:    m,
	})

	opts := outreach.OptionsFromConfig(c)
	opts.Metrics = m

	return &outreachEnv{
		Registry:     reg,
		Chain:        chain,
		Orchestrator: outreach.New(chain, enricher, validator, opts),
		Metrics:      m,
	}, nil
}

// providerConfigs maps fetcher provider names to their config section.
func providerConfigs(c *config.Config) map[string]config.ProviderConfig {
	return map[string]config.ProviderConfig{
		serp.ProviderName:         c.SERP.ProviderConfig,
		hunter.ProviderName:       c.Hunter,
		contacts.ProviderName:     c.Contacts.ProviderConfig,
		openpagerank.ProviderName: c.OpenPageRank,
		zerobounce.ProviderName:   c.ZeroBounce.ProviderConfig,
	}
}

// buildFetcher creates the shared fetcher with one retry policy and, when a
// rate limit is configured, one limiter per provider.
func buildFetcher(c *config.Config, m *metrics.Metrics) *fetcher.Client {
	policies := make(map[string]resilience.Policy)
	limiters := make(map[string]*fetcher.AdaptiveLimiter)

	for name, pc := range providerConfigs(c) {
		attempts := c.Fetch.MaxAttempts
		if pc.MaxAttempts > 0 {
			attempts = pc.MaxAttempts
		}
		policies[name] = resilience.PolicyFromConfig(
			attempts,
			c.Fetch.BaseDelayMs,
			c.Fetch.RateLimitDelayMs,
			c.Fetch.AuthCooldownMs,
			pc.NotFound,
			c.Fetch.QuotaPatterns,
		)
		if pc.RateLimit > 0 {
			burst := pc.Burst
			if burst <= 0 {
				burst = 1
			}
			limiters[name] = fetcher.NewAdaptiveLimiter(rate.Limit(pc.RateLimit), burst)
		}
	}

	return fetcher.New(fetcher.Options{
		UserAgent: c.Fetch.UserAgent,
		Timeout:   time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		Policies:  policies,
		Limiters:  limiters,
		Metrics:   m,
	})
}

// scanMemoTTL covers one domain's enrichment, never a later run.
const scanMemoTTL = time.Minute

// buildRegistry creates every vendor client and registers its adapters. An
// adapter whose key is missing is registered but reports itself unavailable.
func buildRegistry(c *config.Config, caller fetcher.Caller) *provider.Registry {
	serpOpts := []serp.Option{serp.WithLocale(c.SERP.Country, c.SERP.Language)}
	if c.SERP.BaseURL != "" {
		serpOpts = append(serpOpts, serp.WithBaseURL(c.SERP.BaseURL))
	}
	if c.SERP.Host != "" {
		serpOpts = append(serpOpts, serp.WithHost(c.SERP.Host))
	}
	// Authority and discovery both read /website-scan; share one call per host.
	serpClient := serp.NewScanMemo(serp.NewClient(c.SERP.APIKey, caller, serpOpts...), scanMemoTTL)

	var hunterOpts []hunter.Option
	if c.Hunter.BaseURL != "" {
		hunterOpts = append(hunterOpts, hunter.WithBaseURL(c.Hunter.BaseURL))
	}
	hunterClient := hunter.NewClient(c.Hunter.APIKey, caller, hunterOpts...)

	contactsOpts := []contacts.Option{contacts.WithEndpoints(c.Contacts.Endpoints...)}
	if c.Contacts.BaseURL != "" {
		contactsOpts = append(contactsOpts, contacts.WithBaseURL(c.Contacts.BaseURL))
	}
	if c.Contacts.Host != "" {
		contactsOpts = append(contactsOpts, contacts.WithHost(c.Contacts.Host))
	}
	contactsClient := contacts.NewClient(c.Contacts.APIKey, caller, contactsOpts...)

	var oprOpts []openpagerank.Option
	if c.OpenPageRank.BaseURL != "" {
		oprOpts = append(oprOpts, openpagerank.WithBaseURL(c.OpenPageRank.BaseURL))
	}
	oprClient := openpagerank.NewClient(c.OpenPageRank.APIKey, caller, oprOpts...)

	var zbOpts []zerobounce.Option
	if c.ZeroBounce.BaseURL != "" {
		zbOpts = append(zbOpts, zerobounce.WithBaseURL(c.ZeroBounce.BaseURL))
	}
	if c.ZeroBounce.BatchBaseURL != "" {
		zbOpts = append(zbOpts, zerobounce.WithBatchBaseURL(c.ZeroBounce.BatchBaseURL))
	}
	zbClient := zerobounce.NewClient(c.ZeroBounce.APIKey, caller, zbOpts...)

	hasSERP := c.SERP.APIKey != ""

	reg := provider.NewRegistry()
	reg.Register(provider.NewSERPSearch(serpClient))
	reg.Register(provider.NewSERPAuthority(serpClient, hasSERP))
	reg.Register(provider.NewSERPScan(serpClient, hasSERP))
	reg.Register(provider.NewOpenPageRank(oprClient, c.OpenPageRank.APIKey != ""))
	reg.Register(provider.NewHunter(hunterClient, c.Hunter.APIKey != ""))
	reg.Register(provider.NewContactsScraper(contactsClient, c.Contacts.APIKey != ""))
	reg.Register(provider.NewZeroBounce(zbClient, c.ZeroBounce.APIKey != ""))
	return reg
}

// buildSinks opens the configured store and adds the spreadsheet sink when a
// path is set. The store is nil for the "none" driver.
func buildSinks(ctx context.Context, c *config.Config, m *metrics.Metrics) (store.Store, *store.Fanout, error) {
	fan := store.NewFanout(m)

	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	if st != nil {
		fan.Add(c.Store.Driver, st)
	}
	if c.Sheet.Path != "" {
		fan.Add("sheet", store.NewSheetSink(c.Sheet.Path, c.Sheet.SheetName))
	}
	return st, fan, nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
