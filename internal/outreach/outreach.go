// Package outreach runs the keyword to ranked-leads flow: search, domain
// extraction, sequential enrichment, batch validation and scoring.
package outreach

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/provider"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/scorer"
)

// Enricher enriches one domain. It never fails.
type Enricher interface {
	Enrich(ctx context.Context, d model.Domain) model.EnrichedDomain
}

// Validator validates a set of addresses, keyed by lowercase address.
type Validator interface {
	ValidateAll(ctx context.Context, addrs []string) map[string]model.ValidationResult
}

// Options tunes a run.
type Options struct {
	// MaxDomains caps domains enriched per keyword. Default: 20.
	MaxDomains   int
	BlockedHosts []string
	// DomainDelay separates consecutive domain enrichments. Default: 500ms.
	DomainDelay time.Duration
	// KeywordDelay separates consecutive keywords in a batch. Default: 2.5s.
	KeywordDelay time.Duration
	// MaxKeywordsPerRun caps a batch. Default: 50.
	MaxKeywordsPerRun int
	// ValidationRequired makes a missing validation provider fatal.
	ValidationRequired bool

	Weights    config.StatusWeights
	Thresholds scorer.Thresholds
	Metrics    *metrics.Metrics

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxDomains:         cfg.Outreach.MaxDomains,
		BlockedHosts:       cfg.Outreach.BlockedHosts,
		DomainDelay:        time.Duration(cfg.Outreach.DomainDelayMs) * time.Millisecond,
		KeywordDelay:       time.Duration(cfg.Outreach.KeywordDelayMs) * time.Millisecond,
		MaxKeywordsPerRun:  cfg.Outreach.MaxKeywordsPerRun,
		ValidationRequired: cfg.Validation.Required,
		Weights:            cfg.Scoring.Weights,
		Thresholds:         scorer.ThresholdsFrom(cfg.Scoring),
	}
}

// Orchestrator runs keywords end to end.
type Orchestrator struct {
	chain     *provider.Resolved
	enricher  Enricher
	validator Validator
	opts      Options
}

// New creates an Orchestrator over a resolved provider chain.
func New(chain *provider.Resolved, enricher Enricher, validator Validator, opts Options) *Orchestrator {
	if opts.MaxDomains <= 0 {
		opts.MaxDomains = 20
	}
	if opts.DomainDelay < 0 {
		opts.DomainDelay = 0
	}
	if opts.KeywordDelay < 0 {
		opts.KeywordDelay = 0
	}
	if opts.MaxKeywordsPerRun <= 0 {
		opts.MaxKeywordsPerRun = 50
	}
	if opts.Weights == (config.StatusWeights{}) {
		opts.Weights = scorer.DefaultScoringConfig().Weights
	}
	if opts.Sleep == nil {
		opts.Sleep = resilience.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{chain: chain, enricher: enricher, validator: validator, opts: opts}
}

// CheckConfig reports the conditions under which no run can produce output:
// no search provider, no available discovery provider, or no available
// validation provider while validation is required.
func (o *Orchestrator) CheckConfig() error {
	var errs []string
	if o.chain == nil || o.chain.Search == nil {
		errs = append(errs, "no search provider configured")
	}

	discovery := false
	if o.chain != nil {
		for _, s := range o.chain.Discovery {
			if s.Provider != nil && s.Provider.Available() {
				discovery = true
				break
			}
		}
	}
	if !discovery {
		errs = append(errs, "no email discovery provider available")
	}

	if o.opts.ValidationRequired && (o.chain == nil || o.chain.Validation == nil || !o.chain.Validation.Available()) {
		errs = append(errs, "validation is required but no validation provider is available")
	}

	if len(errs) > 0 {
		return eris.Wrap(&resilience.ConfigError{Provider: "outreach", Field: "providers"}, strings.Join(errs, "; "))
	}
	return nil
}

// Run searches keyword and returns its scored leads sorted by score
// descending, then authority descending. Provider failures after the search
// degrade the result instead of failing it.
func (o *Orchestrator) Run(ctx context.Context, keyword string) (*model.OutreachResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, eris.New("outreach: empty keyword")
	}
	if o.chain == nil || o.chain.Search == nil {
		return nil, eris.Wrap(&resilience.ConfigError{Provider: "outreach", Field: "search"}, "outreach: no search provider")
	}

	log := zap.L().With(zap.String("keyword", keyword))
	start := o.opts.Now()
	log.Info("outreach: starting run")

	hits, err := o.chain.Search.Search(ctx, keyword)
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: search %q", keyword)
	}

	domains := ExtractDomains(hits, o.opts.BlockedHosts, o.opts.MaxDomains)
	log.Info("outreach: domains extracted", zap.Int("hits", len(hits)), zap.Int("domains", len(domains)))

	enriched := make([]model.EnrichedDomain, 0, len(domains))
	for i, d := range domains {
		if i > 0 {
			if err := o.opts.Sleep(ctx, o.opts.DomainDelay); err != nil {
				return nil, eris.Wrap(err, "outreach: run interrupted")
			}
		}
		enriched = append(enriched, o.enricher.Enrich(ctx, d))
	}

	var addrs []string
	for _, ed := range enriched {
		for _, c := range ed.Candidates {
			addrs = append(addrs, c.Address)
		}
	}
	results := o.validator.ValidateAll(ctx, addrs)

	leads := make([]model.Lead, 0, len(enriched))
	for _, ed := range enriched {
		ed.Emails = scorer.ScoreEmails(ed.Candidates, results, o.opts.Weights)
		leads = append(leads, scorer.NewLead(ed))
	}
	scorer.SortLeads(leads)

	result := &model.OutreachResult{
		Keyword:      keyword,
		TotalDomains: len(domains),
		Leads:        leads,
		StartedAt:    start,
		Duration:     o.opts.Now().Sub(start),
	}
	log.Info("outreach: run complete",
		zap.Int("domains", result.TotalDomains),
		zap.Int("addresses", len(addrs)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
