// Package enrich turns a candidate domain into an authority score and a
// merged list of candidate emails by running the configured discovery chain.
package enrich

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/emails"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/provider"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// DefaultContentMarkers flag blog-style pages in titles and URLs.
var DefaultContentMarkers = []string{"blog", "article", "news", "post"}

// Options tunes the enricher.
type Options struct {
	// ContentHeavyHits is the hit count at which a domain counts as
	// content-heavy. Default: 5.
	ContentHeavyHits int
	// ContentMarkers are words in a title or URL path that mark a domain as
	// content-heavy. Default: DefaultContentMarkers.
	ContentMarkers []string
	// QuotaCooldown is how long a quota-exhausted primary stays out of
	// rotation. Default: 1h.
	QuotaCooldown time.Duration
	// Breakers gates the primary provider. Built from QuotaCooldown when nil.
	Breakers *resilience.ServiceBreakers
	Metrics  *metrics.Metrics
}

// Enricher runs authority lookup and the discovery chain for one domain.
type Enricher struct {
	authority provider.AuthorityProvider
	steps     []provider.Step
	opts      Options
}

// New creates an Enricher. authority may be nil, in which case every domain
// scores 0 for authority.
func New(authority provider.AuthorityProvider, steps []provider.Step, opts Options) *Enricher {
	if opts.ContentHeavyHits <= 0 {
		opts.ContentHeavyHits = 5
	}
	if len(opts.ContentMarkers) == 0 {
		opts.ContentMarkers = DefaultContentMarkers
	}
	if opts.Breakers == nil {
		m := opts.Metrics
		opts.Breakers = resilience.NewServiceBreakers(
			resilience.BreakerFromConfig(1, opts.QuotaCooldown),
			func(service string, from, to resilience.CircuitState) {
				zap.L().Warn("enrich: provider rotation changed",
					zap.String("provider", service),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				m.SetBreaker(service, to == resilience.CircuitOpen)
			},
		)
	}
	ordered := make([]provider.Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return roleOrder[ordered[i].Role] < roleOrder[ordered[j].Role]
	})
	return &Enricher{authority: authority, steps: ordered, opts: opts}
}

// Steps run primary first, then secondary, then tertiary, since the later
// roles depend on the primary's outcome.
var roleOrder = map[provider.Role]int{
	provider.RolePrimary:   0,
	provider.RoleSecondary: 1,
	provider.RoleTertiary:  2,
}

// ContentHeavy reports whether a domain looks like a content site: many hits
// for the keyword, or a marker word in any title or URL path. Markers match
// whole words, singular or plural, so "Compost" never matches "post".
func ContentHeavy(d model.Domain, minHits int, markers []string) bool {
	if minHits > 0 && d.Hits >= minHits {
		return true
	}
	want := make(map[string]bool, 2*len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		want[m] = true
		want[m+"s"] = true
	}
	if len(want) == 0 {
		return false
	}

	texts := append([]string{}, d.Titles...)
	for _, raw := range d.URLs {
		if u, err := url.Parse(raw); err == nil {
			texts = append(texts, u.Path)
		}
	}
	for _, s := range texts {
		for _, w := range words(s) {
			if want[w] {
				return true
			}
		}
	}
	return false
}

// words splits s into lowercase runs of letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Enrich never fails: provider errors are logged, counted and replaced by
// empty values.
func (e *Enricher) Enrich(ctx context.Context, d model.Domain) model.EnrichedDomain {
	out := model.EnrichedDomain{Domain: d}
	out.AuthorityScore = e.lookupAuthority(ctx, d.Host)

	secondaryAvailable := false
	for _, s := range e.steps {
		if s.Role == provider.RoleSecondary && s.Provider.Available() {
			secondaryAvailable = true
		}
	}

	var (
		lists        [][]model.EmailCandidate
		primaryFound int
		primaryQuota bool
	)
	for _, s := range e.steps {
		name := s.Provider.Name()
		switch s.Role {
		case provider.RolePrimary:
			if ContentHeavy(d, e.opts.ContentHeavyHits, e.opts.ContentMarkers) {
				zap.L().Debug("enrich: content-heavy domain, skipping primary",
					zap.String("domain", d.Host), zap.String("provider", name))
				continue
			}
			if !s.Provider.Available() {
				continue
			}
			breaker := e.opts.Breakers.Get(name)
			if !breaker.Allow() {
				zap.L().Debug("enrich: primary out of rotation",
					zap.String("domain", d.Host), zap.String("provider", name))
				primaryQuota = true
				continue
			}
			found, err := e.discover(ctx, s.Provider, d.Host)
			breaker.Record(err)
			if err != nil {
				primaryQuota = resilience.IsQuotaExhausted(err)
				continue
			}
			primaryFound = len(found)
			lists = append(lists, found)
			out.Providers = append(out.Providers, name)

		case provider.RoleSecondary:
			if !s.Provider.Available() {
				continue
			}
			found, err := e.discover(ctx, s.Provider, d.Host)
			if err != nil {
				continue
			}
			lists = append(lists, found)
			out.Providers = append(out.Providers, name)

		case provider.RoleTertiary:
			if secondaryAvailable || (primaryFound > 0 && !primaryQuota) || !s.Provider.Available() {
				continue
			}
			found, err := e.discover(ctx, s.Provider, d.Host)
			if err != nil {
				continue
			}
			lists = append(lists, found)
			out.Providers = append(out.Providers, name)
		}
	}

	out.Candidates = emails.Merge(lists...)
	zap.L().Info("enrich: domain enriched",
		zap.String("domain", d.Host),
		zap.Float64("authority", out.AuthorityScore),
		zap.Int("candidates", len(out.Candidates)),
		zap.Strings("providers", out.Providers),
	)
	return out
}

func (e *Enricher) lookupAuthority(ctx context.Context, host string) float64 {
	if e.authority == nil {
		return 0
	}
	sig, err := e.authority.Authority(ctx, host)
	if err != nil {
		zap.L().Warn("enrich: authority lookup failed",
			zap.String("domain", host),
			zap.Error(err),
		)
		e.opts.Metrics.Failure(e.authority.Name(), resilience.Kind(err))
		return 0
	}
	if sig == nil {
		return 0
	}
	return sig.DomainScore
}

func (e *Enricher) discover(ctx context.Context, p provider.EmailDiscoverer, host string) ([]model.EmailCandidate, error) {
	found, err := p.Discover(ctx, host)
	if err != nil {
		zap.L().Warn("enrich: discovery failed",
			zap.String("provider", p.Name()),
			zap.String("domain", host),
			zap.String("kind", resilience.Kind(err)),
			zap.Error(err),
		)
		e.opts.Metrics.Failure(p.Name(), resilience.Kind(err))
		return nil, err
	}
	return found, nil
}
