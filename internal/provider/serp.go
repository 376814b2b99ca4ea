package provider

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/serp"
)

// SERPSearch implements Searcher over the SERP scraper /scrape endpoint.
type SERPSearch struct {
	client serp.Client
}

// NewSERPSearch creates a SERPSearch adapter.
func NewSERPSearch(c serp.Client) *SERPSearch {
	return &SERPSearch{client: c}
}

// Name implements Named.
func (s *SERPSearch) Name() string { return NameSERP }

// Search implements Searcher. Rank is the 1-based position in the response;
// results without a URL keep their slot but are not returned.
func (s *SERPSearch) Search(ctx context.Context, keyword string) ([]model.SearchHit, error) {
	resp, err := s.client.Search(ctx, keyword)
	if err != nil {
		return nil, eris.Wrapf(err, "search %q", keyword)
	}
	results := resp.Organic()
	hits := make([]model.SearchHit, 0, len(results))
	for i, r := range results {
		href := strings.TrimSpace(r.Href())
		if href == "" {
			continue
		}
		hits = append(hits, model.SearchHit{URL: href, Title: r.Title, Rank: i + 1})
	}
	return hits, nil
}

// SERPAuthority implements AuthorityProvider from the website scan DA score.
type SERPAuthority struct {
	client    serp.Client
	available bool
}

// NewSERPAuthority creates a SERPAuthority adapter.
func NewSERPAuthority(c serp.Client, available bool) *SERPAuthority {
	return &SERPAuthority{client: c, available: available}
}

// Name implements Named.
func (s *SERPAuthority) Name() string { return NameSERPAuthority }

// Available implements AuthorityProvider.
func (s *SERPAuthority) Available() bool { return s.available }

// Authority implements AuthorityProvider.
func (s *SERPAuthority) Authority(ctx context.Context, host string) (*model.AuthoritySignal, error) {
	resp, err := s.client.WebsiteScan(ctx, host)
	if err != nil {
		if fetcher.IsDecodeError(err) {
			return nil, nil
		}
		return nil, err
	}
	if resp.DA == nil {
		return nil, nil
	}
	return &model.AuthoritySignal{DomainScore: resp.DA.DA, Source: NameSERPAuthority}, nil
}

// SERPScan implements EmailDiscoverer from the website scan email list.
type SERPScan struct {
	client    serp.Client
	available bool
}

// NewSERPScan creates a SERPScan adapter.
func NewSERPScan(c serp.Client, available bool) *SERPScan {
	return &SERPScan{client: c, available: available}
}

// Name implements Named.
func (s *SERPScan) Name() string { return NameSERPScan }

// Available implements EmailDiscoverer.
func (s *SERPScan) Available() bool { return s.available }

// Discover implements EmailDiscoverer. Scores are already 0-1.
func (s *SERPScan) Discover(ctx context.Context, host string) ([]model.EmailCandidate, error) {
	resp, err := s.client.WebsiteScan(ctx, host)
	if err != nil {
		return emptyOnDecode(NameSERPScan, host, err)
	}
	out := make([]model.EmailCandidate, 0, len(resp.Emails))
	for _, e := range resp.Emails {
		addr := strings.TrimSpace(e.Address())
		if addr == "" {
			continue
		}
		out = append(out, model.EmailCandidate{Address: addr, Confidence: e.Score, Source: NameSERPScan})
	}
	return out, nil
}

// emptyOnDecode turns an unparseable payload into an empty result.
func emptyOnDecode(name, host string, err error) ([]model.EmailCandidate, error) {
	if fetcher.IsDecodeError(err) {
		zap.L().Debug("discovery: unparseable response",
			zap.String("provider", name),
			zap.String("domain", host),
			zap.Error(err),
		)
		return []model.EmailCandidate{}, nil
	}
	return nil, err
}
