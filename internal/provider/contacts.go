package provider

import (
	"context"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/contacts"
)

// ContactsScraper implements EmailDiscoverer over the website contacts scraper.
type ContactsScraper struct {
	client    contacts.Client
	available bool
}

// NewContactsScraper creates a ContactsScraper adapter.
func NewContactsScraper(c contacts.Client, available bool) *ContactsScraper {
	return &ContactsScraper{client: c, available: available}
}

// Name implements Named.
func (c *ContactsScraper) Name() string { return NameContacts }

// Available implements EmailDiscoverer.
func (c *ContactsScraper) Available() bool { return c.available }

// Discover implements EmailDiscoverer. The scraper reports no confidence.
func (c *ContactsScraper) Discover(ctx context.Context, host string) ([]model.EmailCandidate, error) {
	resp, err := c.client.ScrapeContacts(ctx, host)
	if err != nil {
		return emptyOnDecode(NameContacts, host, err)
	}
	var out []model.EmailCandidate
	for _, entry := range resp.Data {
		for _, e := range entry.Emails {
			addr := strings.TrimSpace(e.Value)
			if addr == "" {
				continue
			}
			out = append(out, model.EmailCandidate{Address: addr, Source: NameContacts})
		}
	}
	if out == nil {
		out = []model.EmailCandidate{}
	}
	return out, nil
}
