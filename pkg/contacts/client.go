// Package contacts provides a client for the website contacts scraper API.
package contacts

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ProviderName keys the fetcher policy and limiter for this API.
const ProviderName = "contacts"

// DefaultEndpoints are the endpoint paths tried in order. The legacy /contacts
// path is only reached when the provider's policy maps 404 to "next endpoint".
var DefaultEndpoints = []string{"/scrape-contacts", "/contacts"}

// Client defines the contacts scraper operations.
type Client interface {
	// ScrapeContacts returns contact details scraped from a domain's pages.
	ScrapeContacts(ctx context.Context, domain string) (*Response, error)
}

// Response is the scraper payload.
type Response struct {
	Status string  `json:"status"`
	Data   []Entry `json:"data"`
}

// Entry groups contacts found for one domain.
type Entry struct {
	Domain string    `json:"domain"`
	Query  string    `json:"query"`
	Emails []Contact `json:"emails"`
}

// Contact is one scraped address with the pages it was seen on.
type Contact struct {
	Value   string   `json:"value"`
	Sources []string `json:"sources"`
}

// Option configures the contacts client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHost sets the X-RapidAPI-Host header value.
func WithHost(host string) Option {
	return func(c *httpClient) {
		c.host = host
	}
}

// WithEndpoints replaces the endpoint paths tried in order.
func WithEndpoints(paths ...string) Option {
	return func(c *httpClient) {
		if len(paths) > 0 {
			c.endpoints = paths
		}
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	host      string
	endpoints []string
	caller    fetcher.Caller
}

// NewClient creates a contacts client that issues its calls through caller.
func NewClient(apiKey string, caller fetcher.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   "https://website-contacts-scraper.p.rapidapi.com",
		host:      "website-contacts-scraper.p.rapidapi.com",
		endpoints: DefaultEndpoints,
		caller:    caller,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ScrapeContacts(ctx context.Context, domain string) (*Response, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}

	urls := make([]string, len(c.endpoints))
	for i, p := range c.endpoints {
		urls[i] = c.baseURL + p
	}
	h := http.Header{}
	h.Set("X-RapidAPI-Key", c.apiKey)
	h.Set("X-RapidAPI-Host", c.host)

	resp, err := fetcher.CallEndpoints(ctx, c.caller, fetcher.Request{
		Provider: ProviderName,
		Query:    url.Values{"query": {domain}, "match_email_domain": {"true"}},
		Header:   h,
	}, urls)
	if err != nil {
		return nil, eris.Wrap(err, "contacts: scrape")
	}

	var result Response
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "contacts: unmarshal response")
	}
	return &result, nil
}
