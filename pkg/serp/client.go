// Package serp provides a client for the SERP data scraper API: keyword
// result pages and per-domain website scans.
package serp

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ProviderName keys the fetcher policy and limiter for this API.
const ProviderName = "serp"

// Client defines the SERP data scraper operations.
type Client interface {
	// Search returns the result page for a keyword.
	Search(ctx context.Context, query string) (*SearchResponse, error)
	// WebsiteScan returns authority and contact data for a domain.
	WebsiteScan(ctx context.Context, domain string) (*ScanResponse, error)
}

// SearchResponse is the /scrape payload. Depending on the plan the results
// arrive under organic_results or results.
type SearchResponse struct {
	OrganicResults []Result `json:"organic_results"`
	Results        []Result `json:"results"`
}

// Organic returns the ranked result list, preferring organic_results.
func (r *SearchResponse) Organic() []Result {
	if len(r.OrganicResults) > 0 {
		return r.OrganicResults
	}
	return r.Results
}

// Result is one search result.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Href returns link, falling back to url.
func (r Result) Href() string {
	if r.Link != "" {
		return r.Link
	}
	return r.URL
}

// ScanResponse is the /website-scan payload.
type ScanResponse struct {
	Domain string           `json:"domain"`
	DA     *DomainAuthority `json:"da"`
	Emails []ScanEmail      `json:"emails"`
}

// DomainAuthority holds the 0-100 authority score.
type DomainAuthority struct {
	DA float64 `json:"da"`
}

// ScanEmail is one address found by a website scan. Score is 0-1 when present.
type ScanEmail struct {
	Email string   `json:"email"`
	Value string   `json:"value"`
	Score *float64 `json:"score"`
	Valid bool     `json:"valid"`
}

// Address returns email, falling back to value.
func (e ScanEmail) Address() string {
	if e.Email != "" {
		return e.Email
	}
	return e.Value
}

// Option configures the SERP client.
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

// WithLocale sets the gl (country) and hl (language) search parameters.
func WithLocale(gl, hl string) Option {
	return func(c *httpClient) {
		if gl != "" {
			c.gl = gl
		}
		if hl != "" {
			c.hl = hl
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	host    string
	gl      string
	hl      string
	caller  fetcher.Caller
}

// NewClient creates a SERP client that issues its calls through caller.
func NewClient(apiKey string, caller fetcher.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://serp-data-scraper.p.rapidapi.com",
		host:    "serp-data-scraper.p.rapidapi.com",
		gl:      "uk",
		hl:      "en",
		caller:  caller,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) headers() http.Header {
	h := http.Header{}
	h.Set("X-RapidAPI-Key", c.apiKey)
	h.Set("X-RapidAPI-Host", c.host)
	return h
}

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		URL:      c.baseURL + "/scrape",
		Query:    url.Values{"q": {query}, "gl": {c.gl}, "hl": {c.hl}},
		Header:   c.headers(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "serp: search")
	}

	var result SearchResponse
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) WebsiteScan(ctx context.Context, domain string) (*ScanResponse, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		URL:      c.baseURL + "/website-scan",
		Query:    url.Values{"domain": {domain}},
		Header:   c.headers(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "serp: website scan")
	}

	var result ScanResponse
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal scan response")
	}
	return &result, nil
}
