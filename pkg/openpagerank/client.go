// Package openpagerank provides a client for the Open PageRank API.
package openpagerank

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ProviderName keys the fetcher policy and limiter for this API.
const ProviderName = "openpagerank"

// Client defines the Open PageRank operations.
type Client interface {
	// PageRank looks up the rank of one or more domains.
	PageRank(ctx context.Context, domains ...string) (*Response, error)
}

// Response is the /getPageRank payload.
type Response struct {
	StatusCode int     `json:"status_code"`
	Response   []Entry `json:"response"`
}

// Entry is the rank for one domain. PageRankDecimal is 0-10.
type Entry struct {
	StatusCode      int     `json:"status_code"`
	Error           string  `json:"error"`
	PageRankInteger int     `json:"page_rank_integer"`
	PageRankDecimal float64 `json:"page_rank_decimal"`
	Rank            string  `json:"rank"`
	Domain          string  `json:"domain"`
}

// Find returns the entry for domain, if present and successful.
func (r *Response) Find(domain string) (Entry, bool) {
	for _, e := range r.Response {
		if e.Domain == domain && e.StatusCode == http.StatusOK {
			return e, true
		}
	}
	return Entry{}, false
}

// Option configures the Open PageRank client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	caller  fetcher.Caller
}

// NewClient creates an Open PageRank client that issues its calls through caller.
func NewClient(apiKey string, caller fetcher.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://openpagerank.com/api/v1.0",
		caller:  caller,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) PageRank(ctx context.Context, domains ...string) (*Response, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	if len(domains) == 0 {
		return &Response{}, nil
	}
	h := http.Header{}
	h.Set("API-OPR", c.apiKey)

	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		URL:      c.baseURL + "/getPageRank",
		Query:    url.Values{"domains[]": domains},
		Header:   h,
	})
	if err != nil {
		return nil, eris.Wrap(err, "openpagerank: get page rank")
	}

	var result Response
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "openpagerank: unmarshal response")
	}
	return &result, nil
}
