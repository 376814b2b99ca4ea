// Package hunter provides a client for the Hunter.io domain search API.
package hunter

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ProviderName keys the fetcher policy and limiter for this API.
const ProviderName = "hunter"

// Client defines the Hunter operations.
type Client interface {
	// DomainSearch returns the addresses Hunter knows for a domain.
	DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error)
}

// DomainSearchResponse is the /domain-search payload.
type DomainSearchResponse struct {
	Data DomainData `json:"data"`
}

// DomainData holds the domain-level search result.
type DomainData struct {
	Domain       string  `json:"domain"`
	Organization string  `json:"organization"`
	Emails       []Email `json:"emails"`
}

// Email is one address. Confidence is 0-100; Type is "personal" or "generic".
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence *int   `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

// Option configures the Hunter client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithLimit caps the number of addresses returned per domain.
func WithLimit(n int) Option {
	return func(c *httpClient) {
		c.limit = n
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	limit   int
	caller  fetcher.Caller
}

// NewClient creates a Hunter client that issues its calls through caller.
func NewClient(apiKey string, caller fetcher.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.hunter.io/v2",
		limit:   10,
		caller:  caller,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	q := url.Values{"domain": {domain}, "api_key": {c.apiKey}}
	if c.limit > 0 {
		q.Set("limit", strconv.Itoa(c.limit))
	}
	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		URL:      c.baseURL + "/domain-search",
		Query:    q,
	})
	if err != nil {
		return nil, eris.Wrap(err, "hunter: domain search")
	}

	var result DomainSearchResponse
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal domain search response")
	}
	return &result, nil
}
