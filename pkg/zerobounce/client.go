// Package zerobounce provides a client for the ZeroBounce email validation API.
package zerobounce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ProviderName keys the fetcher policy and limiter for this API.
const ProviderName = "zerobounce"

// MaxBatchSize is the largest batch /validatebatch accepts.
const MaxBatchSize = 100

// Client defines the ZeroBounce operations.
type Client interface {
	// Validate checks a single address.
	Validate(ctx context.Context, email string) (*Result, error)
	// ValidateBatch checks up to MaxBatchSize addresses in one call.
	ValidateBatch(ctx context.Context, emails []string) (*BatchResponse, error)
}

// Result is the validation outcome for one address. Older payloads carry the
// address under email_address.
type Result struct {
	Address      string `json:"address"`
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
	SubStatus    string `json:"sub_status"`
}

// Email returns the address the result refers to.
func (r Result) Email() string {
	if r.Address != "" {
		return r.Address
	}
	return r.EmailAddress
}

// BatchResponse is the /validatebatch payload.
type BatchResponse struct {
	EmailBatch []Result     `json:"email_batch"`
	Errors     []BatchError `json:"errors"`
}

// BatchError reports an address the batch could not process.
type BatchError struct {
	Error        string `json:"error"`
	EmailAddress string `json:"email_address"`
}

type batchRequest struct {
	APIKey     string       `json:"api_key"`
	EmailBatch []batchEmail `json:"email_batch"`
}

type batchEmail struct {
	EmailAddress string `json:"email_address"`
}

// Option configures the ZeroBounce client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL for single validation (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithBatchBaseURL sets a custom base URL for batch validation (for testing).
func WithBatchBaseURL(u string) Option {
	return func(c *httpClient) {
		c.batchBaseURL = u
	}
}

type httpClient struct {
	apiKey       string
	baseURL      string
	batchBaseURL string
	caller       fetcher.Caller
}

// NewClient creates a ZeroBounce client that issues its calls through caller.
func NewClient(apiKey string, caller fetcher.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:       apiKey,
		baseURL:      "https://api.zerobounce.net/v2",
		batchBaseURL: "https://bulkapi.zerobounce.net/v2",
		caller:       caller,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Validate(ctx context.Context, email string) (*Result, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		URL:      c.baseURL + "/validate",
		Query:    url.Values{"api_key": {c.apiKey}, "email": {email}, "ip_address": {""}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "zerobounce: validate")
	}

	var result Result
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "zerobounce: unmarshal validate response")
	}
	return &result, nil
}

func (c *httpClient) ValidateBatch(ctx context.Context, emails []string) (*BatchResponse, error) {
	if c.apiKey == "" {
		return nil, &resilience.ConfigError{Provider: ProviderName, Field: "api_key"}
	}
	if len(emails) > MaxBatchSize {
		return nil, eris.Errorf("zerobounce: batch of %d exceeds maximum %d", len(emails), MaxBatchSize)
	}
	body := batchRequest{APIKey: c.apiKey, EmailBatch: make([]batchEmail, len(emails))}
	for i, e := range emails {
		body.EmailBatch[i] = batchEmail{EmailAddress: e}
	}

	resp, err := c.caller.Call(ctx, fetcher.Request{
		Provider: ProviderName,
		Method:   http.MethodPost,
		URL:      c.batchBaseURL + "/validatebatch",
		Body:     body,
	})
	if err != nil {
		return nil, eris.Wrap(err, "zerobounce: validate batch")
	}

	var result BatchResponse
	if err := resp.Decode(&result); err != nil {
		return nil, eris.Wrap(err, "zerobounce: unmarshal batch response")
	}
	return &result, nil
}
