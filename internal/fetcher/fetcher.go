// Package fetcher issues provider HTTP calls under a per-provider retry policy
// and rate limit.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Caller issues one provider call, retrying according to the provider's policy.
type Caller interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// Request describes a single provider call.
type Request struct {
	// Provider names the policy, limiter and log fields used for the call.
	Provider string
	// Method defaults to GET.
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	// Body is JSON-encoded when non-nil.
	Body any
	// MaxAttempts overrides the provider policy when positive.
	MaxAttempts int
}

// Response is a successful (2xx) provider response.
type Response struct {
	Status   int
	Body     []byte
	Attempts int
}

// DecodeError reports a 2xx response whose body could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "fetcher: decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err carries a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decode unmarshals the response body as JSON.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// CallEndpoints tries each URL in order. A 404 that the provider's policy marks
// as "next endpoint" moves on to the following URL; any other outcome returns.
func CallEndpoints(ctx context.Context, c Caller, req Request, urls []string) (*Response, error) {
	if len(urls) == 0 {
		return nil, eris.Errorf("fetcher: %s: no endpoints", req.Provider)
	}
	var lastErr error
	for _, u := range urls {
		req.URL = u
		resp, err := c.Call(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		var ne *resilience.NotFoundError
		if !errors.As(err, &ne) || !ne.NextEndpoint {
			return nil, err
		}
	}
	return nil, lastErr
}
