package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

const maxBodyBytes = 10 << 20

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	if burst < 1 {
		burst = 1
	}
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(min(a.currentRate*1.2, a.maxRate))
}

// OnRateLimit halves the rate, down to initial/4.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(max(a.currentRate*0.5, a.minRate))
}

func (a *AdaptiveLimiter) setLocked(r rate.Limit) {
	a.currentRate = r
	a.limiter.SetLimit(r)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// Options configures a Client.
type Options struct {
	UserAgent string
	// Timeout bounds each attempt. Default: 20s.
	Timeout time.Duration
	// Policies maps provider name to its retry policy. Providers without an
	// entry use resilience.DefaultPolicy.
	Policies map[string]resilience.Policy
	// Limiters maps provider name to a request limiter.
	Limiters map[string]*AdaptiveLimiter
	Metrics  *metrics.Metrics
	// HTTPClient replaces the default client; its Timeout is left untouched.
	HTTPClient *http.Client
	// Sleep replaces the retry wait for every policy. Used by tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client is the shared resilient fetcher used by every provider adapter.
type Client struct {
	http     *http.Client
	opts     Options
	policies map[string]resilience.Policy
	limiters map[string]*AdaptiveLimiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "outreach-cli/1.0"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	policies := make(map[string]resilience.Policy, len(opts.Policies))
	for k, v := range opts.Policies {
		policies[k] = v
	}
	limiters := make(map[string]*AdaptiveLimiter, len(opts.Limiters))
	for k, v := range opts.Limiters {
		limiters[k] = v
	}
	return &Client{http: hc, opts: opts, policies: policies, limiters: limiters}
}

// Policy returns the retry policy used for provider.
func (c *Client) Policy(provider string) resilience.Policy {
	p, ok := c.policies[provider]
	if !ok {
		p = resilience.DefaultPolicy()
	}
	if c.opts.Sleep != nil {
		p.Sleep = c.opts.Sleep
	}
	return p
}

// Call performs req, retrying per the provider's policy. Non-2xx responses
// are classified into the resilience error taxonomy; the returned error is a
// *resilience.FetchError once the call gives up.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	if req.Provider == "" {
		return nil, eris.New("fetcher: request has no provider")
	}
	policy := c.Policy(req.Provider)
	if req.MaxAttempts > 0 {
		policy.MaxAttempts = req.MaxAttempts
	}
	limiter := c.limiters[req.Provider]
	logAttempt := resilience.AttemptLogger(req.Provider)
	policy.OnAttempt = func(attempt int, action resilience.Action, err error) {
		logAttempt(attempt, action, err)
		c.opts.Metrics.Attempt(req.Provider, action.String())
		var rl *resilience.RateLimitError
		if limiter != nil && errors.As(err, &rl) {
			limiter.OnRateLimit()
		}
	}

	attempts := 0
	resp, err := resilience.Do(ctx, req.Provider, policy, func(ctx context.Context) (*Response, error) {
		attempts++
		return c.attempt(ctx, req, limiter, policy.QuotaPatterns)
	})
	if err != nil {
		return nil, err
	}
	resp.Attempts = attempts

	zap.L().Debug("provider call succeeded",
		zap.String("provider", req.Provider),
		zap.Int("status", resp.Status),
		zap.Int("attempt", attempts),
	)
	c.opts.Metrics.Attempt(req.Provider, "success")
	if limiter != nil {
		limiter.OnSuccess()
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, req Request, limiter *AdaptiveLimiter, quotaPatterns []string) (*Response, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.NewTransientError(eris.Wrapf(err, "%s: request", req.Provider), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "%s: read body", req.Provider), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resilience.Classify(req.Provider, req.URL, resp.StatusCode, body, quotaPatterns)
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: marshal body", req.Provider)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", req.Provider)
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}
