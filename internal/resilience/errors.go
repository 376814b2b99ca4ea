package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ConfigError reports a missing credential or setting for a provider. Fatal
// for that provider's calls only.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing configuration %q", e.Provider, e.Field)
}

// AuthError is a 401-class rejection. Recovered with a cooldown and retry.
type AuthError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: unauthorized (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimitError is a 429 response. Recovered with backoff and retry.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Provider, e.Message)
}

// NotFoundError is a 404 on a provider endpoint. NextEndpoint is set when the
// provider's policy says another endpoint pattern should be tried instead of
// treating the 404 as a configuration error.
type NotFoundError struct {
	Provider     string
	URL          string
	NextEndpoint bool
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: endpoint not found: %s", e.Provider, e.URL)
}

// QuotaExhaustedError is a provider-reported quota or billing failure. It is
// never retried; callers substitute a fallback provider instead.
type QuotaExhaustedError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s: quota exhausted (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// TransientError wraps an error that is safe to retry (5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// FetchError is returned once a call gives up, either because the attempt
// budget is spent or because the failure is not retryable.
type FetchError struct {
	Provider string
	Status   int
	Message  string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed after %d attempt(s) (status %d): %s", e.Provider, e.Attempts, e.Status, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status carried by any error in the chain, or 0.
func StatusCode(err error) int {
	var (
		fe *FetchError
		ae *AuthError
		qe *QuotaExhaustedError
		te *TransientError
		re *RateLimitError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Status
	case errors.As(err, &ae):
		return ae.StatusCode
	case errors.As(err, &qe):
		return qe.StatusCode
	case errors.As(err, &re):
		return http.StatusTooManyRequests
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &te):
		return te.StatusCode
	}
	return 0
}

// IsQuotaExhausted reports whether err carries a QuotaExhaustedError.
func IsQuotaExhausted(err error) bool {
	var qe *QuotaExhaustedError
	return errors.As(err, &qe)
}

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// Classify turns a non-2xx HTTP response into the typed error for the
// taxonomy. quotaPatterns are matched case-insensitively against the body
// for 402/403/429 responses.
func Classify(provider, rawURL string, status int, body []byte, quotaPatterns []string) error {
	msg := truncate(strings.TrimSpace(string(body)), 300)

	if status == http.StatusPaymentRequired || status == http.StatusForbidden || status == http.StatusTooManyRequests {
		if matchesAny(msg, quotaPatterns) || status == http.StatusPaymentRequired {
			return &QuotaExhaustedError{Provider: provider, StatusCode: status, Message: msg}
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Provider: provider, StatusCode: status, Message: msg}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, Message: msg}
	case status == http.StatusNotFound:
		return &NotFoundError{Provider: provider, URL: rawURL}
	default:
		return NewTransientError(fmt.Errorf("%s: unexpected status %d: %s", provider, status, msg), status)
	}
}

func matchesAny(msg string, patterns []string) bool {
	lower := strings.ToLower(msg)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Kind names the taxonomy class of err for logs and counters.
func Kind(err error) string {
	var (
		ae *AuthError
		re *RateLimitError
	)
	switch {
	case err == nil:
		return "none"
	case IsQuotaExhausted(err):
		return "quota"
	case IsConfigError(err):
		return "config"
	case errors.As(err, &ae):
		return "auth"
	case errors.As(err, &re):
		return "rate_limit"
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case IsTransient(err):
		return "transient"
	default:
		return "other"
	}
}
