package resilience

import (
	"strings"
	"time"
)

// PolicyFromConfig builds a Policy from config values. Zero values keep the
// defaults. notFound selects the 404 behavior: "fail" (default) or
// "next_endpoint".
func PolicyFromConfig(maxAttempts, baseDelayMs, rateLimitDelayMs, authCooldownMs int, notFound string, quotaPatterns []string) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if baseDelayMs > 0 {
		p.BaseDelay = time.Duration(baseDelayMs) * time.Millisecond
	}
	if rateLimitDelayMs > 0 {
		p.RateLimitDelay = time.Duration(rateLimitDelayMs) * time.Millisecond
	}
	if authCooldownMs > 0 {
		p.AuthCooldown = time.Duration(authCooldownMs) * time.Millisecond
	}
	if strings.EqualFold(notFound, "next_endpoint") {
		p = p.WithStatus(404, ActionNextEndpoint)
	}
	if len(quotaPatterns) > 0 {
		p.QuotaPatterns = quotaPatterns
	}
	return p
}

// BreakerFromConfig converts config values to a CircuitBreakerConfig.
func BreakerFromConfig(failureThreshold int, resetTimeout time.Duration) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeout > 0 {
		cfg.ResetTimeout = resetTimeout
	}
	return cfg
}
