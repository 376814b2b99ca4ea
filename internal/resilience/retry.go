package resilience

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Action is what the retry loop does after a failed attempt.
type Action int

const (
	// ActionRetry waits attempt × BaseDelay and tries again.
	ActionRetry Action = iota
	// ActionBackoff waits attempt × RateLimitDelay and tries again.
	ActionBackoff
	// ActionAuthCooldown waits the fixed AuthCooldown and tries again.
	ActionAuthCooldown
	// ActionFail gives up immediately.
	ActionFail
	// ActionNextEndpoint gives up on this endpoint so the caller can try the
	// next endpoint pattern.
	ActionNextEndpoint
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionBackoff:
		return "backoff"
	case ActionAuthCooldown:
		return "auth_cooldown"
	case ActionFail:
		return "fail"
	case ActionNextEndpoint:
		return "next_endpoint"
	default:
		return "unknown"
	}
}

// Policy is a provider's retry and status-code policy.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first. Default: 3.
	MaxAttempts int

	// BaseDelay scales the wait after ordinary failures (1500ms in DefaultPolicy).
	BaseDelay time.Duration

	// RateLimitDelay scales the wait after a 429 (2500ms in DefaultPolicy).
	RateLimitDelay time.Duration

	// AuthCooldown is the fixed wait after a 401 (3s in DefaultPolicy).
	AuthCooldown time.Duration

	// Statuses overrides the action for specific HTTP status codes.
	Statuses map[int]Action

	// QuotaPatterns are body substrings that mark a 402/403/429 as quota
	// exhaustion rather than an ordinary rejection.
	QuotaPatterns []string

	// OnAttempt is called after every failed attempt, before any wait.
	OnAttempt func(attempt int, action Action, err error)

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the status policy shared by most providers:
// 401 cools down, 429 backs off, 404 fails fast, anything else retries.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      1500 * time.Millisecond,
		RateLimitDelay: 2500 * time.Millisecond,
		AuthCooldown:   3 * time.Second,
		Statuses: map[int]Action{
			401: ActionAuthCooldown,
			429: ActionBackoff,
			404: ActionFail,
		},
		QuotaPatterns: []string{"quota", "usage limit", "credits", "exceeded your", "plan limit", "billing"},
	}
}

// WithStatus returns a copy of p with status mapped to action.
func (p Policy) WithStatus(status int, action Action) Policy {
	statuses := make(map[int]Action, len(p.Statuses)+1)
	for k, v := range p.Statuses {
		statuses[k] = v
	}
	statuses[status] = action
	p.Statuses = statuses
	return p
}

// ActionFor decides what to do with err. Quota, configuration and context
// errors always fail; otherwise an explicit status mapping wins over the
// error's type.
func (p Policy) ActionFor(err error) Action {
	if err == nil {
		return ActionFail
	}
	if IsQuotaExhausted(err) || IsConfigError(err) {
		return ActionFail
	}
	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if status := StatusCode(err); status != 0 {
		if a, ok := p.Statuses[status]; ok {
			return a
		}
	}

	var (
		ae *AuthError
		re *RateLimitError
	)
	switch {
	case errors.As(err, &ae):
		return ActionAuthCooldown
	case errors.As(err, &re):
		return ActionBackoff
	case IsNotFound(err):
		return ActionFail
	}
	return ActionRetry
}

// Delay returns the wait before the next attempt. attempt is 1-based.
func (p Policy) Delay(action Action, attempt int) time.Duration {
	switch action {
	case ActionAuthCooldown:
		return p.AuthCooldown
	case ActionBackoff:
		return time.Duration(attempt) * p.RateLimitDelay
	case ActionRetry:
		return time.Duration(attempt) * p.BaseDelay
	default:
		return 0
	}
}

func applyDefaults(p Policy) Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.RateLimitDelay < 0 {
		p.RateLimitDelay = 0
	}
	if p.AuthCooldown < 0 {
		p.AuthCooldown = 0
	}
	if p.Statuses == nil {
		p.Statuses = def.Statuses
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}
	return p
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn under policy p for the named provider. It returns the value of
// the first successful attempt, or a *FetchError wrapping the last failure.
func Do[T any](ctx context.Context, provider string, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = applyDefaults(p)

	var zero T
	var lastErr error
	attempt := 0
	for attempt < p.MaxAttempts {
		attempt++
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		action := p.ActionFor(err)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, action, err)
		}

		if ctx.Err() != nil {
			break
		}
		if action == ActionFail || action == ActionNextEndpoint {
			if action == ActionNextEndpoint {
				var ne *NotFoundError
				if errors.As(err, &ne) {
					ne.NextEndpoint = true
				}
			}
			break
		}
		if attempt >= p.MaxAttempts {
			break
		}

		if err := p.Sleep(ctx, p.Delay(action, attempt)); err != nil {
			break
		}
	}

	return zero, &FetchError{
		Provider: provider,
		Status:   StatusCode(lastErr),
		Message:  lastErr.Error(),
		Attempts: attempt,
		Err:      lastErr,
	}
}

// AttemptLogger returns an OnAttempt callback that logs each failed attempt.
func AttemptLogger(provider string) func(int, Action, error) {
	return func(attempt int, action Action, err error) {
		zap.L().Warn("provider attempt failed",
			zap.String("provider", provider),
			zap.Int("status", StatusCode(err)),
			zap.Int("attempt", attempt),
			zap.String("action", action.String()),
			zap.Error(err),
		)
	}
}
