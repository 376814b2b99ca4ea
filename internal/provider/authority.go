package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// AuthorityChain tries authority providers in order, returning the first
// signal. Unavailable providers are skipped.
type AuthorityChain struct {
	providers []AuthorityProvider
}

// NewAuthorityChain creates a chain over the given providers.
func NewAuthorityChain(providers ...AuthorityProvider) *AuthorityChain {
	return &AuthorityChain{providers: providers}
}

// Name implements Named.
func (c *AuthorityChain) Name() string { return "authority_chain" }

// Available reports whether any provider in the chain is available.
func (c *AuthorityChain) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Authority returns the first signal any provider yields. With no signal and
// at least one failure, the last failure is returned.
func (c *AuthorityChain) Authority(ctx context.Context, host string) (*model.AuthoritySignal, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		sig, err := p.Authority(ctx, host)
		if err != nil {
			zap.L().Debug("authority: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("domain", host),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if sig != nil {
			return sig, nil
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "authority: all providers failed")
	}
	return nil, nil
}
