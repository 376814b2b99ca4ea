package provider

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/zerobounce"
)

// ZeroBounce implements EmailValidator.
type ZeroBounce struct {
	client    zerobounce.Client
	available bool
}

// NewZeroBounce creates a ZeroBounce adapter.
func NewZeroBounce(c zerobounce.Client, available bool) *ZeroBounce {
	return &ZeroBounce{client: c, available: available}
}

// Name implements Named.
func (z *ZeroBounce) Name() string { return NameZeroBounce }

// Available implements EmailValidator.
func (z *ZeroBounce) Available() bool { return z.available }

// MaxBatchSize implements BatchLimiter.
func (z *ZeroBounce) MaxBatchSize() int { return zerobounce.MaxBatchSize }

// Validate implements EmailValidator.
func (z *ZeroBounce) Validate(ctx context.Context, addr string) (model.ValidationResult, error) {
	r, err := z.client.Validate(ctx, addr)
	if err != nil {
		return model.ValidationResult{}, eris.Wrapf(err, "validate %s", addr)
	}
	res := toResult(*r)
	if res.Address == "" {
		res.Address = addr
	}
	return res, nil
}

// ValidateBatch implements EmailValidator. Results are returned in provider
// order; addresses the provider skipped are simply absent.
func (z *ZeroBounce) ValidateBatch(ctx context.Context, addrs []string) ([]model.ValidationResult, error) {
	resp, err := z.client.ValidateBatch(ctx, addrs)
	if err != nil {
		return nil, eris.Wrapf(err, "validate batch of %d", len(addrs))
	}
	out := make([]model.ValidationResult, 0, len(resp.EmailBatch))
	for _, r := range resp.EmailBatch {
		if r.Email() == "" {
			continue
		}
		out = append(out, toResult(r))
	}
	return out, nil
}

func toResult(r zerobounce.Result) model.ValidationResult {
	return model.ValidationResult{
		Address:   strings.TrimSpace(r.Email()),
		Status:    model.ParseValidationStatus(r.Status),
		SubStatus: r.SubStatus,
	}
}
