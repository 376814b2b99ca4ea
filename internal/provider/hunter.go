package provider

import (
	"context"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/hunter"
)

// Hunter implements EmailDiscoverer over the Hunter domain search.
type Hunter struct {
	client    hunter.Client
	available bool
}

// NewHunter creates a Hunter adapter.
func NewHunter(c hunter.Client, available bool) *Hunter {
	return &Hunter{client: c, available: available}
}

// Name implements Named.
func (h *Hunter) Name() string { return NameHunter }

// Available implements EmailDiscoverer.
func (h *Hunter) Available() bool { return h.available }

// Discover implements EmailDiscoverer. Hunter confidence is 0-100.
func (h *Hunter) Discover(ctx context.Context, host string) ([]model.EmailCandidate, error) {
	resp, err := h.client.DomainSearch(ctx, host)
	if err != nil {
		return emptyOnDecode(NameHunter, host, err)
	}
	out := make([]model.EmailCandidate, 0, len(resp.Data.Emails))
	for _, e := range resp.Data.Emails {
		addr := strings.TrimSpace(e.Value)
		if addr == "" {
			continue
		}
		c := model.EmailCandidate{Address: addr, Source: NameHunter}
		if e.Confidence != nil {
			c.Confidence = model.Confidence(float64(*e.Confidence) / 100)
		}
		if e.Type == "generic" {
			c.RoleHint = "generic"
		}
		out = append(out, c)
	}
	return out, nil
}
