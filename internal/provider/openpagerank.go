package provider

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/openpagerank"
)

// OpenPageRank implements AuthorityProvider. Page rank 0-10 is scaled to 0-100.
type OpenPageRank struct {
	client    openpagerank.Client
	available bool
}

// NewOpenPageRank creates an OpenPageRank adapter.
func NewOpenPageRank(c openpagerank.Client, available bool) *OpenPageRank {
	return &OpenPageRank{client: c, available: available}
}

// Name implements Named.
func (o *OpenPageRank) Name() string { return NameOpenPageRank }

// Available implements AuthorityProvider.
func (o *OpenPageRank) Available() bool { return o.available }

// Authority implements AuthorityProvider.
func (o *OpenPageRank) Authority(ctx context.Context, host string) (*model.AuthoritySignal, error) {
	resp, err := o.client.PageRank(ctx, host)
	if err != nil {
		if fetcher.IsDecodeError(err) {
			return nil, nil
		}
		return nil, err
	}
	e, ok := resp.Find(host)
	if !ok {
		return nil, nil
	}
	return &model.AuthoritySignal{DomainScore: e.PageRankDecimal * 10, Source: NameOpenPageRank}, nil
}
