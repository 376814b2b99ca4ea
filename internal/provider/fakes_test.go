package provider

import (
	"context"

	"github.com/sells-group/outreach-cli/pkg/contacts"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/openpagerank"
	"github.com/sells-group/outreach-cli/pkg/serp"
	"github.com/sells-group/outreach-cli/pkg/zerobounce"
)

type fakeSERP struct {
	search *serp.SearchResponse
	scan   *serp.ScanResponse
	err    error
}

func (f *fakeSERP) Search(_ context.Context, _ string) (*serp.SearchResponse, error) {
	return f.search, f.err
}

func (f *fakeSERP) WebsiteScan(_ context.Context, _ string) (*serp.ScanResponse, error) {
	return f.scan, f.err
}

type fakeHunter struct {
	resp *hunter.DomainSearchResponse
	err  error
}

func (f *fakeHunter) DomainSearch(_ context.Context, _ string) (*hunter.DomainSearchResponse, error) {
	return f.resp, f.err
}

type fakeContacts struct {
	resp *contacts.Response
	err  error
}

func (f *fakeContacts) ScrapeContacts(_ context.Context, _ string) (*contacts.Response, error) {
	return f.resp, f.err
}

type fakeOPR struct {
	resp *openpagerank.Response
	err  error
}

func (f *fakeOPR) PageRank(_ context.Context, _ ...string) (*openpagerank.Response, error) {
	return f.resp, f.err
}

type fakeZB struct {
	single *zerobounce.Result
	batch  *zerobounce.BatchResponse
	err    error
}

func (f *fakeZB) Validate(_ context.Context, _ string) (*zerobounce.Result, error) {
	return f.single, f.err
}

func (f *fakeZB) ValidateBatch(_ context.Context, _ []string) (*zerobounce.BatchResponse, error) {
	return f.batch, f.err
}
