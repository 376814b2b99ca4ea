// Package mocks provides test doubles for the provider capability interfaces.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/outreach-cli/internal/model"
)

// MockSearcher is a mock type for the Searcher interface.
type MockSearcher struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockSearcher) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// Search provides a mock function with given fields: ctx, keyword
func (_m *MockSearcher) Search(ctx context.Context, keyword string) ([]model.SearchHit, error) {
	ret := _m.Called(ctx, keyword)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []model.SearchHit
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.SearchHit); ok {
		r0 = rf(ctx, keyword)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.SearchHit)
	}
	return r0, ret.Error(1)
}

// MockAuthorityProvider is a mock type for the AuthorityProvider interface.
type MockAuthorityProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockAuthorityProvider) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// Available provides a mock function with given fields:
func (_m *MockAuthorityProvider) Available() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// Authority provides a mock function with given fields: ctx, host
func (_m *MockAuthorityProvider) Authority(ctx context.Context, host string) (*model.AuthoritySignal, error) {
	ret := _m.Called(ctx, host)

	if len(ret) == 0 {
		panic("no return value specified for Authority")
	}

	var r0 *model.AuthoritySignal
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.AuthoritySignal); ok {
		r0 = rf(ctx, host)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.AuthoritySignal)
	}
	return r0, ret.Error(1)
}

// MockEmailDiscoverer is a mock type for the EmailDiscoverer interface.
type MockEmailDiscoverer struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockEmailDiscoverer) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// Available provides a mock function with given fields:
func (_m *MockEmailDiscoverer) Available() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// Discover provides a mock function with given fields: ctx, host
func (_m *MockEmailDiscoverer) Discover(ctx context.Context, host string) ([]model.EmailCandidate, error) {
	ret := _m.Called(ctx, host)

	if len(ret) == 0 {
		panic("no return value specified for Discover")
	}

	var r0 []model.EmailCandidate
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.EmailCandidate); ok {
		r0 = rf(ctx, host)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.EmailCandidate)
	}
	return r0, ret.Error(1)
}

// MockEmailValidator is a mock type for the EmailValidator interface.
type MockEmailValidator struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockEmailValidator) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// Available provides a mock function with given fields:
func (_m *MockEmailValidator) Available() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// Validate provides a mock function with given fields: ctx, addr
func (_m *MockEmailValidator) Validate(ctx context.Context, addr string) (model.ValidationResult, error) {
	ret := _m.Called(ctx, addr)

	if len(ret) == 0 {
		panic("no return value specified for Validate")
	}

	var r0 model.ValidationResult
	if rf, ok := ret.Get(0).(func(context.Context, string) model.ValidationResult); ok {
		r0 = rf(ctx, addr)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.ValidationResult)
	}
	return r0, ret.Error(1)
}

// ValidateBatch provides a mock function with given fields: ctx, addrs
func (_m *MockEmailValidator) ValidateBatch(ctx context.Context, addrs []string) ([]model.ValidationResult, error) {
	ret := _m.Called(ctx, addrs)

	if len(ret) == 0 {
		panic("no return value specified for ValidateBatch")
	}

	var r0 []model.ValidationResult
	if rf, ok := ret.Get(0).(func(context.Context, []string) []model.ValidationResult); ok {
		r0 = rf(ctx, addrs)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ValidationResult)
	}
	return r0, ret.Error(1)
}
