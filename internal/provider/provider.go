// Package provider defines the capability interfaces used by the outreach
// pipeline, the adapters that implement them on top of the raw vendor
// clients, and the registry and chain configuration that order them.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Adapter names. These are the keys used in the provider chain file.
const (
	NameSERP          = "serp"
	NameOpenPageRank  = "openpagerank"
	NameSERPAuthority = "serp_authority"
	NameHunter        = "hunter"
	NameContacts      = "contacts"
	NameSERPScan      = "serp_scan"
	NameZeroBounce    = "zerobounce"
)

// Named is implemented by every adapter.
type Named interface {
	// Name returns the adapter identifier (matches the chain file key).
	Name() string
}

// Searcher returns ranked search hits for a keyword.
type Searcher interface {
	Named
	Search(ctx context.Context, keyword string) ([]model.SearchHit, error)
}

// AuthorityProvider estimates a domain's authority on a 0-100 scale. A nil
// signal with a nil error means the provider has no data for the host.
type AuthorityProvider interface {
	Named
	Available() bool
	Authority(ctx context.Context, host string) (*model.AuthoritySignal, error)
}

// EmailDiscoverer finds candidate addresses for a domain.
type EmailDiscoverer interface {
	Named
	Available() bool
	Discover(ctx context.Context, host string) ([]model.EmailCandidate, error)
}

// EmailValidator checks deliverability for one or many addresses.
type EmailValidator interface {
	Named
	Available() bool
	Validate(ctx context.Context, addr string) (model.ValidationResult, error)
	ValidateBatch(ctx context.Context, addrs []string) ([]model.ValidationResult, error)
}

// BatchLimiter is implemented by validators with a maximum batch size.
type BatchLimiter interface {
	MaxBatchSize() int
}

// Registry holds adapters by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Named
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Named),
	}
}

// Register adds an adapter, replacing any adapter with the same name.
func (r *Registry) Register(a Named) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns an adapter by name, or nil if not found.
func (r *Registry) Get(name string) Named {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[name]
}

// List returns all registered adapter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Searcher returns the named adapter if it can search.
func (r *Registry) Searcher(name string) (Searcher, bool) {
	s, ok := r.Get(name).(Searcher)
	return s, ok
}

// Authority returns the named adapter if it provides authority.
func (r *Registry) Authority(name string) (AuthorityProvider, bool) {
	a, ok := r.Get(name).(AuthorityProvider)
	return a, ok
}

// Discoverer returns the named adapter if it discovers emails.
func (r *Registry) Discoverer(name string) (EmailDiscoverer, bool) {
	d, ok := r.Get(name).(EmailDiscoverer)
	return d, ok
}

// Validator returns the named adapter if it validates emails.
func (r *Registry) Validator(name string) (EmailValidator, bool) {
	v, ok := r.Get(name).(EmailValidator)
	return v, ok
}
