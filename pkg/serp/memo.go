package serp

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// memoSize bounds how many hosts a ScanMemo remembers.
const memoSize = 8

type scanEntry struct {
	resp *ScanResponse
	at   time.Time
}

// ScanMemo shares one website scan per host between the authority and
// discovery adapters. Entries expire after ttl; errors are never kept.
type ScanMemo struct {
	Client
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]scanEntry
}

// NewScanMemo wraps c. Search calls pass straight through.
func NewScanMemo(c Client, ttl time.Duration) *ScanMemo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ScanMemo{
		Client:  c,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]scanEntry),
	}
}

// WebsiteScan returns the remembered scan for domain, or calls the API.
func (m *ScanMemo) WebsiteScan(ctx context.Context, domain string) (*ScanResponse, error) {
	key := strings.ToLower(strings.TrimSpace(domain))

	m.mu.Lock()
	if e, ok := m.entries[key]; ok && m.now().Sub(e.at) < m.ttl {
		m.mu.Unlock()
		zap.L().Debug("serp: website scan memo hit", zap.String("domain", key))
		return e.resp, nil
	}
	m.mu.Unlock()

	resp, err := m.Client.WebsiteScan(ctx, domain)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if now.Sub(e.at) >= m.ttl {
			delete(m.entries, k)
		}
	}
	if len(m.entries) >= memoSize {
		oldest := ""
		for k, e := range m.entries {
			if oldest == "" || e.at.Before(m.entries[oldest].at) {
				oldest = k
			}
		}
		delete(m.entries, oldest)
	}
	m.entries[key] = scanEntry{resp: resp, at: now}
	return resp, nil
}
