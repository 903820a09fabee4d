package provider

import (
	"context"
	"sync"
)

// Quota caps the number of calls each provider may make in one process.
// A limit of zero, or no entry, means unlimited.
type Quota struct {
	mu     sync.Mutex
	limits map[string]int
	used   map[string]int
}

// NewQuota creates a quota from per-provider call limits.
func NewQuota(limits map[string]int) *Quota {
	q := &Quota{
		limits: make(map[string]int, len(limits)),
		used:   make(map[string]int),
	}
	for name, n := range limits {
		q.limits[name] = n
	}
	return q
}

// Take consumes one call for provider. It returns false once the limit is reached.
func (q *Quota) Take(provider string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	limit := q.limits[provider]
	if limit > 0 && q.used[provider] >= limit {
		return false
	}
	q.used[provider]++
	return true
}

// Used returns how many calls provider has made.
func (q *Quota) Used(provider string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used[provider]
}

// Remaining returns the calls left for provider, and false when unlimited.
func (q *Quota) Remaining(provider string) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	limit := q.limits[provider]
	if limit <= 0 {
		return 0, false
	}
	return max(limit-q.used[provider], 0), true
}

// charge takes one call for provider, or returns a rate_limited Error once
// the quota is spent. A nil Quota never refuses.
func (q *Quota) charge(provider string) error {
	if q == nil || q.Take(provider) {
		return nil
	}
	return &Error{Kind: KindRateLimited, Provider: provider, Err: errQuotaExhausted}
}

// Metered is implemented by providers that charge the quota themselves, once
// per upstream request rather than once per Resolve.
type Metered interface {
	UseQuota(q *Quota)
}

// WithQuota attaches q to p. A Metered provider is handed the quota and
// returned as is; any other provider is wrapped so that each Resolve beyond
// its quota fails as rate_limited without reaching it.
func WithQuota(p Provider, q *Quota) Provider {
	if q == nil {
		return p
	}
	if m, ok := p.(Metered); ok {
		m.UseQuota(q)
		return p
	}
	return &quotaProvider{Provider: p, quota: q}
}

type quotaProvider struct {
	Provider
	quota *Quota
}

func (p *quotaProvider) Resolve(ctx context.Context, g Group, id Identity) (*Result, error) {
	if err := p.quota.charge(p.Name()); err != nil {
		return nil, err
	}
	return p.Provider.Resolve(ctx, g, id)
}
