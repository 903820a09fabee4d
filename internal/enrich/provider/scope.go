package provider

import (
	"context"
	"sync"
)

type scopeKey struct{}

// scope holds lookups shared by the field groups of one Lead.
type scope struct {
	mu     sync.Mutex
	values map[string]any
}

// WithScope returns a context carrying a fresh lookup scope. Providers use it
// to share one upstream answer between the field groups of a single Enrich
// call; nothing outlives the context. An existing scope is kept.
func WithScope(ctx context.Context) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{values: make(map[string]any)})
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

func (s *scope) load(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *scope) store(key string, v any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}
