package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is wrapped in the transient error returned while a
// provider's breaker is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerState is the state of a provider circuit breaker.
type BreakerState int

// Breaker states.
const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Default breaker settings.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerReset     = time.Minute
)

// Breaker stops calling a provider after consecutive auth or transient
// failures. After the reset timeout one trial call is let through; its
// outcome closes or reopens the breaker. Not-found, plan and rate-limit
// answers prove the provider is reachable and count as success.
type Breaker struct {
	threshold int
	reset     time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a breaker. Non-positive values take the defaults.
func NewBreaker(threshold int, reset time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	if reset <= 0 {
		reset = DefaultBreakerReset
	}
	return &Breaker{threshold: threshold, reset: reset, now: time.Now}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.reset {
		return BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return false
		}
		b.state = BreakerHalfOpen
		b.probing = true
		return true
	case BreakerHalfOpen:
		// One trial call at a time.
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// record returns the state change caused by err, if any.
func (b *Breaker) record(err error) (from, to BreakerState, changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from = b.state
	b.probing = false

	if !trips(err) {
		b.failures = 0
		b.state = BreakerClosed
		return from, b.state, from != b.state
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
	return from, b.state, from != b.state
}

func trips(err error) bool {
	if err == nil {
		return false
	}
	switch Classify(err) {
	case KindAuth, KindTransient:
		return true
	default:
		return false
	}
}

// WithBreaker wraps p so calls fail fast as transient while b is open.
func WithBreaker(p Provider, b *Breaker) Provider {
	if b == nil {
		return p
	}
	return &breakerProvider{Provider: p, breaker: b}
}

type breakerProvider struct {
	Provider
	breaker *Breaker
}

func (p *breakerProvider) Resolve(ctx context.Context, g Group, id Identity) (*Result, error) {
	if !p.breaker.allow() {
		return nil, &Error{Kind: KindTransient, Provider: p.Name(), Err: ErrCircuitOpen}
	}
	res, err := p.Provider.Resolve(ctx, g, id)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		// A cancelled run says nothing about provider health.
		p.breaker.mu.Lock()
		p.breaker.probing = false
		p.breaker.mu.Unlock()
		return res, err
	}
	if from, to, changed := p.breaker.record(err); changed {
		zap.L().Warn("provider: circuit state changed",
			zap.String("provider", p.Name()),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return res, err
}
