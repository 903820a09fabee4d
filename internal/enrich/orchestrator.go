package enrich

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/enrich/provider"
	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Attempt outcomes besides the provider error kinds.
const (
	OutcomeOK       = "ok"
	OutcomeCacheHit = "cache_hit"
)

// Orchestrator resolves field groups for Leads through provider chains.
type Orchestrator struct {
	cfg      Config
	registry *provider.Registry
	cache    *cache.Cache
	metrics  *metrics.Metrics
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records provider outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithNow sets the clock used for provenance timestamps.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator. A nil cache gets a private in-memory one.
func New(cfg Config, reg *provider.Registry, c *cache.Cache, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(reg); err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if c == nil {
		c = cache.New(cache.NewMemory())
	}

	o := &Orchestrator{
		cfg:      cfg,
		registry: reg,
		cache:    c,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
	for name, rps := range cfg.RatePerSec {
		if rps > 0 {
			o.limiters[name] = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type groupOutcome struct {
	group    provider.Group
	resolved bool
	result   *provider.Result
	cached   bool
	attempts []model.ProviderAttempt
}

// Enrich resolves every requested field group for lead and returns the
// enriched copy. Provider failures never abort the Lead; they are recorded
// in EnrichmentAttempts and reflected in EnrichmentStatus.
func (o *Orchestrator) Enrich(ctx context.Context, lead model.Lead) model.Lead {
	out := lead.Clone()
	groups := o.cfg.Groups()
	if len(groups) == 0 {
		out.EnrichmentStatus = model.EnrichmentFailed
		return out
	}

	ctx = provider.WithScope(ctx)
	id := provider.IdentityFromLead(&out)
	outcomes := make([]groupOutcome, len(groups))
	var eg errgroup.Group
	for i, g := range groups {
		if out.Field(g.KeyField()) != "" {
			outcomes[i] = groupOutcome{group: g, resolved: true}
			continue
		}
		eg.Go(func() error {
			outcomes[i] = o.resolveGroup(ctx, g, id)
			return nil
		})
	}
	_ = eg.Wait()

	resolved := 0
	for _, oc := range outcomes {
		out.EnrichmentAttempts = append(out.EnrichmentAttempts, oc.attempts...)
		if oc.result != nil {
			o.apply(&out, oc)
		}
		if oc.resolved {
			resolved++
		}
	}
	if out.PersonLocation == "" {
		out.PersonLocation = out.Location
	}

	switch {
	case resolved == len(groups):
		out.EnrichmentStatus = model.EnrichmentSuccess
	case resolved > 0:
		out.EnrichmentStatus = model.EnrichmentPartial
	default:
		out.EnrichmentStatus = model.EnrichmentFailed
	}
	return out
}

// EnrichAll enriches the budgeted Leads concurrently and returns all Leads in
// input order. Leads outside the budget are returned unchanged.
func (o *Orchestrator) EnrichAll(ctx context.Context, leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i := range leads {
		out[i] = leads[i].Clone()
	}

	selected := o.Select(leads)
	eg := new(errgroup.Group)
	eg.SetLimit(o.cfg.Concurrency)
	for _, idx := range selected {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out[idx] = o.Enrich(ctx, leads[idx])
			return nil
		})
	}
	_ = eg.Wait()

	zap.L().Info("enrich: completed",
		zap.Int("leads", len(leads)),
		zap.Int("budgeted", len(selected)),
	)
	return out
}

// WithBudget returns a copy of o that enriches at most n Leads. The copy
// shares the cache, registry and rate limiters with o.
func (o *Orchestrator) WithBudget(n int) *Orchestrator {
	cp := *o
	cp.cfg.Budget = max(n, 0)
	return &cp
}

// Select returns the indices of the Leads that fit the budget, in priority order.
func (o *Orchestrator) Select(leads []model.Lead) []int {
	idx := make([]int, len(leads))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		la, lb := &leads[a], &leads[b]
		if o.cfg.Priority == PriorityCorrespondingFirst {
			if d := lb.AuthorPosition.Rank() - la.AuthorPosition.Rank(); d != 0 {
				return d
			}
		}
		return la.Seq - lb.Seq
	})
	if o.cfg.Budget > 0 && len(idx) > o.cfg.Budget {
		idx = idx[:o.cfg.Budget]
	}
	return idx
}

func (o *Orchestrator) resolveGroup(ctx context.Context, g provider.Group, id provider.Identity) groupOutcome {
	oc := groupOutcome{group: g}
	for _, name := range o.cfg.Chains[g] {
		p := o.registry.Get(name)
		attempt := model.ProviderAttempt{Provider: name, FieldGroup: string(g)}

		res, cached, err := o.call(ctx, p, g, id)
		switch {
		case err != nil:
			attempt.Outcome = string(provider.Classify(err))
			attempt.Error = err.Error()
			zap.L().Debug("enrich: provider failed",
				zap.String("provider", name),
				zap.String("field_group", string(g)),
				zap.String("kind", attempt.Outcome),
				zap.Error(err),
			)
		case !res.Usable(g):
			attempt.Outcome = string(provider.KindNotFound)
		case cached:
			attempt.Outcome = OutcomeCacheHit
		default:
			attempt.Outcome = OutcomeOK
		}
		oc.attempts = append(oc.attempts, attempt)
		o.metrics.ProviderCall(name, string(g), attempt.Outcome)

		if err == nil && res.Usable(g) {
			oc.resolved = true
			oc.result = res
			oc.cached = cached
			return oc
		}
	}
	return oc
}

// call returns the provider result for one chain step, through the cache.
// not_found is cached as an empty result; other failures are not cached.
func (o *Orchestrator) call(ctx context.Context, p provider.Provider, g provider.Group, id provider.Identity) (*provider.Result, bool, error) {
	name := p.Name()
	key := cache.Key(cache.NamespaceEnrich, name, string(g), id.Key)

	data, hit, err := o.cache.Fetch(ctx, key, o.cfg.ttlFor(name), func(ctx context.Context) ([]byte, error) {
		res, err := o.invoke(ctx, p, g, id)
		if err != nil {
			if provider.Classify(err) != provider.KindNotFound {
				return nil, err
			}
			res = &provider.Result{Provider: name}
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, false, err
	}

	var res provider.Result
	if err := json.Unmarshal(data, &res); err != nil {
		zap.L().Warn("enrich: discarding unreadable cached result", zap.String("key", key), zap.Error(err))
		_ = o.cache.Invalidate(ctx, key)
		return nil, false, provider.Wrap(name, err)
	}
	return &res, hit, nil
}

func (o *Orchestrator) invoke(ctx context.Context, p provider.Provider, g provider.Group, id provider.Identity) (*provider.Result, error) {
	name := p.Name()
	if lim := o.limiters[name]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, &provider.Error{Kind: provider.KindTransient, Provider: name, Err: err}
		}
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := p.Resolve(cctx, g, id)
	o.metrics.ObserveProvider(name, start)
	if err != nil {
		return nil, provider.Wrap(name, err)
	}
	if res == nil {
		return nil, provider.NotFound(name)
	}
	res.Provider = name
	return res, nil
}

func (o *Orchestrator) apply(l *model.Lead, oc groupOutcome) {
	now := o.now()
	for _, f := range oc.group.Fields() {
		v := oc.result.Fields[f]
		if v == "" || l.Field(f) != "" {
			continue
		}
		l.SetField(f, v)
		if l.Provenance == nil {
			l.Provenance = make(map[string]model.FieldProvenance)
		}
		l.Provenance[f] = model.FieldProvenance{
			Provider:   oc.result.Provider,
			FieldGroup: string(oc.group),
			Cached:     oc.cached,
			ResolvedAt: now,
		}
	}
}
