package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/dedupe"
	"github.com/sells-group/prospect-cli/internal/enrich"
	"github.com/sells-group/prospect-cli/internal/enrich/provider"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/identify"
	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/score"
	"github.com/sells-group/prospect-cli/pkg/apollo"
	"github.com/sells-group/prospect-cli/pkg/clearbit"
	"github.com/sells-group/prospect-cli/pkg/hunter"
	"github.com/sells-group/prospect-cli/pkg/pubmed"
)

// pipelineEnv holds the cache, provider registry, scorer and pipeline
// needed by the run and serve commands.
type pipelineEnv struct {
	Cache    *cache.Cache
	Registry *provider.Registry
	Quota    *provider.Quota
	Enricher *enrich.Orchestrator // nil when no provider is configured
	Scorer   *score.Engine
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Cache != nil {
		_ = pe.Cache.Close()
	}
}

// initPipeline validates the config for mode, opens the cache, registers
// every provider that has a key and builds the Pipeline. Callers should
// defer env.Close().
func initPipeline(ctx context.Context, mode string, m *metrics.Metrics) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	scorer, err := initScorer(m)
	if err != nil {
		return nil, err
	}

	c, err := initCache(ctx, m)
	if err != nil {
		return nil, err
	}

	env := &pipelineEnv{Cache: c, Scorer: scorer}
	env.Registry, env.Quota = initProviders()

	var enricher pipeline.Enricher
	ecfg := enrichConfig(env.Registry)
	if len(ecfg.Groups()) == 0 {
		zap.L().Warn("no enrichment provider configured, enrichment disabled",
			zap.Strings("registered", env.Registry.List()),
		)
	} else {
		orch, err := enrich.New(ecfg, env.Registry, c, enrich.WithMetrics(m))
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Enricher = orch
		enricher = orch
	}

	pubmedClient := pubmed.NewClient(
		pubmed.WithBaseURL(cfg.PubMed.BaseURL),
		pubmed.WithAPIKey(cfg.PubMed.APIKey),
		pubmed.WithEmail(cfg.PubMed.Email),
		pubmed.WithTool(cfg.PubMed.Tool),
		pubmed.WithRateLimit(cfg.PubMed.RatePerSec),
	)
	identifier := identify.New(
		identify.NewPubMedSource(pubmedClient, cfg.PubMed.MaxResults),
		identify.WithCache(c),
		identify.WithYearsBack(cfg.PubMed.YearsBack),
		identify.WithMaxResults(cfg.PubMed.MaxResults),
		identify.WithTTL(hours(cfg.Cache.IdentifyTTLHours)),
	)

	extractor := extract.New(extract.WithPrimaryAuthorsOnly(cfg.Extract.PrimaryAuthorsOnly))
	deduper := dedupe.New(
		dedupe.WithThreshold(cfg.Dedupe.Threshold),
		dedupe.WithWeights(cfg.Dedupe.NameWeight, cfg.Dedupe.AffiliationWeight),
		dedupe.WithMissingAffiliationScore(cfg.Dedupe.MissingAffiliationScore),
	)

	env.Pipeline = pipeline.New(identifier, extractor, deduper, enricher, scorer)

	zap.L().Info("pipeline initialized",
		zap.String("cache", cfg.Cache.Driver),
		zap.Strings("providers", env.Registry.List()),
		zap.Int("budget", ecfg.Budget),
	)
	return env, nil
}

// initScorer builds the scoring engine from the configured rules. Invalid
// rules are fatal.
func initScorer(m *metrics.Metrics) (*score.Engine, error) {
	rules, err := cfg.ScoreConfig()
	if err != nil {
		return nil, err
	}
	return score.New(rules, score.WithMetrics(m))
}

// initProviders registers each provider that has an API key, wrapped in the
// shared call quota and its own circuit breaker.
func initProviders() (*provider.Registry, *provider.Quota) {
	reg := provider.NewRegistry()
	quota := provider.NewQuota(map[string]int{
		provider.NameApollo:   cfg.Apollo.Quota,
		provider.NameHunter:   cfg.Hunter.Quota,
		provider.NameClearbit: cfg.Clearbit.Quota,
	})

	if cfg.Apollo.Key != "" {
		client := apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL))
		reg.Register(guard(provider.NewApollo(client), quota))
	}
	if cfg.Hunter.Key != "" {
		client := hunter.NewClient(cfg.Hunter.Key, hunter.WithBaseURL(cfg.Hunter.BaseURL))
		reg.Register(guard(provider.NewHunter(client, cfg.Hunter.MinScore), quota))
	}
	if cfg.Clearbit.Key != "" {
		client := clearbit.NewClient(cfg.Clearbit.Key, clearbit.WithBaseURL(cfg.Clearbit.BaseURL))
		reg.Register(guard(provider.NewClearbit(client), quota))
	}
	return reg, quota
}

func guard(p provider.Provider, quota *provider.Quota) provider.Provider {
	b := provider.NewBreaker(cfg.Enrich.BreakerThreshold, time.Duration(cfg.Enrich.BreakerResetSecs)*time.Second)
	return provider.WithBreaker(provider.WithQuota(p, quota), b)
}

// enrichConfig maps the config onto the orchestrator. Chain entries naming a
// provider that is not registered are dropped with a warning.
func enrichConfig(reg *provider.Registry) enrich.Config {
	ec := enrich.Config{
		Chains:      make(map[provider.Group][]string),
		Budget:      cfg.Enrich.Budget,
		Priority:    enrich.Priority(cfg.Enrich.Priority),
		Concurrency: cfg.Enrich.Concurrency,
		Timeout:     time.Duration(cfg.Enrich.TimeoutSecs) * time.Second,
		TTL:         make(map[string]time.Duration),
		DefaultTTL:  hours(cfg.Cache.DefaultEnrichTTLHours),
		RatePerSec: map[string]float64{
			provider.NameApollo:   cfg.Apollo.RatePerSec,
			provider.NameHunter:   cfg.Hunter.RatePerSec,
			provider.NameClearbit: cfg.Clearbit.RatePerSec,
		},
	}
	for name, h := range cfg.Cache.EnrichTTLHours {
		ec.TTL[name] = hours(h)
	}
	for group, chain := range cfg.Enrich.Chains {
		g := provider.Group(group)
		for _, name := range chain {
			if reg.Get(name) == nil {
				zap.L().Warn("dropping unregistered provider from chain",
					zap.String("provider", name),
					zap.String("field_group", group),
				)
				continue
			}
			ec.Chains[g] = append(ec.Chains[g], name)
		}
	}
	return ec
}
