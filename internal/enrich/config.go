// Package enrich fills enrichable Lead fields by walking configured provider
// chains per field group.
package enrich

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/enrich/provider"
)

// Priority selects which Leads receive the enrichment budget.
type Priority string

// Budget priority policies.
const (
	// PriorityCorrespondingFirst orders corresponding authors, then first
	// authors, then co-authors, each by extraction order.
	PriorityCorrespondingFirst Priority = "corresponding_first"
	// PriorityFirstN takes Leads in extraction order.
	PriorityFirstN Priority = "first_n"
)

// Defaults.
const (
	DefaultBudget      = 5
	DefaultConcurrency = 4
	DefaultTimeout     = 10 * time.Second
	DefaultTTL         = 7 * 24 * time.Hour
)

// Config controls the orchestrator.
type Config struct {
	// Chains maps each field group to its ordered provider names. Groups with
	// an empty chain are not requested.
	Chains map[provider.Group][]string
	// Budget caps how many Leads are enriched per run. Zero means all.
	Budget   int
	Priority Priority
	// Concurrency bounds how many Leads are enriched at once.
	Concurrency int
	// Timeout bounds each provider call.
	Timeout time.Duration
	// TTL is the cache lifetime of provider results, per provider.
	TTL        map[string]time.Duration
	DefaultTTL time.Duration
	// RatePerSec limits calls per provider. Zero or absent means unlimited.
	RatePerSec map[string]float64
}

// DefaultChains returns the standard provider chains.
func DefaultChains() map[provider.Group][]string {
	return map[provider.Group][]string{
		provider.GroupLinkedIn: {provider.NameApollo},
		provider.GroupEmail:    {provider.NameApollo, provider.NameHunter},
		provider.GroupPhone:    {provider.NameApollo},
		provider.GroupCompany:  {provider.NameApollo, provider.NameClearbit},
	}
}

// DefaultConfig returns the standard orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Chains:      DefaultChains(),
		Budget:      DefaultBudget,
		Priority:    PriorityCorrespondingFirst,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		DefaultTTL:  DefaultTTL,
	}
}

// Validate checks the config against the registered providers.
func (c Config) Validate(reg *provider.Registry) error {
	var errs []string
	if c.Budget < 0 {
		errs = append(errs, "budget must be >= 0")
	}
	switch c.Priority {
	case PriorityCorrespondingFirst, PriorityFirstN:
	default:
		errs = append(errs, "unknown priority "+string(c.Priority))
	}
	for g, chain := range c.Chains {
		if !g.Valid() {
			errs = append(errs, "unknown field group "+string(g))
			continue
		}
		for _, name := range chain {
			p := reg.Get(name)
			switch {
			case name == "":
				errs = append(errs, "empty provider name in "+string(g)+" chain")
			case p == nil:
				errs = append(errs, "provider "+name+" not registered")
			case !p.Supports(g):
				errs = append(errs, "provider "+name+" does not support "+string(g))
			}
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("enrich: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Groups returns the requested field groups in canonical order.
func (c Config) Groups() []provider.Group {
	var out []provider.Group
	for _, g := range provider.Groups {
		if len(c.Chains[g]) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func (c Config) ttlFor(name string) time.Duration {
	if d, ok := c.TTL[name]; ok && d > 0 {
		return d
	}
	if c.DefaultTTL > 0 {
		return c.DefaultTTL
	}
	return DefaultTTL
}
