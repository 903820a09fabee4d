// Package metrics exposes Prometheus instruments for the lead pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	LeadsScored     *prometheus.CounterVec
}

// New registers all pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_cache_lookups_total",
			Help: "Cache lookups by namespace and result (hit or miss)",
		}, []string{"namespace", "result"}),
		ProviderCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_provider_calls_total",
			Help: "Enrichment provider attempts by outcome",
		}, []string{"provider", "field_group", "outcome"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prospect_provider_latency_seconds",
			Help:    "Latency of enrichment provider network calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		LeadsScored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_leads_scored_total",
			Help: "Scored leads by priority level",
		}, []string{"priority"}),
	}
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(namespace, result).Inc()
}

// ProviderCall records one chain step.
func (m *Metrics) ProviderCall(provider, group, outcome string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, group, outcome).Inc()
}

// ObserveProvider records the duration of a provider network call.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveProvider(provider string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// LeadScored records the priority bucket of a scored lead.
func (m *Metrics) LeadScored(priority string) {
	if m == nil {
		return
	}
	m.LeadsScored.WithLabelValues(priority).Inc()
}
