// Package pipeline runs the lead pipeline: identify, extract, deduplicate,
// enrich, then score and rank.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/dedupe"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/score"
)

// Identifier finds publications for keywords.
type Identifier interface {
	Run(ctx context.Context, keywords []string) ([]model.Publication, error)
}

// Enricher fills provider fields on a Lead set.
type Enricher interface {
	EnrichAll(ctx context.Context, leads []model.Lead) []model.Lead
}

// Phase status values.
const (
	PhaseComplete = "complete"
	PhaseFailed   = "failed"
	PhaseSkipped  = "skipped"
)

// Phase reports one pipeline stage.
type Phase struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Stats summarizes a run.
type Stats struct {
	Publications int            `json:"publications"`
	Candidates   int            `json:"candidates"`
	Deduplicated int            `json:"deduplicated"`
	Enriched     int            `json:"enriched"`
	ByStatus     map[string]int `json:"by_status"`
	ByPriority   map[string]int `json:"by_priority"`
}

// Result is the ranked output of a run.
type Result struct {
	RunID     string       `json:"run_id"`
	Keywords  []string     `json:"keywords"`
	StartedAt time.Time    `json:"started_at"`
	Leads     []model.Lead `json:"leads"`
	Stats     Stats        `json:"stats"`
	Phases    []Phase      `json:"phases"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	identifier Identifier
	extractor  *extract.Extractor
	deduper    *dedupe.Deduper
	enricher   Enricher
	scorer     *score.Engine
	now        func() time.Time
}

// New creates a Pipeline. A nil enricher skips enrichment.
func New(identifier Identifier, extractor *extract.Extractor, deduper *dedupe.Deduper, enricher Enricher, scorer *score.Engine) *Pipeline {
	return &Pipeline{
		identifier: identifier,
		extractor:  extractor,
		deduper:    deduper,
		enricher:   enricher,
		scorer:     scorer,
		now:        time.Now,
	}
}

// WithEnricher returns a copy of p that enriches with e.
func (p *Pipeline) WithEnricher(e Enricher) *Pipeline {
	cp := *p
	cp.enricher = e
	return &cp
}

// Run executes every stage for keywords. Per-Lead failures are absorbed. Run
// errors when identification fails for every keyword. When ctx is cancelled
// during enrichment the Leads gathered so far are still scored and returned
// alongside the error.
func (p *Pipeline) Run(ctx context.Context, keywords []string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Keywords:  keywords,
		StartedAt: p.now(),
	}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting run", zap.Strings("keywords", keywords))

	track := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		ph := Phase{Name: name, Status: PhaseComplete, DurationMs: time.Since(start).Milliseconds()}
		if err != nil {
			ph.Status = PhaseFailed
			ph.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", ph.DurationMs), zap.Error(err))
		} else {
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", ph.DurationMs))
		}
		result.Phases = append(result.Phases, ph)
		return err
	}

	var pubs []model.Publication
	if err := track("identify", func() error {
		var err error
		pubs, err = p.identifier.Run(ctx, keywords)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: identify")
	}
	result.Stats.Publications = len(pubs)

	var leads []model.Lead
	_ = track("extract", func() error {
		leads = p.extractor.All(pubs)
		return nil
	})
	result.Stats.Candidates = len(leads)

	_ = track("dedupe", func() error {
		leads = p.deduper.Merge(leads)
		return nil
	})
	result.Stats.Deduplicated = len(leads)

	var cancelled error
	if p.enricher != nil {
		_ = track("enrich", func() error {
			leads = p.enricher.EnrichAll(ctx, leads)
			cancelled = ctx.Err()
			return cancelled
		})
	} else {
		result.Phases = append(result.Phases, Phase{Name: "enrich", Status: PhaseSkipped})
	}

	_ = track("score", func() error {
		p.scorer.Apply(leads)
		leads = score.Rank(leads)
		return nil
	})

	result.Leads = leads
	result.Stats.ByStatus, result.Stats.ByPriority, result.Stats.Enriched = tally(leads)

	log.Info("pipeline: run complete",
		zap.Int("publications", result.Stats.Publications),
		zap.Int("candidates", result.Stats.Candidates),
		zap.Int("leads", len(leads)),
		zap.Int("enriched", result.Stats.Enriched),
	)
	if cancelled != nil {
		return result, eris.Wrap(cancelled, "pipeline: run cancelled")
	}
	return result, nil
}

// Rescore scores and ranks an existing Lead set without any network access.
func Rescore(scorer *score.Engine, leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i := range leads {
		out[i] = leads[i].Clone()
	}
	scorer.Apply(out)
	return score.Rank(out)
}

func tally(leads []model.Lead) (byStatus, byPriority map[string]int, enriched int) {
	byStatus = make(map[string]int)
	byPriority = make(map[string]int)
	for i := range leads {
		status := string(leads[i].EnrichmentStatus)
		if status == "" {
			status = "not_attempted"
		} else {
			enriched++
		}
		byStatus[status]++
		byPriority[string(leads[i].PriorityLevel)]++
	}
	return byStatus, byPriority, enriched
}
