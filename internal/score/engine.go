package score

import (
	"strings"
	"time"

	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Result is the outcome of scoring one Lead.
type Result struct {
	Score     int
	Breakdown map[string]int
	Priority  model.Priority
}

// Engine scores Leads against a validated Config.
type Engine struct {
	role, topic, tech []string
	funding           []FundingStage
	hubs              [][]string
	recencyYears      int
	high, medium      int

	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow sets the evaluation time for the recency window.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics counts scored Leads per priority in Apply.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New validates cfg and builds an engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	e := &Engine{
		role:         lowerAll(cfg.RoleKeywords),
		topic:        lowerAll(cfg.TopicKeywords),
		tech:         lowerAll(cfg.TechKeywords),
		recencyYears: cfg.RecencyYears,
		high:         cfg.HighThreshold,
		medium:       cfg.MediumThreshold,
		now:          time.Now,
	}
	for _, fs := range cfg.FundingStages {
		e.funding = append(e.funding, FundingStage{Points: fs.Points, Stages: lowerAll(fs.Stages)})
	}
	for _, h := range cfg.Hubs {
		e.hubs = append(e.hubs, lowerAll(h.Aliases))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Score evaluates the five criteria for l. It reads only l's fields.
func (e *Engine) Score(l model.Lead) Result {
	b := map[string]int{
		CriterionRoleFit:          0,
		CriterionScientificIntent: 0,
		CriterionCompanyIntent:    0,
		CriterionTechnographic:    0,
		CriterionLocation:         0,
	}

	if containsAny(e.role, l.LinkedInTitle, l.Title) {
		b[CriterionRoleFit] = RoleFitPoints
	}
	if containsAny(e.topic, l.PublicationTitle) && e.recent(l.PublicationDate) {
		b[CriterionScientificIntent] = ScientificIntentPoints
	}
	b[CriterionCompanyIntent] = e.fundingPoints(l.CompanyFundingStage)
	if containsAny(e.tech, l.CompanyIndustry, l.PublicationTitle) {
		b[CriterionTechnographic] = TechnographicPoints
	}
	for _, aliases := range e.hubs {
		if containsAny(aliases, l.PersonLocation, l.Location, l.CompanyHQ) {
			b[CriterionLocation] = LocationPoints
			break
		}
	}

	total := 0
	for _, v := range b {
		total += v
	}
	total = min(total, MaxScore)
	return Result{Score: total, Breakdown: b, Priority: e.Priority(total)}
}

// Priority buckets a score.
func (e *Engine) Priority(score int) model.Priority {
	switch {
	case score >= e.high:
		return model.PriorityHigh
	case score >= e.medium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Apply scores every Lead in place.
func (e *Engine) Apply(leads []model.Lead) {
	for i := range leads {
		r := e.Score(leads[i])
		leads[i].PropensityScore = r.Score
		leads[i].ScoreBreakdown = r.Breakdown
		leads[i].PriorityLevel = r.Priority
		e.metrics.LeadScored(string(r.Priority))
	}
}

// recent reports whether date falls within the recency window ending now.
// A partial date counts when any day of its period does. Unparseable dates get
// no credit.
func (e *Engine) recent(date string) bool {
	t, ok := model.ParseDateEnd(date)
	if !ok {
		return false
	}
	cutoff := e.now().AddDate(-e.recencyYears, 0, 0)
	return !t.Before(cutoff)
}

func (e *Engine) fundingPoints(stage string) int {
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage == "" {
		return 0
	}
	best := 0
	for _, fs := range e.funding {
		if fs.Points > best && containsAny(fs.Stages, stage) {
			best = fs.Points
		}
	}
	return best
}

func containsAny(keywords []string, texts ...string) bool {
	for _, t := range texts {
		if t == "" {
			continue
		}
		t = strings.ToLower(t)
		for _, k := range keywords {
			if strings.Contains(t, k) {
				return true
			}
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range nonEmpty(in) {
		out = append(out, strings.ToLower(s))
	}
	return out
}
