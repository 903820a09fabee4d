package score

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/model"
)

var evalTime = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), WithNow(func() time.Time { return evalTime }))
	require.NoError(t, err)
	return e
}

func TestScore_Scenarios(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name      string
		lead      model.Lead
		score     int
		priority  model.Priority
		breakdown map[string]int
	}{
		{
			name: "all criteria maxed is capped",
			lead: model.Lead{
				Title:               "Director of Preclinical Safety",
				PublicationTitle:    "Drug-Induced Liver Injury Assessment",
				PublicationDate:     "2025-09-01",
				CompanyFundingStage: "Series A",
				CompanyIndustry:     "Organ-on-Chip",
				Location:            "Cambridge, MA",
			},
			score:    100,
			priority: model.PriorityHigh,
			breakdown: map[string]int{
				CriterionRoleFit:          30,
				CriterionScientificIntent: 40,
				CriterionCompanyIntent:    20,
				CriterionTechnographic:    15,
				CriterionLocation:         10,
			},
		},
		{
			name: "nothing matches",
			lead: model.Lead{
				Title:               "Research Scientist",
				PublicationTitle:    "Cardiac Toxicity",
				PublicationDate:     "2023-06-01",
				CompanyFundingStage: "Seed",
				CompanyIndustry:     "Pharmaceuticals",
				Location:            "Austin, TX",
			},
			score:    0,
			priority: model.PriorityLow,
			breakdown: map[string]int{
				CriterionRoleFit:          0,
				CriterionScientificIntent: 0,
				CriterionCompanyIntent:    0,
				CriterionTechnographic:    0,
				CriterionLocation:         0,
			},
		},
		{
			name: "series c toxicology manager",
			lead: model.Lead{
				Title:               "Toxicology Manager",
				PublicationTitle:    "Liver Toxicity Assessment",
				PublicationDate:     "2026-01-10",
				CompanyFundingStage: "Series C",
			},
			score:    85,
			priority: model.PriorityHigh,
			breakdown: map[string]int{
				CriterionRoleFit:          30,
				CriterionScientificIntent: 40,
				CriterionCompanyIntent:    15,
				CriterionTechnographic:    0,
				CriterionLocation:         0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Score(tt.lead)
			assert.Equal(t, tt.score, r.Score)
			assert.Equal(t, tt.priority, r.Priority)
			assert.Equal(t, tt.breakdown, r.Breakdown)
		})
	}
}

func TestScore_LinkedInTitleCounts(t *testing.T) {
	e := newEngine(t)
	r := e.Score(model.Lead{LinkedInTitle: "Senior Toxicologist"})
	assert.Equal(t, RoleFitPoints, r.Breakdown[CriterionRoleFit])
}

func TestScore_RecencyWindow(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		date string
		want int
	}{
		{"2026-06-01", ScientificIntentPoints},
		{"2024-06-15", ScientificIntentPoints},
		{"2024-06-14", 0},
		{"2025", ScientificIntentPoints},
		{"2024", ScientificIntentPoints},
		{"2023", 0},
		{"2024-06", ScientificIntentPoints},
		{"2024-05", 0},
		{"", 0},
		{"not a date", 0},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			r := e.Score(model.Lead{PublicationTitle: "Hepatotoxicity of X", PublicationDate: tt.date})
			assert.Equal(t, tt.want, r.Breakdown[CriterionScientificIntent])
		})
	}
}

func TestScore_Funding(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		stage string
		want  int
	}{
		{"Series A", 20},
		{"series b", 20},
		{"Series C", 15},
		{"IPO", 15},
		{"Seed", 0},
		{"Series E", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Score(model.Lead{CompanyFundingStage: tt.stage}).Breakdown[CriterionCompanyIntent])
		})
	}
}

func TestScore_Location(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name string
		lead model.Lead
		want int
	}{
		{"person location", model.Lead{PersonLocation: "South San Francisco, California"}, 10},
		{"raw location", model.Lead{Location: "Basel, Switzerland"}, 10},
		{"company hq", model.Lead{Location: "Austin, TX", CompanyHQ: "Oxford, United Kingdom"}, 10},
		{"no match", model.Lead{Location: "Austin, TX"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Score(tt.lead).Breakdown[CriterionLocation])
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	e := newEngine(t)
	base := model.Lead{
		Title:            "Research Scientist",
		PublicationTitle: "Liver Injury Models",
		PublicationDate:  "2026-01-01",
	}
	before := e.Score(base).Score

	additions := []func(*model.Lead){
		func(l *model.Lead) { l.LinkedInTitle = "Head of Drug Safety" },
		func(l *model.Lead) { l.CompanyFundingStage = "Series B" },
		func(l *model.Lead) { l.CompanyIndustry = "3D cell culture" },
		func(l *model.Lead) { l.PersonLocation = "Boston, MA" },
		func(l *model.Lead) { l.CompanyHQ = "London" },
	}
	lead := base
	for _, add := range additions {
		add(&lead)
		after := e.Score(lead).Score
		assert.GreaterOrEqual(t, after, before)
		before = after
	}
	assert.Equal(t, MaxScore, before)
}

func TestScore_Pure(t *testing.T) {
	e := newEngine(t)
	lead := model.Lead{Title: "Toxicologist", Location: "Boston"}
	a := e.Score(lead)
	b := e.Score(lead)
	assert.Equal(t, a, b)
	assert.Zero(t, lead.PropensityScore)
	assert.Nil(t, lead.ScoreBreakdown)
}

func TestPriorityBoundaries(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, model.PriorityHigh, e.Priority(80))
	assert.Equal(t, model.PriorityMedium, e.Priority(79))
	assert.Equal(t, model.PriorityMedium, e.Priority(50))
	assert.Equal(t, model.PriorityLow, e.Priority(49))
	assert.Equal(t, model.PriorityLow, e.Priority(0))
}

func TestApply(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e, err := New(DefaultConfig(), WithNow(func() time.Time { return evalTime }), WithMetrics(m))
	require.NoError(t, err)

	leads := []model.Lead{
		{Title: "Toxicologist", Location: "Boston"},
		{Title: "Chemist"},
	}
	e.Apply(leads)

	assert.Equal(t, 40, leads[0].PropensityScore)
	assert.Equal(t, model.PriorityLow, leads[0].PriorityLevel)
	assert.Equal(t, 30, leads[0].ScoreBreakdown[CriterionRoleFit])
	assert.Equal(t, 0, leads[1].PropensityScore)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadsScored.WithLabelValues("Low")))
}

func TestCustomRules(t *testing.T) {
	cfg := Config{
		RoleKeywords:    []string{"cardio"},
		TopicKeywords:   []string{"arrhythmia"},
		TechKeywords:    []string{"ipsc"},
		RecencyYears:    1,
		FundingStages:   []FundingStage{{Points: 20, Stages: []string{"seed"}}},
		Hubs:            []Hub{{Name: "Texas", Aliases: []string{"austin"}}},
		HighThreshold:   60,
		MediumThreshold: 30,
	}
	e, err := New(cfg, WithNow(func() time.Time { return evalTime }))
	require.NoError(t, err)

	r := e.Score(model.Lead{Title: "Cardiologist", CompanyFundingStage: "Seed", Location: "Austin, TX"})
	assert.Equal(t, 60, r.Score)
	assert.Equal(t, model.PriorityHigh, r.Priority)
}
