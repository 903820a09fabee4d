// Package score computes propensity scores, priority levels and ranks for
// Leads from configurable keyword rules.
package score

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Criterion maximums.
const (
	RoleFitPoints          = 30
	ScientificIntentPoints = 40
	TechnographicPoints    = 15
	LocationPoints         = 10
	MaxScore               = 100
)

// Breakdown keys.
const (
	CriterionRoleFit          = "role_fit"
	CriterionScientificIntent = "scientific_intent"
	CriterionCompanyIntent    = "company_intent"
	CriterionTechnographic    = "technographic"
	CriterionLocation         = "location"
)

// Criteria lists the breakdown keys in report order.
var Criteria = []string{
	CriterionRoleFit,
	CriterionScientificIntent,
	CriterionCompanyIntent,
	CriterionTechnographic,
	CriterionLocation,
}

// FundingStage awards Points when the Lead's funding stage contains any of Stages.
type FundingStage struct {
	Points int      `yaml:"points" mapstructure:"points" json:"points"`
	Stages []string `yaml:"stages" mapstructure:"stages" json:"stages"`
}

// Hub is a region whose aliases are matched against location text.
type Hub struct {
	Name    string   `yaml:"name" mapstructure:"name" json:"name"`
	Aliases []string `yaml:"aliases" mapstructure:"aliases" json:"aliases"`
}

// Config holds every scoring rule. Matching is case-insensitive substring.
type Config struct {
	RoleKeywords    []string       `yaml:"role_keywords" mapstructure:"role_keywords" json:"role_keywords"`
	TopicKeywords   []string       `yaml:"topic_keywords" mapstructure:"topic_keywords" json:"topic_keywords"`
	TechKeywords    []string       `yaml:"tech_keywords" mapstructure:"tech_keywords" json:"tech_keywords"`
	RecencyYears    int            `yaml:"recency_years" mapstructure:"recency_years" json:"recency_years"`
	FundingStages   []FundingStage `yaml:"funding_stages" mapstructure:"funding_stages" json:"funding_stages"`
	Hubs            []Hub          `yaml:"hubs" mapstructure:"hubs" json:"hubs"`
	HighThreshold   int            `yaml:"high_threshold" mapstructure:"high_threshold" json:"high_threshold"`
	MediumThreshold int            `yaml:"medium_threshold" mapstructure:"medium_threshold" json:"medium_threshold"`
}

// DefaultConfig returns the standard drug-safety targeting rules.
func DefaultConfig() Config {
	return Config{
		RoleKeywords: []string{
			"toxicology", "toxicologist", "safety", "hepatic", "3d",
			"preclinical", "pre-clinical", "drug safety", "safety assessment",
			"preclinical safety", "safety scientist",
		},
		TopicKeywords: []string{
			"dili", "drug-induced liver injury", "drug induced liver injury",
			"liver toxicity", "hepatotoxicity", "hepatotoxic", "liver injury",
			"liver damage", "hepatic",
		},
		TechKeywords: []string{
			"3d", "in-vitro", "in vitro", "organ-on-chip", "organ-on-a-chip",
			"organ on chip", "spheroid", "organoid", "cell culture",
			"microphysiological", "mps", "nams", "new approach methodolog",
		},
		RecencyYears: 2,
		FundingStages: []FundingStage{
			{Points: 20, Stages: []string{"series a", "series b"}},
			{Points: 15, Stages: []string{"series c", "ipo"}},
		},
		Hubs: []Hub{
			{Name: "Boston/Cambridge", Aliases: []string{"boston", "cambridge, ma", "cambridge ma", "massachusetts"}},
			{Name: "Bay Area", Aliases: []string{
				"bay area", "san francisco", "south san francisco", "palo alto",
				"menlo park", "redwood city", "mountain view", "san jose", "fremont",
				"emeryville", "san mateo",
			}},
			{Name: "Basel", Aliases: []string{"basel"}},
			{Name: "UK Golden Triangle", Aliases: []string{
				"london", "oxford", "cambridge, uk", "cambridge uk",
				"cambridge, united kingdom", "cambridgeshire",
			}},
		},
		HighThreshold:   80,
		MediumThreshold: 50,
	}
}

// ValidateConfig rejects rule sets the engine cannot score with.
func ValidateConfig(cfg Config) error {
	var errs []string
	if len(nonEmpty(cfg.RoleKeywords)) == 0 {
		errs = append(errs, "role_keywords is empty")
	}
	if len(nonEmpty(cfg.TopicKeywords)) == 0 {
		errs = append(errs, "topic_keywords is empty")
	}
	if len(nonEmpty(cfg.TechKeywords)) == 0 {
		errs = append(errs, "tech_keywords is empty")
	}
	if cfg.RecencyYears <= 0 {
		errs = append(errs, "recency_years must be > 0")
	}
	if len(cfg.Hubs) == 0 {
		errs = append(errs, "hubs is empty")
	}
	for i, h := range cfg.Hubs {
		if len(nonEmpty(h.Aliases)) == 0 {
			errs = append(errs, fmt.Sprintf("hub %d (%s) has no aliases", i, h.Name))
		}
	}
	for i, fs := range cfg.FundingStages {
		if fs.Points < 0 {
			errs = append(errs, fmt.Sprintf("funding_stages[%d] has negative points", i))
		}
	}
	if cfg.MediumThreshold <= 0 || cfg.MediumThreshold > cfg.HighThreshold || cfg.HighThreshold > MaxScore {
		errs = append(errs, fmt.Sprintf("thresholds must satisfy 0 < medium (%d) <= high (%d) <= %d",
			cfg.MediumThreshold, cfg.HighThreshold, MaxScore))
	}
	if len(errs) > 0 {
		return eris.Errorf("score: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadFile reads a rules file. The YAML has a top-level "scoring" key. Keys
// absent from the file keep their values from base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "score: read rules %s", path)
	}

	wrapper := struct {
		Scoring Config `yaml:"scoring"`
	}{Scoring: base}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Config{}, eris.Wrap(err, "score: parse rules")
	}
	return wrapper.Scoring, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
