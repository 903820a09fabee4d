package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/prospect-cli/internal/enrich/provider"
	"github.com/sells-group/prospect-cli/internal/score"
)

// Config holds the full application configuration.
type Config struct {
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	PubMed   PubMedConfig   `yaml:"pubmed" mapstructure:"pubmed"`
	Apollo   ProviderConfig `yaml:"apollo" mapstructure:"apollo"`
	Hunter   ProviderConfig `yaml:"hunter" mapstructure:"hunter"`
	Clearbit ProviderConfig `yaml:"clearbit" mapstructure:"clearbit"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Dedupe   DedupeConfig   `yaml:"dedupe" mapstructure:"dedupe"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Driver                string         `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres, redis
	DSN                   string         `yaml:"dsn" mapstructure:"dsn"`
	DatabaseURL           string         `yaml:"database_url" mapstructure:"database_url"`
	RedisURL              string         `yaml:"redis_url" mapstructure:"redis_url"`
	RedisPrefix           string         `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	IdentifyTTLHours      int            `yaml:"identify_ttl_hours" mapstructure:"identify_ttl_hours"`
	EnrichTTLHours        map[string]int `yaml:"enrich_ttl_hours" mapstructure:"enrich_ttl_hours"`
	DefaultEnrichTTLHours int            `yaml:"default_enrich_ttl_hours" mapstructure:"default_enrich_ttl_hours"`
}

// PubMedConfig configures the E-utilities client.
type PubMedConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	Email      string  `yaml:"email" mapstructure:"email"`
	Tool       string  `yaml:"tool" mapstructure:"tool"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxResults int     `yaml:"max_results" mapstructure:"max_results"`
	YearsBack  int     `yaml:"years_back" mapstructure:"years_back"`
}

// ProviderConfig configures an enrichment provider. A provider without a key
// is not registered.
type ProviderConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Quota      int     `yaml:"quota" mapstructure:"quota"` // 0 = unlimited
	MinScore   int     `yaml:"min_score" mapstructure:"min_score"`
}

// ExtractConfig configures candidate extraction.
type ExtractConfig struct {
	PrimaryAuthorsOnly bool `yaml:"primary_authors_only" mapstructure:"primary_authors_only"`
}

// DedupeConfig configures fuzzy merging.
type DedupeConfig struct {
	Threshold               float64 `yaml:"threshold" mapstructure:"threshold"`
	NameWeight              float64 `yaml:"name_weight" mapstructure:"name_weight"`
	AffiliationWeight       float64 `yaml:"affiliation_weight" mapstructure:"affiliation_weight"`
	MissingAffiliationScore float64 `yaml:"missing_affiliation_score" mapstructure:"missing_affiliation_score"`
}

// EnrichConfig configures provider chains and the enrichment budget.
type EnrichConfig struct {
	Chains      map[string][]string `yaml:"chains" mapstructure:"chains"`
	Budget      int                 `yaml:"budget" mapstructure:"budget"`
	Priority    string              `yaml:"priority" mapstructure:"priority"`
	Concurrency int                 `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int                 `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// BreakerThreshold consecutive auth or transient failures open a
	// provider's circuit for BreakerResetSecs.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScoringConfig holds the scoring rules. RulesFile, when set, overrides them.
type ScoringConfig struct {
	score.Config `yaml:",inline" mapstructure:",squash"`
	RulesFile    string `yaml:"rules_file" mapstructure:"rules_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RunTimeoutSecs int      `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// Load reads configuration from config.yaml and PROSPECT_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "prospect-cache.db")
	v.SetDefault("cache.redis_prefix", "prospect:cache:")
	v.SetDefault("cache.identify_ttl_hours", 720)
	v.SetDefault("cache.enrich_ttl_hours", map[string]int{"apollo": 168, "hunter": 168, "clearbit": 168})
	v.SetDefault("cache.default_enrich_ttl_hours", 168)
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.tool", "prospect-cli")
	v.SetDefault("pubmed.rate_per_sec", 3)
	v.SetDefault("pubmed.max_results", 100)
	v.SetDefault("pubmed.years_back", 2)
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.rate_per_sec", 1)
	v.SetDefault("hunter.base_url", "https://api.hunter.io")
	v.SetDefault("hunter.rate_per_sec", 2)
	v.SetDefault("hunter.min_score", 50)
	v.SetDefault("clearbit.base_url", "https://company.clearbit.com")
	v.SetDefault("clearbit.rate_per_sec", 2)
	v.SetDefault("dedupe.threshold", 0.85)
	v.SetDefault("dedupe.name_weight", 0.7)
	v.SetDefault("dedupe.affiliation_weight", 0.3)
	v.SetDefault("dedupe.missing_affiliation_score", 0.5)
	v.SetDefault("enrich.chains", map[string][]string{
		"linkedin": {"apollo"},
		"email":    {"apollo", "hunter"},
		"phone":    {"apollo"},
		"company":  {"apollo", "clearbit"},
	})
	v.SetDefault("enrich.budget", 5)
	v.SetDefault("enrich.priority", "corresponding_first")
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("enrich.breaker_threshold", 5)
	v.SetDefault("enrich.breaker_reset_secs", 60)
	sd := score.DefaultConfig()
	v.SetDefault("scoring.role_keywords", sd.RoleKeywords)
	v.SetDefault("scoring.topic_keywords", sd.TopicKeywords)
	v.SetDefault("scoring.tech_keywords", sd.TechKeywords)
	v.SetDefault("scoring.recency_years", sd.RecencyYears)
	v.SetDefault("scoring.funding_stages", sd.FundingStages)
	v.SetDefault("scoring.hubs", sd.Hubs)
	v.SetDefault("scoring.high_threshold", sd.HighThreshold)
	v.SetDefault("scoring.medium_threshold", sd.MediumThreshold)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.run_timeout_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run", "score", "cache":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RunTimeoutSecs <= 0 {
			errs = append(errs, "server.run_timeout_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Cache.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			errs = append(errs, "cache.database_url is required for the postgres driver")
		}
	case "redis":
		if c.Cache.RedisURL == "" {
			errs = append(errs, "cache.redis_url is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver %q is not one of memory, sqlite, postgres, redis", c.Cache.Driver))
	}

	d := c.Dedupe
	if d.Threshold <= 0 || d.Threshold > 1 {
		errs = append(errs, "dedupe.threshold must be in (0, 1]")
	}
	if d.NameWeight < 0 || d.AffiliationWeight < 0 || math.Abs(d.NameWeight+d.AffiliationWeight-1) > 1e-9 {
		errs = append(errs, "dedupe.name_weight and dedupe.affiliation_weight must be >= 0 and sum to 1")
	}
	if d.MissingAffiliationScore < 0 || d.MissingAffiliationScore > 1 {
		errs = append(errs, "dedupe.missing_affiliation_score must be in [0, 1]")
	}

	e := c.Enrich
	if e.Budget < 0 {
		errs = append(errs, "enrich.budget must be >= 0")
	}
	if e.Priority != "corresponding_first" && e.Priority != "first_n" {
		errs = append(errs, fmt.Sprintf("enrich.priority %q is not one of corresponding_first, first_n", e.Priority))
	}
	if e.Concurrency < 1 || e.Concurrency > 50 {
		errs = append(errs, "enrich.concurrency must be between 1 and 50")
	}
	if e.TimeoutSecs <= 0 {
		errs = append(errs, "enrich.timeout_secs must be > 0")
	}
	for group, chain := range e.Chains {
		if !provider.Group(group).Valid() {
			errs = append(errs, fmt.Sprintf("enrich.chains: unknown field group %q", group))
		}
		for _, name := range chain {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Sprintf("enrich.chains.%s contains an empty provider name", group))
			}
		}
	}

	if c.PubMed.RatePerSec <= 0 {
		errs = append(errs, "pubmed.rate_per_sec must be > 0")
	}
	if c.PubMed.MaxResults <= 0 {
		errs = append(errs, "pubmed.max_results must be > 0")
	}
	if c.PubMed.YearsBack <= 0 {
		errs = append(errs, "pubmed.years_back must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ScoreConfig returns the scoring rules, with the rules file applied on top
// of the inline rules when one is configured. The result is validated.
func (c *Config) ScoreConfig() (score.Config, error) {
	rules := c.Scoring.Config
	if c.Scoring.RulesFile != "" {
		var err error
		rules, err = score.LoadFile(c.Scoring.RulesFile, rules)
		if err != nil {
			return score.Config{}, err
		}
	}
	if err := score.ValidateConfig(rules); err != nil {
		return score.Config{}, err
	}
	return rules, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
