package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty role", func(c *Config) { c.RoleKeywords = nil }, "role_keywords"},
		{"blank topic", func(c *Config) { c.TopicKeywords = []string{" "} }, "topic_keywords"},
		{"empty tech", func(c *Config) { c.TechKeywords = []string{} }, "tech_keywords"},
		{"zero recency", func(c *Config) { c.RecencyYears = 0 }, "recency_years"},
		{"no hubs", func(c *Config) { c.Hubs = nil }, "hubs is empty"},
		{"hub without aliases", func(c *Config) { c.Hubs = []Hub{{Name: "Nowhere"}} }, "no aliases"},
		{"negative funding", func(c *Config) { c.FundingStages[0].Points = -5 }, "negative points"},
		{"medium above high", func(c *Config) { c.MediumThreshold = 90 }, "thresholds"},
		{"zero medium", func(c *Config) { c.MediumThreshold = 0 }, "thresholds"},
		{"high above max", func(c *Config) { c.HighThreshold = 120 }, "thresholds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			assert.ErrorContains(t, err, tt.want)

			_, err = New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
scoring:
  role_keywords: [cardiology]
  recency_years: 5
  hubs:
    - name: Texas
      aliases: [austin, houston]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiology"}, cfg.RoleKeywords)
	assert.Equal(t, 5, cfg.RecencyYears)
	require.Len(t, cfg.Hubs, 1)
	assert.Equal(t, []string{"austin", "houston"}, cfg.Hubs[0].Aliases)
	// Keys absent from the file keep their base values.
	assert.Equal(t, DefaultConfig().TopicKeywords, cfg.TopicKeywords)
	assert.Equal(t, 80, cfg.HighThreshold)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring: [unclosed"), 0o644))
	_, err = LoadFile(path, DefaultConfig())
	assert.Error(t, err)
}
