//go:build !integration

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/export"
	"github.com/sells-group/prospect-cli/internal/model"
)

func writeLeads(t *testing.T, path string, leads []model.Lead) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, leads))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func resetScoreFlags() {
	scoreIn, scoreRules, scoreJSON, scoreXLSX = "", "", "", ""
}

func TestScoreCmd_RescoresExport(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()
	scoreIn = filepath.Join(dir, "in.json")
	scoreJSON = filepath.Join(dir, "out.json")
	defer resetScoreFlags()

	writeLeads(t, scoreIn, []model.Lead{
		{Seq: 1, Name: "John Roe", Location: "Austin, TX", PropensityScore: 90, Rank: 1},
		{Seq: 2, Name: "Jane Doe", LinkedInTitle: "Preclinical Safety Lead", CompanyHQ: "Basel, Switzerland", Rank: 2},
	})

	var out bytes.Buffer
	scoreCmd.SetOut(&out)
	defer scoreCmd.SetOut(nil)

	require.NoError(t, runScore(scoreCmd, nil))
	assert.Contains(t, out.String(), "Jane Doe")

	f, err := os.Open(scoreJSON)
	require.NoError(t, err)
	defer f.Close()
	got, err := export.ReadJSON(f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jane Doe", got[0].Name)
	assert.Equal(t, 40, got[0].PropensityScore)
	assert.Equal(t, 0, got[1].PropensityScore)
	assert.Equal(t, model.PriorityLow, got[1].PriorityLevel)
}

func TestScoreCmd_RulesFile(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()
	scoreIn = filepath.Join(dir, "in.json")
	scoreJSON = filepath.Join(dir, "out.json")
	scoreRules = filepath.Join(dir, "rules.yaml")
	defer resetScoreFlags()

	require.NoError(t, os.WriteFile(scoreRules, []byte(`scoring:
  hubs:
    - name: Texas
      aliases: ["austin"]
`), 0o644))
	writeLeads(t, scoreIn, []model.Lead{{Seq: 1, Name: "John Roe", Location: "Austin, TX"}})

	scoreCmd.SetOut(&bytes.Buffer{})
	defer scoreCmd.SetOut(nil)
	require.NoError(t, runScore(scoreCmd, nil))

	f, err := os.Open(scoreJSON)
	require.NoError(t, err)
	defer f.Close()
	got, err := export.ReadJSON(f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].PropensityScore)
}

func TestScoreCmd_MissingInput(t *testing.T) {
	cfg = testConfig(t)
	scoreIn = filepath.Join(t.TempDir(), "missing.json")
	defer resetScoreFlags()

	err := runScore(scoreCmd, nil)
	assert.ErrorContains(t, err, "score: open")
}
