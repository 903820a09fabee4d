package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/export"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

var (
	scoreIn    string
	scoreRules string
	scoreJSON  string
	scoreXLSX  string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Re-score and re-rank exported leads offline",
	Long: `Re-apply the scoring rules to a JSON export written by "run --json".
No provider or publication source is contacted.

Examples:
  score --in leads.json
  score --in leads.json --rules rules.yaml --xlsx rescored.xlsx`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreIn, "in", "", "JSON lead export to score (required)")
	f.StringVar(&scoreRules, "rules", "", "YAML scoring rules file (overrides config)")
	f.StringVar(&scoreJSON, "json", "", "write rescored leads to this JSON file")
	f.StringVar(&scoreXLSX, "xlsx", "", "write rescored leads to this XLSX file")
	_ = scoreCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate("score"); err != nil {
		return err
	}
	if scoreRules != "" {
		cfg.Scoring.RulesFile = scoreRules
	}

	scorer, err := initScorer(nil)
	if err != nil {
		return err
	}

	f, err := os.Open(scoreIn)
	if err != nil {
		return eris.Wrapf(err, "score: open %s", scoreIn)
	}
	leads, err := export.ReadJSON(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	ranked := pipeline.Rescore(scorer, leads)
	zap.L().Info("leads rescored", zap.String("in", scoreIn), zap.Int("leads", len(ranked)))

	printLeads(cmd.OutOrStdout(), ranked)
	return writeOutputs(ranked, scoreJSON, scoreXLSX)
}
