package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	runKeywords []string
	runBudget   int
	runJSON     string
	runXLSX     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lead pipeline for one or more keywords",
	Long: `Search recent publications for each keyword, extract and deduplicate
author leads, enrich them through the configured provider chains and rank
them by propensity score.

Examples:
  run --keyword "drug-induced liver injury" --keyword "3D cell culture"
  run --keyword hepatotoxicity --budget 20 --json leads.json --xlsx leads.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("budget") {
			cfg.Enrich.Budget = runBudget
		}

		env, err := initPipeline(ctx, "run", metrics.New(prometheus.NewRegistry()))
		if err != nil {
			return err
		}
		defer env.Close()

		result, runErr := env.Pipeline.Run(ctx, runKeywords)
		if result == nil {
			return eris.Wrap(runErr, "pipeline run")
		}
		if runErr != nil {
			zap.L().Warn("run interrupted, writing partial results", zap.Error(runErr))
		}

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Int("publications", result.Stats.Publications),
			zap.Int("candidates", result.Stats.Candidates),
			zap.Int("leads", len(result.Leads)),
			zap.Int("enriched", result.Stats.Enriched),
		)

		printLeads(os.Stdout, result.Leads)
		_, _ = fmt.Fprintf(os.Stdout, "\n%d leads (%d high, %d medium, %d low)\n",
			len(result.Leads),
			result.Stats.ByPriority[string(model.PriorityHigh)],
			result.Stats.ByPriority[string(model.PriorityMedium)],
			result.Stats.ByPriority[string(model.PriorityLow)],
		)

		if err := writeOutputs(result.Leads, runJSON, runXLSX); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runKeywords, "keyword", nil, "search keyword (repeatable, required)")
	runCmd.Flags().IntVar(&runBudget, "budget", 0, "max leads to enrich, 0 = all (default from config)")
	runCmd.Flags().StringVar(&runJSON, "json", "", "write ranked leads to this JSON file")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "write ranked leads to this XLSX file")
	_ = runCmd.MarkFlagRequired("keyword")
	rootCmd.AddCommand(runCmd)
}
