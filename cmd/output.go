package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/export"
	"github.com/sells-group/prospect-cli/internal/model"
)

// writeOutputs exports leads to the requested files. Empty paths are skipped.
func writeOutputs(leads []model.Lead, jsonPath, xlsxPath string) error {
	if jsonPath != "" {
		f, err := os.Create(jsonPath)
		if err != nil {
			return eris.Wrapf(err, "create %s", jsonPath)
		}
		if err := export.WriteJSON(f, leads); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", jsonPath)
		}
		zap.L().Info("wrote json export", zap.String("path", jsonPath), zap.Int("leads", len(leads)))
	}
	if xlsxPath != "" {
		if err := export.WriteXLSX(xlsxPath, leads); err != nil {
			return err
		}
		zap.L().Info("wrote xlsx export", zap.String("path", xlsxPath), zap.Int("leads", len(leads)))
	}
	return nil
}

// printLeads writes the ranked leads as a table.
func printLeads(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tSCORE\tPRIORITY\tNAME\tCOMPANY\tPOSITION\tENRICHMENT")
	_, _ = fmt.Fprintln(w, "----\t-----\t--------\t----\t-------\t--------\t----------")
	for _, l := range leads {
		company := l.Company
		if l.CompanyNameVerified != "" {
			company = l.CompanyNameVerified
		}
		status := string(l.EnrichmentStatus)
		if status == "" {
			status = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			l.Rank, l.PropensityScore, l.PriorityLevel, l.Name, company, l.AuthorPosition, status)
	}
	_ = w.Flush()
}
