// Package quality handles the data-quality assessment command
package quality

import (
	"github.com/spf13/cobra"

	"fjacquet/commission-reconcile/cmd/root"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/salescookie"
)

// Cmd represents the quality command
var Cmd = &cobra.Command{
	Use:   "quality",
	Short: "Assess the quality of transaction exports",
	Long: `Assess the data quality of the compensation-system export files in a
directory: detected source, record counts, missing identifiers, truncated
deal names and the resulting quality score.`,
	Run: qualityFunc,
}

func qualityFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Transactions == "" {
		root.Log.Fatal("--transactions is required")
	}
	if root.AppContainer == nil {
		root.Log.Fatal("Container not initialized")
	}

	parser := root.AppContainer.GetTransactionParser()
	_, reports, err := parser.ParseDirectory(root.SharedFlags.Transactions, models.SourceUnknown, nil)
	if err != nil {
		root.Log.Fatalf("Error parsing transaction exports: %v", err)
	}

	for _, r := range reports {
		root.Log.Infof("Source %s: %d records, %d valid IDs, %d truncated names, score %.1f",
			r.Source, r.TotalRecords, r.ValidIDs, r.TruncatedNames, r.Score)
		for _, warning := range r.Warnings {
			root.Log.Warn(warning)
		}
	}

	root.Log.Infof("Combined quality score: %.1f/100", salescookie.CombinedScore(reports))
}
