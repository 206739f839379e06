// Package reconcile handles the full reconciliation run command
package reconcile

import (
	"os"

	"github.com/spf13/cobra"

	"fjacquet/commission-reconcile/cmd/root"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/salescookie"
)

// Cmd represents the reconcile command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full reconciliation",
	Long: `Run a full reconciliation: parse the CRM deals export and the
compensation-system transaction exports, match them, validate the paid
commissions and print the summary. Discrepancies can additionally be
written to a CSV file with --output.`,
	Run: reconcileFunc,
}

var categories []string

func init() {
	Cmd.Flags().StringSliceVar(&categories, "categories", nil,
		"Transaction categories to include (regular, withholding, forecast, split); default all")
}

func reconcileFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Deals == "" || root.SharedFlags.Transactions == "" {
		root.Log.Fatal("Both --deals and --transactions are required")
	}
	if root.AppContainer == nil {
		root.Log.Fatal("Container not initialized")
	}

	cfg := root.AppContainer.GetConfig()

	deals, err := root.AppContainer.GetDealParser().ParseFile(root.SharedFlags.Deals)
	if err != nil {
		root.Log.Fatalf("Error parsing deals export: %v", err)
	}

	transactions, qualityReports, err := root.AppContainer.GetTransactionParser().ParseDirectory(
		root.SharedFlags.Transactions, sourceHint(), includedCategories())
	if err != nil {
		root.Log.Fatalf("Error parsing transaction exports: %v", err)
	}

	result, err := root.AppContainer.GetEngine().Reconcile(
		deals, transactions, salescookie.CombinedScore(qualityReports))
	if err != nil {
		root.Log.Fatalf("Reconciliation failed: %v", err)
	}

	writer := root.AppContainer.GetReportWriter()

	format := root.SharedFlags.Format
	if format == "" {
		format = cfg.Output.Format
	}
	if format == "json" {
		err = writer.WriteJSON(result, os.Stdout)
	} else {
		err = writer.WriteSummary(result, os.Stdout)
	}
	if err != nil {
		root.Log.Fatalf("Error writing summary: %v", err)
	}

	output := root.SharedFlags.Output
	if output == "" {
		output = cfg.Output.DiscrepancyCSV
	}
	if output != "" {
		if err := writer.WriteDiscrepancyCSV(result, output); err != nil {
			root.Log.Fatalf("Error writing discrepancy CSV: %v", err)
		}
	}

	root.Log.Info("Reconciliation completed successfully!")
}

func includedCategories() map[models.TransactionCategory]bool {
	if len(categories) == 0 {
		return nil
	}
	include := make(map[models.TransactionCategory]bool, len(categories))
	for _, c := range categories {
		include[models.TransactionCategory(c)] = true
	}
	return include
}

func sourceHint() models.QualitySource {
	switch root.SharedFlags.Source {
	case "manual":
		return models.SourceManual
	case "scraped":
		return models.SourceScraped
	default:
		return models.SourceUnknown
	}
}
