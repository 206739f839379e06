// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fjacquet/commission-reconcile/internal/config"
	"fjacquet/commission-reconcile/internal/container"
	"fjacquet/commission-reconcile/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	// Deals is the CRM deals export file.
	Deals string
	// Transactions is the directory of compensation-system export files.
	Transactions string
	// Output is where the discrepancy CSV export is written; empty disables it.
	Output string
	// Source forces the trust tier of the transaction exports: manual,
	// scraped or auto.
	Source string
	// Format selects the summary rendering: text or json.
	Format string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// AppConfig is the loaded application configuration, available to all
	// commands after PersistentPreRun.
	AppConfig *config.Config

	// AppContainer holds the wired application dependencies, available to
	// all commands after PersistentPreRun.
	AppContainer *container.Container

	// Logger is the adapter commands hand to the internal packages.
	Logger logging.Logger

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "commission-reconcile",
		Short: "Reconcile CRM deals against compensation-system transactions.",
		Long: `commission-reconcile matches closed-won CRM deals against the commission
transactions of the compensation system, validates the paid amounts against
the commission plans and reports every discrepancy found.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to commission-reconcile!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to load configuration: %v", err)
			}
			AppConfig = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
			Logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

			AppContainer, err = container.NewContainer(cfg)
			if err != nil {
				Log.Fatalf("Failed to initialize dependencies: %v", err)
			}
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Deals, "deals", "d", "", "CRM deals export CSV file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Transactions, "transactions", "t", "", "Directory of compensation-system export files")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Discrepancy CSV output file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Source, "source", "s", "auto", "Transaction source trust tier: manual, scraped or auto")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", "", "Summary output format: text or json")
}
